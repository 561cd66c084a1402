package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockElements = "p, br, li, div, tr, h1, h2, h3, h4, h5, h6"

// HTMLToText flattens an HTML description into plain text with collapsed
// whitespace. Text without markup is only trimmed.
func HTMLToText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	doc.Find("script, style, noscript").Remove()
	// Keep words from adjacent blocks apart.
	doc.Find(blockElements).Each(func(_ int, sel *goquery.Selection) {
		sel.AfterHtml(" ")
	})

	return strings.Join(strings.Fields(doc.Text()), " ")
}
