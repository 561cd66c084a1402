package profile

import (
	"strings"
	"unicode"
)

// acronyms that look like technology terms but are not.
var nonTechAcronyms = map[string]struct{}{
	"ceo": {}, "cto": {}, "cfo": {}, "coo": {}, "vp": {}, "hr": {}, "pm": {}, "am": {},
	"usa": {}, "us": {}, "uk": {}, "eu": {}, "usd": {}, "eur": {}, "ok": {}, "nda": {},
	"mba": {}, "bsc": {}, "msc": {}, "phd": {}, "ba": {}, "ma": {}, "llc": {}, "inc": {},
	"it": {}, "kpi": {}, "roi": {}, "b2b": {}, "b2c": {}, "saas": {},
}

// containsTerm reports whether term occurs in text on word boundaries.
// Both arguments must already be lower-case.
func containsTerm(text, term string) bool {
	if term == "" {
		return false
	}
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	return !isWordByte(text[i-1])
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	// "react." at the end of a sentence still counts.
	if text[i] == '.' && (i+1 == len(text) || !isWordByte(text[i+1])) {
		return true
	}
	return !isWordByte(text[i])
}

func isWordByte(b byte) bool {
	return b == '_' || b == '+' || b == '#' || b == '.' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9') || b >= 0x80
}

// techTerms picks tokens from free text that are shaped like technology
// names: "c++", "asp.net", "GraphQL", "iOS", "AWS".
func techTerms(text string) []string {
	var terms []string
	for _, raw := range strings.Fields(text) {
		token := strings.Trim(raw, ",;:()[]{}\"'!?*")
		token = strings.TrimRight(token, ".")
		if looksTechnical(token) {
			terms = append(terms, strings.ToLower(token))
		}
	}
	return terms
}

func looksTechnical(token string) bool {
	if len(token) < 2 || strings.Contains(token, "@") || strings.Contains(token, "://") {
		return false
	}

	var letters, upper, lower int
	internalUpper := false
	for i, r := range token {
		switch {
		case unicode.IsUpper(r):
			letters++
			upper++
			if i > 0 {
				internalUpper = true
			}
		case unicode.IsLower(r):
			letters++
			lower++
		}
	}
	if letters == 0 {
		return false
	}

	if strings.ContainsAny(token, "+#") {
		return true
	}

	if strings.Contains(token, ".") {
		parts := strings.Split(token, ".")
		longest := 0
		for _, part := range parts {
			if part == "" {
				return false
			}
			if len(part) > longest {
				longest = len(part)
			}
		}
		return longest >= 2 && letters >= 3
	}

	if _, skip := nonTechAcronyms[strings.ToLower(token)]; skip {
		return false
	}

	// TypeScript, GraphQL, iOS
	if internalUpper && lower > 0 {
		return true
	}

	// AWS, SQL, K8S
	return lower == 0 && upper >= 2 && len(token) <= 5
}
