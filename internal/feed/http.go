package feed

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobrec/internal/posting"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	userAgent       = "spigell/jobrec"
	// Max value for per_page most job APIs accept.
	perPage = 100
	// maxPages guards against a server that never reports the last page.
	maxPages = 1000
)

// Params are the query parameters sent to the feed.
type Params struct {
	Text string `mapstructure:"text"`
	// feed is the query parameter name; fields without it use the mapstructure name.
	Locations []string `mapstructure:"locations" feed:"location"`
	Remote    bool     `mapstructure:"remote"`
	Level     string   `mapstructure:"level" feed:"experience"`
	Companies []string `mapstructure:"companies" feed:"company"`
	PerPage   int      `mapstructure:"per-page" feed:"per_page"`
	// Period is the maximum posting age in days.
	Period uint `mapstructure:"period"`
}

type itemResponse struct {
	Items   []any `json:"items"`
	Found   int   `json:"found"`
	Pages   int   `json:"pages"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

// HTTP pulls postings from a paged JSON API answering
// {items, found, pages, page, per_page}.
type HTTP struct {
	URL       string
	Params    *Params
	Token     string
	UserAgent string

	HTTPClient *http.Client
	logger     *zap.Logger
}

func NewHTTP(feedURL string, params *Params, token string, logger *zap.Logger) *HTTP {
	if logger == nil {
		logger = zap.NewNop()
	}
	if params == nil {
		params = &Params{}
	}
	return &HTTP{
		URL:       feedURL,
		Params:    params,
		Token:     token,
		UserAgent: userAgent,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Load requests every page of the feed and decodes the items.
func (c *HTTP) Load(ctx context.Context) ([]*posting.JobPosting, error) {
	params := *c.Params
	// Set per_page max as possible. It should be faster.
	if params.PerPage == 0 {
		params.PerPage = perPage
	}

	items, err := c.getItems(ctx, buildParams(&params))
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got items from feed", zap.String("url", c.URL), zap.Int("count", len(items)))

	return Decode(items)
}

func (c *HTTP) getItems(ctx context.Context, q url.Values) ([]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.URL.RawQuery = q.Encode()

	response, err := c.fetch(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got response from feed", zap.Int("pages", response.Pages), zap.Int("max items per page", response.PerPage))

	items := append([]any{}, response.Items...)

	for response.Page < response.Pages-1 && response.Page < maxPages {
		c.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < all page count (%d)", response.Page+1, response.Pages),
		))

		response, err = c.fetch(addPage(req, response.Page+1))
		if err != nil {
			return nil, err
		}

		items = append(items, response.Items...)
	}

	return items, nil
}

func (c *HTTP) fetch(req *http.Request) (*itemResponse, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	var response itemResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decoding feed page: %w", err)
	}

	return &response, nil
}

func (c *HTTP) setHeaders(req *http.Request) *http.Request {
	if c.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	// Setting the header ourselves disables transparent decompression.
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func buildParams(params *Params) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(params).Elem()
	for _, field := range reflect.VisibleFields(value.Type()) {
		key := field.Tag.Get("feed")
		if key == "" {
			key = field.Tag.Get("mapstructure")
		}

		switch v := value.FieldByIndex(field.Index).Interface().(type) {
		case []string:
			for _, item := range v {
				q.Add(key, item)
			}
		case bool:
			if v {
				q.Set(key, "true")
			}
		default:
			s := fmt.Sprintf("%v", v)
			if s != "" && s != "0" {
				q.Set(key, s)
			}
		}
	}

	return q
}

// addPage sets the page parameter on the request URL.
func addPage(req *http.Request, page int) *http.Request {
	q := req.URL.Query()
	q.Set("page", strconv.Itoa(page))
	req.URL.RawQuery = q.Encode()

	return req
}
