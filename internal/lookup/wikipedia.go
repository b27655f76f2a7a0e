// Package lookup holds the online search adapters. Both adapters follow the
// same contract: one request/response per call, no retries, and every
// failure is converted into a human-readable string instead of an error, so
// a broken network degrades retrieval rather than failing the request.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

const (
	defaultWikipediaBase = "https://en.wikipedia.org"
	excerptLimit         = 1500
)

// Wikipedia looks up the top search hit for a query and returns a bounded
// plain-text excerpt of the article.
type Wikipedia struct {
	baseURL string
	client  *http.Client
}

func NewWikipedia() *Wikipedia {
	return &Wikipedia{
		baseURL: defaultWikipediaBase,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWikipediaWithBase is used by tests to point the adapter at a stub server.
func NewWikipediaWithBase(baseURL string, client *http.Client) *Wikipedia {
	return &Wikipedia{baseURL: baseURL, client: client}
}

// Search finds the best-matching article and returns a formatted
// title/excerpt/URL block, truncated to 1500 characters of excerpt. Any
// failure yields an in-band error string.
func (w *Wikipedia) Search(ctx context.Context, query string) string {
	title, err := w.topHit(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("wikipedia search failed")
		return fmt.Sprintf("Error searching Wikipedia: %v", err)
	}
	if title == "" {
		return fmt.Sprintf("No Wikipedia results found for '%s'", query)
	}

	excerpt, err := w.extract(ctx, title)
	if err != nil {
		log.Warn().Err(err).Str("title", title).Msg("wikipedia extract failed")
		return fmt.Sprintf("Error searching Wikipedia: %v", err)
	}

	pageURL := fmt.Sprintf("%s/wiki/%s", w.baseURL, url.PathEscape(strings.ReplaceAll(title, " ", "_")))
	return fmt.Sprintf("Wikipedia: %s\n\n%s\n\nSource: %s", title, excerpt, pageURL)
}

func (w *Wikipedia) topHit(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", query)
	q.Set("srlimit", "1")
	q.Set("format", "json")

	var res struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := w.get(ctx, q, &res); err != nil {
		return "", err
	}
	if len(res.Query.Search) == 0 {
		return "", nil
	}
	return res.Query.Search[0].Title, nil
}

func (w *Wikipedia) extract(ctx context.Context, title string) (string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("prop", "extracts")
	q.Set("titles", title)
	q.Set("redirects", "1")
	q.Set("format", "json")

	var res struct {
		Query struct {
			Pages map[string]struct {
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := w.get(ctx, q, &res); err != nil {
		return "", err
	}

	var html string
	for _, page := range res.Query.Pages {
		html = page.Extract
		break
	}
	text, err := stripHTML(html)
	if err != nil {
		return "", err
	}
	// truncate by runes, a byte cut could split a multi-byte character
	if r := []rune(text); len(r) > excerptLimit {
		text = string(r[:excerptLimit]) + "..."
	}
	return text, nil
}

func (w *Wikipedia) get(ctx context.Context, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/w/api.php?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request failed: %d, %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// stripHTML reduces an HTML extract to paragraph text.
func stripHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			b.WriteString(t)
			b.WriteString("\n\n")
		}
	})
	text := strings.TrimSpace(b.String())
	if text == "" {
		// extract had no <p> markup, fall back to all text
		text = strings.TrimSpace(doc.Text())
	}
	return text, nil
}
