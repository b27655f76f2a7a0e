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

	"github.com/rs/zerolog/log"
)

const (
	defaultSerpAPIBase = "https://serpapi.com"
	maxWebResults      = 3
)

// MissingKeyMessage is what the web adapter returns when no API key is
// configured. The pipeline keeps working; only this source degrades.
const MissingKeyMessage = "Error: SERPAPI_API_KEY not found in environment variables. Please add it to your .env file."

// SerpAPI issues Google searches through serpapi.com and formats the top
// organic results.
type SerpAPI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSerpAPI(apiKey string) *SerpAPI {
	return &SerpAPI{
		apiKey:  apiKey,
		baseURL: defaultSerpAPIBase,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewSerpAPIWithBase is used by tests to point the adapter at a stub server.
func NewSerpAPIWithBase(apiKey, baseURL string, client *http.Client) *SerpAPI {
	return &SerpAPI{apiKey: apiKey, baseURL: baseURL, client: client}
}

// Search returns up to 3 formatted title/snippet/URL results. A missing key
// or any transport failure comes back as explanatory text, never an error.
func (s *SerpAPI) Search(ctx context.Context, query string) string {
	if s.apiKey == "" {
		return MissingKeyMessage
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("engine", "google")
	q.Set("num", fmt.Sprintf("%d", maxWebResults))
	q.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search.json?"+q.Encode(), nil)
	if err != nil {
		return fmt.Sprintf("Error performing search: %v", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("web search failed")
		return fmt.Sprintf("Error performing search: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warn().Int("status", resp.StatusCode).Str("query", query).Msg("web search failed")
		return fmt.Sprintf("Error performing search: request failed: %d, %s", resp.StatusCode, string(body))
	}

	var res struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"organic_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Sprintf("Error performing search: %v", err)
	}
	if len(res.OrganicResults) == 0 {
		return fmt.Sprintf("No results found for query: %s", query)
	}

	var b strings.Builder
	for i, r := range res.OrganicResults {
		if i >= maxWebResults {
			break
		}
		title, snippet, link := r.Title, r.Snippet, r.Link
		if title == "" {
			title = "No title"
		}
		if snippet == "" {
			snippet = "No description available"
		}
		if link == "" {
			link = "No link"
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n   URL: %s\n", i+1, title, snippet, link)
	}
	return strings.TrimRight(b.String(), "\n")
}
