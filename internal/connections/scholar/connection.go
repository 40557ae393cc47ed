// Package scholar builds spaces from Google Scholar search results.
// Scholar has no public API, so results are read through SerpAPI, proxied
// by the backend to keep the API key usage server-side auditable.
package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/logger"
)

const (
	// anchorSelector is where the portal is mounted.
	anchorSelector = "#gs_bdy_ccl"

	// serpAPIURL is the upstream search endpoint, fetched via the proxy.
	serpAPIURL = "https://serpapi.com/search"

	// resultPages is how many twenty-result pages are gathered per query.
	resultPages = 10

	// pageSize is the per-request result count.
	pageSize = 20

	// DefaultRequestInterval paces proxy requests. SerpAPI throttles
	// aggressive clients, and ten pages per run add up.
	DefaultRequestInterval = 5 * time.Second
)

// Ensure Connection implements the interfaces.
var (
	_ driven.Connection = (*Connection)(nil)
	_ driven.SpaceNamer = (*Connection)(nil)
)

// Connection extracts Google Scholar results into records.
type Connection struct {
	sdkBaseURL string
	apiKey     string
	limiter    *rate.Limiter
}

// Option configures a Connection.
type Option func(*Connection)

// WithRequestInterval overrides the pacing between proxy requests.
func WithRequestInterval(interval time.Duration) Option {
	return func(c *Connection) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// New creates the Google Scholar connection. sdkBaseURL is the backend
// hosting the SerpAPI proxy; apiKey is the SerpAPI key forwarded through
// it.
func New(sdkBaseURL, apiKey string, opts ...Option) *Connection {
	c := &Connection{
		sdkBaseURL: strings.TrimSuffix(sdkBaseURL, "/"),
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Every(DefaultRequestInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the connection's display name.
func (c *Connection) Name() string {
	return "Google Scholar"
}

// Description returns a brief explanation of what the connection does.
func (c *Connection) Description() string {
	return "Builds spaces based on the results of your Google Scholar searches"
}

// Trigger matches Scholar result pages, not the Scholar landing page.
func (c *Connection) Trigger(url string) bool {
	return strings.Contains(url, "scholar.google.com/scholar?")
}

// SpaceName proposes the search query as the space name.
func (c *Connection) SpaceName(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("q")
}

// serpResponse is the slice of a SerpAPI response this connection reads.
type serpResponse struct {
	OrganicResults []struct {
		Position int    `json:"position"`
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
	} `json:"organic_results"`
}

// Extract pages through the proxied SerpAPI results for the page's query.
// The as_sdt parameter carries over so court-opinion and patent filters
// survive the round trip.
func (c *Connection) Extract(ctx context.Context, pageURL string, collab *driven.Collaborators) (*domain.Batch, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	query := parsed.Query().Get("q")
	if query == "" {
		return nil, fmt.Errorf("%w: no query in %s", domain.ErrInvalidInput, pageURL)
	}
	asSDT := parsed.Query().Get("as_sdt")
	if asSDT == "" {
		asSDT = "0"
	}

	var records []domain.Record
	for start := 0; start < resultPages*pageSize; start += pageSize {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := collab.Pages.Fetch(ctx, c.proxyURL(query, asSDT, start))
		if err != nil {
			return nil, fmt.Errorf("fetch results page %d: %w", start/pageSize+1, err)
		}

		var response serpResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, fmt.Errorf("decode results page %d: %w", start/pageSize+1, err)
		}
		if len(response.OrganicResults) == 0 {
			break
		}

		for _, result := range response.OrganicResults {
			records = append(records, domain.Record{
				"idx":     result.Position + start,
				"title":   result.Title,
				"link":    result.Link,
				"snippet": result.Snippet,
			})
		}
	}

	logger.Debug("gathered %d scholar results for %q", len(records), query)

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no results for %q", domain.ErrDocumentTooShort, query)
	}

	return &domain.Batch{
		Records: records,
		FieldTypes: domain.FieldTypeMap{
			"idx":     domain.FieldNumeric,
			"title":   domain.FieldTitle,
			"link":    domain.FieldLinks,
			"snippet": domain.FieldSemantic,
		},
	}, nil
}

// InjectUI mounts the portal above the result column.
func (c *Connection) InjectUI(ctx context.Context, spaceID string, collab *driven.Collaborators) (*domain.Portal, error) {
	return collab.Portals.BuildPortal(ctx, spaceID, c.Name(), anchorSelector, nil)
}

// proxyURL builds the proxied SerpAPI request for one result page.
func (c *Connection) proxyURL(query, asSDT string, start int) string {
	inner := url.Values{}
	inner.Set("engine", "google_scholar")
	inner.Set("q", query)
	inner.Set("api_key", c.apiKey)
	inner.Set("num", fmt.Sprint(pageSize))
	inner.Set("start", fmt.Sprint(start))
	inner.Set("as_sdt", asSDT)

	upstream := serpAPIURL + "?" + inner.Encode()
	return c.sdkBaseURL + "/get_proxy/" + url.QueryEscape(upstream)
}
