// Package websearch builds spaces from Google search result pages. The
// visible results are re-fetched through the Programmable Search API, so
// the space covers the full first hundred results rather than the one
// page the user is looking at.
package websearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/logger"
)

const (
	// anchorSelector is where the portal is mounted.
	anchorSelector = "#appbar > div > div:nth-child(2)"

	// resultPages is how many ten-result pages are gathered per query.
	resultPages = 10

	// pageSize is the API's fixed page size.
	pageSize = 10
)

// Ensure Connection implements the interfaces.
var (
	_ driven.Connection = (*Connection)(nil)
	_ driven.SpaceNamer = (*Connection)(nil)
)

// Result is one search result.
type Result struct {
	Title   string
	Link    string
	Snippet string
}

// SearchClient pages through results for a query. The production
// implementation wraps the Programmable Search API.
type SearchClient interface {
	// Search returns up to pageSize results for query starting at the
	// given zero-based offset.
	Search(ctx context.Context, query string, start int) ([]Result, error)
}

// Connection extracts Google search results into records.
type Connection struct {
	client SearchClient
}

// New creates the web search connection querying through client.
func New(client SearchClient) *Connection {
	return &Connection{client: client}
}

// Name returns the connection's display name.
func (c *Connection) Name() string {
	return "Google"
}

// Description returns a brief explanation of what the connection does.
func (c *Connection) Description() string {
	return "Builds spaces based on the results of your Google searches"
}

// Trigger matches Google search result pages.
func (c *Connection) Trigger(url string) bool {
	return strings.Contains(url, "google.com/search")
}

// SpaceName proposes the search query as the space name.
func (c *Connection) SpaceName(pageURL string) string {
	query, err := Query(pageURL)
	if err != nil {
		return ""
	}
	return query
}

// Extract re-runs the page's query through the search API, gathering the
// first hundred results. The title doubles as a semantic field so results
// place near others about the same subject.
func (c *Connection) Extract(ctx context.Context, pageURL string, collab *driven.Collaborators) (*domain.Batch, error) {
	query, err := Query(pageURL)
	if err != nil {
		return nil, err
	}

	var records []domain.Record
	for start := 0; start < resultPages*pageSize; start += pageSize {
		results, err := c.client.Search(ctx, query, start)
		if err != nil {
			return nil, fmt.Errorf("search page %d: %w", start/pageSize+1, err)
		}
		if len(results) == 0 {
			break
		}

		for _, result := range results {
			records = append(records, domain.Record{
				"title":          result.Title,
				"semantic_title": result.Title,
				"link":           result.Link,
				"snippet":        result.Snippet,
			})
		}
	}

	logger.Debug("gathered %d search results for %q", len(records), query)

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no results for %q", domain.ErrDocumentTooShort, query)
	}

	return &domain.Batch{
		Records: records,
		FieldTypes: domain.FieldTypeMap{
			"title":          domain.FieldTitle,
			"semantic_title": domain.FieldSemantic,
			"link":           domain.FieldLinks,
			"snippet":        domain.FieldSemantic,
		},
	}, nil
}

// InjectUI mounts the portal under the results app bar.
func (c *Connection) InjectUI(ctx context.Context, spaceID string, collab *driven.Collaborators) (*domain.Portal, error) {
	return collab.Portals.BuildPortal(ctx, spaceID, c.Name(), anchorSelector, nil)
}

// Query extracts the q parameter from a search URL.
func Query(pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	query := parsed.Query().Get("q")
	if query == "" {
		return "", fmt.Errorf("%w: no query in %s", domain.ErrInvalidInput, pageURL)
	}
	return query, nil
}
