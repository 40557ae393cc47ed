package websearch

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// DefaultEngineID is the programmable search engine used when the config
// does not name one.
const DefaultEngineID = "6161a1838d8c34589"

// Ensure APIClient implements the interface.
var _ SearchClient = (*APIClient)(nil)

// APIClient queries the Programmable Search API.
type APIClient struct {
	service  *customsearch.Service
	engineID string
}

// NewAPIClient creates a search client with an API key. engineID may be
// empty to use DefaultEngineID.
func NewAPIClient(ctx context.Context, apiKey, engineID string) (*APIClient, error) {
	service, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create search service: %w", err)
	}
	if engineID == "" {
		engineID = DefaultEngineID
	}
	return &APIClient{service: service, engineID: engineID}, nil
}

// Search returns one page of results for query starting at start.
func (c *APIClient) Search(ctx context.Context, query string, start int) ([]Result, error) {
	response, err := c.service.Cse.List().
		Q(query).
		Cx(c.engineID).
		Start(int64(start)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	results := make([]Result, 0, len(response.Items))
	for _, item := range response.Items {
		results = append(results, Result{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		})
	}
	return results, nil
}
