package websearch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
)

// fakeSearch serves a fixed number of result pages.
type fakeSearch struct {
	pages  int
	starts []int
	err    error
}

func (f *fakeSearch) Search(ctx context.Context, query string, start int) ([]Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.starts = append(f.starts, start)
	if start >= f.pages*pageSize {
		return nil, nil
	}

	results := make([]Result, pageSize)
	for i := range results {
		n := start + i
		results[i] = Result{
			Title:   fmt.Sprintf("Result %d for %s", n, query),
			Link:    fmt.Sprintf("https://example.com/%d", n),
			Snippet: fmt.Sprintf("Snippet %d", n),
		}
	}
	return results, nil
}

func TestTrigger(t *testing.T) {
	c := New(&fakeSearch{})
	assert.True(t, c.Trigger("https://www.google.com/search?q=golang"))
	assert.False(t, c.Trigger("https://www.google.com/maps"))
	assert.False(t, c.Trigger("https://duckduckgo.com/?q=golang"))
}

func TestQuery(t *testing.T) {
	query, err := Query("https://www.google.com/search?q=golang+generics&hl=en")
	require.NoError(t, err)
	assert.Equal(t, "golang generics", query)

	_, err = Query("https://www.google.com/search")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSpaceName(t *testing.T) {
	c := New(&fakeSearch{})
	assert.Equal(t, "golang generics", c.SpaceName("https://www.google.com/search?q=golang+generics"))
	assert.Empty(t, c.SpaceName("https://www.google.com/search"))
}

func TestExtract_PagesThroughAllResults(t *testing.T) {
	search := &fakeSearch{pages: 10}
	c := New(search)

	batch, err := c.Extract(context.Background(), "https://www.google.com/search?q=golang", &driven.Collaborators{})
	require.NoError(t, err)
	require.NoError(t, batch.Validate())

	assert.Equal(t, 100, batch.Len())
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}, search.starts)

	first := batch.Records[0]
	assert.Equal(t, first["title"], first["semantic_title"])
	assert.Equal(t, domain.FieldLinks, batch.FieldTypes["link"])
	assert.Equal(t, domain.FieldSemantic, batch.FieldTypes["snippet"])
}

func TestExtract_StopsOnShortResultSet(t *testing.T) {
	search := &fakeSearch{pages: 3}
	c := New(search)

	batch, err := c.Extract(context.Background(), "https://www.google.com/search?q=rare+term", &driven.Collaborators{})
	require.NoError(t, err)
	assert.Equal(t, 30, batch.Len())
	assert.Len(t, search.starts, 4, "one extra page to observe the end of results")
}

func TestExtract_NoResults(t *testing.T) {
	c := New(&fakeSearch{pages: 0})

	_, err := c.Extract(context.Background(), "https://www.google.com/search?q=x", &driven.Collaborators{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDocumentTooShort)
}

func TestExtract_SearchError(t *testing.T) {
	c := New(&fakeSearch{err: errors.New("quota exceeded")})

	_, err := c.Extract(context.Background(), "https://www.google.com/search?q=x", &driven.Collaborators{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestExtract_BadURL(t *testing.T) {
	c := New(&fakeSearch{})

	_, err := c.Extract(context.Background(), "https://www.google.com/search", &driven.Collaborators{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
