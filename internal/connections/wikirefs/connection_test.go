package wikirefs

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
)

// fakePages serves canned HTML bodies and fails for everything else.
type fakePages struct {
	bodies  map[string][]byte
	fetched []string
}

func (f *fakePages) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.fetched = append(f.fetched, url)
	body, ok := f.bodies[url]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", url)
	}
	return body, nil
}

func referencePage(text string) []byte {
	return []byte(fmt.Sprintf(
		`<html><body><div id="mw-content-text"><div><p>%s</p></div></div></body></html>`, text,
	))
}

func sourcePage(links ...[2]string) []byte {
	var b strings.Builder
	b.WriteString("<html><body><p>")
	for _, link := range links {
		fmt.Fprintf(&b, `Some prose <a title="%s" href="%s">%s</a>. `, link[0], link[1], link[0])
	}
	b.WriteString("</p></body></html>")
	return []byte(b.String())
}

func TestTrigger(t *testing.T) {
	c := New()
	assert.True(t, c.Trigger("https://en.wikipedia.org/wiki/Histamine"))
	assert.False(t, c.Trigger("https://en.wikipedia.org/w/index.php"))
	assert.False(t, c.Trigger("https://example.com/"))
}

func TestExtract(t *testing.T) {
	pageURL := "https://en.wikipedia.org/wiki/Histamine"
	pages := &fakePages{bodies: map[string][]byte{
		pageURL: sourcePage(
			[2]string{"Immune system", "/wiki/Immune_system"},
			[2]string{"Neurotransmitter", "https://en.wikipedia.org/wiki/Neurotransmitter"},
		),
		"https://en.wikipedia.org/wiki/Immune_system":    referencePage("The immune system is a network of biological systems."),
		"https://en.wikipedia.org/wiki/Neurotransmitter": referencePage("A neurotransmitter is a signaling molecule."),
	}}

	c := New()
	batch, err := c.Extract(context.Background(), pageURL, &driven.Collaborators{Pages: pages})
	require.NoError(t, err)
	require.NoError(t, batch.Validate())
	require.Equal(t, 2, batch.Len())

	first := batch.Records[0]
	assert.Equal(t, "Immune system", first["title"])
	// Relative hrefs are resolved against the page URL.
	assert.Equal(t, "https://en.wikipedia.org/wiki/Immune_system", first["link"])
	assert.Equal(t, first["link"], first["__mantis_href"])
	assert.Contains(t, first["text"], "immune system")

	assert.Equal(t, domain.FieldLinks, batch.FieldTypes["__mantis_href"])
	assert.Equal(t, domain.FieldSemantic, batch.FieldTypes["text"])
}

func TestExtract_SkipsFailedReferences(t *testing.T) {
	pageURL := "https://en.wikipedia.org/wiki/Histamine"
	pages := &fakePages{bodies: map[string][]byte{
		pageURL: sourcePage(
			[2]string{"Dead link", "/wiki/Dead_link"},
			[2]string{"Immune system", "/wiki/Immune_system"},
		),
		"https://en.wikipedia.org/wiki/Immune_system": referencePage("The immune system protects the organism."),
	}}

	c := New()
	batch, err := c.Extract(context.Background(), pageURL, &driven.Collaborators{Pages: pages})
	require.NoError(t, err)
	require.Equal(t, 1, batch.Len())
	assert.Equal(t, "Immune system", batch.Records[0]["title"])
}

func TestExtract_TruncatesLongSummaries(t *testing.T) {
	pageURL := "https://en.wikipedia.org/wiki/Histamine"
	pages := &fakePages{bodies: map[string][]byte{
		pageURL: sourcePage([2]string{"Long article", "/wiki/Long_article"}),
		"https://en.wikipedia.org/wiki/Long_article": referencePage(strings.Repeat("Enough words to exceed the cap. ", 30)),
	}}

	c := New()
	batch, err := c.Extract(context.Background(), pageURL, &driven.Collaborators{Pages: pages})
	require.NoError(t, err)

	text, ok := batch.Records[0]["text"].(string)
	require.True(t, ok)
	assert.Len(t, text, summaryLength)
}

func TestExtract_NoReadableReferences(t *testing.T) {
	pageURL := "https://en.wikipedia.org/wiki/Orphan"
	pages := &fakePages{bodies: map[string][]byte{
		pageURL: []byte("<html><body><p>No links here.</p></body></html>"),
	}}

	c := New()
	_, err := c.Extract(context.Background(), pageURL, &driven.Collaborators{Pages: pages})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDocumentTooShort)
}

func TestOnMessage_SelectByTitle(t *testing.T) {
	c := New()

	actions, err := c.OnMessage("select", map[string]any{
		"point": map[string]any{
			"metadata": map[string]any{
				"values": map[string]any{"title": "Immune system"},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, domain.ActionFlash, actions[0].Kind)
	assert.Equal(t, `p > a[title="Immune system"]`, actions[0].Selector)
}

func TestOnMessage_IgnoresOtherTypes(t *testing.T) {
	c := New()
	actions, err := c.OnMessage("add_point", map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, actions)
}
