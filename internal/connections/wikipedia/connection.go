// Package wikipedia builds spaces from the body text of Wikipedia
// articles. Paragraphs are segmented with a paragraph-aware threshold so
// every record can be traced back to the paragraph it came from.
package wikipedia

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/segmenter"
)

const (
	// ParagraphSelector locates the article body paragraphs, in order.
	ParagraphSelector = "#mw-content-text .mw-parser-output > p"

	// anchorSelector is where the portal is mounted.
	anchorSelector = "body > div.mw-page-container"

	// primaryMinimum is the viable segment count for the newline split.
	// Article paragraphs split fine-grained, so the bar is higher than for
	// flat documents.
	primaryMinimum = 90

	// mergeRatio is the merge threshold fraction of the median length.
	mergeRatio = 0.4
)

// Ensure Connection implements the interfaces.
var (
	_ driven.Connection     = (*Connection)(nil)
	_ driven.MessageHandler = (*Connection)(nil)
)

// Connection extracts Wikipedia article text into segment records.
type Connection struct {
	segmenter *segmenter.Segmenter
}

// New creates the Wikipedia article connection.
func New() *Connection {
	return &Connection{
		segmenter: segmenter.New(
			segmenter.WithPrimaryMinimum(primaryMinimum),
			segmenter.WithMergeRatio(mergeRatio),
			segmenter.WithFallbackDelimiter("."),
		),
	}
}

// Name returns the connection's display name.
func (c *Connection) Name() string {
	return "Wikipedia Article"
}

// Description returns a brief explanation of what the connection does.
func (c *Connection) Description() string {
	return "Builds spaces based on the content of a Wikipedia article"
}

// Trigger matches English Wikipedia article pages.
func (c *Connection) Trigger(url string) bool {
	return strings.Contains(url, "en.wikipedia.org/wiki")
}

// Extract fetches the article and segments its body paragraphs. Each
// record keeps the index of its source paragraph so the article can be
// highlighted from the visualization later.
func (c *Connection) Extract(ctx context.Context, pageURL string, collab *driven.Collaborators) (*domain.Batch, error) {
	body, err := collab.Pages.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch article: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse article: %w", err)
	}

	var paragraphs []string
	doc.Find(ParagraphSelector).Each(func(_ int, p *goquery.Selection) {
		paragraphs = append(paragraphs, p.Text())
	})

	segments, err := c.segmenter.SegmentBlocks(paragraphs)
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(segments))
	for idx, segment := range segments {
		records = append(records, domain.Record{
			"title":         SmartTitle(segment.Text),
			"idx":           idx,
			"segment":       segment.Text,
			"paragraph_idx": segment.SourceIndex,
		})
	}

	return &domain.Batch{
		Records: records,
		FieldTypes: domain.FieldTypeMap{
			"title":         domain.FieldTitle,
			"idx":           domain.FieldNumeric,
			"segment":       domain.FieldSemantic,
			"paragraph_idx": domain.FieldNumeric,
		},
	}, nil
}

// InjectUI mounts the portal above the article content.
func (c *Connection) InjectUI(ctx context.Context, spaceID string, collab *driven.Collaborators) (*domain.Portal, error) {
	return collab.Portals.BuildPortal(ctx, spaceID, c.Name(), anchorSelector, c)
}

// OnMessage reacts to visualization messages. A selected point flashes
// its source paragraph; a loaded point annotates it with a washed-out
// version of its cluster colour.
func (c *Connection) OnMessage(messageType string, payload map[string]any) ([]domain.PageAction, error) {
	switch messageType {
	case "select":
		idx, ok := paragraphIndex(payload)
		if !ok {
			return nil, nil
		}
		return []domain.PageAction{{
			Kind:     domain.ActionFlash,
			Selector: ParagraphSelector,
			Index:    idx,
		}}, nil

	case "add_point":
		idx, ok := paragraphIndex(payload)
		if !ok {
			return nil, nil
		}
		return []domain.PageAction{{
			Kind:     domain.ActionAnnotate,
			Selector: ParagraphSelector,
			Index:    idx,
			Color:    clusterColor(payload),
		}}, nil
	}

	return nil, nil
}

// paragraphIndex digs the source paragraph index out of a point payload
// (point.metadata.values.paragraph_idx).
func paragraphIndex(payload map[string]any) (int, bool) {
	point, ok := payload["point"].(map[string]any)
	if !ok {
		return 0, false
	}
	metadata, ok := point["metadata"].(map[string]any)
	if !ok {
		return 0, false
	}
	values, ok := metadata["values"].(map[string]any)
	if !ok {
		return 0, false
	}

	switch idx := values["paragraph_idx"].(type) {
	case float64:
		return int(idx), true
	case int:
		return idx, true
	}
	return 0, false
}

// clusterColor extracts the cluster colour of a point payload, or "".
func clusterColor(payload map[string]any) string {
	cluster, ok := payload["cluster"].(map[string]any)
	if !ok {
		return ""
	}
	color, _ := cluster["color"].(string)
	return color
}
