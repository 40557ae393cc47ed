// Package gdocs builds spaces from the text of Google Docs documents,
// read through the Docs API.
package gdocs

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/segmenter"
)

// anchorSelector is where the portal is mounted.
const anchorSelector = "#docs-editor-container"

// documentIDPattern extracts the document id from an editor URL.
var documentIDPattern = regexp.MustCompile(`docs\.google\.com/document/d/([a-zA-Z0-9_-]+)`)

// Ensure Connection implements the interface.
var _ driven.Connection = (*Connection)(nil)

// DocumentReader reads the full text of a document. The production
// implementation wraps the Docs API; tests substitute a fake.
type DocumentReader interface {
	// DocumentText returns the plain text of documentID in body order.
	DocumentText(ctx context.Context, documentID string) (string, error)
}

// Connection extracts Google Docs documents into segment records.
type Connection struct {
	reader    DocumentReader
	segmenter *segmenter.Segmenter
}

// New creates the Google Docs connection reading through reader.
func New(reader DocumentReader) *Connection {
	return &Connection{
		reader:    reader,
		segmenter: segmenter.New(),
	}
}

// Name returns the connection's display name.
func (c *Connection) Name() string {
	return "Google Docs"
}

// Description returns a brief explanation of what the connection does.
func (c *Connection) Description() string {
	return "Builds spaces based on the content of a Google Docs document"
}

// Trigger matches Google Docs editor pages.
func (c *Connection) Trigger(url string) bool {
	return strings.Contains(url, "docs.google.com/document/d")
}

// Extract reads the document text and segments it. A flat document has no
// paragraph structure worth preserving, so records carry only a running
// index.
func (c *Connection) Extract(ctx context.Context, pageURL string, collab *driven.Collaborators) (*domain.Batch, error) {
	documentID, err := DocumentID(pageURL)
	if err != nil {
		return nil, err
	}

	text, err := c.reader.DocumentText(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", documentID, err)
	}

	segments, err := c.segmenter.SegmentText(text)
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(segments))
	for idx, segment := range segments {
		records = append(records, domain.Record{
			"title":   fmt.Sprintf("Segment %d", idx+1),
			"idx":     idx,
			"segment": segment.Text,
		})
	}

	return &domain.Batch{
		Records: records,
		FieldTypes: domain.FieldTypeMap{
			"title":   domain.FieldTitle,
			"idx":     domain.FieldNumeric,
			"segment": domain.FieldSemantic,
		},
	}, nil
}

// InjectUI mounts the portal above the document editor.
func (c *Connection) InjectUI(ctx context.Context, spaceID string, collab *driven.Collaborators) (*domain.Portal, error) {
	return collab.Portals.BuildPortal(ctx, spaceID, c.Name(), anchorSelector, nil)
}

// DocumentID extracts the document id from an editor URL.
func DocumentID(pageURL string) (string, error) {
	match := documentIDPattern.FindStringSubmatch(pageURL)
	if match == nil {
		return "", fmt.Errorf("%w: no document id in %s", domain.ErrInvalidInput, pageURL)
	}
	return match[1], nil
}
