package gdocs

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// Ensure APIReader implements the interface.
var _ DocumentReader = (*APIReader)(nil)

// APIReader reads documents through the Docs API.
type APIReader struct {
	service *docs.Service
}

// NewAPIReader creates a reader using the provided TokenSource.
func NewAPIReader(ctx context.Context, ts oauth2.TokenSource) (*APIReader, error) {
	service, err := docs.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	return &APIReader{service: service}, nil
}

// DocumentText returns the plain text of documentID in body order. Text
// runs already carry their paragraph-terminal newlines, so joining them
// preserves the document's line structure for the segmenter.
func (r *APIReader) DocumentText(ctx context.Context, documentID string) (string, error) {
	document, err := r.service.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get document: %w", err)
	}
	if document.Body == nil {
		return "", nil
	}

	var b strings.Builder
	for _, element := range document.Body.Content {
		if element.Paragraph == nil {
			continue
		}
		for _, pe := range element.Paragraph.Elements {
			if pe.TextRun != nil {
				b.WriteString(pe.TextRun.Content)
			}
		}
	}
	return b.String(), nil
}
