// Package wikirefs builds spaces from the outbound references of a
// Wikipedia article: every linked article contributes one record holding
// its opening text.
package wikirefs

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/logger"
)

const (
	// ReferenceSelector matches the inline article links in body text.
	ReferenceSelector = "p > a[title][href]"

	// referenceBodySelector locates the paragraphs of a linked article.
	referenceBodySelector = "#mw-content-text > div > p"

	// anchorSelector is where the portal is mounted.
	anchorSelector = "body > div.mw-page-container"

	// summaryLength caps the text sampled from each linked article.
	summaryLength = 200
)

// Ensure Connection implements the interfaces.
var (
	_ driven.Connection     = (*Connection)(nil)
	_ driven.MessageHandler = (*Connection)(nil)
)

// Connection extracts the linked references of a Wikipedia article.
type Connection struct{}

// New creates the Wikipedia references connection.
func New() *Connection {
	return &Connection{}
}

// Name returns the connection's display name.
func (c *Connection) Name() string {
	return "Wikipedia References"
}

// Description returns a brief explanation of what the connection does.
func (c *Connection) Description() string {
	return "Builds spaces based on the references in a Wikipedia article"
}

// Trigger matches English Wikipedia article pages.
func (c *Connection) Trigger(url string) bool {
	return strings.Contains(url, "en.wikipedia.org/wiki")
}

// Extract fetches every referenced article and samples its opening text.
// References that fail to fetch or parse are skipped, not fatal; a source
// article routinely links a few dead or redirected pages.
func (c *Connection) Extract(ctx context.Context, pageURL string, collab *driven.Collaborators) (*domain.Batch, error) {
	body, err := collab.Pages.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch article: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse article: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	type reference struct {
		title string
		href  string
	}
	var references []reference
	doc.Find(ReferenceSelector).Each(func(_ int, a *goquery.Selection) {
		title := a.AttrOr("title", "")
		href := a.AttrOr("href", "")
		resolved, err := base.Parse(href)
		if err != nil || title == "" {
			return
		}
		references = append(references, reference{title: title, href: resolved.String()})
	})

	logger.Debug("collected %d references", len(references))

	records := make([]domain.Record, 0, len(references))
	for _, ref := range references {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := c.sampleReference(ctx, ref.href, collab)
		if err != nil {
			logger.Warn("skipping reference %s: %v", ref.href, err)
			continue
		}
		if text == "" {
			continue
		}

		records = append(records, domain.Record{
			"title":         ref.title,
			"link":          ref.href,
			"__mantis_href": ref.href,
			"text":          text,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no readable references on page", domain.ErrDocumentTooShort)
	}

	return &domain.Batch{
		Records: records,
		FieldTypes: domain.FieldTypeMap{
			"title":         domain.FieldTitle,
			"link":          domain.FieldLinks,
			"__mantis_href": domain.FieldLinks,
			"text":          domain.FieldSemantic,
		},
	}, nil
}

// sampleReference fetches one linked article and returns its opening
// text, capped at summaryLength characters.
func (c *Connection) sampleReference(ctx context.Context, href string, collab *driven.Collaborators) (string, error) {
	body, err := collab.Pages.Fetch(ctx, href)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var parts []string
	doc.Find(referenceBodySelector).Each(func(_ int, p *goquery.Selection) {
		parts = append(parts, p.Text())
	})

	text := strings.Join(parts, " ")
	if len(text) > summaryLength {
		text = text[:summaryLength]
	}
	return text, nil
}

// InjectUI mounts the portal above the article content.
func (c *Connection) InjectUI(ctx context.Context, spaceID string, collab *driven.Collaborators) (*domain.Portal, error) {
	return collab.Portals.BuildPortal(ctx, spaceID, c.Name(), anchorSelector, c)
}

// OnMessage flashes the reference link whose title matches a selected
// point.
func (c *Connection) OnMessage(messageType string, payload map[string]any) ([]domain.PageAction, error) {
	if messageType != "select" {
		return nil, nil
	}

	title, ok := pointTitle(payload)
	if !ok {
		return nil, nil
	}

	return []domain.PageAction{{
		Kind:     domain.ActionFlash,
		Selector: fmt.Sprintf(`p > a[title=%q]`, title),
	}}, nil
}

// pointTitle digs the title out of a point payload
// (point.metadata.values.title).
func pointTitle(payload map[string]any) (string, bool) {
	point, ok := payload["point"].(map[string]any)
	if !ok {
		return "", false
	}
	metadata, ok := point["metadata"].(map[string]any)
	if !ok {
		return "", false
	}
	values, ok := metadata["values"].(map[string]any)
	if !ok {
		return "", false
	}
	title, ok := values["title"].(string)
	return title, ok && title != ""
}
