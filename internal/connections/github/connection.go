// Package github builds spaces from the commit history of a GitHub
// repository: every commit contributes a record with its message, author,
// date and diff.
package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/logger"
)

const (
	// anchorSelector is where the portal is mounted.
	anchorSelector = ".repository-content"

	// diffUnavailable stands in for diffs that cannot be retrieved, so
	// the diff field stays present in every record.
	diffUnavailable = "Diff unavailable"
)

// Ensure Connection implements the interfaces.
var (
	_ driven.Connection = (*Connection)(nil)
	_ driven.SpaceNamer = (*Connection)(nil)
)

// Commit is one commit of a repository's history.
type Commit struct {
	SHA     string
	Message string
	Author  string
	Date    time.Time
	Link    string
}

// CommitClient reads a repository's commit history. The production
// implementation wraps the GitHub REST API.
type CommitClient interface {
	// ListCommits returns one page of commits, newest first. A short or
	// empty page marks the end of the history.
	ListCommits(ctx context.Context, owner, repo string, page int) ([]Commit, error)

	// GetDiff returns the unified diff of one commit.
	GetDiff(ctx context.Context, owner, repo, sha string) (string, error)
}

// Connection extracts GitHub commit histories into records.
type Connection struct {
	client CommitClient
}

// New creates the GitHub commits connection reading through client.
func New(client CommitClient) *Connection {
	return &Connection{client: client}
}

// Name returns the connection's display name.
func (c *Connection) Name() string {
	return "GitHub Commits"
}

// Description returns a brief explanation of what the connection does.
func (c *Connection) Description() string {
	return "Builds spaces based on GitHub repository commits, including messages, authors, dates, commit links, and diffs."
}

// Trigger matches repository pages, not the GitHub front page.
func (c *Connection) Trigger(pageURL string) bool {
	if !strings.Contains(pageURL, "github.com/") {
		return false
	}
	_, _, err := RepoPath(pageURL)
	return err == nil
}

// SpaceName proposes the repository name as the space name.
func (c *Connection) SpaceName(pageURL string) string {
	_, repo, err := RepoPath(pageURL)
	if err != nil {
		return ""
	}
	return repo
}

// Extract walks the full commit history, oldest first, fetching each
// commit's diff. An unreadable diff degrades to a placeholder rather than
// failing the run; large repositories routinely have a few commits whose
// diffs the API refuses to render.
func (c *Connection) Extract(ctx context.Context, pageURL string, collab *driven.Collaborators) (*domain.Batch, error) {
	owner, repo, err := RepoPath(pageURL)
	if err != nil {
		return nil, err
	}

	var commits []Commit
	for page := 1; ; page++ {
		batch, err := c.client.ListCommits(ctx, owner, repo, page)
		if err != nil {
			return nil, fmt.Errorf("list commits %s/%s: %w", owner, repo, err)
		}
		if len(batch) == 0 {
			break
		}
		commits = append(commits, batch...)
		if len(batch) < 100 {
			break
		}
	}

	logger.Debug("gathered %d commits from %s/%s", len(commits), owner, repo)

	if len(commits) == 0 {
		return nil, fmt.Errorf("%w: repository has no commits", domain.ErrDocumentTooShort)
	}

	// The listing is newest first; the space reads better oldest first.
	records := make([]domain.Record, 0, len(commits))
	for i := len(commits) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		commit := commits[i]

		diff, err := c.client.GetDiff(ctx, owner, repo, commit.SHA)
		if err != nil || diff == "" {
			if err != nil {
				logger.Warn("diff for %s unavailable: %v", commit.SHA, err)
			}
			diff = diffUnavailable
		}

		idx := len(records)
		records = append(records, domain.Record{
			"title":  fmt.Sprintf("Commit %d", idx+1),
			"idx":    idx,
			"commit": commit.Message,
			"author": commit.Author,
			"date":   commit.Date.Format(time.RFC3339),
			"link":   commit.Link,
			"diff":   diff,
		})
	}

	return &domain.Batch{
		Records: records,
		FieldTypes: domain.FieldTypeMap{
			"title":  domain.FieldTitle,
			"idx":    domain.FieldNumeric,
			"commit": domain.FieldSemantic,
			"author": domain.FieldCategoric,
			"date":   domain.FieldDate,
			"link":   domain.FieldLinks,
			"diff":   domain.FieldSemantic,
		},
	}, nil
}

// InjectUI mounts the portal above the repository content.
func (c *Connection) InjectUI(ctx context.Context, spaceID string, collab *driven.Collaborators) (*domain.Portal, error) {
	return collab.Portals.BuildPortal(ctx, spaceID, c.Name(), anchorSelector, nil)
}

// RepoPath extracts the owner and repository from a GitHub URL.
func RepoPath(pageURL string) (owner, repo string, err error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	parts := strings.SplitN(strings.Trim(parsed.Path, "/"), "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: no repository in %s", domain.ErrInvalidInput, pageURL)
	}
	return parts[0], parts[1], nil
}
