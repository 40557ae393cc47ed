package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// commitsPerPage is the listing page size. Extract relies on a short
	// page to detect the end of the history.
	commitsPerPage = 100

	// DefaultRequestInterval paces API requests. Unauthenticated clients
	// get sixty requests per hour; authenticated ones can go much faster,
	// but diffs for a long history still add up.
	DefaultRequestInterval = 200 * time.Millisecond
)

// Ensure APIClient implements the interface.
var _ CommitClient = (*APIClient)(nil)

// APIClient reads commit histories through the GitHub REST API.
type APIClient struct {
	gh      *gh.Client
	limiter *rate.Limiter
}

// ClientOption configures an APIClient.
type ClientOption func(*APIClient)

// WithRequestInterval overrides the pacing between API requests.
func WithRequestInterval(interval time.Duration) ClientOption {
	return func(c *APIClient) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// NewAPIClient creates a GitHub API client. An empty token yields an
// unauthenticated client, which works for public repositories within the
// anonymous rate limit.
func NewAPIClient(ctx context.Context, token string, opts ...ClientOption) *APIClient {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(ctx, ts)
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = DefaultTimeout

	c := &APIClient{
		gh:      gh.NewClient(httpClient),
		limiter: rate.NewLimiter(rate.Every(DefaultRequestInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListCommits returns one page of the repository's commit history, newest
// first.
func (c *APIClient) ListCommits(ctx context.Context, owner, repo string, page int) ([]Commit, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	data, _, err := c.gh.Repositories.ListCommits(ctx, owner, repo, &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{PerPage: commitsPerPage, Page: page},
	})
	if err != nil {
		return nil, wrapError(err, "list commits")
	}

	commits := make([]Commit, 0, len(data))
	for _, item := range data {
		commits = append(commits, Commit{
			SHA:     item.GetSHA(),
			Message: item.GetCommit().GetMessage(),
			Author:  item.GetCommit().GetAuthor().GetName(),
			Date:    item.GetCommit().GetAuthor().GetDate().Time,
			Link:    item.GetHTMLURL(),
		})
	}
	return commits, nil
}

// GetDiff returns the unified diff of one commit.
func (c *APIClient) GetDiff(ctx context.Context, owner, repo, sha string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	diff, _, err := c.gh.Repositories.GetCommitRaw(ctx, owner, repo, sha, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return "", wrapError(err, "get diff")
	}
	return diff, nil
}

// wrapError surfaces GitHub error responses with their status and message.
func wrapError(err error, operation string) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return fmt.Errorf("%s: %d %s", operation, ghErr.Response.StatusCode, ghErr.Message)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
