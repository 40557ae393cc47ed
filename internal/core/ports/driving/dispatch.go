package driving

import (
	"context"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
)

// Dispatcher routes URLs to the connections that can handle them.
type Dispatcher interface {
	// Search returns the connections whose trigger matches url, in
	// registration order. It is idempotent and side-effect free; multiple
	// matches are expected and presented to the user as a paged set.
	Search(url string) []driven.Connection

	// List returns every registered connection in registration order.
	List() []driven.Connection
}

// ProgressFunc receives stage transitions during space creation.
type ProgressFunc func(progress domain.GenerationProgress)

// CreateResult is the outcome of a completed space creation run.
type CreateResult struct {
	// SpaceID is the backend identifier of the created space.
	SpaceID string

	// Portal is the widget injected for the space.
	Portal *domain.Portal

	// Name is the name the space was created under.
	Name string
}

// SpaceOrchestrator drives a connection end to end: extraction, protocol
// submission with live logs, portal injection, and cache bookkeeping.
type SpaceOrchestrator interface {
	// Create runs connection against pageURL. onProgress and the log
	// stream opened mid-flight report liveness; any error is terminal for
	// the job and the user must re-initiate.
	Create(ctx context.Context, connection driven.Connection, pageURL, name string, onProgress ProgressFunc) (*CreateResult, error)

	// Reopen re-injects the portal for a previously cached space on
	// pageURL, through the connection that created it. Returns
	// domain.ErrNotFound when no space is cached for the URL.
	Reopen(ctx context.Context, pageURL string) (*CreateResult, error)

	// Logs returns the log stream of the most recent Create call, or nil.
	Logs() driven.LogStream
}
