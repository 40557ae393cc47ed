package driven

import (
	"context"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
)

// Connection is a site-specific extraction-and-injection strategy.
// Each supported site (Wikipedia, PubMed, GitHub, etc.) implements this
// interface.
type Connection interface {
	// Name returns the connection's display name. It doubles as the key
	// for the deterministic widget identifier, so it must be stable.
	Name() string

	// Description returns a brief explanation of what the connection does.
	Description() string

	// Trigger reports whether the connection applies to a URL. It must be
	// a pure, stateless predicate: it is called repeatedly and
	// speculatively for every navigation and must not touch the page.
	Trigger(url string) bool

	// Extract gathers all data for the page: HTTP fetches of the page
	// itself and/or calls to third-party APIs. It returns a homogeneous
	// record batch with declared field types. Precondition failures
	// (document too short, missing auth, rate limited) are reported as
	// errors wrapping the domain sentinels; the caller surfaces the
	// message and aborts before any submission.
	Extract(ctx context.Context, pageURL string, collab *Collaborators) (*domain.Batch, error)

	// InjectUI builds the portal that embeds the finished space at the
	// connection's anchor point. Calling it twice for the same logical
	// session replaces rather than duplicates the previous portal: both
	// portals share the connection's deterministic widget id and the
	// caller removes the older one.
	InjectUI(ctx context.Context, spaceID string, collab *Collaborators) (*domain.Portal, error)
}

// MessageHandler is the optional capability of reacting to messages posted
// by the embedded visualization, primarily "select" (scroll to and flash a
// source block) and "add_point" (sustained annotation). Connections that
// support it implement this interface alongside Connection; callers
// discover it with a type assertion.
type MessageHandler interface {
	// OnMessage handles one forwarded portal message and returns the page
	// actions the host should apply.
	OnMessage(messageType string, payload map[string]any) ([]domain.PageAction, error)
}

// SpaceNamer is the optional capability of proposing a space name derived
// from the extracted content (the search query, the repository name).
type SpaceNamer interface {
	// SpaceName returns the proposed name for the page, or "".
	SpaceName(pageURL string) string
}
