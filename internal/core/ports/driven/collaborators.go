package driven

import (
	"context"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
)

// Collaborators bundles the capabilities a connection needs from the rest
// of the system. It is constructed once and passed down explicitly; there
// is no ambient global state.
type Collaborators struct {
	// Pages fetches host and third-party pages.
	Pages PageFetcher

	// Credentials provides the ambient backend session cookies.
	Credentials CredentialSource

	// Portals builds portals and wires their relay sessions.
	Portals PortalBuilder
}

// PageFetcher retrieves a page body over HTTP. Connections parse the
// returned HTML themselves with whatever selector engine they need.
type PageFetcher interface {
	// Fetch returns the body of the page at url. Implementations apply a
	// request timeout; no fetch blocks indefinitely.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CredentialSource provides the session cookies for the configured auth
// domain, serialised as "name=value; ..." pairs for the submission payload.
type CredentialSource interface {
	// CookieHeader returns the serialised cookies. It returns an error
	// wrapping domain.ErrAuthRequired when no backend session is present.
	CookieHeader(ctx context.Context) (string, error)

	// Refresh re-reads the cookies from their source.
	Refresh(ctx context.Context) error
}

// PortalBuilder creates portal descriptors. Implementations generate a
// fresh session id, register it with the messaging relay on behalf of the
// calling connection, and point the embed URL at the frontend.
type PortalBuilder interface {
	// BuildPortal returns a portal for spaceID anchored at the given
	// host-page selector. When handler is non-nil, messages forwarded to
	// the new session are dispatched to it.
	BuildPortal(ctx context.Context, spaceID, connectionName, anchor string, handler MessageHandler) (*domain.Portal, error)
}
