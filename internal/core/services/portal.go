package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/relay"
)

// Ensure PortalService implements the interface.
var _ driven.PortalBuilder = (*PortalService)(nil)

// PortalService builds portals and wires their relay sessions. Because a
// connection's widget id is deterministic, building a second portal for
// the same connection replaces the first: the stale relay session is
// deregistered so the session map never accumulates dead entries.
type PortalService struct {
	host        *relay.Host
	frontendURL string

	mu       sync.Mutex
	sessions map[string]string // widget id -> active session id
}

// NewPortalService creates a portal service embedding spaces from
// frontendURL.
func NewPortalService(host *relay.Host, frontendURL string) *PortalService {
	return &PortalService{
		host:        host,
		frontendURL: frontendURL,
		sessions:    make(map[string]string),
	}
}

// BuildPortal returns a portal for spaceID anchored at anchor. A fresh
// session id is generated per portal and travels to the embedded frontend
// as the ext_id query parameter; messages posted under it are dispatched
// to handler.
func (p *PortalService) BuildPortal(ctx context.Context, spaceID, connectionName, anchor string, handler driven.MessageHandler) (*domain.Portal, error) {
	if spaceID == "" {
		return nil, fmt.Errorf("%w: empty space id", domain.ErrInvalidInput)
	}

	widgetID := domain.WidgetID(connectionName)
	sessionID := uuid.NewString()

	p.host.Bind(sessionID, handler)

	p.mu.Lock()
	stale := p.sessions[widgetID]
	p.sessions[widgetID] = sessionID
	p.mu.Unlock()

	if stale != "" {
		p.host.Unbind(stale)
	}

	return &domain.Portal{
		WidgetID:  widgetID,
		SpaceID:   spaceID,
		SessionID: sessionID,
		EmbedURL:  fmt.Sprintf("%s/space/%s?ext_id=%s", p.frontendURL, spaceID, sessionID),
		Anchor:    anchor,
	}, nil
}

// Teardown deregisters the active session for a connection's portal.
func (p *PortalService) Teardown(connectionName string) {
	widgetID := domain.WidgetID(connectionName)

	p.mu.Lock()
	sessionID := p.sessions[widgetID]
	delete(p.sessions, widgetID)
	p.mu.Unlock()

	if sessionID != "" {
		p.host.Unbind(sessionID)
	}
}
