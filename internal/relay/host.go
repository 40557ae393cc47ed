package relay

import (
	"fmt"
	"sync"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
)

// ActionSink applies page actions produced by a connection's message
// handler, such as flashing or annotating the originating elements.
type ActionSink func(actions []domain.PageAction)

// Host owns the portal-side endpoints of one page context. Each portal
// binds its session id to the message handler of the connection that
// built it; the host registers the session with the relay and dispatches
// forwarded messages to the right handler.
type Host struct {
	relay *Relay
	sink  ActionSink

	mu       sync.Mutex
	handlers map[string]driven.MessageHandler
}

var _ Target = (*Host)(nil)

// NewHost creates a host attached to r. sink may be nil, in which case
// produced actions are discarded.
func NewHost(r *Relay, sink ActionSink) *Host {
	return &Host{
		relay:    r,
		sink:     sink,
		handlers: make(map[string]driven.MessageHandler),
	}
}

// Bind registers a session id for handler, with the host as its owner.
// handler may be nil for connections without interactive behaviour; their
// messages are acknowledged and dropped.
func (h *Host) Bind(sessionID string, handler driven.MessageHandler) {
	h.mu.Lock()
	h.handlers[sessionID] = handler
	h.mu.Unlock()

	h.relay.Register(sessionID, h)
}

// Unbind deregisters a session id, on portal removal or replacement.
func (h *Host) Unbind(sessionID string) {
	h.mu.Lock()
	delete(h.handlers, sessionID)
	h.mu.Unlock()

	h.relay.Deregister(sessionID)
}

// Receive dispatches one forwarded envelope to the bound handler and
// applies whatever actions it produces.
func (h *Host) Receive(env Envelope) Ack {
	if env.Action != ActionForward {
		return Ack{Success: false}
	}

	h.mu.Lock()
	handler, ok := h.handlers[env.UUID]
	h.mu.Unlock()

	if !ok {
		return Ack{Success: false}
	}
	if handler == nil {
		return Ack{Success: true}
	}

	actions, err := handler.OnMessage(env.MessageType, env.MessagePayload)
	if err != nil {
		return Ack{Success: false}
	}
	if h.sink != nil && len(actions) > 0 {
		h.sink(actions)
	}
	return Ack{Success: true}
}

// Post sends a message from a visualization through the relay, the way an
// embedded frame would: the envelope is tagged with the session id and
// handed to the broker for re-delivery. An unknown session id is an error.
func (h *Host) Post(sessionID, messageType string, payload map[string]any) error {
	ack := h.relay.Forward(Envelope{
		Action:         ActionMessage,
		UUID:           sessionID,
		MessageType:    messageType,
		MessagePayload: payload,
	})
	if !ack.Success {
		return fmt.Errorf("%w: %s", domain.ErrUnknownSession, sessionID)
	}
	return nil
}
