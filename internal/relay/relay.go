// Package relay routes messages between embedded visualizations and the
// connections that own them. A visualization runs in an isolated context
// (a cross-origin iframe) and can only post tagged messages; the relay is
// the privileged intermediary that maps each opaque session identifier to
// the execution context that registered it and re-delivers messages there.
package relay

import (
	"sync"
)

// Envelope actions. A visualization posts ActionMessage envelopes; the
// host forwards them to the relay verbatim; the relay re-delivers them to
// the owning host tagged ActionForward.
const (
	// ActionRegister announces ownership of a fresh session id.
	ActionRegister = "registerCommunication"

	// ActionMessage tags an outbound message from a visualization.
	ActionMessage = "mantis_msg"

	// ActionForward tags a message re-delivered by the relay.
	ActionForward = "forward_mantis_msg"
)

// Envelope is the cross-context message format shared by the
// visualization, the host and the relay.
type Envelope struct {
	// Action is one of the Action* constants.
	Action string `json:"action"`

	// UUID is the session identifier the message is addressed by.
	UUID string `json:"uuid"`

	// MessageType is the payload type (select, add_point, highlight).
	MessageType string `json:"messageType,omitempty"`

	// MessagePayload is the payload body.
	MessagePayload map[string]any `json:"messagePayload,omitempty"`
}

// Ack is the synchronous acknowledgment for a relayed message.
type Ack struct {
	// Success reports whether the message reached a registered owner.
	Success bool `json:"success"`
}

// Target receives messages forwarded by the relay for sessions it owns.
type Target interface {
	// Receive handles one forwarded envelope.
	Receive(env Envelope) Ack
}

// Relay is the privileged broker mapping session ids to owning targets.
// The map has a single writer (the relay itself); dispatch is serialised,
// so messages from one visualization reach its handler in post order.
type Relay struct {
	mu       sync.Mutex
	sessions map[string]Target
}

// New creates an empty relay.
func New() *Relay {
	return &Relay{sessions: make(map[string]Target)}
}

// Register associates a session id with its owning target. Re-registering
// an id replaces the previous owner; the latest portal wins.
func (r *Relay) Register(sessionID string, owner Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = owner
}

// Deregister removes a session id. Deregistering on portal teardown keeps
// the session map from growing for the lifetime of the process.
func (r *Relay) Deregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Forward looks up the owner of the envelope's session id and re-delivers
// the message there, tagged ActionForward. An unknown session id yields a
// failure acknowledgment; the caller does not retry.
func (r *Relay) Forward(env Envelope) Ack {
	r.mu.Lock()
	owner, ok := r.sessions[env.UUID]
	r.mu.Unlock()

	if !ok {
		return Ack{Success: false}
	}

	env.Action = ActionForward
	return owner.Receive(env)
}

// Owns reports whether a session id is currently registered.
func (r *Relay) Owns(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[sessionID]
	return ok
}

// Len returns the number of registered sessions.
func (r *Relay) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
