package services

import (
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driving"
)

// Ensure Registry implements the interface.
var _ driving.Dispatcher = (*Registry)(nil)

// Registry holds the registered connections and routes URLs to them.
// Registration order is user-visible: search results and listings preserve
// it, so multiple matches for a URL are always presented the same way.
type Registry struct {
	connections []driven.Connection
}

// NewRegistry creates a registry with the given connections, in order.
func NewRegistry(connections ...driven.Connection) *Registry {
	r := &Registry{}
	for _, c := range connections {
		r.Register(c)
	}
	return r
}

// Register appends a connection to the registry.
func (r *Registry) Register(connection driven.Connection) {
	r.connections = append(r.connections, connection)
}

// Search returns every connection whose trigger matches url, in
// registration order. Triggers are pure predicates, so Search is
// idempotent and side-effect free.
func (r *Registry) Search(url string) []driven.Connection {
	var matches []driven.Connection
	for _, c := range r.connections {
		if c.Trigger(url) {
			matches = append(matches, c)
		}
	}
	return matches
}

// List returns every registered connection in registration order.
func (r *Registry) List() []driven.Connection {
	out := make([]driven.Connection, len(r.connections))
	copy(out, r.connections)
	return out
}
