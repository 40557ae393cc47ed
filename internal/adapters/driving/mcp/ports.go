package mcp

import (
	"errors"

	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driving"
)

// ErrMissingDispatcher is returned when the server is built without a
// connection dispatcher.
var ErrMissingDispatcher = errors.New("mcp: dispatcher is required")

// ErrMissingOrchestrator is returned when the server is built without a
// space orchestrator.
var ErrMissingOrchestrator = errors.New("mcp: orchestrator is required")

// Ports aggregates the driving ports the MCP server exposes. A single
// injection point keeps the wiring in one place.
type Ports struct {
	// Dispatcher routes URLs to connections.
	Dispatcher driving.Dispatcher

	// Orchestrator creates spaces.
	Orchestrator driving.SpaceOrchestrator

	// Spaces is the cache of previously created spaces. Optional; without
	// it the space resources read as empty.
	Spaces driven.SpaceStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Dispatcher == nil {
		return ErrMissingDispatcher
	}
	if p.Orchestrator == nil {
		return ErrMissingOrchestrator
	}
	return nil
}
