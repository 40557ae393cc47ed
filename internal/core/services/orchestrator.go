package services

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driving"
)

// Ensure Orchestrator implements the interface.
var _ driving.SpaceOrchestrator = (*Orchestrator)(nil)

// Orchestrator drives a connection end to end: extraction, submission
// with live logs, portal injection, and cache bookkeeping. A run is all
// or nothing; on any error the job ends in the failed stage and nothing
// gathered so far is reused by a retry.
type Orchestrator struct {
	creator  driven.SpaceCreator
	streams  driven.LogStreamOpener
	store    driven.SpaceStore
	registry driving.Dispatcher
	collab   *driven.Collaborators

	mu   sync.Mutex
	logs driven.LogStream
}

// NewOrchestrator wires an orchestrator. store may be nil to disable the
// space cache; streams may be nil to disable live logs.
func NewOrchestrator(
	creator driven.SpaceCreator,
	streams driven.LogStreamOpener,
	store driven.SpaceStore,
	registry driving.Dispatcher,
	collab *driven.Collaborators,
) *Orchestrator {
	return &Orchestrator{
		creator:  creator,
		streams:  streams,
		store:    store,
		registry: registry,
		collab:   collab,
	}
}

// Create runs connection against pageURL through the full progression.
// The log stream opens as soon as the backend assigns a space id, usually
// while synthesis is still running; Logs exposes it to the caller's UI.
func (o *Orchestrator) Create(ctx context.Context, connection driven.Connection, pageURL, name string, onProgress driving.ProgressFunc) (result *driving.CreateResult, err error) {
	report := func(stage domain.GenerationProgress) {
		if onProgress != nil {
			onProgress(stage)
		}
	}
	defer func() {
		if err != nil {
			report(domain.ProgressFailed)
			o.closeLogs()
		}
	}()

	report(domain.ProgressGatheringData)

	batch, err := connection.Extract(ctx, pageURL, o.collab)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", connection.Name(), err)
	}
	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("extract %s: %w", connection.Name(), err)
	}

	if name == "" {
		if namer, ok := connection.(driven.SpaceNamer); ok {
			name = namer.SpaceName(pageURL)
		}
	}

	report(domain.ProgressCreatingSpace)

	spaceResult, err := o.creator.CreateSpace(ctx, batch, name, func(spaceID string) {
		o.openLogs(ctx, spaceID)
	})
	if err != nil {
		return nil, fmt.Errorf("create space: %w", err)
	}

	report(domain.ProgressInjectingUI)

	portal, err := connection.InjectUI(ctx, spaceResult.SpaceID, o.collab)
	if err != nil {
		return nil, fmt.Errorf("inject UI for %s: %w", connection.Name(), err)
	}

	if o.store != nil {
		if err := o.store.Put(ctx, domain.StoredSpace{
			Name:             name,
			ID:               spaceResult.SpaceID,
			DateCreated:      time.Now(),
			URL:              pageURL,
			Host:             hostOf(pageURL),
			ConnectionParent: connection.Name(),
		}); err != nil {
			return nil, fmt.Errorf("cache space: %w", err)
		}
	}

	report(domain.ProgressCompleted)

	return &driving.CreateResult{
		SpaceID: spaceResult.SpaceID,
		Portal:  portal,
		Name:    name,
	}, nil
}

// Reopen re-injects the portal for a space previously created from
// pageURL, through the connection that created it.
func (o *Orchestrator) Reopen(ctx context.Context, pageURL string) (*driving.CreateResult, error) {
	if o.store == nil {
		return nil, fmt.Errorf("reopen: %w", domain.ErrNotFound)
	}

	cached, err := o.store.FindByURL(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("reopen %s: %w", pageURL, err)
	}

	connection, err := o.findConnection(cached.ConnectionParent)
	if err != nil {
		return nil, err
	}

	portal, err := connection.InjectUI(ctx, cached.ID, o.collab)
	if err != nil {
		return nil, fmt.Errorf("inject UI for %s: %w", connection.Name(), err)
	}

	return &driving.CreateResult{
		SpaceID: cached.ID,
		Portal:  portal,
		Name:    cached.Name,
	}, nil
}

// Logs returns the log stream of the most recent Create call, or nil.
func (o *Orchestrator) Logs() driven.LogStream {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.logs
}

// findConnection resolves a connection by name from the registry.
func (o *Orchestrator) findConnection(name string) (driven.Connection, error) {
	for _, c := range o.registry.List() {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrNoConnection, name)
}

// openLogs opens a fresh stream for spaceID, replacing and closing the
// stream of any earlier run.
func (o *Orchestrator) openLogs(ctx context.Context, spaceID string) {
	if o.streams == nil {
		return
	}

	stream := o.streams.OpenLogStream(ctx, spaceID)

	o.mu.Lock()
	previous := o.logs
	o.logs = stream
	o.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
}

// closeLogs stops the current stream, keeping its accumulated messages
// readable for the failure report.
func (o *Orchestrator) closeLogs() {
	o.mu.Lock()
	stream := o.logs
	o.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
}

// hostOf extracts the host component of a page URL, or "".
func hostOf(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}
