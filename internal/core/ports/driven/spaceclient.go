package driven

import (
	"context"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
)

// SpaceCreator turns a record batch into a durable backend-hosted space.
type SpaceCreator interface {
	// CreateSpace submits the batch and blocks until the backend task
	// reaches a terminal state. Two polling paths run concurrently: the
	// task status path gates the return value, while the space-id
	// discovery path invokes onSpaceID as soon as the backend assigns an
	// identifier, usually well before synthesis completes. onSpaceID may
	// be nil. The context cancels both paths.
	CreateSpace(ctx context.Context, batch *domain.Batch, name string, onSpaceID func(spaceID string)) (*domain.SpaceResult, error)
}

// LogStream is a live feed of synthesis progress for one space. Messages
// accumulate for the lifetime of the stream, including across reconnects.
type LogStream interface {
	// Messages returns a snapshot of all messages received so far, in
	// receipt order.
	Messages() []domain.LogMessage

	// Status returns the current connection status.
	Status() domain.StreamStatus

	// Updates returns a channel that receives each message as it is
	// appended. The channel is closed when the stream stops.
	Updates() <-chan domain.LogMessage

	// Close stops the stream and any pending reconnect.
	Close() error
}

// LogStreamOpener opens log streams. At most one stream is open per space
// identifier at a time from the client's perspective.
type LogStreamOpener interface {
	// OpenLogStream connects to the progress stream for spaceID. The
	// stream reconnects on its own until Close is called or ctx ends.
	OpenLogStream(ctx context.Context, spaceID string) LogStream
}
