package driven

import (
	"context"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
)

// SpaceStore persists previously created spaces, keyed by the URL they
// were created from. It backs the duplicate-space detection on revisit.
type SpaceStore interface {
	// List returns all cached spaces, most recent first.
	List(ctx context.Context) ([]domain.StoredSpace, error)

	// FindByURL returns the cached space for an exact URL, or
	// domain.ErrNotFound.
	FindByURL(ctx context.Context, url string) (*domain.StoredSpace, error)

	// Put saves a space, replacing any cached space with the same URL.
	// The overwrite is what guarantees at most one space per page.
	Put(ctx context.Context, space domain.StoredSpace) error

	// Delete removes a cached space by space id.
	Delete(ctx context.Context, id string) error

	// Close releases the underlying storage.
	Close() error
}
