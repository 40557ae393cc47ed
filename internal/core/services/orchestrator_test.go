package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
)

// fakeConnection scripts extraction and injection outcomes.
type fakeConnection struct {
	name       string
	batch      *domain.Batch
	extractErr error
	injectErr  error
	spaceName  string

	injectedSpaceIDs []string
}

func (c *fakeConnection) Name() string          { return c.name }
func (c *fakeConnection) Description() string   { return "fake" }
func (c *fakeConnection) Trigger(_ string) bool { return true }

func (c *fakeConnection) Extract(ctx context.Context, pageURL string, collab *driven.Collaborators) (*domain.Batch, error) {
	if c.extractErr != nil {
		return nil, c.extractErr
	}
	return c.batch, nil
}

func (c *fakeConnection) InjectUI(ctx context.Context, spaceID string, collab *driven.Collaborators) (*domain.Portal, error) {
	if c.injectErr != nil {
		return nil, c.injectErr
	}
	c.injectedSpaceIDs = append(c.injectedSpaceIDs, spaceID)
	return &domain.Portal{WidgetID: domain.WidgetID(c.name), SpaceID: spaceID}, nil
}

// namedFakeConnection adds the SpaceNamer capability.
type namedFakeConnection struct{ fakeConnection }

func (c *namedFakeConnection) SpaceName(_ string) string { return c.spaceName }

// fakeCreator scripts the backend submission.
type fakeCreator struct {
	result    *domain.SpaceResult
	err       error
	earlyID   string
	gotName   string
	gotBatch  *domain.Batch
	callCount int
}

func (f *fakeCreator) CreateSpace(ctx context.Context, batch *domain.Batch, name string, onSpaceID func(string)) (*domain.SpaceResult, error) {
	f.callCount++
	f.gotName = name
	f.gotBatch = batch
	if f.earlyID != "" && onSpaceID != nil {
		onSpaceID(f.earlyID)
	}
	return f.result, f.err
}

// fakeStream records closes.
type fakeStream struct {
	closed bool
}

func (s *fakeStream) Messages() []domain.LogMessage     { return nil }
func (s *fakeStream) Status() domain.StreamStatus       { return domain.StreamConnected }
func (s *fakeStream) Updates() <-chan domain.LogMessage { return nil }
func (s *fakeStream) Close() error                      { s.closed = true; return nil }

// fakeStreamOpener hands out fakeStreams.
type fakeStreamOpener struct {
	opened []string
	last   *fakeStream
}

func (f *fakeStreamOpener) OpenLogStream(ctx context.Context, spaceID string) driven.LogStream {
	f.opened = append(f.opened, spaceID)
	f.last = &fakeStream{}
	return f.last
}

// memStore is an in-memory SpaceStore.
type memStore struct {
	spaces map[string]domain.StoredSpace // keyed by URL
}

func newMemStore() *memStore {
	return &memStore{spaces: make(map[string]domain.StoredSpace)}
}

func (m *memStore) List(ctx context.Context) ([]domain.StoredSpace, error) {
	out := make([]domain.StoredSpace, 0, len(m.spaces))
	for _, s := range m.spaces {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) FindByURL(ctx context.Context, url string) (*domain.StoredSpace, error) {
	s, ok := m.spaces[url]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *memStore) Put(ctx context.Context, space domain.StoredSpace) error {
	m.spaces[space.URL] = space
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	for url, s := range m.spaces {
		if s.ID == id {
			delete(m.spaces, url)
		}
	}
	return nil
}

func (m *memStore) Close() error { return nil }

func validBatch() *domain.Batch {
	return &domain.Batch{
		Records:    []domain.Record{{"title": "One", "segment": "Text."}},
		FieldTypes: domain.FieldTypeMap{"title": domain.FieldTitle, "segment": domain.FieldSemantic},
	}
}

func TestOrchestrator_CreateHappyPath(t *testing.T) {
	connection := &fakeConnection{name: "Wikipedia", batch: validBatch()}
	creator := &fakeCreator{result: &domain.SpaceResult{SpaceID: "space-1"}, earlyID: "space-1"}
	streams := &fakeStreamOpener{}
	store := newMemStore()
	registry := NewRegistry(connection)

	o := NewOrchestrator(creator, streams, store, registry, &driven.Collaborators{})

	var stages []domain.GenerationProgress
	result, err := o.Create(context.Background(), connection, "https://en.wikipedia.org/wiki/Go", "My Space", func(p domain.GenerationProgress) {
		stages = append(stages, p)
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.GenerationProgress{
		domain.ProgressGatheringData,
		domain.ProgressCreatingSpace,
		domain.ProgressInjectingUI,
		domain.ProgressCompleted,
	}, stages)

	assert.Equal(t, "space-1", result.SpaceID)
	assert.Equal(t, "My Space", result.Name)
	require.NotNil(t, result.Portal)

	// The log stream opened off the early discovered id.
	assert.Equal(t, []string{"space-1"}, streams.opened)
	assert.Same(t, streams.last, o.Logs())

	// The run is cached, keyed by the exact URL.
	cached, err := store.FindByURL(context.Background(), "https://en.wikipedia.org/wiki/Go")
	require.NoError(t, err)
	assert.Equal(t, "space-1", cached.ID)
	assert.Equal(t, "en.wikipedia.org", cached.Host)
	assert.Equal(t, "Wikipedia", cached.ConnectionParent)
}

func TestOrchestrator_CreateReplacesCachedSpaceForSameURL(t *testing.T) {
	connection := &fakeConnection{name: "Wikipedia", batch: validBatch()}
	store := newMemStore()
	registry := NewRegistry(connection)

	url := "https://en.wikipedia.org/wiki/Go"

	first := &fakeCreator{result: &domain.SpaceResult{SpaceID: "space-1"}}
	o := NewOrchestrator(first, nil, store, registry, &driven.Collaborators{})
	_, err := o.Create(context.Background(), connection, url, "", nil)
	require.NoError(t, err)

	second := &fakeCreator{result: &domain.SpaceResult{SpaceID: "space-2"}}
	o = NewOrchestrator(second, nil, store, registry, &driven.Collaborators{})
	_, err = o.Create(context.Background(), connection, url, "", nil)
	require.NoError(t, err)

	all, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1, "at most one cached space per URL")
	assert.Equal(t, "space-2", all[0].ID)
}

func TestOrchestrator_ExtractFailureIsTerminal(t *testing.T) {
	connection := &fakeConnection{name: "Wikipedia", extractErr: domain.ErrDocumentTooShort}
	creator := &fakeCreator{}
	store := newMemStore()

	o := NewOrchestrator(creator, nil, store, NewRegistry(connection), &driven.Collaborators{})

	var stages []domain.GenerationProgress
	_, err := o.Create(context.Background(), connection, "https://en.wikipedia.org/wiki/Stub", "", func(p domain.GenerationProgress) {
		stages = append(stages, p)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDocumentTooShort)

	assert.Equal(t, domain.ProgressFailed, stages[len(stages)-1])
	assert.Zero(t, creator.callCount, "nothing may be submitted after a failed extraction")

	all, _ := store.List(context.Background())
	assert.Empty(t, all, "failed runs are not cached")
}

func TestOrchestrator_SubmissionFailureClosesLogStream(t *testing.T) {
	connection := &fakeConnection{name: "Wikipedia", batch: validBatch()}
	creator := &fakeCreator{err: errors.New("task failed: worker died"), earlyID: "space-1"}
	streams := &fakeStreamOpener{}

	o := NewOrchestrator(creator, streams, newMemStore(), NewRegistry(connection), &driven.Collaborators{})

	var stages []domain.GenerationProgress
	_, err := o.Create(context.Background(), connection, "https://en.wikipedia.org/wiki/Go", "", func(p domain.GenerationProgress) {
		stages = append(stages, p)
	})
	require.Error(t, err)
	assert.Equal(t, domain.ProgressFailed, stages[len(stages)-1])

	require.NotNil(t, streams.last)
	assert.True(t, streams.last.closed, "a failed job must not leave a reconnecting stream behind")
}

func TestOrchestrator_SpaceNamerFillsEmptyName(t *testing.T) {
	connection := &namedFakeConnection{fakeConnection{
		name:      "Web Search",
		batch:     validBatch(),
		spaceName: "golang generics",
	}}
	creator := &fakeCreator{result: &domain.SpaceResult{SpaceID: "space-1"}}

	o := NewOrchestrator(creator, nil, newMemStore(), NewRegistry(connection), &driven.Collaborators{})

	result, err := o.Create(context.Background(), connection, "https://www.google.com/search?q=golang+generics", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "golang generics", result.Name)
	assert.Equal(t, "golang generics", creator.gotName)
}

func TestOrchestrator_ExplicitNameWinsOverNamer(t *testing.T) {
	connection := &namedFakeConnection{fakeConnection{
		name:      "Web Search",
		batch:     validBatch(),
		spaceName: "derived",
	}}
	creator := &fakeCreator{result: &domain.SpaceResult{SpaceID: "space-1"}}

	o := NewOrchestrator(creator, nil, newMemStore(), NewRegistry(connection), &driven.Collaborators{})

	result, err := o.Create(context.Background(), connection, "https://www.google.com/search?q=x", "chosen", nil)
	require.NoError(t, err)
	assert.Equal(t, "chosen", result.Name)
}

func TestOrchestrator_RejectsInconsistentBatch(t *testing.T) {
	connection := &fakeConnection{name: "Wikipedia", batch: &domain.Batch{
		Records:    []domain.Record{{"title": "One"}},
		FieldTypes: domain.FieldTypeMap{"title": domain.FieldTitle, "segment": domain.FieldSemantic},
	}}
	creator := &fakeCreator{}

	o := NewOrchestrator(creator, nil, newMemStore(), NewRegistry(connection), &driven.Collaborators{})

	_, err := o.Create(context.Background(), connection, "https://en.wikipedia.org/wiki/Go", "", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)
	assert.Zero(t, creator.callCount)
}

func TestOrchestrator_Reopen(t *testing.T) {
	connection := &fakeConnection{name: "Wikipedia", batch: validBatch()}
	store := newMemStore()
	require.NoError(t, store.Put(context.Background(), domain.StoredSpace{
		Name:             "Earlier Space",
		ID:               "space-7",
		URL:              "https://en.wikipedia.org/wiki/Go",
		Host:             "en.wikipedia.org",
		ConnectionParent: "Wikipedia",
	}))

	o := NewOrchestrator(&fakeCreator{}, nil, store, NewRegistry(connection), &driven.Collaborators{})

	result, err := o.Reopen(context.Background(), "https://en.wikipedia.org/wiki/Go")
	require.NoError(t, err)
	assert.Equal(t, "space-7", result.SpaceID)
	assert.Equal(t, "Earlier Space", result.Name)
	assert.Equal(t, []string{"space-7"}, connection.injectedSpaceIDs)
}

func TestOrchestrator_ReopenUnknownURL(t *testing.T) {
	o := NewOrchestrator(&fakeCreator{}, nil, newMemStore(), NewRegistry(), &driven.Collaborators{})

	_, err := o.Reopen(context.Background(), "https://en.wikipedia.org/wiki/Nothing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrchestrator_ReopenMissingConnection(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Put(context.Background(), domain.StoredSpace{
		ID:               "space-7",
		URL:              "https://example.com/",
		ConnectionParent: "Retired Connection",
	}))

	o := NewOrchestrator(&fakeCreator{}, nil, store, NewRegistry(), &driven.Collaborators{})

	_, err := o.Reopen(context.Background(), "https://example.com/")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoConnection)
}
