package board

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/karkow/idea-board/internal/realtime"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store shared by every engine in a test,
// standing in for the real record store.
type memStore struct {
	mu        sync.Mutex
	seq       int
	notes     map[string]*Note
	lastLimit int
	failAll   bool
}

func newMemStore() *memStore {
	return &memStore{notes: make(map[string]*Note)}
}

func (s *memStore) ListRecent(ctx context.Context, limit int) ([]*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errors.New("store unavailable")
	}
	s.lastLimit = limit
	out := make([]*Note, 0, len(s.notes))
	for _, n := range s.notes {
		out = append(out, n.Clone())
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Create(ctx context.Context, n *Note) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errors.New("store unavailable")
	}
	s.seq++
	stored := n.Clone()
	stored.ID = fmt.Sprintf("n%d", s.seq)
	if stored.VotedBy == nil {
		stored.VotedBy = []string{}
	}
	stored.Votes = int64(len(stored.VotedBy))
	s.notes[stored.ID] = stored
	return stored.Clone(), nil
}

func (s *memStore) Update(ctx context.Context, id string, patch NotePatch) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, errors.Errorf("note %s not found", id)
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	if patch.Position != nil {
		n.Position = *patch.Position
	}
	if patch.Color != nil {
		n.Color = *patch.Color
	}
	if patch.Category != nil {
		n.Category = *patch.Category
	}
	return n.Clone(), nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return errors.Errorf("note %s not found", id)
	}
	delete(s.notes, id)
	return nil
}

func (s *memStore) ToggleVote(ctx context.Context, id string, uid string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, errors.Errorf("note %s not found", id)
	}
	kept := make([]string, 0, len(n.VotedBy))
	removed := false
	for _, v := range n.VotedBy {
		if v == uid {
			removed = true
			continue
		}
		kept = append(kept, v)
	}
	if !removed {
		kept = append(kept, uid)
	}
	n.VotedBy = kept
	n.Votes = int64(len(kept))
	return n.Clone(), nil
}

// newTestEngine builds one started engine on its own broker session, the
// shape of one connected client.
func newTestEngine(t *testing.T, b *realtime.Broker, store Store, id IdentityProvider) *Engine {
	t.Helper()
	registry := realtime.NewRegistry(b.Connect(), nil)
	e := NewEngine(store, registry, id, nil, DefaultEngineConfig())
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(e.Stop)
	return e
}

func alice() IdentityProvider {
	return StaticIdentity(Identity{ID: "u-alice", Name: "Alice"})
}

func bob() IdentityProvider {
	return StaticIdentity(Identity{ID: "u-bob", Name: "Bob"})
}

func TestEngineAddNotePropagates(t *testing.T) {
	broker := realtime.NewBroker(nil)
	store := newMemStore()
	ctx := context.Background()

	ea := newTestEngine(t, broker, store, alice())
	eb := newTestEngine(t, broker, store, bob())

	created, err := ea.AddNote(ctx, NoteDraft{Content: "build a CLI", Category: "automation"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "u-alice", created.CreatedBy)
	assert.Equal(t, "Alice", created.CreatedByName)

	// The creator applied the store result exactly once.
	require.Len(t, ea.Notes(), 1)
	// The peer applied the broadcast.
	peers := eb.Notes()
	require.Len(t, peers, 1)
	assert.Equal(t, created.ID, peers[0].ID)
	assert.Equal(t, "build a CLI", peers[0].Content)
}

func TestEngineAddNoteRequiresAuth(t *testing.T) {
	broker := realtime.NewBroker(nil)
	e := newTestEngine(t, broker, newMemStore(), NoIdentity())

	_, err := e.AddNote(context.Background(), NoteDraft{Content: "nope"})
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.ErrorIs(t, e.LastErr(), ErrAuthRequired)
	assert.Empty(t, e.Notes())
}

func TestEngineAddNoteSpawnsPosition(t *testing.T) {
	broker := realtime.NewBroker(nil)
	e := newTestEngine(t, broker, newMemStore(), alice())

	created, err := e.AddNote(context.Background(), NoteDraft{Content: "spawn me"})
	require.NoError(t, err)
	cfg := DefaultEngineConfig()
	assert.GreaterOrEqual(t, created.Position.X, cfg.SpawnMinX)
	assert.LessOrEqual(t, created.Position.X, cfg.SpawnMaxX)
	assert.GreaterOrEqual(t, created.Position.Y, cfg.SpawnMinY)
	assert.LessOrEqual(t, created.Position.Y, cfg.SpawnMaxY)
}

func TestEngineLoadUsesLimitAndReplacesWholesale(t *testing.T) {
	broker := realtime.NewBroker(nil)
	store := newMemStore()
	ctx := context.Background()
	e := newTestEngine(t, broker, store, alice())

	for i := 0; i < 3; i++ {
		_, err := e.AddNote(ctx, NoteDraft{Content: fmt.Sprintf("note %d", i)})
		require.NoError(t, err)
	}

	notes, err := e.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 3)
	assert.Equal(t, DefaultEngineConfig().NoteLimit, store.lastLimit)
	assert.NoError(t, e.LastErr())
}

// overfullStore ignores the requested limit, standing in for a store that
// returns more rows than asked for.
type overfullStore struct {
	*memStore
	rows int
}

func (s *overfullStore) ListRecent(ctx context.Context, limit int) ([]*Note, error) {
	out := make([]*Note, s.rows)
	for i := range out {
		out[i] = &Note{ID: fmt.Sprintf("n%d", i), Content: fmt.Sprintf("note %d", i)}
	}
	return out, nil
}

func TestEngineLoadTrimsOverfullResult(t *testing.T) {
	broker := realtime.NewBroker(nil)
	store := &overfullStore{memStore: newMemStore(), rows: 150}
	e := newTestEngine(t, broker, store, alice())

	notes, err := e.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, notes, DefaultEngineConfig().NoteLimit)
	assert.Equal(t, "n0", notes[0].ID, "newest rows kept from the front")
	assert.Len(t, e.Notes(), DefaultEngineConfig().NoteLimit)
}

func TestEngineLoadFailureKeepsCollection(t *testing.T) {
	broker := realtime.NewBroker(nil)
	store := newMemStore()
	ctx := context.Background()
	e := newTestEngine(t, broker, store, alice())

	_, err := e.AddNote(ctx, NoteDraft{Content: "survivor"})
	require.NoError(t, err)

	store.mu.Lock()
	store.failAll = true
	store.mu.Unlock()

	_, err = e.Load(ctx)
	require.Error(t, err)
	assert.Error(t, e.LastErr())
	assert.Len(t, e.Notes(), 1, "failed load must not clear the collection")
}

func TestEngineCollectionCap(t *testing.T) {
	broker := realtime.NewBroker(nil)
	store := newMemStore()
	ctx := context.Background()

	cfg := DefaultEngineConfig()
	cfg.NoteLimit = 5
	registry := realtime.NewRegistry(broker.Connect(), nil)
	e := NewEngine(store, registry, alice(), nil, cfg)
	require.NoError(t, e.Start(ctx))
	defer e.Stop()

	for i := 0; i < 8; i++ {
		_, err := e.AddNote(ctx, NoteDraft{Content: fmt.Sprintf("note %d", i)})
		require.NoError(t, err)
	}
	notes := e.Notes()
	require.Len(t, notes, 5)
	assert.Equal(t, "note 7", notes[0].Content, "newest first")
}

func TestEngineVotePropagates(t *testing.T) {
	broker := realtime.NewBroker(nil)
	store := newMemStore()
	ctx := context.Background()

	ea := newTestEngine(t, broker, store, alice())
	eb := newTestEngine(t, broker, store, bob())

	created, err := ea.AddNote(ctx, NoteDraft{Content: "vote on me"})
	require.NoError(t, err)

	require.True(t, eb.VoteNote(ctx, created.ID))
	require.True(t, ea.VoteNote(ctx, created.ID))

	for _, e := range []*Engine{ea, eb} {
		n, ok := e.Note(created.ID)
		require.True(t, ok)
		assert.Equal(t, int64(2), n.Votes)
		assert.ElementsMatch(t, []string{"u-alice", "u-bob"}, n.VotedBy)
	}

	// Toggling again withdraws the vote everywhere.
	require.True(t, eb.VoteNote(ctx, created.ID))
	for _, e := range []*Engine{ea, eb} {
		n, ok := e.Note(created.ID)
		require.True(t, ok)
		assert.Equal(t, int64(1), n.Votes)
		assert.Equal(t, []string{"u-alice"}, n.VotedBy)
	}
}

func TestEngineVoteRequiresAuth(t *testing.T) {
	broker := realtime.NewBroker(nil)
	e := newTestEngine(t, broker, newMemStore(), NoIdentity())

	assert.False(t, e.VoteNote(context.Background(), "n1"))
	assert.ErrorIs(t, e.LastErr(), ErrAuthRequired)
}

func TestEngineDeletePropagates(t *testing.T) {
	broker := realtime.NewBroker(nil)
	store := newMemStore()
	ctx := context.Background()

	ea := newTestEngine(t, broker, store, alice())
	eb := newTestEngine(t, broker, store, bob())

	created, err := ea.AddNote(ctx, NoteDraft{Content: "short-lived"})
	require.NoError(t, err)
	require.Len(t, eb.Notes(), 1)

	require.True(t, ea.DeleteNote(ctx, created.ID))
	assert.Empty(t, ea.Notes())
	assert.Empty(t, eb.Notes())
}

func TestEngineRemoteEventsForUnknownIDsNoOp(t *testing.T) {
	broker := realtime.NewBroker(nil)
	store := newMemStore()
	ctx := context.Background()

	ea := newTestEngine(t, broker, store, alice())
	eb := newTestEngine(t, broker, store, bob())

	created, err := ea.AddNote(ctx, NoteDraft{Content: "only note"})
	require.NoError(t, err)

	// Raw peer events targeting ids this client never saw.
	registry := realtime.NewRegistry(broker.Connect(), nil)
	ch := registry.Acquire(realtime.ChannelNotes, realtime.ChannelOptions{})
	require.NoError(t, registry.EnsureSubscribed(ctx, realtime.ChannelNotes))
	defer registry.Release(realtime.ChannelNotes)

	require.NoError(t, ch.Broadcast(ctx, EventNoteDeleted, encodeNoteEvent(NoteEvent{ID: "ghost"})))
	require.NoError(t, ch.Broadcast(ctx, EventNoteVoted, encodeNoteEvent(NoteEvent{ID: "ghost", Votes: 9})))
	require.NoError(t, ch.Broadcast(ctx, EventNoteUpdated, encodeNoteEvent(NoteEvent{Note: &Note{ID: "ghost", Content: "boo"}})))

	for _, e := range []*Engine{ea, eb} {
		notes := e.Notes()
		require.Len(t, notes, 1)
		assert.Equal(t, created.ID, notes[0].ID)
		assert.Equal(t, "only note", notes[0].Content)
	}
}

func TestEngineDuplicateAddIsIdempotent(t *testing.T) {
	broker := realtime.NewBroker(nil)
	store := newMemStore()
	ctx := context.Background()

	e := newTestEngine(t, broker, store, alice())

	registry := realtime.NewRegistry(broker.Connect(), nil)
	ch := registry.Acquire(realtime.ChannelNotes, realtime.ChannelOptions{})
	require.NoError(t, registry.EnsureSubscribed(ctx, realtime.ChannelNotes))
	defer registry.Release(realtime.ChannelNotes)

	ev := encodeNoteEvent(NoteEvent{Note: &Note{ID: "dup-1", Content: "once"}})
	require.NoError(t, ch.Broadcast(ctx, EventNoteAdded, ev))
	require.NoError(t, ch.Broadcast(ctx, EventNoteAdded, ev))

	assert.Len(t, e.Notes(), 1)
}

func TestEngineMalformedEventIgnored(t *testing.T) {
	broker := realtime.NewBroker(nil)
	e := newTestEngine(t, broker, newMemStore(), alice())
	ctx := context.Background()

	registry := realtime.NewRegistry(broker.Connect(), nil)
	ch := registry.Acquire(realtime.ChannelNotes, realtime.ChannelOptions{})
	require.NoError(t, registry.EnsureSubscribed(ctx, realtime.ChannelNotes))
	defer registry.Release(realtime.ChannelNotes)

	require.NoError(t, ch.Broadcast(ctx, EventNoteAdded, []byte("{not json")))
	assert.Empty(t, e.Notes())
}

func TestEngineMutationsRequireStart(t *testing.T) {
	broker := realtime.NewBroker(nil)
	store := newMemStore()
	registry := realtime.NewRegistry(broker.Connect(), nil)
	e := NewEngine(store, registry, alice(), nil, DefaultEngineConfig())
	ctx := context.Background()

	_, err := e.AddNote(ctx, NoteDraft{Content: "too early"})
	require.ErrorIs(t, err, ErrNotStarted)
	assert.False(t, e.UpdateNote(ctx, "n1", NotePatch{}))
	assert.False(t, e.DeleteNote(ctx, "n1"))
	assert.False(t, e.VoteNote(ctx, "n1"))
	assert.ErrorIs(t, e.LastErr(), ErrNotStarted)
	assert.Empty(t, store.notes)
}
