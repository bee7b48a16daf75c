package board

import (
	"context"
	"sync"

	"github.com/karkow/idea-board/internal/realtime"
	"github.com/karkow/idea-board/pkg/util"

	"go.uber.org/zap"
)

// EngineConfig tunes the notes synchronization engine.
type EngineConfig struct {
	// NoteLimit caps the local collection and the load query.
	NoteLimit int
	// Spawn rectangle for notes created without a position.
	SpawnMinX, SpawnMaxX float64
	SpawnMinY, SpawnMaxY float64
}

// DefaultEngineConfig returns the standard board settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		NoteLimit: 100,
		SpawnMinX: 200, SpawnMaxX: 800,
		SpawnMinY: 150, SpawnMaxY: 550,
	}
}

// Engine owns the authoritative local view of all notes. It merges the
// initial load, local writes confirmed by the store, and peer broadcast
// events into one newest-first collection. Updates are applied only after
// the store confirms them; there is no rollback path.
type Engine struct {
	store    Store
	registry *realtime.Registry
	identity IdentityProvider
	logger   *zap.Logger
	cfg      EngineConfig

	mu      sync.Mutex
	notes   []*Note
	loading bool
	lastErr error
	channel realtime.Channel
	started bool
}

func NewEngine(store Store, registry *realtime.Registry, identity IdentityProvider, l *zap.Logger, cfg EngineConfig) *Engine {
	if l == nil {
		l = zap.NewNop()
	}
	if cfg.NoteLimit <= 0 {
		cfg.NoteLimit = DefaultEngineConfig().NoteLimit
	}
	return &Engine{
		store:    store,
		registry: registry,
		identity: identity,
		logger:   l,
		cfg:      cfg,
	}
}

// Start acquires the notes channel and begins applying peer events. The
// channel runs without self-echo: this client applies its own changes from
// the direct store result, so the duplicate-insert guard in applyRemote is
// a safety net, not the primary mechanism.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.mu.Unlock()

	ch := e.registry.Acquire(realtime.ChannelNotes, realtime.ChannelOptions{SelfBroadcast: false})
	ch.OnBroadcast(e.applyRemote)
	if err := e.registry.EnsureSubscribed(ctx, realtime.ChannelNotes); err != nil {
		e.registry.Release(realtime.ChannelNotes)
		e.mu.Lock()
		e.started = false
		e.lastErr = err
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	e.channel = ch
	e.mu.Unlock()
	return nil
}

// Stop releases the notes channel.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	e.channel = nil
	e.mu.Unlock()

	e.registry.Release(realtime.ChannelNotes)
}

// Notes returns a snapshot of the local collection, newest first.
func (e *Engine) Notes() []*Note {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Note, len(e.notes))
	for i, n := range e.notes {
		out[i] = n.Clone()
	}
	return out
}

// Note returns a copy of one note by id.
func (e *Engine) Note(id string) (*Note, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range e.notes {
		if n.ID == id {
			return n.Clone(), true
		}
	}
	return nil, false
}

func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// LastErr exposes the most recent recorded failure for the presentation
// layer. Cleared by the next successful Load.
func (e *Engine) LastErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Load fetches the most recent notes and replaces the local collection
// wholesale. On failure the collection is left untouched and the error is
// recorded; on success the last error is cleared.
func (e *Engine) Load(ctx context.Context) ([]*Note, error) {
	e.mu.Lock()
	e.loading = true
	e.mu.Unlock()

	notes, err := e.store.ListRecent(ctx, e.cfg.NoteLimit)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false
	if err != nil {
		e.lastErr = err
		e.logger.Error("notes load failed", zap.Error(err))
		return nil, err
	}
	// The store is asked for at most NoteLimit rows, but a store that
	// returns more must not grow the collection past the cap.
	if len(notes) > e.cfg.NoteLimit {
		notes = notes[:e.cfg.NoteLimit]
	}
	e.notes = notes
	e.lastErr = nil

	out := make([]*Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out, nil
}

func (e *Engine) isStarted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// AddNote persists a new note and applies it locally once the store
// confirms, then announces it to peers. Fails fast without an
// authenticated session.
func (e *Engine) AddNote(ctx context.Context, draft NoteDraft) (*Note, error) {
	if !e.isStarted() {
		e.recordErr(ErrNotStarted)
		return nil, ErrNotStarted
	}
	id, ok := e.identity.Current()
	if !ok {
		e.recordErr(ErrAuthRequired)
		return nil, ErrAuthRequired
	}

	pos := draft.Position
	if pos == nil {
		pos = &Position{
			X: util.RandomFloatInRange(e.cfg.SpawnMinX, e.cfg.SpawnMaxX),
			Y: util.RandomFloatInRange(e.cfg.SpawnMinY, e.cfg.SpawnMaxY),
		}
	}

	created, err := e.store.Create(ctx, &Note{
		Content:       draft.Content,
		Category:      draft.Category,
		Color:         draft.Color,
		Position:      *pos,
		CreatedBy:     id.ID,
		CreatedByName: id.Name,
	})
	if err != nil {
		e.recordErr(err)
		e.logger.Error("note create failed", zap.Error(err))
		return nil, err
	}

	e.mu.Lock()
	e.insertFront(created)
	e.mu.Unlock()

	e.broadcast(ctx, EventNoteAdded, NoteEvent{Note: created})
	return created.Clone(), nil
}

// UpdateNote persists a partial update, applies the returned full row and
// notifies peers. Returns false and records the error on failure.
func (e *Engine) UpdateNote(ctx context.Context, id string, patch NotePatch) bool {
	if !e.isStarted() {
		e.recordErr(ErrNotStarted)
		return false
	}
	updated, err := e.store.Update(ctx, id, patch)
	if err != nil {
		e.recordErr(err)
		e.logger.Error("note update failed", zap.String("id", id), zap.Error(err))
		return false
	}

	e.mu.Lock()
	e.replaceByID(updated)
	e.mu.Unlock()

	e.broadcast(ctx, EventNoteUpdated, NoteEvent{Note: updated})
	return true
}

// DeleteNote persists the deletion, removes the note locally and notifies
// peers.
func (e *Engine) DeleteNote(ctx context.Context, id string) bool {
	if !e.isStarted() {
		e.recordErr(ErrNotStarted)
		return false
	}
	if err := e.store.Delete(ctx, id); err != nil {
		e.recordErr(err)
		e.logger.Error("note delete failed", zap.String("id", id), zap.Error(err))
		return false
	}

	e.mu.Lock()
	e.removeByID(id)
	e.mu.Unlock()

	e.broadcast(ctx, EventNoteDeleted, NoteEvent{ID: id})
	return true
}

// VoteNote toggles the acting user's vote. The store owns the membership
// toggle and the derived counter; the returned canonical row replaces the
// local state, never a client-computed count.
func (e *Engine) VoteNote(ctx context.Context, id string) bool {
	if !e.isStarted() {
		e.recordErr(ErrNotStarted)
		return false
	}
	session, ok := e.identity.Current()
	if !ok {
		e.recordErr(ErrAuthRequired)
		return false
	}

	updated, err := e.store.ToggleVote(ctx, id, session.ID)
	if err != nil {
		e.recordErr(err)
		e.logger.Error("note vote failed", zap.String("id", id), zap.Error(err))
		return false
	}

	e.mu.Lock()
	e.replaceByID(updated)
	e.mu.Unlock()

	e.broadcast(ctx, EventNoteVoted, NoteEvent{
		ID:      updated.ID,
		Votes:   updated.Votes,
		VotedBy: updated.VotedBy,
	})
	return true
}

// applyRemote merges one peer broadcast into the local collection. Every
// application is a no-op when the target id is unknown, which defends
// against out-of-order delivery racing a local delete.
func (e *Engine) applyRemote(event string, payload []byte) {
	ev, err := decodeNoteEvent(payload)
	if err != nil {
		e.logger.Warn("malformed broadcast event",
			zap.String("event", event), zap.Error(err))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch event {
	case EventNoteAdded:
		if ev.Note == nil {
			return
		}
		// Idempotent against duplicate delivery.
		for _, n := range e.notes {
			if n.ID == ev.Note.ID {
				return
			}
		}
		e.insertFront(ev.Note)
	case EventNoteUpdated:
		if ev.Note == nil {
			return
		}
		e.replaceByID(ev.Note)
	case EventNoteDeleted:
		e.removeByID(ev.ID)
	case EventNoteVoted:
		for _, n := range e.notes {
			if n.ID == ev.ID {
				n.Votes = ev.Votes
				n.VotedBy = append([]string{}, ev.VotedBy...)
				return
			}
		}
	default:
		e.logger.Warn("unknown broadcast event", zap.String("event", event))
	}
}

// insertFront puts n at the head and enforces the collection cap.
// Callers hold e.mu.
func (e *Engine) insertFront(n *Note) {
	e.notes = append([]*Note{n}, e.notes...)
	if len(e.notes) > e.cfg.NoteLimit {
		e.notes = e.notes[:e.cfg.NoteLimit]
	}
}

// replaceByID swaps the stored note with the same id; unknown ids are
// ignored. Callers hold e.mu.
func (e *Engine) replaceByID(n *Note) {
	for i, existing := range e.notes {
		if existing.ID == n.ID {
			e.notes[i] = n
			return
		}
	}
}

// removeByID drops the note with id; unknown ids are ignored. Callers
// hold e.mu.
func (e *Engine) removeByID(id string) {
	for i, n := range e.notes {
		if n.ID == id {
			e.notes = append(e.notes[:i], e.notes[i+1:]...)
			return
		}
	}
}

func (e *Engine) recordErr(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
}

func (e *Engine) broadcast(ctx context.Context, event string, ev NoteEvent) {
	e.mu.Lock()
	ch := e.channel
	e.mu.Unlock()
	if ch == nil {
		return
	}
	if err := ch.Broadcast(ctx, event, encodeNoteEvent(ev)); err != nil {
		// Persistence already succeeded; peers will converge on the
		// next load.
		e.logger.Warn("broadcast failed",
			zap.String("event", event), zap.Error(err))
	}
}
