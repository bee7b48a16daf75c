// Package board implements the client-side core of the collaborative
// sticky-note board: the notes synchronization engine, the presence
// engine and the drag interaction controller. It consumes three
// collaborators through interfaces: an identity provider, a record store
// and the realtime pub/sub transport.
package board

import (
	"context"

	"github.com/karkow/idea-board/pkg/timex"

	"github.com/pkg/errors"
)

var (
	// ErrAuthRequired is returned when a write is attempted with no
	// active session. Never retried automatically.
	ErrAuthRequired = errors.New("board: authenticated session required")
	// ErrNotStarted is returned when an engine operation runs before
	// Start.
	ErrNotStarted = errors.New("board: engine not started")
)

// Position is a note's location on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Note is the board's view of one sticky note. Votes always equals the
// size of VotedBy; the store re-derives the counter on every write.
type Note struct {
	ID            string     `json:"id"`
	Content       string     `json:"content"`
	Position      Position   `json:"position"`
	Color         string     `json:"color"`
	Category      string     `json:"category"`
	Votes         int64      `json:"votes"`
	VotedBy       []string   `json:"votedBy"`
	CreatedBy     string     `json:"createdBy"`
	CreatedByName string     `json:"createdByName"`
	CreatedAt     timex.Time `json:"createdAt"`
	UpdatedAt     timex.Time `json:"updatedAt"`
}

// Clone returns a detached copy so callers cannot mutate engine state.
func (n *Note) Clone() *Note {
	c := *n
	c.VotedBy = append([]string{}, n.VotedBy...)
	return &c
}

// Identity is the authenticated user the core acts as.
type Identity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// IdentityProvider supplies the current session's identity, or reports
// that the session is unauthenticated.
type IdentityProvider interface {
	Current() (Identity, bool)
}

// IdentityFunc adapts a function to IdentityProvider.
type IdentityFunc func() (Identity, bool)

func (f IdentityFunc) Current() (Identity, bool) {
	return f()
}

// StaticIdentity returns a provider always yielding id.
func StaticIdentity(id Identity) IdentityProvider {
	return IdentityFunc(func() (Identity, bool) {
		return id, true
	})
}

// NoIdentity returns a provider for an unauthenticated session.
func NoIdentity() IdentityProvider {
	return IdentityFunc(func() (Identity, bool) {
		return Identity{}, false
	})
}

// NoteDraft is the caller-supplied part of a new note. Position may be
// nil, in which case the engine picks a spawn point.
type NoteDraft struct {
	Content  string
	Category string
	Color    string
	Position *Position
}

// NotePatch is a partial note update; nil fields are left untouched.
type NotePatch struct {
	Content  *string
	Position *Position
	Color    *string
	Category *string
}

// Store is the persistent record store the engine writes through. All
// mutating calls return the canonical stored row.
type Store interface {
	ListRecent(ctx context.Context, limit int) ([]*Note, error)
	Create(ctx context.Context, n *Note) (*Note, error)
	Update(ctx context.Context, id string, patch NotePatch) (*Note, error)
	Delete(ctx context.Context, id string) error
	// ToggleVote atomically adds uid to the voter set if absent, or
	// removes it if present, and returns the row with the re-derived
	// counter.
	ToggleVote(ctx context.Context, id string, uid string) (*Note, error)
}
