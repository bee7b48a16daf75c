package service

import (
	"context"

	"github.com/karkow/idea-board/internal/board"

	"golang.org/x/sync/singleflight"
)

// recentLister is the slice of the note store the read side needs.
type recentLister interface {
	ListRecent(ctx context.Context, limit int) ([]*board.Note, error)
}

// NoteService serves the read-side HTTP surface of the board.
type NoteService struct {
	store recentLister
	limit int
	sf    singleflight.Group
}

func NewNoteService(store recentLister, limit int) *NoteService {
	if limit <= 0 {
		limit = 100
	}
	return &NoteService{store: store, limit: limit}
}

// List returns the most recent notes, newest first, capped at the board
// limit. Concurrent callers collapse onto one store query.
func (s *NoteService) List(ctx context.Context) ([]*board.Note, error) {
	v, err, _ := s.sf.Do("NoteList", func() (any, error) {
		return s.store.ListRecent(ctx, s.limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*board.Note), nil
}
