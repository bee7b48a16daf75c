package service

import (
	"context"

	"github.com/karkow/idea-board/internal/board"
	"github.com/karkow/idea-board/internal/dao"
	"github.com/karkow/idea-board/internal/model"
	"github.com/karkow/idea-board/pkg/convert"
	"github.com/karkow/idea-board/pkg/metrics"

	"github.com/pkg/errors"
)

// NoteStore adapts the dao into the board core's record store interface.
type NoteStore struct {
	dao *dao.Dao
}

func NewNoteStore(d *dao.Dao) *NoteStore {
	return &NoteStore{dao: d}
}

var _ board.Store = (*NoteStore)(nil)

func (s *NoteStore) ListRecent(ctx context.Context, limit int) ([]*board.Note, error) {
	rows, err := s.dao.WithContext(ctx).NoteListRecent(limit)
	if err != nil {
		return nil, errors.Wrap(err, "list notes")
	}
	notes := make([]*board.Note, len(rows))
	for i, row := range rows {
		notes[i] = modelToBoard(row)
	}
	return notes, nil
}

func (s *NoteStore) Create(ctx context.Context, n *board.Note) (*board.Note, error) {
	category := n.Category
	if category == "" {
		category = model.CategoryOther
	}
	if !model.ValidCategory(category) {
		return nil, errors.Errorf("invalid category %q", category)
	}

	row := convert.StructAssign(n, &model.Note{}).(*model.Note)
	row.PositionX = n.Position.X
	row.PositionY = n.Position.Y
	row.Category = category
	row.Votes = 0
	row.VotedBy = []string{}

	created, err := s.dao.WithContext(ctx).NoteCreate(row)
	if err != nil {
		return nil, errors.Wrap(err, "create note")
	}
	metrics.NoteWrites.WithLabelValues("create").Inc()
	return modelToBoard(created), nil
}

func (s *NoteStore) Update(ctx context.Context, id string, patch board.NotePatch) (*board.Note, error) {
	daoPatch := &dao.NotePatch{
		Content:  patch.Content,
		Color:    patch.Color,
		Category: patch.Category,
	}
	if patch.Position != nil {
		daoPatch.PositionX = &patch.Position.X
		daoPatch.PositionY = &patch.Position.Y
	}

	updated, err := s.dao.WithContext(ctx).NoteUpdate(id, daoPatch)
	if err != nil {
		return nil, errors.Wrap(err, "update note")
	}
	metrics.NoteWrites.WithLabelValues("update").Inc()
	return modelToBoard(updated), nil
}

func (s *NoteStore) Delete(ctx context.Context, id string) error {
	if err := s.dao.WithContext(ctx).NoteDelete(id); err != nil {
		return errors.Wrap(err, "delete note")
	}
	metrics.NoteWrites.WithLabelValues("delete").Inc()
	return nil
}

func (s *NoteStore) ToggleVote(ctx context.Context, id string, uid string) (*board.Note, error) {
	updated, err := s.dao.WithContext(ctx).NoteVoteToggle(id, uid)
	if err != nil {
		return nil, errors.Wrap(err, "toggle vote")
	}
	metrics.NoteWrites.WithLabelValues("vote").Inc()
	return modelToBoard(updated), nil
}

func modelToBoard(row *model.Note) *board.Note {
	n := convert.StructAssign(row, &board.Note{}).(*board.Note)
	n.Position = board.Position{X: row.PositionX, Y: row.PositionY}
	if n.VotedBy == nil {
		n.VotedBy = []string{}
	}
	return n
}
