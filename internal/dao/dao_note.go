package dao

import (
	"github.com/karkow/idea-board/internal/model"
	"github.com/karkow/idea-board/pkg/timex"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate adds a row lock on engines that support it. SQLite
// rejects the FOR UPDATE syntax and serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// NotePatch carries a partial note update; nil fields are left untouched.
type NotePatch struct {
	Content   *string  `json:"content"`
	PositionX *float64 `json:"positionX"`
	PositionY *float64 `json:"positionY"`
	Color     *string  `json:"color"`
	Category  *string  `json:"category"`
}

// NoteListRecent returns up to limit notes, most recently created first.
func (d *Dao) NoteListRecent(limit int) ([]*model.Note, error) {
	var notes []*model.Note
	err := d.db.WithContext(d.ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// NoteGetByID returns a single note row.
func (d *Dao) NoteGetByID(id string) (*model.Note, error) {
	var n model.Note
	err := d.db.WithContext(d.ctx).Where("id = ?", id).First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// NoteCreate inserts a note, assigning id and timestamps, and returns the
// stored row.
func (d *Dao) NoteCreate(n *model.Note) (*model.Note, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = timex.Now()
	n.UpdatedAt = timex.Now()
	if n.VotedBy == nil {
		n.VotedBy = []string{}
	}

	if err := d.db.WithContext(d.ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// NoteUpdate applies a partial update inside one transaction and returns
// the full stored row. Going through load-then-save keeps the write-time
// vote derivation hook on the path for every update.
func (d *Dao) NoteUpdate(id string, patch *NotePatch) (*model.Note, error) {
	var n model.Note
	err := d.db.WithContext(d.ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where("id = ?", id).First(&n).Error; err != nil {
			return err
		}

		if patch.Content != nil {
			n.Content = *patch.Content
		}
		if patch.PositionX != nil {
			n.PositionX = *patch.PositionX
		}
		if patch.PositionY != nil {
			n.PositionY = *patch.PositionY
		}
		if patch.Color != nil {
			n.Color = *patch.Color
		}
		if patch.Category != nil {
			if !model.ValidCategory(*patch.Category) {
				return errors.Errorf("invalid category %q", *patch.Category)
			}
			n.Category = *patch.Category
		}
		n.UpdatedAt = timex.Now()

		return tx.Save(&n).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// NoteDelete removes a note row.
func (d *Dao) NoteDelete(id string) error {
	res := d.db.WithContext(d.ctx).Where("id = ?", id).Delete(&model.Note{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NoteVoteToggle atomically flips uid's membership in the voter set and
// returns the canonical row. The membership read and write happen inside
// one transaction so two near-simultaneous toggles cannot clobber each
// other, and the counter is re-derived from the set on save.
func (d *Dao) NoteVoteToggle(id string, uid string) (*model.Note, error) {
	var n model.Note
	err := d.db.WithContext(d.ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where("id = ?", id).First(&n).Error; err != nil {
			return err
		}

		if n.HasVoter(uid) {
			kept := make([]string, 0, len(n.VotedBy))
			for _, v := range n.VotedBy {
				if v != uid {
					kept = append(kept, v)
				}
			}
			n.VotedBy = kept
		} else {
			n.VotedBy = append(n.VotedBy, uid)
		}
		n.UpdatedAt = timex.Now()

		return tx.Save(&n).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}
