package model

import (
	"github.com/karkow/idea-board/pkg/timex"

	"gorm.io/gorm"
)

// Note categories accepted by the board.
const (
	CategoryWebApps      = "web-apps"
	CategoryAutomation   = "automation"
	CategoryDataAnalysis = "data-analysis"
	CategoryOther        = "other"
)

// ValidCategory reports whether c is one of the known note categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryWebApps, CategoryAutomation, CategoryDataAnalysis, CategoryOther:
		return true
	}
	return false
}

// Note is a sticky note row. VotedBy is the authoritative vote record;
// Votes is a derived cache re-computed on every write (see BeforeSave).
type Note struct {
	ID            string     `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	Content       string     `gorm:"column:content;type:text" json:"content"`
	PositionX     float64    `gorm:"column:position_x" json:"positionX"`
	PositionY     float64    `gorm:"column:position_y" json:"positionY"`
	Color         string     `gorm:"column:color;type:varchar(32)" json:"color"`
	Category      string     `gorm:"column:category;type:varchar(32);index" json:"category"`
	Votes         int64      `gorm:"column:votes" json:"votes"`
	VotedBy       []string   `gorm:"column:voted_by;serializer:json" json:"votedBy"`
	CreatedBy     string     `gorm:"column:created_by;type:varchar(36);index" json:"createdBy"`
	CreatedByName string     `gorm:"column:created_by_name;type:varchar(64)" json:"createdByName"`
	CreatedAt     timex.Time `gorm:"column:created_at;index" json:"createdAt"`
	UpdatedAt     timex.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Note) TableName() string {
	return "note"
}

// BeforeSave re-derives the vote counter from the membership set on every
// insert and update, the write-time trigger of the schema. The counter is
// never trusted from the caller.
func (n *Note) BeforeSave(tx *gorm.DB) error {
	n.Votes = int64(len(n.VotedBy))
	return nil
}

// HasVoter reports whether uid is in the voter set.
func (n *Note) HasVoter(uid string) bool {
	for _, v := range n.VotedBy {
		if v == uid {
			return true
		}
	}
	return false
}
