package model

import (
	"github.com/karkow/idea-board/pkg/timex"
)

// User is a board account row.
type User struct {
	UID       int64      `gorm:"column:uid;primaryKey;autoIncrement" json:"uid"`
	Email     string     `gorm:"column:email;type:varchar(128);uniqueIndex" json:"email"`
	Password  string     `gorm:"column:password;type:varchar(128)" json:"-"`
	Nickname  string     `gorm:"column:nickname;type:varchar(64)" json:"nickname"`
	Avatar    string     `gorm:"column:avatar;type:varchar(255)" json:"avatar"`
	CreatedAt timex.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt timex.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (User) TableName() string {
	return "user"
}
