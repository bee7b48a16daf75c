package dao

import (
	"github.com/karkow/idea-board/internal/model"
	"github.com/karkow/idea-board/pkg/timex"
)

// UserCreate inserts an account row and returns it with the assigned uid.
func (d *Dao) UserCreate(u *model.User) (*model.User, error) {
	u.CreatedAt = timex.Now()
	u.UpdatedAt = timex.Now()
	if err := d.db.WithContext(d.ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// UserGetByEmail looks an account up by its login email.
func (d *Dao) UserGetByEmail(email string) (*model.User, error) {
	var u model.User
	err := d.db.WithContext(d.ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserGetByUID looks an account up by id.
func (d *Dao) UserGetByUID(uid int64) (*model.User, error) {
	var u model.User
	err := d.db.WithContext(d.ctx).Where("uid = ?", uid).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}
