// Package model defines the persistent data models.
package model

import (
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "Note":
		return db.AutoMigrate(Note{})
	case "User":
		return db.AutoMigrate(User{})
	case "":
		return db.AutoMigrate(Note{}, User{})
	}
	return nil
}
