package model

import (
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB, key string) error {
	switch key {

	case "User":
		return db.AutoMigrate(User{})

	case "Section":
		return db.AutoMigrate(Section{})

	case "SectionVersion":
		return db.AutoMigrate(SectionVersion{})

	case "Comment":
		return db.AutoMigrate(Comment{})
	}
	return nil
}
