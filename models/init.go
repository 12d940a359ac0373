package models

import "gorm.io/gorm"

// Migrate runs AutoMigrate for every engine model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Contact{},
		&Sequence{},
		&Message{},
		&EmailReply{},
		&Mailbox{},
	)
}
