package models

import (
	"log"

	"clinic-chat/config"
)

// Migrate 自动迁移所有表
func Migrate() {
	if err := config.DB.AutoMigrate(
		&User{},
		&Conversation{},
		&Message{},
		&ChatSession{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}
