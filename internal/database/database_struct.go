package database

import (
	"github.com/thereayou/pollchat/internal/chat"
	"gorm.io/gorm"
)

// Database is the gorm-backed row store. It implements chat.UserDirectory,
// chat.MessageLog and services.CredentialStore.
type Database struct {
	db       *gorm.DB
	presence chat.Presence
}

func NewDatabase(db *gorm.DB, presence chat.Presence) *Database {
	return &Database{db: db, presence: presence}
}
