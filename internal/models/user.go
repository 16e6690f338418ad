package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        *string   `gorm:"uniqueIndex"`
	PasswordHash string
	LastSeenAt   *time.Time `gorm:"index"`
	TypingAt     *time.Time
	CreatedAt    time.Time
}

// Guest reports whether the user was created by username-only login.
func (u *User) Guest() bool {
	return u.PasswordHash == ""
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
