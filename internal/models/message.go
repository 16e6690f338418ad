package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Content     string    `gorm:"not null"`
	IsFormatted bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time
	EditedAt    *time.Time

	User User `gorm:"foreignKey:UserID"`
}
