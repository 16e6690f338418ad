package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 50
)

type MessageID uint64

// Message is a stored chat message. It never carries author data by value.
type Message struct {
	ID          MessageID
	AuthorID    uuid.UUID
	Content     string
	CreatedAt   time.Time
	EditedAt    *time.Time
	IsFormatted bool
}

func (m Message) Edited() bool { return m.EditedAt != nil }

// MessageLog is the append-only ordered message store. Edit and Delete are
// restricted to the author.
type MessageLog interface {
	Append(ctx context.Context, authorID uuid.UUID, content string, formatted bool, now time.Time) (MessageID, error)
	Edit(ctx context.Context, id MessageID, authorID uuid.UUID, content string, now time.Time) error
	Delete(ctx context.Context, id MessageID, authorID uuid.UUID) error
	// Recent returns at most limit of the newest messages, oldest first.
	Recent(ctx context.Context, limit int) ([]Message, error)
}

// ClampLimit maps a requested window size onto 1..MaxRecentLimit; anything
// outside that range falls back to DefaultRecentLimit.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxRecentLimit {
		return DefaultRecentLimit
	}
	return limit
}
