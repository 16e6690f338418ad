package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserDirectory owns user identity and liveness state. Implementations must
// apply every method atomically with respect to the others.
type UserDirectory interface {
	// Touch sets lastSeen to now.
	Touch(ctx context.Context, userID uuid.UUID, now time.Time) error
	// SetTyping sets typingAt to now.
	SetTyping(ctx context.Context, userID uuid.UUID, now time.Time) error
	// ClearPresence clears lastSeen and typingAt, keeping the record.
	ClearPresence(ctx context.Context, userID uuid.UUID) error
	// ActiveUsers returns the usernames whose lastSeen is inside the staleness window.
	ActiveUsers(ctx context.Context, now time.Time) ([]string, error)
	// TypingUsers returns the usernames typing within the typing window, minus excluding.
	TypingUsers(ctx context.Context, now time.Time, excluding uuid.UUID) ([]string, error)
	// EvictStale clears every lastSeen that has left the staleness window and
	// reports how many were cleared.
	EvictStale(ctx context.Context, now time.Time) (int, error)
	// EnsureUser returns the id for username, creating a guest record on first
	// login, and touches it.
	EnsureUser(ctx context.Context, username string, now time.Time) (uuid.UUID, error)
	// Usernames resolves author ids; unknown ids are absent from the result.
	Usernames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}
