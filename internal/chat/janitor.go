package chat

import (
	"context"
	"time"
)

// PresenceJanitor retires stale presence entries. It runs synchronously on
// every poll, so each poll costs a full scan of the presence table; that is
// fine for rosters of tens to low hundreds of users.
type PresenceJanitor struct {
	users UserDirectory
}

func NewPresenceJanitor(users UserDirectory) *PresenceJanitor {
	return &PresenceJanitor{users: users}
}

func (j *PresenceJanitor) Sweep(ctx context.Context, now time.Time) (int, error) {
	return j.users.EvictStale(ctx, now)
}
