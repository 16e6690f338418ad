package chat

import "time"

const (
	DefaultStaleAfter   = 5 * time.Minute
	DefaultTypingWindow = 5 * time.Second
)

// Presence holds the windows used to derive liveness from timestamps.
// Nothing about a user's presence is stored as a flag: every query
// recomputes it from (timestamp, now, window).
type Presence struct {
	StaleAfter   time.Duration
	TypingWindow time.Duration
}

// DefaultPresence uses a 5 minute staleness window and a 5 second typing window.
func DefaultPresence() Presence {
	return Presence{StaleAfter: DefaultStaleAfter, TypingWindow: DefaultTypingWindow}
}

// Active reports whether lastSeen is present and strictly inside the
// staleness window. A user seen exactly StaleAfter ago is inactive.
func (p Presence) Active(lastSeen *time.Time, now time.Time) bool {
	return within(lastSeen, now, p.StaleAfter)
}

// Stale reports whether lastSeen is present but has left the window.
func (p Presence) Stale(lastSeen *time.Time, now time.Time) bool {
	return lastSeen != nil && !within(lastSeen, now, p.StaleAfter)
}

// Typing reports whether typingAt is within the typing window.
func (p Presence) Typing(typingAt *time.Time, now time.Time) bool {
	return within(typingAt, now, p.TypingWindow)
}

// ActiveCutoff is the instant a lastSeen must be strictly after to count as active.
func (p Presence) ActiveCutoff(now time.Time) time.Time {
	return now.Add(-p.StaleAfter)
}

// TypingCutoff is the instant a typingAt must be strictly after to count as typing.
func (p Presence) TypingCutoff(now time.Time) time.Time {
	return now.Add(-p.TypingWindow)
}

func within(ts *time.Time, now time.Time, window time.Duration) bool {
	if ts == nil {
		return false
	}
	return now.Sub(*ts) < window
}
