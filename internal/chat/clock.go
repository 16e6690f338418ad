package chat

import "time"

// Clock supplies wall-clock timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reports the current time in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })
