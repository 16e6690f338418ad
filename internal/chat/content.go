package chat

import (
	"strings"
	"unicode/utf8"
)

// Login names are 2 to 20 characters, the same bounds registration enforces.
const (
	MinUsernameLen = 2
	MaxUsernameLen = 20
)

// NormalizeContent trims surrounding whitespace and rejects blank content.
// It is pure and runs before any mutation.
func NormalizeContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyContent
	}
	return trimmed, nil
}

// NormalizeUsername trims a login name and checks its length in characters.
func NormalizeUsername(username string) (string, error) {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return "", ErrEmptyUsername
	}
	if n := utf8.RuneCountInString(trimmed); n < MinUsernameLen || n > MaxUsernameLen {
		return "", ErrInvalidUsername
	}
	return trimmed, nil
}
