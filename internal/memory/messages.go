package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/pollchat/internal/chat"
)

// MessageLog implements chat.MessageLog over a slice kept in id order.
type MessageLog struct {
	mu       sync.RWMutex
	messages []chat.Message
	nextID   chat.MessageID
	lastAt   time.Time
}

func NewMessageLog() *MessageLog {
	return &MessageLog{nextID: 1}
}

func (l *MessageLog) Append(_ context.Context, authorID uuid.UUID, content string, formatted bool, now time.Time) (chat.MessageID, error) {
	content, err := chat.NormalizeContent(content)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Keep timestamp order in step with id order when callers race.
	if now.Before(l.lastAt) {
		now = l.lastAt
	}

	msg := chat.Message{
		ID:          l.nextID,
		AuthorID:    authorID,
		Content:     content,
		CreatedAt:   now,
		IsFormatted: formatted,
	}
	l.messages = append(l.messages, msg)
	l.nextID++
	l.lastAt = now
	return msg.ID, nil
}

func (l *MessageLog) Edit(_ context.Context, id chat.MessageID, authorID uuid.UUID, content string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, err := l.authorize(id, authorID)
	if err != nil {
		return err
	}
	content, err = chat.NormalizeContent(content)
	if err != nil {
		return err
	}

	l.messages[i].Content = content
	l.messages[i].EditedAt = &now
	return nil
}

func (l *MessageLog) Delete(_ context.Context, id chat.MessageID, authorID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, err := l.authorize(id, authorID)
	if err != nil {
		return err
	}
	l.messages = append(l.messages[:i], l.messages[i+1:]...)
	return nil
}

func (l *MessageLog) Recent(_ context.Context, limit int) ([]chat.Message, error) {
	limit = chat.ClampLimit(limit)

	l.mu.RLock()
	defer l.mu.RUnlock()

	// Walk newest-first to bound the window, then fill the result from the
	// back so it comes out oldest first.
	n := min(limit, len(l.messages))
	out := make([]chat.Message, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = l.messages[len(l.messages)-1-i]
	}
	return out, nil
}

// authorize finds the message index and checks ownership. Callers hold mu.
func (l *MessageLog) authorize(id chat.MessageID, authorID uuid.UUID) (int, error) {
	i, ok := l.find(id)
	if !ok {
		return 0, chat.ErrMessageNotFound
	}
	if l.messages[i].AuthorID != authorID {
		return 0, chat.ErrForbidden
	}
	return i, nil
}

// find relies on messages staying sorted by id: ids only grow and deletion
// preserves order.
func (l *MessageLog) find(id chat.MessageID) (int, bool) {
	return slices.BinarySearchFunc(l.messages, id, func(m chat.Message, target chat.MessageID) int {
		return cmp.Compare(m.ID, target)
	})
}
