package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const unknownUsername = "unknown"

// Observer receives counters about the service; metrics.Metrics implements it.
type Observer interface {
	MessagePosted()
	PollServed(activeUsers int)
	PresenceEvicted(n int)
}

type nopObserver struct{}

func (nopObserver) MessagePosted() {}
func (nopObserver) PollServed(int) {}
func (nopObserver) PresenceEvicted(int) {}

// FeedItem is a message with its author's username resolved at read time.
type FeedItem struct {
	Message
	Username string
}

// Snapshot is the composed result of one poll.
type Snapshot struct {
	Messages    []FeedItem
	ActiveUsers []string
	TypingUsers []string
}

// Service orchestrates the user directory, the message log and the janitor
// behind the operations clients need.
type Service struct {
	users    UserDirectory
	messages MessageLog
	janitor  *PresenceJanitor
	observer Observer
	log      *slog.Logger
	limit    int
}

type Option func(*Service)

// WithObserver reports service activity to o.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithRecentLimit sets the poll window size, clamped to 1..MaxRecentLimit.
func WithRecentLimit(limit int) Option {
	return func(s *Service) { s.limit = ClampLimit(limit) }
}

func NewService(log *slog.Logger, users UserDirectory, messages MessageLog, opts ...Option) *Service {
	s := &Service{
		users:    users,
		messages: messages,
		janitor:  NewPresenceJanitor(users),
		observer: nopObserver{},
		log:      log,
		limit:    DefaultRecentLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PostMessage appends the message, then refreshes the author's liveness.
// If the append fails the author is not touched.
func (s *Service) PostMessage(ctx context.Context, userID uuid.UUID, content string, formatted bool, now time.Time) (MessageID, error) {
	id, err := s.messages.Append(ctx, userID, content, formatted, now)
	if err != nil {
		return 0, err
	}
	s.observer.MessagePosted()

	// The message is already stored; a failed touch only delays presence.
	if err := s.users.Touch(ctx, userID, now); err != nil {
		s.log.Warn("touch after post failed", "user_id", userID, "message_id", id, "error", err)
	}
	return id, nil
}

// PollState touches the caller, sweeps stale presence and reads the feed.
// The order matters: sweeping before reading the active set keeps stale users
// out of the snapshot, and touching first keeps the caller in it.
func (s *Service) PollState(ctx context.Context, userID uuid.UUID, now time.Time) (Snapshot, error) {
	if err := s.users.Touch(ctx, userID, now); err != nil {
		return Snapshot{}, err
	}

	evicted, err := s.janitor.Sweep(ctx, now)
	if err != nil {
		return Snapshot{}, err
	}
	if evicted > 0 {
		s.log.Debug("evicted stale presence", "count", evicted)
		s.observer.PresenceEvicted(evicted)
	}

	messages, err := s.messages.Recent(ctx, s.limit)
	if err != nil {
		return Snapshot{}, err
	}
	feed, err := s.resolve(ctx, messages)
	if err != nil {
		return Snapshot{}, err
	}

	active, err := s.users.ActiveUsers(ctx, now)
	if err != nil {
		return Snapshot{}, err
	}
	typing, err := s.users.TypingUsers(ctx, now, userID)
	if err != nil {
		return Snapshot{}, err
	}

	s.observer.PollServed(len(active))
	return Snapshot{Messages: feed, ActiveUsers: active, TypingUsers: typing}, nil
}

func (s *Service) SetTyping(ctx context.Context, userID uuid.UUID, now time.Time) error {
	return s.users.SetTyping(ctx, userID, now)
}

// TypingUsers lists who is typing, excluding the requester.
func (s *Service) TypingUsers(ctx context.Context, userID uuid.UUID, now time.Time) ([]string, error) {
	return s.users.TypingUsers(ctx, now, userID)
}

func (s *Service) EditMessage(ctx context.Context, id MessageID, userID uuid.UUID, content string, now time.Time) error {
	if err := s.messages.Edit(ctx, id, userID, content, now); err != nil {
		return err
	}
	if err := s.users.Touch(ctx, userID, now); err != nil {
		s.log.Warn("touch after edit failed", "user_id", userID, "message_id", id, "error", err)
	}
	return nil
}

func (s *Service) DeleteMessage(ctx context.Context, id MessageID, userID uuid.UUID, now time.Time) error {
	if err := s.messages.Delete(ctx, id, userID); err != nil {
		return err
	}
	if err := s.users.Touch(ctx, userID, now); err != nil {
		s.log.Warn("touch after delete failed", "user_id", userID, "message_id", id, "error", err)
	}
	return nil
}

// Join marks a freshly authenticated user as present.
func (s *Service) Join(ctx context.Context, userID uuid.UUID, now time.Time) error {
	return s.users.Touch(ctx, userID, now)
}

// JoinAsGuest logs in by username alone, creating the user on first login.
func (s *Service) JoinAsGuest(ctx context.Context, username string, now time.Time) (uuid.UUID, error) {
	name, err := NormalizeUsername(username)
	if err != nil {
		return uuid.Nil, err
	}
	return s.users.EnsureUser(ctx, name, now)
}

// Leave clears the user's presence. The user record is kept.
func (s *Service) Leave(ctx context.Context, userID uuid.UUID) error {
	return s.users.ClearPresence(ctx, userID)
}

func (s *Service) resolve(ctx context.Context, messages []Message) ([]FeedItem, error) {
	authors := lo.Uniq(lo.Map(messages, func(m Message, _ int) uuid.UUID { return m.AuthorID }))
	names, err := s.users.Usernames(ctx, authors)
	if err != nil {
		return nil, err
	}
	return lo.Map(messages, func(m Message, _ int) FeedItem {
		name, ok := names[m.AuthorID]
		if !ok {
			name = unknownUsername
		}
		return FeedItem{Message: m, Username: name}
	}), nil
}
