// Package memory holds mutex-guarded in-process implementations of the chat
// stores. State is lost on restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/pollchat/internal/chat"
	"github.com/thereayou/pollchat/internal/services"
)

type user struct {
	id           uuid.UUID
	username     string
	email        string
	passwordHash string
	lastSeen     *time.Time
	typingAt     *time.Time
}

// Directory implements chat.UserDirectory and services.CredentialStore.
type Directory struct {
	presence   chat.Presence
	mu         sync.RWMutex
	users      map[uuid.UUID]*user
	byUsername map[string]uuid.UUID
	byEmail    map[string]uuid.UUID
}

func NewDirectory(presence chat.Presence) *Directory {
	return &Directory{
		presence:   presence,
		users:      make(map[uuid.UUID]*user),
		byUsername: make(map[string]uuid.UUID),
		byEmail:    make(map[string]uuid.UUID),
	}
}

func (d *Directory) Touch(_ context.Context, userID uuid.UUID, now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[userID]
	if !ok {
		return chat.ErrUserNotFound
	}
	u.lastSeen = &now
	return nil
}

func (d *Directory) SetTyping(_ context.Context, userID uuid.UUID, now time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[userID]
	if !ok {
		return chat.ErrUserNotFound
	}
	u.typingAt = &now
	return nil
}

func (d *Directory) ClearPresence(_ context.Context, userID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[userID]
	if !ok {
		return chat.ErrUserNotFound
	}
	u.lastSeen = nil
	u.typingAt = nil
	return nil
}

func (d *Directory) ActiveUsers(_ context.Context, now time.Time) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0)
	for _, u := range d.users {
		if d.presence.Active(u.lastSeen, now) {
			names = append(names, u.username)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (d *Directory) TypingUsers(_ context.Context, now time.Time, excluding uuid.UUID) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0)
	for id, u := range d.users {
		if id != excluding && d.presence.Typing(u.typingAt, now) {
			names = append(names, u.username)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (d *Directory) EvictStale(_ context.Context, now time.Time) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	evicted := 0
	for _, u := range d.users {
		if d.presence.Stale(u.lastSeen, now) {
			u.lastSeen = nil
			evicted++
		}
	}
	return evicted, nil
}

func (d *Directory) EnsureUser(_ context.Context, username string, now time.Time) (uuid.UUID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.byUsername[username]; ok {
		u := d.users[id]
		if u.passwordHash != "" {
			return uuid.Nil, chat.ErrUsernameTaken
		}
		u.lastSeen = &now
		return id, nil
	}

	u := &user{id: uuid.New(), username: username, lastSeen: &now}
	d.users[u.id] = u
	d.byUsername[username] = u.id
	return u.id, nil
}

func (d *Directory) Usernames(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			names[id] = u.username
		}
	}
	return names, nil
}

// CreateUser registers a password account.
func (d *Directory) CreateUser(_ context.Context, username, email, passwordHash string) (uuid.UUID, error) {
	key := strings.ToLower(email)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byUsername[username]; ok {
		return uuid.Nil, chat.ErrUsernameTaken
	}
	if _, ok := d.byEmail[key]; ok {
		return uuid.Nil, services.ErrEmailTaken
	}

	u := &user{id: uuid.New(), username: username, email: email, passwordHash: passwordHash}
	d.users[u.id] = u
	d.byUsername[username] = u.id
	d.byEmail[key] = u.id
	return u.id, nil
}

// FindCredentials looks up a password account by email.
func (d *Directory) FindCredentials(_ context.Context, email string) (services.Credentials, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[strings.ToLower(email)]
	if !ok {
		return services.Credentials{}, chat.ErrUserNotFound
	}
	u := d.users[id]
	return services.Credentials{UserID: u.id, PasswordHash: u.passwordHash}, nil
}
