package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/thereayou/pollchat/internal/chat"
)

type fakeStore struct {
	mu      sync.Mutex
	byEmail map[string]Credentials
	names   map[string]bool

	FindFunc func(ctx context.Context, email string) (Credentials, error)
}

func newFakeStore() *fakeStore {
	return &fakeStore{byEmail: map[string]Credentials{}, names: map[string]bool{}}
}

func (f *fakeStore) CreateUser(_ context.Context, username, email, hash string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.names[username] {
		return uuid.Nil, chat.ErrUsernameTaken
	}
	if _, ok := f.byEmail[strings.ToLower(email)]; ok {
		return uuid.Nil, ErrEmailTaken
	}
	creds := Credentials{UserID: uuid.New(), PasswordHash: hash}
	f.names[username] = true
	f.byEmail[strings.ToLower(email)] = creds
	return creds.UserID, nil
}

func (f *fakeStore) FindCredentials(ctx context.Context, email string) (Credentials, error) {
	if f.FindFunc != nil {
		return f.FindFunc(ctx, email)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	creds, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return Credentials{}, chat.ErrUserNotFound
	}
	return creds, nil
}

func newTestAuthService(store CredentialStore) AuthService {
	svc := NewAuthService(store)
	svc.(*authService).cost = bcrypt.MinCost
	return svc
}

func TestAuthService_RegisterThenVerify(t *testing.T) {
	req := require.New(t)
	store := newFakeStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	id, err := svc.Register(ctx, RegisterRequest{Username: " alice ", Email: "alice@example.com", Password: "secret1"})
	req.NoError(err)
	req.NotEqual(uuid.Nil, id)

	creds, err := store.FindCredentials(ctx, "alice@example.com")
	req.NoError(err)
	req.NotEqual("secret1", creds.PasswordHash)

	got, err := svc.Verify(ctx, LoginRequest{Email: "alice@example.com", Password: "secret1"})
	req.NoError(err)
	req.Equal(id, got)

	_, err = svc.Verify(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong"})
	req.ErrorIs(err, ErrInvalidCredentials)

	_, err = svc.Verify(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	req.ErrorIs(err, ErrInvalidCredentials)
}

func TestAuthService_RegisterConflicts(t *testing.T) {
	svc := newTestAuthService(newFakeStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Username: "alice", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, chat.ErrUsernameTaken)

	_, err = svc.Register(ctx, RegisterRequest{Username: "alice2", Email: "alice@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := newTestAuthService(newFakeStore())

	tests := []struct {
		name string
		req  RegisterRequest
		want string
	}{
		{"short username", RegisterRequest{Username: "a", Email: "a@example.com", Password: "secret1"}, "username failed min"},
		{"long username", RegisterRequest{Username: strings.Repeat("a", 21), Email: "a@example.com", Password: "secret1"}, "username failed max"},
		{"bad email", RegisterRequest{Username: "alice", Email: "not-an-email", Password: "secret1"}, "email failed email"},
		{"short password", RegisterRequest{Username: "alice", Email: "a@example.com", Password: "12345"}, "password failed min"},
		{"blank username", RegisterRequest{Username: "   ", Email: "a@example.com", Password: "secret1"}, "username failed required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrInvalidRegistration)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	v := validator.New()
	assert.NoError(t, ValidateRegistration(v, RegisterRequest{Username: "al", Email: "al@example.com", Password: "secret"}))
	assert.ErrorIs(t, ValidateRegistration(v, RegisterRequest{}), ErrInvalidRegistration)
}

func TestAuthService_VerifyGuestAndStorageErrors(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	store.FindFunc = func(context.Context, string) (Credentials, error) {
		return Credentials{UserID: uuid.New()}, nil
	}
	_, err := svc.Verify(ctx, LoginRequest{Email: "guest@example.com", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	boom := errors.New("boom")
	store.FindFunc = func(context.Context, string) (Credentials, error) {
		return Credentials{}, chat.NewStorageError("find credentials", boom)
	}
	_, err = svc.Verify(ctx, LoginRequest{Email: "a@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, chat.ErrStorage)
	assert.ErrorIs(t, err, boom)
}
