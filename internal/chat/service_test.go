package chat_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/pollchat/internal/chat"
	"github.com/thereayou/pollchat/internal/memory"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *chat.Service
	users    *memory.Directory
	messages *memory.MessageLog
	observer *countingObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := memory.NewDirectory(chat.DefaultPresence())
	messages := memory.NewMessageLog()
	observer := &countingObserver{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		svc:      chat.NewService(log, users, messages, chat.WithObserver(observer)),
		users:    users,
		messages: messages,
		observer: observer,
	}
}

func (f *fixture) join(t *testing.T, name string, at time.Time) uuid.UUID {
	t.Helper()
	id, err := f.svc.JoinAsGuest(context.Background(), name, at)
	require.NoError(t, err)
	return id
}

type countingObserver struct {
	mu      sync.Mutex
	posted  int
	polls   int
	evicted int
}

func (o *countingObserver) MessagePosted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.posted++
}

func (o *countingObserver) PollServed(int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.polls++
}

func (o *countingObserver) PresenceEvicted(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evicted += n
}

// directorySpy records Touch calls and delegates everything else.
type directorySpy struct {
	chat.UserDirectory
	touches []uuid.UUID
}

func (d *directorySpy) Touch(ctx context.Context, id uuid.UUID, now time.Time) error {
	d.touches = append(d.touches, id)
	return d.UserDirectory.Touch(ctx, id, now)
}

type failingLog struct {
	chat.MessageLog
	err error
}

func (l failingLog) Append(context.Context, uuid.UUID, string, bool, time.Time) (chat.MessageID, error) {
	return 0, l.err
}

// ---------------------------------------------------------------------------
// PostMessage
// ---------------------------------------------------------------------------

func TestService_PostMessage_AppendsAndTouches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.join(t, "alice", t0)

	// Let alice go stale, then post: the post alone must make her active again.
	later := t0.Add(10 * time.Minute)
	id, err := f.svc.PostMessage(ctx, alice, "  hi  ", false, later)
	require.NoError(t, err)
	assert.Equal(t, chat.MessageID(1), id)

	active, err := f.users.ActiveUsers(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, active)

	recent, err := f.messages.Recent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "hi", recent[0].Content)
	assert.Equal(t, 1, f.observer.posted)
}

func TestService_PostMessage_BlankAppendsNothingAndDoesNotTouch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.join(t, "alice", t0)

	spy := &directorySpy{UserDirectory: f.users}
	svc := chat.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), spy, f.messages)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.PostMessage(ctx, alice, content, false, t0.Add(time.Second))
		require.ErrorIs(t, err, chat.ErrEmptyContent)
	}

	recent, err := f.messages.Recent(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, recent)
	assert.Empty(t, spy.touches)
}

func TestService_PostMessage_StorageFailureSkipsTouch(t *testing.T) {
	users := memory.NewDirectory(chat.DefaultPresence())
	spy := &directorySpy{UserDirectory: users}
	storageErr := chat.NewStorageError("append message", fmt.Errorf("disk full"))
	svc := chat.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), spy, failingLog{err: storageErr})

	_, err := svc.PostMessage(context.Background(), uuid.New(), "hello", false, t0)

	require.ErrorIs(t, err, chat.ErrStorage)
	assert.Empty(t, spy.touches)
}

// ---------------------------------------------------------------------------
// PollState
// ---------------------------------------------------------------------------

func TestService_PollState_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.join(t, "alice", t0)
	_, err := f.svc.PostMessage(ctx, alice, "hi", false, t0)
	require.NoError(t, err)

	recent, err := f.messages.Recent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	bob := f.join(t, "bob", t0.Add(500*time.Millisecond))
	snap, err := f.svc.PollState(ctx, bob, t0.Add(time.Second))
	require.NoError(t, err)

	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "hi", snap.Messages[0].Content)
	assert.Equal(t, "alice", snap.Messages[0].Username)
	assert.False(t, snap.Messages[0].Edited())
	assert.ElementsMatch(t, []string{"alice", "bob"}, snap.ActiveUsers)

	require.NoError(t, f.svc.EditMessage(ctx, snap.Messages[0].ID, alice, "hi all", t0.Add(2*time.Second)))

	snap, err = f.svc.PollState(ctx, bob, t0.Add(3*time.Second))
	require.NoError(t, err)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "hi all", snap.Messages[0].Content)
	assert.True(t, snap.Messages[0].Edited())
}

func TestService_PollState_SelfInclusionEvenWhenStale(t *testing.T) {
	f := newFixture(t)
	alice := f.join(t, "alice", t0)

	snap, err := f.svc.PollState(context.Background(), alice, t0.Add(time.Hour))

	require.NoError(t, err)
	assert.Contains(t, snap.ActiveUsers, "alice")
}

func TestService_PollState_StalenessBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.join(t, "alice", t0)
	bob := f.join(t, "bob", t0)

	snap, err := f.svc.PollState(ctx, bob, t0.Add(5*time.Minute-time.Second))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, snap.ActiveUsers)

	snap, err = f.svc.PollState(ctx, bob, t0.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, snap.ActiveUsers)
	assert.Equal(t, 1, f.observer.evicted)
}

func TestService_PollState_TypingExcludesRequesterAndDecays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.join(t, "alice", t0)
	bob := f.join(t, "bob", t0)

	require.NoError(t, f.svc.SetTyping(ctx, alice, t0))
	require.NoError(t, f.svc.SetTyping(ctx, bob, t0))

	snap, err := f.svc.PollState(ctx, bob, t0.Add(4*time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, snap.TypingUsers)

	typing, err := f.svc.TypingUsers(ctx, alice, t0.Add(4*time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, typing)

	typing, err = f.svc.TypingUsers(ctx, alice, t0.Add(5*time.Second))
	require.NoError(t, err)
	assert.Empty(t, typing)
}

func TestService_PollState_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PollState(context.Background(), uuid.New(), t0)

	require.ErrorIs(t, err, chat.ErrUserNotFound)
	assert.Zero(t, f.observer.polls)
}

func TestService_PollState_RespectsRecentLimit(t *testing.T) {
	users := memory.NewDirectory(chat.DefaultPresence())
	messages := memory.NewMessageLog()
	svc := chat.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), users, messages, chat.WithRecentLimit(3))
	ctx := context.Background()

	alice, err := svc.JoinAsGuest(ctx, "alice", t0)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := svc.PostMessage(ctx, alice, fmt.Sprintf("m%d", i), false, t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	snap, err := svc.PollState(ctx, alice, t0.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, "m2", snap.Messages[0].Content)
	assert.Equal(t, "m4", snap.Messages[2].Content)
}

// ---------------------------------------------------------------------------
// Edit / Delete / Leave
// ---------------------------------------------------------------------------

func TestService_EditAndDelete_OnlyAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.join(t, "alice", t0)
	bob := f.join(t, "bob", t0)

	id, err := f.svc.PostMessage(ctx, alice, "original", false, t0)
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.EditMessage(ctx, id, bob, "hijack", t0), chat.ErrForbidden)
	require.ErrorIs(t, f.svc.DeleteMessage(ctx, id, bob, t0), chat.ErrForbidden)

	recent, err := f.messages.Recent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "original", recent[0].Content)
	assert.Nil(t, recent[0].EditedAt)

	require.NoError(t, f.svc.DeleteMessage(ctx, id, alice, t0))
	require.ErrorIs(t, f.svc.DeleteMessage(ctx, id, alice, t0), chat.ErrMessageNotFound)
}

func TestService_Leave_KeepsRecordClearsPresence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.join(t, "alice", t0)
	_, err := f.svc.PostMessage(ctx, alice, "bye", false, t0)
	require.NoError(t, err)

	require.NoError(t, f.svc.Leave(ctx, alice))

	active, err := f.users.ActiveUsers(ctx, t0)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Messages still resolve to the username and re-login keeps the same id.
	names, err := f.users.Usernames(ctx, []uuid.UUID{alice})
	require.NoError(t, err)
	assert.Equal(t, "alice", names[alice])

	again := f.join(t, "alice", t0.Add(time.Minute))
	assert.Equal(t, alice, again)
}

func TestService_JoinAsGuest_BlankUsername(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.JoinAsGuest(context.Background(), "   ", t0)

	require.ErrorIs(t, err, chat.ErrEmptyUsername)
}

func TestService_JoinAsGuest_UsernameLength(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.JoinAsGuest(ctx, "a", t0)
	require.ErrorIs(t, err, chat.ErrInvalidUsername)
	_, err = f.svc.JoinAsGuest(ctx, "abcdefghijklmnopqrstu", t0)
	require.ErrorIs(t, err, chat.ErrInvalidUsername)

	active, err := f.users.ActiveUsers(ctx, t0)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = f.svc.JoinAsGuest(ctx, "  ab  ", t0)
	require.NoError(t, err)
	active, err = f.users.ActiveUsers(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, []string{"ab"}, active)
}

func TestService_ConcurrentPostsAndPolls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const writers = 8
	const perWriter = 20
	ids := make([]uuid.UUID, writers)
	for i := range ids {
		ids[i] = f.join(t, fmt.Sprintf("user%d", i), t0)
	}

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(user uuid.UUID) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_, err := f.svc.PostMessage(ctx, user, "msg", false, t0.Add(time.Second))
				assert.NoError(t, err)
				snap, err := f.svc.PollState(ctx, user, t0.Add(time.Second))
				assert.NoError(t, err)
				assert.LessOrEqual(t, len(snap.Messages), chat.DefaultRecentLimit)
			}
		}(ids[i])
	}
	wg.Wait()

	recent, err := f.messages.Recent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, recent, 50)
	for i := 1; i < len(recent); i++ {
		assert.Less(t, recent[i-1].ID, recent[i].ID)
	}
	assert.Equal(t, chat.MessageID(writers*perWriter), recent[len(recent)-1].ID)
	assert.Equal(t, writers*perWriter, f.observer.posted)
}
