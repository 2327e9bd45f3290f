package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/accountdesk/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestStore_CreateStartsClean(t *testing.T) {
	store := NewStore(time.Minute)

	s, err := store.Create()
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Len(t, s.CSRFToken, 64)
	assert.False(t, s.Authenticated())
	assert.Equal(t, 0, s.Auth.FailedCount)
	assert.Nil(t, s.Auth.LockoutExpiry)
	assert.Equal(t, models.LookupNoQuery, s.Lookup.Status)

	other, err := store.Create()
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, other.ID)
	assert.NotEqual(t, s.CSRFToken, other.CSRFToken)
}

func TestStore_GetTouchesSession(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 7, 26, 9, 0, 0, 0, time.UTC)}
	store := NewStore(10 * time.Minute).WithClock(clock.Now)

	s, err := store.Create()
	require.NoError(t, err)

	clock.Advance(8 * time.Minute)
	_, ok := store.Get(s.ID)
	require.True(t, ok)

	clock.Advance(8 * time.Minute)
	got, ok := store.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestStore_IdleSessionsExpire(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 7, 26, 9, 0, 0, 0, time.UTC)}
	store := NewStore(10 * time.Minute).WithClock(clock.Now)

	s, err := store.Create()
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	_, ok := store.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStore_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 7, 26, 9, 0, 0, 0, time.UTC)}
	store := NewStore(10 * time.Minute).WithClock(clock.Now)

	stale, err := store.Create()
	require.NoError(t, err)
	clock.Advance(6 * time.Minute)
	fresh, err := store.Create()
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)

	assert.Equal(t, 1, store.Sweep())

	_, ok := store.Get(stale.ID)
	assert.False(t, ok)
	_, ok = store.Get(fresh.ID)
	assert.True(t, ok)
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(time.Minute)
	s, err := store.Create()
	require.NoError(t, err)

	store.Delete(s.ID)
	_, ok := store.Get(s.ID)
	assert.False(t, ok)
}

func TestSession_SignInResetsState(t *testing.T) {
	store := NewStore(time.Minute)
	s, err := store.Create()
	require.NoError(t, err)

	expiry := time.Now().Add(time.Minute)
	s.Auth = models.AuthAttemptState{FailedCount: 3, LockoutExpiry: &expiry}
	s.Lookup = models.LookupSessionState{Status: models.LookupFound, LastSubmittedKey: "1275583"}

	s.SignIn(&models.AuthenticatedSession{Email: "ana@example.com", LoginCount: 4})

	assert.True(t, s.Authenticated())
	assert.Equal(t, 0, s.Auth.FailedCount)
	assert.Nil(t, s.Auth.LockoutExpiry)
	assert.Equal(t, models.LookupNoQuery, s.Lookup.Status)
	assert.Empty(t, s.Lookup.LastSubmittedKey)
}

func TestStore_MaxSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 7, 26, 9, 0, 0, 0, time.UTC)}
	store := NewStore(10 * time.Minute).WithClock(clock.Now).WithMaxSessions(2)

	_, err := store.Create()
	require.NoError(t, err)
	_, err = store.Create()
	require.NoError(t, err)

	_, err = store.Create()
	assert.ErrorIs(t, err, ErrSessionLimit)
	assert.Equal(t, 2, store.Len())

	// idle sessions are reclaimed to make room
	clock.Advance(10 * time.Minute)
	_, err = store.Create()
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}
