package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/accountdesk/internal/models"
)

const (
	member = "ana.quispe@example.com"
	secret = "Negociacion-2025"
)

func newClock() *testClock {
	return &testClock{now: time.Date(2025, 7, 26, 9, 0, 0, 0, time.UTC)}
}

func TestAttempt_Success(t *testing.T) {
	store := &MockCredentialStore{IsActiveMemberFunc: allowList(member)}
	clock := newClock()
	svc := newTestAuthService(store, staticVerifier{secret}, clock)
	state := &models.AuthAttemptState{FailedCount: 2}
	meta := models.ClientMeta{IPAddress: "10.1.2.3", UserAgent: "Mozilla/5.0", SessionID: "sess-1"}

	got, err := svc.Attempt(context.Background(), state, "Ana.Quispe@Example.com ", secret, meta)
	require.NoError(t, err)

	assert.Equal(t, member, got.Email)
	assert.Equal(t, int64(1), got.LoginCount)
	assert.Equal(t, clock.now, got.AuthenticatedAt)

	assert.Equal(t, 0, state.FailedCount)
	assert.Nil(t, state.LockoutExpiry)

	require.Len(t, store.Audits, 1)
	assert.Equal(t, member, store.Audits[0].Email)
	assert.Equal(t, "10.1.2.3", store.Audits[0].ClientMeta["ip_address"])
	assert.Equal(t, "sess-1", store.Audits[0].ClientMeta["session_id"])

	again, err := svc.Attempt(context.Background(), state, member, secret, meta)
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.LoginCount)
}

func TestAttempt_InvalidIdentityNeverReachesStore(t *testing.T) {
	for _, identity := range []string{"", "   ", "ana.quispe", "ana.example.com"} {
		t.Run(identity, func(t *testing.T) {
			store := &MockCredentialStore{IsActiveMemberFunc: allowList(member)}
			svc := newTestAuthService(store, staticVerifier{secret}, newClock())
			state := &models.AuthAttemptState{}

			_, err := svc.Attempt(context.Background(), state, identity, secret, models.ClientMeta{})

			assert.ErrorIs(t, err, models.ErrInvalidInput)
			assert.Equal(t, 0, store.CallCount())
			assert.Equal(t, 0, state.FailedCount)
		})
	}
}

func TestAttempt_NotAllowListed(t *testing.T) {
	store := &MockCredentialStore{IsActiveMemberFunc: allowList(member)}
	svc := newTestAuthService(store, staticVerifier{secret}, newClock())
	state := &models.AuthAttemptState{}

	_, err := svc.Attempt(context.Background(), state, "stranger@example.com", secret, models.ClientMeta{})

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Equal(t, 1, state.FailedCount)
	assert.Empty(t, store.Audits)
	assert.Empty(t, store.Increments)
}

func TestAttempt_NonMembersNeverGetACounter(t *testing.T) {
	store := &MockCredentialStore{IsActiveMemberFunc: allowList(member)}
	clock := newClock()
	svc := newTestAuthService(store, staticVerifier{secret}, clock)

	for i := 0; i < 20; i++ {
		state := &models.AuthAttemptState{}
		_, err := svc.Attempt(context.Background(), state, "outsider@example.com", secret, models.ClientMeta{})
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	}

	assert.NotContains(t, store.Increments, "outsider@example.com")
	assert.Empty(t, store.Audits)
}

func TestAttempt_WrongSecret(t *testing.T) {
	store := &MockCredentialStore{IsActiveMemberFunc: allowList(member)}
	svc := newTestAuthService(store, staticVerifier{secret}, newClock())
	state := &models.AuthAttemptState{}

	_, err := svc.Attempt(context.Background(), state, member, "negociacion-2025", models.ClientMeta{})

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Equal(t, 1, state.FailedCount)
	assert.Empty(t, store.Audits)
	assert.Empty(t, store.Increments)
}

func TestAttempt_LockoutAfterFiveFailures(t *testing.T) {
	store := &MockCredentialStore{IsActiveMemberFunc: allowList(member)}
	clock := newClock()
	svc := newTestAuthService(store, staticVerifier{secret}, clock)
	state := &models.AuthAttemptState{}
	ctx := context.Background()

	reasons := []string{"stranger@example.com", member, member, "stranger@example.com", member}
	for i, identity := range reasons {
		_, err := svc.Attempt(ctx, state, identity, "wrong", models.ClientMeta{})
		require.ErrorIs(t, err, models.ErrUnauthorized, "attempt %d", i+1)
		clock.Advance(time.Second)
	}
	require.NotNil(t, state.LockoutExpiry)
	assert.Equal(t, time.Date(2025, 7, 26, 9, 0, 34, 0, time.UTC), *state.LockoutExpiry)

	callsBefore := store.CallCount()

	_, err := svc.Attempt(ctx, state, member, secret, models.ClientMeta{})
	var locked *models.LockedError
	require.True(t, errors.As(err, &locked))
	assert.ErrorIs(t, err, models.ErrLocked)
	assert.Equal(t, 29, locked.RemainingSeconds())
	assert.Equal(t, callsBefore, store.CallCount(), "locked attempts must not reach the store")

	clock.Advance(28*time.Second + 500*time.Millisecond)
	_, err = svc.Attempt(ctx, state, member, secret, models.ClientMeta{})
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, 1, locked.RemainingSeconds())
	assert.Equal(t, callsBefore, store.CallCount())

	clock.Advance(500 * time.Millisecond)
	got, err := svc.Attempt(ctx, state, member, secret, models.ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LoginCount)
	assert.Greater(t, store.CallCount(), callsBefore)
}

func TestAttempt_ExpiredLockoutStartsFreshWindow(t *testing.T) {
	store := &MockCredentialStore{IsActiveMemberFunc: allowList(member)}
	clock := newClock()
	svc := newTestAuthService(store, staticVerifier{secret}, clock)
	state := &models.AuthAttemptState{}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = svc.Attempt(ctx, state, member, "wrong", models.ClientMeta{})
	}
	require.NotNil(t, state.LockoutExpiry)

	clock.Advance(31 * time.Second)
	_, err := svc.Attempt(ctx, state, member, "wrong", models.ClientMeta{})

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Equal(t, 1, state.FailedCount)
	assert.Nil(t, state.LockoutExpiry)
}

func TestAttempt_StoreErrorsLeaveStateUnchanged(t *testing.T) {
	storeErr := models.NewStoreError("check allow-list", errors.New("connection refused"))

	tests := []struct {
		name  string
		store *MockCredentialStore
	}{
		{
			name: "allow-list unreachable",
			store: &MockCredentialStore{IsActiveMemberFunc: func(ctx context.Context, identity string) (bool, error) {
				return false, storeErr
			}},
		},
		{
			name: "audit append fails",
			store: &MockCredentialStore{
				IsActiveMemberFunc: allowList(member),
				AppendAuditFunc: func(ctx context.Context, record *models.AuditRecord) error {
					return storeErr
				},
			},
		},
		{
			name: "counter upsert fails",
			store: &MockCredentialStore{
				IsActiveMemberFunc: allowList(member),
				IncrementLoginCountFunc: func(ctx context.Context, identity string) (int64, error) {
					return 0, storeErr
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(tt.store, staticVerifier{secret}, newClock())
			state := &models.AuthAttemptState{FailedCount: 2}

			got, err := svc.Attempt(context.Background(), state, member, secret, models.ClientMeta{})

			assert.Nil(t, got)
			assert.ErrorIs(t, err, models.ErrStore)
			assert.Contains(t, err.Error(), "connection refused")
			assert.Equal(t, 2, state.FailedCount)
		})
	}
}

func TestAttempt_AuditFailureSkipsCounter(t *testing.T) {
	store := &MockCredentialStore{
		IsActiveMemberFunc: allowList(member),
		AppendAuditFunc: func(ctx context.Context, record *models.AuditRecord) error {
			return models.NewStoreError("append audit record", errors.New("relation does not exist"))
		},
	}
	svc := newTestAuthService(store, staticVerifier{secret}, newClock())

	_, err := svc.Attempt(context.Background(), &models.AuthAttemptState{}, member, secret, models.ClientMeta{})

	assert.ErrorIs(t, err, models.ErrStore)
	assert.Empty(t, store.Increments)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(models.ErrInvalidIdentity))
	assert.True(t, IsClientError(models.ErrUnauthorized))
	assert.True(t, IsClientError(&models.LockedError{Remaining: time.Second}))
	assert.False(t, IsClientError(models.NewStoreError("op", errors.New("boom"))))
}

func TestAttempt_FailuresTakeTheSameTime(t *testing.T) {
	tests := []struct {
		name    string
		cost    time.Duration
		padding time.Duration
	}{
		{"padding dominates", 30 * time.Millisecond, 120 * time.Millisecond},
		{"verifier dominates", 120 * time.Millisecond, 30 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockCredentialStore{IsActiveMemberFunc: allowList(member)}
			verifier := &slowVerifier{secret: secret, cost: tt.cost}
			svc := newPaddedAuthService(store, verifier, tt.padding)

			timed := func(identity, attempt string) time.Duration {
				start := time.Now()
				_, err := svc.Attempt(context.Background(), &models.AuthAttemptState{}, identity, attempt, models.ClientMeta{})
				require.ErrorIs(t, err, models.ErrUnauthorized)
				return time.Since(start)
			}

			stranger := timed("stranger@example.com", secret)
			wrong := timed(member, "wrong-secret")

			assert.Equal(t, 2, verifier.Calls(), "non-members must run the verifier too")

			floor := tt.padding
			if tt.cost > floor {
				floor = tt.cost
			}
			assert.GreaterOrEqual(t, stranger, floor)
			assert.GreaterOrEqual(t, wrong, floor)
			assert.InDelta(t, float64(stranger), float64(wrong), float64(40*time.Millisecond))
		})
	}
}
