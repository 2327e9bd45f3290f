package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/accountdesk/internal/auth"
	"github.com/BradenHooton/accountdesk/internal/models"
	pkglogger "github.com/BradenHooton/accountdesk/pkg/logger"
)

// MockCredentialStore implements CredentialStore for testing and counts calls
type MockCredentialStore struct {
	IsActiveMemberFunc      func(ctx context.Context, identity string) (bool, error)
	AppendAuditFunc         func(ctx context.Context, record *models.AuditRecord) error
	IncrementLoginCountFunc func(ctx context.Context, identity string) (int64, error)

	mu         sync.Mutex
	Calls      int
	Audits     []*models.AuditRecord
	Increments map[string]int64
}

func (m *MockCredentialStore) IsActiveMember(ctx context.Context, identity string) (bool, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.IsActiveMemberFunc != nil {
		return m.IsActiveMemberFunc(ctx, identity)
	}
	return false, nil
}

func (m *MockCredentialStore) AppendAudit(ctx context.Context, record *models.AuditRecord) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.AppendAuditFunc != nil {
		if err := m.AppendAuditFunc(ctx, record); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.Audits = append(m.Audits, record)
	m.mu.Unlock()
	return nil
}

func (m *MockCredentialStore) IncrementLoginCount(ctx context.Context, identity string) (int64, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.IncrementLoginCountFunc != nil {
		return m.IncrementLoginCountFunc(ctx, identity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Increments == nil {
		m.Increments = make(map[string]int64)
	}
	m.Increments[identity]++
	return m.Increments[identity], nil
}

// CallCount returns how many store operations were issued
func (m *MockCredentialStore) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// allowList returns an IsActiveMemberFunc accepting exactly the given identities
func allowList(identities ...string) func(ctx context.Context, identity string) (bool, error) {
	set := make(map[string]bool, len(identities))
	for _, id := range identities {
		set[id] = true
	}
	return func(ctx context.Context, identity string) (bool, error) {
		return set[identity], nil
	}
}

// MockAccountStore implements AccountStore for testing
type MockAccountStore struct {
	FetchByKeyFunc func(ctx context.Context, key string) (models.AccountRecord, error)

	mu      sync.Mutex
	Fetches []string
}

func (m *MockAccountStore) FetchByKey(ctx context.Context, key string) (models.AccountRecord, error) {
	m.mu.Lock()
	m.Fetches = append(m.Fetches, key)
	m.mu.Unlock()

	if m.FetchByKeyFunc != nil {
		return m.FetchByKeyFunc(ctx, key)
	}
	return nil, models.ErrNotFound
}

// staticVerifier accepts exactly one secret
type staticVerifier struct {
	secret string
}

func (v staticVerifier) Verify(secret string) bool { return secret == v.secret }
func (v staticVerifier) Name() string              { return "static" }

// testClock is a settable clock
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestAuthService wires an AuthService with no timing padding and default thresholds
func newTestAuthService(store CredentialStore, verifier SecretVerifier, clock *testClock) *AuthService {
	logger := discardLogger()
	svc := NewAuthService(
		store,
		verifier,
		NewLockoutPolicy(DefaultLockoutConfig, logger),
		auth.NoDelay(),
		logger,
		pkglogger.NewAuditLogger(logger),
	)
	return svc.WithClock(clock.Now)
}

// slowVerifier accepts one secret after a fixed amount of work and counts calls
type slowVerifier struct {
	secret string
	cost   time.Duration

	mu    sync.Mutex
	calls int
}

func (v *slowVerifier) Verify(secret string) bool {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	time.Sleep(v.cost)
	return secret == v.secret
}

func (v *slowVerifier) Name() string { return "slow" }

func (v *slowVerifier) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

// newPaddedAuthService wires an AuthService that pads every failure to base
func newPaddedAuthService(store CredentialStore, verifier SecretVerifier, base time.Duration) *AuthService {
	logger := discardLogger()
	return NewAuthService(
		store,
		verifier,
		NewLockoutPolicy(DefaultLockoutConfig, logger),
		auth.NewTimingDelay(auth.TimingConfig{BaseDelayMs: int(base / time.Millisecond)}),
		logger,
		pkglogger.NewAuditLogger(logger),
	)
}
