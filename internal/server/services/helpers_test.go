package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
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

type recordingObserver struct {
	mu      sync.Mutex
	logins  map[string]int
	refresh map[string]int
	logouts int
	revoked []int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{logins: map[string]int{}, refresh: map[string]int{}}
}

func (o *recordingObserver) LoginAttempt(outcome string) {
	o.mu.Lock()
	o.logins[outcome]++
	o.mu.Unlock()
}

func (o *recordingObserver) RefreshAttempt(outcome string) {
	o.mu.Lock()
	o.refresh[outcome]++
	o.mu.Unlock()
}

func (o *recordingObserver) LogoutCompleted() {
	o.mu.Lock()
	o.logouts++
	o.mu.Unlock()
}

func (o *recordingObserver) ReuseDetected(n int) {
	o.mu.Lock()
	o.revoked = append(o.revoked, n)
	o.mu.Unlock()
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  15 * time.Minute,
		RefreshTokenValidityDuration: 30 * 24 * time.Hour,
	}
}

type fixture struct {
	store    *memory.Store
	clock    *fakeClock
	observer *recordingObserver
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newFakeClock()
	store := memory.NewStore(memory.WithClock(clock.Now))
	obs := newRecordingObserver()
	return &fixture{
		store:    store,
		clock:    clock,
		observer: obs,
		users:    NewUserService(store, nil, store, testConfig(), logging.Nop(), WithClock(clock), WithObserver(obs)),
	}
}

func (f *fixture) register(t *testing.T) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), "alice", "alice@example.com", "password1")
	require.NoError(t, err)
	return u
}

func (f *fixture) tokens(t *testing.T, userID string) []*models.RefreshToken {
	t.Helper()
	list, err := f.store.RefreshTokens(nil).ListByUser(context.Background(), userID)
	require.NoError(t, err)
	return list
}

// failingManager wraps a repository manager and makes refresh token updates fail.
type failingManager struct {
	repomanager.RepositoryManager
	updateErr error
}

func (m *failingManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return &failingTokens{Repository: m.RepositoryManager.RefreshTokens(db), updateErr: m.updateErr}
}

type failingTokens struct {
	refreshtokens.Repository
	updateErr error
}

func (r *failingTokens) Update(context.Context, *models.RefreshToken) error {
	return r.updateErr
}
