package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/metrics"
	"github.com/go-authgate/screenpair/internal/models"
	"github.com/go-authgate/screenpair/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := &config.Config{
		DefaultAdminPassword: "", // Use random password in tests
	}
	s, err := store.New(context.Background(), config.DatabaseDriverSQLite, ":memory:", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testConfig() *config.Config {
	return &config.Config{
		ActivationCodeExpiration:    time.Hour,
		ActivationCodeRefreshBefore: 5 * time.Minute,
		PendingBindingExpiration:    time.Hour,
		OnlineWindow:                2 * time.Minute,
	}
}

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func createTestUser(t *testing.T, s *store.Store, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		ID:           uuid.New().String(),
		Username:     "owner-" + uuid.New().String()[:8],
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: string(hash),
		Role:         "user",
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func createTestScreen(t *testing.T, s *store.Store, ownerID string, subscribedUntil *time.Time) *models.Screen {
	t.Helper()
	screen := &models.Screen{
		OwnerID:               ownerID,
		Name:                  "Screen " + uuid.New().String()[:4],
		SubscriptionExpiresAt: subscribedUntil,
	}
	require.NoError(t, s.CreateScreen(context.Background(), screen))
	return screen
}

func newTestPairingService(t *testing.T, s *store.Store, clock *testClock) *PairingService {
	t.Helper()
	svc := NewPairingService(s, testConfig(), nil, metrics.NewNoopMetrics())
	svc.now = clock.Now
	return svc
}

// failBindingInserts makes the next n device binding inserts fail as unique
// violations, the way a concurrent insert for the same screen would. A
// negative n fails every insert. It returns the number of inserts rejected.
func failBindingInserts(t *testing.T, s *store.Store, n int32) *atomic.Int32 {
	t.Helper()
	rejected := &atomic.Int32{}
	const name = "test:fail_binding_insert"
	require.NoError(t, s.DB().Callback().Create().Before("gorm:create").Register(name, func(db *gorm.DB) {
		if db.Statement.Schema == nil || db.Statement.Schema.Table != "device_bindings" {
			return
		}
		if n >= 0 && rejected.Load() >= n {
			return
		}
		rejected.Add(1)
		_ = db.AddError(gorm.ErrDuplicatedKey)
	}))
	t.Cleanup(func() { _ = s.DB().Callback().Create().Remove(name) })
	return rejected
}
