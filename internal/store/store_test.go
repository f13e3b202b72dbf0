package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/models"
	"github.com/go-authgate/screenpair/internal/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// getTestConfig returns a minimal config for testing
func getTestConfig() *config.Config {
	return &config.Config{
		DefaultAdminPassword: "", // Use random password in tests
	}
}

// TestStoreWithSQLite tests store operations with SQLite
func TestStoreWithSQLite(t *testing.T) {
	testBasicOperations(t, "sqlite", nil)
}

// TestStoreWithPostgres tests store operations with PostgreSQL
func TestStoreWithPostgres(t *testing.T) {
	// Skip if running short tests or Docker is not available
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}

	// Recover from panic if Docker is not available
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Skipping PostgreSQL test: Docker not available (panic: %v)", r)
		}
	}()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: Docker not available (%v)", err)
		return
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	testBasicOperations(t, "postgres", pgContainer)
}

// createFreshStore creates a new store instance for test isolation
// For SQLite, each call creates a fresh :memory: database
// For PostgreSQL, each call creates a uniquely-named database in the container
func createFreshStore(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) *Store {
	t.Helper()

	var dsn string
	switch driver {
	case "sqlite":
		dsn = ":memory:"
	case "postgres":
		dbName := "test_" + strings.ReplaceAll(uuid.New().String()[:8], "-", "")
		ctx := context.Background()

		_, _, err := pgContainer.Exec(
			ctx,
			[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", "CREATE DATABASE " + dbName},
		)
		require.NoError(t, err)

		host, err := pgContainer.Host(ctx)
		require.NoError(t, err)
		port, err := pgContainer.MappedPort(ctx, "5432")
		require.NoError(t, err)
		dsn = fmt.Sprintf(
			"host=%s port=%s user=testuser password=testpass dbname=%s sslmode=disable",
			host, port.Port(), dbName,
		)

		t.Cleanup(func() {
			_, _, _ = pgContainer.Exec(
				context.Background(),
				[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", "DROP DATABASE IF EXISTS " + dbName + " WITH (FORCE)"},
			)
		})
	default:
		t.Fatalf("unsupported driver: %s", driver)
	}

	store, err := New(context.Background(), driver, dsn, getTestConfig())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func createScreen(t *testing.T, s *Store, ownerID string) *models.Screen {
	t.Helper()
	screen := &models.Screen{OwnerID: ownerID, Name: "Screen " + uuid.New().String()[:4]}
	require.NoError(t, s.CreateScreen(context.Background(), screen))
	return screen
}

func createCode(t *testing.T, s *Store, screenID uint, code string, expiresAt time.Time) *models.ActivationCode {
	t.Helper()
	ac := &models.ActivationCode{
		ScreenID:     screenID,
		Code:         code,
		ExpiresAt:    expiresAt,
		PollingToken: uuid.New().String(),
	}
	require.NoError(t, s.CreateActivationCode(context.Background(), ac))
	return ac
}

func newBinding(t *testing.T, screenID uint) *models.DeviceBinding {
	t.Helper()
	token, err := util.GenerateDeviceToken()
	require.NoError(t, err)
	return &models.DeviceBinding{
		ScreenID:    screenID,
		DeviceToken: token,
		TokenHash:   util.SHA256Hex(token),
		DeviceInfo:  "test-agent",
		Flow:        models.BindingFlowCode,
	}
}

// testBasicOperations runs the store suite; each subtest uses a fresh store
func testBasicOperations(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) {
	ctx := context.Background()

	t.Run("SeedsAdminAndDemoScreen", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		admin, err := store.GetUserByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.True(t, admin.IsAdmin())

		screens, err := store.ListScreensByOwner(ctx, admin.ID)
		require.NoError(t, err)
		require.Len(t, screens, 1)
		assert.True(t, screens[0].IsPlayable(time.Now()))
	})

	t.Run("UnknownRecordsReturnNotFound", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		_, err := store.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrRecordNotFound)
		_, err = store.GetScreen(ctx, 9999)
		assert.ErrorIs(t, err, ErrRecordNotFound)
		_, err = store.GetActivationCodeByCode(ctx, "ZZZZZZ")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("GetOwnedScreenHidesForeignScreens", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		screen := createScreen(t, store, "owner-a")

		got, err := store.GetOwnedScreen(ctx, screen.ID, "owner-a")
		require.NoError(t, err)
		assert.Equal(t, screen.ID, got.ID)

		_, err = store.GetOwnedScreen(ctx, screen.ID, "owner-b")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("NewestCodeShadowsOlderRows", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		screen := createScreen(t, store, "owner")
		expires := time.Now().UTC().Add(time.Hour)

		createCode(t, store, screen.ID, "AB12CD", expires)
		newer := createCode(t, store, screen.ID, "AB12CD", expires)

		got, err := store.GetActivationCodeByCode(ctx, "AB12CD")
		require.NoError(t, err)
		assert.Equal(t, newer.ID, got.ID)

		latest, err := store.GetLatestUnusedActivationCode(ctx, screen.ID)
		require.NoError(t, err)
		assert.Equal(t, newer.ID, latest.ID)
	})

	t.Run("RedeemKeepsSingleLiveBinding", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		screen := createScreen(t, store, "owner")
		now := time.Now().UTC()

		var last *models.DeviceBinding
		for i := 0; i < 4; i++ {
			code := createCode(t, store, screen.ID, fmt.Sprintf("CODE%02d", i), now.Add(time.Hour))
			binding := newBinding(t, screen.ID)
			require.NoError(t, store.RedeemActivationCode(ctx, code, binding, now.Add(time.Duration(i)*time.Second)))
			assert.NotZero(t, binding.ID)
			assert.Equal(t, binding.DeviceToken, code.PickupToken)
			last = binding
		}

		live, err := store.ListLiveBindings(ctx, screen.ID)
		require.NoError(t, err)
		require.Len(t, live, 1)
		assert.Equal(t, last.ID, live[0].ID)

		all, err := store.ListBindingsByScreen(ctx, screen.ID)
		require.NoError(t, err)
		require.Len(t, all, 4)
		for _, b := range all[:3] {
			require.NotNil(t, b.RevokedAt)
			assert.Equal(t, models.RevokeReasonSuperseded, b.RevokeReason)
		}

		// Superseded codes no longer carry a parked token
		first, err := store.GetActivationCodeByCode(ctx, "CODE00")
		require.NoError(t, err)
		assert.Empty(t, first.PickupToken)
	})

	t.Run("RedeemTwiceFails", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		screen := createScreen(t, store, "owner")
		now := time.Now().UTC()
		code := createCode(t, store, screen.ID, "ONCE01", now.Add(time.Hour))

		require.NoError(t, store.RedeemActivationCode(ctx, code, newBinding(t, screen.ID), now))

		stale := *code
		stale.UsedAt = nil
		err := store.RedeemActivationCode(ctx, &stale, newBinding(t, screen.ID), now)
		assert.ErrorIs(t, err, ErrCodeAlreadyUsed)

		live, err := store.ListLiveBindings(ctx, screen.ID)
		require.NoError(t, err)
		assert.Len(t, live, 1)
	})

	t.Run("LiveScreenIndexRejectsSecondLiveBinding", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		screen := createScreen(t, store, "owner")

		first := newBinding(t, screen.ID)
		first.ActivatedAt = time.Now().UTC()
		require.NoError(t, store.db.Create(first).Error)

		second := newBinding(t, screen.ID)
		second.ActivatedAt = time.Now().UTC()
		err := store.db.Create(second).Error
		require.Error(t, err)
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})

	t.Run("GetLiveBindingRequiresMatchingScreen", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		screenA := createScreen(t, store, "owner")
		screenB := createScreen(t, store, "owner")
		now := time.Now().UTC()

		binding := newBinding(t, screenA.ID)
		code := createCode(t, store, screenA.ID, "REPLAY", now.Add(time.Hour))
		require.NoError(t, store.RedeemActivationCode(ctx, code, binding, now))

		got, err := store.GetLiveBinding(ctx, binding.TokenHash, screenA.ID)
		require.NoError(t, err)
		assert.Equal(t, binding.ID, got.ID)

		_, err = store.GetLiveBinding(ctx, binding.TokenHash, screenB.ID)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("RevokeIsIdempotentAndClearsPickup", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		screen := createScreen(t, store, "owner")
		now := time.Now().UTC()

		binding := newBinding(t, screen.ID)
		code := createCode(t, store, screen.ID, "REVOKE", now.Add(time.Hour))
		require.NoError(t, store.RedeemActivationCode(ctx, code, binding, now))

		require.NoError(t, store.RevokeBinding(ctx, binding.ID, models.RevokeReasonOperator, now.Add(time.Minute)))
		first, err := store.GetBinding(ctx, binding.ID)
		require.NoError(t, err)
		require.NotNil(t, first.RevokedAt)

		require.NoError(t, store.RevokeBinding(ctx, binding.ID, models.RevokeReasonOperator, now.Add(time.Hour)))
		second, err := store.GetBinding(ctx, binding.ID)
		require.NoError(t, err)
		assert.WithinDuration(t, *first.RevokedAt, *second.RevokedAt, time.Millisecond)

		redeemed, err := store.GetActivationCodeByCode(ctx, "REVOKE")
		require.NoError(t, err)
		assert.Empty(t, redeemed.PickupToken)

		_, err = store.GetLiveBinding(ctx, binding.TokenHash, screen.ID)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("TouchNeverMovesBackwards", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		screen := createScreen(t, store, "owner")
		now := time.Now().UTC()

		binding := newBinding(t, screen.ID)
		code := createCode(t, store, screen.ID, "TOUCH1", now.Add(time.Hour))
		require.NoError(t, store.RedeemActivationCode(ctx, code, binding, now))

		later := now.Add(10 * time.Minute)
		require.NoError(t, store.TouchBinding(ctx, binding.ID, later))
		require.NoError(t, store.TouchBinding(ctx, binding.ID, now.Add(time.Minute)))
		require.NoError(t, store.TouchScreen(ctx, screen.ID, later))
		require.NoError(t, store.TouchScreen(ctx, screen.ID, now))

		got, err := store.GetBinding(ctx, binding.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastSeenAt)
		assert.WithinDuration(t, later, *got.LastSeenAt, time.Millisecond)
		assert.Nil(t, got.RevokedAt)

		gotScreen, err := store.GetScreen(ctx, screen.ID)
		require.NoError(t, err)
		require.NotNil(t, gotScreen.LastSeenAt)
		assert.WithinDuration(t, later, *gotScreen.LastSeenAt, time.Millisecond)
	})

	t.Run("PendingReplaceAndClaim", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		screenA := createScreen(t, store, "owner")
		screenB := createScreen(t, store, "owner")
		now := time.Now().UTC()

		for _, screenID := range []uint{screenA.ID, screenB.ID} {
			b := newBinding(t, screenID)
			require.NoError(t, store.ReplacePendingDeviceBinding(ctx, &models.PendingDeviceBinding{
				DeviceID:    "ABCD2345",
				ScreenID:    screenID,
				DeviceToken: b.DeviceToken,
				TokenHash:   b.TokenHash,
				CreatedBy:   "owner",
				ExpiresAt:   now.Add(time.Hour),
			}))
		}

		var count int64
		require.NoError(t, store.db.Model(&models.PendingDeviceBinding{}).
			Where("device_id = ?", "ABCD2345").Count(&count).Error)
		assert.Equal(t, int64(1), count)

		pending, err := store.GetUnclaimedPendingBinding(ctx, "ABCD2345")
		require.NoError(t, err)
		assert.Equal(t, screenB.ID, pending.ScreenID)

		binding := &models.DeviceBinding{
			ScreenID:    pending.ScreenID,
			DeviceToken: pending.DeviceToken,
			TokenHash:   pending.TokenHash,
			Flow:        models.BindingFlowDeviceQR,
		}
		require.NoError(t, store.ClaimPendingDeviceBinding(ctx, pending, binding, now))
		require.NotNil(t, pending.BindingID)
		assert.Equal(t, binding.ID, *pending.BindingID)

		err = store.ClaimPendingDeviceBinding(ctx, pending, newBinding(t, screenB.ID), now)
		assert.ErrorIs(t, err, ErrPendingAlreadyClaimed)

		_, err = store.GetUnclaimedPendingBinding(ctx, "ABCD2345")
		assert.ErrorIs(t, err, ErrRecordNotFound)

		var claimed models.PendingDeviceBinding
		require.NoError(t, store.db.First(&claimed, pending.ID).Error)
		assert.Empty(t, claimed.DeviceToken)
	})

	t.Run("GaugeCounts", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		screen := createScreen(t, store, "owner")
		now := time.Now().UTC()

		createCode(t, store, screen.ID, "LIVE01", now.Add(time.Hour))
		createCode(t, store, screen.ID, "OLD001", now.Add(-time.Hour))
		used := createCode(t, store, screen.ID, "USED01", now.Add(time.Hour))
		require.NoError(t, store.RedeemActivationCode(ctx, used, newBinding(t, screen.ID), now))
		require.NoError(t, store.TouchScreen(ctx, screen.ID, now))

		pending, err := store.CountPendingActivationCodes(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), pending)

		live, err := store.CountLiveBindings(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), live)

		online, err := store.CountOnlineScreens(ctx, now.Add(-time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), online)
	})

	t.Run("AuditLogPagination", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		now := time.Now().UTC()

		entries := make([]*models.AuditLog, 0, 25)
		for i := 0; i < 25; i++ {
			eventType := models.EventActivationCodeIssued
			if i%5 == 0 {
				eventType = models.EventDeviceActivated
			}
			entries = append(entries, &models.AuditLog{
				ID:        uuid.New().String(),
				EventType: eventType,
				EventTime: now.Add(time.Duration(i) * time.Second),
				Severity:  models.SeverityInfo,
				Action:    fmt.Sprintf("action %d", i),
				Success:   true,
				CreatedAt: now.Add(-time.Duration(i) * time.Hour),
			})
		}
		require.NoError(t, store.CreateAuditLogBatch(ctx, entries))

		logs, page, err := store.GetAuditLogsPaginated(ctx, NewPaginationParams(2, 10), AuditLogFilters{})
		require.NoError(t, err)
		assert.Len(t, logs, 10)
		assert.Equal(t, int64(25), page.Total)
		assert.Equal(t, 3, page.TotalPages)
		assert.True(t, page.HasPrev)
		assert.True(t, page.HasNext)

		logs, page, err = store.GetAuditLogsPaginated(ctx, NewPaginationParams(1, 10), AuditLogFilters{
			EventType: models.EventDeviceActivated,
		})
		require.NoError(t, err)
		assert.Len(t, logs, 5)
		assert.Equal(t, int64(5), page.Total)

		deleted, err := store.DeleteOldAuditLogs(ctx, now.Add(-12*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(12), deleted)
	})
}

// TestDriverFactory tests the driver factory pattern
func TestDriverFactory(t *testing.T) {
	tests := []struct {
		name        string
		driver      string
		dsn         string
		expectError bool
	}{
		{name: "SQLite valid", driver: "sqlite", dsn: ":memory:"},
		{name: "Postgres valid", driver: "postgres", dsn: "host=localhost dbname=x"},
		{
			name:        "Unsupported driver",
			driver:      "mysql",
			dsn:         "user:pass@tcp(localhost:3306)/dbname",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialector, err := GetDialector(tt.driver, tt.dsn)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, dialector)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, dialector)
			}
		})
	}
}

// TestRegisterDriver tests registering custom drivers
func TestRegisterDriver(t *testing.T) {
	customDriverCalled := false
	RegisterDriver("custom", func(dsn string) gorm.Dialector {
		customDriverCalled = true
		return nil
	})
	t.Cleanup(func() { delete(driverFactories, "custom") })

	dialector, err := GetDialector("custom", "test-dsn")
	assert.NoError(t, err)
	assert.True(t, customDriverCalled)
	assert.Nil(t, dialector)
}

func TestCalculatePagination(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		page       int
		size       int
		totalPages int
		hasPrev    bool
		hasNext    bool
	}{
		{name: "empty", total: 0, page: 1, size: 10, totalPages: 0},
		{name: "single page", total: 7, page: 1, size: 10, totalPages: 1},
		{name: "middle page", total: 25, page: 2, size: 10, totalPages: 3, hasPrev: true, hasNext: true},
		{name: "last page", total: 30, page: 3, size: 10, totalPages: 3, hasPrev: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculatePagination(tt.total, tt.page, tt.size)
			assert.Equal(t, tt.totalPages, result.TotalPages)
			assert.Equal(t, tt.hasPrev, result.HasPrev)
			assert.Equal(t, tt.hasNext, result.HasNext)
		})
	}
}

func TestNewPaginationParams(t *testing.T) {
	p := NewPaginationParams(0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)

	p = NewPaginationParams(3, 1000)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, MaxPageSize, p.PageSize)
}

// TestDefaultAdminPassword_WhitespaceHandling tests that whitespace-only passwords are treated as empty
func TestDefaultAdminPassword_WhitespaceHandling(t *testing.T) {
	tests := []struct {
		name                 string
		defaultAdminPassword string
		shouldUseConfigured  bool
	}{
		{name: "valid password", defaultAdminPassword: "MyPassword123", shouldUseConfigured: true},
		{name: "surrounding spaces", defaultAdminPassword: "  MyPassword123  ", shouldUseConfigured: true},
		{name: "empty string", defaultAdminPassword: ""},
		{name: "only spaces", defaultAdminPassword: "   "},
		{name: "mixed whitespace", defaultAdminPassword: " \t\n\r "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{DefaultAdminPassword: tt.defaultAdminPassword}

			store, err := New(context.Background(), "sqlite", ":memory:", cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })

			admin, err := store.GetUserByUsername(context.Background(), "admin")
			require.NoError(t, err)

			if tt.shouldUseConfigured {
				err = bcrypt.CompareHashAndPassword(
					[]byte(admin.PasswordHash),
					[]byte(strings.TrimSpace(tt.defaultAdminPassword)),
				)
				assert.NoError(t, err, "configured password should work after trimming")
				return
			}

			assert.NotEmpty(t, admin.PasswordHash)
			if tt.defaultAdminPassword != "" {
				err = bcrypt.CompareHashAndPassword(
					[]byte(admin.PasswordHash),
					[]byte(tt.defaultAdminPassword),
				)
				assert.Error(t, err, "whitespace-only password should not work")
			}
		})
	}
}
