package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/models"
	"github.com/go-authgate/screenpair/internal/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// liveScreenIndex guarantees at most one unrevoked binding per screen.
// Partial indexes are supported by both SQLite and PostgreSQL.
const liveScreenIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_device_bindings_live_screen
	ON device_bindings (screen_id) WHERE revoked_at IS NULL`

// demoSubscriptionPeriod is the subscription granted to the seeded demo screen.
const demoSubscriptionPeriod = 30 * 24 * time.Hour

type Store struct {
	db     *gorm.DB
	driver string
}

// New opens the database, migrates the schema and seeds default data.
func New(ctx context.Context, driver, dsn string, cfg *config.Config) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if driver == config.DatabaseDriverSQLite {
		// SQLite allows a single writer; a second connection to ":memory:"
		// would also open an empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// Auto migrate
	migrator := db.WithContext(ctx)
	if err := migrator.AutoMigrate(
		&models.User{},
		&models.Screen{},
		&models.ActivationCode{},
		&models.DeviceBinding{},
		&models.PendingDeviceBinding{},
		&models.AuditLog{},
	); err != nil {
		return nil, err
	}
	if err := migrator.Exec(liveScreenIndex).Error; err != nil {
		return nil, fmt.Errorf("failed to create live binding index: %w", err)
	}

	store := &Store{db: db, driver: driver}

	// Seed default data
	if err := store.seedData(ctx, cfg); err != nil {
		log.Warn().Err(err).Msg("failed to seed data")
	}

	return store, nil
}

func (s *Store) seedData(ctx context.Context, cfg *config.Config) error {
	db := s.db.WithContext(ctx)

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return nil
	}

	password := ""
	if cfg != nil {
		password = strings.TrimSpace(cfg.DefaultAdminPassword)
	}
	generated := password == ""
	if generated {
		random, err := util.CryptoRandomString(16)
		if err != nil {
			return err
		}
		password = random
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		ID:           uuid.New().String(),
		Username:     "admin",
		Email:        "admin@localhost",
		PasswordHash: string(hash),
		Role:         "admin",
	}
	if err := s.CreateUser(ctx, admin); err != nil {
		return err
	}
	if generated {
		log.Info().Str("username", admin.Username).Str("password", password).
			Msg("created default admin user")
	} else {
		log.Info().Str("username", admin.Username).
			Msg("created default admin user with configured password")
	}

	expires := time.Now().UTC().Add(demoSubscriptionPeriod)
	screen := &models.Screen{
		OwnerID:               admin.ID,
		Name:                  "Lobby",
		Location:              "Demo",
		SubscriptionExpiresAt: &expires,
	}
	if err := db.Create(screen).Error; err != nil {
		return err
	}
	log.Info().Uint("screen_id", screen.ID).Msg("created demo screen")
	return nil
}

// Health pings the underlying database connection.
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Driver returns the configured database driver name.
func (s *Store) Driver() string {
	return s.driver
}

// notFound maps gorm's not found error onto ErrRecordNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}
