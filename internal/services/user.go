package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-authgate/screenpair/internal/metrics"
	"github.com/go-authgate/screenpair/internal/models"
	"github.com/go-authgate/screenpair/internal/store"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	store   *store.Store
	audit   *AuditService
	metrics metrics.Recorder
}

func NewUserService(s *store.Store, audit *AuditService, m metrics.Recorder) *UserService {
	return &UserService{store: s, audit: audit, metrics: m}
}

// Authenticate checks a local username/password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		// Burn comparable time so unknown usernames are not distinguishable
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		s.recordLogin(ctx, "", username, false)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordLogin(ctx, user.ID, username, false)
		return nil, ErrInvalidCredentials
	}

	s.recordLogin(ctx, user.ID, username, true)
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) recordLogin(ctx context.Context, userID, username string, success bool) {
	s.metrics.RecordLogin(success)
	if !success {
		log.Debug().Str("username", username).Msg("login rejected")
	}
	entry := AuditLogEntry{
		EventType:    models.EventAuthenticationSuccess,
		Severity:     models.SeverityInfo,
		ActorUserID:  userID,
		ResourceType: models.ResourceUser,
		ResourceID:   userID,
		Action:       "User logged in",
		Details:      models.AuditDetails{"username": username},
		Success:      success,
	}
	if !success {
		entry.EventType = models.EventAuthenticationFailure
		entry.Severity = models.SeverityWarning
		entry.Action = "Login failed"
		entry.ErrorMessage = ErrInvalidCredentials.Error()
	}
	s.audit.Log(ctx, entry)
}

// dummyHash is compared against when the username does not exist.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("screenpair"), bcrypt.DefaultCost)
	return hash
})
