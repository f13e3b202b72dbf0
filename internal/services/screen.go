package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/models"
	"github.com/go-authgate/screenpair/internal/store"
)

// ScreenView is a screen as shown on the owner's dashboard.
type ScreenView struct {
	models.Screen
	Online   bool `json:"online"`
	Playable bool `json:"playable"`
}

// CreateScreenInput holds the fields an owner may set on a new screen.
type CreateScreenInput struct {
	Name                  string
	Location              string
	SubscriptionExpiresAt *time.Time
}

type ScreenService struct {
	store  *store.Store
	config *config.Config
	audit  *AuditService
	now    func() time.Time
}

func NewScreenService(s *store.Store, cfg *config.Config, audit *AuditService) *ScreenService {
	return &ScreenService{
		store:  s,
		config: cfg,
		audit:  audit,
		now:    utcNow,
	}
}

func (s *ScreenService) CreateScreen(
	ctx context.Context,
	ownerID string,
	in CreateScreenInput,
) (*ScreenView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidScreenName
	}

	screen := &models.Screen{
		OwnerID:  ownerID,
		Name:     name,
		Location: strings.TrimSpace(in.Location),
	}
	if in.SubscriptionExpiresAt != nil {
		expires := in.SubscriptionExpiresAt.UTC()
		screen.SubscriptionExpiresAt = &expires
	}
	if err := s.store.CreateScreen(ctx, screen); err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventScreenCreated,
		Severity:     models.SeverityInfo,
		ActorUserID:  ownerID,
		ResourceType: models.ResourceScreen,
		ResourceID:   formatID(screen.ID),
		Action:       "Screen created",
		Details:      models.AuditDetails{"name": screen.Name},
		Success:      true,
	})

	return s.view(screen), nil
}

// ListScreens returns the owner's screens with their online and playable state.
func (s *ScreenService) ListScreens(ctx context.Context, ownerID string) ([]ScreenView, error) {
	screens, err := s.store.ListScreensByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list screens: %w", err)
	}

	views := make([]ScreenView, 0, len(screens))
	for i := range screens {
		views = append(views, *s.view(&screens[i]))
	}
	return views, nil
}

// GetOwnedScreen returns ErrScreenNotFound for unknown screens and for
// screens owned by another user.
func (s *ScreenService) GetOwnedScreen(ctx context.Context, screenID uint, ownerID string) (*models.Screen, error) {
	screen, err := s.store.GetOwnedScreen(ctx, screenID, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrScreenNotFound
		}
		return nil, err
	}
	return screen, nil
}

func (s *ScreenService) view(screen *models.Screen) *ScreenView {
	now := s.now()
	return &ScreenView{
		Screen:   *screen,
		Online:   screen.IsOnline(now, s.config.OnlineWindow),
		Playable: screen.IsPlayable(now),
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}
