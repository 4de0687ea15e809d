package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lojasocial/backend/internal/domain/models"
	repo "github.com/lojasocial/backend/internal/repository/mongodb"
)

// ErrNotFound indicates the campaign id does not resolve to a record.
var ErrNotFound = errors.New("campaign not found")

// ErrInvalidCampaign indicates the campaign payload is incomplete.
var ErrInvalidCampaign = errors.New("invalid campaign")

// Draft carries the data needed to open a campaign.
type Draft struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
}

// Service manages donation campaigns.
type Service struct {
	repo   repo.CampaignRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a campaign service.
func NewService(repository repo.CampaignRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, logger: logger, now: time.Now}
}

// Create opens a new active campaign.
func (s *Service) Create(ctx context.Context, draft Draft) (*models.Campaign, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidCampaign)
	}
	if !draft.EndDate.IsZero() && draft.EndDate.Before(draft.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidCampaign)
	}

	campaign := models.Campaign{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(draft.Name),
		Description: draft.Description,
		StartDate:   draft.StartDate,
		EndDate:     draft.EndDate,
		Active:      true,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.repo.InsertCampaign(ctx, campaign); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	s.logger.Info("campaign created", zap.String("campaign_id", campaign.ID), zap.String("name", campaign.Name))
	return &campaign, nil
}

// Close deactivates a campaign; its batches stay in stock.
func (s *Service) Close(ctx context.Context, id string) error {
	campaign, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	campaign.Active = false
	if err := s.repo.UpdateCampaign(ctx, *campaign); err != nil {
		return fmt.Errorf("close campaign: %w", err)
	}

	s.logger.Info("campaign closed", zap.String("campaign_id", id))
	return nil
}

// Get returns one campaign.
func (s *Service) Get(ctx context.Context, id string) (*models.Campaign, error) {
	campaign, err := s.repo.GetCampaignByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load campaign %s: %w", id, err)
	}
	if campaign == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return campaign, nil
}

// List returns campaigns, optionally active only.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]models.Campaign, error) {
	campaigns, err := s.repo.ListCampaigns(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}
