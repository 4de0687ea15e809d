package beneficiary

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

// ErrNotFound indicates the beneficiary id does not resolve to a record.
var ErrNotFound = errors.New("beneficiary not found")

// ErrInvalidRegistration indicates the registration payload is incomplete.
var ErrInvalidRegistration = errors.New("invalid beneficiary registration")

// ErrAlreadyDecided indicates an approve/reject on a registration that is
// no longer pending.
var ErrAlreadyDecided = errors.New("beneficiary registration already decided")

// Registration carries the data captured when a beneficiary signs up.
type Registration struct {
	Name          string
	Document      string
	Phone         string
	Address       string
	HouseholdSize int
	Observations  string
}

// Service manages beneficiary registration and approval.
type Service struct {
	repo   repo.BeneficiaryRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a beneficiary service.
func NewService(repository repo.BeneficiaryRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, logger: logger, now: time.Now}
}

// Register creates a beneficiary in pending state awaiting staff approval.
func (s *Service) Register(ctx context.Context, reg Registration) (*models.Beneficiary, error) {
	if strings.TrimSpace(reg.Name) == "" || strings.TrimSpace(reg.Document) == "" {
		return nil, fmt.Errorf("%w: name and document are required", ErrInvalidRegistration)
	}
	if reg.HouseholdSize < 1 {
		reg.HouseholdSize = 1
	}

	now := s.now().UTC()
	beneficiary := models.Beneficiary{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(reg.Name),
		Document:      strings.TrimSpace(reg.Document),
		Phone:         strings.TrimSpace(reg.Phone),
		Address:       strings.TrimSpace(reg.Address),
		HouseholdSize: reg.HouseholdSize,
		Status:        models.BeneficiaryPending,
		Observations:  reg.Observations,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.InsertBeneficiary(ctx, beneficiary); err != nil {
		return nil, fmt.Errorf("register beneficiary: %w", err)
	}

	s.logger.Info("beneficiary registered", zap.String("beneficiary_id", beneficiary.ID))
	return &beneficiary, nil
}

// Approve marks a pending registration as approved.
func (s *Service) Approve(ctx context.Context, id string) error {
	return s.decide(ctx, id, models.BeneficiaryApproved)
}

// Reject marks a pending registration as rejected.
func (s *Service) Reject(ctx context.Context, id string) error {
	return s.decide(ctx, id, models.BeneficiaryRejected)
}

// Deactivate removes an approved beneficiary from the active roster.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	beneficiary, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if beneficiary.Status != models.BeneficiaryApproved {
		return fmt.Errorf("%w: status is %s", ErrAlreadyDecided, beneficiary.Status)
	}
	return s.repo.UpdateBeneficiaryStatus(ctx, id, models.BeneficiaryInactive)
}

// Get returns one beneficiary.
func (s *Service) Get(ctx context.Context, id string) (*models.Beneficiary, error) {
	return s.get(ctx, id)
}

// List returns beneficiaries, optionally filtered by status.
func (s *Service) List(ctx context.Context, status models.BeneficiaryStatus) ([]models.Beneficiary, error) {
	beneficiaries, err := s.repo.ListBeneficiaries(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	return beneficiaries, nil
}

func (s *Service) decide(ctx context.Context, id string, status models.BeneficiaryStatus) error {
	beneficiary, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if beneficiary.Status != models.BeneficiaryPending {
		return fmt.Errorf("%w: status is %s", ErrAlreadyDecided, beneficiary.Status)
	}

	if err := s.repo.UpdateBeneficiaryStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update beneficiary status: %w", err)
	}

	s.logger.Info("beneficiary registration decided",
		zap.String("beneficiary_id", id),
		zap.String("status", string(status)))
	return nil
}

func (s *Service) get(ctx context.Context, id string) (*models.Beneficiary, error) {
	beneficiary, err := s.repo.GetBeneficiaryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load beneficiary %s: %w", id, err)
	}
	if beneficiary == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return beneficiary, nil
}
