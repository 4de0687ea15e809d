package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lojasocial/backend/internal/domain/models"
	repo "github.com/lojasocial/backend/internal/repository/mongodb"
	"github.com/lojasocial/backend/internal/service/allocation"
	"github.com/lojasocial/backend/pkg/clients/notify"
)

// ErrNotFound indicates the delivery id does not resolve to a record.
var ErrNotFound = errors.New("delivery not found")

// ErrInvalidDelivery indicates the scheduling payload failed validation.
var ErrInvalidDelivery = errors.New("invalid delivery")

// ErrInvalidTransition indicates the requested status change is not legal
// from the delivery's current state.
var ErrInvalidTransition = errors.New("invalid delivery status transition")

// ErrBeneficiaryNotEligible indicates the beneficiary is missing or not approved.
var ErrBeneficiaryNotEligible = errors.New("beneficiary not eligible for deliveries")

// ScheduleRequest carries the data needed to schedule a delivery.
type ScheduleRequest struct {
	BeneficiaryID string
	ScheduledDate time.Time
	Items         map[string]int
	Observations  string
	CreatedBy     string
	// UnderAnalysis starts the delivery in UNDER_ANALYSIS instead of
	// SCHEDULED; used when the beneficiary requests it themselves.
	UnderAnalysis bool
}

// Confirmer is the allocation capability the delivery service delegates to.
type Confirmer interface {
	ConfirmDelivery(ctx context.Context, deliveryID string) (*models.AllocationResult, error)
}

// Service manages the delivery lifecycle. Every transition except the
// DELIVERED one is a plain status write; DELIVERED goes through the stock
// allocator so the deduction and the status change commit together.
type Service struct {
	deliveries    repo.DeliveryRepository
	beneficiaries repo.BeneficiaryRepository
	confirmer     Confirmer
	notifier      notify.Client
	logger        *zap.Logger
	now           func() time.Time
}

// NewService wires a delivery service. notifier may be nil to disable alerts.
func NewService(deliveries repo.DeliveryRepository, beneficiaries repo.BeneficiaryRepository, confirmer Confirmer, notifier notify.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		deliveries:    deliveries,
		beneficiaries: beneficiaries,
		confirmer:     confirmer,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
}

// Schedule creates a delivery for an approved beneficiary.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*models.DeliveryRecord, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidDelivery)
	}
	for productID, quantity := range req.Items {
		if productID == "" || quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantities must be positive", ErrInvalidDelivery)
		}
	}

	beneficiary, err := s.beneficiaries.GetBeneficiaryByID(ctx, req.BeneficiaryID)
	if err != nil {
		return nil, fmt.Errorf("load beneficiary %s: %w", req.BeneficiaryID, err)
	}
	if beneficiary == nil || !beneficiary.CanReceiveDeliveries() {
		return nil, fmt.Errorf("%w: %s", ErrBeneficiaryNotEligible, req.BeneficiaryID)
	}

	status := models.DeliveryScheduled
	if req.UnderAnalysis {
		status = models.DeliveryUnderAnalysis
	}

	scheduledDate := req.ScheduledDate
	if scheduledDate.IsZero() {
		scheduledDate = s.now().UTC()
	}

	delivery := models.DeliveryRecord{
		ID:            uuid.New().String(),
		BeneficiaryID: req.BeneficiaryID,
		ScheduledDate: scheduledDate,
		Date:          s.now().UTC(),
		Status:        status,
		Items:         req.Items,
		Observations:  req.Observations,
		CreatedBy:     req.CreatedBy,
	}

	if err := s.deliveries.InsertDelivery(ctx, delivery); err != nil {
		return nil, fmt.Errorf("schedule delivery: %w", err)
	}

	s.logger.Info("delivery scheduled",
		zap.String("delivery_id", delivery.ID),
		zap.String("beneficiary_id", delivery.BeneficiaryID),
		zap.String("status", string(delivery.Status)))
	return &delivery, nil
}

// Approve moves a beneficiary-requested delivery from UNDER_ANALYSIS to SCHEDULED.
func (s *Service) Approve(ctx context.Context, id string) error {
	delivery, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if delivery.Status != models.DeliveryUnderAnalysis {
		return fmt.Errorf("%w: cannot approve from %s", ErrInvalidTransition, delivery.Status)
	}
	return s.writeStatus(ctx, id, models.DeliveryScheduled)
}

// Cancel marks a pending delivery as cancelled. Pure status write.
func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.terminate(ctx, id, models.DeliveryCancelled)
}

// Reject marks a pending delivery as rejected. Pure status write.
func (s *Service) Reject(ctx context.Context, id string) error {
	return s.terminate(ctx, id, models.DeliveryRejected)
}

// Confirm marks the delivery as delivered and deducts stock FEFO through
// the allocator. Safe to retry: a repeat confirmation is a no-op.
func (s *Service) Confirm(ctx context.Context, id string) (*models.AllocationResult, error) {
	result, err := s.confirmer.ConfirmDelivery(ctx, id)
	if err != nil {
		if errors.Is(err, allocation.ErrDeliveryNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if errors.Is(err, allocation.ErrDeliveryClosed) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}
		return nil, err
	}

	if !result.AlreadyDelivered {
		s.alertConfirmed(ctx, result)
	}
	return result, nil
}

// Get returns one delivery.
func (s *Service) Get(ctx context.Context, id string) (*models.DeliveryRecord, error) {
	return s.get(ctx, id)
}

// List returns every delivery.
func (s *Service) List(ctx context.Context) ([]models.DeliveryRecord, error) {
	deliveries, err := s.deliveries.ListDeliveries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return deliveries, nil
}

// ListByBeneficiary returns one beneficiary's delivery history.
func (s *Service) ListByBeneficiary(ctx context.Context, beneficiaryID string) ([]models.DeliveryRecord, error) {
	deliveries, err := s.deliveries.ListDeliveriesByBeneficiary(ctx, beneficiaryID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries for beneficiary %s: %w", beneficiaryID, err)
	}
	return deliveries, nil
}

func (s *Service) terminate(ctx context.Context, id string, status models.DeliveryStatus) error {
	delivery, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if delivery.Status.Terminal() {
		return fmt.Errorf("%w: delivery is already %s", ErrInvalidTransition, delivery.Status)
	}
	return s.writeStatus(ctx, id, status)
}

func (s *Service) writeStatus(ctx context.Context, id string, status models.DeliveryStatus) error {
	if err := s.deliveries.UpdateDeliveryStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update delivery status: %w", err)
	}
	s.logger.Info("delivery status updated", zap.String("delivery_id", id), zap.String("status", string(status)))
	return nil
}

func (s *Service) get(ctx context.Context, id string) (*models.DeliveryRecord, error) {
	delivery, err := s.deliveries.GetDeliveryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load delivery %s: %w", id, err)
	}
	if delivery == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return delivery, nil
}

// alertConfirmed is best effort; a webhook failure never fails the confirmation.
func (s *Service) alertConfirmed(ctx context.Context, result *models.AllocationResult) {
	if s.notifier == nil {
		return
	}

	message := fmt.Sprintf("Delivery %s confirmed, %d batch(es) updated.", result.DeliveryID, len(result.Draws))
	if !result.Fulfilled() {
		message += fmt.Sprintf(" %d product(s) short on stock.", len(result.Shortfalls))
	}

	alert := notify.Alert{
		Event:   "delivery.confirmed",
		Title:   "Delivery confirmed",
		Message: message,
		Fields:  map[string]string{"delivery_id": result.DeliveryID},
	}
	if err := s.notifier.SendAlert(ctx, alert); err != nil {
		s.logger.Warn("failed sending delivery confirmation alert",
			zap.String("delivery_id", result.DeliveryID),
			zap.Error(err))
	}
}
