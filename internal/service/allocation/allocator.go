package allocation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lojasocial/backend/internal/config"
	"github.com/lojasocial/backend/internal/domain/models"
)

// ErrDeliveryNotFound indicates the delivery id does not resolve to a record.
var ErrDeliveryNotFound = errors.New("delivery not found")

// ErrInsufficientStock indicates the reject policy refused a confirmation
// whose requested quantities exceed the available stock.
var ErrInsufficientStock = errors.New("insufficient stock for delivery")

// ErrAllocationConflict indicates concurrent stock mutations kept
// invalidating the allocation plan until the retry budget ran out.
var ErrAllocationConflict = errors.New("allocation aborted after concurrent stock updates")

// ErrDeliveryClosed indicates the delivery was cancelled or rejected and
// can no longer be confirmed.
var ErrDeliveryClosed = errors.New("delivery is closed")

// errConfirmedConcurrently aborts a transaction whose delivery was marked
// delivered by another confirmation between planning and committing.
var errConfirmedConcurrently = errors.New("delivery confirmed concurrently")

// StockStore is the slice of stock persistence the allocator needs.
type StockStore interface {
	GetBatchesByProduct(ctx context.Context, productID string) ([]models.StockBatch, error)
	UpdateBatchQuantity(ctx context.Context, batchID string, expected, newQuantity int) error
}

// DeliveryStore is the slice of delivery persistence the allocator needs.
type DeliveryStore interface {
	GetDeliveryByID(ctx context.Context, id string) (*models.DeliveryRecord, error)
	UpdateDeliveryStatus(ctx context.Context, id string, status models.DeliveryStatus) error
}

// TxnRunner executes fn as a single atomic unit against the storage backend.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Allocator marks deliveries as delivered and deducts the requested
// quantities from stock in FEFO order: within each product, batches are
// consumed ascending by expiry date so soon-to-expire stock leaves first.
type Allocator struct {
	stock      StockStore
	deliveries DeliveryStore
	txn        TxnRunner
	policy     models.ShortfallPolicy
	maxRetries int
	logger     *zap.Logger
}

// NewAllocator wires a stock allocator.
func NewAllocator(stock StockStore, deliveries DeliveryStore, txn TxnRunner, cfg config.AllocationConfig, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}

	policy := cfg.ShortfallPolicy
	if policy == "" {
		policy = models.ShortfallAllow
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 3
	}

	return &Allocator{
		stock:      stock,
		deliveries: deliveries,
		txn:        txn,
		policy:     policy,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// ConfirmDelivery marks the delivery as delivered and applies the FEFO
// stock deductions. A delivery already in DELIVERED state is a no-op, so
// retried confirmations never deduct twice; cancelled and rejected
// deliveries are refused with ErrDeliveryClosed. All batch writes and the
// status write commit inside one transaction; the status write goes last.
func (a *Allocator) ConfirmDelivery(ctx context.Context, deliveryID string) (*models.AllocationResult, error) {
	delivery, err := a.deliveries.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("load delivery %s: %w", deliveryID, err)
	}
	if delivery == nil {
		return nil, fmt.Errorf("%w: %s", ErrDeliveryNotFound, deliveryID)
	}

	if delivery.Status == models.DeliveryDelivered {
		a.logger.Info("delivery already confirmed, skipping deduction", zap.String("delivery_id", deliveryID))
		return &models.AllocationResult{DeliveryID: deliveryID, AlreadyDelivered: true}, nil
	}
	if delivery.Status.Terminal() {
		return nil, fmt.Errorf("%w: delivery %s is %s", ErrDeliveryClosed, deliveryID, delivery.Status)
	}

	var lastErr error
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		plan, err := a.plan(ctx, delivery)
		if err != nil {
			return nil, err
		}

		if a.policy == models.ShortfallReject && !plan.Fulfilled() {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, describeShortfalls(plan.Shortfalls))
		}

		err = a.commit(ctx, delivery.ID, plan)
		if err == nil {
			a.logger.Info("delivery confirmed",
				zap.String("delivery_id", delivery.ID),
				zap.Int("batches_touched", len(plan.Draws)),
				zap.Int("shortfalls", len(plan.Shortfalls)))
			return plan, nil
		}
		if errors.Is(err, errConfirmedConcurrently) {
			return &models.AllocationResult{DeliveryID: delivery.ID, AlreadyDelivered: true}, nil
		}
		if !errors.Is(err, models.ErrStaleQuantity) {
			return nil, err
		}

		lastErr = err
		a.logger.Warn("stock changed while committing allocation, replanning",
			zap.String("delivery_id", delivery.ID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return nil, fmt.Errorf("%w: %v", ErrAllocationConflict, lastErr)
}

// plan computes the FEFO allocation without writing anything. Products are
// walked in ascending id order so retries see a deterministic plan.
func (a *Allocator) plan(ctx context.Context, delivery *models.DeliveryRecord) (*models.AllocationResult, error) {
	result := &models.AllocationResult{DeliveryID: delivery.ID}

	productIDs := make([]string, 0, len(delivery.Items))
	for productID := range delivery.Items {
		productIDs = append(productIDs, productID)
	}
	sort.Strings(productIDs)

	for _, productID := range productIDs {
		requested := delivery.Items[productID]
		if requested <= 0 {
			continue
		}

		batches, err := a.stock.GetBatchesByProduct(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("load stock for product %s: %w", productID, err)
		}

		available := make([]models.StockBatch, 0, len(batches))
		for _, batch := range batches {
			if batch.Quantity > 0 {
				available = append(available, batch)
			}
		}
		sort.SliceStable(available, func(i, j int) bool {
			return available[i].ExpiryDate.Before(available[j].ExpiryDate)
		})

		remaining := requested
		for _, batch := range available {
			if remaining <= 0 {
				break
			}
			taken := batch.Quantity
			if taken > remaining {
				taken = remaining
			}
			result.Draws = append(result.Draws, models.BatchDraw{
				BatchID:   batch.ID,
				ProductID: productID,
				Taken:     taken,
				Remaining: batch.Quantity - taken,
			})
			remaining -= taken
		}

		if remaining > 0 {
			result.Shortfalls = append(result.Shortfalls, models.Shortfall{
				ProductID: productID,
				Requested: requested,
				Missing:   remaining,
			})
		}
	}

	return result, nil
}

// commit applies the plan atomically. Every batch write is conditional on
// the quantity observed during planning; any mismatch aborts the whole
// transaction with models.ErrStaleQuantity.
func (a *Allocator) commit(ctx context.Context, deliveryID string, plan *models.AllocationResult) error {
	return a.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := a.deliveries.GetDeliveryByID(txCtx, deliveryID)
		if err != nil {
			return fmt.Errorf("reload delivery %s: %w", deliveryID, err)
		}
		if current == nil {
			return fmt.Errorf("%w: %s", ErrDeliveryNotFound, deliveryID)
		}
		if current.Status == models.DeliveryDelivered {
			return errConfirmedConcurrently
		}
		if current.Status.Terminal() {
			return fmt.Errorf("%w: delivery %s is %s", ErrDeliveryClosed, deliveryID, current.Status)
		}

		for _, draw := range plan.Draws {
			expected := draw.Taken + draw.Remaining
			if err := a.stock.UpdateBatchQuantity(txCtx, draw.BatchID, expected, draw.Remaining); err != nil {
				return err
			}
		}

		return a.deliveries.UpdateDeliveryStatus(txCtx, deliveryID, models.DeliveryDelivered)
	})
}

func describeShortfalls(shortfalls []models.Shortfall) string {
	parts := make([]string, 0, len(shortfalls))
	for _, s := range shortfalls {
		parts = append(parts, fmt.Sprintf("product %s missing %d of %d", s.ProductID, s.Missing, s.Requested))
	}
	return strings.Join(parts, ", ")
}
