package allocation

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lojasocial/backend/internal/config"
	"github.com/lojasocial/backend/internal/domain/models"
)

type fakeStock struct {
	batches map[string]*models.StockBatch
	reads   int
	writes  int
	// staleRemaining forces that many quantity writes to fail with
	// models.ErrStaleQuantity before writes start succeeding again.
	staleRemaining int
}

func newFakeStock(batches ...models.StockBatch) *fakeStock {
	s := &fakeStock{batches: make(map[string]*models.StockBatch)}
	for _, b := range batches {
		batch := b
		s.batches[b.ID] = &batch
	}
	return s
}

func (s *fakeStock) GetBatchesByProduct(_ context.Context, productID string) ([]models.StockBatch, error) {
	s.reads++
	var out []models.StockBatch
	for _, b := range s.batches {
		if b.ProductID == productID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStock) UpdateBatchQuantity(_ context.Context, batchID string, expected, newQuantity int) error {
	if s.staleRemaining > 0 {
		s.staleRemaining--
		return fmt.Errorf("batch %s: %w", batchID, models.ErrStaleQuantity)
	}

	batch, ok := s.batches[batchID]
	if !ok {
		return fmt.Errorf("unknown batch %s", batchID)
	}
	if batch.Quantity != expected {
		return fmt.Errorf("batch %s: %w", batchID, models.ErrStaleQuantity)
	}

	batch.Quantity = newQuantity
	s.writes++
	return nil
}

func (s *fakeStock) quantity(t *testing.T, batchID string) int {
	t.Helper()
	batch, ok := s.batches[batchID]
	require.True(t, ok, "batch %s missing", batchID)
	return batch.Quantity
}

type fakeDeliveries struct {
	deliveries   map[string]*models.DeliveryRecord
	statusWrites int
}

func newFakeDeliveries(deliveries ...models.DeliveryRecord) *fakeDeliveries {
	d := &fakeDeliveries{deliveries: make(map[string]*models.DeliveryRecord)}
	for _, record := range deliveries {
		delivery := record
		d.deliveries[record.ID] = &delivery
	}
	return d
}

func (d *fakeDeliveries) GetDeliveryByID(_ context.Context, id string) (*models.DeliveryRecord, error) {
	delivery, ok := d.deliveries[id]
	if !ok {
		return nil, nil
	}
	copied := *delivery
	return &copied, nil
}

func (d *fakeDeliveries) UpdateDeliveryStatus(_ context.Context, id string, status models.DeliveryStatus) error {
	delivery, ok := d.deliveries[id]
	if !ok {
		return fmt.Errorf("unknown delivery %s", id)
	}
	delivery.Status = status
	d.statusWrites++
	return nil
}

type fakeTxn struct {
	beforeCommit func()
}

func (f *fakeTxn) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.beforeCommit != nil {
		f.beforeCommit()
	}
	return fn(ctx)
}

func newTestAllocator(stock *fakeStock, deliveries *fakeDeliveries, txn *fakeTxn, policy models.ShortfallPolicy) *Allocator {
	if txn == nil {
		txn = &fakeTxn{}
	}
	cfg := config.AllocationConfig{ShortfallPolicy: policy, MaxRetries: 3}
	return NewAllocator(stock, deliveries, txn, cfg, nil)
}

func scheduledDelivery(id string, items map[string]int) models.DeliveryRecord {
	return models.DeliveryRecord{
		ID:            id,
		BeneficiaryID: "ben-1",
		ScheduledDate: time.Now(),
		Status:        models.DeliveryScheduled,
		Items:         items,
		CreatedBy:     "staff-1",
	}
}

func TestConfirmDelivery_FEFOOrder(t *testing.T) {
	now := time.Now()
	stock := newFakeStock(
		models.StockBatch{ID: "A", ProductID: "rice", Quantity: 5, ExpiryDate: now.Add(10 * 24 * time.Hour)},
		models.StockBatch{ID: "B", ProductID: "rice", Quantity: 5, ExpiryDate: now.Add(5 * 24 * time.Hour)},
	)
	deliveries := newFakeDeliveries(scheduledDelivery("d1", map[string]int{"rice": 7}))
	allocator := newTestAllocator(stock, deliveries, nil, models.ShortfallAllow)

	result, err := allocator.ConfirmDelivery(context.Background(), "d1")
	require.NoError(t, err)
	require.True(t, result.Fulfilled())

	// Earlier-expiring B drains completely before A is touched.
	require.Len(t, result.Draws, 2)
	assert.Equal(t, "B", result.Draws[0].BatchID)
	assert.Equal(t, 5, result.Draws[0].Taken)
	assert.Equal(t, "A", result.Draws[1].BatchID)
	assert.Equal(t, 2, result.Draws[1].Taken)

	assert.Equal(t, 0, stock.quantity(t, "B"))
	assert.Equal(t, 3, stock.quantity(t, "A"))
	assert.Equal(t, models.DeliveryDelivered, deliveries.deliveries["d1"].Status)
}

func TestConfirmDelivery_Idempotent(t *testing.T) {
	now := time.Now()
	stock := newFakeStock(
		models.StockBatch{ID: "A", ProductID: "beans", Quantity: 10, ExpiryDate: now.Add(24 * time.Hour)},
	)
	deliveries := newFakeDeliveries(scheduledDelivery("d1", map[string]int{"beans": 4}))
	allocator := newTestAllocator(stock, deliveries, nil, models.ShortfallAllow)

	first, err := allocator.ConfirmDelivery(context.Background(), "d1")
	require.NoError(t, err)
	require.False(t, first.AlreadyDelivered)
	require.Equal(t, 6, stock.quantity(t, "A"))
	writesAfterFirst := stock.writes

	second, err := allocator.ConfirmDelivery(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, second.AlreadyDelivered)
	assert.Empty(t, second.Draws)
	assert.Equal(t, 6, stock.quantity(t, "A"))
	assert.Equal(t, writesAfterFirst, stock.writes)
}

func TestConfirmDelivery_RefusesClosedDelivery(t *testing.T) {
	now := time.Now()
	for _, status := range []models.DeliveryStatus{models.DeliveryCancelled, models.DeliveryRejected} {
		stock := newFakeStock(
			models.StockBatch{ID: "A", ProductID: "rice", Quantity: 5, ExpiryDate: now.Add(24 * time.Hour)},
		)
		delivery := scheduledDelivery("d1", map[string]int{"rice": 2})
		delivery.Status = status
		deliveries := newFakeDeliveries(delivery)
		allocator := newTestAllocator(stock, deliveries, nil, models.ShortfallAllow)

		_, err := allocator.ConfirmDelivery(context.Background(), "d1")
		require.ErrorIs(t, err, ErrDeliveryClosed)
		assert.Equal(t, 5, stock.quantity(t, "A"))
		assert.Equal(t, 0, stock.writes)
		assert.Equal(t, 0, deliveries.statusWrites)
		assert.Equal(t, status, deliveries.deliveries["d1"].Status)
	}
}

func TestConfirmDelivery_ConcurrentCancelDetected(t *testing.T) {
	now := time.Now()
	stock := newFakeStock(
		models.StockBatch{ID: "A", ProductID: "rice", Quantity: 5, ExpiryDate: now.Add(24 * time.Hour)},
	)
	deliveries := newFakeDeliveries(scheduledDelivery("d1", map[string]int{"rice": 2}))
	txn := &fakeTxn{beforeCommit: func() {
		deliveries.deliveries["d1"].Status = models.DeliveryCancelled
	}}
	allocator := newTestAllocator(stock, deliveries, txn, models.ShortfallAllow)

	_, err := allocator.ConfirmDelivery(context.Background(), "d1")
	require.ErrorIs(t, err, ErrDeliveryClosed)
	assert.Equal(t, 5, stock.quantity(t, "A"))
	assert.Equal(t, 0, stock.writes)
	assert.Equal(t, models.DeliveryCancelled, deliveries.deliveries["d1"].Status)
}

func TestConfirmDelivery_ExactExhaustion(t *testing.T) {
	now := time.Now()
	stock := newFakeStock(
		models.StockBatch{ID: "A", ProductID: "oil", Quantity: 3, ExpiryDate: now.Add(24 * time.Hour)},
		models.StockBatch{ID: "B", ProductID: "oil", Quantity: 4, ExpiryDate: now.Add(48 * time.Hour)},
	)
	deliveries := newFakeDeliveries(scheduledDelivery("d1", map[string]int{"oil": 7}))
	allocator := newTestAllocator(stock, deliveries, nil, models.ShortfallAllow)

	result, err := allocator.ConfirmDelivery(context.Background(), "d1")
	require.NoError(t, err)
	require.True(t, result.Fulfilled())
	assert.Equal(t, 0, stock.quantity(t, "A"))
	assert.Equal(t, 0, stock.quantity(t, "B"))
}

func TestConfirmDelivery_UnderSupplyStillDelivers(t *testing.T) {
	now := time.Now()
	stock := newFakeStock(
		models.StockBatch{ID: "A", ProductID: "milk", Quantity: 2, ExpiryDate: now.Add(24 * time.Hour)},
		models.StockBatch{ID: "B", ProductID: "milk", Quantity: 3, ExpiryDate: now.Add(48 * time.Hour)},
	)
	deliveries := newFakeDeliveries(scheduledDelivery("d1", map[string]int{"milk": 9}))
	allocator := newTestAllocator(stock, deliveries, nil, models.ShortfallAllow)

	result, err := allocator.ConfirmDelivery(context.Background(), "d1")
	require.NoError(t, err)
	require.False(t, result.Fulfilled())
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, "milk", result.Shortfalls[0].ProductID)
	assert.Equal(t, 9, result.Shortfalls[0].Requested)
	assert.Equal(t, 4, result.Shortfalls[0].Missing)

	assert.Equal(t, 0, stock.quantity(t, "A"))
	assert.Equal(t, 0, stock.quantity(t, "B"))
	assert.Equal(t, models.DeliveryDelivered, deliveries.deliveries["d1"].Status)
}

func TestConfirmDelivery_RejectPolicyWritesNothing(t *testing.T) {
	now := time.Now()
	stock := newFakeStock(
		models.StockBatch{ID: "A", ProductID: "milk", Quantity: 2, ExpiryDate: now.Add(24 * time.Hour)},
	)
	deliveries := newFakeDeliveries(scheduledDelivery("d1", map[string]int{"milk": 5}))
	allocator := newTestAllocator(stock, deliveries, nil, models.ShortfallReject)

	_, err := allocator.ConfirmDelivery(context.Background(), "d1")
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 2, stock.quantity(t, "A"))
	assert.Equal(t, 0, stock.writes)
	assert.Equal(t, 0, deliveries.statusWrites)
	assert.Equal(t, models.DeliveryScheduled, deliveries.deliveries["d1"].Status)
}

func TestConfirmDelivery_MultiProductIndependence(t *testing.T) {
	now := time.Now()
	stock := newFakeStock(
		models.StockBatch{ID: "A", ProductID: "rice", Quantity: 5, ExpiryDate: now.Add(24 * time.Hour)},
		models.StockBatch{ID: "B", ProductID: "beans", Quantity: 5, ExpiryDate: now.Add(24 * time.Hour)},
		models.StockBatch{ID: "C", ProductID: "sugar", Quantity: 5, ExpiryDate: now.Add(time.Hour)},
	)
	deliveries := newFakeDeliveries(scheduledDelivery("d1", map[string]int{"rice": 2, "beans": 3}))
	allocator := newTestAllocator(stock, deliveries, nil, models.ShortfallAllow)

	result, err := allocator.ConfirmDelivery(context.Background(), "d1")
	require.NoError(t, err)
	require.True(t, result.Fulfilled())

	assert.Equal(t, 3, stock.quantity(t, "A"))
	assert.Equal(t, 2, stock.quantity(t, "B"))
	// Unrelated product untouched even with the earliest expiry of all.
	assert.Equal(t, 5, stock.quantity(t, "C"))
}

func TestConfirmDelivery_NotFound(t *testing.T) {
	stock := newFakeStock(
		models.StockBatch{ID: "A", ProductID: "rice", Quantity: 5, ExpiryDate: time.Now().Add(24 * time.Hour)},
	)
	deliveries := newFakeDeliveries()
	allocator := newTestAllocator(stock, deliveries, nil, models.ShortfallAllow)

	_, err := allocator.ConfirmDelivery(context.Background(), "missing")
	require.ErrorIs(t, err, ErrDeliveryNotFound)
	assert.Equal(t, 0, stock.reads)
	assert.Equal(t, 0, stock.writes)
	assert.Equal(t, 0, deliveries.statusWrites)
}

func TestConfirmDelivery_SkipsEmptyBatches(t *testing.T) {
	now := time.Now()
	stock := newFakeStock(
		models.StockBatch{ID: "A", ProductID: "rice", Quantity: 0, ExpiryDate: now.Add(time.Hour)},
		models.StockBatch{ID: "B", ProductID: "rice", Quantity: 4, ExpiryDate: now.Add(48 * time.Hour)},
	)
	deliveries := newFakeDeliveries(scheduledDelivery("d1", map[string]int{"rice": 3}))
	allocator := newTestAllocator(stock, deliveries, nil, models.ShortfallAllow)

	result, err := allocator.ConfirmDelivery(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, result.Draws, 1)
	assert.Equal(t, "B", result.Draws[0].BatchID)
	assert.Equal(t, 0, stock.quantity(t, "A"))
	assert.Equal(t, 1, stock.quantity(t, "B"))
}

func TestConfirmDelivery_ReplansAfterStaleWrite(t *testing.T) {
	now := time.Now()
	stock := newFakeStock(
		models.StockBatch{ID: "A", ProductID: "rice", Quantity: 5, ExpiryDate: now.Add(24 * time.Hour)},
	)
	stock.staleRemaining = 1
	deliveries := newFakeDeliveries(scheduledDelivery("d1", map[string]int{"rice": 2}))
	allocator := newTestAllocator(stock, deliveries, nil, models.ShortfallAllow)

	result, err := allocator.ConfirmDelivery(context.Background(), "d1")
	require.NoError(t, err)
	require.True(t, result.Fulfilled())
	assert.Equal(t, 3, stock.quantity(t, "A"))
}

func TestConfirmDelivery_ConflictRetriesExhausted(t *testing.T) {
	now := time.Now()
	stock := newFakeStock(
		models.StockBatch{ID: "A", ProductID: "rice", Quantity: 5, ExpiryDate: now.Add(24 * time.Hour)},
	)
	stock.staleRemaining = 100
	deliveries := newFakeDeliveries(scheduledDelivery("d1", map[string]int{"rice": 2}))
	allocator := newTestAllocator(stock, deliveries, nil, models.ShortfallAllow)

	_, err := allocator.ConfirmDelivery(context.Background(), "d1")
	require.ErrorIs(t, err, ErrAllocationConflict)
	assert.Equal(t, 5, stock.quantity(t, "A"))
	assert.Equal(t, models.DeliveryScheduled, deliveries.deliveries["d1"].Status)
}

func TestConfirmDelivery_ConcurrentConfirmationDetected(t *testing.T) {
	now := time.Now()
	stock := newFakeStock(
		models.StockBatch{ID: "A", ProductID: "rice", Quantity: 5, ExpiryDate: now.Add(24 * time.Hour)},
	)
	deliveries := newFakeDeliveries(scheduledDelivery("d1", map[string]int{"rice": 2}))
	txn := &fakeTxn{beforeCommit: func() {
		deliveries.deliveries["d1"].Status = models.DeliveryDelivered
	}}
	allocator := newTestAllocator(stock, deliveries, txn, models.ShortfallAllow)

	result, err := allocator.ConfirmDelivery(context.Background(), "d1")
	require.NoError(t, err)
	assert.True(t, result.AlreadyDelivered)
	assert.Equal(t, 5, stock.quantity(t, "A"))
	assert.Equal(t, 0, stock.writes)
}
