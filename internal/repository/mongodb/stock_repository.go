package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lojasocial/backend/internal/domain/models"
)

// StockRepository defines the persistence operations for stock batches.
type StockRepository interface {
	InsertBatch(ctx context.Context, batch models.StockBatch) error
	GetBatchByID(ctx context.Context, id string) (*models.StockBatch, error)
	ListBatches(ctx context.Context) ([]models.StockBatch, error)
	GetBatchesByProduct(ctx context.Context, productID string) ([]models.StockBatch, error)
	ListExpiringBefore(ctx context.Context, deadline time.Time) ([]models.StockBatch, error)
	UpdateBatchQuantity(ctx context.Context, batchID string, expected, newQuantity int) error
}

// MongoStockRepository implements StockRepository on top of the shared Store.
type MongoStockRepository struct {
	store *Store
}

// NewStockRepository builds a stock batch repository.
func NewStockRepository(store *Store) *MongoStockRepository {
	return &MongoStockRepository{store: store}
}

// InsertBatch registers a new stock batch.
func (r *MongoStockRepository) InsertBatch(ctx context.Context, batch models.StockBatch) error {
	if _, err := r.store.collection(stockBatchesColl).InsertOne(ctx, batch); err != nil {
		return fmt.Errorf("insert stock batch: %w", err)
	}
	return nil
}

// GetBatchByID returns a single batch, or nil when absent.
func (r *MongoStockRepository) GetBatchByID(ctx context.Context, id string) (*models.StockBatch, error) {
	var batch models.StockBatch
	err := r.store.collection(stockBatchesColl).FindOne(ctx, bson.M{"_id": id}).Decode(&batch)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find stock batch %s: %w", id, err)
	}
	return &batch, nil
}

// ListBatches returns the full ledger.
func (r *MongoStockRepository) ListBatches(ctx context.Context) ([]models.StockBatch, error) {
	return r.findBatches(ctx, bson.M{})
}

// GetBatchesByProduct returns every batch of the given product, earliest
// expiry first.
func (r *MongoStockRepository) GetBatchesByProduct(ctx context.Context, productID string) ([]models.StockBatch, error) {
	return r.findBatches(ctx, bson.M{"product_id": productID})
}

// ListExpiringBefore returns batches with remaining stock that expire
// strictly before the deadline.
func (r *MongoStockRepository) ListExpiringBefore(ctx context.Context, deadline time.Time) ([]models.StockBatch, error) {
	filter := bson.M{
		"expiry_date": bson.M{"$lt": deadline},
		"quantity":    bson.M{"$gt": 0},
	}
	return r.findBatches(ctx, filter)
}

// UpdateBatchQuantity sets the batch quantity only if the stored value
// still matches expected. A mismatch returns models.ErrStaleQuantity.
func (r *MongoStockRepository) UpdateBatchQuantity(ctx context.Context, batchID string, expected, newQuantity int) error {
	filter := bson.M{"_id": batchID, "quantity": expected}
	update := bson.M{"$set": bson.M{"quantity": newQuantity}}

	res, err := r.store.collection(stockBatchesColl).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update stock batch %s quantity: %w", batchID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update stock batch %s quantity: %w", batchID, models.ErrStaleQuantity)
	}
	return nil
}

func (r *MongoStockRepository) findBatches(ctx context.Context, filter bson.M) ([]models.StockBatch, error) {
	opts := options.Find().SetSort(bson.D{{Key: "expiry_date", Value: 1}})
	cursor, err := r.store.collection(stockBatchesColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find stock batches: %w", err)
	}
	defer cursor.Close(ctx)

	var batches []models.StockBatch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, fmt.Errorf("decode stock batches: %w", err)
	}
	return batches, nil
}
