package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lojasocial/backend/internal/domain/models"
)

// DeliveryRepository defines the persistence operations for deliveries.
type DeliveryRepository interface {
	InsertDelivery(ctx context.Context, delivery models.DeliveryRecord) error
	GetDeliveryByID(ctx context.Context, id string) (*models.DeliveryRecord, error)
	ListDeliveries(ctx context.Context) ([]models.DeliveryRecord, error)
	ListDeliveriesByBeneficiary(ctx context.Context, beneficiaryID string) ([]models.DeliveryRecord, error)
	UpdateDeliveryStatus(ctx context.Context, id string, status models.DeliveryStatus) error
}

// MongoDeliveryRepository implements DeliveryRepository on top of the shared Store.
type MongoDeliveryRepository struct {
	store *Store
}

// NewDeliveryRepository builds a delivery repository.
func NewDeliveryRepository(store *Store) *MongoDeliveryRepository {
	return &MongoDeliveryRepository{store: store}
}

// InsertDelivery stores a newly scheduled delivery.
func (r *MongoDeliveryRepository) InsertDelivery(ctx context.Context, delivery models.DeliveryRecord) error {
	if _, err := r.store.collection(deliveriesColl).InsertOne(ctx, delivery); err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// GetDeliveryByID returns a single delivery, or nil when absent.
func (r *MongoDeliveryRepository) GetDeliveryByID(ctx context.Context, id string) (*models.DeliveryRecord, error) {
	var delivery models.DeliveryRecord
	err := r.store.collection(deliveriesColl).FindOne(ctx, bson.M{"_id": id}).Decode(&delivery)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find delivery %s: %w", id, err)
	}
	return &delivery, nil
}

// ListDeliveries returns every delivery, most recently scheduled first.
func (r *MongoDeliveryRepository) ListDeliveries(ctx context.Context) ([]models.DeliveryRecord, error) {
	return r.findDeliveries(ctx, bson.M{})
}

// ListDeliveriesByBeneficiary returns the delivery history of one beneficiary.
func (r *MongoDeliveryRepository) ListDeliveriesByBeneficiary(ctx context.Context, beneficiaryID string) ([]models.DeliveryRecord, error) {
	return r.findDeliveries(ctx, bson.M{"beneficiary_id": beneficiaryID})
}

// UpdateDeliveryStatus writes the status field of one delivery.
func (r *MongoDeliveryRepository) UpdateDeliveryStatus(ctx context.Context, id string, status models.DeliveryStatus) error {
	update := bson.M{"$set": bson.M{"status": status}}
	res, err := r.store.collection(deliveriesColl).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update delivery %s status: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update delivery %s status: no document matched", id)
	}
	return nil
}

func (r *MongoDeliveryRepository) findDeliveries(ctx context.Context, filter bson.M) ([]models.DeliveryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_date", Value: -1}})
	cursor, err := r.store.collection(deliveriesColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find deliveries: %w", err)
	}
	defer cursor.Close(ctx)

	var deliveries []models.DeliveryRecord
	if err := cursor.All(ctx, &deliveries); err != nil {
		return nil, fmt.Errorf("decode deliveries: %w", err)
	}
	return deliveries, nil
}
