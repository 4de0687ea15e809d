package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lojasocial/backend/internal/domain/models"
)

// BeneficiaryRepository defines the persistence operations for beneficiaries.
type BeneficiaryRepository interface {
	InsertBeneficiary(ctx context.Context, beneficiary models.Beneficiary) error
	GetBeneficiaryByID(ctx context.Context, id string) (*models.Beneficiary, error)
	ListBeneficiaries(ctx context.Context, status models.BeneficiaryStatus) ([]models.Beneficiary, error)
	UpdateBeneficiaryStatus(ctx context.Context, id string, status models.BeneficiaryStatus) error
}

// MongoBeneficiaryRepository implements BeneficiaryRepository on top of the shared Store.
type MongoBeneficiaryRepository struct {
	store *Store
}

// NewBeneficiaryRepository builds a beneficiary repository.
func NewBeneficiaryRepository(store *Store) *MongoBeneficiaryRepository {
	return &MongoBeneficiaryRepository{store: store}
}

// InsertBeneficiary stores a new registration.
func (r *MongoBeneficiaryRepository) InsertBeneficiary(ctx context.Context, beneficiary models.Beneficiary) error {
	if _, err := r.store.collection(beneficiariesColl).InsertOne(ctx, beneficiary); err != nil {
		return fmt.Errorf("insert beneficiary: %w", err)
	}
	return nil
}

// GetBeneficiaryByID returns a single beneficiary, or nil when absent.
func (r *MongoBeneficiaryRepository) GetBeneficiaryByID(ctx context.Context, id string) (*models.Beneficiary, error) {
	var beneficiary models.Beneficiary
	err := r.store.collection(beneficiariesColl).FindOne(ctx, bson.M{"_id": id}).Decode(&beneficiary)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find beneficiary %s: %w", id, err)
	}
	return &beneficiary, nil
}

// ListBeneficiaries returns beneficiaries, optionally filtered by status.
func (r *MongoBeneficiaryRepository) ListBeneficiaries(ctx context.Context, status models.BeneficiaryStatus) ([]models.Beneficiary, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.store.collection(beneficiariesColl).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find beneficiaries: %w", err)
	}
	defer cursor.Close(ctx)

	var beneficiaries []models.Beneficiary
	if err := cursor.All(ctx, &beneficiaries); err != nil {
		return nil, fmt.Errorf("decode beneficiaries: %w", err)
	}
	return beneficiaries, nil
}

// UpdateBeneficiaryStatus writes the status and refreshes the update timestamp.
func (r *MongoBeneficiaryRepository) UpdateBeneficiaryStatus(ctx context.Context, id string, status models.BeneficiaryStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}
	res, err := r.store.collection(beneficiariesColl).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update beneficiary %s status: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update beneficiary %s status: no document matched", id)
	}
	return nil
}
