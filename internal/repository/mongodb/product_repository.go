package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lojasocial/backend/internal/domain/models"
)

// ProductRepository defines the persistence operations for products.
type ProductRepository interface {
	InsertProduct(ctx context.Context, product models.Product) error
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// MongoProductRepository implements ProductRepository on top of the shared Store.
type MongoProductRepository struct {
	store *Store
}

// NewProductRepository builds a product repository.
func NewProductRepository(store *Store) *MongoProductRepository {
	return &MongoProductRepository{store: store}
}

// InsertProduct stores a new product.
func (r *MongoProductRepository) InsertProduct(ctx context.Context, product models.Product) error {
	if _, err := r.store.collection(productsColl).InsertOne(ctx, product); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetProductByID returns a single product, or nil when absent.
func (r *MongoProductRepository) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.store.collection(productsColl).FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	return &product, nil
}

// ListProducts returns every product sorted by name.
func (r *MongoProductRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.store.collection(productsColl).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}
