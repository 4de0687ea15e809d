package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lojasocial/backend/internal/domain/models"
	repo "github.com/lojasocial/backend/internal/repository/mongodb"
)

// ErrInvalidBatch indicates the batch payload failed validation.
var ErrInvalidBatch = errors.New("invalid stock batch")

// ErrUnknownProduct indicates the batch references a product that does not exist.
var ErrUnknownProduct = errors.New("unknown product")

// ErrInvalidProduct indicates the product payload failed validation.
var ErrInvalidProduct = errors.New("invalid product")

// BatchEntry carries the data captured when stock arrives.
type BatchEntry struct {
	ProductID    string
	CampaignID   string
	Quantity     int
	ExpiryDate   time.Time
	Observations string
}

// Service manages the stock ledger.
type Service struct {
	stock    repo.StockRepository
	products repo.ProductRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a stock service.
func NewService(stock repo.StockRepository, products repo.ProductRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{stock: stock, products: products, logger: logger, now: time.Now}
}

// ProductEntry carries the data needed to register a product.
type ProductEntry struct {
	Name     string
	Category string
	Unit     string
}

// CreateProduct registers a distributable good in the catalog.
func (s *Service) CreateProduct(ctx context.Context, entry ProductEntry) (*models.Product, error) {
	if entry.Name == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrInvalidProduct)
	}
	if entry.Unit == "" {
		entry.Unit = "unit"
	}

	product := models.Product{
		ID:        uuid.New().String(),
		Name:      entry.Name,
		Category:  entry.Category,
		Unit:      entry.Unit,
		CreatedAt: s.now().UTC(),
	}

	if err := s.products.InsertProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.Info("product created", zap.String("product_id", product.ID), zap.String("name", product.Name))
	return &product, nil
}

// ListProducts returns the product catalog.
func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// RegisterBatch adds a new lot to the ledger.
func (s *Service) RegisterBatch(ctx context.Context, entry BatchEntry) (*models.StockBatch, error) {
	if entry.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidBatch)
	}
	if entry.ExpiryDate.IsZero() {
		return nil, fmt.Errorf("%w: expiry date is required", ErrInvalidBatch)
	}

	product, err := s.products.GetProductByID(ctx, entry.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", entry.ProductID, err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, entry.ProductID)
	}

	entryDate := s.now().UTC()
	if entry.ExpiryDate.Before(entryDate) {
		return nil, fmt.Errorf("%w: expiry date is in the past", ErrInvalidBatch)
	}

	batch := models.StockBatch{
		ID:           uuid.New().String(),
		ProductID:    entry.ProductID,
		CampaignID:   entry.CampaignID,
		Quantity:     entry.Quantity,
		EntryDate:    entryDate,
		ExpiryDate:   entry.ExpiryDate,
		Observations: entry.Observations,
	}

	if err := s.stock.InsertBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("register stock batch: %w", err)
	}

	s.logger.Info("stock batch registered",
		zap.String("batch_id", batch.ID),
		zap.String("product_id", batch.ProductID),
		zap.Int("quantity", batch.Quantity))
	return &batch, nil
}

// ListBatches returns the full ledger, earliest expiry first.
func (s *Service) ListBatches(ctx context.Context) ([]models.StockBatch, error) {
	batches, err := s.stock.ListBatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stock batches: %w", err)
	}
	return batches, nil
}

// ListByProduct returns one product's batches, earliest expiry first.
func (s *Service) ListByProduct(ctx context.Context, productID string) ([]models.StockBatch, error) {
	batches, err := s.stock.GetBatchesByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock batches for product %s: %w", productID, err)
	}
	return batches, nil
}

// AvailableByProduct sums the remaining units of one product across batches.
func (s *Service) AvailableByProduct(ctx context.Context, productID string) (int, error) {
	batches, err := s.ListByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, batch := range batches {
		if batch.Quantity > 0 {
			total += batch.Quantity
		}
	}
	return total, nil
}

// ExpiringBefore returns non-empty batches expiring before the deadline.
func (s *Service) ExpiringBefore(ctx context.Context, deadline time.Time) ([]models.StockBatch, error) {
	batches, err := s.stock.ListExpiringBefore(ctx, deadline)
	if err != nil {
		return nil, fmt.Errorf("list expiring stock batches: %w", err)
	}
	return batches, nil
}
