package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/lojasocial/backend/internal/domain/models"
	repo "github.com/lojasocial/backend/internal/repository/mongodb"
	"github.com/lojasocial/backend/internal/repository/sheets"
)

const (
	dateLayout          = "2006-01-02"
	stockExportRange    = "Stock!A:F"
	deliveryExportRange = "Deliveries!A:E"
)

// ProductStock aggregates one product's position across batches.
type ProductStock struct {
	ProductID      string    `json:"product_id"`
	TotalQuantity  int       `json:"total_quantity"`
	Batches        int       `json:"batches"`
	EarliestExpiry time.Time `json:"earliest_expiry"`
}

// Service produces stock and delivery reports, optionally exporting them
// to a spreadsheet.
type Service struct {
	stock      repo.StockRepository
	deliveries repo.DeliveryRepository
	exporter   sheets.Repository
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires a reporting service. exporter may be nil; export
// operations then fail with a clear error instead of a nil dereference.
func NewService(stock repo.StockRepository, deliveries repo.DeliveryRepository, exporter sheets.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		stock:      stock,
		deliveries: deliveries,
		exporter:   exporter,
		logger:     logger,
		now:        time.Now,
	}
}

// StockSummary aggregates the ledger per product, skipping empty batches.
func (s *Service) StockSummary(ctx context.Context) ([]ProductStock, error) {
	batches, err := s.stock.ListBatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stock ledger: %w", err)
	}

	byProduct := make(map[string]*ProductStock)
	for _, batch := range batches {
		if batch.Quantity <= 0 {
			continue
		}
		summary, ok := byProduct[batch.ProductID]
		if !ok {
			summary = &ProductStock{ProductID: batch.ProductID, EarliestExpiry: batch.ExpiryDate}
			byProduct[batch.ProductID] = summary
		}
		summary.TotalQuantity += batch.Quantity
		summary.Batches++
		if batch.ExpiryDate.Before(summary.EarliestExpiry) {
			summary.EarliestExpiry = batch.ExpiryDate
		}
	}

	out := make([]ProductStock, 0, len(byProduct))
	for _, summary := range byProduct {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// ExpiringSummary formats an alert message for batches expiring within the window.
func (s *Service) ExpiringSummary(ctx context.Context, window time.Duration) (string, []models.StockBatch, error) {
	deadline := s.now().UTC().Add(window)
	batches, err := s.stock.ListExpiringBefore(ctx, deadline)
	if err != nil {
		return "", nil, fmt.Errorf("load expiring batches: %w", err)
	}

	if len(batches) == 0 {
		return fmt.Sprintf("No stock expires before %s.", deadline.Format(dateLayout)), nil, nil
	}

	message := fmt.Sprintf("%d batch(es) expire before %s:", len(batches), deadline.Format(dateLayout))
	for _, batch := range batches {
		message += fmt.Sprintf("\n- product %s: %d unit(s), expires %s", batch.ProductID, batch.Quantity, batch.ExpiryDate.Format(dateLayout))
	}
	return message, batches, nil
}

// ExportStockSnapshot appends the current ledger to the spreadsheet.
func (s *Service) ExportStockSnapshot(ctx context.Context) error {
	if s.exporter == nil {
		return fmt.Errorf("report export is not configured")
	}

	batches, err := s.stock.ListBatches(ctx)
	if err != nil {
		return fmt.Errorf("load stock ledger: %w", err)
	}

	exportedAt := s.now().UTC().Format(dateLayout)
	rows := make([][]interface{}, 0, len(batches))
	for _, batch := range batches {
		rows = append(rows, []interface{}{
			exportedAt,
			batch.ProductID,
			batch.ID,
			batch.Quantity,
			batch.EntryDate.Format(dateLayout),
			batch.ExpiryDate.Format(dateLayout),
		})
	}

	if err := s.exporter.AppendRows(ctx, stockExportRange, rows); err != nil {
		return fmt.Errorf("export stock snapshot: %w", err)
	}

	s.logger.Info("stock snapshot exported", zap.Int("batches", len(rows)))
	return nil
}

// ExportDeliveriesReport appends deliveries completed in the period to the spreadsheet.
func (s *Service) ExportDeliveriesReport(ctx context.Context, start, end time.Time) error {
	if s.exporter == nil {
		return fmt.Errorf("report export is not configured")
	}

	deliveries, err := s.deliveries.ListDeliveries(ctx)
	if err != nil {
		return fmt.Errorf("load deliveries: %w", err)
	}

	var rows [][]interface{}
	for _, delivery := range deliveries {
		if delivery.Status != models.DeliveryDelivered {
			continue
		}
		if delivery.Date.Before(start) || delivery.Date.After(end) {
			continue
		}

		totalItems := 0
		for _, quantity := range delivery.Items {
			totalItems += quantity
		}
		rows = append(rows, []interface{}{
			delivery.Date.Format(dateLayout),
			delivery.ID,
			delivery.BeneficiaryID,
			totalItems,
			delivery.CreatedBy,
		})
	}

	if err := s.exporter.AppendRows(ctx, deliveryExportRange, rows); err != nil {
		return fmt.Errorf("export deliveries report: %w", err)
	}

	s.logger.Info("deliveries report exported",
		zap.String("start", start.Format(dateLayout)),
		zap.String("end", end.Format(dateLayout)),
		zap.Int("deliveries", len(rows)))
	return nil
}
