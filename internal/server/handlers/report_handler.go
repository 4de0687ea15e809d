package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lojasocial/backend/internal/service/reporting"
)

// ReportHandler exposes reporting operations over HTTP.
type ReportHandler struct {
	svc    *reporting.Service
	logger *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(svc *reporting.Service, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

// StockSummary returns the per-product stock position.
func (h *ReportHandler) StockSummary(c *gin.Context) {
	summary, err := h.svc.StockSummary(c.Request.Context())
	if err != nil {
		h.logger.Error("stock summary failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportStock appends the current ledger to the configured spreadsheet.
func (h *ReportHandler) ExportStock(c *gin.Context) {
	if err := h.svc.ExportStockSnapshot(c.Request.Context()); err != nil {
		h.logger.Error("stock export failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to export stock snapshot"})
		return
	}
	c.Status(http.StatusAccepted)
}

// ExportDeliveries appends last week's completed deliveries to the spreadsheet.
func (h *ReportHandler) ExportDeliveries(c *gin.Context) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -7)

	if err := h.svc.ExportDeliveriesReport(c.Request.Context(), start, end); err != nil {
		h.logger.Error("deliveries export failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to export deliveries report"})
		return
	}
	c.Status(http.StatusAccepted)
}
