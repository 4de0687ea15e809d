package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lojasocial/backend/internal/service/stock"
)

// StockHandler exposes stock ledger operations over HTTP.
type StockHandler struct {
	svc    *stock.Service
	logger *zap.Logger
}

// NewStockHandler constructs the HTTP handler adapter.
func NewStockHandler(svc *stock.Service, logger *zap.Logger) *StockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockHandler{svc: svc, logger: logger}
}

type createProductRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
}

// CreateProduct registers a product in the catalog.
func (h *StockHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid product payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.svc.CreateProduct(c.Request.Context(), stock.ProductEntry{
		Name:     req.Name,
		Category: req.Category,
		Unit:     req.Unit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListProducts returns the product catalog.
func (h *StockHandler) ListProducts(c *gin.Context) {
	products, err := h.svc.ListProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

type registerBatchRequest struct {
	ProductID    string    `json:"product_id" binding:"required"`
	CampaignID   string    `json:"campaign_id"`
	Quantity     int       `json:"quantity" binding:"required,gt=0"`
	ExpiryDate   time.Time `json:"expiry_date" binding:"required"`
	Observations string    `json:"observations"`
}

// RegisterBatch adds a lot to the ledger.
func (h *StockHandler) RegisterBatch(c *gin.Context) {
	var req registerBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid stock batch payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.svc.RegisterBatch(c.Request.Context(), stock.BatchEntry{
		ProductID:    req.ProductID,
		CampaignID:   req.CampaignID,
		Quantity:     req.Quantity,
		ExpiryDate:   req.ExpiryDate,
		Observations: req.Observations,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListBatches returns the ledger; pass ?product_id= to filter.
func (h *StockHandler) ListBatches(c *gin.Context) {
	productID := c.Query("product_id")

	var err error
	var batches interface{}
	if productID != "" {
		batches, err = h.svc.ListByProduct(c.Request.Context(), productID)
	} else {
		batches, err = h.svc.ListBatches(c.Request.Context())
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batches)
}

// Available returns the total remaining units for one product.
func (h *StockHandler) Available(c *gin.Context) {
	productID := c.Param("id")
	total, err := h.svc.AvailableByProduct(c.Request.Context(), productID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": productID, "available": total})
}

// Expiring returns non-empty batches expiring within ?days= (default 7).
func (h *StockHandler) Expiring(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	deadline := time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour)
	batches, err := h.svc.ExpiringBefore(c.Request.Context(), deadline)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batches)
}

func (h *StockHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stock.ErrUnknownProduct):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, stock.ErrInvalidBatch), errors.Is(err, stock.ErrInvalidProduct):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("stock request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
