package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lojasocial/backend/internal/service/allocation"
	"github.com/lojasocial/backend/internal/service/delivery"
)

// DeliveryHandler exposes delivery scheduling and confirmation over HTTP.
type DeliveryHandler struct {
	svc    *delivery.Service
	logger *zap.Logger
}

// NewDeliveryHandler constructs the HTTP handler adapter.
func NewDeliveryHandler(svc *delivery.Service, logger *zap.Logger) *DeliveryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryHandler{svc: svc, logger: logger}
}

type scheduleDeliveryRequest struct {
	BeneficiaryID string         `json:"beneficiary_id" binding:"required"`
	ScheduledDate time.Time      `json:"scheduled_date"`
	Items         map[string]int `json:"items" binding:"required"`
	Observations  string         `json:"observations"`
	CreatedBy     string         `json:"created_by" binding:"required"`
	UnderAnalysis bool           `json:"under_analysis"`
}

// Schedule creates a delivery.
func (h *DeliveryHandler) Schedule(c *gin.Context) {
	var req scheduleDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid delivery payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.svc.Schedule(c.Request.Context(), delivery.ScheduleRequest{
		BeneficiaryID: req.BeneficiaryID,
		ScheduledDate: req.ScheduledDate,
		Items:         req.Items,
		Observations:  req.Observations,
		CreatedBy:     req.CreatedBy,
		UnderAnalysis: req.UnderAnalysis,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Get returns one delivery.
func (h *DeliveryHandler) Get(c *gin.Context) {
	found, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// List returns deliveries; pass ?beneficiary_id= to filter.
func (h *DeliveryHandler) List(c *gin.Context) {
	if beneficiaryID := c.Query("beneficiary_id"); beneficiaryID != "" {
		deliveries, err := h.svc.ListByBeneficiary(c.Request.Context(), beneficiaryID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, deliveries)
		return
	}

	deliveries, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deliveries)
}

// Approve moves an UNDER_ANALYSIS delivery to SCHEDULED.
func (h *DeliveryHandler) Approve(c *gin.Context) {
	h.transition(c, h.svc.Approve)
}

// Cancel marks a pending delivery as cancelled.
func (h *DeliveryHandler) Cancel(c *gin.Context) {
	h.transition(c, h.svc.Cancel)
}

// Reject marks a pending delivery as rejected.
func (h *DeliveryHandler) Reject(c *gin.Context) {
	h.transition(c, h.svc.Reject)
}

// Confirm marks the delivery as delivered and deducts stock. Safe to
// retry: repeating the call reports already_delivered instead of
// deducting twice.
func (h *DeliveryHandler) Confirm(c *gin.Context) {
	result, err := h.svc.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *DeliveryHandler) transition(c *gin.Context, fn func(ctx context.Context, id string) error) {
	if err := fn(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DeliveryHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, delivery.ErrNotFound), errors.Is(err, allocation.ErrDeliveryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, delivery.ErrInvalidDelivery), errors.Is(err, delivery.ErrBeneficiaryNotEligible):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, delivery.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, allocation.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, allocation.ErrAllocationConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("delivery request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
