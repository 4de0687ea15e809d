package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lojasocial/backend/internal/domain/models"
	"github.com/lojasocial/backend/internal/service/beneficiary"
)

// BeneficiaryHandler exposes beneficiary registration and approval over HTTP.
type BeneficiaryHandler struct {
	svc    *beneficiary.Service
	logger *zap.Logger
}

// NewBeneficiaryHandler constructs the HTTP handler adapter.
func NewBeneficiaryHandler(svc *beneficiary.Service, logger *zap.Logger) *BeneficiaryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BeneficiaryHandler{svc: svc, logger: logger}
}

type registerBeneficiaryRequest struct {
	Name          string `json:"name" binding:"required"`
	Document      string `json:"document" binding:"required"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	HouseholdSize int    `json:"household_size"`
	Observations  string `json:"observations"`
}

// Register creates a pending beneficiary registration.
func (h *BeneficiaryHandler) Register(c *gin.Context) {
	var req registerBeneficiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid beneficiary payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.svc.Register(c.Request.Context(), beneficiary.Registration{
		Name:          req.Name,
		Document:      req.Document,
		Phone:         req.Phone,
		Address:       req.Address,
		HouseholdSize: req.HouseholdSize,
		Observations:  req.Observations,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Get returns one beneficiary.
func (h *BeneficiaryHandler) Get(c *gin.Context) {
	found, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// List returns beneficiaries, optionally filtered by status.
func (h *BeneficiaryHandler) List(c *gin.Context) {
	status := models.BeneficiaryStatus(c.Query("status"))
	beneficiaries, err := h.svc.List(c.Request.Context(), status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, beneficiaries)
}

// Approve accepts a pending registration.
func (h *BeneficiaryHandler) Approve(c *gin.Context) {
	h.decide(c, h.svc.Approve)
}

// Reject declines a pending registration.
func (h *BeneficiaryHandler) Reject(c *gin.Context) {
	h.decide(c, h.svc.Reject)
}

// Deactivate removes an approved beneficiary from the active roster.
func (h *BeneficiaryHandler) Deactivate(c *gin.Context) {
	h.decide(c, h.svc.Deactivate)
}

func (h *BeneficiaryHandler) decide(c *gin.Context, fn func(ctx context.Context, id string) error) {
	if err := fn(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BeneficiaryHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, beneficiary.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, beneficiary.ErrInvalidRegistration):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, beneficiary.ErrAlreadyDecided):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("beneficiary request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
