package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lojasocial/backend/internal/server/handlers"
)

// Handlers bundles the HTTP adapters wired into the engine.
type Handlers struct {
	Beneficiaries *handlers.BeneficiaryHandler
	Campaigns     *handlers.CampaignHandler
	Stock         *handlers.StockHandler
	Deliveries    *handlers.DeliveryHandler
	Reports       *handlers.ReportHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.POST("/beneficiaries", h.Beneficiaries.Register)
	r.GET("/beneficiaries", h.Beneficiaries.List)
	r.GET("/beneficiaries/:id", h.Beneficiaries.Get)
	r.POST("/beneficiaries/:id/approve", h.Beneficiaries.Approve)
	r.POST("/beneficiaries/:id/reject", h.Beneficiaries.Reject)
	r.POST("/beneficiaries/:id/deactivate", h.Beneficiaries.Deactivate)

	r.POST("/campaigns", h.Campaigns.Create)
	r.GET("/campaigns", h.Campaigns.List)
	r.GET("/campaigns/:id", h.Campaigns.Get)
	r.POST("/campaigns/:id/close", h.Campaigns.Close)

	r.POST("/products", h.Stock.CreateProduct)
	r.GET("/products", h.Stock.ListProducts)
	r.GET("/products/:id/available", h.Stock.Available)

	r.POST("/stock/batches", h.Stock.RegisterBatch)
	r.GET("/stock/batches", h.Stock.ListBatches)
	r.GET("/stock/expiring", h.Stock.Expiring)

	r.POST("/deliveries", h.Deliveries.Schedule)
	r.GET("/deliveries", h.Deliveries.List)
	r.GET("/deliveries/:id", h.Deliveries.Get)
	r.POST("/deliveries/:id/approve", h.Deliveries.Approve)
	r.POST("/deliveries/:id/cancel", h.Deliveries.Cancel)
	r.POST("/deliveries/:id/reject", h.Deliveries.Reject)
	r.POST("/deliveries/:id/confirm", h.Deliveries.Confirm)

	r.GET("/reports/stock-summary", h.Reports.StockSummary)
	r.POST("/reports/export/stock", h.Reports.ExportStock)
	r.POST("/reports/export/deliveries", h.Reports.ExportDeliveries)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
