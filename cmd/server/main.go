package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/lojasocial/backend/internal/config"
	"github.com/lojasocial/backend/internal/repository/mongodb"
	"github.com/lojasocial/backend/internal/repository/sheets"
	"github.com/lojasocial/backend/internal/scheduler"
	"github.com/lojasocial/backend/internal/server/handlers"
	"github.com/lojasocial/backend/internal/server/router"
	allocationsvc "github.com/lojasocial/backend/internal/service/allocation"
	beneficiarysvc "github.com/lojasocial/backend/internal/service/beneficiary"
	campaignsvc "github.com/lojasocial/backend/internal/service/campaign"
	deliverysvc "github.com/lojasocial/backend/internal/service/delivery"
	reportingsvc "github.com/lojasocial/backend/internal/service/reporting"
	stocksvc "github.com/lojasocial/backend/internal/service/stock"
	"github.com/lojasocial/backend/pkg/clients/notify"
	"github.com/lojasocial/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := mongodb.NewStore(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	beneficiaryRepo := mongodb.NewBeneficiaryRepository(store)
	campaignRepo := mongodb.NewCampaignRepository(store)
	productRepo := mongodb.NewProductRepository(store)
	stockRepo := mongodb.NewStockRepository(store)
	deliveryRepo := mongodb.NewDeliveryRepository(store)

	// Report export is optional; without a spreadsheet id the export jobs
	// and endpoints report themselves as not configured.
	var exportRepo sheets.Repository
	if cfg.Sheets.SpreadsheetID != "" {
		exportRepo, err = sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		baseLogger.Info("report export to google sheets enabled")
	} else {
		baseLogger.Warn("report spreadsheet id missing, export disabled")
	}

	var notifier notify.Client
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewClient(cfg.Notify)
		baseLogger.Info("alert webhook enabled")
	} else {
		baseLogger.Warn("alert webhook url missing, alerting disabled")
	}

	allocator := allocationsvc.NewAllocator(stockRepo, deliveryRepo, store, cfg.Allocation, baseLogger.Named("svc.allocation"))
	beneficiarySvc := beneficiarysvc.NewService(beneficiaryRepo, baseLogger.Named("svc.beneficiary"))
	campaignSvc := campaignsvc.NewService(campaignRepo, baseLogger.Named("svc.campaign"))
	stockSvc := stocksvc.NewService(stockRepo, productRepo, baseLogger.Named("svc.stock"))
	deliverySvc := deliverysvc.NewService(deliveryRepo, beneficiaryRepo, allocator, notifier, baseLogger.Named("svc.delivery"))
	reportingSvc := reportingsvc.NewService(stockRepo, deliveryRepo, exportRepo, baseLogger.Named("svc.reporting"))

	engine := router.New(router.Handlers{
		Beneficiaries: handlers.NewBeneficiaryHandler(beneficiarySvc, baseLogger.Named("handlers.beneficiary")),
		Campaigns:     handlers.NewCampaignHandler(campaignSvc, baseLogger.Named("handlers.campaign")),
		Stock:         handlers.NewStockHandler(stockSvc, baseLogger.Named("handlers.stock")),
		Deliveries:    handlers.NewDeliveryHandler(deliverySvc, baseLogger.Named("handlers.delivery")),
		Reports:       handlers.NewReportHandler(reportingSvc, baseLogger.Named("handlers.report")),
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, reportingSvc, notifier, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
