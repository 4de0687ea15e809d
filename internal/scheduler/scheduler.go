package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lojasocial/backend/internal/config"
	"github.com/lojasocial/backend/internal/service/reporting"
	"github.com/lojasocial/backend/pkg/clients/notify"
)

// Scheduler manages the recurring reporting jobs: the daily expiring-stock
// alert and the weekly report export.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	notifier     notify.Client
	cfg          config.ReportingConfig
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.ReportingConfig, reportingSvc *reporting.Service, notifier notify.Client, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []cron.Option{}
	if location, err := time.LoadLocation(cfg.Timezone); err == nil {
		opts = append(opts, cron.WithLocation(location))
	} else {
		logger.Warn("invalid timezone, scheduler falls back to local time",
			zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	return &Scheduler{
		cron:         cron.New(opts...),
		reportingSvc: reportingSvc,
		notifier:     notifier,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers and starts the cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.ExpiryCronSchedule, s.alertExpiringStock); err != nil {
		s.logger.Error("failed to schedule expiring stock alert", zap.Error(err))
	}

	if _, err := s.cron.AddFunc(s.cfg.ExportCronSchedule, s.exportWeeklyReports); err != nil {
		s.logger.Error("failed to schedule weekly report export", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) alertExpiringStock() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	window := time.Duration(s.cfg.ExpiryWindowDays) * 24 * time.Hour
	message, batches, err := s.reportingSvc.ExpiringSummary(ctx, window)
	if err != nil {
		s.logger.Error("failed to compute expiring stock summary", zap.Error(err))
		return
	}

	if len(batches) == 0 {
		s.logger.Info("no stock expiring within window", zap.Int("window_days", s.cfg.ExpiryWindowDays))
		return
	}

	if s.notifier == nil {
		s.logger.Warn("expiring stock found but alerting is disabled", zap.Int("batches", len(batches)))
		return
	}

	alert := notify.Alert{
		Event:   "stock.expiring",
		Title:   "Stock expiring soon",
		Message: message,
	}
	if err := s.notifier.SendAlert(ctx, alert); err != nil {
		s.logger.Error("failed to send expiring stock alert", zap.Error(err))
	} else {
		s.logger.Info("expiring stock alert sent", zap.Int("batches", len(batches)))
	}
}

func (s *Scheduler) exportWeeklyReports() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.reportingSvc.ExportStockSnapshot(ctx); err != nil {
		s.logger.Error("failed to export stock snapshot", zap.Error(err))
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -7)
	if err := s.reportingSvc.ExportDeliveriesReport(ctx, start, end); err != nil {
		s.logger.Error("failed to export deliveries report", zap.Error(err))
	}
}
