package processor

import (
	"context"

	"storefront/background-worker-service/internal/app/background-worker/service"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"

	"github.com/robfig/cron/v3"
)

const lowStockJob = "low_stock"

// CronScheduler запускает отчет о заканчивающихся товарах по расписанию
type CronScheduler struct {
	cron      *cron.Cron
	reportSvc service.StockReportServiceInterface
}

// NewCronScheduler создает планировщик. Расписание с секундами: "0 */15 * * * *".
func NewCronScheduler(reportSvc service.StockReportServiceInterface) *CronScheduler {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(logger.CronLogger{}),
		cron.WithChain(cron.SkipIfStillRunning(logger.CronLogger{})),
	)

	return &CronScheduler{
		cron:      c,
		reportSvc: reportSvc,
	}
}

// Start регистрирует задачу, запускает cron и сразу строит первый отчет
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.runLowStockReport(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Str("schedule", schedule).Msg("Cron scheduler started")

	s.runLowStockReport(ctx)
	return nil
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	<-s.cron.Stop().Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

func (s *CronScheduler) runLowStockReport(ctx context.Context) {
	report, err := s.reportSvc.RunLowStockReport(ctx)
	if err != nil {
		logger.Error().Err(err).Str("job", lowStockJob).Msg("scheduled job failed")
		metrics.WorkerJobRuns.WithLabelValues(lowStockJob, "error").Inc()
		return
	}
	metrics.WorkerJobRuns.WithLabelValues(lowStockJob, "success").Inc()
	logger.Debug().Str("job", lowStockJob).Int64("low_stock", report.Total).Msg("scheduled job completed")
}
