package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/dealer-backend/internal/app/service"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ReportScheduler exports and uploads the previous month's report on a cron
// schedule.
type ReportScheduler struct {
	cron     *cron.Cron
	spec     string
	exporter service.ReportExportService
	now      func() time.Time
}

func NewReportScheduler(spec string, exporter service.ReportExportService) *ReportScheduler {
	return &ReportScheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		spec:     spec,
		exporter: exporter,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReportScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.RunOnce)
	if err != nil {
		logger.Error("Failed to add cron job for report export", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Report export scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce exports the calendar month before the current one.
func (s *ReportScheduler) RunOnce() {
	start, end := PreviousMonth(s.now())
	logger.Info("Starting scheduled report export", map[string]interface{}{
		"start": start.Format("2006-01-02"),
		"end":   end.Format("2006-01-02"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	uploaded, err := s.exporter.ExportAndUpload(ctx, start, end)
	if err != nil {
		logger.Error("Scheduled report export failed", err)
		return
	}

	logger.Info("Scheduled report exported", map[string]interface{}{
		"key": uploaded.Key,
	})
}

// Stop waits for a running export to finish.
func (s *ReportScheduler) Stop() {
	logger.Info("Stopping report export scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Report export scheduler stopped", nil)
}

// PreviousMonth returns the first and last day of the month before now.
func PreviousMonth(now time.Time) (time.Time, time.Time) {
	firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := firstOfThisMonth.AddDate(0, -1, 0)
	end := firstOfThisMonth.AddDate(0, 0, -1)
	return start, end
}
