// Package jobs runs periodic maintenance for the verification module.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"irdesk/internal/verification/metrics"
	"irdesk/internal/verification/models"
)

// Counter reports applicant totals for the status gauges.
type Counter interface {
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	CountLocked(ctx context.Context, now time.Time) (int, error)
}

// GaugeRefresher recomputes the applicant gauges from the store.
type GaugeRefresher struct {
	counter Counter
	metrics *metrics.Metrics
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewGaugeRefresher(counter Counter, m *metrics.Metrics, logger *slog.Logger) *GaugeRefresher {
	return &GaugeRefresher{
		counter: counter,
		metrics: m,
		logger:  logger,
		timeout: 30 * time.Second,
		now:     time.Now,
	}
}

// Refresh updates the gauges once. Stored statuses can lag behind lapsed
// locks, so the locked gauge is counted from the lock clock directly.
func (r *GaugeRefresher) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	counts, err := r.counter.CountByStatus(ctx)
	if err != nil {
		return err
	}
	locked, err := r.counter.CountLocked(ctx, r.now())
	if err != nil {
		return err
	}

	byStatus := make(map[string]int, len(counts))
	for s, n := range counts {
		byStatus[string(s)] = n
	}
	known := make([]string, 0, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		known = append(known, string(s))
	}
	r.metrics.SetStatusCounts(byStatus, known)
	r.metrics.SetLocked(locked)
	return nil
}

// Run is the cron entry point.
func (r *GaugeRefresher) Run() {
	if err := r.Refresh(context.Background()); err != nil {
		r.logger.Error("failed to refresh applicant gauges", "error", err)
	}
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		logger: logger,
	}
}

// Add schedules job under spec. An empty spec leaves the job disabled.
func (s *Scheduler) Add(name, spec string, job func()) error {
	if spec == "" {
		s.logger.Info("job disabled", "job", name)
		return nil
	}
	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return err
	}
	s.logger.Info("scheduled job", "job", name, "schedule", spec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
