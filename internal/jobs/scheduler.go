package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"swipely/internal/config"
	"swipely/internal/database"
	"swipely/internal/metrics"
)

// Scheduler runs background jobs. It implements cartridge.BackgroundWorker.
type Scheduler struct {
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	interval time.Duration

	mu        sync.Mutex
	isRunning bool
	wg        sync.WaitGroup

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	retention *RetentionJob
	ticker    *time.Ticker
}

func NewScheduler(dbManager *database.DBManager, logger *slog.Logger, cfg *config.Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	interval := time.Duration(cfg.JobIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}

	return &Scheduler{
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		interval:  interval,
		retention: NewRetentionJob(dbManager.GetConnection(), logger, cfg.EventsRetentionDays, metrics.Default()),
	}
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func(ctx context.Context) error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(s.ctx); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

func (s *Scheduler) runRetention(ctx context.Context) error {
	_, err := s.retention.Run(ctx)
	return err
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting retention job", slog.Duration("interval", s.interval))
	s.isRunning = true
	s.ticker = time.NewTicker(s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.executeJobSafely("retention", s.runRetention)

		for {
			select {
			case <-s.ticker.C:
				s.executeJobSafely("retention", s.runRetention)
			case <-s.ctx.Done():
				s.logger.Info("Retention job stopped")
				return
			}
		}
	}()

	return nil
}

// Stop halts all background jobs and waits for a running job to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Stopping background jobs...")
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.cancel()
	s.wg.Wait()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunRetention triggers the retention job outside the schedule.
func (s *Scheduler) RunRetention(ctx context.Context) (int64, error) {
	return s.retention.Run(ctx)
}
