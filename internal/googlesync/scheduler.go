package googlesync

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
)

// Scheduler runs SyncAll on a cron schedule. A run still in progress when
// the next one is due causes that one to be skipped.
type Scheduler struct {
	syncer   *Syncer
	cron     *cron.Cron
	schedule string
	logger   infralogger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a Scheduler for a standard five-field cron
// expression.
func NewScheduler(syncer *Syncer, schedule string, log infralogger.Logger) *Scheduler {
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		syncer:   syncer,
		cron:     cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		schedule: schedule,
		logger:   log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start registers the sync job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return fmt.Errorf("schedule connector sync %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("Connector sync scheduler started", infralogger.String("schedule", s.schedule))
	return nil
}

// Stop cancels a running sync and waits for it, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		s.logger.Warn("Connector sync scheduler did not stop in time")
	}
}

func (s *Scheduler) run() {
	start := time.Now()
	if _, err := s.syncer.SyncAll(s.ctx); err != nil {
		s.logger.Error("Scheduled connector sync failed",
			infralogger.Error(err),
			infralogger.Duration("duration", time.Since(start)),
		)
	}
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	log infralogger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, infralogger.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, infralogger.Error(err), infralogger.Any("details", keysAndValues))
}
