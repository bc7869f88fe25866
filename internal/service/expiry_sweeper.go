package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"blueprep_backend/internal/repository"
	"blueprep_backend/internal/util"
	"blueprep_backend/pkg/logger"
	"blueprep_backend/pkg/monitoring"
	"blueprep_backend/pkg/tracing"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type SweepSummary struct {
	Due      int `json:"due"`
	Ended    int `json:"ended"`
	Skipped  int `json:"skipped"`
	Reported int `json:"reported"`
	Empty    int `json:"empty"`
	Failed   int `json:"failed"`
}

// ExpirySweeper ends tests whose window has elapsed and publishes their
// reports. It is the only time-driven writer of test status.
type ExpirySweeper struct {
	Tests     repository.TestStore
	Lifecycle *LifecycleService
	Publisher *ReportPublisher
	Now       func() time.Time

	mu    sync.Mutex
	cron  *cron.Cron
	first *time.Timer

	// firstRun tracks the initial-delay run, which cron does not own.
	firstRun sync.WaitGroup
}

func NewExpirySweeper(tests repository.TestStore, lifecycle *LifecycleService, publisher *ReportPublisher) *ExpirySweeper {
	return &ExpirySweeper{
		Tests:     tests,
		Lifecycle: lifecycle,
		Publisher: publisher,
		Now:       time.Now,
	}
}

// RunOnce performs one sweep at now. Per-test failures are logged and counted;
// they never stop the sweep.
func (s *ExpirySweeper) RunOnce(ctx context.Context, now time.Time) SweepSummary {
	start := time.Now()
	ctx, span := tracing.Tracer.Start(ctx, "ExpirySweeper.RunOnce")
	defer span.End()
	defer func() {
		monitoring.SweepsTotal.Inc()
		monitoring.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	var summary SweepSummary
	due, err := s.Tests.FindActiveExpiring(ctx, now)
	if err != nil {
		logger.Log.Error("Sweep query failed", zap.Error(err))
		summary.Failed++
		return summary
	}
	summary.Due = len(due)

	for _, test := range due {
		changed, err := s.Lifecycle.ForceEnd(ctx, test.ID, now, EndTriggerSweep)
		if err != nil {
			logger.Log.Error("Failed to end expired test", zap.Uint("test_id", test.ID), zap.Error(err))
			summary.Failed++
			continue
		}
		if !changed {
			// Ended elsewhere; whoever won reports it.
			summary.Skipped++
			continue
		}
		summary.Ended++

		if s.Publisher == nil {
			continue
		}
		if _, err := s.Publisher.Publish(ctx, test.ID, now); err != nil {
			if errors.Is(err, util.ErrNoSubmissions) {
				logger.Log.Info("No submissions, report skipped", zap.Uint("test_id", test.ID))
				summary.Empty++
				continue
			}
			logger.Log.Error("Failed to publish report", zap.Uint("test_id", test.ID), zap.Error(err))
			summary.Failed++
			continue
		}
		summary.Reported++
	}

	if summary.Due > 0 || summary.Failed > 0 {
		logger.Log.Info("Sweep finished",
			zap.Int("due", summary.Due),
			zap.Int("ended", summary.Ended),
			zap.Int("skipped", summary.Skipped),
			zap.Int("reported", summary.Reported),
			zap.Int("failed", summary.Failed))
	}
	return summary
}

// Start schedules the sweep every interval, with the first run after
// initialDelay. Overlapping runs are skipped and panics are recovered.
func (s *ExpirySweeper) Start(interval, initialDelay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}

	cronLog := cronLogger{}
	job := cron.NewChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	).Then(cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		s.RunOnce(ctx, s.Now())
	}))

	s.cron = cron.New(cron.WithLogger(cronLog))
	s.cron.Schedule(cron.Every(interval), job)
	s.cron.Start()
	s.firstRun.Add(1)
	s.first = time.AfterFunc(initialDelay, func() {
		defer s.firstRun.Done()
		job.Run()
	})

	logger.Log.Info("Expiry sweeper started",
		zap.Duration("interval", interval),
		zap.Duration("initial_delay", initialDelay))
}

// Stop cancels future runs and waits for a running sweep to finish.
func (s *ExpirySweeper) Stop() {
	s.mu.Lock()
	c, first := s.cron, s.first
	s.cron, s.first = nil, nil
	s.mu.Unlock()

	if first != nil && first.Stop() {
		s.firstRun.Done()
	}
	if c != nil {
		<-c.Stop().Done()
	}
	s.firstRun.Wait()
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Log.Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
