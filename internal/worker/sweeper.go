// Package worker runs the periodic jobs: the hourly rule check and the SLA
// deadline sweep.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/observability"
)

// Job is one periodic task. A job never overlaps itself: if a tick fires
// while the previous run is still in flight, that tick is skipped and
// counted.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	running atomic.Bool
}

// Sweeper drives a set of jobs on independent tickers.
type Sweeper struct {
	jobs    []*Job
	logger  *zap.Logger
	metrics *observability.Metrics

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper constructs the sweeper.
func NewSweeper(logger *zap.Logger, metrics *observability.Metrics, jobs ...*Job) *Sweeper {
	return &Sweeper{jobs: jobs, logger: logger, metrics: metrics}
}

// Start launches one goroutine per job. Jobs run until Stop or until the
// parent context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

// Stop cancels all jobs and blocks until in-flight runs finish.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context, job *Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.logger.Info("starting periodic job",
		zap.String("job", job.Name),
		zap.Duration("interval", job.Interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.runOnce(ctx, job)
			}()
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context, job *Job) {
	if !job.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous run still in flight, skipping tick",
			zap.String("job", job.Name))
		s.metrics.RecordSweep(job.Name, true)
		return
	}
	defer job.running.Store(false)

	started := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("periodic job failed",
			zap.String("job", job.Name),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return
	}
	s.metrics.RecordSweep(job.Name, false)
	s.logger.Debug("periodic job finished",
		zap.String("job", job.Name),
		zap.Duration("elapsed", time.Since(started)))
}
