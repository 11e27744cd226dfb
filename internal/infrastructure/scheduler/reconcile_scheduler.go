// Package scheduler runs periodic background jobs next to the HTTP server
package scheduler

import (
	"context"
	"sync"
	"time"

	paymentapp "github.com/boutique/backend/internal/application/payment"
	"github.com/boutique/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// PaymentReconciler is the job run on every tick
type PaymentReconciler interface {
	ReconcilePending(ctx context.Context, minAge time.Duration, limit int) (*paymentapp.ReconcileResult, error)
}

// ReconcileScheduler sweeps PENDING gateway payments on a fixed interval.
// Sweeps run one at a time on a single goroutine; a manual trigger that
// arrives during a sweep queues at most one more.
type ReconcileScheduler struct {
	job PaymentReconciler
	cfg config.ReconcileConfig
	log *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	trigger chan struct{}
}

func NewReconcileScheduler(job PaymentReconciler, cfg config.ReconcileConfig, log *zap.Logger) *ReconcileScheduler {
	return &ReconcileScheduler{job: job, cfg: cfg, log: log.Named("reconcile")}
}

// Start launches the sweep loop. Calling it while running, or with the
// scheduler disabled, does nothing.
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.log.Info("Payment reconciliation scheduler is disabled")
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return nil
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.trigger = make(chan struct{}, 1)
	go s.loop(ctx, s.done, s.trigger)

	s.log.Info("Payment reconciliation scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("min_age", s.cfg.MinAge),
		zap.Int("batch_size", s.cfg.BatchSize))
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep until ctx expires
func (s *ReconcileScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	if done != nil {
		s.cancel()
		s.done, s.trigger = nil, nil
	}
	s.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		s.log.Info("Payment reconciliation scheduler stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("Payment reconciliation scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerNow asks the loop for an immediate sweep without waiting for it
func (s *ReconcileScheduler) TriggerNow(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trigger == nil {
		return ErrSchedulerNotRunning
	}
	select {
	case s.trigger <- struct{}{}:
	default:
	}
	return nil
}

func (s *ReconcileScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

func (s *ReconcileScheduler) loop(ctx context.Context, done chan<- struct{}, trigger <-chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-trigger:
		}
		s.sweep(ctx)
	}
}

func (s *ReconcileScheduler) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	began := time.Now()
	res, err := s.job.ReconcilePending(ctx, s.cfg.MinAge, s.cfg.BatchSize)
	took := zap.Duration("duration", time.Since(began))
	if err != nil {
		s.log.Error("Payment reconciliation sweep failed", took, zap.Error(err))
		return
	}
	s.log.Debug("Payment reconciliation sweep completed", took,
		zap.Int("checked", res.Checked),
		zap.Int("completed", res.Completed),
		zap.Int("failed", res.Failed))
}
