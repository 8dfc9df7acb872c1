package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// TickFunc runs one discovery-and-delivery cycle. The scheduler passes the
// instant it captured for the tick so every selection within the cycle sees
// the same "now".
type TickFunc func(ctx context.Context, now time.Time)

// Scheduler drives a TickFunc on a fixed interval. Ticks run inline on the
// loop goroutine, so two ticks can never overlap; if a tick outlasts the
// interval, the missed ticker firings are dropped rather than queued.
type Scheduler struct {
	interval time.Duration
	tick     TickFunc
	clock    func() time.Time

	running atomic.Bool

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

type Option func(*Scheduler)

// WithClock replaces the time source used to stamp each tick.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) { s.clock = clock }
}

func New(interval time.Duration, tick TickFunc, opts ...Option) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if tick == nil {
		return nil, errors.New("tick func must not be nil")
	}

	s := &Scheduler{
		interval: interval,
		tick:     tick,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches the loop with an immediate first tick. The given context is
// handed to every tick; cancelling it ends the loop as well. Returns false if
// the scheduler is already running.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return false
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running.Store(true)

	stop, done := s.stop, s.done

	go func() {
		defer close(done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		slog.Info("scheduler started", "interval", s.interval.String())

		s.safeTick(ctx)

		for {
			select {
			case <-ctx.Done():
				slog.Info("scheduler stopping", "reason", "context canceled")
				s.running.Store(false)
				return
			case <-stop:
				slog.Info("scheduler stopping")
				return
			case <-ticker.C:
				s.safeTick(ctx)
			}
		}
	}()

	return true
}

// Stop prevents further ticks and waits for any in-flight tick to finish.
// In-progress deliveries are not cancelled, so no task is left with an
// ambiguous status. Returns false if the scheduler is not running.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return false
	}

	close(s.stop)
	<-s.done
	s.running.Store(false)

	slog.Info("scheduler stopped")
	return true
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

func (s *Scheduler) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler tick panic recovered", "panic", r)
		}
	}()

	start := time.Now()
	s.tick(ctx, s.clock())
	slog.Info("scheduler tick completed", "duration_ms", time.Since(start).Milliseconds())
}
