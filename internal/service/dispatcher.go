package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"smsdispatch/internal/metrics"
	"smsdispatch/internal/model"
	"smsdispatch/internal/store"
)

// Dispatcher runs one scheduler tick: select everything due at the captured
// instant and fan the tasks out to the executor over a bounded worker pool.
// The scheduler guarantees only one tick runs at a time, so no task id can be
// held by two executors.
type Dispatcher struct {
	store    store.TaskStore
	executor *Executor
	workers  int
}

func NewDispatcher(st store.TaskStore, ex *Executor, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{store: st, executor: ex, workers: workers}
}

// RunTick is the scheduler's tick function. A store fault on selection aborts
// the tick; per-task faults are logged and skipped so one bad task never
// blocks the rest of the batch.
func (d *Dispatcher) RunTick(ctx context.Context, now time.Time) {
	metrics.IncTick()

	due, err := d.store.ListDue(ctx, now)
	if err != nil {
		metrics.IncTickError()
		slog.Error("due task query failed, skipping tick", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	var sent, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(d.workers)

	for _, t := range due {
		g.Go(func() error {
			status, err := d.executor.Deliver(ctx, t, now)
			if err != nil {
				slog.Error("failed to record delivery outcome", "task_id", t.ID, "error", err)
				return nil
			}
			switch status {
			case model.StatusSent:
				metrics.IncSent()
				sent.Add(1)
			case model.StatusFailed:
				metrics.IncFailed()
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("tick processed due tasks",
		"due", len(due),
		"sent", sent.Load(),
		"failed", failed.Load(),
	)
}
