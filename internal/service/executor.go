package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"smsdispatch/internal/cache"
	"smsdispatch/internal/model"
	"smsdispatch/internal/sender"
	"smsdispatch/internal/store"
)

// Executor attempts delivery of exactly one due task and writes exactly one
// terminal status. The sender is called at most once per invocation; any
// fault it raises, including a panic, is absorbed into the failed status.
type Executor struct {
	sender sender.Sender
	store  store.TaskStore

	receipts cache.ReceiptCache
}

func NewExecutor(snd sender.Sender, st store.TaskStore) *Executor {
	return &Executor{sender: snd, store: st}
}

// WithReceipts enables best-effort outcome caching on terminal transitions.
func (e *Executor) WithReceipts(c cache.ReceiptCache) *Executor {
	e.receipts = c
	return e
}

// Deliver returns the terminal status it recorded. The returned error is a
// store fault only; a send failure is not an error from the caller's view.
func (e *Executor) Deliver(ctx context.Context, t model.DueTask, now time.Time) (model.Status, error) {
	if sendErr := e.attempt(ctx, t); sendErr != nil {
		slog.Warn("delivery failed", "task_id", t.ID, "error", sendErr)
		if err := e.store.MarkFailed(ctx, t.ID, sendErr.Error()); err != nil {
			return model.StatusFailed, fmt.Errorf("mark failed: %w", err)
		}
		e.receipt(ctx, t, model.StatusFailed, now)
		return model.StatusFailed, nil
	}

	if err := e.store.MarkSent(ctx, t.ID, now); err != nil {
		return model.StatusSent, fmt.Errorf("mark sent: %w", err)
	}
	e.receipt(ctx, t, model.StatusSent, now)
	return model.StatusSent, nil
}

func (e *Executor) attempt(ctx context.Context, t model.DueTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panic: %v", r)
		}
	}()

	return e.sender.Send(ctx, t.Content, t.Phone, t.DeviceID)
}

func (e *Executor) receipt(ctx context.Context, t model.DueTask, status model.Status, at time.Time) {
	if e.receipts == nil {
		return
	}
	if err := e.receipts.StoreOutcome(ctx, t.ID, status, at); err != nil {
		slog.Warn("failed to cache delivery receipt", "task_id", t.ID, "error", err)
	}
}
