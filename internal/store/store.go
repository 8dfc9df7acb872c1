package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"smsdispatch/internal/model"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrUnknownContact = errors.New("unknown contact")
	ErrUnknownDevice  = errors.New("unknown device")
)

// NewTask carries the caller-supplied fields of a task; the store assigns
// id, created_at and the initial pending status.
type NewTask struct {
	ContactID uuid.UUID
	DeviceID  *uuid.UUID
	Content   string
	DueAt     time.Time
}

// TaskStore is the single source of truth for scheduled tasks. The scheduler
// loop and the request handlers share one instance; implementations must make
// MarkSent/MarkFailed atomic per row and must never rewrite a terminal row.
type TaskStore interface {
	CreateTask(ctx context.Context, nt NewTask) (model.Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (model.Task, error)

	// ListTasks returns a snapshot of all tasks, newest-first, joined with
	// contact/device display fields.
	ListTasks(ctx context.Context) ([]model.TaskView, error)

	// ListDue returns pending tasks with due_at <= now. No ordering contract.
	ListDue(ctx context.Context, now time.Time) ([]model.DueTask, error)

	// MarkSent and MarkFailed transition a pending task to its terminal
	// status. A task that is already terminal is left untouched.
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error

	Stats(ctx context.Context) (model.Stats, error)

	CreateContact(ctx context.Context, name, phone string) (model.Contact, error)
	CreateDevice(ctx context.Context, name, number string) (model.Device, error)
}
