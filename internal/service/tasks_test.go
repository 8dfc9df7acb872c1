package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"smsdispatch/internal/model"
	"smsdispatch/internal/service"
	"smsdispatch/internal/store"
)

func newService(t *testing.T) (*service.TaskService, *store.MemoryTaskStore, model.Contact) {
	t.Helper()

	st := store.NewMemoryTaskStore()
	svc := service.NewTaskService(st, 20)

	c, err := svc.RegisterContact(context.Background(), "Alice", "+361234567")
	if err != nil {
		t.Fatalf("RegisterContact() error: %v", err)
	}
	return svc, st, c
}

func TestTaskService_Create_HappyPath(t *testing.T) {
	t.Parallel()

	svc, _, c := newService(t)

	due := time.Now().Add(time.Hour)
	task, err := svc.Create(context.Background(), service.CreateTaskInput{
		ContactID: c.ID,
		Content:   "hello",
		DueAt:     due,
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if task.Status != model.StatusPending {
		t.Fatalf("expected pending task, got %q", task.Status)
	}
	if !task.DueAt.Equal(due.UTC()) {
		t.Fatalf("expected dueAt %v, got %v", due.UTC(), task.DueAt)
	}
}

func TestTaskService_Create_RejectsTooManyWords(t *testing.T) {
	t.Parallel()

	svc, st, c := newService(t)

	// 21 whitespace-delimited words must be rejected.
	content := strings.TrimSpace(strings.Repeat("word ", 21))

	_, err := svc.Create(context.Background(), service.CreateTaskInput{
		ContactID: c.ID,
		Content:   content,
		DueAt:     time.Now(),
	})
	if !service.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// The rejected task is never persisted.
	stats, err := st.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalScheduled != 0 {
		t.Fatalf("expected no persisted tasks, got %d", stats.TotalScheduled)
	}
}

func TestTaskService_Create_AcceptsExactlyMaxWords(t *testing.T) {
	t.Parallel()

	svc, _, c := newService(t)

	content := strings.TrimSpace(strings.Repeat("word ", 20))

	if _, err := svc.Create(context.Background(), service.CreateTaskInput{
		ContactID: c.ID,
		Content:   content,
		DueAt:     time.Now(),
	}); err != nil {
		t.Fatalf("expected 20-word content to be accepted, got %v", err)
	}
}

func TestTaskService_Create_ValidatesRequiredFields(t *testing.T) {
	t.Parallel()

	svc, _, c := newService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   service.CreateTaskInput
	}{
		{"missing contact", service.CreateTaskInput{Content: "hi", DueAt: time.Now()}},
		{"missing content", service.CreateTaskInput{ContactID: c.ID, DueAt: time.Now()}},
		{"blank content", service.CreateTaskInput{ContactID: c.ID, Content: "   ", DueAt: time.Now()}},
		{"missing dueAt", service.CreateTaskInput{ContactID: c.ID, Content: "hi"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.in); !service.IsValidation(err) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestTaskService_Create_UnknownContactIsValidationError(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)

	_, err := svc.Create(context.Background(), service.CreateTaskInput{
		ContactID: uuid.New(),
		Content:   "hi",
		DueAt:     time.Now(),
	})
	if !service.IsValidation(err) {
		t.Fatalf("expected ValidationError for unknown contact, got %v", err)
	}
}

func TestTaskService_Get_NotFound(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)

	_, err := svc.Get(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskService_FutureTaskCountsAsPending(t *testing.T) {
	t.Parallel()

	svc, st, c := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, service.CreateTaskInput{
		ContactID: c.ID,
		Content:   "later",
		DueAt:     time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	due, err := st.ListDue(ctx, time.Now())
	if err != nil {
		t.Fatalf("ListDue() error: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("future task must not be due, got %d", len(due))
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalPending != 1 {
		t.Fatalf("expected future task under totalPending, got %+v", stats)
	}
}
