package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"smsdispatch/internal/model"
)

func seedContact(t *testing.T, s *MemoryTaskStore) model.Contact {
	t.Helper()

	c, err := s.CreateContact(context.Background(), "Alice", "+361234567")
	if err != nil {
		t.Fatalf("CreateContact() error: %v", err)
	}
	return c
}

func TestMemoryStore_CreateTask(t *testing.T) {
	t.Parallel()

	s := NewMemoryTaskStore()
	ctx := context.Background()
	c := seedContact(t, s)

	due := time.Now().Add(time.Hour)
	created, err := s.CreateTask(ctx, NewTask{ContactID: c.ID, Content: "hello", DueAt: due})
	if err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}

	if created.ID == uuid.Nil {
		t.Fatalf("expected assigned id")
	}
	if created.Status != model.StatusPending {
		t.Fatalf("expected status pending, got %q", created.Status)
	}
	if created.Error != nil {
		t.Fatalf("expected no error on new task, got %q", *created.Error)
	}
	if created.CreatedAt.IsZero() {
		t.Fatalf("expected createdAt to be set")
	}

	got, err := s.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if got.Content != "hello" {
		t.Fatalf("expected content %q, got %q", "hello", got.Content)
	}
}

func TestMemoryStore_CreateTask_UnknownReferences(t *testing.T) {
	t.Parallel()

	s := NewMemoryTaskStore()
	ctx := context.Background()

	_, err := s.CreateTask(ctx, NewTask{ContactID: uuid.New(), Content: "x", DueAt: time.Now()})
	if err != ErrUnknownContact {
		t.Fatalf("expected ErrUnknownContact, got %v", err)
	}

	c := seedContact(t, s)
	badDevice := uuid.New()
	_, err = s.CreateTask(ctx, NewTask{ContactID: c.ID, DeviceID: &badDevice, Content: "x", DueAt: time.Now()})
	if err != ErrUnknownDevice {
		t.Fatalf("expected ErrUnknownDevice, got %v", err)
	}
}

func TestMemoryStore_GetTask_NotFound(t *testing.T) {
	t.Parallel()

	s := NewMemoryTaskStore()

	_, err := s.GetTask(context.Background(), uuid.New())
	if err != ErrTaskNotFound {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestMemoryStore_ListDue_Boundary(t *testing.T) {
	t.Parallel()

	s := NewMemoryTaskStore()
	ctx := context.Background()
	c := seedContact(t, s)

	now := time.Now().UTC()

	past, _ := s.CreateTask(ctx, NewTask{ContactID: c.ID, Content: "past", DueAt: now.Add(-time.Second)})
	exact, _ := s.CreateTask(ctx, NewTask{ContactID: c.ID, Content: "exact", DueAt: now})
	future, _ := s.CreateTask(ctx, NewTask{ContactID: c.ID, Content: "future", DueAt: now.Add(time.Hour)})

	due, err := s.ListDue(ctx, now)
	if err != nil {
		t.Fatalf("ListDue() error: %v", err)
	}

	ids := make(map[uuid.UUID]bool, len(due))
	for _, d := range due {
		ids[d.ID] = true
	}

	if !ids[past.ID] {
		t.Fatalf("expected past task to be due")
	}
	if !ids[exact.ID] {
		t.Fatalf("expected task with dueAt == now to be due")
	}
	if ids[future.ID] {
		t.Fatalf("future task must not be selected before its dueAt")
	}
}

func TestMemoryStore_ListDue_CarriesContactPhone(t *testing.T) {
	t.Parallel()

	s := NewMemoryTaskStore()
	ctx := context.Background()
	c := seedContact(t, s)

	_, _ = s.CreateTask(ctx, NewTask{ContactID: c.ID, Content: "x", DueAt: time.Now().Add(-time.Minute)})

	due, err := s.ListDue(ctx, time.Now())
	if err != nil {
		t.Fatalf("ListDue() error: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 due task, got %d", len(due))
	}
	if due[0].Phone != c.Phone {
		t.Fatalf("expected phone %q, got %q", c.Phone, due[0].Phone)
	}
}

func TestMemoryStore_MarkSent_RemovesFromDue(t *testing.T) {
	t.Parallel()

	s := NewMemoryTaskStore()
	ctx := context.Background()
	c := seedContact(t, s)

	created, _ := s.CreateTask(ctx, NewTask{ContactID: c.ID, Content: "x", DueAt: time.Now().Add(-time.Minute)})

	at := time.Now().UTC()
	if err := s.MarkSent(ctx, created.ID, at); err != nil {
		t.Fatalf("MarkSent() error: %v", err)
	}

	got, _ := s.GetTask(ctx, created.ID)
	if got.Status != model.StatusSent {
		t.Fatalf("expected status sent, got %q", got.Status)
	}
	if got.SentAt == nil || !got.SentAt.Equal(at) {
		t.Fatalf("expected sentAt %v, got %v", at, got.SentAt)
	}
	if got.Error != nil {
		t.Fatalf("sent task must not carry an error, got %q", *got.Error)
	}

	due, _ := s.ListDue(ctx, time.Now())
	if len(due) != 0 {
		t.Fatalf("sent task must not be selected again, got %d due", len(due))
	}
}

func TestMemoryStore_MarkFailed_SetsErrorAndStaysTerminal(t *testing.T) {
	t.Parallel()

	s := NewMemoryTaskStore()
	ctx := context.Background()
	c := seedContact(t, s)

	created, _ := s.CreateTask(ctx, NewTask{ContactID: c.ID, Content: "x", DueAt: time.Now().Add(-time.Minute)})

	if err := s.MarkFailed(ctx, created.ID, "network error"); err != nil {
		t.Fatalf("MarkFailed() error: %v", err)
	}

	got, _ := s.GetTask(ctx, created.ID)
	if got.Status != model.StatusFailed {
		t.Fatalf("expected status failed, got %q", got.Status)
	}
	if got.Error == nil || *got.Error != "network error" {
		t.Fatalf("expected error %q, got %v", "network error", got.Error)
	}

	// A terminal row is never rewritten, in either direction.
	if err := s.MarkSent(ctx, created.ID, time.Now()); err != nil {
		t.Fatalf("MarkSent() error: %v", err)
	}
	got, _ = s.GetTask(ctx, created.ID)
	if got.Status != model.StatusFailed {
		t.Fatalf("failed task must stay failed, got %q", got.Status)
	}

	due, _ := s.ListDue(ctx, time.Now())
	if len(due) != 0 {
		t.Fatalf("failed task must not be selected again, got %d due", len(due))
	}
}

func TestMemoryStore_Stats_Identity(t *testing.T) {
	t.Parallel()

	s := NewMemoryTaskStore()
	ctx := context.Background()
	c := seedContact(t, s)

	a, _ := s.CreateTask(ctx, NewTask{ContactID: c.ID, Content: "a", DueAt: time.Now()})
	b, _ := s.CreateTask(ctx, NewTask{ContactID: c.ID, Content: "b", DueAt: time.Now()})
	_, _ = s.CreateTask(ctx, NewTask{ContactID: c.ID, Content: "c", DueAt: time.Now().Add(time.Hour)})

	_ = s.MarkSent(ctx, a.ID, time.Now())
	_ = s.MarkFailed(ctx, b.ID, "boom")

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}

	if st.TotalContacts != 1 {
		t.Fatalf("expected 1 contact, got %d", st.TotalContacts)
	}
	if st.TotalScheduled != 3 || st.TotalSent != 1 || st.TotalFailed != 1 || st.TotalPending != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if st.TotalScheduled != st.TotalSent+st.TotalFailed+st.TotalPending {
		t.Fatalf("stats identity violated: %+v", st)
	}
}

func TestMemoryStore_ListTasks_NewestFirstWithJoins(t *testing.T) {
	t.Parallel()

	s := NewMemoryTaskStore()
	ctx := context.Background()
	c := seedContact(t, s)

	d, err := s.CreateDevice(ctx, "sim-1", "+360000001")
	if err != nil {
		t.Fatalf("CreateDevice() error: %v", err)
	}

	first, _ := s.CreateTask(ctx, NewTask{ContactID: c.ID, Content: "first", DueAt: time.Now()})
	time.Sleep(2 * time.Millisecond)
	second, _ := s.CreateTask(ctx, NewTask{ContactID: c.ID, DeviceID: &d.ID, Content: "second", DueAt: time.Now()})

	views, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks() error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(views))
	}

	if views[0].ID != second.ID || views[1].ID != first.ID {
		t.Fatalf("expected newest-first order, got %v then %v", views[0].ID, views[1].ID)
	}
	if views[0].ContactName != "Alice" || views[0].ContactPhone != c.Phone {
		t.Fatalf("expected contact join on view, got %+v", views[0])
	}
	if views[0].DeviceName == nil || *views[0].DeviceName != "sim-1" {
		t.Fatalf("expected device join on view, got %+v", views[0].DeviceName)
	}
	if views[1].DeviceName != nil {
		t.Fatalf("expected no device name for task without device")
	}
}
