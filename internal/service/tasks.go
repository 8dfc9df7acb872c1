package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"smsdispatch/internal/model"
	"smsdispatch/internal/store"
)

// TaskService is the scheduling-request boundary: it validates inbound
// requests and answers queries. The scheduler never re-validates content.
type TaskService struct {
	store    store.TaskStore
	maxWords int
}

func NewTaskService(st store.TaskStore, maxWords int) *TaskService {
	return &TaskService{store: st, maxWords: maxWords}
}

type CreateTaskInput struct {
	ContactID uuid.UUID
	DeviceID  *uuid.UUID
	Content   string
	DueAt     time.Time
}

// Create persists a new pending task. A dueAt in the past is allowed; the
// task simply becomes due on the next tick.
func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (model.Task, error) {
	if in.ContactID == uuid.Nil {
		return model.Task{}, validationf("contactId is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return model.Task{}, validationf("content is required")
	}
	if n := len(strings.Fields(in.Content)); n > s.maxWords {
		return model.Task{}, validationf("content exceeds %d words (got %d)", s.maxWords, n)
	}
	if in.DueAt.IsZero() {
		return model.Task{}, validationf("dueAt is required")
	}

	t, err := s.store.CreateTask(ctx, store.NewTask{
		ContactID: in.ContactID,
		DeviceID:  in.DeviceID,
		Content:   in.Content,
		DueAt:     in.DueAt,
	})
	if errors.Is(err, store.ErrUnknownContact) || errors.Is(err, store.ErrUnknownDevice) {
		return model.Task{}, validationf("%s", err)
	}
	return t, err
}

func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (model.Task, error) {
	return s.store.GetTask(ctx, id)
}

func (s *TaskService) List(ctx context.Context) ([]model.TaskView, error) {
	return s.store.ListTasks(ctx)
}

// Stats is a pure read over the store, computed per request.
func (s *TaskService) Stats(ctx context.Context) (model.Stats, error) {
	return s.store.Stats(ctx)
}

func (s *TaskService) RegisterContact(ctx context.Context, name, phone string) (model.Contact, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(phone) == "" {
		return model.Contact{}, validationf("contact name and phone are required")
	}
	return s.store.CreateContact(ctx, name, phone)
}

func (s *TaskService) RegisterDevice(ctx context.Context, name, number string) (model.Device, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(number) == "" {
		return model.Device{}, validationf("device name and number are required")
	}
	return s.store.CreateDevice(ctx, name, number)
}
