package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"smsdispatch/internal/model"
)

// MemoryTaskStore is an in-memory TaskStore with the same transition
// semantics as the Postgres one. Used by tests and local runs without a
// database.
type MemoryTaskStore struct {
	mu       sync.RWMutex
	tasks    map[uuid.UUID]model.Task
	contacts map[uuid.UUID]model.Contact
	devices  map[uuid.UUID]model.Device
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks:    make(map[uuid.UUID]model.Task),
		contacts: make(map[uuid.UUID]model.Contact),
		devices:  make(map[uuid.UUID]model.Device),
	}
}

func (s *MemoryTaskStore) CreateTask(ctx context.Context, nt NewTask) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contacts[nt.ContactID]; !ok {
		return model.Task{}, ErrUnknownContact
	}
	if nt.DeviceID != nil {
		if _, ok := s.devices[*nt.DeviceID]; !ok {
			return model.Task{}, ErrUnknownDevice
		}
	}

	t := model.Task{
		ID:        uuid.New(),
		ContactID: nt.ContactID,
		DeviceID:  nt.DeviceID,
		Content:   nt.Content,
		DueAt:     nt.DueAt.UTC(),
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.tasks[t.ID] = t
	return t, nil
}

func (s *MemoryTaskStore) GetTask(ctx context.Context, id uuid.UUID) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	return t, nil
}

func (s *MemoryTaskStore) ListTasks(ctx context.Context) ([]model.TaskView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TaskView, 0, len(s.tasks))
	for _, t := range s.tasks {
		v := model.TaskView{Task: t}
		if c, ok := s.contacts[t.ContactID]; ok {
			v.ContactName = c.Name
			v.ContactPhone = c.Phone
		}
		if t.DeviceID != nil {
			if d, ok := s.devices[*t.DeviceID]; ok {
				name := d.Name
				v.DeviceName = &name
			}
		}
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryTaskStore) ListDue(ctx context.Context, now time.Time) ([]model.DueTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.DueTask
	for _, t := range s.tasks {
		if t.Status != model.StatusPending || t.DueAt.After(now) {
			continue
		}
		d := model.DueTask{
			ID:       t.ID,
			Content:  t.Content,
			DeviceID: t.DeviceID,
		}
		if c, ok := s.contacts[t.ContactID]; ok {
			d.Phone = c.Phone
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *MemoryTaskStore) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Status != model.StatusPending {
		return nil
	}
	sentAt := at.UTC()
	t.Status = model.StatusSent
	t.SentAt = &sentAt
	t.Error = nil
	s.tasks[id] = t
	return nil
}

func (s *MemoryTaskStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Status != model.StatusPending {
		return nil
	}
	t.Status = model.StatusFailed
	t.Error = &reason
	s.tasks[id] = t
	return nil
}

func (s *MemoryTaskStore) Stats(ctx context.Context) (model.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := model.Stats{TotalContacts: len(s.contacts)}
	for _, t := range s.tasks {
		st.TotalScheduled++
		switch t.Status {
		case model.StatusPending:
			st.TotalPending++
		case model.StatusSent:
			st.TotalSent++
		case model.StatusFailed:
			st.TotalFailed++
		}
	}
	return st, nil
}

func (s *MemoryTaskStore) CreateContact(ctx context.Context, name, phone string) (model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := model.Contact{ID: uuid.New(), Name: name, Phone: phone}
	s.contacts[c.ID] = c
	return c, nil
}

func (s *MemoryTaskStore) CreateDevice(ctx context.Context, name, number string) (model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := model.Device{ID: uuid.New(), Name: name, Number: number}
	s.devices[d.ID] = d
	return d, nil
}

var _ TaskStore = (*MemoryTaskStore)(nil)
