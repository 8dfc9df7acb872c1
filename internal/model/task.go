package model

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

// Task is one unit of deferred delivery work. Status moves from pending to
// exactly one of sent or failed; Error is set only on failed.
type Task struct {
	ID        uuid.UUID  `json:"id"`
	ContactID uuid.UUID  `json:"contactId"`
	DeviceID  *uuid.UUID `json:"deviceId,omitempty"`
	Content   string     `json:"content"`
	DueAt     time.Time  `json:"dueAt"`
	Status    Status     `json:"status"`
	Error     *string    `json:"error,omitempty"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TaskView is a Task joined with contact/device display fields for listings
// and export. The joins carry no scheduling meaning.
type TaskView struct {
	Task
	ContactName  string  `json:"contactName"`
	ContactPhone string  `json:"contactPhone"`
	DeviceName   *string `json:"deviceName,omitempty"`
}

// DueTask is the projection the delivery executor works from: everything
// needed for one send attempt, nothing else.
type DueTask struct {
	ID       uuid.UUID
	Content  string
	Phone    string
	DeviceID *uuid.UUID
}

// Contact and Device are owned by external collaborators; the core keeps
// reference rows so task foreign keys resolve and listings can join names.
type Contact struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
}

type Device struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Number string    `json:"number"`
}

type Stats struct {
	TotalContacts  int `json:"totalContacts"`
	TotalScheduled int `json:"totalScheduled"`
	TotalSent      int `json:"totalSent"`
	TotalFailed    int `json:"totalFailed"`
	TotalPending   int `json:"totalPending"`
}
