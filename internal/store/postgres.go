package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"smsdispatch/internal/model"
)

type PostgresTaskStore struct {
	db *sql.DB
}

var _ TaskStore = (*PostgresTaskStore)(nil)

func NewPostgresTaskStore(db *sql.DB) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

// InitSchema creates the tables if they do not exist yet. Contacts and
// devices are reference data owned by external collaborators; tasks hold
// the scheduler state.
func (s *PostgresTaskStore) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contacts (
			id    UUID PRIMARY KEY,
			name  TEXT NOT NULL,
			phone TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS devices (
			id     UUID PRIMARY KEY,
			name   TEXT NOT NULL,
			number TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id         UUID PRIMARY KEY,
			contact_id UUID NOT NULL REFERENCES contacts(id),
			device_id  UUID REFERENCES devices(id),
			content    TEXT NOT NULL,
			due_at     TIMESTAMPTZ NOT NULL,
			status     TEXT NOT NULL DEFAULT 'pending',
			last_error TEXT,
			sent_at    TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS tasks_due_idx
			ON tasks (due_at) WHERE status = 'pending'`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresTaskStore) CreateTask(ctx context.Context, nt NewTask) (model.Task, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM contacts WHERE id = $1)`, nt.ContactID,
	).Scan(&exists); err != nil {
		return model.Task{}, fmt.Errorf("check contact: %w", err)
	}
	if !exists {
		return model.Task{}, ErrUnknownContact
	}

	if nt.DeviceID != nil {
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM devices WHERE id = $1)`, *nt.DeviceID,
		).Scan(&exists); err != nil {
			return model.Task{}, fmt.Errorf("check device: %w", err)
		}
		if !exists {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, contact_id, device_id, content, due_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, t.ContactID, t.DeviceID, t.Content, t.DueAt, string(t.Status), t.CreatedAt)
	if err != nil {
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (s *PostgresTaskStore) GetTask(ctx context.Context, id uuid.UUID) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, contact_id, device_id, content, due_at, status, last_error, sent_at, created_at
		FROM tasks
		WHERE id = $1
	`, id)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrTaskNotFound
	}
	return t, err
}

func (s *PostgresTaskStore) ListTasks(ctx context.Context) ([]model.TaskView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.contact_id, t.device_id, t.content, t.due_at, t.status,
		       t.last_error, t.sent_at, t.created_at,
		       c.name, c.phone, d.name
		FROM tasks t
		JOIN contacts c ON c.id = t.contact_id
		LEFT JOIN devices d ON d.id = t.device_id
		ORDER BY t.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []model.TaskView
	for rows.Next() {
		var (
			v          model.TaskView
			deviceID   sql.NullString
			status     string
			lastErr    sql.NullString
			sentAt     sql.NullTime
			deviceName sql.NullString
		)
		if err := rows.Scan(
			&v.ID, &v.ContactID, &deviceID, &v.Content, &v.DueAt, &status,
			&lastErr, &sentAt, &v.CreatedAt,
			&v.ContactName, &v.ContactPhone, &deviceName,
		); err != nil {
			return nil, fmt.Errorf("scan task view: %w", err)
		}

		v.Status = model.Status(status)
		if deviceID.Valid {
			id, err := uuid.Parse(deviceID.String)
			if err != nil {
				return nil, fmt.Errorf("parse device id: %w", err)
			}
			v.DeviceID = &id
		}
		if lastErr.Valid {
			e := lastErr.String
			v.Error = &e
		}
		if sentAt.Valid {
			at := sentAt.Time
			v.SentAt = &at
		}
		if deviceName.Valid {
			n := deviceName.String
			v.DeviceName = &n
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PostgresTaskStore) ListDue(ctx context.Context, now time.Time) ([]model.DueTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.content, c.phone, t.device_id
		FROM tasks t
		JOIN contacts c ON c.id = t.contact_id
		WHERE t.status = 'pending' AND t.due_at <= $1
	`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("list due: %w", err)
	}
	defer rows.Close()

	var out []model.DueTask
	for rows.Next() {
		var (
			d        model.DueTask
			deviceID sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Content, &d.Phone, &deviceID); err != nil {
			return nil, fmt.Errorf("scan due task: %w", err)
		}
		if deviceID.Valid {
			id, err := uuid.Parse(deviceID.String)
			if err != nil {
				return nil, fmt.Errorf("parse device id: %w", err)
			}
			d.DeviceID = &id
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// MarkSent transitions a pending task to sent. The status guard keeps a
// terminal row from ever being rewritten, so a racing second writer is a no-op.
func (s *PostgresTaskStore) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = 'sent',
		    sent_at = $2,
		    last_error = NULL
		WHERE id = $1 AND status = 'pending'
	`, id, at.UTC())
	return err
}

func (s *PostgresTaskStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = 'failed',
		    last_error = $2
		WHERE id = $1 AND status = 'pending'
	`, id, reason)
	return err
}

func (s *PostgresTaskStore) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return model.Stats{}, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return model.Stats{}, fmt.Errorf("scan status count: %w", err)
		}
		switch model.Status(status) {
		case model.StatusPending:
			st.TotalPending = n
		case model.StatusSent:
			st.TotalSent = n
		case model.StatusFailed:
			st.TotalFailed = n
		}
		st.TotalScheduled += n
	}
	if err := rows.Err(); err != nil {
		return model.Stats{}, err
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contacts`).Scan(&st.TotalContacts); err != nil {
		return model.Stats{}, fmt.Errorf("count contacts: %w", err)
	}
	return st, nil
}

func (s *PostgresTaskStore) CreateContact(ctx context.Context, name, phone string) (model.Contact, error) {
	c := model.Contact{ID: uuid.New(), Name: name, Phone: phone}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, name, phone) VALUES ($1, $2, $3)`,
		c.ID, c.Name, c.Phone)
	if err != nil {
		return model.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return c, nil
}

func (s *PostgresTaskStore) CreateDevice(ctx context.Context, name, number string) (model.Device, error) {
	d := model.Device{ID: uuid.New(), Name: name, Number: number}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO devices (id, name, number) VALUES ($1, $2, $3)`,
		d.ID, d.Name, d.Number)
	if err != nil {
		return model.Device{}, fmt.Errorf("insert device: %w", err)
	}
	return d, nil
}

func scanTask(row *sql.Row) (model.Task, error) {
	var (
		t        model.Task
		deviceID sql.NullString
		status   string
		lastErr  sql.NullString
		sentAt   sql.NullTime
	)
	if err := row.Scan(
		&t.ID, &t.ContactID, &deviceID, &t.Content, &t.DueAt, &status,
		&lastErr, &sentAt, &t.CreatedAt,
	); err != nil {
		return model.Task{}, err
	}

	t.Status = model.Status(status)
	if deviceID.Valid {
		id, err := uuid.Parse(deviceID.String)
		if err != nil {
			return model.Task{}, fmt.Errorf("parse device id: %w", err)
		}
		t.DeviceID = &id
	}
	if lastErr.Valid {
		e := lastErr.String
		t.Error = &e
	}
	if sentAt.Valid {
		at := sentAt.Time
		t.SentAt = &at
	}
	return t, nil
}
