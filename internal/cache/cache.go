package cache

import (
	"context"
	"time"

	"github.com/google/uuid"

	"smsdispatch/internal/model"
)

// ReceiptCache records terminal delivery outcomes for fast lookup by other
// systems. Best-effort: the store remains the source of truth.
type ReceiptCache interface {
	StoreOutcome(ctx context.Context, taskID uuid.UUID, status model.Status, at time.Time) error
}
