package sender

import (
	"context"

	"github.com/google/uuid"
)

// Sender performs the actual message transmission. Transport is a
// collaborator concern; the pipeline only needs success or failure.
// A nil deviceID means "any sender device".
type Sender interface {
	Send(ctx context.Context, content, phone string, deviceID *uuid.UUID) error
}
