package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/pipeline"
)

// ErrQueueClosed is returned by Enqueue after Shutdown started.
var ErrQueueClosed = errors.New("job queue is shutting down")

// Job is one listing/proposal pair waiting for a worker.
type Job struct {
	ID          uuid.UUID
	Listing     entity.Payload
	Proposal    entity.Payload
	Mode        pipeline.Mode
	SubmittedAt time.Time
	RequestID   string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) (uuid.UUID, error)
	Shutdown(ctx context.Context)
}
