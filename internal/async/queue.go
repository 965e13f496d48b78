package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one requested pipeline run over a folder.
type Job struct {
	RunID       uuid.UUID
	Folder      string
	Lang        string
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
