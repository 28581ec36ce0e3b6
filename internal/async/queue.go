package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

// Job is one document to extract.
type Job struct {
	Path        string
	Index       int // position within a submitted batch
	SubmittedAt time.Time
	TraceID     string
	// Done receives the outcome when set. It must have room for the result;
	// workers never block on it.
	Done chan<- Result
}

// Result is the outcome of a Job.
type Result struct {
	Job     Job
	Invoice *entity.Invoice
	Err     error
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// FileProcessor is what workers run for each job.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (*entity.Invoice, error)
}
