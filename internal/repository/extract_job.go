package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
)

const (
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// ExtractJob is one document extraction attempt.
type ExtractJob struct {
	ID           uuid.UUID
	Source       string
	ContentHash  string
	Profile      string
	Status       string
	InvoiceID    string
	ErrorMessage string
	CacheHit     bool
	StartedAt    time.Time
	FinishedAt   *time.Time
}

type ExtractJobRepository interface {
	Start(ctx context.Context, source, contentHash, profile string) (uuid.UUID, error)
	FinishSuccess(ctx context.Context, jobID uuid.UUID, invoiceID string, cacheHit bool) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	Get(ctx context.Context, jobID uuid.UUID) (*ExtractJob, error)
}

type extractJobRepo struct {
	db  *DB
	now func() time.Time
}

func NewExtractJobRepository(db *DB) ExtractJobRepository {
	return &extractJobRepo{db: db, now: time.Now}
}

func (r *extractJobRepo) Start(ctx context.Context, source, contentHash, profile string) (uuid.UUID, error) {
	id := uuid.New()
	var hash any
	if contentHash != "" {
		hash = contentHash
	}
	query, args := entsql.Dialect(r.db.dialect).
		Insert(extractJobsTableName).
		Columns("id", "source", "content_hash", "profile", "status", "cache_hit", "started_at").
		Values(id.String(), source, hash, profile, JobStatusRunning, false, r.now().UTC()).
		Query()
	if _, err := r.db.sqlDB().ExecContext(ctx, query, args...); err != nil {
		r.db.logger.Error("repository.extract_job.start.failed", "source", source, "err", err)
		return uuid.Nil, common.NewAppError("DB_WRITE", "start extract job", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	r.db.logger.Debug("repository.extract_job.started", "job_id", id, "source", source)
	return id, nil
}

func (r *extractJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, invoiceID string, cacheHit bool) error {
	return r.finish(ctx, jobID, entsql.Dialect(r.db.dialect).
		Update(extractJobsTableName).
		Set("status", JobStatusSucceeded).
		Set("invoice_id", invoiceID).
		Set("cache_hit", cacheHit).
		Set("finished_at", r.now().UTC()))
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	if len(message) > 2048 {
		message = message[:2048]
	}
	return r.finish(ctx, jobID, entsql.Dialect(r.db.dialect).
		Update(extractJobsTableName).
		Set("status", JobStatusFailed).
		Set("error_message", message).
		Set("finished_at", r.now().UTC()))
}

func (r *extractJobRepo) finish(ctx context.Context, jobID uuid.UUID, u *entsql.UpdateBuilder) error {
	query, args := u.Where(entsql.EQ("id", jobID.String())).Query()
	res, err := r.db.sqlDB().ExecContext(ctx, query, args...)
	if err != nil {
		r.db.logger.Error("repository.extract_job.finish.failed", "job_id", jobID, "err", err)
		return common.NewAppError("DB_WRITE", "finish extract job", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("JOB_NOT_FOUND", jobID.String(), common.ErrNotFound)
	}
	return nil
}

func (r *extractJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*ExtractJob, error) {
	b := entsql.Dialect(r.db.dialect)
	query, args := b.Select("source", "content_hash", "profile", "status", "invoice_id", "error_message", "cache_hit", "started_at", "finished_at").
		From(b.Table(extractJobsTableName)).
		Where(entsql.EQ("id", jobID.String())).
		Query()

	job := ExtractJob{ID: jobID}
	var hash, inv, msg sql.NullString
	var started, finished any
	err := r.db.sqlDB().QueryRowContext(ctx, query, args...).
		Scan(&job.Source, &hash, &job.Profile, &job.Status, &inv, &msg, &job.CacheHit, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("JOB_NOT_FOUND", jobID.String(), common.ErrNotFound)
	}
	if err != nil {
		return nil, common.NewAppError("DB_READ", "get extract job", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	job.ContentHash, job.InvoiceID, job.ErrorMessage = hash.String, inv.String, msg.String
	if job.StartedAt, err = scanTime(started); err != nil {
		return nil, common.NewAppError("DB_READ", "bad started_at", fmt.Errorf("%w: %v", common.ErrInternal, err))
	}
	if finished != nil {
		t, err := scanTime(finished)
		if err != nil {
			return nil, common.NewAppError("DB_READ", "bad finished_at", fmt.Errorf("%w: %v", common.ErrInternal, err))
		}
		job.FinishedAt = &t
	}
	return &job, nil
}
