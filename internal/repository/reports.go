package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

type ReportRepository interface {
	Save(ctx context.Context, report *entity.ValidationReport, source string) error
	Get(ctx context.Context, id uuid.UUID) (*entity.ValidationReport, error)
	ListRecent(ctx context.Context, limit int) ([]entity.ReportHeader, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type reportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Save(ctx context.Context, report *entity.ValidationReport, source string) error {
	if report == nil {
		return common.NewAppError("INVALID_ARGUMENT", "nil report", common.ErrInvalidInput)
	}
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return common.WrapError(err, "encode report")
	}

	query, args := entsql.Dialect(r.db.dialect).
		Insert(reportsTableName).
		Columns("id", "generated_at", "source", "total_invoices", "valid_invoices", "invalid_invoices", "payload").
		Values(
			report.ID.String(),
			report.GeneratedAt.UTC(),
			source,
			report.Summary.TotalInvoices,
			report.Summary.ValidInvoices,
			report.Summary.InvalidInvoices,
			string(payload),
		).
		Query()
	if _, err := r.db.sqlDB().ExecContext(ctx, query, args...); err != nil {
		r.db.logger.Error("repository.report.save.failed", "report_id", report.ID, "err", err)
		return common.NewAppError("DB_WRITE", "save report", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	r.db.logger.Info("repository.report.saved",
		"report_id", report.ID,
		"source", source,
		"total", report.Summary.TotalInvoices,
		"invalid", report.Summary.InvalidInvoices,
	)
	return nil
}

func (r *reportRepository) Get(ctx context.Context, id uuid.UUID) (*entity.ValidationReport, error) {
	b := entsql.Dialect(r.db.dialect)
	query, args := b.Select("payload").
		From(b.Table(reportsTableName)).
		Where(entsql.EQ("id", id.String())).
		Query()

	var payload []byte
	err := r.db.sqlDB().QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("REPORT_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	if err != nil {
		r.db.logger.Error("repository.report.get.failed", "report_id", id, "err", err)
		return nil, common.NewAppError("DB_READ", "get report", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	var report entity.ValidationReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, common.NewAppError("DB_READ", "decode report", fmt.Errorf("%w: %v", common.ErrInternal, err))
	}
	return &report, nil
}

// ListRecent returns report headers, newest first.
func (r *reportRepository) ListRecent(ctx context.Context, limit int) ([]entity.ReportHeader, error) {
	if limit <= 0 {
		limit = 20
	}
	b := entsql.Dialect(r.db.dialect)
	query, args := b.Select("id", "generated_at", "source", "total_invoices", "invalid_invoices").
		From(b.Table(reportsTableName)).
		OrderBy(entsql.Desc("generated_at")).
		Limit(limit).
		Query()

	rows, err := r.db.sqlDB().QueryContext(ctx, query, args...)
	if err != nil {
		r.db.logger.Error("repository.report.list.failed", "err", err)
		return nil, common.NewAppError("DB_READ", "list reports", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	defer rows.Close()

	out := make([]entity.ReportHeader, 0, limit)
	for rows.Next() {
		var (
			h   entity.ReportHeader
			id  string
			gen any
		)
		if err := rows.Scan(&id, &gen, &h.Source, &h.TotalInvoices, &h.InvalidInvoices); err != nil {
			return nil, common.NewAppError("DB_READ", "scan report", fmt.Errorf("%w: %v", common.ErrDatabase, err))
		}
		if h.ID, err = uuid.Parse(id); err != nil {
			return nil, common.NewAppError("DB_READ", "bad report id "+id, common.ErrInternal)
		}
		if h.GeneratedAt, err = scanTime(gen); err != nil {
			return nil, common.NewAppError("DB_READ", "bad generated_at", fmt.Errorf("%w: %v", common.ErrInternal, err))
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("DB_READ", "iterate reports", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	return out, nil
}

// DeleteOlderThan prunes reports generated before cutoff.
func (r *reportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args := entsql.Dialect(r.db.dialect).
		Delete(reportsTableName).
		Where(entsql.LT("generated_at", cutoff.UTC())).
		Query()
	res, err := r.db.sqlDB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, common.NewAppError("DB_WRITE", "prune reports", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	n, _ := res.RowsAffected()
	r.db.logger.Info("repository.report.pruned", "cutoff", cutoff, "deleted", n)
	return n, nil
}

// scanTime accepts the representations drivers use for timestamp columns.
func scanTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseTimeString(t)
	case []byte:
		return parseTimeString(string(t))
	case int64:
		return time.Unix(t, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported time value %T", v)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimeString(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
