package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, common.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + filepath.Join(t.TempDir(), "reports.db"),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(db.Close)
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func sampleReport(at time.Time, invalid int) *entity.ValidationReport {
	res := entity.NewValidationResult("INV-1")
	if invalid > 0 {
		res.AddError("gross_total_required", "gross_total", "Gross total is missing")
	}
	return &entity.ValidationReport{
		ID: uuid.New(),
		Summary: entity.ValidationSummary{
			TotalInvoices:   1,
			ValidInvoices:   1 - invalid,
			InvalidInvoices: invalid,
			ErrorCounts:     map[string]int{},
			WarningCounts:   map[string]int{},
		},
		Results:     []entity.ValidationResult{*res},
		GeneratedAt: at,
	}
}

func TestSqliteDSN(t *testing.T) {
	tests := map[string]string{
		"":                             "file:invoice-qc.db?_pragma=foreign_keys(1)",
		"file:x.db":                    "file:x.db?_pragma=foreign_keys(1)",
		"file:x.db?mode=rw":            "file:x.db?mode=rw&_pragma=foreign_keys(1)",
		"x.db?_pragma=foreign_keys(1)": "x.db?_pragma=foreign_keys(1)",
	}
	for in, want := range tests {
		if got := sqliteDSN(in); got != want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), common.DatabaseConfig{Driver: "oracle"}, nil)
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestReportSaveGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	want := sampleReport(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), 1)
	if err := repo.Save(ctx, want, "batch-a"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Get(ctx, want.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	_, err = repo.Get(ctx, uuid.New())
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
	}
}

func TestReportSaveAssignsID(t *testing.T) {
	repo := NewReportRepository(openTestDB(t))
	r := sampleReport(time.Now().UTC(), 0)
	r.ID = uuid.Nil
	if err := repo.Save(context.Background(), r, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if r.ID == uuid.Nil {
		t.Fatal("Save did not assign an id")
	}
	if err := repo.Save(context.Background(), nil, ""); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("Save(nil) err = %v", err)
	}
}

func TestReportListRecentAndPrune(t *testing.T) {
	repo := NewReportRepository(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		r := sampleReport(base.Add(time.Duration(i)*time.Hour), i%2)
		if err := repo.Save(ctx, r, "cli"); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		ids = append(ids, r.ID)
	}

	headers, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(headers) != 2 {
		t.Fatalf("got %d headers, want 2", len(headers))
	}
	if headers[0].ID != ids[2] || headers[1].ID != ids[1] {
		t.Errorf("order = %v, %v; want newest first", headers[0].ID, headers[1].ID)
	}
	if headers[1].InvalidInvoices != 1 || headers[0].Source != "cli" {
		t.Errorf("header = %+v", headers[1])
	}
	if !headers[0].GeneratedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("GeneratedAt = %v", headers[0].GeneratedAt)
	}

	n, err := repo.DeleteOlderThan(ctx, base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	left, _ := repo.ListRecent(ctx, 0)
	if len(left) != 1 || left[0].ID != ids[2] {
		t.Errorf("remaining = %+v", left)
	}
}

func TestExtractJobLifecycle(t *testing.T) {
	jobs := NewExtractJobRepository(openTestDB(t))
	ctx := context.Background()

	ok, err := jobs.Start(ctx, "a.pdf", "abc123", "english")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := jobs.FinishSuccess(ctx, ok, "INV-9", true); err != nil {
		t.Fatalf("FinishSuccess: %v", err)
	}
	got, err := jobs.Get(ctx, ok)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != JobStatusSucceeded || got.InvoiceID != "INV-9" || !got.CacheHit || got.FinishedAt == nil {
		t.Errorf("job = %+v", got)
	}
	if got.ContentHash != "abc123" || got.Profile != "english" {
		t.Errorf("job = %+v", got)
	}

	bad, _ := jobs.Start(ctx, "b.txt", "", "european")
	if err := jobs.FinishFailure(ctx, bad, "no text"); err != nil {
		t.Fatalf("FinishFailure: %v", err)
	}
	got, _ = jobs.Get(ctx, bad)
	if got.Status != JobStatusFailed || got.ErrorMessage != "no text" || got.ContentHash != "" {
		t.Errorf("job = %+v", got)
	}

	if err := jobs.FinishFailure(ctx, uuid.New(), "x"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("finish unknown err = %v", err)
	}
	if _, err := jobs.Get(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("get unknown err = %v", err)
	}
}
