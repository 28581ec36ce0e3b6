package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

type stubReports struct {
	report *entity.ValidationReport
}

func (s stubReports) Save(context.Context, *entity.ValidationReport, string) error { return nil }

func (s stubReports) Get(_ context.Context, id uuid.UUID) (*entity.ValidationReport, error) {
	if s.report == nil || s.report.ID != id {
		return nil, common.NewAppError("REPORT_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	return s.report, nil
}

func (s stubReports) ListRecent(context.Context, int) ([]entity.ReportHeader, error) { return nil, nil }

func (s stubReports) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func testReport() *entity.ValidationReport {
	bad := entity.NewValidationResult("INV-2")
	bad.AddError("gross_total_required", "gross_total", "Gross total is missing")
	bad.AddWarning("unreasonable_due_date", "due_date", "Due date is far in the future")
	good := entity.NewValidationResult("INV-1")
	return &entity.ValidationReport{
		ID: uuid.New(),
		Summary: entity.ValidationSummary{
			TotalInvoices:        2,
			ValidInvoices:        1,
			InvalidInvoices:      1,
			InvoicesWithWarnings: 1,
			ErrorCounts:          map[string]int{"gross_total_required: gross_total": 1},
			WarningCounts:        map[string]int{"unreasonable_due_date: due_date": 1},
		},
		Results:     []entity.ValidationResult{*good, *bad},
		GeneratedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestReportXLSX(t *testing.T) {
	gross := decimal.RequireFromString("119")
	d := entity.NewDate(2024, time.May, 2)
	invoices := []*entity.Invoice{{InvoiceNumber: "INV-1", InvoiceDate: &d, GrossTotal: &gross, Currency: "EUR"}}

	b, err := NewService(nil, quietLogger()).ReportXLSX(testReport(), invoices)
	if err != nil {
		t.Fatalf("ReportXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	want := []string{sheetSummary, sheetResults, sheetIssues, sheetInvoices}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, got[i], want[i])
		}
	}

	checks := []struct{ sheet, cell, want string }{
		{sheetSummary, "B3", "2"},
		{sheetSummary, "A8", "Errors"},
		{sheetSummary, "A9", "gross_total_required: gross_total"},
		{sheetResults, "A3", "INV-2"},
		{sheetResults, "B3", "FALSE"},
		{sheetResults, "E3", "gross_total_required"},
		{sheetIssues, "B2", "error"},
		{sheetIssues, "C3", "unreasonable_due_date"},
		{sheetInvoices, "B2", "2024-05-02"},
		{sheetInvoices, "I2", "119.00"},
	}
	for _, c := range checks {
		v, err := f.GetCellValue(c.sheet, c.cell)
		if err != nil {
			t.Fatalf("%s!%s: %v", c.sheet, c.cell, err)
		}
		if v != c.want {
			t.Errorf("%s!%s = %q, want %q", c.sheet, c.cell, v, c.want)
		}
	}
}

func TestReportXLSXNoInvoicesSheet(t *testing.T) {
	b, err := NewService(nil, quietLogger()).ReportXLSX(testReport(), nil)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if n := len(f.GetSheetList()); n != 3 {
		t.Errorf("got %d sheets, want 3", n)
	}
}

func TestExportReportXLSX(t *testing.T) {
	r := testReport()
	svc := NewService(stubReports{report: r}, quietLogger())
	if _, err := svc.ExportReportXLSX(context.Background(), r.ID); err != nil {
		t.Fatalf("ExportReportXLSX: %v", err)
	}
	_, err := svc.ExportReportXLSX(context.Background(), uuid.New())
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := NewService(nil, nil).ExportReportXLSX(context.Background(), r.ID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("no store err = %v", err)
	}
}
