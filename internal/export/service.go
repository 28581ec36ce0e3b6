package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
	"github.com/joseph-ayodele/invoice-qc/internal/repository"
)

const (
	sheetSummary  = "Summary"
	sheetResults  = "Results"
	sheetIssues   = "Issues"
	sheetInvoices = "Invoices"
)

// Service is a tiny façade over the report store that produces XLSX bytes.
type Service struct {
	reports repository.ReportRepository
	logger  *slog.Logger
}

func NewService(reports repository.ReportRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reports: reports, logger: logger}
}

// ExportReportXLSX loads a stored report and renders it.
func (s *Service) ExportReportXLSX(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if s.reports == nil {
		return nil, common.NewAppError("NO_REPORT_STORE", "report store is not configured", common.ErrNotFound)
	}
	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ReportXLSX(report, nil)
}

// ReportXLSX renders a workbook with Summary, Results and Issues sheets, plus an
// Invoices sheet when the extracted records are supplied.
func (s *Service) ReportXLSX(report *entity.ValidationReport, invoices []*entity.Invoice) ([]byte, error) {
	if report == nil {
		return nil, common.NewAppError("INVALID_ARGUMENT", "nil report", common.ErrInvalidInput)
	}
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes Summary
	if err := f.SetSheetName(f.GetSheetName(0), sheetSummary); err != nil {
		return nil, err
	}
	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	writeSummary(f, report, bold)

	if _, err := f.NewSheet(sheetResults); err != nil {
		return nil, err
	}
	writeHeader(f, sheetResults, bold, "Invoice", "Valid", "Errors", "Warnings", "Error Rules")
	for i, r := range report.Results {
		rules := make([]string, 0, len(r.Errors))
		for _, e := range r.Errors {
			rules = append(rules, e.Rule)
		}
		writeRow(f, sheetResults, i+2, r.InvoiceID, r.IsValid, len(r.Errors), len(r.Warnings), strings.Join(rules, ", "))
	}

	if _, err := f.NewSheet(sheetIssues); err != nil {
		return nil, err
	}
	writeHeader(f, sheetIssues, bold, "Invoice", "Severity", "Rule", "Field", "Message")
	row := 2
	for _, r := range report.Results {
		for _, issues := range [][]entity.Issue{r.Errors, r.Warnings} {
			for _, is := range issues {
				writeRow(f, sheetIssues, row, r.InvoiceID, string(is.Severity), is.Rule, is.Field, truncate(is.Message, 240))
				row++
			}
		}
	}

	if len(invoices) > 0 {
		if _, err := f.NewSheet(sheetInvoices); err != nil {
			return nil, err
		}
		writeHeader(f, sheetInvoices, bold,
			"Invoice Number", "Invoice Date", "Due Date", "Seller", "Buyer",
			"Currency", "Net Total", "Tax Amount", "Gross Total", "Line Items", "Source File")
		for i, inv := range invoices {
			if inv == nil {
				continue
			}
			writeRow(f, sheetInvoices, i+2,
				inv.InvoiceNumber, dateCell(inv.InvoiceDate), dateCell(inv.DueDate),
				inv.SellerName, inv.BuyerName, inv.Currency,
				amountCell(inv.NetTotal), amountCell(inv.TaxAmount), amountCell(inv.GrossTotal),
				len(inv.LineItems), inv.SourceFile)
		}
		_ = f.SetColWidth(sheetInvoices, "A", "C", 16)
		_ = f.SetColWidth(sheetInvoices, "D", "E", 32)
		_ = f.SetColWidth(sheetInvoices, "G", "I", 14)
		_ = f.SetColWidth(sheetInvoices, "K", "K", 40)
	}

	// Widen a few columns
	_ = f.SetColWidth(sheetSummary, "A", "A", 40)
	_ = f.SetColWidth(sheetResults, "A", "A", 24)
	_ = f.SetColWidth(sheetResults, "E", "E", 60)
	_ = f.SetColWidth(sheetIssues, "A", "A", 24)
	_ = f.SetColWidth(sheetIssues, "C", "D", 26)
	_ = f.SetColWidth(sheetIssues, "E", "E", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"report_id", report.ID.String(),
		"results", len(report.Results),
		"issues", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, report *entity.ValidationReport, bold int) {
	sum := report.Summary
	rows := [][]any{
		{"Report", report.ID.String()},
		{"Generated At", report.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Total Invoices", sum.TotalInvoices},
		{"Valid Invoices", sum.ValidInvoices},
		{"Invalid Invoices", sum.InvalidInvoices},
		{"Invoices With Warnings", sum.InvoicesWithWarnings},
	}
	r := 1
	for _, vals := range rows {
		writeRow(f, sheetSummary, r, vals...)
		r++
	}
	for _, group := range []struct {
		title  string
		counts map[string]int
	}{
		{"Errors", sum.ErrorCounts},
		{"Warnings", sum.WarningCounts},
	} {
		if len(group.counts) == 0 {
			continue
		}
		r++
		writeRow(f, sheetSummary, r, group.title, "Count")
		cell, _ := excelize.CoordinatesToCellName(1, r)
		end, _ := excelize.CoordinatesToCellName(2, r)
		_ = f.SetCellStyle(sheetSummary, cell, end, bold)
		r++
		for _, kc := range sortedCounts(group.counts) {
			writeRow(f, sheetSummary, r, kc.key, kc.count)
			r++
		}
	}
}

type keyCount struct {
	key   string
	count int
}

// sortedCounts orders by count descending, then key.
func sortedCounts(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, v := range m {
		out = append(out, keyCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func writeHeader(f *excelize.File, sheet string, style int, headers ...string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	first, _ := excelize.CoordinatesToCellName(1, 1)
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, first, last, style)
}

func writeRow(f *excelize.File, sheet string, row int, vals ...any) {
	for i, v := range vals {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func dateCell(d *entity.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// amounts are written as text so exact decimals survive
func amountCell(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
