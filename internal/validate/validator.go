package validate

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

// DefaultTolerance is the relative difference accepted between amounts (2%).
const DefaultTolerance = 0.02

// Validator runs the fixed rule battery. It holds no batch state and is
// safe for concurrent use.
type Validator struct {
	Tolerance decimal.Decimal
	Now       func() time.Time

	logger  *slog.Logger
	workers int
}

// NewValidator returns a validator; a tolerance <= 0 selects DefaultTolerance.
func NewValidator(tolerance float64, logger *slog.Logger) *Validator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		Tolerance: decimal.NewFromFloat(tolerance),
		Now:       time.Now,
		logger:    logger,
		workers:   runtime.GOMAXPROCS(0),
	}
}

// WithTolerance returns a copy of v using tolerance.
func (v *Validator) WithTolerance(tolerance float64) *Validator {
	cp := *v
	if tolerance > 0 {
		cp.Tolerance = decimal.NewFromFloat(tolerance)
	}
	return &cp
}

// reasonable reports whether d lies in [today-3650d, today+730d].
func (v *Validator) reasonable(d entity.Date) bool {
	today := entity.DateOf(v.now())
	earliest, latest := today.AddDays(-pastWindowDays), today.AddDays(futureWindowDays)
	return !d.Before(earliest) && !d.After(latest)
}

// ValidateInvoice runs every rule on inv. seen carries duplicate keys of
// earlier records in the same batch; nil skips duplicate detection.
func (v *Validator) ValidateInvoice(inv *entity.Invoice, seen *SeenSet) entity.ValidationResult {
	res := v.validateRecord(inv)
	checkDuplicate(inv, seen, res)
	return *res
}

func (v *Validator) validateRecord(inv *entity.Invoice) *entity.ValidationResult {
	if inv == nil {
		inv = &entity.Invoice{}
	}
	res := entity.NewValidationResult(inv.RecordID())
	for _, r := range recordRules {
		r.check(v, inv, res)
	}
	return res
}

// ValidateBatch validates invoices with a fresh SeenSet. Per-record rules
// run concurrently; the duplicate pass follows input order, so the first
// occurrence of a key is the canonical one.
func (v *Validator) ValidateBatch(ctx context.Context, invoices []*entity.Invoice) entity.ValidationReport {
	results := make([]*entity.ValidationResult, len(invoices))

	var g errgroup.Group
	g.SetLimit(max(v.workers, 1))
	for i := range invoices {
		g.Go(func() error {
			results[i] = v.validateRecord(invoices[i])
			return nil
		})
	}
	_ = g.Wait()

	seen := NewSeenSet()
	out := make([]entity.ValidationResult, len(invoices))
	for i, inv := range invoices {
		if inv != nil {
			checkDuplicate(inv, seen, results[i])
		}
		out[i] = *results[i]
	}

	report := entity.ValidationReport{
		ID:          uuid.New(),
		Summary:     Summarize(out),
		Results:     out,
		GeneratedAt: v.now().UTC(),
	}
	common.LoggerFromContext(ctx, v.logger).Info("validate.batch.ok",
		"report_id", report.ID,
		"invoices", report.Summary.TotalInvoices,
		"invalid", report.Summary.InvalidInvoices,
		"with_warnings", report.Summary.InvoicesWithWarnings,
		"duplicate_keys", seen.Len(),
		"tolerance", v.Tolerance.String(),
	)
	return report
}

func (v *Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// Summarize derives batch counts and "rule" / "rule: field" frequencies.
func Summarize(results []entity.ValidationResult) entity.ValidationSummary {
	s := entity.ValidationSummary{
		TotalInvoices: len(results),
		ErrorCounts:   make(map[string]int),
		WarningCounts: make(map[string]int),
	}
	for _, r := range results {
		if r.IsValid {
			s.ValidInvoices++
		}
		if len(r.Warnings) > 0 {
			s.InvoicesWithWarnings++
		}
		for _, e := range r.Errors {
			s.ErrorCounts[e.Key()]++
		}
		for _, w := range r.Warnings {
			s.WarningCounts[w.Key()]++
		}
	}
	s.InvalidInvoices = s.TotalInvoices - s.ValidInvoices
	return s
}
