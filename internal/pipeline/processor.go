package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
	"github.com/joseph-ayodele/invoice-qc/internal/extract"
	"github.com/joseph-ayodele/invoice-qc/internal/repository"
	"github.com/joseph-ayodele/invoice-qc/internal/validate"
)

// Processor coordinates text loading, field extraction and validation.
type Processor struct {
	Logger    *slog.Logger
	Text      *TextStage
	Fields    *FieldStage
	Validator *validate.Validator
	Reports   repository.ReportRepository // optional
	Workers   int
}

func NewProcessor(logger *slog.Logger, text *TextStage, fields *FieldStage, v *validate.Validator, reports repository.ReportRepository, workers int) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Processor{Logger: logger, Text: text, Fields: fields, Validator: v, Reports: reports, Workers: workers}
}

// WithOverrides returns a copy of p using profile and tolerance when they are set.
// Stages, cache and stores are shared with p.
func (p *Processor) WithOverrides(profile extract.Profile, tolerance float64) *Processor {
	cp := *p
	if profile != nil && extract.ProfileID(profile) != p.Fields.profileID() {
		fields := *p.Fields
		fields.Assembler = extract.NewAssembler(profile, p.Logger)
		cp.Fields = &fields
	}
	if tolerance > 0 {
		cp.Validator = p.Validator.WithTolerance(tolerance)
	}
	return &cp
}

// Outcome is the result of a full run.
type Outcome struct {
	Invoices []*entity.Invoice
	Failures []extract.Failure
	Report   entity.ValidationReport
}

// ProcessFile loads one document and assembles its invoice record.
func (p *Processor) ProcessFile(ctx context.Context, path string) (inv *entity.Invoice, err error) {
	start := time.Now()
	fj, err := p.Text.Start(ctx, path, p.Fields.profileID())
	if err != nil {
		p.Logger.Error("processor.start.failed", "path", path, "err", err)
		return nil, err
	}

	cacheHit := false
	defer func() { p.Text.Finish(ctx, fj, inv, cacheHit, err) }()

	if cached, ok := p.Fields.Cached(ctx, fj); ok {
		cacheHit = true
		p.Logger.Info("processor.cache.hit", "path", path, "invoice_id", cached.RecordID())
		return cached, nil
	}

	if err = p.Text.Load(ctx, fj); err != nil {
		p.Logger.Error("processor.text.failed", "path", path, "err", err)
		return nil, err
	}
	if inv, err = p.Fields.Assemble(ctx, fj); err != nil {
		p.Logger.Error("processor.fields.failed", "path", path, "err", err)
		return nil, err
	}
	p.Logger.Info("processor.file.ok",
		"path", path,
		"invoice_id", inv.RecordID(),
		"line_items", len(inv.LineItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return inv, nil
}

// ExtractFiles processes paths with at most Workers in flight. Output keeps
// input order; documents that fail are skipped and returned as failures.
func (p *Processor) ExtractFiles(ctx context.Context, paths []string) ([]*entity.Invoice, []extract.Failure, error) {
	sources := make([]string, len(paths))
	for i, path := range paths {
		sources[i] = filepath.Base(path)
	}
	invoices, failures, err := extract.RunOrdered(ctx, sources, p.Workers, p.Logger,
		func(ctx context.Context, i int) (*entity.Invoice, error) { return p.ProcessFile(ctx, paths[i]) })
	if err != nil {
		return nil, nil, err
	}
	p.Logger.Info("processor.extract.ok", "documents", len(paths), "extracted", len(invoices), "skipped", len(failures))
	return invoices, failures, nil
}

// ValidateAndStore validates invoices as one batch and persists the report
// when a report store is wired.
func (p *Processor) ValidateAndStore(ctx context.Context, invoices []*entity.Invoice, source string) (entity.ValidationReport, error) {
	report := p.Validator.ValidateBatch(ctx, invoices)
	if p.Reports != nil {
		if err := p.Reports.Save(ctx, &report, source); err != nil {
			return report, common.WrapError(err, "store report")
		}
	}
	return report, nil
}

// Run extracts every path and validates the extracted records together.
// An empty extraction yields an Outcome with a zero Report and no error.
func (p *Processor) Run(ctx context.Context, paths []string, source string) (*Outcome, error) {
	invoices, failures, err := p.ExtractFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Invoices: invoices, Failures: failures}
	if len(invoices) == 0 {
		p.Logger.Warn("processor.run.empty", "documents", len(paths))
		return out, nil
	}
	out.Report, err = p.ValidateAndStore(ctx, invoices, source)
	return out, err
}
