package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/joseph-ayodele/invoice-qc/internal/async"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
	"github.com/joseph-ayodele/invoice-qc/internal/extract"
)

// Inbox validates batches of documents that arrive through a watched
// directory. Extraction runs on the queue's workers; each batch becomes one
// stored report.
type Inbox struct {
	Queue  async.Queue
	Proc   *Processor
	Logger *slog.Logger
}

func NewInbox(q async.Queue, proc *Processor, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{Queue: q, Proc: proc, Logger: logger}
}

// Handle extracts paths through the queue and validates what came out.
func (in *Inbox) Handle(ctx context.Context, paths []string) (*Outcome, error) {
	results, err := async.SubmitBatch(ctx, in.Queue, paths)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Invoices: make([]*entity.Invoice, 0, len(results))}
	for _, r := range results {
		if r.Err != nil {
			in.Logger.Warn("extract.document.skipped", "source", filepath.Base(r.Job.Path), "err", r.Err)
			out.Failures = append(out.Failures, extract.Failure{Source: filepath.Base(r.Job.Path), Err: r.Err})
			continue
		}
		out.Invoices = append(out.Invoices, r.Invoice)
	}
	if len(out.Invoices) == 0 {
		in.Logger.Warn("inbox.batch.empty", "documents", len(paths))
		return out, nil
	}
	out.Report, err = in.Proc.ValidateAndStore(ctx, out.Invoices, "watch")
	if err != nil {
		return out, err
	}
	in.Logger.Info("inbox.batch.ok",
		"report_id", out.Report.ID,
		"documents", len(paths),
		"invalid", out.Report.Summary.InvalidInvoices,
	)
	return out, nil
}

// Run consumes watcher batches until ctx ends or batches closes.
func (in *Inbox) Run(ctx context.Context, batches <-chan []string, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			in.Logger.Error("inbox.watch.error", "err", err)
		case paths, ok := <-batches:
			if !ok {
				return
			}
			if _, err := in.Handle(ctx, paths); err != nil {
				in.Logger.Error("inbox.batch.failed", "documents", len(paths), "err", err)
			}
		}
	}
}
