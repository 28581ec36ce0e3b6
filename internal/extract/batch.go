package extract

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

// Failure records a document that could not be assembled.
type Failure struct {
	Source string
	Err    error
}

// RunOrdered calls fn for every index of sources with at most workers in
// flight. Output keeps input order; indexes whose fn failed are logged,
// left out and returned as failures. Only cancellation of ctx fails the batch.
func RunOrdered(ctx context.Context, sources []string, workers int, logger *slog.Logger,
	fn func(ctx context.Context, i int) (*entity.Invoice, error)) ([]*entity.Invoice, []Failure, error) {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	slots := make([]*entity.Invoice, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i], errs[i] = fn(gctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	invoices := make([]*entity.Invoice, 0, len(sources))
	var failures []Failure
	for i, inv := range slots {
		if errs[i] != nil {
			logger.Warn("extract.document.skipped", "source", sources[i], "err", errs[i])
			failures = append(failures, Failure{Source: sources[i], Err: errs[i]})
			continue
		}
		invoices = append(invoices, inv)
	}
	return invoices, failures, nil
}
