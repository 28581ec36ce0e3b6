package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-qc/internal/cache"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
	"github.com/joseph-ayodele/invoice-qc/internal/extract"
	"github.com/joseph-ayodele/invoice-qc/internal/ingest"
	"github.com/joseph-ayodele/invoice-qc/internal/repository"
)

// TextStage turns a file into an entity.Document and tracks the attempt as an extract job.
type TextStage struct {
	Scanner       *ingest.Scanner
	TextExtractor extract.TextExtractor
	JobsRepo      repository.ExtractJobRepository // optional
	Logger        *slog.Logger
}

func NewTextStage(scanner *ingest.Scanner, tx extract.TextExtractor, jobs repository.ExtractJobRepository, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	if scanner == nil {
		scanner = ingest.NewScanner(logger)
	}
	return &TextStage{Scanner: scanner, TextExtractor: tx, JobsRepo: jobs, Logger: logger}
}

// fileJob carries one document through both stages.
type fileJob struct {
	ref   ingest.FileRef
	jobID uuid.UUID
	doc   entity.Document
}

// Start hashes the file and opens an extract job when a job store is wired.
func (s *TextStage) Start(ctx context.Context, path, profile string) (*fileJob, error) {
	ref, err := s.Scanner.ScanPath(path)
	if err != nil {
		return nil, err
	}
	fj := &fileJob{ref: ref}
	if s.JobsRepo != nil {
		id, err := s.JobsRepo.Start(ctx, filepath.Base(ref.Path), ref.HashHex, profile)
		if err != nil {
			return nil, err
		}
		fj.jobID = id
	}
	return fj, nil
}

// Load reads the document text.
func (s *TextStage) Load(ctx context.Context, fj *fileJob) error {
	doc, err := s.TextExtractor.Extract(ctx, fj.ref.Path)
	if err != nil {
		return err
	}
	doc.Source = filepath.Base(fj.ref.Path)
	fj.doc = doc
	return nil
}

// Finish records the outcome of the job. Failures here are logged, not returned.
func (s *TextStage) Finish(ctx context.Context, fj *fileJob, inv *entity.Invoice, cacheHit bool, jobErr error) {
	if s.JobsRepo == nil || fj == nil || fj.jobID == uuid.Nil {
		return
	}
	var err error
	if jobErr != nil {
		err = s.JobsRepo.FinishFailure(ctx, fj.jobID, jobErr.Error())
	} else {
		err = s.JobsRepo.FinishSuccess(ctx, fj.jobID, inv.RecordID(), cacheHit)
	}
	if err != nil {
		s.Logger.Warn("pipeline.job.finish.failed", "job_id", fj.jobID, "err", err)
	}
}

// FieldStage assembles invoices, consulting the cache first.
type FieldStage struct {
	Assembler *extract.Assembler
	Cache     cache.Cache // optional
	Logger    *slog.Logger
}

func NewFieldStage(asm *extract.Assembler, c cache.Cache, logger *slog.Logger) *FieldStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldStage{Assembler: asm, Cache: c, Logger: logger}
}

// profileID keys the cache; overlays differ from their base.
func (s *FieldStage) profileID() string {
	return extract.ProfileID(s.Assembler.Profile())
}

// Cached returns a previously assembled record for the same content and profile.
func (s *FieldStage) Cached(ctx context.Context, fj *fileJob) (*entity.Invoice, bool) {
	if s.Cache == nil || fj.ref.HashHex == "" {
		return nil, false
	}
	inv, ok, err := s.Cache.Get(ctx, cache.Key(fj.ref.HashHex, s.profileID()))
	if err != nil {
		s.Logger.Warn("pipeline.cache.get.failed", "source", fj.ref.Path, "err", err)
		return nil, false
	}
	if ok {
		// the same content may arrive under another name
		inv.SourceFile = filepath.Base(fj.ref.Path)
	}
	return inv, ok
}

// Assemble extracts fields from the loaded document and fills the cache.
func (s *FieldStage) Assemble(ctx context.Context, fj *fileJob) (*entity.Invoice, error) {
	inv, err := s.Assembler.Assemble(fj.doc)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil && fj.ref.HashHex != "" {
		if err := s.Cache.Set(ctx, cache.Key(fj.ref.HashHex, s.profileID()), inv); err != nil {
			s.Logger.Warn("pipeline.cache.set.failed", "source", fj.ref.Path, "err", err)
		}
	}
	return inv, nil
}
