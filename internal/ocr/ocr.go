package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/invoice-qc/constants"
	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

type Config struct {
	// Pdftotext, when set, is run with -layout to render LayoutPages for PDFs.
	// Leave empty to build layout text from the PDF's own text rows.
	Pdftotext string
	MaxPages  int // 0 = no limit
}

// Result is a loaded document plus how it was obtained.
type Result struct {
	Document   entity.Document
	SourceType string // constants.PDF | constants.TEXT | constants.JSON
	Method     string // "pdf-text" | "pdf-text+pdftotext" | "plain-text" | "json"
	Pages      int
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// Extractor turns a file on disk into page texts and detected tables.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract implements extract.TextExtractor.
func (e *Extractor) Extract(ctx context.Context, path string) (entity.Document, error) {
	res, err := e.Load(ctx, path)
	if err != nil {
		return entity.Document{}, err
	}
	return res.Document, nil
}

// Load picks a strategy based on file extension.
func (e *Extractor) Load(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.load.start", "path", path, "ext", ext)

	var (
		res Result
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.TEXT:
		res, err = e.extractText(path)
	case constants.JSON:
		res, err = e.extractJSON(path)
	default:
		e.logger.Error("ocr.load.unsupported", "path", path, "ext", ext)
		return Result{}, common.NewAppError("UNSUPPORTED_DOCUMENT",
			fmt.Sprintf("unsupported extension: %q", ext), common.ErrUnsupported)
	}
	if err != nil {
		e.logger.Error("ocr.load.failed", "path", path, "err", err)
		return res, err
	}

	res.Document.Source = filepath.Base(path)
	res.Pages = len(res.Document.Pages)
	res.Duration = time.Since(start)
	res.Confidence = heuristicConfidence(res.Document.Text())
	if res.Confidence < LowConfidenceThreshold {
		res.Warnings = append(res.Warnings, fmt.Sprintf("low text confidence %.2f", res.Confidence))
	}
	e.logger.Info("ocr.load.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
		"warnings", len(res.Warnings),
	)
	return res, nil
}
