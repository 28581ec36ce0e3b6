package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-qc/constants"
	"github.com/joseph-ayodele/invoice-qc/internal/common"
)

// FileRef is one discovered document.
type FileRef struct {
	Path    string
	Ext     string
	HashHex string // sha256 of the content
	Size    int64
	ModTime time.Time
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// Scanner finds supported documents on the local filesystem.
type Scanner struct {
	logger *slog.Logger
}

func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// ScanPath hashes a single document.
func (s *Scanner) ScanPath(path string) (FileRef, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileRef{}, err
	}
	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return FileRef{}, common.NewAppError("UNSUPPORTED_DOCUMENT",
			fmt.Sprintf("unsupported or missing extension: %q", ext), common.ErrUnsupported)
	}
	sum, size, mod, err := HashFile(abs)
	if err != nil {
		s.logger.Error("ingest.hash.failed", "path", abs, "err", err)
		return FileRef{}, err
	}
	return FileRef{Path: abs, Ext: ext, HashHex: sum, Size: size, ModTime: mod}, nil
}

// ScanDirectory walks root and returns every supported document, sorted by path.
// Unreadable entries are counted as failures and skipped.
func (s *Scanner) ScanDirectory(ctx context.Context, root string, skipHidden bool) ([]FileRef, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var refs []FileRef
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			s.logger.Warn("ingest.walk.error", "path", path, "err", walkErr)
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		ref, err := s.ScanPath(path)
		if err != nil {
			stats.Failed++
			return nil
		}
		refs = append(refs, ref)
		return nil
	})
	if err != nil {
		return refs, stats, fmt.Errorf("walk: %w", err)
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	s.logger.Info("ingest.scan.ok", "root", root, "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)
	return refs, stats, nil
}

// Paths returns the paths of refs in order.
func Paths(refs []FileRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Path
	}
	return out
}
