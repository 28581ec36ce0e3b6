package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/extract"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	return &common.Config{
		Database:   common.DatabaseConfig{Driver: "sqlite", DSN: "file:" + filepath.Join(t.TempDir(), "qc.db")},
		Server:     common.ServerConfig{HTTPAddr: ":0"},
		Extraction: common.ExtractionConfig{Profile: extract.EnglishProfileName, Workers: 2},
		Validation: common.ValidationConfig{Tolerance: 0.02},
		Log:        common.LogConfig{Format: "text"},
	}
}

func TestBuild(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := Build(context.Background(), testConfig(t), log, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer a.Cleanup()
	if a.DB == nil || a.Reports == nil || a.Processor == nil {
		t.Fatalf("incomplete app: %+v", a)
	}
	if err := a.DB.HealthCheck(context.Background(), 0); err != nil {
		t.Errorf("health: %v", err)
	}
}

func TestBuild_NoStore(t *testing.T) {
	a, err := Build(context.Background(), testConfig(t), nil, Options{NoStore: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer a.Cleanup()
	if a.DB != nil || a.Reports != nil {
		t.Error("store wired despite NoStore")
	}
}

func TestBuild_RejectsConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Validation.Tolerance = 3
	if _, err := Build(context.Background(), cfg, nil, Options{NoStore: true}); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}

	cfg = testConfig(t)
	cfg.Extraction.Profile = "klingon"
	if _, err := Build(context.Background(), cfg, nil, Options{NoStore: true}); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("unknown profile err = %v", err)
	}
}

func TestResolveProfile_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme.yaml")
	body := "name: acme\nbase: european\ndefault_currency: GBP\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := ResolveProfile(common.ExtractionConfig{Profile: extract.EnglishProfileName, ProfileFile: path})
	if err != nil {
		t.Fatalf("ResolveProfile: %v", err)
	}
	if p.Name() != "acme" {
		t.Errorf("name = %q", p.Name())
	}
	if cur, ok := p.DefaultCurrency(); !ok || cur != "GBP" {
		t.Errorf("currency = %q %v", cur, ok)
	}
}
