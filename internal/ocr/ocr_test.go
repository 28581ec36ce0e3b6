package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/invoice-qc/constants"
	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"crlf and tabs", "Invoice\r\nTotal:\t\t100.00\r\n", "Invoice\nTotal: 100.00"},
		{"blank lines collapse", "a\n\n\n\n\nb", "a\n\nb"},
		{"ruler removed", "Items\n-----\nWidget", "Items\n\nWidget"},
		{"nbsp", "Total\u00a0Due: 5.00", "Total Due: 5.00"},
		{"nfc", "Cafe\u0301", "Caf\u00e9"},
		{"dates untouched", "Date: 01/02/2024", "Date: 01/02/2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeLayoutKeepsColumns(t *testing.T) {
	in := "2   Widget A   10.00   20.00  \r\n"
	want := "2   Widget A   10.00   20.00"
	if got := NormalizeLayout(in); got != want {
		t.Errorf("NormalizeLayout = %q, want %q", got, want)
	}
}

func TestLoadText(t *testing.T) {
	path := writeFile(t, "inv-1.txt", "INVOICE\nInvoice #: A-1\n\fTotal Due: $10.00\n\f")
	e := NewExtractor(Config{}, quietLogger())

	res, err := e.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.SourceType != constants.TEXT || res.Method != "plain-text" {
		t.Errorf("source=%q method=%q", res.SourceType, res.Method)
	}
	want := []string{"INVOICE\nInvoice #: A-1", "Total Due: $10.00"}
	if diff := cmp.Diff(want, res.Document.Pages); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}
	if res.Document.Source != "inv-1.txt" {
		t.Errorf("Source = %q", res.Document.Source)
	}
	if res.Pages != 2 {
		t.Errorf("Pages = %d, want 2", res.Pages)
	}
}

func TestLoadTextMaxPages(t *testing.T) {
	path := writeFile(t, "many.TXT", "one\ftwo\fthree")
	e := NewExtractor(Config{MaxPages: 2}, quietLogger())
	doc, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(doc.Pages))
	}
}

func TestLoadJSONDocument(t *testing.T) {
	body := `{"pages":["Invoice  #: 7"],"tables":[[[["Description","Qty"],["Widget",null]]]]}`
	path := writeFile(t, "doc.json", body)
	e := NewExtractor(Config{}, quietLogger())

	doc, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Pages[0] != "Invoice #: 7" {
		t.Errorf("page not normalized: %q", doc.Pages[0])
	}
	tables := doc.AllTables()
	if len(tables) != 1 || len(tables[0]) != 2 {
		t.Fatalf("tables = %#v", tables)
	}
	if tables[0][1][1] != nil {
		t.Errorf("null cell decoded as %q", *tables[0][1][1])
	}
	if doc.Source != "doc.json" {
		t.Errorf("Source = %q", doc.Source)
	}
}

func TestLoadJSONInvalid(t *testing.T) {
	path := writeFile(t, "bad.json", "{not json")
	_, err := NewExtractor(Config{}, quietLogger()).Extract(context.Background(), path)
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestLoadUnsupported(t *testing.T) {
	path := writeFile(t, "scan.png", "x")
	_, err := NewExtractor(Config{}, quietLogger()).Extract(context.Background(), path)
	if !errors.Is(err, common.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "UNSUPPORTED_DOCUMENT" {
		t.Errorf("err = %#v, want UNSUPPORTED_DOCUMENT", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewExtractor(Config{}, quietLogger()).Extract(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}

func TestLowConfidenceWarning(t *testing.T) {
	path := writeFile(t, "blank.txt", "   ")
	res, err := NewExtractor(Config{}, quietLogger()).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Confidence != 0 || len(res.Warnings) != 1 {
		t.Errorf("confidence=%v warnings=%v", res.Confidence, res.Warnings)
	}
}

func TestHeuristicConfidence(t *testing.T) {
	text := "INVOICE\nInvoice #: 1\nDate: 01/02/2024\nTotal Due: $1,234.50\n" +
		"Bill To: Acme Corp, 1 Main Street, Springfield, somewhere with enough text to pass the length cue"
	if got := heuristicConfidence(text); got < 0.99 {
		t.Errorf("confidence = %v, want ~1", got)
	}
	if got := heuristicConfidence("hello"); got != 0.2 {
		t.Errorf("confidence = %v, want 0.2", got)
	}
}

type fakeRunner struct {
	out  []byte
	err  error
	args []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.args = append([]string{name}, args...)
	return f.out, []byte("boom"), f.err
}

func TestPdftotextLayout(t *testing.T) {
	r := &fakeRunner{out: []byte("page one\t  x\fpage two\f")}
	e := NewExtractor(Config{Pdftotext: "pdftotext"}, quietLogger()).WithRunner(r)

	pages, err := e.pdftotextLayout(context.Background(), "a.pdf", 0)
	if err != nil {
		t.Fatalf("pdftotextLayout: %v", err)
	}
	if diff := cmp.Diff([]string{"page one      x", "page two"}, pages); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}
	if r.args[0] != "pdftotext" || r.args[1] != "-layout" {
		t.Errorf("args = %v", r.args)
	}

	r.err = errors.New("exit status 1")
	if _, err := e.pdftotextLayout(context.Background(), "a.pdf", 0); err == nil {
		t.Fatal("expected error from failing runner")
	}
}

var _ interface {
	Extract(context.Context, string) (entity.Document, error)
} = (*Extractor)(nil)
