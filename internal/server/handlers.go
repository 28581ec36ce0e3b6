package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
	"github.com/joseph-ayodele/invoice-qc/internal/extract"
	"github.com/joseph-ayodele/invoice-qc/internal/ingest"
	"github.com/joseph-ayodele/invoice-qc/internal/pipeline"
	"github.com/joseph-ayodele/invoice-qc/internal/schema"
	"github.com/joseph-ayodele/invoice-qc/internal/validate"
)

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "Invoice QC Service API",
		"version": Version,
		"endpoints": map[string]string{
			"health":               "/health",
			"validate":             "/validate-json",
			"extract_and_validate": "/extract-and-validate",
			"info":                 "/api/info",
			"reports":              "/reports",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": ServiceName,
		"version": Version,
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		validate.Catalog
		Profiles []string `json:"profiles"`
	}{validate.NewCatalog(), extract.ProfileNames()})
}

// processorFor applies ?profile= and ?tolerance= overrides.
func (s *Server) processorFor(r *http.Request) (*pipeline.Processor, error) {
	q := r.URL.Query()
	var (
		profile   extract.Profile
		tolerance float64
	)
	if name := strings.TrimSpace(q.Get("profile")); name != "" {
		p, err := extract.LookupProfile(name)
		if err != nil {
			return nil, err
		}
		profile = p
	}
	if raw := strings.TrimSpace(q.Get("tolerance")); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, badRequest("INVALID_ARGUMENT", fmt.Sprintf("tolerance %q is not a number", raw))
		}
		if err := common.ValidateAndReturnError(common.NewValidator().Field("tolerance", f, common.Tolerance)); err != nil {
			return nil, err
		}
		tolerance = f
	}
	return s.proc.WithOverrides(profile, tolerance), nil
}

func (s *Server) handleValidateJSON(w http.ResponseWriter, r *http.Request) {
	proc, err := s.processorFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		writeError(w, r, badRequest("BODY_TOO_LARGE", err.Error()))
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		writeError(w, r, badRequest("NO_INVOICES", "No invoices provided"))
		return
	}
	if err := schema.ValidateBatch(body); err != nil {
		writeError(w, r, err)
		return
	}
	var invoices []*entity.Invoice
	if err := json.Unmarshal(body, &invoices); err != nil {
		writeError(w, r, badRequest("INVALID_INVOICE", err.Error()))
		return
	}

	report, err := proc.ValidateAndStore(r.Context(), invoices, "validate-json")
	if err != nil {
		// the report is still useful when only persistence failed
		common.LoggerFromContext(r.Context(), s.logger).Error("http.report.store.failed", "err", err)
	}
	writeJSON(w, http.StatusOK, report)
}

type extractResponse struct {
	ExtractedInvoices []*entity.Invoice        `json:"extracted_invoices"`
	ValidationReport  *entity.ValidationReport `json:"validation_report"`
	Message           string                   `json:"message,omitempty"`
	FilesProcessed    int                      `json:"files_processed"`
	InvoicesExtracted int                      `json:"invoices_extracted"`
	Failures          []failureView            `json:"failures,omitempty"`
}

type failureView struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

func (s *Server) handleExtractAndValidate(w http.ResponseWriter, r *http.Request) {
	proc, err := s.processorFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, r, badRequest("INVALID_UPLOAD", err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, r, badRequest("NO_FILES", "No files provided"))
		return
	}
	for _, fh := range files {
		if !ingest.AllowedExt(filepath.Ext(fh.Filename)) {
			writeError(w, r, common.NewAppError("UNSUPPORTED_DOCUMENT",
				fmt.Sprintf("File %s is not a supported document", fh.Filename), common.ErrUnsupported))
			return
		}
	}

	dir, err := os.MkdirTemp("", "invoice-qc-upload-*")
	if err != nil {
		writeError(w, r, common.WrapError(err, "temp dir"))
		return
	}
	defer os.RemoveAll(dir)

	paths, err := saveUploads(dir, files)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := proc.Run(r.Context(), paths, "extract-and-validate")
	if err != nil && out == nil {
		writeError(w, r, err)
		return
	}
	if err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Error("http.report.store.failed", "err", err)
	}

	resp := extractResponse{
		ExtractedInvoices: out.Invoices,
		FilesProcessed:    len(files),
		InvoicesExtracted: len(out.Invoices),
	}
	for _, f := range out.Failures {
		resp.Failures = append(resp.Failures, failureView{Source: f.Source, Error: f.Err.Error()})
	}
	if len(out.Invoices) == 0 {
		resp.Message = "No invoices could be extracted from the provided documents"
	} else {
		resp.ValidationReport = &out.Report
	}
	writeJSON(w, http.StatusOK, resp)
}

// saveUploads writes each part under dir. Names are reduced to their base
// and prefixed when they collide.
func saveUploads(dir string, files []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(files))
	used := make(map[string]bool, len(files))
	for i, fh := range files {
		name := filepath.Base(filepath.Clean("/" + fh.Filename))
		if name == "/" || name == "." {
			name = fmt.Sprintf("upload-%d", i)
		}
		if used[name] {
			name = fmt.Sprintf("%d-%s", i, name)
		}
		used[name] = true

		dst := filepath.Join(dir, name)
		if err := copyUpload(fh, dst); err != nil {
			return nil, common.WrapError(err, "save upload "+fh.Filename)
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

func copyUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

var errNoStore = errors.New("report store is not configured")
