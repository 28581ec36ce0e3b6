package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/export"
	"github.com/joseph-ayodele/invoice-qc/internal/pipeline"
	"github.com/joseph-ayodele/invoice-qc/internal/repository"
)

const (
	ServiceName = "invoice-qc-service"
	Version     = "1.0.0"
)

// Server is the HTTP surface over the processing pipeline.
type Server struct {
	proc     *pipeline.Processor
	reports  repository.ReportRepository // optional
	exporter *export.Service
	cfg      common.ServerConfig
	logger   *slog.Logger
}

func NewServer(proc *pipeline.Processor, reports repository.ReportRepository, cfg common.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	return &Server{
		proc:     proc,
		reports:  reports,
		exporter: export.NewService(reports, logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/api/info", s.handleInfo)
	r.Post("/validate-json", s.handleValidateJSON)
	r.Post("/extract-and-validate", s.handleExtractAndValidate)
	// older clients post PDFs here
	r.Post("/extract-and-validate-pdfs", s.handleExtractAndValidate)

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", s.handleListReports)
		r.Get("/{id}", s.handleGetReport)
		r.Get("/{id}/xlsx", s.handleReportXLSX)
	})
	return r
}

// HTTPServer wraps Routes with the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Routes(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		logger := s.logger.With("request_id", reqID)
		ctx := common.WithLogger(common.WithRequestID(r.Context(), reqID), logger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
