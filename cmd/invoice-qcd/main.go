package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/invoice-qc/internal/app"
	"github.com/joseph-ayodele/invoice-qc/internal/async"
	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/ingest"
	"github.com/joseph-ayodele/invoice-qc/internal/pipeline"
	"github.com/joseph-ayodele/invoice-qc/internal/server"
)

func main() {
	pdftotext := flag.String("pdftotext", "", "path to poppler's pdftotext for layout text")
	flag.Parse()

	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, app.Options{Pdftotext: *pdftotext})
	if err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer a.Cleanup()

	if err := a.DB.HealthCheck(ctx, cfg.Database.DialTimeout); err != nil {
		logger.Error("db health failed", "err", err)
		os.Exit(1)
	}
	logger.Info("db health ok", "driver", a.DB.Dialect())

	// gRPC health + reflection
	grpcServer, hs := server.NewGRPCServer()
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("grpc listen", "addr", cfg.Server.GRPCAddr, "err", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("grpc serving", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve", "err", err)
		}
	}()

	// HTTP API
	httpServer := server.NewServer(a.Processor, a.Reports, cfg.Server, logger).HTTPServer()
	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "err", err)
			stop()
		}
	}()

	// Inbox watcher
	var queue *async.ProcessorQueue
	if cfg.Watch.Dir != "" {
		queue = async.NewProcessorQueue(a.Processor, logger,
			async.WithWorkers(cfg.Extraction.Workers),
			async.WithProcessTimeout(cfg.Extraction.Timeout),
		)
		batches, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{cfg.Watch.Dir},
			InitialScan: true,
			Debounce:    cfg.Watch.Debounce,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("watcher start", "dir", cfg.Watch.Dir, "err", err)
			os.Exit(1)
		}
		go pipeline.NewInbox(queue, a.Processor, logger).Run(ctx, batches, errs)
		logger.Info("watching inbox", "dir", cfg.Watch.Dir)
	}

	<-ctx.Done()
	logger.Info("shutting down...")
	server.MarkNotServing(hs)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}
	grpcServer.GracefulStop()
	logger.Info("stopped.")
}
