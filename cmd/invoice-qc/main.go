package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-qc/internal/app"
	"github.com/joseph-ayodele/invoice-qc/internal/common"
)

// errInvalid signals that the run completed but found invalid invoices.
var errInvalid = errors.New("invalid invoices found")

type rootFlags struct {
	store     bool
	pdftotext string
	workers   int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errInvalid):
		os.Exit(1)
	default:
		if _, perr := fmt.Fprintf(os.Stderr, "Error: %v\n", err); perr != nil {
			fmt.Printf("Error: %v\n", err)
		}
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:           "invoice-qc",
		Short:         "Extract invoice fields from documents and validate them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&flags.store, "store", false, "persist reports to the configured database (DB_DRIVER/DB_URL)")
	root.PersistentFlags().StringVar(&flags.pdftotext, "pdftotext", "", "path to poppler's pdftotext for layout text")
	root.PersistentFlags().IntVar(&flags.workers, "workers", 0, "extraction workers (default EXTRACT_WORKERS)")

	root.AddCommand(
		newExtractCmd(&flags),
		newValidateCmd(&flags),
		newFullRunCmd(&flags),
	)
	return root
}

// buildApp loads configuration, applies flag overrides and wires the pipeline.
// Logs go to stderr so stdout stays readable.
func buildApp(ctx context.Context, flags *rootFlags, profile string) (*app.App, error) {
	cfg := common.LoadConfig()
	if profile != "" {
		cfg.Extraction.Profile = profile
		cfg.Extraction.ProfileFile = ""
	}
	if flags.workers > 0 {
		cfg.Extraction.Workers = flags.workers
	}
	logger := common.NewLogger(cfg.Log, os.Stderr)
	return app.Build(ctx, cfg, logger, app.Options{
		NoStore:   !flags.store,
		Pdftotext: flags.pdftotext,
	})
}
