package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-qc/internal/app"
	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/extract"
	"github.com/joseph-ayodele/invoice-qc/internal/ocr"
)

func main() {
	var (
		layout    = flag.Bool("layout", false, "print layout text instead of reading-order text")
		fields    = flag.Bool("fields", false, "also print the extracted invoice record")
		pdftotext = flag.String("pdftotext", "", "path to poppler's pdftotext")
	)
	flag.Parse()

	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "doctext [-layout] [-fields] <document>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := ocr.NewExtractor(ocr.Config{Pdftotext: *pdftotext}, logger).Load(ctx, path)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "err", err)
		os.Exit(1)
	}

	fmt.Printf("# %s method=%s pages=%d confidence=%.2f duration_ms=%d\n",
		res.Document.Source, res.Method, res.Pages, res.Confidence, res.Duration.Milliseconds())
	for _, w := range res.Warnings {
		fmt.Printf("# warning: %s\n", w)
	}

	pages := res.Document.Pages
	if *layout {
		pages = res.Document.LayoutPages
	}
	for i, p := range pages {
		fmt.Printf("\n--- page %d ---\n%s\n", i+1, p)
	}
	for i, t := range res.Document.AllTables() {
		fmt.Printf("\n--- table %d ---\n", i+1)
		for _, row := range t {
			cells := make([]string, len(row))
			for j, c := range row {
				if c != nil {
					cells[j] = *c
				}
			}
			fmt.Println(strings.Join(cells, " | "))
		}
	}

	if !*fields {
		return
	}
	profile, err := app.ResolveProfile(cfg.Extraction)
	if err != nil {
		logger.Error("profile", "err", err)
		os.Exit(1)
	}
	inv, err := extract.NewAssembler(profile, logger).Assemble(res.Document)
	if err != nil {
		logger.Error("field extraction failed", "err", err)
		os.Exit(1)
	}
	b, _ := json.MarshalIndent(inv, "", "  ")
	fmt.Printf("\n--- fields (%s) ---\n%s\n", profile.Name(), b)
}
