package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/invoice-qc/constants"
	"github.com/joseph-ayodele/invoice-qc/internal/common"
)

func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	res := Result{SourceType: constants.PDF, Method: "pdf-text"}

	f, r, err := pdf.Open(path)
	if err != nil {
		return res, common.NewAppError("PDF_OPEN_FAILED", path, fmt.Errorf("%w: %v", common.ErrUnsupported, err))
	}
	defer f.Close()

	n := r.NumPage()
	if e.cfg.MaxPages > 0 && n > e.cfg.MaxPages {
		res.Warnings = append(res.Warnings, fmt.Sprintf("truncated to %d of %d pages", e.cfg.MaxPages, n))
		n = e.cfg.MaxPages
	}

	pages := make([]string, 0, n)
	layout := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			layout = append(layout, "")
			continue
		}
		text, rowText, warn := readPage(page)
		if warn != "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %s", i, warn))
		}
		pages = append(pages, Normalize(text))
		layout = append(layout, NormalizeLayout(rowText))
	}
	res.Document.Pages = pages
	res.Document.LayoutPages = layout

	if e.cfg.Pdftotext != "" {
		if lp, err := e.pdftotextLayout(ctx, path, n); err == nil {
			res.Document.LayoutPages = lp
			res.Method = "pdf-text+pdftotext"
		} else {
			res.Warnings = append(res.Warnings, "pdftotext: "+err.Error())
		}
	}
	return res, nil
}

// readPage returns the page text in reading order and again row by row.
// A panic inside the PDF decoder is reported as a warning and yields an empty page.
func readPage(page pdf.Page) (text, rows string, warn string) {
	defer func() {
		if r := recover(); r != nil {
			text, rows, warn = "", "", fmt.Sprintf("decode panic: %v", r)
		}
	}()

	plain, err := page.GetPlainText(nil)
	if err != nil {
		return "", "", err.Error()
	}

	byRow, err := page.GetTextByRow()
	if err != nil {
		return plain, plain, err.Error()
	}
	var b strings.Builder
	for _, row := range byRow {
		for i, word := range row.Content {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(word.S)
		}
		b.WriteString("\n")
	}
	return plain, b.String(), ""
}

// pdftotextLayout renders layout text with poppler; pages are split on form feeds.
func (e *Extractor) pdftotextLayout(ctx context.Context, path string, maxPages int) ([]string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, truncate(string(errb), 512))
	}
	pages := strings.Split(strings.TrimSuffix(string(out), "\f"), "\f")
	if maxPages > 0 && len(pages) > maxPages {
		pages = pages[:maxPages]
	}
	for i := range pages {
		pages[i] = NormalizeLayout(pages[i])
	}
	return pages, nil
}
