package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/joseph-ayodele/invoice-qc/internal/entity"
	"github.com/joseph-ayodele/invoice-qc/internal/extract"
)

const topN = 10

func printExtraction(w io.Writer, documents int, invoices []*entity.Invoice, failures []extract.Failure) {
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Documents", "Extracted", "Skipped"})
	t.Append([]string{strconv.Itoa(documents), strconv.Itoa(len(invoices)), strconv.Itoa(len(failures))})
	t.Render()

	if len(failures) == 0 {
		return
	}
	f := tablewriter.NewWriter(w)
	f.SetHeader([]string{"Source", "Error"})
	for _, fl := range failures {
		f.Append([]string{fl.Source, fl.Err.Error()})
	}
	f.Render()
}

func printReport(w io.Writer, report *entity.ValidationReport) {
	s := report.Summary
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Total", "Valid", "Invalid", "With warnings"})
	t.Append([]string{
		strconv.Itoa(s.TotalInvoices),
		strconv.Itoa(s.ValidInvoices),
		strconv.Itoa(s.InvalidInvoices),
		strconv.Itoa(s.InvoicesWithWarnings),
	})
	t.Render()

	printCounts(w, "Top errors", s.ErrorCounts)
	printCounts(w, "Top warnings", s.WarningCounts)
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Issue", "Count"})
	for _, kc := range topCounts(counts, topN) {
		t.Append([]string{kc.key, strconv.Itoa(kc.n)})
	}
	t.Render()
}

type keyCount struct {
	key string
	n   int
}

// topCounts orders by count descending, then key.
func topCounts(m map[string]int, n int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, v := range m {
		out = append(out, keyCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].key < out[j].key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
