package entity

import "strings"

// Table is one detected grid: rows of optional cells. The first row is the header.
type Table [][]*string

// Document is what the document-to-text collaborator hands to the extraction engine.
type Document struct {
	Source string   `json:"source,omitempty"` // originating filename
	Pages  []string `json:"pages"`
	// Tables holds the detected tables of each page, indexed like Pages.
	Tables [][]Table `json:"tables,omitempty"`
	// LayoutPages is page text with horizontal layout preserved. Optional.
	LayoutPages []string `json:"layout_pages,omitempty"`
}

// Text concatenates non-empty pages, each followed by a newline.
func (d Document) Text() string {
	return joinPages(d.Pages)
}

// LayoutText falls back to Text when no layout rendering was supplied.
func (d Document) LayoutText() string {
	if len(d.LayoutPages) == 0 {
		return d.Text()
	}
	return joinPages(d.LayoutPages)
}

// AllTables flattens the per-page tables in page order.
func (d Document) AllTables() []Table {
	var out []Table
	for _, page := range d.Tables {
		out = append(out, page...)
	}
	return out
}

func joinPages(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		if p == "" {
			continue
		}
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}

// Cell returns a pointer to s, for building tables in code.
func Cell(s string) *string { return &s }

// Row builds a table row from plain strings.
func Row(cells ...string) []*string {
	out := make([]*string, len(cells))
	for i := range cells {
		out[i] = Cell(cells[i])
	}
	return out
}
