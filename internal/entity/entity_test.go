package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDateUnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"2024-01-15", NewDate(2024, time.January, 15), false},
		{" 2024-01-15 ", NewDate(2024, time.January, 15), false},
		{"15/01/2024", NewDate(2024, time.January, 15), false},
		{"01/15/2024", NewDate(2024, time.January, 15), false},
		{"03/04/2024", NewDate(2024, time.April, 3), false}, // day first when ambiguous
		{"15.01.2024", NewDate(2024, time.January, 15), false},
		{"January 15, 2024", NewDate(2024, time.January, 15), false},
		{"15 Jan 2024", NewDate(2024, time.January, 15), false},
		{"2024-02-30", Date{}, true},
		{"soon", Date{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Date
			err := d.UnmarshalText([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if d != tt.want {
				t.Errorf("got %v, want %v", d, tt.want)
			}
		})
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, time.February, 28)
	if got := d.AddDays(1).String(); got != "2024-02-29" {
		t.Errorf("AddDays(1) = %s", got)
	}
	if !d.Before(d.AddDays(1)) || d.After(d) {
		t.Error("Before/After disagree with AddDays")
	}
	if !(Date{}).IsZero() || d.IsZero() {
		t.Error("IsZero")
	}
	if _, err := ParseDate("15/01/2024"); err == nil {
		t.Error("ParseDate should accept only the canonical form")
	}
}

func TestInvoiceJSON(t *testing.T) {
	d := NewDate(2024, time.January, 15)
	b, err := json.Marshal(Invoice{InvoiceNumber: "A-1", InvoiceDate: &d})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"invoice_number":"A-1","invoice_date":"2024-01-15","line_items":null}`
	if string(b) != want {
		t.Errorf("json = %s\nwant   %s", b, want)
	}
}

func TestRecordID(t *testing.T) {
	tests := []struct {
		inv  Invoice
		want string
	}{
		{Invoice{InvoiceNumber: "A-1", SourceFile: "a.pdf"}, "A-1"},
		{Invoice{SourceFile: "a.pdf"}, "a.pdf"},
		{Invoice{}, "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.inv.RecordID(); got != tt.want {
			t.Errorf("RecordID(%+v) = %q, want %q", tt.inv, got, tt.want)
		}
	}
}

func TestDuplicateKey(t *testing.T) {
	d := NewDate(2024, time.January, 15)
	a := &Invoice{InvoiceNumber: " inv-1 ", SellerName: "Acme", InvoiceDate: &d}
	b := &Invoice{InvoiceNumber: "INV-1", SellerName: "ACME ", InvoiceDate: &d}
	ka, ok := a.DuplicateKey()
	if !ok {
		t.Fatal("key expected")
	}
	kb, _ := b.DuplicateKey()
	if diff := cmp.Diff(ka, kb); diff != "" {
		t.Errorf("keys differ (-a +b):\n%s", diff)
	}
	if _, ok := (&Invoice{InvoiceNumber: "INV-1"}).DuplicateKey(); ok {
		t.Error("missing seller should yield no key")
	}
}

func TestDocumentText(t *testing.T) {
	doc := Document{
		Pages:  []string{"page one", "", "page three"},
		Tables: [][]Table{{{Row("a", "b")}}, nil, {{Row("c")}, {Row("d")}}},
	}
	if got, want := doc.Text(), "page one\npage three\n"; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
	if doc.LayoutText() != doc.Text() {
		t.Error("LayoutText should fall back to Text")
	}
	doc.LayoutPages = []string{"  laid   out"}
	if got := doc.LayoutText(); got != "  laid   out\n" {
		t.Errorf("LayoutText = %q", got)
	}
	if n := len(doc.AllTables()); n != 3 {
		t.Errorf("AllTables = %d, want 3", n)
	}
}

func TestValidationResult(t *testing.T) {
	r := NewValidationResult("A-1")
	r.AddWarning("unreasonable_due_date", "due_date", "w")
	if !r.IsValid || !r.HasWarning("unreasonable_due_date") {
		t.Fatalf("after warning: %+v", r)
	}
	r.AddError("seller_name_required", "seller_name", "e")
	if r.IsValid || !r.HasError("seller_name_required") || r.HasError("other") {
		t.Errorf("after error: %+v", r)
	}
	if got := r.Errors[0].Key(); got != "seller_name_required: seller_name" {
		t.Errorf("Key = %q", got)
	}
}
