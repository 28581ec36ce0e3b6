package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem represents one billed line. Every field is optional.
type LineItem struct {
	Description string           `json:"description,omitempty"`
	Quantity    *float64         `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	LineTotal   *decimal.Decimal `json:"line_total,omitempty"`
	TaxRate     *float64         `json:"tax_rate,omitempty"`
}

// Invoice is the structured record extracted from one document.
// Extraction is best-effort, so every field may be absent; the
// validator decides what is an error.
type Invoice struct {
	InvoiceNumber     string `json:"invoice_number,omitempty"`
	ExternalReference string `json:"external_reference,omitempty"`

	SellerName    string `json:"seller_name,omitempty"`
	SellerAddress string `json:"seller_address,omitempty"`
	SellerTaxID   string `json:"seller_tax_id,omitempty"`

	BuyerName    string `json:"buyer_name,omitempty"`
	BuyerAddress string `json:"buyer_address,omitempty"`
	BuyerTaxID   string `json:"buyer_tax_id,omitempty"`

	InvoiceDate *Date `json:"invoice_date,omitempty"`
	DueDate     *Date `json:"due_date,omitempty"`

	Currency   string           `json:"currency,omitempty"`
	NetTotal   *decimal.Decimal `json:"net_total,omitempty"`
	TaxAmount  *decimal.Decimal `json:"tax_amount,omitempty"`
	TaxRate    *float64         `json:"tax_rate,omitempty"`
	GrossTotal *decimal.Decimal `json:"gross_total,omitempty"`

	PaymentTerms string     `json:"payment_terms,omitempty"`
	LineItems    []LineItem `json:"line_items"`

	SourceFile string `json:"source_file,omitempty"`
}

// RecordID identifies the invoice in reports.
func (inv *Invoice) RecordID() string {
	if inv.InvoiceNumber != "" {
		return inv.InvoiceNumber
	}
	if inv.SourceFile != "" {
		return inv.SourceFile
	}
	return "UNKNOWN"
}

// DuplicateKey is the identity used for batch-scoped duplicate detection.
type DuplicateKey struct {
	InvoiceNumber string
	SellerName    string
	InvoiceDate   string
}

// DuplicateKey returns false when the invoice lacks a number or a seller.
func (inv *Invoice) DuplicateKey() (DuplicateKey, bool) {
	if inv.InvoiceNumber == "" || inv.SellerName == "" {
		return DuplicateKey{}, false
	}
	var date string
	if inv.InvoiceDate != nil {
		date = inv.InvoiceDate.String()
	}
	return DuplicateKey{
		InvoiceNumber: strings.ToUpper(strings.TrimSpace(inv.InvoiceNumber)),
		SellerName:    strings.ToUpper(strings.TrimSpace(inv.SellerName)),
		InvoiceDate:   date,
	}, true
}

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }
