package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-qc/constants"
)

// Issue is one rule outcome: a validation error or warning.
type Issue struct {
	Rule     string             `json:"rule"`
	Field    string             `json:"field,omitempty"`
	Message  string             `json:"message"`
	Severity constants.Severity `json:"severity"`
}

// Key is the summary bucket: "rule" or "rule: field".
func (i Issue) Key() string {
	if i.Field == "" {
		return i.Rule
	}
	return i.Rule + ": " + i.Field
}

// ValidationResult is the per-invoice outcome.
type ValidationResult struct {
	InvoiceID string  `json:"invoice_id"`
	IsValid   bool    `json:"is_valid"`
	Errors    []Issue `json:"errors"`
	Warnings  []Issue `json:"warnings"`
}

func NewValidationResult(invoiceID string) *ValidationResult {
	return &ValidationResult{
		InvoiceID: invoiceID,
		IsValid:   true,
		Errors:    make([]Issue, 0),
		Warnings:  make([]Issue, 0),
	}
}

func (r *ValidationResult) AddError(rule, field, message string) {
	r.Errors = append(r.Errors, Issue{Rule: rule, Field: field, Message: message, Severity: constants.SeverityError})
	r.IsValid = false
}

func (r *ValidationResult) AddWarning(rule, field, message string) {
	r.Warnings = append(r.Warnings, Issue{Rule: rule, Field: field, Message: message, Severity: constants.SeverityWarning})
}

// HasError reports whether an error for rule was recorded.
func (r *ValidationResult) HasError(rule string) bool {
	for _, e := range r.Errors {
		if e.Rule == rule {
			return true
		}
	}
	return false
}

// HasWarning reports whether a warning for rule was recorded.
func (r *ValidationResult) HasWarning(rule string) bool {
	for _, w := range r.Warnings {
		if w.Rule == rule {
			return true
		}
	}
	return false
}

type ValidationSummary struct {
	TotalInvoices        int            `json:"total_invoices"`
	ValidInvoices        int            `json:"valid_invoices"`
	InvalidInvoices      int            `json:"invalid_invoices"`
	InvoicesWithWarnings int            `json:"invoices_with_warnings"`
	ErrorCounts          map[string]int `json:"error_counts"`
	WarningCounts        map[string]int `json:"warning_counts"`
}

type ValidationReport struct {
	ID          uuid.UUID          `json:"id"`
	Summary     ValidationSummary  `json:"summary"`
	Results     []ValidationResult `json:"results"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// ReportHeader is the listing view of a stored report.
type ReportHeader struct {
	ID              uuid.UUID `json:"id"`
	GeneratedAt     time.Time `json:"generated_at"`
	TotalInvoices   int       `json:"total_invoices"`
	InvalidInvoices int       `json:"invalid_invoices"`
	Source          string    `json:"source"`
}
