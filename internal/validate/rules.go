package validate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-qc/constants"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

// Rule names as they appear in results and summary keys.
const (
	RuleInvoiceNumberRequired   = "invoice_number_required"
	RuleInvoiceDateRequired     = "invoice_date_required"
	RuleSellerNameRequired      = "seller_name_required"
	RuleBuyerNameRequired       = "buyer_name_required"
	RuleGrossTotalRequired      = "gross_total_required"
	RuleInvalidCurrency         = "invalid_currency"
	RuleUnreasonableInvoiceDate = "unreasonable_invoice_date"
	RuleUnreasonableDueDate     = "unreasonable_due_date"
	RuleInvalidDateOrder        = "invalid_date_order"
	RuleTotalsMismatch          = "totals_mismatch"
	RuleLineItemsSumMismatch    = "line_items_sum_mismatch"
	RuleNegativeAmount          = "negative_amount"
	RuleDuplicateInvoice        = "duplicate_invoice"
)

// Rule groups.
const (
	GroupCompleteness = "completeness"
	GroupFormat       = "format"
	GroupBusiness     = "business_rules"
	GroupAnomaly      = "anomaly_rules"
)

const (
	pastWindowDays   = 3650
	futureWindowDays = 730
)

// check evaluates one rule against inv and appends to res.
type check func(v *Validator, inv *entity.Invoice, res *entity.ValidationResult)

// RuleInfo describes a rule for catalogs and documentation.
type RuleInfo struct {
	Rule        string             `json:"rule"`
	Group       string             `json:"group"`
	Severity    constants.Severity `json:"severity"`
	Fields      []string           `json:"fields,omitempty"`
	Description string             `json:"description"`
}

type rule struct {
	RuleInfo
	check check
}

// recordRules run in this order on every record. duplicate_invoice is
// batch-scoped and handled by the caller's SeenSet.
var recordRules = []rule{
	{RuleInfo{RuleInvoiceNumberRequired, GroupCompleteness, constants.SeverityError, []string{"invoice_number"},
		"Invoice must have a non-empty invoice number"}, checkInvoiceNumber},
	{RuleInfo{RuleInvoiceDateRequired, GroupCompleteness, constants.SeverityError, []string{"invoice_date"},
		"Invoice must have an invoice date"}, checkInvoiceDate},
	{RuleInfo{RuleSellerNameRequired, GroupCompleteness, constants.SeverityError, []string{"seller_name"},
		"Seller name must not be empty"}, checkSellerName},
	{RuleInfo{RuleBuyerNameRequired, GroupCompleteness, constants.SeverityError, []string{"buyer_name"},
		"Buyer name must not be empty"}, checkBuyerName},
	{RuleInfo{RuleGrossTotalRequired, GroupCompleteness, constants.SeverityError, []string{"gross_total"},
		"Gross total must be present"}, checkGrossTotal},
	{RuleInfo{RuleInvalidCurrency, GroupFormat, constants.SeverityError, []string{"currency"},
		"Currency must be one of " + strings.Join(constants.CurrencyStrings(), ", ")}, checkCurrency},
	{RuleInfo{RuleUnreasonableInvoiceDate, GroupFormat, constants.SeverityWarning, []string{"invoice_date"},
		"Invoice date should be within 10 years in the past and 2 years in the future"}, checkInvoiceDateRange},
	{RuleInfo{RuleUnreasonableDueDate, GroupFormat, constants.SeverityWarning, []string{"due_date"},
		"Due date should be within 10 years in the past and 2 years in the future"}, checkDueDateRange},
	{RuleInfo{RuleInvalidDateOrder, GroupBusiness, constants.SeverityError, []string{"due_date"},
		"Due date must be on or after invoice date"}, checkDateOrder},
	{RuleInfo{RuleTotalsMismatch, GroupBusiness, constants.SeverityError, []string{"gross_total"},
		"Net total plus tax amount must equal gross total within tolerance"}, checkTotals},
	{RuleInfo{RuleLineItemsSumMismatch, GroupBusiness, constants.SeverityWarning, []string{"line_items"},
		"Sum of line item totals should match net total within tolerance"}, checkLineItemsSum},
	{RuleInfo{RuleNegativeAmount, GroupBusiness, constants.SeverityError, []string{"net_total", "tax_amount", "gross_total"},
		"Monetary totals must not be negative"}, checkNegativeAmounts},
}

var duplicateRule = RuleInfo{RuleDuplicateInvoice, GroupAnomaly, constants.SeverityError, []string{"invoice_number"},
	"No two invoices in a batch may share invoice number, seller and invoice date"}

// ===== completeness =====

func checkInvoiceNumber(_ *Validator, inv *entity.Invoice, res *entity.ValidationResult) {
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		res.AddError(RuleInvoiceNumberRequired, "invoice_number", "Invoice number is required and cannot be empty")
	}
}

func checkInvoiceDate(_ *Validator, inv *entity.Invoice, res *entity.ValidationResult) {
	if inv.InvoiceDate == nil || inv.InvoiceDate.IsZero() {
		res.AddError(RuleInvoiceDateRequired, "invoice_date", "Invoice date is required")
	}
}

func checkSellerName(_ *Validator, inv *entity.Invoice, res *entity.ValidationResult) {
	if strings.TrimSpace(inv.SellerName) == "" {
		res.AddError(RuleSellerNameRequired, "seller_name", "Seller name is required and cannot be empty")
	}
}

func checkBuyerName(_ *Validator, inv *entity.Invoice, res *entity.ValidationResult) {
	if strings.TrimSpace(inv.BuyerName) == "" {
		res.AddError(RuleBuyerNameRequired, "buyer_name", "Buyer name is required and cannot be empty")
	}
}

func checkGrossTotal(_ *Validator, inv *entity.Invoice, res *entity.ValidationResult) {
	if inv.GrossTotal == nil {
		res.AddError(RuleGrossTotalRequired, "gross_total", "Gross total (final amount) is required")
	}
}

// ===== format =====

func checkCurrency(_ *Validator, inv *entity.Invoice, res *entity.ValidationResult) {
	if inv.Currency != "" && !constants.IsKnownCurrency(inv.Currency) {
		res.AddError(RuleInvalidCurrency, "currency", fmt.Sprintf("Currency '%s' is not in known set (%s)",
			inv.Currency, strings.Join(constants.CurrencyStrings(), ", ")))
	}
}

func checkInvoiceDateRange(v *Validator, inv *entity.Invoice, res *entity.ValidationResult) {
	if inv.InvoiceDate != nil && !inv.InvoiceDate.IsZero() && !v.reasonable(*inv.InvoiceDate) {
		res.AddWarning(RuleUnreasonableInvoiceDate, "invoice_date",
			fmt.Sprintf("Invoice date %s seems unreasonable (too far in past/future)", inv.InvoiceDate))
	}
}

func checkDueDateRange(v *Validator, inv *entity.Invoice, res *entity.ValidationResult) {
	if inv.DueDate != nil && !inv.DueDate.IsZero() && !v.reasonable(*inv.DueDate) {
		res.AddWarning(RuleUnreasonableDueDate, "due_date",
			fmt.Sprintf("Due date %s seems unreasonable (too far in past/future)", inv.DueDate))
	}
}

// ===== business =====

func checkDateOrder(_ *Validator, inv *entity.Invoice, res *entity.ValidationResult) {
	if inv.InvoiceDate == nil || inv.DueDate == nil {
		return
	}
	if inv.DueDate.Before(*inv.InvoiceDate) {
		res.AddError(RuleInvalidDateOrder, "due_date",
			fmt.Sprintf("Due date (%s) cannot be before invoice date (%s)", inv.DueDate, inv.InvoiceDate))
	}
}

func checkTotals(v *Validator, inv *entity.Invoice, res *entity.ValidationResult) {
	if inv.NetTotal == nil || inv.TaxAmount == nil || inv.GrossTotal == nil {
		return
	}
	expected := inv.NetTotal.Add(*inv.TaxAmount)
	if !AmountsMatch(expected, *inv.GrossTotal, v.Tolerance) {
		res.AddError(RuleTotalsMismatch, "gross_total",
			fmt.Sprintf("Net total (%s) + Tax (%s) = %s does not match Gross total (%s)",
				inv.NetTotal, inv.TaxAmount, expected, inv.GrossTotal))
	}
}

// checkLineItemsSum stays a warning even though checkTotals is an error.
func checkLineItemsSum(v *Validator, inv *entity.Invoice, res *entity.ValidationResult) {
	if len(inv.LineItems) == 0 || inv.NetTotal == nil {
		return
	}
	sum := decimal.Zero
	for _, item := range inv.LineItems {
		if item.LineTotal != nil {
			sum = sum.Add(*item.LineTotal)
		}
	}
	if sum.IsPositive() && !AmountsMatch(sum, *inv.NetTotal, v.Tolerance) {
		res.AddWarning(RuleLineItemsSumMismatch, "line_items",
			fmt.Sprintf("Sum of line items (%s) does not match net total (%s)", sum, inv.NetTotal))
	}
}

func checkNegativeAmounts(_ *Validator, inv *entity.Invoice, res *entity.ValidationResult) {
	amounts := []struct {
		field, label string
		value        *decimal.Decimal
	}{
		{"net_total", "Net total", inv.NetTotal},
		{"tax_amount", "Tax amount", inv.TaxAmount},
		{"gross_total", "Gross total", inv.GrossTotal},
	}
	for _, a := range amounts {
		if a.value != nil && a.value.IsNegative() {
			res.AddError(RuleNegativeAmount, a.field, a.label+" cannot be negative")
		}
	}
}

// ===== anomaly =====

// SeenSet accumulates duplicate keys for one batch. It is not safe for
// concurrent use; callers apply it in batch order.
type SeenSet struct {
	keys map[entity.DuplicateKey]string
}

func NewSeenSet() *SeenSet {
	return &SeenSet{keys: make(map[entity.DuplicateKey]string)}
}

// Observe records key and reports the first record id seen with it, if any.
func (s *SeenSet) Observe(key entity.DuplicateKey, recordID string) (string, bool) {
	if first, ok := s.keys[key]; ok {
		return first, true
	}
	s.keys[key] = recordID
	return "", false
}

func (s *SeenSet) Len() int { return len(s.keys) }

func checkDuplicate(inv *entity.Invoice, seen *SeenSet, res *entity.ValidationResult) {
	if seen == nil || inv == nil {
		return
	}
	key, ok := inv.DuplicateKey()
	if !ok {
		return
	}
	if _, dup := seen.Observe(key, res.InvoiceID); dup {
		res.AddError(RuleDuplicateInvoice, "invoice_number",
			fmt.Sprintf("Duplicate invoice detected: %s from %s", inv.InvoiceNumber, inv.SellerName))
	}
}

// AmountsMatch compares two amounts within a relative tolerance. Two zeros
// match; a zero and a non-zero match only when they differ by less than 0.01.
func AmountsMatch(a, b, tolerance decimal.Decimal) bool {
	if a.IsZero() && b.IsZero() {
		return true
	}
	diff := a.Sub(b).Abs()
	if a.IsZero() || b.IsZero() {
		return diff.LessThan(absoluteThreshold)
	}
	avg := a.Abs().Add(b.Abs()).Div(two)
	return diff.Div(avg).LessThanOrEqual(tolerance)
}

var (
	absoluteThreshold = decimal.RequireFromString("0.01")
	two               = decimal.NewFromInt(2)
)
