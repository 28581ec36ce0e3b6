package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-qc/constants"
)

// amountSuffix follows a label: an optional colon, an optional symbol, then the token.
const amountSuffix = `\s*:?\s*[$€£₹]?\s*([\d,.]+)`

var currencyCodePatterns = func() map[constants.Currency]*regexp.Regexp {
	out := make(map[constants.Currency]*regexp.Regexp)
	for _, c := range constants.Currencies() {
		out[c] = regexp.MustCompile(`(?i)\b` + string(c) + `\b`)
	}
	return out
}()

// ResolveCurrency checks symbols, then whole-word codes, then the fallback.
// An empty fallback leaves the currency absent.
func ResolveCurrency(text string, fallback string) (string, bool) {
	for _, s := range constants.CurrencySymbols {
		if strings.Contains(text, s.Symbol) {
			return string(s.Code), true
		}
	}
	for _, c := range constants.Currencies() {
		if currencyCodePatterns[c].MatchString(text) {
			return string(c), true
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

// Totals are the headline amounts of one document.
type Totals struct {
	Net     *decimal.Decimal
	Tax     *decimal.Decimal
	Gross   *decimal.Decimal
	TaxRate *float64
}

// TotalsRules holds label lists in priority order.
type TotalsRules struct {
	Gross []*regexp.Regexp
	// GrossFallback is consulted only when no Gross label yields an amount; its first match wins.
	GrossFallback *regexp.Regexp
	Net           []*regexp.Regexp
	Tax           []*regexp.Regexp
	TaxRate       *regexp.Regexp
}

// NewTotalsRules compiles label phrases into amount patterns. Spaces in a
// label match any run of whitespace.
func NewTotalsRules(gross, net, tax []string, fallbackLabel string) TotalsRules {
	rules := TotalsRules{
		Gross:   labelPatterns(gross),
		Net:     labelPatterns(net),
		Tax:     labelPatterns(tax),
		TaxRate: regexp.MustCompile(`(?i)(?:TAX|VAT|GST|MWST|IVA)[^\n%\d]{0,20}(\d{1,2}(?:[.,]\d+)?)\s*%`),
	}
	if fallbackLabel != "" {
		rules.GrossFallback = regexp.MustCompile(`(?i)\b` + labelExpr(fallbackLabel) + `\b` + amountSuffix)
	}
	return rules
}

func labelPatterns(labels []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(labels))
	for _, l := range labels {
		out = append(out, regexp.MustCompile(`(?i)`+labelExpr(l)+amountSuffix))
	}
	return out
}

func labelExpr(label string) string {
	words := strings.Fields(label)
	for i := range words {
		words[i] = regexp.QuoteMeta(words[i])
	}
	return strings.Join(words, `\s+`)
}

// Extract resolves net, tax and gross. Net is derived from gross minus tax when only those two are found.
func (r TotalsRules) Extract(text string, policy MoneyPolicy) Totals {
	var t Totals

	if v, ok := lastLabelledAmount(text, r.Gross, policy); ok {
		t.Gross = &v
	} else if r.GrossFallback != nil {
		if m := r.GrossFallback.FindStringSubmatch(text); m != nil {
			if v, ok := CleanMoney(m[1], policy); ok {
				t.Gross = &v
			}
		}
	}
	if v, ok := lastLabelledAmount(text, r.Net, policy); ok {
		t.Net = &v
	}
	if v, ok := lastLabelledAmount(text, r.Tax, policy); ok {
		t.Tax = &v
	}
	if t.Net == nil && t.Gross != nil && t.Tax != nil {
		net := t.Gross.Sub(*t.Tax)
		t.Net = &net
	}
	if r.TaxRate != nil {
		if m := r.TaxRate.FindStringSubmatch(text); m != nil {
			if f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil && f >= 0 && f <= 100 {
				t.TaxRate = &f
			}
		}
	}
	return t
}

// lastLabelledAmount tries labels in order; for the first label that matches,
// the last occurrence in the document is taken.
func lastLabelledAmount(text string, labels []*regexp.Regexp, policy MoneyPolicy) (decimal.Decimal, bool) {
	for _, re := range labels {
		matches := re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		if v, ok := CleanMoney(matches[len(matches)-1][1], policy); ok {
			return v, true
		}
	}
	return decimal.Decimal{}, false
}
