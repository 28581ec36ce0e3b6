package ocr

import (
	"regexp"
	"strings"
)

// LowConfidenceThreshold marks text that probably came from a scan without a text layer.
const LowConfidenceThreshold = 0.4

var (
	reDate    = regexp.MustCompile(`\b\d{1,4}[./-]\d{1,2}[./-]\d{2,4}\b`)
	reCurr    = regexp.MustCompile(`\b(usd|eur|gbp|inr)\b|[$£€₹]`)
	reAmount  = regexp.MustCompile(`\b\d{1,3}([,.]\d{3})*[.,]\d{2}\b`)
	reInvoice = regexp.MustCompile(`\b(invoice|inv\.|bill to|total)\b`)
)

// naive heuristic confidence based on decoded text characteristics
func heuristicConfidence(txt string) float32 {
	if strings.TrimSpace(txt) == "" {
		return 0
	}
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if reDate.MatchString(txtL) {
		score += 0.2
	}
	if reCurr.MatchString(txtL) {
		score += 0.15
	}
	if reAmount.MatchString(txtL) {
		score += 0.15
	}
	if reInvoice.MatchString(txtL) {
		score += 0.2
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
