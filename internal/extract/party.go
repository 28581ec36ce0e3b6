package extract

import (
	"regexp"
	"strings"
)

// Party is one side of the invoice as read from its header block.
type Party struct {
	Name    string
	Address string
	TaxID   string
}

// PartyHeuristic finds the seller and buyer blocks. Implementations never fail;
// a block that cannot be found comes back as the zero Party.
type PartyHeuristic interface {
	Seller(text string) Party
	Buyer(text string) Party
}

// HeaderScan reads the seller from the top of the document.
type HeaderScan struct {
	MaxLines int
	// Titles are lone document titles skipped without stopping the scan.
	Titles *regexp.Regexp
	// Stops end the header at the first line matching any of them.
	Stops []*regexp.Regexp
	// Filter drops collected lines that carry invoice metadata.
	Filter *regexp.Regexp
}

// Scan returns the first surviving line as name and up to three more as address.
func (h HeaderScan) Scan(text string) Party {
	lines := strings.Split(text, "\n")
	if h.MaxLines > 0 && len(lines) > h.MaxLines {
		lines = lines[:h.MaxLines]
	}

	var collected []string
scan:
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if h.Titles != nil && h.Titles.MatchString(line) {
			continue
		}
		for _, stop := range h.Stops {
			if stop.MatchString(line) {
				break scan
			}
		}
		collected = append(collected, line)
	}

	kept := collected[:0]
	for _, line := range collected {
		if h.Filter != nil && h.Filter.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return blockParty(kept, 3)
}

// TriggerScan reads a party block that follows a keyword such as "BILL TO".
type TriggerScan struct {
	Trigger *regexp.Regexp
	// Stop ends the block at a line belonging to another section.
	Stop *regexp.Regexp
	// Window bounds the text scanned after the trigger, in characters.
	Window int
}

// Scan uses the first trigger occurrence only. Without a trigger it returns the zero Party.
func (t TriggerScan) Scan(text string) Party {
	loc := t.Trigger.FindStringIndex(text)
	if loc == nil {
		return Party{}
	}
	start := loc[1]

	lineEnd := len(text)
	if nl := strings.IndexByte(text[start:], '\n'); nl >= 0 {
		lineEnd = start + nl
	}

	var candidates []string
	if same := strings.Trim(text[start:lineEnd], " :-\t"); same != "" {
		candidates = append(candidates, same)
	}

	var rest string
	if lineEnd < len(text) {
		rest = text[lineEnd+1:]
	}
	for _, line := range strings.Split(runePrefix(rest, t.Window), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(candidates) > 0 {
				break
			}
			continue
		}
		if t.Stop != nil && t.Stop.MatchString(line) {
			break
		}
		candidates = append(candidates, line)
	}
	return blockParty(candidates, 0)
}

// HeaderTriggerParties reads the seller from the document header and the
// buyer from the first bill-to style trigger.
type HeaderTriggerParties struct {
	Header  HeaderScan
	Trigger TriggerScan
	TaxIDs  []*regexp.Regexp
}

func (p HeaderTriggerParties) Seller(text string) Party {
	return withTaxID(p.Header.Scan(text), p.TaxIDs)
}

func (p HeaderTriggerParties) Buyer(text string) Party {
	return withTaxID(p.Trigger.Scan(text), p.TaxIDs)
}

// LabelledParties expects both parties under explicit labels, as in
// normalized or translated documents. The seller falls back to the header
// when no seller label is present; the buyer has no fallback.
type LabelledParties struct {
	SellerLabel TriggerScan
	Header      HeaderScan
	BuyerLabel  TriggerScan
	TaxIDs      []*regexp.Regexp
}

func (p LabelledParties) Seller(text string) Party {
	if party := p.SellerLabel.Scan(text); party.Name != "" {
		return withTaxID(party, p.TaxIDs)
	}
	return withTaxID(p.Header.Scan(text), p.TaxIDs)
}

func (p LabelledParties) Buyer(text string) Party {
	return withTaxID(p.BuyerLabel.Scan(text), p.TaxIDs)
}

// blockParty splits block lines into name and address. maxAddress 0 means no limit.
func blockParty(lines []string, maxAddress int) Party {
	if len(lines) == 0 {
		return Party{}
	}
	party := Party{Name: lines[0]}
	rest := lines[1:]
	if maxAddress > 0 && len(rest) > maxAddress {
		rest = rest[:maxAddress]
	}
	if len(rest) > 0 {
		party.Address = strings.Join(rest, " ")
	}
	return party
}

func withTaxID(p Party, patterns []*regexp.Regexp) Party {
	if p.Name == "" || len(patterns) == 0 {
		return p
	}
	if id, ok := Locate(p.Name+"\n"+p.Address, patterns); ok {
		p.TaxID = id
	}
	return p
}

// runePrefix returns at most n characters of s without splitting a rune.
func runePrefix(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
