package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/invoice-qc/constants"
	"github.com/joseph-ayodele/invoice-qc/internal/common"
)

// FieldPatterns holds the ordered candidate patterns for each located field.
type FieldPatterns struct {
	InvoiceNumber     []*regexp.Regexp
	InvoiceDate       []*regexp.Regexp
	DueDate           []*regexp.Regexp
	ExternalReference []*regexp.Regexp
	PaymentTerms      []*regexp.Regexp
}

// Profile bundles the vocabulary and policies for one family of documents.
type Profile interface {
	Name() string
	Patterns() FieldPatterns
	Dates() DateNormalizer
	Money() MoneyPolicy
	// DefaultCurrency reports false when unresolved currency stays absent.
	DefaultCurrency() (string, bool)
	Parties() PartyHeuristic
	Totals() TotalsRules
	LineItems() LineItemRules
}

// RuleSet is the data-backed Profile used by the built-ins and YAML overlays.
type RuleSet struct {
	ProfileName string
	// Digest is set for YAML overlays: a short hash of the overlay source.
	Digest      string
	Fields      FieldPatterns
	DateRules   DateNormalizer
	MoneyRules  MoneyPolicy
	Currency    string
	PartyRules  PartyHeuristic
	TotalRules  TotalsRules
	ItemRules   LineItemRules
}

func (r *RuleSet) Name() string { return r.ProfileName }

// ID is Name for built-ins and Name@Digest for overlays, so an overlay never
// shares cache entries or override checks with its base.
func (r *RuleSet) ID() string {
	if r.Digest == "" {
		return r.ProfileName
	}
	return r.ProfileName + "@" + r.Digest
}
func (r *RuleSet) Patterns() FieldPatterns { return r.Fields }
func (r *RuleSet) Dates() DateNormalizer { return r.DateRules }
func (r *RuleSet) Money() MoneyPolicy { return r.MoneyRules }
func (r *RuleSet) Parties() PartyHeuristic { return r.PartyRules }
func (r *RuleSet) Totals() TotalsRules { return r.TotalRules }
func (r *RuleSet) LineItems() LineItemRules { return r.ItemRules }

func (r *RuleSet) DefaultCurrency() (string, bool) {
	return r.Currency, r.Currency != ""
}

var (
	profilesMu sync.RWMutex
	profiles   = map[string]Profile{}
)

// RegisterProfile makes p available to LookupProfile under its name.
func RegisterProfile(p Profile) {
	profilesMu.Lock()
	defer profilesMu.Unlock()
	profiles[strings.ToLower(p.Name())] = p
}

// LookupProfile returns the registered profile; an empty name selects english.
func LookupProfile(name string) (Profile, error) {
	if name == "" {
		name = EnglishProfileName
	}
	profilesMu.RLock()
	p, ok := profiles[strings.ToLower(name)]
	profilesMu.RUnlock()
	if !ok {
		return nil, common.NewAppError("UNKNOWN_PROFILE",
			fmt.Sprintf("unknown extraction profile %q (known: %s)", name, strings.Join(ProfileNames(), ", ")),
			common.ErrInvalidInput)
	}
	return p, nil
}

// ProfileID returns the identity of p: its ID when it has one, else its name.
func ProfileID(p Profile) string {
	if p == nil {
		return ""
	}
	if idp, ok := p.(interface{ ID() string }); ok {
		return idp.ID()
	}
	return p.Name()
}

// ProfileNames lists registered profiles in sorted order.
func ProfileNames() []string {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ProfileFile is the YAML overlay format. Lists replace the base profile's
// lists wholesale and keep their order; omitted keys inherit.
type ProfileFile struct {
	Name            string              `yaml:"name"`
	Base            string              `yaml:"base"`
	DefaultCurrency *string             `yaml:"default_currency"`
	Money           string              `yaml:"money"`
	DateLayouts     []string            `yaml:"date_layouts"`
	Patterns        map[string][]string `yaml:"patterns"`
	Columns         *ColumnRoles        `yaml:"columns"`
	LineItemPattern string              `yaml:"line_item_pattern"`
}

// LoadProfileFile reads a YAML overlay from disk.
func LoadProfileFile(path string) (Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile file: %w", err)
	}
	return ParseProfile(b)
}

// ParseProfile applies a YAML overlay to its base profile.
func ParseProfile(b []byte) (Profile, error) {
	var f ProfileFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, profileError("invalid profile yaml", err)
	}
	base, err := LookupProfile(f.Base)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(b)
	rs := &RuleSet{
		ProfileName: f.Name,
		Digest:      hex.EncodeToString(sum[:6]),
		Fields:      base.Patterns(),
		DateRules:   base.Dates(),
		MoneyRules:  base.Money(),
		PartyRules:  base.Parties(),
		TotalRules:  base.Totals(),
		ItemRules:   base.LineItems(),
	}
	if rs.ProfileName == "" {
		rs.ProfileName = base.Name()
	}
	rs.Currency, _ = base.DefaultCurrency()

	if f.DefaultCurrency != nil {
		code := strings.ToUpper(strings.TrimSpace(*f.DefaultCurrency))
		if code != "" && !constants.IsKnownCurrency(code) {
			return nil, common.NewAppError("PROFILE_PARSE_ERROR",
				fmt.Sprintf("default_currency %q not in %v", code, constants.CurrencyStrings()), common.ErrInvalidInput)
		}
		rs.Currency = code
	}
	if f.Money != "" {
		policy, ok := ParseMoneyPolicy(f.Money)
		if !ok {
			return nil, common.NewAppError("PROFILE_PARSE_ERROR",
				fmt.Sprintf("unknown money policy %q", f.Money), common.ErrInvalidInput)
		}
		rs.MoneyRules = policy
		rs.ItemRules.Money = policy
	}
	if len(f.DateLayouts) > 0 {
		rs.DateRules = DateNormalizer{Layouts: append([]string(nil), f.DateLayouts...)}
	}
	for field, exprs := range f.Patterns {
		compiled, err := CompilePatterns(exprs...)
		if err != nil {
			return nil, profileError("invalid pattern for "+field, err)
		}
		if err := rs.Fields.set(field, compiled); err != nil {
			return nil, err
		}
	}
	if f.Columns != nil {
		rs.ItemRules.Columns = mergeColumns(rs.ItemRules.Columns, *f.Columns)
	}
	if f.LineItemPattern != "" {
		re, err := regexp.Compile(f.LineItemPattern)
		if err != nil {
			return nil, profileError("invalid line_item_pattern", err)
		}
		if re.NumSubexp() != 4 {
			return nil, common.NewAppError("PROFILE_PARSE_ERROR",
				"line_item_pattern needs 4 groups: quantity, description, unit price, line total", common.ErrInvalidInput)
		}
		rs.ItemRules.TextLine = re
	}
	return rs, nil
}

func (p *FieldPatterns) set(field string, patterns []*regexp.Regexp) error {
	switch field {
	case "invoice_number":
		p.InvoiceNumber = patterns
	case "invoice_date":
		p.InvoiceDate = patterns
	case "due_date":
		p.DueDate = patterns
	case "external_reference":
		p.ExternalReference = patterns
	case "payment_terms":
		p.PaymentTerms = patterns
	default:
		return common.NewAppError("PROFILE_PARSE_ERROR", "unknown pattern field "+field, common.ErrInvalidInput)
	}
	return nil
}

func mergeColumns(base, overlay ColumnRoles) ColumnRoles {
	if len(overlay.Description) > 0 {
		base.Description = overlay.Description
	}
	if len(overlay.Quantity) > 0 {
		base.Quantity = overlay.Quantity
	}
	if len(overlay.UnitPrice) > 0 {
		base.UnitPrice = overlay.UnitPrice
	}
	if len(overlay.LineTotal) > 0 {
		base.LineTotal = overlay.LineTotal
	}
	return base
}

// profileError keeps both the parse failure and ErrInvalidInput in the chain.
func profileError(msg string, err error) error {
	return common.NewAppError("PROFILE_PARSE_ERROR", msg, errors.Join(common.ErrInvalidInput, err))
}
