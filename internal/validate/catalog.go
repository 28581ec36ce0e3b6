package validate

// Catalog lists the rule battery by group and the record fields by section.
type Catalog struct {
	ValidationRules map[string][]RuleInfo `json:"validation_rules"`
	SchemaFields    map[string][]string   `json:"schema_fields"`
}

// Rules returns every rule in evaluation order, duplicate_invoice last.
func Rules() []RuleInfo {
	out := make([]RuleInfo, 0, len(recordRules)+1)
	for _, r := range recordRules {
		out = append(out, r.RuleInfo)
	}
	return append(out, duplicateRule)
}

func NewCatalog() Catalog {
	groups := make(map[string][]RuleInfo)
	for _, r := range Rules() {
		groups[r.Group] = append(groups[r.Group], r)
	}
	return Catalog{
		ValidationRules: groups,
		SchemaFields: map[string][]string{
			"identifiers": {"invoice_number", "external_reference"},
			"seller":      {"seller_name", "seller_address", "seller_tax_id"},
			"buyer":       {"buyer_name", "buyer_address", "buyer_tax_id"},
			"dates":       {"invoice_date", "due_date"},
			"financial":   {"currency", "net_total", "tax_amount", "tax_rate", "gross_total"},
			"additional":  {"payment_terms", "line_items"},
		},
	}
}
