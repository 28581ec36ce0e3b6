package extract

import "regexp"

const EnglishProfileName = "english"

const datePattern = `(\d{1,2}[\/\.\-]\d{1,2}[\/\.\-]\d{2,4}|\d{4}-\d{1,2}-\d{1,2})`

// taxIDPatterns find a registration number inside a party block.
var taxIDPatterns = MustCompilePatterns(
	`(?:VAT|TAX)\s*(?:ID|NO\.?|NUMBER|REG(?:ISTRATION)?\.?)\s*[:#]?\s*([A-Z0-9][A-Z0-9\-]{4,19})`,
	`GSTIN\s*[:#]?\s*([0-9A-Z]{15})`,
	`USt-?IdNr\.?\s*[:#]?\s*([A-Z]{2}\s?[0-9]{9})`,
)

var englishHeader = HeaderScan{
	MaxLines: 20,
	Titles:   regexp.MustCompile(`(?i)^(?:INVOICE|TAX INVOICE|CREDIT NOTE)$`),
	Stops: MustCompilePatterns(
		`^(?:TO|BILL TO|SHIP TO|SOLD TO|BILLED TO):`,
		`^INVOICE\s*(?:#|NO|NUMBER)`,
		`^DATE:`,
		`^PAGE`,
		`^DETAILS`,
	),
	Filter: regexp.MustCompile(`(?i)INVOICE\s*#`),
}

// NewEnglishProfile reads plain-English layouts: header seller, bill-to buyer, USD default.
func NewEnglishProfile() *RuleSet {
	return &RuleSet{
		ProfileName: EnglishProfileName,
		Fields: FieldPatterns{
			InvoiceNumber: MustCompilePatterns(
				`INVOICE\s*(?:#|Number|No\.?)\s*:?\s*([A-Z0-9\-\/]+)`,
				`Inv\.\s*No\.?\s*:?\s*([A-Z0-9\-\/]+)`,
			),
			InvoiceDate: MustCompilePatterns(
				`DATE\s*:?\s*`+datePattern,
				`Invoice\s*Date\s*:?\s*`+datePattern,
			),
			DueDate: MustCompilePatterns(
				`Due\s*(?:after|by|date)\s*:?\s*`+datePattern,
				`Due\s*Date\s*:?\s*`+datePattern,
			),
			ExternalReference: MustCompilePatterns(
				`P\.?O\.?\s*(?:NUMBER|No\.?|#)\s*:?\s*([A-Z0-9\-\/]+)`,
				`Purchase\s*Order\s*:?\s*([A-Z0-9\-\/]+)`,
			),
			PaymentTerms: MustCompilePatterns(
				`TERMS\s*:?\s*([^\n]+)`,
				`Payment\s*Terms\s*:?\s*([^\n]+)`,
			),
		},
		DateRules:  DateNormalizer{Layouts: EnglishDateLayouts},
		MoneyRules: CommaThousands,
		Currency:   "USD",
		PartyRules: HeaderTriggerParties{
			Header: englishHeader,
			Trigger: TriggerScan{
				Trigger: regexp.MustCompile(`(?i)(?:\bTO\b|BILL TO|SOLD TO|BILLED TO|CUSTOMER)`),
				Stop:    regexp.MustCompile(`(?i)(?:SHIP TO|INVOICE|DATE|QUANTITY|DESCRIPTION|ITEM|TOTAL|PAYMENT)`),
				Window:  500,
			},
			TaxIDs: taxIDPatterns,
		},
		TotalRules: NewTotalsRules(
			[]string{"TOTAL DUE", "AMOUNT DUE", "TOTAL PAYABLE", "GRAND TOTAL"},
			[]string{"SUBTOTAL", "SUB TOTAL", "NET TOTAL"},
			[]string{"SALES TAX", "TAX", "VAT", "TOTAL TAX"},
			"TOTAL",
		),
		ItemRules: LineItemRules{
			Columns:  DefaultColumnRoles,
			TextLine: TextLinePattern,
			Money:    CommaThousands,
		},
	}
}

func init() {
	RegisterProfile(NewEnglishProfile())
	RegisterProfile(NewEuropeanProfile())
}
