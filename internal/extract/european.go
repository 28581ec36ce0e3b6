package extract

import "regexp"

const EuropeanProfileName = "european"

// NewEuropeanProfile reads normalized or translated documents: explicit
// seller and buyer labels, day-first dates, "1.234,56" amounts and no
// default currency.
func NewEuropeanProfile() *RuleSet {
	partyStop := regexp.MustCompile(`(?i)(?:SELLER|SUPPLIER|VENDOR|BUYER|CUSTOMER|CLIENT|BILL TO|RECIPIENT|SHIP TO|INVOICE|DATE|QUANTITY|DESCRIPTION|ITEM|TOTAL|PAYMENT|IBAN)`)
	return &RuleSet{
		ProfileName: EuropeanProfileName,
		Fields: FieldPatterns{
			InvoiceNumber: MustCompilePatterns(
				`INVOICE\s*(?:#|Number|No\.?|Nr\.?)\s*:?\s*([A-Z0-9\-\/]+)`,
				`Document\s*(?:No\.?|Number)\s*:?\s*([A-Z0-9\-\/]+)`,
				`Inv\.\s*No\.?\s*:?\s*([A-Z0-9\-\/]+)`,
			),
			InvoiceDate: MustCompilePatterns(
				`Invoice\s*Date\s*:?\s*`+datePattern,
				`Date\s*of\s*issue\s*:?\s*`+datePattern,
				`^\s*DATE\s*:?\s*`+datePattern,
			),
			DueDate: MustCompilePatterns(
				`Due\s*(?:date|by)\s*:?\s*`+datePattern,
				`Payable\s*(?:until|by)\s*:?\s*`+datePattern,
			),
			ExternalReference: MustCompilePatterns(
				`(?:Order|P\.?O\.?)\s*(?:No\.?|Nr\.?|Number|#|Reference)\s*:?\s*([A-Z0-9\-\/]+)`,
				`Customer\s*Reference\s*:?\s*([A-Z0-9\-\/]+)`,
			),
			PaymentTerms: MustCompilePatterns(
				`Payment\s*Terms\s*:?\s*([^\n]+)`,
				`TERMS\s*:?\s*([^\n]+)`,
			),
		},
		DateRules:  DateNormalizer{Layouts: EuropeanDateLayouts},
		MoneyRules: DotThousands,
		PartyRules: LabelledParties{
			SellerLabel: TriggerScan{
				Trigger: regexp.MustCompile(`(?im)^\s*(?:SELLER|SUPPLIER|VENDOR|FROM)\b`),
				Stop:    partyStop,
				Window:  500,
			},
			Header: englishHeader,
			BuyerLabel: TriggerScan{
				Trigger: regexp.MustCompile(`(?im)^\s*(?:BUYER|CUSTOMER|CLIENT|BILL TO|RECIPIENT)\b`),
				Stop:    partyStop,
				Window:  500,
			},
			TaxIDs: taxIDPatterns,
		},
		TotalRules: NewTotalsRules(
			[]string{"TOTAL DUE", "AMOUNT DUE", "TOTAL PAYABLE", "GRAND TOTAL", "TOTAL GROSS", "GROSS TOTAL"},
			[]string{"SUBTOTAL", "SUB TOTAL", "NET TOTAL", "TOTAL NET", "NET AMOUNT"},
			[]string{"VAT AMOUNT", "TOTAL VAT", "VAT", "SALES TAX", "TAX"},
			"TOTAL",
		),
		ItemRules: LineItemRules{
			Columns:  DefaultColumnRoles,
			TextLine: CommaTextLinePattern,
			Money:    DotThousands,
		},
	}
}
