package extract

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

func TestLocate_FirstPatternWins(t *testing.T) {
	patterns := MustCompilePatterns(
		`INVOICE\s*#\s*(\S+)`,
		`REF\s*(\d+)`,
	)
	text := "REF 123\ninvoice # A-1\n"

	got, ok := Locate(text, patterns)
	if !ok || got != "A-1" {
		t.Fatalf("Locate = %q, %v; want A-1", got, ok)
	}

	if _, ok := Locate("nothing here", patterns); ok {
		t.Fatalf("expected not found")
	}
}

func TestLocate_TrimsCapture(t *testing.T) {
	patterns := MustCompilePatterns(`TERMS:([^\n]+)`)
	got, ok := Locate("Terms:   Net 30  \n", patterns)
	if !ok || got != "Net 30" {
		t.Fatalf("Locate = %q, %v", got, ok)
	}
}

func TestCompilePatterns_ReportsIndex(t *testing.T) {
	if _, err := CompilePatterns(`ok(\d)`, `bad(`); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestDateNormalizer_LayoutOrder(t *testing.T) {
	n := DateNormalizer{Layouts: EnglishDateLayouts}
	tests := []struct {
		token string
		want  entity.Date
		ok    bool
	}{
		{"03.04.2024", entity.NewDate(2024, 4, 3), true},
		{"04/25/2024", entity.NewDate(2024, 4, 25), true},
		{"25/04/2024", entity.NewDate(2024, 4, 25), true},
		{"2024-01-15", entity.NewDate(2024, 1, 15), true},
		{"15-01-2024", entity.NewDate(2024, 1, 15), true},
		{"15.01.24", entity.NewDate(2024, 1, 15), true},
		{"31/31/2024", entity.Date{}, false},
		{"", entity.Date{}, false},
	}
	for _, tt := range tests {
		got, ok := n.Normalize(tt.token)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Normalize(%q) = %v, %v; want %v, %v", tt.token, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDateNormalizer_Idempotent(t *testing.T) {
	for _, layouts := range [][]string{EnglishDateLayouts, EuropeanDateLayouts} {
		n := DateNormalizer{Layouts: layouts}
		for _, token := range []string{"03.04.2024", "12/31/2023", "2024-02-29", "1/2/25"} {
			first, ok := n.Normalize(token)
			if !ok {
				continue
			}
			second, ok := n.Normalize(first.String())
			if !ok || second != first {
				t.Errorf("Normalize(%q) not idempotent: %v then %v", token, first, second)
			}
		}
	}
}

func TestEuropeanDates_NeverMonthFirst(t *testing.T) {
	n := DateNormalizer{Layouts: EuropeanDateLayouts}
	if _, ok := n.Normalize("04/25/2024"); ok {
		t.Fatalf("european layouts should reject month-first tokens")
	}
}

func TestCleanMoney(t *testing.T) {
	tests := []struct {
		token  string
		policy MoneyPolicy
		want   string
		ok     bool
	}{
		{"$1,234.56", CommaThousands, "1234.56", true},
		{"EUR 100", CommaThousands, "100", true},
		{"1.234,56 €", DotThousands, "1234.56", true},
		{"190,00", DotThousands, "190", true},
		{"12.", CommaThousands, "12", true},
		{"1.2.3", CommaThousands, "", false},
		{"abc", CommaThousands, "", false},
		{"", DotThousands, "", false},
	}
	for _, tt := range tests {
		got, ok := CleanMoney(tt.token, tt.policy)
		if ok != tt.ok {
			t.Errorf("CleanMoney(%q, %v) ok = %v", tt.token, tt.policy, ok)
			continue
		}
		if ok && !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("CleanMoney(%q, %v) = %s, want %s", tt.token, tt.policy, got, tt.want)
		}
	}
}

func TestCleanMoney_Idempotent(t *testing.T) {
	for _, policy := range []MoneyPolicy{CommaThousands, DotThousands} {
		for _, token := range []string{"1,234.56", "1.234,56", "0.01", "99", "1.000.000,10"} {
			first, ok := CleanMoney(token, policy)
			if !ok {
				continue
			}
			second, ok := CleanMoney(FormatMoney(first, policy), policy)
			if !ok || !second.Equal(first) {
				t.Errorf("%v: CleanMoney(%q) = %s, re-clean = %s", policy, token, first, second)
			}
			if policy == CommaThousands && FormatMoney(first, policy) != first.String() {
				t.Errorf("comma-thousands canonical form %q != %q", FormatMoney(first, policy), first.String())
			}
		}
	}
}

func TestParseQuantity(t *testing.T) {
	if q, ok := ParseQuantity("2.5", CommaThousands); !ok || q != 2.5 {
		t.Fatalf("ParseQuantity = %v, %v", q, ok)
	}
	if q, ok := ParseQuantity("2,5", DotThousands); !ok || q != 2.5 {
		t.Fatalf("ParseQuantity european = %v, %v", q, ok)
	}
	for _, bad := range []string{"x", "-1", "", "NaN"} {
		if _, ok := ParseQuantity(bad, CommaThousands); ok {
			t.Errorf("ParseQuantity(%q) should fail", bad)
		}
	}
}

func TestParseMoneyPolicy(t *testing.T) {
	if p, ok := ParseMoneyPolicy("DOT_THOUSANDS"); !ok || p != DotThousands {
		t.Fatalf("got %v, %v", p, ok)
	}
	if _, ok := ParseMoneyPolicy("swiss"); ok {
		t.Fatalf("expected unknown policy to fail")
	}
}
