package validate

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmountsMatch(t *testing.T) {
	tol := decimal.NewFromFloat(DefaultTolerance)
	tests := []struct {
		a, b string
		want bool
	}{
		{"0", "0", true},
		{"0", "0.009", true},
		{"0", "0.01", false},
		{"5", "0", false},
		{"100", "102", true},
		{"100", "102.1", false},
		{"119.00", "119.01", true},
		{"-50", "-50", true},
	}
	for _, tt := range tests {
		a, b := decimal.RequireFromString(tt.a), decimal.RequireFromString(tt.b)
		if got := AmountsMatch(a, b, tol); got != tt.want {
			t.Errorf("AmountsMatch(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if AmountsMatch(a, b, tol) != AmountsMatch(b, a, tol) {
			t.Errorf("AmountsMatch(%s, %s) is not symmetric", tt.a, tt.b)
		}
	}
}

func TestAmountsMatch_Reflexive(t *testing.T) {
	for _, tol := range []float64{0, 0.0001, 0.02, 0.5} {
		tolerance := decimal.NewFromFloat(tol)
		for cents := int64(0); cents < 1_000_000; cents += 7919 {
			a := decimal.New(cents, -2)
			if !AmountsMatch(a, a, tolerance) {
				t.Fatalf("AmountsMatch(%s, %s) with tolerance %v = false", a, a, tol)
			}
		}
	}
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	groups := map[string]int{}
	for g, rules := range c.ValidationRules {
		groups[g] = len(rules)
	}
	if groups[GroupCompleteness] != 5 || groups[GroupFormat] != 3 || groups[GroupBusiness] != 4 || groups[GroupAnomaly] != 1 {
		t.Fatalf("rule groups = %v", groups)
	}
	if len(c.SchemaFields["financial"]) != 5 {
		t.Fatalf("financial fields = %v", c.SchemaFields["financial"])
	}
	rules := Rules()
	if rules[len(rules)-1].Rule != RuleDuplicateInvoice {
		t.Fatalf("duplicate_invoice should run last")
	}
}
