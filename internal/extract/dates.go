package extract

import (
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

// Day-first layouts precede month-first ones for each separator, so
// "03.04.2024" reads as 3 April. The order is policy; profiles may replace it.
var EnglishDateLayouts = []string{
	"2.1.2006", "1.2.2006",
	"2006-1-2", "2-1-2006",
	"2/1/2006", "1/2/2006",
	"2.1.06", "1.2.06",
	"2-1-06",
	"2/1/06", "1/2/06",
}

// EuropeanDateLayouts never tries month-first.
var EuropeanDateLayouts = []string{
	"2.1.2006", "2006-1-2", "2-1-2006", "2/1/2006",
	"2.1.06", "2-1-06", "2/1/06",
}

// DateNormalizer parses located date tokens against an ordered layout list.
type DateNormalizer struct {
	Layouts []string
}

// Normalize returns the date from the first layout that parses token.
func (n DateNormalizer) Normalize(token string) (entity.Date, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return entity.Date{}, false
	}
	for _, layout := range n.Layouts {
		if t, err := time.Parse(layout, token); err == nil {
			return entity.DateOf(t), true
		}
	}
	return entity.Date{}, false
}
