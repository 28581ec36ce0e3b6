package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

// ColumnRoles lists header keywords per column role. Within a role the first
// header cell that equals or contains any keyword wins.
type ColumnRoles struct {
	Description []string `yaml:"description"`
	Quantity    []string `yaml:"quantity"`
	UnitPrice   []string `yaml:"unit_price"`
	LineTotal   []string `yaml:"line_total"`
}

var DefaultColumnRoles = ColumnRoles{
	Description: []string{"description", "item", "product", "details"},
	Quantity:    []string{"qty", "quantity", "count"},
	UnitPrice:   []string{"unit price", "price", "rate", "cost", "unit"},
	LineTotal:   []string{"total", "amount", "extension"},
}

// TextLinePattern is the fixed line shape: quantity, description, unit price, line total.
var TextLinePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s+(.+?)\s+(\d+\.\d{2})\s+(\d+\.\d{2})$`)

// CommaTextLinePattern is TextLinePattern for documents that write "12,45".
var CommaTextLinePattern = regexp.MustCompile(`^(\d+(?:,\d+)?)\s+(.+?)\s+(\d+,\d{2})\s+(\d+,\d{2})$`)

// LineItemRules converts tables, or failing that layout text, into line items.
type LineItemRules struct {
	Columns  ColumnRoles
	TextLine *regexp.Regexp
	Money    MoneyPolicy
}

// Extract tries the table strategy first; text lines are read only when no table yields an item.
func (r LineItemRules) Extract(doc entity.Document) []entity.LineItem {
	if items := r.FromTables(doc.AllTables()); len(items) > 0 {
		return items
	}
	return r.FromText(doc.LayoutText())
}

type columnIndex struct {
	desc, qty, price, total int
}

// FromTables reads every table with a header row and at least one body row.
func (r LineItemRules) FromTables(tables []entity.Table) []entity.LineItem {
	var items []entity.LineItem
	for _, table := range tables {
		if len(table) < 2 {
			continue
		}
		header := table[0]
		cols := columnIndex{
			desc:  findColumn(header, r.Columns.Description),
			qty:   findColumn(header, r.Columns.Quantity),
			price: findColumn(header, r.Columns.UnitPrice),
			total: findColumn(header, r.Columns.LineTotal),
		}
		if cols.desc < 0 {
			continue
		}
		for _, row := range table[1:] {
			if len(row) == 0 {
				continue
			}
			if strings.Contains(strings.ToLower(cellAt(row, 0)), "total") {
				continue
			}
			if item, ok := r.rowItem(row, cols); ok {
				items = append(items, item)
			}
		}
	}
	return items
}

func (r LineItemRules) rowItem(row []*string, cols columnIndex) (entity.LineItem, bool) {
	item := entity.LineItem{
		Description: strings.ReplaceAll(cellAt(row, cols.desc), "\n", " "),
	}
	if cols.qty >= 0 {
		if q, ok := ParseQuantity(cellAt(row, cols.qty), r.Money); ok {
			item.Quantity = &q
		}
	}
	if cols.price >= 0 {
		if p, ok := CleanMoney(cellAt(row, cols.price), r.Money); ok {
			item.UnitPrice = &p
		}
	}
	if cols.total >= 0 {
		if t, ok := CleanMoney(cellAt(row, cols.total), r.Money); ok {
			item.LineTotal = &t
		}
	}
	if item.Description == "" || (item.LineTotal == nil && item.Quantity == nil) {
		return entity.LineItem{}, false
	}
	return item, true
}

// FromText matches each trimmed line against the fixed line shape.
func (r LineItemRules) FromText(text string) []entity.LineItem {
	re := r.TextLine
	if re == nil {
		re = TextLinePattern
	}
	var items []entity.LineItem
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(m[2])
		if !strings.Contains(desc, " ") && len(desc) < 3 {
			continue
		}
		qty, okQty := ParseQuantity(m[1], r.Money)
		price, okPrice := CleanMoney(m[3], r.Money)
		total, okTotal := CleanMoney(m[4], r.Money)
		if !okQty || !okPrice || !okTotal {
			continue
		}
		items = append(items, entity.LineItem{
			Description: desc,
			Quantity:    &qty,
			UnitPrice:   &price,
			LineTotal:   &total,
		})
	}
	return items
}

// findColumn returns -1 when no header cell carries a keyword.
func findColumn(header []*string, keywords []string) int {
	for i, cell := range header {
		if cell == nil || *cell == "" {
			continue
		}
		name := strings.ReplaceAll(strings.ToLower(*cell), "\n", " ")
		for _, kw := range keywords {
			if strings.Contains(name, strings.ToLower(kw)) {
				return i
			}
		}
	}
	return -1
}

// cellAt treats missing and nil cells as empty.
func cellAt(row []*string, i int) string {
	if i < 0 || i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(*row[i])
}
