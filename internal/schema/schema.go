// Package schema checks invoice JSON supplied by callers before it is decoded.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
)

const (
	invoiceSchemaURL = "invoice.json"
	batchSchemaURL   = "invoices.json"
)

// BuildInvoiceJSONSchema returns the invoice record schema as a generic map.
// Every field is optional; present fields must have the right shape.
func BuildInvoiceJSONSchema() map[string]any {
	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description": nullable("string"),
			"quantity":    nullableNumber(0),
			"unit_price":  decimalProp(),
			"line_total":  decimalProp(),
			"tax_rate":    rateProp(),
		},
	}
	props := map[string]any{
		"invoice_number":     nullable("string"),
		"external_reference": nullable("string"),
		"seller_name":        nullable("string"),
		"seller_address":     nullable("string"),
		"seller_tax_id":      nullable("string"),
		"buyer_name":         nullable("string"),
		"buyer_address":      nullable("string"),
		"buyer_tax_id":       nullable("string"),
		"invoice_date":       dateProp(),
		"due_date":           dateProp(),
		"currency":           nullable("string"),
		"net_total":          decimalProp(),
		"tax_amount":         decimalProp(),
		"tax_rate":           rateProp(),
		"gross_total":        decimalProp(),
		"payment_terms":      nullable("string"),
		"source_file":        nullable("string"),
		"line_items": map[string]any{
			"type":  []string{"array", "null"},
			"items": lineItem,
		},
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

// BuildBatchJSONSchema wraps the invoice schema in a non-empty array.
func BuildBatchJSONSchema() map[string]any {
	return map[string]any{
		"type":     "array",
		"minItems": 1,
		"items":    map[string]any{"$ref": invoiceSchemaURL},
	}
}

func nullable(typ string) map[string]any {
	return map[string]any{"type": []string{typ, "null"}}
}

func nullableNumber(minimum float64) map[string]any {
	return map[string]any{"type": []string{"number", "null"}, "minimum": minimum}
}

func rateProp() map[string]any {
	return map[string]any{"type": []string{"number", "null"}, "minimum": 0, "maximum": 100}
}

// negatives are allowed here; the rule engine reports them
func decimalProp() map[string]any {
	return map[string]any{
		"anyOf": []any{
			map[string]any{"type": "number"},
			map[string]any{"type": "string", "pattern": `^\s*-?\d+(\.\d+)?\s*$`},
			map[string]any{"type": "null"},
		},
	}
}

func dateProp() map[string]any {
	return map[string]any{"type": []string{"string", "null"}, "minLength": 6}
}

var (
	compileOnce sync.Once
	batchSchema *jsonschema.Schema
	itemSchema  *jsonschema.Schema
	compileErr  error
)

func compiled() (*jsonschema.Schema, *jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		for url, m := range map[string]map[string]any{
			invoiceSchemaURL: BuildInvoiceJSONSchema(),
			batchSchemaURL:   BuildBatchJSONSchema(),
		} {
			b, err := json.Marshal(m)
			if err != nil {
				compileErr = fmt.Errorf("marshal schema: %w", err)
				return
			}
			if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
				compileErr = fmt.Errorf("add schema: %w", err)
				return
			}
		}
		if itemSchema, compileErr = compiler.Compile(invoiceSchemaURL); compileErr != nil {
			return
		}
		batchSchema, compileErr = compiler.Compile(batchSchemaURL)
	})
	return batchSchema, itemSchema, compileErr
}

// ValidateBatch checks that data is a non-empty JSON array of invoice objects.
func ValidateBatch(data []byte) error {
	batch, _, err := compiled()
	if err != nil {
		return common.NewAppError("SCHEMA_COMPILE", "invoice schema", errors.Join(common.ErrInternal, err))
	}
	return validate(batch, data)
}

// ValidateInvoice checks a single invoice object.
func ValidateInvoice(data []byte) error {
	_, item, err := compiled()
	if err != nil {
		return common.NewAppError("SCHEMA_COMPILE", "invoice schema", errors.Join(common.ErrInternal, err))
	}
	return validate(item, data)
}

func validate(s *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return common.NewAppError("INVALID_JSON", "body is not valid JSON", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	if err := s.Validate(v); err != nil {
		return common.NewAppError("SCHEMA_VIOLATION", describe(err), common.ErrInvalidInput)
	}
	return nil
}

// describe flattens a jsonschema error into "location: message" pairs.
func describe(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var parts []string
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		parts = append(parts, loc+": "+e.Error)
	}
	if len(parts) == 0 {
		return ve.Error()
	}
	return strings.Join(parts, "; ")
}
