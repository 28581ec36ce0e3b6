package extract

import (
	"context"

	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

// TextExtractor is Stage 1: file -> page texts and detected tables.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (entity.Document, error)
}

// FieldExtractor is Stage 2: document -> invoice record (rules, per profile).
type FieldExtractor interface {
	Assemble(doc entity.Document) (*entity.Invoice, error)
}
