package ocr

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joseph-ayodele/invoice-qc/constants"
	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

// extractText reads a plain-text rendering; form feeds separate pages.
func (e *Extractor) extractText(path string) (Result, error) {
	res := Result{SourceType: constants.TEXT, Method: "plain-text"}
	b, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	raw := strings.Split(strings.TrimSuffix(string(b), "\f"), "\f")
	if e.cfg.MaxPages > 0 && len(raw) > e.cfg.MaxPages {
		raw = raw[:e.cfg.MaxPages]
	}
	for _, p := range raw {
		res.Document.Pages = append(res.Document.Pages, Normalize(p))
		res.Document.LayoutPages = append(res.Document.LayoutPages, NormalizeLayout(p))
	}
	return res, nil
}

// extractJSON reads a document already split into pages and tables by an
// upstream converter, in the entity.Document wire shape.
func (e *Extractor) extractJSON(path string) (Result, error) {
	res := Result{SourceType: constants.JSON, Method: "json"}
	b, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	var doc entity.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return res, common.NewAppError("INVALID_DOCUMENT", path, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	if len(doc.Tables) > len(doc.Pages) && len(doc.Pages) > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d table pages for %d text pages", len(doc.Tables), len(doc.Pages)))
	}
	for i := range doc.Pages {
		doc.Pages[i] = Normalize(doc.Pages[i])
	}
	res.Document = doc
	return res, nil
}
