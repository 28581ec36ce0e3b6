package extract

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"runtime/debug"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

// Assembler composes the field extractors of one profile into an invoice record.
type Assembler struct {
	profile Profile
	logger  *slog.Logger
}

var _ FieldExtractor = (*Assembler)(nil)

func NewAssembler(profile Profile, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	if profile == nil {
		profile = NewEnglishProfile()
	}
	return &Assembler{profile: profile, logger: logger}
}

func (a *Assembler) Profile() Profile { return a.profile }

// Assemble builds one record. Missing fields stay absent; only a failure
// inside an extractor is returned, wrapped in ErrExtraction.
func (a *Assembler) Assemble(doc entity.Document) (inv *entity.Invoice, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Debug("extract.assemble.panic", "source", doc.Source, "stack", string(debug.Stack()))
			inv = nil
			err = common.NewAppError("EXTRACTION_FAILED",
				fmt.Sprintf("extract %s: %v", doc.Source, r), common.ErrExtraction)
		}
	}()

	p := a.profile
	text := doc.Text()
	fields := p.Patterns()

	inv = &entity.Invoice{
		SourceFile: doc.Source,
		LineItems:  []entity.LineItem{},
	}
	inv.InvoiceNumber, _ = Locate(text, fields.InvoiceNumber)
	inv.ExternalReference, _ = Locate(text, fields.ExternalReference)
	inv.PaymentTerms, _ = Locate(text, fields.PaymentTerms)
	inv.InvoiceDate = a.locateDate(text, fields.InvoiceDate)
	inv.DueDate = a.locateDate(text, fields.DueDate)

	parties := p.Parties()
	seller := parties.Seller(text)
	inv.SellerName, inv.SellerAddress, inv.SellerTaxID = seller.Name, seller.Address, seller.TaxID
	buyer := parties.Buyer(text)
	inv.BuyerName, inv.BuyerAddress, inv.BuyerTaxID = buyer.Name, buyer.Address, buyer.TaxID

	fallback, _ := p.DefaultCurrency()
	inv.Currency, _ = ResolveCurrency(text, fallback)

	totals := p.Totals().Extract(text, p.Money())
	inv.NetTotal, inv.TaxAmount, inv.GrossTotal, inv.TaxRate = totals.Net, totals.Tax, totals.Gross, totals.TaxRate

	if items := p.LineItems().Extract(doc); len(items) > 0 {
		inv.LineItems = items
	}
	return inv, nil
}

func (a *Assembler) locateDate(text string, patterns []*regexp.Regexp) *entity.Date {
	token, ok := Locate(text, patterns)
	if !ok {
		return nil
	}
	d, ok := a.profile.Dates().Normalize(token)
	if !ok {
		return nil
	}
	return &d
}

// ExtractBatch assembles docs concurrently with at most workers in flight.
// Output keeps input order; failed documents are logged and left out.
func (a *Assembler) ExtractBatch(ctx context.Context, docs []entity.Document, workers int) ([]*entity.Invoice, []Failure, error) {
	sources := make([]string, len(docs))
	for i := range docs {
		sources[i] = docs[i].Source
	}
	invoices, failures, err := RunOrdered(ctx, sources, workers, a.logger,
		func(_ context.Context, i int) (*entity.Invoice, error) { return a.Assemble(docs[i]) })
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("extract.batch.ok",
		"profile", a.profile.Name(),
		"documents", len(docs),
		"extracted", len(invoices),
		"skipped", len(failures),
	)
	return invoices, failures, nil
}
