package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const englishHeaderDoc = `ACME Supplies Ltd
12 Market Street
Springfield IL 62701
Phone 555-0100
Fax 555-0101
INVOICE # INV-1001
DATE: 01/15/2024
BILL TO:
Globex Corporation
42 Elm Road
Shelbyville

DESCRIPTION QTY PRICE TOTAL
`

func TestHeaderTriggerParties_English(t *testing.T) {
	parties := NewEnglishProfile().Parties()

	seller := parties.Seller(englishHeaderDoc)
	wantSeller := Party{
		Name:    "ACME Supplies Ltd",
		Address: "12 Market Street Springfield IL 62701 Phone 555-0100",
	}
	if diff := cmp.Diff(wantSeller, seller); diff != "" {
		t.Fatalf("seller mismatch (-want +got):\n%s", diff)
	}

	buyer := parties.Buyer(englishHeaderDoc)
	wantBuyer := Party{Name: "Globex Corporation", Address: "42 Elm Road Shelbyville"}
	if diff := cmp.Diff(wantBuyer, buyer); diff != "" {
		t.Fatalf("buyer mismatch (-want +got):\n%s", diff)
	}
}

func TestHeaderScan_SkipsTitleAndFiltersInvoiceNumber(t *testing.T) {
	text := "INVOICE\n\nBioplex\nwe love chemistry INVOICE # BPX-1\n5 Rue Bader\nDATE: 23.05.2021\n"
	got := englishHeader.Scan(text)
	want := Party{Name: "Bioplex", Address: "5 Rue Bader"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTriggerScan_SameLineCandidate(t *testing.T) {
	text := "Bill To: Initech LLC\n500 Oak Ave\nInvoice # 7\n"
	got := NewEnglishProfile().Parties().Buyer(text)
	want := Party{Name: "Initech LLC", Address: "500 Oak Ave"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTriggerScan_NoTriggerLeavesBuyerAbsent(t *testing.T) {
	got := NewEnglishProfile().Parties().Buyer("Hello\nWorld\n")
	if got != (Party{}) {
		t.Fatalf("expected zero party, got %+v", got)
	}
}

func TestTriggerScan_WindowIsBounded(t *testing.T) {
	scan := TriggerScan{
		Trigger: MustCompilePatterns(`BILL TO`)[0],
		Window:  10,
	}
	got := scan.Scan("BILL TO\nShort\nThis line is past the window\n")
	if got.Name != "Short" || got.Address != "This" {
		t.Fatalf("got %+v", got)
	}
}

func TestHeaderScan_TaxID(t *testing.T) {
	text := "ACME Supplies Ltd\nVAT ID: GB123456789\n1 High St\nINVOICE # 1\n"
	got := NewEnglishProfile().Parties().Seller(text)
	if got.TaxID != "GB123456789" {
		t.Fatalf("tax id = %q", got.TaxID)
	}
}

const europeanPartyDoc = `INVOICE
Seller:
Müller Handels GmbH
Hauptstraße 5, 10115 Berlin
VAT ID: DE123456789

Buyer: Dupont SARL
12 Rue de Lyon, Paris

Invoice No: RE-2024-17
`

func TestLabelledParties_European(t *testing.T) {
	parties := NewEuropeanProfile().Parties()

	seller := parties.Seller(europeanPartyDoc)
	if seller.Name != "Müller Handels GmbH" || seller.TaxID != "DE123456789" {
		t.Fatalf("seller = %+v", seller)
	}
	buyer := parties.Buyer(europeanPartyDoc)
	want := Party{Name: "Dupont SARL", Address: "12 Rue de Lyon, Paris"}
	if diff := cmp.Diff(want, buyer); diff != "" {
		t.Fatalf("buyer mismatch (-want +got):\n%s", diff)
	}
}

func TestLabelledParties_SellerFallsBackToHeader(t *testing.T) {
	text := "Nordwind AG\nSeestrasse 1\nINVOICE # 9\nCustomer: Fjord AS\n"
	parties := NewEuropeanProfile().Parties()
	if got := parties.Seller(text); got.Name != "Nordwind AG" {
		t.Fatalf("seller = %+v", got)
	}
	if got := parties.Buyer(text); got.Name != "Fjord AS" {
		t.Fatalf("buyer = %+v", got)
	}
}
