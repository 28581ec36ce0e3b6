package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

func TestRunOrdered(t *testing.T) {
	sources := []string{"a", "b", "c", "d"}
	invoices, failures, err := RunOrdered(context.Background(), sources, 3, quietLogger(),
		func(_ context.Context, i int) (*entity.Invoice, error) {
			if sources[i] == "b" {
				return nil, errors.New("broken")
			}
			return &entity.Invoice{InvoiceNumber: sources[i]}, nil
		})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, inv := range invoices {
		got = append(got, inv.InvoiceNumber)
	}
	if diff := cmp.Diff([]string{"a", "c", "d"}, got); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if len(failures) != 1 || failures[0].Source != "b" {
		t.Errorf("failures = %+v", failures)
	}
}

func TestRunOrdered_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := RunOrdered(ctx, []string{"a"}, 1, nil, func(context.Context, int) (*entity.Invoice, error) {
		return &entity.Invoice{}, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
