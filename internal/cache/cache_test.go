package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
	"github.com/joseph-ayodele/invoice-qc/internal/entity"
)

func TestKey(t *testing.T) {
	if got := Key("abc", "english"); got != "invoice-qc:extract:english:abc" {
		t.Errorf("Key = %q", got)
	}
	if Key("abc", "english") == Key("abc", "european") {
		t.Error("profiles must not share keys")
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)

	gross := decimal.RequireFromString("110.00")
	d := entity.NewDate(2024, time.March, 1)
	in := &entity.Invoice{
		InvoiceNumber: "INV-1",
		InvoiceDate:   &d,
		GrossTotal:    &gross,
		LineItems:     []entity.LineItem{{Description: "Widget"}},
	}
	if err := m.Set(ctx, "k", in); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := m.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got == in {
		t.Fatal("cache returned the stored pointer")
	}
	opt := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(in, got, opt); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if _, ok, _ := m.Get(ctx, "missing"); ok {
		t.Error("unexpected hit")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "k", &entity.Invoice{InvoiceNumber: "A"}); err != nil {
		t.Fatal(err)
	}
	now = now.Add(59 * time.Second)
	if _, ok, _ := m.Get(ctx, "k"); !ok {
		t.Fatal("expired too early")
	}
	now = now.Add(time.Second)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("entry should have expired")
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d after expiry", m.Len())
	}
}

func TestMemorySetSweepsExpired(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for _, k := range []string{"a", "b"} {
		if err := m.Set(ctx, k, &entity.Invoice{InvoiceNumber: k}); err != nil {
			t.Fatal(err)
		}
	}
	now = now.Add(2 * time.Minute)
	if err := m.Set(ctx, "c", &entity.Invoice{InvoiceNumber: "c"}); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1 after unread keys expired", m.Len())
	}
}

func TestMemoryEvictsWhenFull(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	m.maxEntries = 2
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for _, k := range []string{"a", "b", "c"} {
		if err := m.Set(ctx, k, &entity.Invoice{InvoiceNumber: k}); err != nil {
			t.Fatal(err)
		}
		now = now.Add(time.Second)
	}
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	for _, k := range []string{"b", "c"} {
		if _, ok, _ := m.Get(ctx, k); !ok {
			t.Errorf("%s missing", k)
		}
	}
	// overwriting an existing key never evicts
	if err := m.Set(ctx, "c", &entity.Invoice{InvoiceNumber: "c2"}); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := m.Get(ctx, "b"); !ok {
		t.Error("overwrite evicted another entry")
	}
}

func TestNewDefaultsToMemory(t *testing.T) {
	c, err := New(context.Background(), common.CacheConfig{TTL: time.Minute}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*Memory); !ok {
		t.Fatalf("got %T, want *Memory", c)
	}
}
