package handoff_test

import (
	"context"
	"errors"
	"testing"

	"github.com/JustIkra/tg-restorants-bot/internal/cart"
	"github.com/JustIkra/tg-restorants-bot/internal/handoff"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := handoff.NewMemoryStore()

	c := cart.Cart{}.Add(12, cart.Options{"size": "L"}).Add(12, nil).Add(30, nil)
	in := handoff.Handoff{CafeID: 3, OrderDate: "2024-05-21", Cart: c}

	if err := handoff.Save(ctx, store, "sess-1", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, _ := store.Get(ctx, "sess-1")
	for _, k := range []string{handoff.KeyCart, handoff.KeyActiveCafeID, handoff.KeySelectedDate} {
		if _, ok := raw[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
	if raw[handoff.KeyActiveCafeID] != "3" || raw[handoff.KeySelectedDate] != "2024-05-21" {
		t.Errorf("plain values: got %v", raw)
	}

	out, err := handoff.Load(ctx, store, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.CafeID != 3 || out.OrderDate != "2024-05-21" {
		t.Errorf("got cafe %d date %s", out.CafeID, out.OrderDate)
	}
	if out.Cart[12].Quantity != 2 || out.Cart[12].Options["size"] != "L" || out.Cart[30].Quantity != 1 {
		t.Errorf("cart: got %+v", out.Cart)
	}
}

func TestSave_Overwrites(t *testing.T) {
	ctx := context.Background()
	store := handoff.NewMemoryStore()

	_ = handoff.Save(ctx, store, "s", handoff.Handoff{CafeID: 1, OrderDate: "2024-05-20", Cart: cart.Cart{}.Add(1, nil)})
	_ = handoff.Save(ctx, store, "s", handoff.Handoff{CafeID: 2, OrderDate: "2024-05-22", Cart: cart.Cart{}.Add(9, nil)})

	out, err := handoff.Load(ctx, store, "s")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.CafeID != 2 || out.OrderDate != "2024-05-22" {
		t.Errorf("got cafe %d date %s", out.CafeID, out.OrderDate)
	}
	if _, ok := out.Cart[1]; ok {
		t.Error("previous cart leaked into overwrite")
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := handoff.Load(context.Background(), handoff.NewMemoryStore(), "nope")
	if !errors.Is(err, handoff.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		values map[string]string
	}{
		{"bad cart", map[string]string{handoff.KeyCart: "{", handoff.KeyActiveCafeID: "1", handoff.KeySelectedDate: "2024-05-20"}},
		{"bad cafe", map[string]string{handoff.KeyCart: "{}", handoff.KeyActiveCafeID: "x", handoff.KeySelectedDate: "2024-05-20"}},
		{"bad date", map[string]string{handoff.KeyCart: "{}", handoff.KeyActiveCafeID: "1", handoff.KeySelectedDate: "20.05"}},
		{"zero quantity", map[string]string{handoff.KeyCart: `{"5":{"quantity":0}}`, handoff.KeyActiveCafeID: "1", handoff.KeySelectedDate: "2024-05-20"}},
		{"negative quantity", map[string]string{handoff.KeyCart: `{"5":{"quantity":2},"6":{"quantity":-1}}`, handoff.KeyActiveCafeID: "1", handoff.KeySelectedDate: "2024-05-20"}},
		{"bad extras", map[string]string{handoff.KeyCart: "{}", handoff.KeyActiveCafeID: "1", handoff.KeySelectedDate: "2024-05-20", handoff.KeyExtras: "[x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := handoff.NewMemoryStore()
			_ = store.Put(ctx, "s", tt.values)
			if _, err := handoff.Load(ctx, store, "s"); !errors.Is(err, handoff.ErrCorrupt) {
				t.Errorf("got %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestSaveLoad_Extras(t *testing.T) {
	ctx := context.Background()
	store := handoff.NewMemoryStore()

	c := cart.Cart{}.Add(100, nil).Add(101, nil)
	if err := handoff.Save(ctx, store, "s", handoff.Handoff{CafeID: 1, OrderDate: "2024-05-20", Cart: c, Extras: []cart.DishID{101}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := handoff.Load(ctx, store, "s")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !out.IsExtra(101) || out.IsExtra(100) {
		t.Errorf("extras: got %v", out.Extras)
	}
}

func TestLoad_WithoutExtrasKey(t *testing.T) {
	ctx := context.Background()
	store := handoff.NewMemoryStore()
	_ = store.Put(ctx, "s", map[string]string{
		handoff.KeyCart:         `{"5":{"quantity":1}}`,
		handoff.KeyActiveCafeID: "1",
		handoff.KeySelectedDate: "2024-05-20",
	})

	out, err := handoff.Load(ctx, store, "s")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out.Extras) != 0 || out.Cart[5].Quantity != 1 {
		t.Errorf("got %+v", out)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := handoff.NewMemoryStore()
	_ = handoff.Save(ctx, store, "s", handoff.Handoff{CafeID: 1, OrderDate: "2024-05-20"})

	if err := handoff.Clear(ctx, store, "s"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := handoff.Load(ctx, store, "s"); !errors.Is(err, handoff.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
