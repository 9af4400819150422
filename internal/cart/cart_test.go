package cart_test

import (
	"math/rand"
	"testing"

	"github.com/JustIkra/tg-restorants-bot/internal/cart"
	"github.com/shopspring/decimal"
)

func TestAdd_NewDish(t *testing.T) {
	c := cart.Cart{}.Add(7, nil)

	line, ok := c[7]
	if !ok {
		t.Fatal("expected dish 7 in cart")
	}
	if line.Quantity != 1 {
		t.Errorf("quantity: got %d, want 1", line.Quantity)
	}
	if line.Options != nil {
		t.Errorf("options: got %v, want nil", line.Options)
	}
}

func TestAdd_DoesNotMutateReceiver(t *testing.T) {
	before := cart.Cart{}.Add(1, nil)
	after := before.Add(1, cart.Options{"size": "L"})

	if before[1].Quantity != 1 {
		t.Errorf("receiver quantity changed: got %d, want 1", before[1].Quantity)
	}
	if before[1].Options != nil {
		t.Errorf("receiver options changed: got %v", before[1].Options)
	}
	if after[1].Quantity != 2 {
		t.Errorf("result quantity: got %d, want 2", after[1].Quantity)
	}
}

func TestAdd_OptionsRetention(t *testing.T) {
	c := cart.Cart{}
	c = c.Add(3, nil)
	c = c.Add(3, cart.Options{"size": "L"})
	c = c.Add(3, nil)

	line := c[3]
	if line.Quantity != 3 {
		t.Errorf("quantity: got %d, want 3", line.Quantity)
	}
	if line.Options["size"] != "L" || len(line.Options) != 1 {
		t.Errorf("options: got %v, want map[size:L]", line.Options)
	}
}

func TestAdd_ExplicitOptionsReplace(t *testing.T) {
	c := cart.Cart{}
	c = c.Add(3, cart.Options{"size": "L", "sauce": "bbq"})
	c = c.Add(3, cart.Options{"size": "M"})

	if got := c[3].Options; len(got) != 1 || got["size"] != "M" {
		t.Errorf("options: got %v, want map[size:M]", got)
	}

	// An empty, non-nil selection is still an explicit selection.
	c = c.Add(3, cart.Options{})
	if got := c[3].Options; got == nil || len(got) != 0 {
		t.Errorf("options: got %v, want empty map", got)
	}
}

func TestAdd_CallerMapIsCopied(t *testing.T) {
	opts := cart.Options{"size": "L"}
	c := cart.Cart{}.Add(1, opts)
	opts["size"] = "XL"

	if c[1].Options["size"] != "L" {
		t.Errorf("stored options aliased caller map: got %v", c[1].Options)
	}
}

func TestRemove(t *testing.T) {
	c := cart.Cart{}.Add(5, nil).Add(5, nil)

	c = c.Remove(5)
	if c[5].Quantity != 1 {
		t.Fatalf("quantity after first remove: got %d, want 1", c[5].Quantity)
	}

	c = c.Remove(5)
	if _, ok := c[5]; ok {
		t.Fatal("expected line to be deleted at quantity 0")
	}
}

func TestRemove_AbsentIsNoop(t *testing.T) {
	c := cart.Cart{}.Add(1, cart.Options{"size": "S"})
	got := c.Remove(99)

	if len(got) != 1 || got[1].Quantity != 1 || got[1].Options["size"] != "S" {
		t.Errorf("cart changed on absent remove: got %v", got)
	}

	var empty cart.Cart
	if got := empty.Remove(1); len(got) != 0 {
		t.Errorf("empty cart: got %v", got)
	}
}

func TestTotalItems(t *testing.T) {
	if got := (cart.Cart{}).TotalItems(); got != 0 {
		t.Errorf("empty cart: got %d, want 0", got)
	}

	c := cart.Cart{}.Add(1, nil).Add(1, nil).Add(2, nil)
	if got := c.TotalItems(); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestTotalPrice(t *testing.T) {
	prices := map[cart.DishID]decimal.Decimal{
		1: decimal.RequireFromString("250.50"),
		2: decimal.RequireFromString("100"),
	}
	lookup := func(id cart.DishID) (decimal.Decimal, bool) {
		p, ok := prices[id]
		return p, ok
	}

	c := cart.Cart{}.Add(1, nil).Add(1, nil).Add(2, nil)
	want := decimal.RequireFromString("601.00")
	if got := c.TotalPrice(lookup); !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestTotalPrice_CatalogMissContributesZero(t *testing.T) {
	lookup := func(id cart.DishID) (decimal.Decimal, bool) {
		if id == 1 {
			return decimal.NewFromInt(200), true
		}
		return decimal.Zero, false
	}

	c := cart.Cart{}.Add(1, nil).Add(42, nil).Add(42, nil)
	if got := c.TotalPrice(lookup); !got.Equal(decimal.NewFromInt(200)) {
		t.Errorf("got %s, want 200", got)
	}
	if got := c.TotalPrice(nil); !got.IsZero() {
		t.Errorf("nil lookup: got %s, want 0", got)
	}
}

func TestItems_SortedByDish(t *testing.T) {
	c := cart.Cart{}.Add(9, nil).Add(2, cart.Options{"bread": "rye"}).Add(5, nil).Add(2, nil)

	items := c.Items()
	if len(items) != 3 {
		t.Fatalf("len: got %d, want 3", len(items))
	}
	wantIDs := []cart.DishID{2, 5, 9}
	for i, id := range wantIDs {
		if items[i].DishID != id {
			t.Errorf("items[%d]: got dish %d, want %d", i, items[i].DishID, id)
		}
	}
	if items[0].Quantity != 2 || items[0].Options["bread"] != "rye" {
		t.Errorf("items[0]: got %+v", items[0])
	}
}

func TestRandomSequences_QuantitiesStayPositive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		c := cart.Cart{}
		expected := map[cart.DishID]int{}
		for step := 0; step < 50; step++ {
			id := cart.DishID(rng.Intn(5))
			if rng.Intn(2) == 0 {
				c = c.Add(id, nil)
				expected[id]++
			} else {
				c = c.Remove(id)
				if expected[id] > 0 {
					expected[id]--
				}
			}
		}

		sum := 0
		for id, line := range c {
			if line.Quantity < 1 {
				t.Fatalf("run %d: dish %d has quantity %d", run, id, line.Quantity)
			}
			if line.Quantity != expected[id] {
				t.Fatalf("run %d: dish %d quantity %d, want %d", run, id, line.Quantity, expected[id])
			}
			sum += line.Quantity
		}
		if c.TotalItems() != sum {
			t.Fatalf("run %d: TotalItems %d, sum %d", run, c.TotalItems(), sum)
		}
		for id, n := range expected {
			if _, ok := c[id]; n == 0 && ok {
				t.Fatalf("run %d: dish %d should have been removed", run, id)
			}
		}
	}
}
