package cart

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DishID identifies a menu item in the cafe's catalog.
type DishID int64

// Options maps an option name to the chosen value (e.g. "size" -> "L").
// A nil Options means the caller did not supply a selection.
type Options map[string]string

// Line is one dish in the cart. Quantity is always >= 1.
type Line struct {
	Quantity int     `json:"quantity"`
	Options  Options `json:"options,omitempty"`
}

// Cart holds the per-dish selections of an ordering session.
// Operations never mutate the receiver; they return the updated cart.
type Cart map[DishID]Line

// PriceLookup resolves a dish price from the cafe catalog.
// ok is false when the catalog does not (yet) know the dish.
type PriceLookup func(id DishID) (price decimal.Decimal, ok bool)

// Item is a cart line flattened for order submission.
type Item struct {
	DishID   DishID
	Quantity int
	Options  Options
}

// Add puts one more unit of id into the cart. Stored options are replaced
// only when opts is non-nil, so an options-less add keeps an earlier
// customization.
func (c Cart) Add(id DishID, opts Options) Cart {
	next := c.clone()
	line, ok := next[id]
	if !ok {
		next[id] = Line{Quantity: 1, Options: opts.clone()}
		return next
	}
	line.Quantity++
	if opts != nil {
		line.Options = opts.clone()
	}
	next[id] = line
	return next
}

// Remove takes one unit of id out of the cart, dropping the line when it
// reaches zero. Removing an absent dish returns the cart unchanged.
func (c Cart) Remove(id DishID) Cart {
	line, ok := c[id]
	if !ok {
		return c
	}
	next := c.clone()
	if line.Quantity > 1 {
		line.Quantity--
		next[id] = line
	} else {
		delete(next, id)
	}
	return next
}

// TotalItems returns the sum of all quantities.
func (c Cart) TotalItems() int {
	total := 0
	for _, line := range c {
		total += line.Quantity
	}
	return total
}

// TotalPrice sums quantity x price over the cart. Dishes the catalog cannot
// resolve contribute zero.
func (c Cart) TotalPrice(lookup PriceLookup) decimal.Decimal {
	total := decimal.Zero
	if lookup == nil {
		return total
	}
	for id, line := range c {
		price, ok := lookup(id)
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// Items lists the cart lines in ascending dish order.
func (c Cart) Items() []Item {
	items := make([]Item, 0, len(c))
	for id, line := range c {
		items = append(items, Item{DishID: id, Quantity: line.Quantity, Options: line.Options.clone()})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DishID < items[j].DishID })
	return items
}

func (c Cart) clone() Cart {
	next := make(Cart, len(c)+1)
	for id, line := range c {
		next[id] = line
	}
	return next
}

func (o Options) clone() Options {
	if o == nil {
		return nil
	}
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}
