package cart

import (
	"kiosk-assistant/internal/menu"
)

// Catalog resolves item ids. *menu.Catalog implements it.
type Catalog interface {
	Lookup(id string) (menu.Item, bool)
}

type Line struct {
	Item     menu.Item
	Quantity int
}

func (l Line) Subtotal() menu.Money {
	return l.Item.Price * menu.Money(l.Quantity)
}

// Cart is the ordered list of lines built from assistant actions.
// It is not safe for concurrent use; the owning kiosk context serializes access.
type Cart struct {
	lines []Line
	ready bool
}

func New() *Cart { return &Cart{} }

// Apply mutates the cart for one action and reports whether a line was added.
// Each resolvable add appends its own line with quantity 1; unknown ids are
// ignored. The finalize flag reflects only the latest action.
func (c *Cart) Apply(a Action, catalog Catalog) bool {
	added := false
	if id, ok := a.ItemID(); ok {
		if item, found := catalog.Lookup(id); found {
			c.lines = append(c.lines, Line{Item: item, Quantity: 1})
			added = true
		}
	}
	c.ready = a.Finalizes()
	return added
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) Total() menu.Money {
	return Total(c.lines)
}

func (c *Cart) ReadyToFinalize() bool { return c.ready }

func (c *Cart) Clear() {
	c.lines = nil
	c.ready = false
}

func (c *Cart) Snapshot() Snapshot {
	return Snapshot{Lines: c.Lines(), Total: c.Total(), ReadyToFinalize: c.ready}
}

// Snapshot is an immutable copy of the cart handed to views and the order submitter.
type Snapshot struct {
	Lines           []Line
	Total           menu.Money
	ReadyToFinalize bool
}

func (s Snapshot) Empty() bool { return len(s.Lines) == 0 }

// Total sums price times quantity over lines.
func Total(lines []Line) menu.Money {
	var sum menu.Money
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}
