package cart

import (
	"math"
	"testing"

	"kiosk-assistant/internal/menu"
)

func TestNewAction(t *testing.T) {
	cases := []struct {
		id       string
		finalize bool
		want     ActionKind
	}{
		{"", false, NoAction},
		{"b2", false, AddItem},
		{"", true, Finalize},
		{"b2", true, AddItemAndFinalize},
	}
	for _, tc := range cases {
		a := NewAction(tc.id, tc.finalize)
		if a.Kind() != tc.want {
			t.Errorf("NewAction(%q,%v) = %v, want %v", tc.id, tc.finalize, a.Kind(), tc.want)
		}
		id, ok := a.ItemID()
		if ok != (tc.id != "") || id != tc.id {
			t.Errorf("ItemID() = %q,%v for %v", id, ok, a.Kind())
		}
		if a.Finalizes() != tc.finalize {
			t.Errorf("Finalizes() = %v for %v", a.Finalizes(), a.Kind())
		}
	}
	var zero Action
	if zero.Kind() != NoAction {
		t.Fatalf("zero action must be NoAction")
	}
}

func TestApplyAddItem(t *testing.T) {
	c := New()
	cat := menu.Default()
	if !c.Apply(NewAction("b2", false), cat) {
		t.Fatalf("b2 not added")
	}
	lines := c.Lines()
	if len(lines) != 1 || lines[0].Item.ID != "b2" || lines[0].Quantity != 1 {
		t.Fatalf("unexpected lines: %+v", lines)
	}
	if c.Total() != 699 || c.Total().String() != "$6.99" {
		t.Fatalf("total: %v", c.Total())
	}
}

func TestApplyUnknownItemIsNoop(t *testing.T) {
	c := New()
	cat := menu.Default()
	c.Apply(NewAction("b1", false), cat)
	before := c.Snapshot()
	if c.Apply(NewAction("zz-unknown", false), cat) {
		t.Fatalf("unknown id reported as added")
	}
	after := c.Snapshot()
	if len(after.Lines) != len(before.Lines) || after.Total != before.Total {
		t.Fatalf("cart changed: %+v -> %+v", before, after)
	}
}

func TestApplyDuplicateAppendsLine(t *testing.T) {
	c := New()
	cat := menu.Default()
	c.Apply(NewAction("d1", false), cat)
	c.Apply(NewAction("d1", false), cat)
	if c.Len() != 2 {
		t.Fatalf("repeated add must append a second line, got %d lines", c.Len())
	}
	if c.Total() != 398 {
		t.Fatalf("total: %v", c.Total())
	}
}

func TestFinalizeIsNonLatching(t *testing.T) {
	c := New()
	cat := menu.Default()
	c.Apply(NewAction("", true), cat)
	if !c.ReadyToFinalize() {
		t.Fatalf("finalize not set")
	}
	c.Apply(NewAction("", false), cat)
	if c.ReadyToFinalize() {
		t.Fatalf("finalize must follow the latest action only")
	}
	c.Apply(NewAction("p1", true), cat)
	if !c.ReadyToFinalize() || c.Len() != 1 {
		t.Fatalf("add+finalize: ready=%v len=%d", c.ReadyToFinalize(), c.Len())
	}
	c.Apply(NewAction("zz", false), cat)
	if c.ReadyToFinalize() {
		t.Fatalf("unknown add must still clear finalize")
	}
}

func TestTotalMatchesRoundedSum(t *testing.T) {
	cat := menu.Default()
	c := New()
	ids := []string{"b1", "b2", "b3", "p1", "p2", "d1", "d2", "d2", "b2"}
	var floatSum float64
	for _, id := range ids {
		c.Apply(NewAction(id, false), cat)
		it, _ := cat.Lookup(id)
		floatSum += it.Price.Float()
	}
	want := menu.Money(math.Round(floatSum * 100))
	if c.Total() != want {
		t.Fatalf("total %v, want %v", c.Total(), want)
	}
	lines := []Line{{Item: menu.Item{ID: "x", Price: 250}, Quantity: 3}}
	if Total(lines) != 750 {
		t.Fatalf("quantity not applied: %v", Total(lines))
	}
}

func TestClearAndSnapshotCopy(t *testing.T) {
	c := New()
	cat := menu.Default()
	c.Apply(NewAction("b1", true), cat)
	snap := c.Snapshot()
	snap.Lines[0].Quantity = 9
	if c.Lines()[0].Quantity != 1 {
		t.Fatalf("cart mutated through snapshot")
	}
	c.Clear()
	if c.Len() != 0 || c.ReadyToFinalize() || c.Total() != 0 {
		t.Fatalf("clear incomplete")
	}
	if !c.Snapshot().Empty() {
		t.Fatalf("snapshot should be empty")
	}
}
