package cart

type ActionKind int

const (
	NoAction ActionKind = iota
	AddItem
	Finalize
	AddItemAndFinalize
)

func (k ActionKind) String() string {
	switch k {
	case AddItem:
		return "add_item"
	case Finalize:
		return "finalize"
	case AddItemAndFinalize:
		return "add_item_and_finalize"
	default:
		return "no_action"
	}
}

// Action is the structured instruction riding alongside an assistant reply.
// The zero value is NoAction.
type Action struct {
	kind   ActionKind
	itemID string
}

// NewAction builds the variant for an optional item id and finalize marker.
func NewAction(itemID string, finalize bool) Action {
	switch {
	case itemID != "" && finalize:
		return Action{kind: AddItemAndFinalize, itemID: itemID}
	case itemID != "":
		return Action{kind: AddItem, itemID: itemID}
	case finalize:
		return Action{kind: Finalize}
	default:
		return Action{}
	}
}

func (a Action) Kind() ActionKind { return a.kind }

// ItemID returns the item to add, if any.
func (a Action) ItemID() (string, bool) {
	return a.itemID, a.kind == AddItem || a.kind == AddItemAndFinalize
}

func (a Action) Finalizes() bool {
	return a.kind == Finalize || a.kind == AddItemAndFinalize
}
