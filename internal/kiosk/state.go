package kiosk

import (
	"errors"

	"kiosk-assistant/internal/cart"
	"kiosk-assistant/internal/conversation"
	"kiosk-assistant/internal/order"
)

// State is the ordering flow of one kiosk session.
type State int

const (
	Unpaired State = iota
	Paired
	Conversing
	ReadyToFinalize
	Submitted
	// NotFound is terminal until the next reset.
	NotFound
)

func (s State) String() string {
	switch s {
	case Paired:
		return "paired"
	case Conversing:
		return "conversing"
	case ReadyToFinalize:
		return "ready_to_finalize"
	case Submitted:
		return "submitted"
	case NotFound:
		return "not_found"
	default:
		return "unpaired"
	}
}

var (
	ErrCreateSession = errors.New("failed to create session")
	ErrNotPaired     = errors.New("session is not paired")
	ErrNotReady      = errors.New("order is not ready to finalize")
	ErrSubmitted     = errors.New("order already submitted, start a new session")
	ErrPlacing       = errors.New("order placement already in progress")
	// ErrStaleResult means the session was reset while the request was in flight;
	// its answer was discarded.
	ErrStaleResult = errors.New("result belongs to a previous session")
)

// View is a consistent copy of everything a screen needs.
type View struct {
	SessionID string
	User      string
	State     State
	Turns     []conversation.Turn
	Cart      cart.Snapshot
	Busy      bool
	Order     *order.Result
}

// Welcome is the greeting shown once the session is paired.
func (v View) Welcome() string {
	if v.User == "" {
		return ""
	}
	return "Welcome " + v.User
}

// Update is what one applied utterance changed.
type Update struct {
	Turns []conversation.Turn
	Added bool
	State State
}
