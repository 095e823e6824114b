package conversation

import "sync"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one transcript message. Seq is assigned on append and never reused.
type Turn struct {
	Role Role
	Text string
	Seq  int
}

// Transcript is the append-only conversation of one kiosk session.
type Transcript struct {
	mu    sync.RWMutex
	turns []Turn
	next  int
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) AppendUser(text string) Turn {
	return t.append(RoleUser, text)
}

func (t *Transcript) AppendAssistant(text string) Turn {
	return t.append(RoleAssistant, text)
}

// AppendDelta appends the delta's turns in order and returns them with their sequence numbers.
func (t *Transcript) AppendDelta(d Delta) []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Turn, 0, len(d.Turns))
	for _, tr := range d.Turns {
		out = append(out, t.appendLocked(tr.Role, tr.Text))
	}
	return out
}

func (t *Transcript) append(role Role, text string) Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.appendLocked(role, text)
}

func (t *Transcript) appendLocked(role Role, text string) Turn {
	tr := Turn{Role: role, Text: text, Seq: t.next}
	t.next++
	t.turns = append(t.turns, tr)
	return tr
}

// Turns returns a copy in transcript order.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// Reset drops all turns. Sequence numbers keep increasing across resets.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = nil
}
