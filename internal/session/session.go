package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type State int

const (
	Unpaired State = iota
	Paired
	NotFound
)

func (s State) String() string {
	switch s {
	case Paired:
		return "paired"
	case NotFound:
		return "not_found"
	default:
		return "unpaired"
	}
}

var (
	ErrNoSession       = errors.New("no active session")
	ErrStaleSession    = errors.New("session is no longer current")
	ErrAlreadyPaired   = errors.New("session already paired")
	ErrSessionNotFound = errors.New("session not found")
)

// Session binds a kiosk terminal to a mobile user through a single token.
type Session struct {
	ID         string
	State      State
	PairedUser string
	CreatedAt  time.Time
}

func (s Session) IsPaired() bool { return s.State == Paired }

// Store holds the current session of one kiosk terminal. Updates are keyed by
// session id so that a late answer for a replaced session is rejected.
type Store struct {
	mu      sync.RWMutex
	current *Session
	newID   func() string
	now     func() time.Time
}

type Option func(*Store)

// WithIDGenerator replaces the uuid generator, mostly for tests.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

func WithClock(f func() time.Time) Option {
	return func(s *Store) { s.now = f }
}

func NewStore(opts ...Option) *Store {
	s := &Store{newID: uuid.NewString, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create replaces the current session with a fresh unpaired one.
func (s *Store) Create() Session {
	sess := Session{ID: s.newID(), State: Unpaired, CreatedAt: s.now()}
	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	return sess
}

// Reset runs stop (cancelling whatever polls the old session) before the new
// session id becomes visible, then creates the new session.
func (s *Store) Reset(stop func()) Session {
	if stop != nil {
		stop()
	}
	return s.Create()
}

func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// MarkPaired records the paired user. It is set exactly once per session.
func (s *Store) MarkPaired(id, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.lookupLocked(id)
	if err != nil {
		return err
	}
	if cur.State == Paired {
		return ErrAlreadyPaired
	}
	if cur.State == NotFound {
		return fmt.Errorf("pair %s: %w", id, ErrSessionNotFound)
	}
	cur.State = Paired
	cur.PairedUser = user
	return nil
}

func (s *Store) MarkNotFound(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.lookupLocked(id)
	if err != nil {
		return err
	}
	if cur.State == Paired {
		return ErrAlreadyPaired
	}
	cur.State = NotFound
	return nil
}

func (s *Store) lookupLocked(id string) (*Session, error) {
	if s.current == nil {
		return nil, ErrNoSession
	}
	if s.current.ID != id {
		return nil, fmt.Errorf("%s: %w", id, ErrStaleSession)
	}
	return s.current, nil
}
