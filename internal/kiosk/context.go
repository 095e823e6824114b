// Package kiosk ties session pairing, the conversation and the cart of one
// kiosk terminal together and drives the ordering state machine.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"kiosk-assistant/internal/audio"
	"kiosk-assistant/internal/cart"
	"kiosk-assistant/internal/conversation"
	"kiosk-assistant/internal/kioskapi"
	"kiosk-assistant/internal/logger"
	"kiosk-assistant/internal/order"
	"kiosk-assistant/internal/pairing"
	"kiosk-assistant/internal/session"
)

// SessionService creates sessions and reports their pairing status.
// *kioskapi.Client implements it.
type SessionService interface {
	CreateSession(ctx context.Context, sessionID string) error
	SessionStatus(ctx context.Context, sessionID string) (kioskapi.StatusResult, error)
}

// Conversation turns one utterance into a delta. *conversation.Engine implements it.
type Conversation interface {
	Submit(ctx context.Context, sessionID string, clip audio.Clip) (conversation.Delta, error)
	Busy() bool
}

// OrderPlacer is implemented by *order.Submitter.
type OrderPlacer interface {
	Place(ctx context.Context, sessionID string, snap cart.Snapshot, user string) (order.Result, error)
}

type Option func(*Context)

// WithStore replaces the session store, mostly to control ids in tests.
func WithStore(s *session.Store) Option {
	return func(c *Context) { c.store = s }
}

// Context is the session-scoped state of one kiosk terminal. All mutation of
// the transcript and the cart goes through it.
type Context struct {
	sessions SessionService
	conv     Conversation
	catalog  cart.Catalog
	orders   OrderPlacer
	log      logrus.FieldLogger

	store  *session.Store
	poller *pairing.Poller

	// base outlives individual calls so polling survives the request that started it.
	base       context.Context
	cancelBase context.CancelFunc

	// lifecycle serializes Start and Reset.
	lifecycle sync.Mutex

	mu         sync.Mutex
	turn       *sync.Cond
	epoch      uint64
	nextTicket uint64
	serving    uint64
	transcript *conversation.Transcript
	cart       *cart.Cart
	conversing bool
	placing    bool
	submitted  *order.Result
}

func New(sessions SessionService, conv Conversation, catalog cart.Catalog, orders OrderPlacer,
	pollInterval time.Duration, log logrus.FieldLogger, opts ...Option) *Context {
	base, cancel := context.WithCancel(context.Background())
	c := &Context{
		sessions:   sessions,
		conv:       conv,
		catalog:    catalog,
		orders:     orders,
		log:        logger.OrDiscard(log),
		base:       base,
		cancelBase: cancel,
		transcript: conversation.NewTranscript(),
		cart:       cart.New(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.store == nil {
		c.store = session.NewStore()
	}
	c.turn = sync.NewCond(&c.mu)
	c.poller = pairing.New(sessions, c.store, pollInterval, c.log)
	return c
}

// Start creates the first session unless one already exists. A session whose
// creation failed is replaced.
func (c *Context) Start(ctx context.Context) (session.Session, error) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if cur, ok := c.store.Current(); ok && (cur.State != session.Unpaired || c.poller.Active() != nil) {
		return cur, nil
	}
	return c.newSessionLocked(ctx)
}

// Reset discards the conversation and the cart, stops polling the old session
// and creates a new one. Answers still in flight for the old session are
// discarded when they arrive.
func (c *Context) Reset(ctx context.Context) (session.Session, error) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	return c.newSessionLocked(ctx)
}

func (c *Context) newSessionLocked(ctx context.Context) (session.Session, error) {
	c.mu.Lock()
	c.epoch++
	c.nextTicket, c.serving = 0, 0
	c.transcript.Reset()
	c.cart.Clear()
	c.conversing = false
	c.placing = false
	c.submitted = nil
	// the new id becomes visible together with the epoch bump
	sess := c.store.Reset(c.poller.Stop)
	c.turn.Broadcast()
	c.mu.Unlock()

	log := c.log.WithField("session_id", sess.ID)

	if err := c.sessions.CreateSession(ctx, sess.ID); err != nil {
		log.WithError(err).Error("session creation failed")
		return sess, fmt.Errorf("%w: %w", ErrCreateSession, err)
	}
	log.Info("session created")
	c.poller.Start(c.base, sess.ID)
	return sess, nil
}

// WaitPaired blocks until the current session is paired, reported missing,
// replaced by a reset, or ctx is done.
func (c *Context) WaitPaired(ctx context.Context) (session.Session, error) {
	for {
		cur, ok := c.store.Current()
		if !ok {
			return session.Session{}, session.ErrNoSession
		}
		switch cur.State {
		case session.Paired:
			return cur, nil
		case session.NotFound:
			return cur, session.ErrSessionNotFound
		}

		h := c.poller.Active()
		if h == nil || h.SessionID() != cur.ID {
			// creation failed or the poll has not been started yet
			return cur, ErrNotPaired
		}
		select {
		case <-ctx.Done():
			return cur, ctx.Err()
		case <-h.Done():
		}
		if h.Outcome().Kind == pairing.Cancelled {
			return cur, fmt.Errorf("wait paired: %w", session.ErrStaleSession)
		}
		if after, ok := c.store.Current(); ok && after.ID == cur.ID && after.State == session.Unpaired {
			// the poll ended without the store taking the outcome
			return after, ErrNotPaired
		}
	}
}

// SubmitUtterance sends clip to the assistant and applies the answer. Answers
// are applied in the order the utterances were submitted, whatever order the
// replies arrive in.
func (c *Context) SubmitUtterance(ctx context.Context, clip audio.Clip) (Update, error) {
	c.mu.Lock()
	cur, ok := c.store.Current()
	if !ok || cur.State != session.Paired {
		c.mu.Unlock()
		return Update{}, ErrNotPaired
	}
	if c.submitted != nil {
		c.mu.Unlock()
		return Update{}, ErrSubmitted
	}
	epoch := c.epoch
	ticket := c.nextTicket
	c.nextTicket++
	c.mu.Unlock()

	log := c.log.WithFields(logrus.Fields{"session_id": cur.ID, "ticket": ticket})
	delta, err := c.conv.Submit(ctx, cur.ID, clip)

	c.mu.Lock()
	defer c.mu.Unlock()
	for c.epoch == epoch && c.serving != ticket {
		c.turn.Wait()
	}
	if c.epoch != epoch {
		log.Info("discarding reply for a previous session")
		return Update{}, ErrStaleResult
	}
	defer func() {
		c.serving++
		c.turn.Broadcast()
	}()
	if now, ok := c.store.Current(); !ok || now.ID != cur.ID {
		log.Info("discarding reply for a replaced session")
		return Update{}, ErrStaleResult
	}

	if err != nil {
		return Update{State: c.stateLocked()}, err
	}
	if c.submitted != nil {
		log.Info("discarding reply received after order submission")
		return Update{State: c.stateLocked()}, ErrSubmitted
	}

	turns := c.transcript.AppendDelta(delta)
	added := c.cart.Apply(delta.Action, c.catalog)
	if id, ok := delta.Action.ItemID(); ok && !added {
		log.WithField("item_id", id).Warn("assistant referenced an unknown menu item")
	}
	c.conversing = true
	return Update{Turns: turns, Added: added, State: c.stateLocked()}, nil
}

// PlaceOrder submits the cart once the assistant has signalled finalization.
// On failure the cart is left as it was and the call may be retried.
func (c *Context) PlaceOrder(ctx context.Context) (order.Result, error) {
	c.mu.Lock()
	cur, ok := c.store.Current()
	switch {
	case !ok || cur.State != session.Paired:
		c.mu.Unlock()
		return order.Result{}, ErrNotPaired
	case c.submitted != nil:
		c.mu.Unlock()
		return order.Result{}, ErrSubmitted
	case c.placing:
		c.mu.Unlock()
		return order.Result{}, ErrPlacing
	case !c.cart.ReadyToFinalize():
		c.mu.Unlock()
		return order.Result{}, ErrNotReady
	}
	c.placing = true
	epoch := c.epoch
	snap := c.cart.Snapshot()
	c.mu.Unlock()

	res, err := c.orders.Place(ctx, cur.ID, snap, cur.PairedUser)

	c.mu.Lock()
	defer c.mu.Unlock()
	if now, ok := c.store.Current(); c.epoch != epoch || !ok || now.ID != cur.ID {
		if err == nil {
			c.log.WithField("session_id", cur.ID).Warn("order placed for a session that was reset meanwhile")
		}
		return order.Result{}, ErrStaleResult
	}
	c.placing = false
	if err != nil {
		return order.Result{}, err
	}
	c.submitted = &res
	return res, nil
}

// Snapshot returns a consistent view of the current session.
func (c *Context) Snapshot() View {
	cur, _ := c.store.Current()

	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		SessionID: cur.ID,
		User:      cur.PairedUser,
		State:     c.stateForLocked(cur),
		Turns:     c.transcript.Turns(),
		Cart:      c.cart.Snapshot(),
		Busy:      c.conv.Busy(),
	}
	if c.submitted != nil {
		res := *c.submitted
		v.Order = &res
	}
	return v
}

func (c *Context) State() State {
	return c.Snapshot().State
}

// Close stops polling. The context cannot be used afterwards.
func (c *Context) Close() {
	c.poller.Stop()
	c.cancelBase()
}

func (c *Context) stateLocked() State {
	cur, _ := c.store.Current()
	return c.stateForLocked(cur)
}

func (c *Context) stateForLocked(cur session.Session) State {
	switch {
	case cur.State == session.NotFound:
		return NotFound
	case cur.State != session.Paired:
		return Unpaired
	case c.submitted != nil:
		return Submitted
	case c.cart.ReadyToFinalize():
		return ReadyToFinalize
	case c.conversing:
		return Conversing
	default:
		return Paired
	}
}

// IsStale reports whether err means the answer was dropped because of a reset.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleResult) || errors.Is(err, session.ErrStaleSession)
}
