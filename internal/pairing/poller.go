// Package pairing polls the session service until a kiosk session is
// confirmed by a mobile client, reported missing, or the poll is cancelled.
package pairing

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"kiosk-assistant/internal/kioskapi"
	"kiosk-assistant/internal/logger"
)

// DefaultInterval is the fixed delay between status requests.
const DefaultInterval = 2 * time.Second

// StatusFetcher performs one status request.
type StatusFetcher interface {
	SessionStatus(ctx context.Context, sessionID string) (kioskapi.StatusResult, error)
}

// Sink receives terminal outcomes. session.Store implements it.
type Sink interface {
	MarkPaired(id, user string) error
	MarkNotFound(id string) error
}

type OutcomeKind int

const (
	Running OutcomeKind = iota
	Connected
	NotFound
	Cancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case NotFound:
		return "not_found"
	case Cancelled:
		return "cancelled"
	default:
		return "running"
	}
}

type Outcome struct {
	Kind OutcomeKind
	User string
}

// Handle is the cancellation token of one poll.
type Handle struct {
	sessionID string
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}

	mu      sync.Mutex
	outcome Outcome
}

func (h *Handle) SessionID() string { return h.sessionID }

// Done is closed once the poll goroutine has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) Outcome() Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcome
}

// Stop cancels the poll and waits for it to exit. Safe to call repeatedly and
// after the poll has already finished. No request is issued after Stop returns.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}

func (h *Handle) finish(o Outcome) {
	h.mu.Lock()
	h.outcome = o
	h.mu.Unlock()
}

// Poller runs at most one poll at a time.
type Poller struct {
	fetcher  StatusFetcher
	sink     Sink
	interval time.Duration
	log      logrus.FieldLogger

	mu     sync.Mutex
	active *Handle
}

func New(fetcher StatusFetcher, sink Sink, interval time.Duration, log logrus.FieldLogger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetcher:  fetcher,
		sink:     sink,
		interval: interval,
		log:      logger.OrDiscard(log),
	}
}

// Start begins polling sessionID. Calling it again for the session that is
// already being polled returns the existing handle; a different session stops
// the previous poll first.
func (p *Poller) Start(ctx context.Context, sessionID string) *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil {
		if p.active.sessionID == sessionID && p.active.Outcome().Kind != Cancelled {
			return p.active
		}
		p.active.Stop()
		p.active = nil
	}

	pctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		sessionID: sessionID,
		ctx:       pctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	p.active = h
	go p.run(h)
	return h
}

// Stop cancels the active poll, if any.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != nil {
		p.active.Stop()
		p.active = nil
	}
}

// Active returns the current handle or nil.
func (p *Poller) Active() *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Poller) run(h *Handle) {
	defer close(h.done)
	defer h.cancel()

	log := p.log.WithField("session_id", h.sessionID)
	log.Debug("starting to poll for session status")

	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.finish(Outcome{Kind: Cancelled})
			log.Debug("stopped polling for session status")
			return
		case <-t.C:
		}

		res, err := p.fetcher.SessionStatus(h.ctx, h.sessionID)
		if h.ctx.Err() != nil {
			// answer arrived after cancellation; it belongs to nobody
			h.finish(Outcome{Kind: Cancelled})
			return
		}
		if err != nil {
			log.WithError(err).Warn("polling failed")
			continue
		}

		switch res.Kind {
		case kioskapi.StatusConnected:
			if err := p.sink.MarkPaired(h.sessionID, res.User); err != nil {
				log.WithError(err).Warn("could not record pairing")
			}
			h.finish(Outcome{Kind: Connected, User: res.User})
			log.WithField("user", res.User).Info("session connected")
			return
		case kioskapi.StatusNotFound:
			if err := p.sink.MarkNotFound(h.sessionID); err != nil {
				log.WithError(err).Warn("could not record missing session")
			}
			h.finish(Outcome{Kind: NotFound})
			log.Error("session not found")
			return
		default:
			log.WithField("status", res.Raw).Debug("session status")
		}
	}
}
