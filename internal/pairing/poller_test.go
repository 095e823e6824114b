package pairing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kiosk-assistant/internal/kioskapi"
	"kiosk-assistant/internal/session"
)

const tick = 5 * time.Millisecond

type step struct {
	res kioskapi.StatusResult
	err error
}

// scriptFetcher replays steps; after the script ends it keeps answering pending.
type scriptFetcher struct {
	mu    sync.Mutex
	steps []step
	calls map[string]int
	block chan struct{}
}

func newScript(steps ...step) *scriptFetcher {
	return &scriptFetcher{steps: steps, calls: make(map[string]int)}
}

func (f *scriptFetcher) SessionStatus(ctx context.Context, id string) (kioskapi.StatusResult, error) {
	f.mu.Lock()
	f.calls[id]++
	var s step
	if len(f.steps) > 0 {
		s = f.steps[0]
		f.steps = f.steps[1:]
	} else {
		s = step{res: kioskapi.StatusResult{Kind: kioskapi.StatusPending, Raw: "pending"}}
	}
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return s.res, s.err
}

func (f *scriptFetcher) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("poll did not finish")
	}
}

func TestPendingThenConnected(t *testing.T) {
	store := session.NewStore()
	sess := store.Create()
	f := newScript(
		step{res: kioskapi.StatusResult{Kind: kioskapi.StatusPending, Raw: "pending"}},
		step{res: kioskapi.StatusResult{Kind: kioskapi.StatusConnected, User: "Alice"}},
	)
	p := New(f, store, tick, nil)
	h := p.Start(context.Background(), sess.ID)
	waitDone(t, h)

	if o := h.Outcome(); o.Kind != Connected || o.User != "Alice" {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	cur, _ := store.Current()
	if cur.State != session.Paired || cur.PairedUser != "Alice" {
		t.Fatalf("session not paired: %+v", cur)
	}
	calls := f.count(sess.ID)
	if calls != 2 {
		t.Fatalf("want exactly 2 polls, got %d", calls)
	}
	time.Sleep(5 * tick)
	if f.count(sess.ID) != calls {
		t.Fatalf("poll kept ticking after terminal response")
	}
}

func TestNotFoundStops(t *testing.T) {
	store := session.NewStore()
	sess := store.Create()
	f := newScript(step{res: kioskapi.StatusResult{Kind: kioskapi.StatusNotFound}})
	p := New(f, store, tick, nil)
	h := p.Start(context.Background(), sess.ID)
	waitDone(t, h)
	if h.Outcome().Kind != NotFound {
		t.Fatalf("want NotFound, got %v", h.Outcome().Kind)
	}
	if cur, _ := store.Current(); cur.State != session.NotFound {
		t.Fatalf("session state: %v", cur.State)
	}
	time.Sleep(5 * tick)
	if f.count(sess.ID) != 1 {
		t.Fatalf("poll kept ticking after 404")
	}
}

func TestTransientErrorsKeepPolling(t *testing.T) {
	store := session.NewStore()
	sess := store.Create()
	f := newScript(
		step{err: errors.New("connection refused")},
		step{err: &kioskapi.HTTPError{Op: "poll status", StatusCode: 500}},
		step{res: kioskapi.StatusResult{Kind: kioskapi.StatusPending, Raw: "waiting"}},
		step{res: kioskapi.StatusResult{Kind: kioskapi.StatusConnected, User: "Bob"}},
	)
	p := New(f, store, tick, nil)
	h := p.Start(context.Background(), sess.ID)
	waitDone(t, h)
	if h.Outcome().Kind != Connected || f.count(sess.ID) != 4 {
		t.Fatalf("outcome %+v after %d polls", h.Outcome(), f.count(sess.ID))
	}
}

func TestStopIsIdempotentAndFinal(t *testing.T) {
	store := session.NewStore()
	sess := store.Create()
	f := newScript()
	p := New(f, store, tick, nil)
	h := p.Start(context.Background(), sess.ID)
	time.Sleep(4 * tick)
	h.Stop()
	h.Stop()
	p.Stop()
	calls := f.count(sess.ID)
	time.Sleep(5 * tick)
	if f.count(sess.ID) != calls {
		t.Fatalf("requests issued after Stop returned")
	}
	if h.Outcome().Kind != Cancelled {
		t.Fatalf("want Cancelled, got %v", h.Outcome().Kind)
	}
	if cur, _ := store.Current(); cur.State != session.Unpaired {
		t.Fatalf("cancelled poll mutated session")
	}
}

func TestStartSameSessionIsNoop(t *testing.T) {
	store := session.NewStore()
	sess := store.Create()
	p := New(newScript(), store, tick, nil)
	h1 := p.Start(context.Background(), sess.ID)
	h2 := p.Start(context.Background(), sess.ID)
	defer p.Stop()
	if h1 != h2 {
		t.Fatalf("second Start for the same session must return the active handle")
	}
}

func TestStartNewSessionStopsPrevious(t *testing.T) {
	store := session.NewStore()
	first := store.Create()
	f := newScript()
	p := New(f, store, tick, nil)
	h1 := p.Start(context.Background(), first.ID)
	time.Sleep(3 * tick)

	second := store.Reset(p.Stop)
	h2 := p.Start(context.Background(), second.ID)
	defer p.Stop()

	select {
	case <-h1.Done():
	default:
		t.Fatalf("previous poll still running")
	}
	before := f.count(first.ID)
	time.Sleep(5 * tick)
	if f.count(first.ID) != before {
		t.Fatalf("old session still polled")
	}
	if p.Active() != h2 {
		t.Fatalf("active handle not replaced")
	}
}

func TestLateResponseCannotTouchNewSession(t *testing.T) {
	store := session.NewStore()
	first := store.Create()
	f := newScript(step{res: kioskapi.StatusResult{Kind: kioskapi.StatusConnected, User: "Mallory"}})
	f.block = make(chan struct{})
	p := New(f, store, tick, nil)
	h := p.Start(context.Background(), first.ID)

	// wait until the request is in flight
	deadline := time.Now().Add(time.Second)
	for f.count(first.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("request never issued")
		}
		time.Sleep(time.Millisecond)
	}

	resetDone := make(chan session.Session)
	go func() { resetDone <- store.Reset(p.Stop) }()
	// release the in-flight answer only after reset began cancelling
	time.Sleep(2 * tick)
	close(f.block)
	fresh := <-resetDone

	waitDone(t, h)
	if h.Outcome().Kind != Cancelled {
		t.Fatalf("late answer was applied: %+v", h.Outcome())
	}
	cur, _ := store.Current()
	if cur.ID != fresh.ID || cur.PairedUser != "" || cur.State != session.Unpaired {
		t.Fatalf("new session mutated by stale answer: %+v", cur)
	}
}
