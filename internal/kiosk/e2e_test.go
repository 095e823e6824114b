package kiosk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"kiosk-assistant/internal/audio"
	"kiosk-assistant/internal/conversation"
	"kiosk-assistant/internal/kioskapi"
	"kiosk-assistant/internal/menu"
	"kiosk-assistant/internal/order"
	"kiosk-assistant/internal/session"
)

// fakeBackend serves both kiosk services.
type fakeBackend struct {
	mu       sync.Mutex
	created  []string
	polls    int
	replies  []string
	uploads  []string
	orders   []kioskapi.OrderRequest
	failures int
}

func (b *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/kiosk/api/session", func(w http.ResponseWriter, r *http.Request) {
		var req kioskapi.CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("create body: %v", err)
		}
		b.mu.Lock()
		b.created = append(b.created, req.SessionID)
		b.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/kiosk/api/session/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.polls++
		n := b.polls
		b.mu.Unlock()
		if n == 1 {
			_, _ = io.WriteString(w, `{"status":"waiting"}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":"connected","user":"Alice"}`)
	})
	mux.HandleFunc("/kiosk-comm/api/conversation/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipart: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part: %v", err)
		} else {
			_ = f.Close()
			if hdr.Filename != audio.DefaultName || hdr.Header.Get("Content-Type") != audio.DefaultContentType {
				t.Errorf("unexpected file part: %s %s", hdr.Filename, hdr.Header.Get("Content-Type"))
			}
		}
		b.mu.Lock()
		b.uploads = append(b.uploads, r.FormValue("session_id")+"/"+r.FormValue("start_conversation"))
		body := b.replies[0]
		b.replies = b.replies[1:]
		b.mu.Unlock()
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("/kiosk-comm/api/orders/place", func(w http.ResponseWriter, r *http.Request) {
		var req kioskapi.OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("order body: %v", err)
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failures > 0 {
			b.failures--
			http.Error(w, "kitchen closed", http.StatusServiceUnavailable)
			return
		}
		b.orders = append(b.orders, req)
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestEndToEndOrder(t *testing.T) {
	b := &fakeBackend{
		replies: []string{
			`{"promptMessage":"I want a burger","data":{"prompt_response":"Which burger would you like?"}}`,
			`{"promptMessage":"Chicken","data":{"prompt_response":"Added Chicken Burger.","action":{"add_item_id":"b2"}}}`,
			`{"promptMessage":"That's it","data":{"prompt_response":"Placing your order.","action":{"finalize_order":1}}}`,
		},
		failures: 1,
	}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()

	api, err := kioskapi.NewWithHTTPClient(srv.Client(), srv.URL, srv.URL+"/")
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	engine := conversation.NewEngine(api, true, nil)
	submitter := order.NewSubmitter(api, order.Settings{RestaurantID: 100, TenantID: 607, Submit: true}, nil)
	store := session.NewStore(session.WithIDGenerator(func() string { return "S1" }))
	c := New(api, engine, menu.Default(), submitter, testInterval, nil, WithStore(store))
	defer c.Close()

	if _, err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if sess, err := c.WaitPaired(ctx); err != nil || sess.PairedUser != "Alice" {
		t.Fatalf("pairing: %+v %v", sess, err)
	}

	for i := 0; i < 3; i++ {
		if _, err := c.SubmitUtterance(context.Background(), audio.NewClip([]byte("pcm"))); err != nil {
			t.Fatalf("utterance %d: %v", i, err)
		}
	}
	if c.State() != ReadyToFinalize {
		t.Fatalf("want ReadyToFinalize, got %s", c.State())
	}

	if _, err := c.PlaceOrder(context.Background()); err == nil || !strings.Contains(err.Error(), "kitchen closed") {
		t.Fatalf("want placement failure, got %v", err)
	}
	if c.State() != ReadyToFinalize {
		t.Fatalf("failed placement changed state to %s", c.State())
	}
	res, err := c.PlaceOrder(context.Background())
	if err != nil {
		t.Fatalf("place retry: %v", err)
	}
	if res.Order.Total.String() != "$6.99" {
		t.Fatalf("unexpected total %s", res.Order.Total)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.created) != 1 || b.created[0] != "S1" {
		t.Fatalf("unexpected sessions: %v", b.created)
	}
	if len(b.uploads) != 3 || b.uploads[0] != "S1/true" {
		t.Fatalf("unexpected uploads: %v", b.uploads)
	}
	if len(b.orders) != 1 {
		t.Fatalf("want 1 order, got %d", len(b.orders))
	}
	got := b.orders[0]
	if got.UserName != "Alice" || got.RestaurantID != 100 || got.TenantID != 607 || got.Status != "PENDING" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(got.ItemDetails) != 1 || got.ItemDetails[0].ItemID != "b2" || got.ItemDetails[0].ItemName != "Chicken Burger" || got.ItemDetails[0].Price != 6.99 {
		t.Fatalf("unexpected items: %+v", got.ItemDetails)
	}

	v := c.Snapshot()
	if v.State != Submitted || len(v.Turns) != 6 || v.Turns[0].Text != "I want a burger" {
		t.Fatalf("unexpected view: %+v", v)
	}
}
