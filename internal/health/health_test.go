package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kiosk-assistant/internal/kioskapi"
	"kiosk-assistant/internal/scheduler"
)

func newClient(t *testing.T, h http.HandlerFunc) *kioskapi.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := kioskapi.NewWithHTTPClient(srv.Client(), srv.URL, srv.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func TestCheckHealthy(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("OK\n"))
	})
	chk := NewChecker(c, nil)
	if _, ok := chk.Last(); ok {
		t.Fatalf("no probe yet")
	}
	st := chk.Check(context.Background())
	if !st.Healthy || st.StatusCode != 200 || st.Body != "OK" || st.Err != "" {
		t.Fatalf("unexpected status: %+v", st)
	}
	last, ok := chk.Last()
	if !ok || !last.Healthy {
		t.Fatalf("last not recorded: %+v", last)
	}
}

func TestCheckUnhealthy(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db down", http.StatusServiceUnavailable)
	})
	chk := NewChecker(c, nil)
	st := chk.Check(context.Background())
	if st.Healthy || st.StatusCode != http.StatusServiceUnavailable || st.Body != "db down" || st.Err == "" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestCheckUnreachable(t *testing.T) {
	c, err := kioskapi.New("127.0.0.1:1", "127.0.0.1:1", time.Second)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	st := NewChecker(c, nil).Check(context.Background())
	if st.Healthy || st.StatusCode != 0 || st.Err == "" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestSchedule(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {})
	chk := NewChecker(c, nil)
	s := scheduler.New(nil)
	defer s.Stop()
	if err := chk.Schedule(s, "bogus", time.Second); err == nil {
		t.Fatalf("bad spec accepted")
	}
	if err := chk.Schedule(s, "@every 1m", time.Second); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !s.IsRunning() {
		t.Fatalf("probe not registered")
	}
}
