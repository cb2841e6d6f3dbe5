package load

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestNewEmulator(t *testing.T) {
	for _, name := range []string{"burst", "noop"} {
		e, err := NewEmulator(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if e.Name() != name {
			t.Errorf("expected %s, got %s", name, e.Name())
		}
	}
	if _, err := NewEmulator("flood"); err == nil {
		t.Fatal("unknown driver should fail")
	}
}

func TestBurstEmulate(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer ts.Close()

	e, _ := NewEmulator("burst")
	if err := <-Start(context.Background(), e, ts.URL, 25); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&hits); got != 25 {
		t.Fatalf("expected 25 requests, got %d", got)
	}
}

func TestBurstFailuresAreDiscarded(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	e, _ := NewEmulator("burst")
	if err := e.Emulate(context.Background(), url, 3); err != nil {
		t.Fatalf("failed emulated requests should not be returned: %v", err)
	}
}

func TestBurstCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := &burst{client: &http.Client{}, limit: 2}
	if err := e.Emulate(ctx, "http://127.0.0.1:1", 4); err == nil {
		t.Fatal("cancelled emulation should report the context error")
	}
}

func TestNoopSendsNothing(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer ts.Close()

	e, _ := NewEmulator("noop")
	if err := e.Emulate(context.Background(), ts.URL, 10); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&hits); got != 0 {
		t.Fatalf("noop driver sent %d requests", got)
	}
}
