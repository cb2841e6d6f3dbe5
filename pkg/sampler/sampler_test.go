package sampler

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloud-bulldozer/ttfb-gate/pkg/sample"
)

func TestRunSequential(t *testing.T) {
	var inflight, maxInflight, served int32
	ts := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inflight, 1)
		defer atomic.AddInt32(&inflight, -1)
		if n > atomic.LoadInt32(&maxInflight) {
			atomic.StoreInt32(&maxInflight, n)
		}
		time.Sleep(2 * time.Millisecond)
		if atomic.AddInt32(&served, 1)%2 == 0 {
			w.WriteHeader(http.StatusTeapot)
		}
		w.Write([]byte("ok"))
	}))
	var conns int32
	ts.Config.ConnState = func(c net.Conn, s http.ConnState) {
		if s == http.StateNew {
			atomic.AddInt32(&conns, 1)
		}
	}
	ts.Start()
	defer ts.Close()

	set, err := Run(context.Background(), ts.URL, 6, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set) != 6 {
		t.Fatalf("expected 6 samples, got %d", len(set))
	}
	for i, s := range set {
		if s.Index != i+1 {
			t.Errorf("sample %d has index %d", i, s.Index)
		}
		if s.Latency <= 0 {
			t.Errorf("sample %d has latency %f", i, s.Latency)
		}
		want := http.StatusOK
		if s.Index%2 == 0 {
			want = http.StatusTeapot
		}
		if s.StatusCode != want {
			t.Errorf("sample %d: expected status %d, got %d", s.Index, want, s.StatusCode)
		}
	}
	if got := atomic.LoadInt32(&maxInflight); got != 1 {
		t.Errorf("requests overlapped, max in flight %d", got)
	}
	if got := atomic.LoadInt32(&conns); got != 6 {
		t.Errorf("expected a new connection per sample, got %d connections", got)
	}
}

func TestRunAbortsOnTransportError(t *testing.T) {
	var served int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&served, 1) == 3 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("server does not support hijacking")
				return
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Error(err)
				return
			}
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	set, err := Run(context.Background(), ts.URL, 5, Options{})
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if set != nil {
		t.Fatalf("no samples should be returned on failure, got %d", len(set))
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
	if te.Index != 3 {
		t.Errorf("expected failure on request 3, got %d", te.Index)
	}
	if got := atomic.LoadInt32(&served); got != 3 {
		t.Errorf("run should stop at the failing request, server saw %d", got)
	}
}

func TestRunConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := Run(context.Background(), url, 2, Options{})
	var te *TransportError
	if !errors.As(err, &te) || te.Index != 1 {
		t.Fatalf("expected transport error on first request, got %v", err)
	}
}

func TestRunTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	_, err := Run(context.Background(), ts.URL, 1, Options{Timeout: 50 * time.Millisecond})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error on timeout, got %v", err)
	}
}

func TestRunInvalidArguments(t *testing.T) {
	if _, err := Run(context.Background(), "", 1, Options{}); err == nil {
		t.Error("empty url should fail")
	}
	if _, err := Run(context.Background(), "http://localhost", 0, Options{}); err == nil {
		t.Error("zero count should fail")
	}
}

func TestRunEcho(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	var buf bytes.Buffer
	var seen []sample.Sample
	echo := Echo(&buf)
	_, err := Run(context.Background(), ts.URL, 3, Options{Echo: func(s sample.Sample, count int) {
		seen = append(seen, s)
		echo(s, count)
	}})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 echoes, got %d", len(seen))
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "Run 2/3: TTFB: ") || !strings.HasSuffix(lines[1], "Status: 200 OK") {
		t.Errorf("unexpected echo line %q", lines[1])
	}
}
