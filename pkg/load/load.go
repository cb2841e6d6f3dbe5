package load

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	log "github.com/cloud-bulldozer/ttfb-gate/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// Emulator generates background load against a target while it is sampled.
// Results of the emulated requests are discarded.
type Emulator interface {
	Name() string
	Emulate(ctx context.Context, url string, n int) error
}

// maxInFlight caps the concurrent emulated requests.
const maxInFlight = 256

type noop struct{}

type burst struct {
	client *http.Client
	limit  int
}

// NewEmulator returns an Emulator based on the given driverName.
// It currently supports the "burst" and "noop" drivers.
// If the driverName is not recognized, it returns an error.
func NewEmulator(driverName string) (Emulator, error) {
	switch driverName {
	case "burst":
		return &burst{client: &http.Client{}, limit: maxInFlight}, nil
	case "noop":
		return &noop{}, nil
	default:
		return nil, fmt.Errorf("unknown load driver: %s", driverName)
	}
}

// Start runs e in the background. The returned channel yields the result
// once every emulated request has finished.
func Start(ctx context.Context, e Emulator, url string, n int) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- e.Emulate(ctx, url, n)
		close(done)
	}()
	return done
}

func (n *noop) Name() string {
	return "noop"
}

// Emulate only announces the load it would generate.
func (n *noop) Emulate(ctx context.Context, url string, count int) error {
	log.Infof(">> Load emulation disabled (noop driver), would send %d requests to %s", count, url)
	return nil
}

func (b *burst) Name() string {
	return "burst"
}

// Emulate fires n concurrent GET requests at url. Individual failures are
// counted and logged, not returned.
func (b *burst) Emulate(ctx context.Context, url string, n int) error {
	if n < 1 {
		return fmt.Errorf("requests count must be > 0")
	}
	log.Infof("🔥 Emulating load on %s with %d requests", url, n)
	var failed int64
	g, gctx := errgroup.WithContext(ctx)
	if b.limit > 0 {
		g.SetLimit(b.limit)
	}
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := b.fire(gctx, url); err != nil {
				atomic.AddInt64(&failed, 1)
				log.Debugf("Emulated request failed: %v", err)
			}
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		log.Warnf("%d of %d emulated requests failed", failed, n)
	}
	log.Debugf("Load emulation on %s finished", url)
	return nil
}

func (b *burst) fire(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}
