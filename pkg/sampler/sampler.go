package sampler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/cloud-bulldozer/ttfb-gate/pkg/logging"
	"github.com/cloud-bulldozer/ttfb-gate/pkg/sample"
)

// TransportError is returned when a request could not complete. The run is
// aborted at the first one, no partial SampleSet is handed back.
type TransportError struct {
	Index int
	URL   string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %d to %s failed: %v", e.Index, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Options tune a sampling run.
type Options struct {
	// Timeout bounds a single request. Zero means a hung request blocks the run.
	Timeout time.Duration
	// Echo is called after every sample when set.
	Echo func(s sample.Sample, count int)
	// NewClient builds the client used for one request. Defaults to NewClient.
	NewClient func(timeout time.Duration) *http.Client
}

// NewClient returns a client that will not reuse its connection, so one
// sample's keep-alive state cannot leak into the next measurement.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			DisableKeepAlives: true,
		},
	}
}

// Echo prints one line per sample, the verbose mode output.
func Echo(w io.Writer) func(s sample.Sample, count int) {
	return func(s sample.Sample, count int) {
		fmt.Fprintf(w, "Run %d/%d: TTFB: %.0fms, Status: %d %s\n", s.Index, count, s.Latency, s.StatusCode, http.StatusText(s.StatusCode))
	}
}

// Run issues count sequential GET requests against url and times each one.
// The latency covers sending the request until the status line and headers
// are available, an approximation of time to first byte. The body is drained
// after the timer stops.
func Run(ctx context.Context, url string, count int, opts Options) (sample.SampleSet, error) {
	if url == "" {
		return nil, fmt.Errorf("url must be set")
	}
	if count < 1 {
		return nil, fmt.Errorf("count must be > 0, got %d", count)
	}
	newClient := opts.NewClient
	if newClient == nil {
		newClient = NewClient
	}
	set := make(sample.SampleSet, 0, count)
	for i := 1; i <= count; i++ {
		s, err := measure(ctx, newClient(opts.Timeout), url, i)
		if err != nil {
			return nil, err
		}
		log.Debugf("Sample %d: %fms (%d)", s.Index, s.Latency, s.StatusCode)
		if opts.Echo != nil {
			opts.Echo(s, count)
		}
		set = append(set, s)
	}
	return set, nil
}

func measure(ctx context.Context, client *http.Client, url string, index int) (sample.Sample, error) {
	defer client.CloseIdleConnections()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return sample.Sample{}, &TransportError{Index: index, URL: url, Err: err}
	}
	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return sample.Sample{}, &TransportError{Index: index, URL: url, Err: err}
	}
	_, err = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if err != nil {
		return sample.Sample{}, &TransportError{Index: index, URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}
	return sample.Sample{
		Index:      index,
		Latency:    float64(elapsed) / float64(time.Millisecond),
		StatusCode: resp.StatusCode,
	}, nil
}
