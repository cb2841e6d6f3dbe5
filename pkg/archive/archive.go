package archive

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cloud-bulldozer/go-commons/indexers"
	"github.com/cloud-bulldozer/ttfb-gate/pkg/gate"
	"github.com/cloud-bulldozer/ttfb-gate/pkg/logging"
	result "github.com/cloud-bulldozer/ttfb-gate/pkg/results"
)

const ltcyMetric = "ms"

// Doc struct of the JSON document to be indexed
type Doc struct {
	UUID          string         `json:"uuid"`
	Timestamp     time.Time      `json:"timestamp"`
	URL           string         `json:"url"`
	Samples       int            `json:"samples"`
	LtcyMetric    string         `json:"ltcyMetric"`
	Min           float64        `json:"min"`
	Max           float64        `json:"max"`
	Mean          float64        `json:"mean"`
	Median        float64        `json:"median"`
	P95           float64        `json:"p95"`
	P99           float64        `json:"p99"`
	StdDev        float64        `json:"stdDev"`
	Confidence    []float64      `json:"confidence"`
	StatusCodes   map[string]int `json:"statusCodes"`
	GateMode      gate.Mode      `json:"gateMode"`
	GateTriggered bool           `json:"gateTriggered"`
	GatePassed    bool           `json:"gatePassed"`
	Threshold     float64        `json:"threshold"`
	ExitCode      int            `json:"exitCode"`
}

// Connect returns a client connected to the desired cluster.
func Connect(url, index string, skip bool) (*indexers.Indexer, error) {
	var err error
	var indexer *indexers.Indexer
	indexerConfig := indexers.IndexerConfig{
		Type:               "opensearch",
		Servers:            []string{url},
		Index:              index,
		InsecureSkipVerify: skip,
	}
	logging.Infof("📁 Creating indexer: %s", indexerConfig.Type)
	indexer, err = indexers.NewIndexer(indexerConfig)
	if err != nil {
		logging.Errorf("%v indexer: %v", indexerConfig.Type, err.Error())
		return nil, fmt.Errorf("failure while connecting to OpenSearch: %w", err)
	}
	logging.Infof("Connected to : %s ", url)
	return indexer, nil
}

// BuildDoc returns the document describing a run.
func BuildDoc(r result.Result, uuid string) (Doc, error) {
	if len(r.Samples) < 1 {
		return Doc{}, fmt.Errorf("no result documents")
	}
	codes := make(map[string]int)
	for code, n := range r.Samples.StatusCounts() {
		codes[strconv.Itoa(code)] = n
	}
	s := r.Summary
	return Doc{
		UUID:          uuid,
		Timestamp:     time.Now().UTC(),
		URL:           r.URL,
		Samples:       len(r.Samples),
		LtcyMetric:    ltcyMetric,
		Min:           s.Min,
		Max:           s.Max,
		Mean:          s.Mean,
		Median:        s.Median,
		P95:           s.P95,
		P99:           s.P99,
		StdDev:        s.StdDev,
		Confidence:    []float64{s.ConfidenceLow, s.ConfidenceHigh},
		StatusCodes:   codes,
		GateMode:      r.Decision.Mode,
		GateTriggered: r.Decision.Triggered,
		GatePassed:    r.Decision.Passed,
		Threshold:     r.Decision.Threshold,
		ExitCode:      r.Decision.ExitCode,
	}, nil
}

// IndexResult ships the run document to an indexer.
func IndexResult(indexer indexers.Indexer, index string, r result.Result, uuid string) error {
	doc, err := BuildDoc(r, uuid)
	if err != nil {
		return err
	}
	logging.Infof("Indexing [%d] documents in %s with UUID %s", 1, index, uuid)
	resp, err := indexer.Index([]interface{}{doc}, indexers.IndexingOpts{})
	if err != nil {
		return fmt.Errorf("indexing results: %w", err)
	}
	logging.Info(resp)
	return nil
}

// WriteJSONResult sends the run document as JSON to w
func WriteJSONResult(w io.Writer, r result.Result, uuid string) error {
	doc, err := BuildDoc(r, uuid)
	if err != nil {
		return err
	}
	p, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(p))
	return err
}

// WriteCSVResult will write every sample of the run to dir and return the
// name of the archive
func WriteCSVResult(dir string, r result.Result) (string, error) {
	fn := filepath.Join(dir, fmt.Sprintf("ttfb-result-%d.csv", time.Now().Unix()))
	fp, err := os.Create(fn)
	if err != nil {
		return "", fmt.Errorf("failed to open archive file: %w", err)
	}
	defer fp.Close()
	archive := csv.NewWriter(fp)

	if err := archive.Write([]string{"URL", "Run", "Latency", "Latency Metric", "Status"}); err != nil {
		return "", fmt.Errorf("failed to write result archive to file")
	}
	for _, s := range r.Samples {
		if err := archive.Write([]string{
			r.URL,
			strconv.Itoa(s.Index),
			strconv.FormatFloat(s.Latency, 'f', -1, 64),
			ltcyMetric,
			strconv.Itoa(s.StatusCode),
		}); err != nil {
			return "", fmt.Errorf("failed to write result archive to file")
		}
	}
	archive.Flush()
	if err := archive.Error(); err != nil {
		return "", fmt.Errorf("failed to flush result archive: %w", err)
	}
	return fn, nil
}
