package results

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/cloud-bulldozer/ttfb-gate/pkg/gate"
	"github.com/cloud-bulldozer/ttfb-gate/pkg/logging"
	"github.com/cloud-bulldozer/ttfb-gate/pkg/sample"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Specify Language specific case wrapper as global variable
var caser = cases.Title(language.English)

const ltcyMetric = "ms"

// Result ties a run's samples to their summary and gate decision.
type Result struct {
	URL      string           `json:"url"`
	Samples  sample.SampleSet `json:"samples"`
	Summary  Summary          `json:"summary"`
	Decision gate.Decision    `json:"gate"`
}

// Method to init common table structure.
func initTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	return table
}

func formatMs(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + ltcyMetric
}

// ShowSummary writes the fixed text report of a run.
func ShowSummary(w io.Writer, r Result) {
	s := r.Summary
	fmt.Fprintf(w, ">> Results for %d tests on %s\n", len(r.Samples), r.URL)
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Max (Slowest): %s\n", formatMs(s.Max))
	fmt.Fprintf(w, "95th percentile: %s\n", formatMs(s.P95))
	fmt.Fprintf(w, "Median: %s\n", formatMs(s.Median))
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "99th percentile: %s\n", formatMs(s.P99))
	fmt.Fprintf(w, "Mean: %s\n", formatMs(s.Mean))
	fmt.Fprintf(w, "Min: %s\n", formatMs(s.Min))
	fmt.Fprintln(w, "---")
}

// ShowGateResult writes the verdict line(s) for an evaluated gate.
func ShowGateResult(w io.Writer, d gate.Decision) {
	if !d.Triggered {
		return
	}
	threshold := strconv.FormatFloat(d.Threshold, 'f', -1, 64)
	if d.Above() {
		fmt.Fprintf(w, "⚠️ 95th percentile is above the threshold of %sms\n", threshold)
		if d.ExitCode != 0 {
			fmt.Fprintf(w, "💀 Exiting with error code %d\n", d.ExitCode)
		}
		return
	}
	fmt.Fprintf(w, "👍 95th percentile is below the threshold of %sms\n", threshold)
}

// ShowLatencyTable renders the summary as a table, along with the spread
// information the text report leaves out.
func ShowLatencyTable(w io.Writer, r Result) {
	logging.Debug("Rendering latency results")
	s := r.Summary
	table := initTable(w, []string{"Result Type", "URL", "Samples", "Min", "Median", "Mean", "95%tile", "99%tile", "Max", "Std Dev", "95% Confidence Interval"})
	table.Append([]string{
		fmt.Sprintf("📊 %s Results", caser.String("ttfb latency")),
		r.URL,
		strconv.Itoa(s.Count),
		formatMs(s.Min),
		formatMs(s.Median),
		formatMs(s.Mean),
		formatMs(s.P95),
		formatMs(s.P99),
		formatMs(s.Max),
		formatMs(s.StdDev),
		fmt.Sprintf("%s-%s", formatMs(s.ConfidenceLow), formatMs(s.ConfidenceHigh)),
	})
	table.Render()
}

// ShowStatusBreakdown renders how many samples returned each status code.
func ShowStatusBreakdown(w io.Writer, set sample.SampleSet) {
	logging.Debug("Rendering status code breakdown")
	counts := set.StatusCounts()
	codes := make([]int, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	table := initTable(w, []string{"Status", "Text", "Samples", "Share"})
	for _, code := range codes {
		text := strings.ToLower(http.StatusText(code))
		table.Append([]string{
			strconv.Itoa(code),
			caser.String(text),
			strconv.Itoa(counts[code]),
			fmt.Sprintf("%.1f%%", float64(counts[code])*100/float64(len(set))),
		})
	}
	table.Render()
}
