package sample

// Sample describes a single timed request against the target.
type Sample struct {
	// Index is 1-based and follows issuance order.
	Index int `json:"index"`
	// Latency in milliseconds, from send until the response headers were available.
	Latency    float64 `json:"latencyMs"`
	StatusCode int     `json:"statusCode"`
}

// SampleSet holds the samples of a run in the order they were issued.
type SampleSet []Sample

// Latencies returns the latency column of the set.
func (s SampleSet) Latencies() []float64 {
	vals := make([]float64, 0, len(s))
	for _, smp := range s {
		vals = append(vals, smp.Latency)
	}
	return vals
}

// StatusCounts tallies how many samples returned each status code.
func (s SampleSet) StatusCounts() map[int]int {
	counts := make(map[int]int)
	for _, smp := range s {
		counts[smp.StatusCode]++
	}
	return counts
}
