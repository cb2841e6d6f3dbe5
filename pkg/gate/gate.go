package gate

import "fmt"

// Mode selects what a p95 above the threshold does to the run.
type Mode string

const (
	// Disabled never compares, the run is informational only.
	Disabled Mode = "disabled"
	// Warn compares and reports, but never changes the exit code.
	Warn Mode = "warn"
	// Enforce fails the run with exit code 1.
	Enforce Mode = "enforce"
)

// ParseMode maps a config value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Disabled, Warn, Enforce:
		return Mode(s), nil
	case "":
		return Disabled, nil
	default:
		return "", fmt.Errorf("unknown gate mode: %s", s)
	}
}

// State of the gate. Passed and Failed are terminal.
type State int

const (
	Pending State = iota
	Passed
	Failed
)

func (s State) String() string {
	switch s {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Decision is the outcome of a gate evaluation.
type Decision struct {
	Mode      Mode    `json:"mode"`
	State     State   `json:"-"`
	Triggered bool    `json:"triggered"`
	Passed    bool    `json:"passed"`
	ExitCode  int     `json:"exitCode"`
	P95       float64 `json:"p95"`
	Threshold float64 `json:"threshold"`
}

// Evaluate compares p95 against threshold. Only p95 strictly above the
// threshold fails; equal passes. Only Enforce can produce exit code 1.
func Evaluate(p95, threshold float64, mode Mode) Decision {
	d := Decision{Mode: mode, State: Pending, P95: p95, Threshold: threshold}
	if mode == Disabled || mode == "" {
		d.Mode = Disabled
		d.Passed = true
		return d
	}
	d.Triggered = true
	if p95 > threshold {
		d.State = Failed
		if mode == Enforce {
			d.ExitCode = 1
		}
		return d
	}
	d.State = Passed
	d.Passed = true
	return d
}

// Above reports whether the evaluated p95 exceeded the threshold.
func (d Decision) Above() bool {
	return d.State == Failed
}
