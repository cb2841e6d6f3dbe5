package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"

	log "github.com/cloud-bulldozer/ttfb-gate/pkg/logging"
	"github.com/prometheus/common/model"
	"gopkg.in/yaml.v3"
)

// Defaults used when neither the config file nor the command line sets a value.
const (
	DefaultCount         = 100
	DefaultThreshold     = 1000.0
	DefaultGateMode      = "disabled"
	DefaultRequestsCount = 100
	DefaultLoadDriver    = "burst"
)

// Gate modes we support, see pkg/gate
const validGateModes = "^(disabled|warn|enforce)$"

// Load drivers we support, see pkg/load
const validLoadDrivers = "^(burst|noop)$"

// Config describes a latency check run
type Config struct {
	URL           string         `yaml:"url,omitempty"`
	Count         int            `yaml:"count,omitempty"`
	Threshold     float64        `yaml:"threshold,omitempty"`
	GateMode      string         `yaml:"gate,omitempty"`
	Verbose       bool           `yaml:"verbose,omitempty"`
	EmulateLoad   bool           `yaml:"emulateLoad,omitempty"`
	RequestsCount int            `yaml:"requestsCount,omitempty"`
	LoadDriver    string         `yaml:"loadDriver,omitempty"`
	Timeout       model.Duration `yaml:"timeout,omitempty"`
}

// Default returns a Config populated with the documented defaults.
func Default() Config {
	return Config{
		Count:         DefaultCount,
		Threshold:     DefaultThreshold,
		GateMode:      DefaultGateMode,
		RequestsCount: DefaultRequestsCount,
		LoadDriver:    DefaultLoadDriver,
	}
}

// fillDefaults sets every zero valued field that has a default. Threshold is
// left alone since 0ms is a valid, if strict, threshold.
func fillDefaults(cfg *Config) {
	d := Default()
	if cfg.Count == 0 {
		cfg.Count = d.Count
	}
	if cfg.GateMode == "" {
		cfg.GateMode = d.GateMode
	}
	if cfg.RequestsCount == 0 {
		cfg.RequestsCount = d.RequestsCount
	}
	if cfg.LoadDriver == "" {
		cfg.LoadDriver = d.LoadDriver
	}
}

func validConfig(cfg Config) (bool, error) {
	if cfg.URL == "" {
		return false, fmt.Errorf("url must be set")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return false, fmt.Errorf("invalid url %q: %w", cfg.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, fmt.Errorf("url %q must use http or https", cfg.URL)
	}
	if u.Host == "" {
		return false, fmt.Errorf("url %q has no host", cfg.URL)
	}
	if cfg.Count < 1 {
		return false, fmt.Errorf("count must be > 0")
	}
	if cfg.Threshold < 0 {
		return false, fmt.Errorf("threshold must be >= 0")
	}
	if !regexp.MustCompile(validGateModes).MatchString(cfg.GateMode) {
		return false, fmt.Errorf("unknown gate mode %q", cfg.GateMode)
	}
	if cfg.EmulateLoad {
		if cfg.RequestsCount < 1 {
			return false, fmt.Errorf("requestsCount must be > 0")
		}
		if !regexp.MustCompile(validLoadDrivers).MatchString(cfg.LoadDriver) {
			return false, fmt.Errorf("unknown load driver %q", cfg.LoadDriver)
		}
	}
	if cfg.Timeout < 0 {
		return false, fmt.Errorf("timeout must be >= 0")
	}
	return true, nil
}

// Validate fills in defaults and checks the resulting Config.
func Validate(cfg *Config) error {
	fillDefaults(cfg)
	_, err := validConfig(*cfg)
	return err
}

// ParseConf will read in the configuration file which describes the run.
// The url may be left out of the file and supplied on the command line,
// so only the fields present are checked here.
// Returns Config struct
func ParseConf(fn string) (Config, error) {
	log.Infof("📒 Reading %s file. ", fn)
	c := Default()
	buf, err := os.ReadFile(fn)
	if err != nil {
		return c, err
	}
	err = yaml.Unmarshal(buf, &c)
	if err != nil {
		return c, fmt.Errorf("in file %q: %v", fn, err)
	}
	if c.Count < 0 {
		return c, fmt.Errorf("in file %q: count must be > 0", fn)
	}
	if c.GateMode != "" && !regexp.MustCompile(validGateModes).MatchString(c.GateMode) {
		return c, fmt.Errorf("in file %q: unknown gate mode %q", fn, c.GateMode)
	}
	return c, nil
}

// Show Display the run config
func Show(c Config) {
	log.Infof("🗒️  Running %d tests on %s (gate %s, threshold %.1fms)", c.Count, c.URL, c.GateMode, c.Threshold)
}
