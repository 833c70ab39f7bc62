// Package config loads and validates the three TOML files the pipeline
// takes as input: config.toml, exchanges.toml, and directions.toml, using
// a parse-then-Validate shape.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level config.toml document.
type Config struct {
	GeneratedDir  string     `toml:"generated_dir"`
	QuoteFilter   []string   `toml:"quote_filter"`
	MinSources    int        `toml:"min_successful_sources"`
	Timeouts      Timeouts   `toml:"timeouts"`
	ConfigVersion *int64     `toml:"config_version"`
}

// Timeouts collects the per-stage timing knobs each pipeline stage uses.
// Values are milliseconds in the file, exposed as time.Duration via the
// accessor methods below.
type Timeouts struct {
	HTTPAttemptMS       int `toml:"http_attempt_ms"`
	WSOverallBatchMS    int `toml:"ws_overall_batch_ms"`
	WSCollectMS         int `toml:"ws_collect_ms"`
	WSIdleMS            int `toml:"ws_idle_ms"`
	WSReadSliceMS       int `toml:"ws_read_slice_ms"`
	WSInterBatchPauseMS int `toml:"ws_inter_batch_pause_ms"`
	RunHardBudgetMS     int `toml:"run_hard_budget_ms"`
}

func defaultTimeouts() Timeouts {
	return Timeouts{
		HTTPAttemptMS:       10_000,
		WSOverallBatchMS:    90_000,
		WSCollectMS:         30_000,
		WSIdleMS:            10_000,
		WSReadSliceMS:       1_000,
		WSInterBatchPauseMS: 500,
		RunHardBudgetMS:     150_000,
	}
}

func (t Timeouts) HTTPAttempt() time.Duration       { return time.Duration(t.HTTPAttemptMS) * time.Millisecond }
func (t Timeouts) WSOverallBatch() time.Duration    { return time.Duration(t.WSOverallBatchMS) * time.Millisecond }
func (t Timeouts) WSCollect() time.Duration         { return time.Duration(t.WSCollectMS) * time.Millisecond }
func (t Timeouts) WSIdle() time.Duration            { return time.Duration(t.WSIdleMS) * time.Millisecond }
func (t Timeouts) WSReadSlice() time.Duration       { return time.Duration(t.WSReadSliceMS) * time.Millisecond }
func (t Timeouts) WSInterBatchPause() time.Duration { return time.Duration(t.WSInterBatchPauseMS) * time.Millisecond }
func (t Timeouts) RunHardBudget() time.Duration     { return time.Duration(t.RunHardBudgetMS) * time.Millisecond }

// Load reads and validates config.toml at path, filling in the spec's
// defaults (quote_filter=["USDT"], min_successful_sources=6) for any
// omitted field.
func Load(path string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if len(c.QuoteFilter) == 0 {
		c.QuoteFilter = []string{"USDT"}
	}
	if c.MinSources == 0 {
		c.MinSources = 6
	}
	zero := Timeouts{}
	if c.Timeouts == zero {
		c.Timeouts = defaultTimeouts()
	}
	if c.GeneratedDir == "" {
		return nil, fmt.Errorf("config: generated_dir is required")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

// Validate checks internal consistency of the loaded document.
func (c *Config) Validate() error {
	if c.MinSources <= 0 || c.MinSources > 8 {
		return fmt.Errorf("min_successful_sources must be in [1,8], got %d", c.MinSources)
	}
	found := false
	for _, q := range c.QuoteFilter {
		if q == "USDT" {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("quote_filter must include USDT; non-USDT discovery is out of scope")
	}
	if c.Timeouts.HTTPAttemptMS <= 0 {
		return fmt.Errorf("timeouts.http_attempt_ms must be positive")
	}
	if c.Timeouts.WSOverallBatchMS <= 0 || c.Timeouts.WSCollectMS <= 0 ||
		c.Timeouts.WSIdleMS <= 0 || c.Timeouts.WSReadSliceMS <= 0 {
		return fmt.Errorf("ws timeouts must be positive")
	}
	return nil
}

// NextConfigVersion derives the monotonic config_version the emitter will
// stamp: the externally supplied counter when present, else the current
// wall clock.
func (c *Config) NextConfigVersion(now time.Time) int64 {
	if c.ConfigVersion != nil {
		return *c.ConfigVersion
	}
	return now.Unix()
}
