package config

import (
	"fmt"
	"path/filepath"
)

// Indexer backends understood by the index package.
const (
	BackendLSMASH = "lsmash"
	BackendFFMS2  = "ffms2"
)

func (c *Config) Validate() error {
	if err := c.Compare.Validate(); err != nil {
		return fmt.Errorf("compare config: %w", err)
	}

	if err := c.Indexer.Validate(); err != nil {
		return fmt.Errorf("indexer config: %w", err)
	}

	if err := c.Probe.Validate(); err != nil {
		return fmt.Errorf("probe config: %w", err)
	}

	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	return nil
}

// Validate checks the comparison settings. Input existence is checked by
// the command before the pipeline starts.
func (c *CompareConfig) Validate() error {
	if c.ComparisonCount < 1 {
		return fmt.Errorf("comparison_count must be positive")
	}

	if c.Frames == "" && c.ComparisonCount < 2 {
		return fmt.Errorf("comparison_count must be at least 2 to pick sync frames")
	}

	return nil
}

func (i *IndexerConfig) Validate() error {
	if i.Backend != BackendLSMASH && i.Backend != BackendFFMS2 {
		return fmt.Errorf("invalid indexer backend: %s", i.Backend)
	}

	return nil
}

func (p *ProbeConfig) Validate() error {
	if p.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	return nil
}

func (o *OutputConfig) Validate() error {
	switch o.Format {
	case "json", "yaml", "table":
	default:
		return fmt.Errorf("output format must be 'json', 'yaml' or 'table'")
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"panic": true,
		"fatal": true,
		"error": true,
		"warn":  true,
		"info":  true,
		"debug": true,
		"trace": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("log format must be 'json' or 'text'")
	}

	if l.Output != "stdout" && l.Output != "stderr" {
		if l.MaxSize <= 0 {
			return fmt.Errorf("max_size must be positive for file output")
		}
		if l.MaxBackups < 0 {
			return fmt.Errorf("max_backups cannot be negative")
		}
		if l.MaxAge < 0 {
			return fmt.Errorf("max_age cannot be negative")
		}
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if m.Textfile != "" && filepath.Ext(m.Textfile) != ".prom" {
		return fmt.Errorf("metrics textfile must end in .prom: %s", m.Textfile)
	}

	return nil
}
