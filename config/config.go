// Package config loads and saves simulation run files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

// Format is an output format for reports.
type Format string

// Supported report formats.
const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat parses a report format name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case FormatText, FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown report format %q", name)
}

// RunConfig describes one simulation run.
type RunConfig struct {
	// Predictor selects the scheme and its table widths.
	Predictor predictor.Config `json:"predictor" yaml:"predictor"`

	// Trace is the branch trace to replay.
	Trace TraceConfig `json:"trace" yaml:"trace"`

	// Report controls how results are printed.
	Report ReportConfig `json:"report" yaml:"report"`

	// Verbosity is the log level. 0 logs the run summary only,
	// 1 adds progress messages.
	Verbosity int `json:"verbosity" yaml:"verbosity"`
}

// TraceConfig locates a trace file.
type TraceConfig struct {
	// Path is the trace file. Empty means standard input.
	Path string `json:"path" yaml:"path"`

	// Compression overrides the decoder picked from the extension.
	Compression trace.Compression `json:"compression" yaml:"compression"`
}

// ReportConfig controls result output.
type ReportConfig struct {
	Format Format `json:"format" yaml:"format"`
}

// DefaultRunConfig returns a run reading an uncompressed trace from
// standard input with the default predictor.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Predictor: predictor.DefaultConfig(),
		Trace: TraceConfig{
			Compression: trace.CompressionAuto,
		},
		Report: ReportConfig{
			Format: FormatText,
		},
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads a run configuration from a JSON or YAML file. Fields missing
// from the file keep their defaults.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run config file: %w", err)
	}

	config := DefaultRunConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse run config: %w", err)
	}

	return config, nil
}

// Save writes the configuration to path, as YAML for .yaml and .yml files
// and as JSON otherwise.
func (c *RunConfig) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize run config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for consistency.
func (c *RunConfig) Validate() error {
	if err := c.Predictor.Validate(); err != nil {
		return fmt.Errorf("invalid predictor: %w", err)
	}
	if _, err := ParseFormat(string(c.Report.Format)); err != nil {
		return err
	}
	if c.Verbosity < 0 {
		return fmt.Errorf("verbosity must be >= 0")
	}
	switch c.Trace.Compression {
	case trace.CompressionAuto, trace.CompressionNone, trace.CompressionGzip,
		trace.CompressionZstd, trace.CompressionBzip2:
	default:
		return fmt.Errorf("unknown trace compression %v", c.Trace.Compression)
	}
	return nil
}
