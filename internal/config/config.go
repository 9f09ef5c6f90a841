package config

import (
	"fmt"
	"os"
	"strings"
)

// Format selects the rendering of the analysis report.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

type Config struct {
	LogDir       string        `mapstructure:"log_dir"`
	QlogDir      string        `mapstructure:"qlog_dir"`
	ReportPath   string        `mapstructure:"report_path"`
	TimelinePath string        `mapstructure:"timeline_path"`
	Format       Format        `mapstructure:"format"`
	ResultsCSV   string        `mapstructure:"results_csv"`
	TestName     string        `mapstructure:"test_name"`
	Thresholds   []string      `mapstructure:"thresholds"`
	Parallelism  int           `mapstructure:"parallelism"`
	ConfigFile   string        `mapstructure:"-"`
	Tracing      TracingConfig `mapstructure:"tracing"`
}

// TracingConfig controls the OTLP trace exporter. Tracing stays disabled
// unless an endpoint is configured here or via OTEL_EXPORTER_OTLP_ENDPOINT.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   *bool   `mapstructure:"propagate"`
}

func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.LogDir) == "" && strings.TrimSpace(c.QlogDir) == "" {
		issues = append(issues, "at least one of log-dir or qlog-dir is required (use --help for usage information)")
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		issues = append(issues, fmt.Sprintf("format %q is not supported (use text, json, or yaml)", c.Format))
	}

	if c.Parallelism < 1 {
		issues = append(issues, "parallelism must be >= 1")
	}

	if strings.TrimSpace(c.ResultsCSV) != "" && strings.TrimSpace(c.TestName) == "" {
		issues = append(issues, "test-name is required when results-csv is set")
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}
