package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "streamscope",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Input flags
	flags.String("log-dir", "", "Directory containing transfer log files (*.log)")
	flags.String("qlog-dir", "", "Directory containing qlog trace files (*.qlog, *.json)")

	// Output flags
	flags.StringP("report", "o", "", "Write the report to this path instead of stdout")
	flags.String("timeline", "", "Generate HTML timeline to the specified file path")
	flags.StringP("format", "f", "text", "Report format: 'text', 'json', or 'yaml'")
	flags.String("results-csv", "", "Append a summary row to this shared results CSV")
	flags.String("test-name", "", "Test name recorded in the results CSV")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Analysis flags
	flags.IntP("parallelism", "p", 1, "Number of files to parse concurrently")
	flags.StringSlice("threshold", nil, "Compliance thresholds (repeatable, e.g., 'deadline_compliance:rate >= 0.95')")

	// Tracing flags
	flags.String("otel-endpoint", "", "OTLP endpoint for exporting pipeline traces")
	flags.String("otel-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.String("otel-service-name", "", "Service name reported on exported spans")
	flags.Float64("otel-sample-rate", 1.0, "Trace sampling rate between 0.0 and 1.0")
	flags.Bool("otel-insecure", false, "Disable TLS for the OTLP exporter")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("log-dir") {
		val, err := fs.GetString("log-dir")
		if err != nil {
			return err
		}
		cfg.LogDir = strings.TrimSpace(val)
	}
	if fs.Changed("qlog-dir") {
		val, err := fs.GetString("qlog-dir")
		if err != nil {
			return err
		}
		cfg.QlogDir = strings.TrimSpace(val)
	}
	if fs.Changed("report") {
		val, err := fs.GetString("report")
		if err != nil {
			return err
		}
		cfg.ReportPath = strings.TrimSpace(val)
	}
	if fs.Changed("timeline") {
		val, err := fs.GetString("timeline")
		if err != nil {
			return err
		}
		cfg.TimelinePath = strings.TrimSpace(val)
	}
	if fs.Changed("format") {
		val, err := fs.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = Format(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("results-csv") {
		val, err := fs.GetString("results-csv")
		if err != nil {
			return err
		}
		cfg.ResultsCSV = strings.TrimSpace(val)
	}
	if fs.Changed("test-name") {
		val, err := fs.GetString("test-name")
		if err != nil {
			return err
		}
		cfg.TestName = strings.TrimSpace(val)
	}
	if fs.Changed("parallelism") {
		val, err := fs.GetInt("parallelism")
		if err != nil {
			return err
		}
		cfg.Parallelism = val
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}
	if fs.Changed("otel-endpoint") {
		val, err := fs.GetString("otel-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("otel-protocol") {
		val, err := fs.GetString("otel-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("otel-service-name") {
		val, err := fs.GetString("otel-service-name")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = strings.TrimSpace(val)
	}
	if fs.Changed("otel-sample-rate") {
		val, err := fs.GetFloat64("otel-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("otel-insecure") {
		val, err := fs.GetBool("otel-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}

	return nil
}
