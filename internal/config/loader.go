package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// If no arguments provided and no config file, show help/usage
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		Format:      FormatText,
		Parallelism: 1,
		TestName:    "default",
		ConfigFile:  configPath,
		Tracing:     TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.LogDir = strings.TrimSpace(cfg.LogDir)
	cfg.QlogDir = strings.TrimSpace(cfg.QlogDir)
	cfg.Format = Format(strings.ToLower(string(cfg.Format)))

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "logdir", "log_dir", "log-dir"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("log_dir: %w", err)
		}
		cfg.LogDir = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "qlogdir", "qlog_dir", "qlog-dir"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("qlog_dir: %w", err)
		}
		cfg.QlogDir = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "reportpath", "report_path", "report-path", "report"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("report_path: %w", err)
		}
		cfg.ReportPath = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "timelinepath", "timeline_path", "timeline-path", "timeline"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("timeline_path: %w", err)
		}
		cfg.TimelinePath = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "format"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("format: %w", err)
		}
		if val != "" {
			cfg.Format = Format(strings.ToLower(strings.TrimSpace(val)))
		}
	}

	if raw, ok := lookupSetting(settings, "resultscsv", "results_csv", "results-csv"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("results_csv: %w", err)
		}
		cfg.ResultsCSV = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "testname", "test_name", "test-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("test_name: %w", err)
		}
		if val != "" {
			cfg.TestName = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "parallelism"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("parallelism: %w", err)
		}
		cfg.Parallelism = val
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		thresholds, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tracing, err := parseTracing(raw, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tracing
	}

	return nil
}

func parseTracing(value interface{}, base TracingConfig) (TracingConfig, error) {
	if value == nil {
		return base, nil
	}
	entry, err := toStringKeyMap(value)
	if err != nil {
		return TracingConfig{}, err
	}

	tracing := base
	if raw, ok := lookupSetting(entry, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("endpoint: %w", err)
		}
		tracing.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("protocol: %w", err)
		}
		if val != "" {
			tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
		}
	}
	if raw, ok := lookupSetting(entry, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("service_name: %w", err)
		}
		tracing.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("sample_rate: %w", err)
		}
		tracing.SampleRate = val
	}
	if raw, ok := lookupSetting(entry, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("insecure: %w", err)
		}
		tracing.Insecure = val
	}
	if raw, ok := lookupSetting(entry, "propagate"); ok {
		val, err := asBool(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("propagate: %w", err)
		}
		tracing.Propagate = &val
	}
	return tracing, nil
}
