// Package config loads the crawler configuration from command-line flags and
// BULK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/Sternrassler/bulk-crawler/pkg/client"
	"github.com/Sternrassler/bulk-crawler/pkg/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. BULK_API_KEY.
const EnvPrefix = "BULK"

// Flag names.
const (
	FlagAPIKey      = "api_key"
	FlagWidgets     = "widgets"
	FlagLanguages   = "languages"
	FlagEndpoint    = "endpoint"
	FlagTimeout     = "timeout"
	FlagLogLevel    = "log_level"
	FlagLogPretty   = "log_pretty"
	FlagMetricsFile = "metrics_file"
)

// ErrMissingAPIKey is returned when no API key was given.
var ErrMissingAPIKey = errors.New("--api_key is required")

// Defaults for the list flags.
var (
	DefaultWidgets   = []string{"seal", "tops_flops"}
	DefaultLanguages = []string{"en", "de"}
)

// Config holds the crawler configuration.
type Config struct {
	APIKey    string
	Widgets   []string
	Languages []string

	Endpoint string
	Timeout  time.Duration

	LogLevel  logging.LogLevel
	LogPretty bool

	// MetricsFile, when set, receives a Prometheus text dump at exit.
	MetricsFile string
}

// NewFlagSet returns the crawler's flag set. Parse errors are returned, not
// printed; callers decide where usage goes.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.String(FlagAPIKey, "", "Your API key (required)")
	fs.StringSlice(FlagWidgets, DefaultWidgets, "Widgets to be crawled, e.g. 'seal tops_flops'")
	fs.StringSlice(FlagLanguages, DefaultLanguages, "Languages to be crawled, e.g. 'en de'")
	fs.String(FlagEndpoint, client.DefaultEndpoint, "Bulk API URL")
	fs.Duration(FlagTimeout, 0, "Per-call timeout, 0 keeps the transport defaults")
	fs.String(FlagLogLevel, string(logging.LevelInfo), "Log level: debug, info, warn, error")
	fs.Bool(FlagLogPretty, false, "Human-readable log output instead of JSON")
	fs.String(FlagMetricsFile, "", "Write Prometheus metrics to this file at exit")

	return fs
}

// Usage writes the flag summary of fs for the command name to w.
func Usage(w io.Writer, name string, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage of %s:\n%s", name, fs.FlagUsages())
}

// Load parses args with fs and merges the result with the environment.
// Explicit flags win over environment variables, which win over defaults.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(expandListArgs(args, FlagWidgets, FlagLanguages)); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	cfg := &Config{
		APIKey:      v.GetString(FlagAPIKey),
		Widgets:     listValue(v, FlagWidgets),
		Languages:   listValue(v, FlagLanguages),
		Endpoint:    v.GetString(FlagEndpoint),
		Timeout:     v.GetDuration(FlagTimeout),
		LogLevel:    logging.LogLevel(strings.ToLower(v.GetString(FlagLogLevel))),
		LogPretty:   v.GetBool(FlagLogPretty),
		MetricsFile: v.GetString(FlagMetricsFile),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration before any network activity.
func (cfg *Config) Validate() error {
	if cfg.APIKey == "" {
		return ErrMissingAPIKey
	}
	if len(cfg.Widgets) == 0 {
		return fmt.Errorf("at least one widget is required")
	}
	if len(cfg.Languages) == 0 {
		return fmt.Errorf("at least one language is required")
	}
	if cfg.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}
	switch cfg.LogLevel {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	return nil
}

// ClientConfig returns the Bulk API client configuration.
func (cfg *Config) ClientConfig() client.Config {
	cc := client.DefaultConfig(cfg.APIKey)
	cc.Endpoint = cfg.Endpoint
	cc.Timeout = cfg.Timeout
	return cc
}

// listValue reads a list setting. Flags arrive already split; an environment
// value is a plain string and may separate items with commas or whitespace.
func listValue(v *viper.Viper, key string) []string {
	if raw, ok := v.Get(key).(string); ok {
		return strings.FieldsFunc(raw, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
	}
	return v.GetStringSlice(key)
}

// expandListArgs turns "--widgets a b" into "--widgets=a,b" so list flags take
// every following bare word, the way "nargs=+" command lines are written.
func expandListArgs(args []string, names ...string) []string {
	isList := make(map[string]bool, len(names))
	for _, n := range names {
		isList["--"+n] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if !isList[arg] {
			out = append(out, arg)
			continue
		}

		var values []string
		for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			values = append(values, args[i])
		}
		if len(values) == 0 {
			// Let pflag report the missing argument.
			out = append(out, arg)
			continue
		}
		out = append(out, arg+"="+strings.Join(values, ","))
	}
	return out
}
