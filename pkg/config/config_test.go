package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/bulk-crawler/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	return Load(NewFlagSet("crawl-bulk-api"), args)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, "--api_key", "secret")
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, []string{"seal", "tops_flops"}, cfg.Widgets)
	assert.Equal(t, []string{"en", "de"}, cfg.Languages)
	assert.Equal(t, "http://api.trustyou.com/bulk", cfg.Endpoint)
	assert.Equal(t, time.Duration(0), cfg.Timeout)
	assert.Equal(t, logging.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Empty(t, cfg.MetricsFile)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	_, err := load(t, "--widgets", "seal")
	assert.True(t, errors.Is(err, ErrMissingAPIKey), "err = %v", err)
}

func TestLoad_ListFlags(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		wantWidgets   []string
		wantLanguages []string
	}{
		{
			name:          "space separated",
			args:          []string{"--api_key", "k", "--widgets", "seal", "tops_flops", "--languages", "fr", "es", "it"},
			wantWidgets:   []string{"seal", "tops_flops"},
			wantLanguages: []string{"fr", "es", "it"},
		},
		{
			name:          "comma separated",
			args:          []string{"--api_key=k", "--widgets=seal", "--languages=fr,es"},
			wantWidgets:   []string{"seal"},
			wantLanguages: []string{"fr", "es"},
		},
		{
			name:          "repeated",
			args:          []string{"--api_key", "k", "--languages=fr", "--languages=es"},
			wantWidgets:   []string{"seal", "tops_flops"},
			wantLanguages: []string{"fr", "es"},
		},
		{
			name:          "list before api key",
			args:          []string{"--widgets", "seal", "--api_key", "k"},
			wantWidgets:   []string{"seal"},
			wantLanguages: []string{"en", "de"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := load(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWidgets, cfg.Widgets)
			assert.Equal(t, tt.wantLanguages, cfg.Languages)
		})
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BULK_API_KEY", "from-env")
	t.Setenv("BULK_ENDPOINT", "http://localhost:9999/bulk")
	t.Setenv("BULK_LOG_LEVEL", "debug")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, "http://localhost:9999/bulk", cfg.Endpoint)
	assert.Equal(t, logging.LevelDebug, cfg.LogLevel)

	// Explicit flag wins over the environment.
	cfg, err = load(t, "--api_key", "from-flag")
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.APIKey)
}

func TestLoad_EnvironmentLists(t *testing.T) {
	tests := []struct {
		name      string
		widgets   string
		languages string
		want      []string
		wantLangs []string
	}{
		{"comma separated", "seal,tops_flops", "fr,es", []string{"seal", "tops_flops"}, []string{"fr", "es"}},
		{"space separated", "seal tops_flops", "fr", []string{"seal", "tops_flops"}, []string{"fr"}},
		{"mixed with padding", " seal, tops_flops ,", "fr , es", []string{"seal", "tops_flops"}, []string{"fr", "es"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BULK_WIDGETS", tt.widgets)
			t.Setenv("BULK_LANGUAGES", tt.languages)

			cfg, err := load(t, "--api_key", "k")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Widgets)
			assert.Equal(t, tt.wantLangs, cfg.Languages)
		})
	}

	t.Run("flag wins over environment", func(t *testing.T) {
		t.Setenv("BULK_WIDGETS", "seal,tops_flops")

		cfg, err := load(t, "--api_key", "k", "--widgets", "meta_review")
		require.NoError(t, err)
		assert.Equal(t, []string{"meta_review"}, cfg.Widgets)
	})

	t.Run("empty environment list", func(t *testing.T) {
		t.Setenv("BULK_WIDGETS", " , ")

		_, err := load(t, "--api_key", "k")
		assert.Error(t, err)
	})
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--api_key", "k", "--nope"}},
		{"stray argument", []string{"--api_key", "k", "--", "extra"}},
		{"bad log level", []string{"--api_key", "k", "--log_level", "loud"}},
		{"negative timeout", []string{"--api_key", "k", "--timeout=-1s"}},
		{"empty widgets", []string{"--api_key", "k", "--widgets="}},
		{"missing list value", []string{"--api_key", "k", "--languages"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestExpandListArgs(t *testing.T) {
	got := expandListArgs(
		[]string{"--widgets", "a", "b", "--api_key", "k", "--languages", "en", "--", "--widgets", "x"},
		FlagWidgets, FlagLanguages,
	)
	assert.Equal(t, []string{"--widgets=a,b", "--api_key", "k", "--languages=en", "--", "--widgets", "x"}, got)
}

func TestClientConfig(t *testing.T) {
	cfg, err := load(t, "--api_key", "k", "--endpoint", "http://localhost/bulk", "--timeout", "5s")
	require.NoError(t, err)

	cc := cfg.ClientConfig()
	assert.Equal(t, "k", cc.APIKey)
	assert.Equal(t, "http://localhost/bulk", cc.Endpoint)
	assert.Equal(t, 5*time.Second, cc.Timeout)
}

func TestUsage(t *testing.T) {
	var b strings.Builder
	Usage(&b, "crawl-bulk-api", NewFlagSet("crawl-bulk-api"))

	out := b.String()
	assert.Contains(t, out, "Usage of crawl-bulk-api:")
	for _, name := range []string{FlagAPIKey, FlagWidgets, FlagLanguages} {
		assert.Contains(t, out, "--"+name)
	}
}
