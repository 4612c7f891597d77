package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ssot/pkg/core"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "ssot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultPort, cfg.UI.Port)
	assert.Equal(t, DefaultPageSize, cfg.UI.PageSize)
	assert.Equal(t, DefaultSessionTTL, cfg.UI.SessionTTL)
	assert.True(t, cfg.UI.AutoOpen)
	assert.Equal(t, DefaultMirror, cfg.Cache.Mirror)
	assert.True(t, filepath.IsAbs(cfg.StatePath), "state path should be resolved: %s", cfg.StatePath)
	assert.Equal(t, "", GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, `output: json
base_url: http://backend:4000
state_path: data/state.db
timeout: 15s
datasets:
  radia-plan:
    channel_column: MEDIA_CHANNEL
  media-plan:
    url: http://other:5000/api/mediaplan
ui:
  port: 9000
  page_size: 200
cache:
  mirror: [radia-plan, media-plan]
audiences: [Gamers, Foodies]
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, filepath.Join(dir, "data", "state.db"), cfg.StatePath)
	assert.Equal(t, 9000, cfg.UI.Port)
	assert.Equal(t, 200, cfg.UI.PageSize)
	assert.True(t, cfg.UI.Watch, "unset ui keys keep their defaults")
	assert.Equal(t, []core.DatasetID{core.RadiaPlan, core.MediaPlan}, cfg.MirrorIDs())
	assert.Equal(t, []string{"Gamers", "Foodies"}, cfg.AudienceOptions())
	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, dir, cfg.ProjectRoot)

	endpoints := cfg.Endpoints()
	assert.Equal(t, "http://backend:4000/api/radiaplan", endpoints[core.RadiaPlan])
	assert.Equal(t, "http://other:5000/api/mediaplan", endpoints[core.MediaPlan])

	spec, ok := cfg.DatasetSpec(core.RadiaPlan)
	require.True(t, ok)
	channel, ok := spec.Dimension("channel")
	require.True(t, ok)
	assert.Equal(t, "MEDIA_CHANNEL", channel.Column)
}

func TestLoadConfig_UpwardSearch(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeConfig(t, root, "output: markdown\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "markdown", cfg.OutputFormat)
	assert.Equal(t, filepath.Join(root, DefaultStateFile), cfg.StatePath)
}

func TestLoadConfig_MemoryStateUntouched(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, t.TempDir(), "state_path: \":memory:\"\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.StatePath)
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, t.TempDir(), `output: text
ui:
  port: 9000
`)
	t.Setenv("SSOT_OUTPUT", "json")
	t.Setenv("SSOT_UI_PORT", "9100")
	t.Setenv("SSOT_DATASETS_CAMPAIGN_OVERVIEW_URL", "http://env:1/api/campaign")
	t.Setenv("SSOT_CACHE_MIRROR", "radia-plan,targeting-analytics")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat, "env var should override config file")
	assert.Equal(t, 9100, cfg.UI.Port)
	assert.Equal(t, "http://env:1/api/campaign", cfg.Endpoints()[core.CampaignOverview])
	assert.Equal(t, []string{"radia-plan", "targeting-analytics"}, cfg.Cache.Mirror)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, "output: text\n")
	t.Setenv("SSOT_OUTPUT", "markdown")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "")
	flags.String("state", "", "")
	flags.Int("port", 0, "")
	flags.Bool("no-browser", false, "")
	flags.Bool("watch", true, "")
	require.NoError(t, flags.Set("output", "json"))
	require.NoError(t, flags.Set("port", "7000"))
	require.NoError(t, flags.Set("no-browser", "true"))
	require.NoError(t, flags.Set("state", ":memory:"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat, "flag value should override config file and env var")
	assert.Equal(t, 7000, cfg.UI.Port)
	assert.False(t, cfg.UI.AutoOpen)
	assert.True(t, cfg.UI.Watch, "unchanged flag must not override the default")
	assert.Equal(t, ":memory:", cfg.StatePath)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, t.TempDir(), "output: text\n")
	t.Setenv("SSOT_OUTPUT", "markdown")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "json", "")

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.OutputFormat, "env var should be used when flag is not set")
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"bad yaml", "output: [", "error reading config file"},
		{"unknown output", "output: xml\n", "output must be one of"},
		{"unknown dataset", "datasets:\n  sales:\n    url: http://x/y\n", `unknown dataset "sales"`},
		{"bad mirror", "cache:\n  mirror: [nope]\n", "cache.mirror"},
		{"bad page size", "ui:\n  page_size: 75\n", "ui.page_size"},
		{"bad duration", "timeout: soon\n", "unable to decode config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := LoadConfig(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		errSubstr string
	}{
		{"defaults", *Defaults(), ""},
		{"bad log level", Config{OutputFormat: "auto", LogLevel: "trace"}, "log_level"},
		{"negative timeout", Config{OutputFormat: "auto", Timeout: -time.Second}, "timeout"},
		{"base url scheme", Config{OutputFormat: "auto", BaseURL: "ftp://x"}, "unsupported scheme"},
		{"base url host", Config{OutputFormat: "auto", BaseURL: "http://"}, "missing host"},
		{"port range", Config{OutputFormat: "auto", UI: &UIConfig{Port: 70000}}, "ui.port"},
		{
			"dataset url",
			Config{OutputFormat: "auto", Datasets: map[string]DatasetConfig{"media-plan": {URL: "nope"}}},
			"datasets.media-plan.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SSOT_OUTPUT", "output"},
		{"SSOT_STATE_PATH", "state_path"},
		{"SSOT_UI_AUTO_OPEN", "ui.auto_open"},
		{"SSOT_CACHE_MIRROR", "cache.mirror"},
		{"SSOT_DATASETS_RADIA_PLAN_CHANNEL_COLUMN", "datasets.radia-plan.channel_column"},
		{"SSOT_DATASETS_TARGETING_ANALYTICS_URL", "datasets.targeting-analytics.url"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envKey(tt.in))
		})
	}
}

func TestGetUIConfig(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DefaultUIConfig(), cfg.GetUIConfig())

	cfg.UI = &UIConfig{Port: 1234}
	ui := cfg.GetUIConfig()
	assert.Equal(t, 1234, ui.Port)
	assert.Equal(t, DefaultPageSize, ui.PageSize)
	assert.Equal(t, DefaultSessionTTL, ui.SessionTTL)
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
