// Package config provides configuration management for the SSOT CLI and
// dashboard server.
package config

import (
	"time"

	"github.com/leapstack-labs/ssot/internal/source"
	"github.com/leapstack-labs/ssot/pkg/core"
)

// UIConfig holds configuration for the dashboard server.
type UIConfig struct {
	Port          int           `koanf:"port" yaml:"port"`
	AutoOpen      bool          `koanf:"auto_open" yaml:"auto_open"`
	Watch         bool          `koanf:"watch" yaml:"watch"`
	SessionSecret string        `koanf:"session_secret" yaml:"session_secret,omitempty"`
	PageSize      int           `koanf:"page_size" yaml:"page_size"`
	SessionTTL    time.Duration `koanf:"session_ttl" yaml:"session_ttl"`
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:       DefaultPort,
		AutoOpen:   true,
		Watch:      true,
		PageSize:   DefaultPageSize,
		SessionTTL: DefaultSessionTTL,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = DefaultPort
	}
	if ui.PageSize == 0 {
		ui.PageSize = DefaultPageSize
	}
	if ui.SessionTTL == 0 {
		ui.SessionTTL = DefaultSessionTTL
	}
	return ui
}

// DatasetConfig overrides the endpoint or columns of one dataset.
type DatasetConfig struct {
	URL           string `koanf:"url" yaml:"url,omitempty"`
	ChannelColumn string `koanf:"channel_column" yaml:"channel_column,omitempty"`
}

// CacheConfig controls dataset mirroring.
type CacheConfig struct {
	Mirror []string `koanf:"mirror" yaml:"mirror"`
}

// Config holds all configuration options.
type Config struct {
	Verbose      bool                     `koanf:"verbose" yaml:"verbose"`
	OutputFormat string                   `koanf:"output" yaml:"output"`
	LogLevel     string                   `koanf:"log_level" yaml:"log_level,omitempty"`
	StatePath    string                   `koanf:"state_path" yaml:"state_path"`
	Timeout      time.Duration            `koanf:"timeout" yaml:"timeout"`
	Offline      bool                     `koanf:"offline" yaml:"offline"`
	BaseURL      string                   `koanf:"base_url" yaml:"base_url"`
	Datasets     map[string]DatasetConfig `koanf:"datasets" yaml:"datasets,omitempty"`
	UI           *UIConfig                `koanf:"ui" yaml:"ui"`
	Cache        CacheConfig              `koanf:"cache" yaml:"cache"`
	Audiences    []string                 `koanf:"audiences" yaml:"audiences,omitempty"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// Default configuration values.
const (
	DefaultStateFile  = ".ssot/state.db"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultPort       = 8765
	DefaultPageSize   = 100
	DefaultSessionTTL = 2 * time.Hour
)

// DefaultMirror lists the datasets mirrored when cache.mirror is unset.
var DefaultMirror = []string{string(core.RadiaPlan)}

// Endpoints returns the GET URL of every dataset: an explicit
// datasets.<id>.url wins, otherwise base_url plus the catalog path.
func (c *Config) Endpoints() map[core.DatasetID]string {
	base := c.BaseURL
	if base == "" {
		base = source.DefaultBaseURL
	}
	out := source.DefaultEndpoints(base)
	for id, ds := range c.Datasets {
		if ds.URL != "" {
			out[core.DatasetID(id)] = ds.URL
		}
	}
	return out
}

// DatasetSpec returns the catalog entry of id with configured overrides
// applied.
func (c *Config) DatasetSpec(id core.DatasetID) (core.DatasetSpec, bool) {
	spec, ok := core.Spec(id)
	if !ok {
		return core.DatasetSpec{}, false
	}
	if ds, ok := c.Datasets[string(id)]; ok {
		spec = spec.WithChannelColumn(ds.ChannelColumn)
	}
	return spec, true
}

// MirrorIDs returns cache.mirror as dataset IDs.
func (c *Config) MirrorIDs() []core.DatasetID {
	out := make([]core.DatasetID, 0, len(c.Cache.Mirror))
	for _, m := range c.Cache.Mirror {
		out = append(out, core.DatasetID(m))
	}
	return out
}

// AudienceOptions returns the configured audience list or the built-in one.
func (c *Config) AudienceOptions() []string {
	if len(c.Audiences) > 0 {
		return c.Audiences
	}
	return core.DefaultAudiences()
}

// Defaults returns the configuration written by `ssot init`.
func Defaults() *Config {
	return &Config{
		OutputFormat: DefaultOutput,
		StatePath:    DefaultStateFile,
		BaseURL:      source.DefaultBaseURL,
		UI:           DefaultUIConfig(),
		Cache:        CacheConfig{Mirror: append([]string(nil), DefaultMirror...)},
	}
}
