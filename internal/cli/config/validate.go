package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/leapstack-labs/ssot/pkg/grid"
)

var outputFormats = map[string]bool{"auto": true, "text": true, "markdown": true, "json": true}

var logLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if !outputFormats[c.OutputFormat] {
		errs = append(errs, fmt.Errorf("output must be one of auto, text, markdown, json; got %q", c.OutputFormat))
	}
	if !logLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative"))
	}
	if c.BaseURL != "" {
		if err := validateURL(c.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("base_url: %w", err))
		}
	}

	for id, ds := range c.Datasets {
		if _, err := core.ParseDatasetID(id); err != nil {
			errs = append(errs, fmt.Errorf("datasets: %w", err))
			continue
		}
		if ds.URL != "" {
			if err := validateURL(ds.URL); err != nil {
				errs = append(errs, fmt.Errorf("datasets.%s.url: %w", id, err))
			}
		}
	}

	for _, m := range c.Cache.Mirror {
		if _, err := core.ParseDatasetID(m); err != nil {
			errs = append(errs, fmt.Errorf("cache.mirror: %w", err))
		}
	}

	if ui := c.UI; ui != nil {
		if ui.Port < 0 || ui.Port > 65535 {
			errs = append(errs, fmt.Errorf("ui.port out of range: %d", ui.Port))
		}
		if ui.PageSize != 0 && !grid.ValidPageSize(ui.PageSize) {
			errs = append(errs, fmt.Errorf("ui.page_size must be one of %v; got %d", grid.PageSizes, ui.PageSize))
		}
		if ui.SessionTTL < 0 {
			errs = append(errs, fmt.Errorf("ui.session_ttl must not be negative"))
		}
	}

	return errors.Join(errs...)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
