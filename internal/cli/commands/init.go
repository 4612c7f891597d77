package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/ssot/internal/cli/config"
	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configFileName is the file written by init.
const configFileName = "ssot.yaml"

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var baseURL string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a default ssot.yaml",
		Long: `Write an ssot.yaml holding the default configuration.

Every dataset endpoint is listed explicitly so it can be pointed at another
backend. Commands run anywhere below the directory pick the file up.`,
		Example: `  # Initialize in current directory
  ssot init

  # Point every dataset at a staging backend
  ssot init --base-url https://staging.example.com

  # Force overwrite existing config
  ssot init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, baseURL, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL of the dataset backends")

	return cmd
}

// initDataset is the init file entry of one dataset.
type initDataset struct {
	URL string `yaml:"url"`
}

// initUI mirrors config.UIConfig with durations as text.
type initUI struct {
	Port       int    `yaml:"port"`
	AutoOpen   bool   `yaml:"auto_open"`
	Watch      bool   `yaml:"watch"`
	PageSize   int    `yaml:"page_size"`
	SessionTTL string `yaml:"session_ttl"`
}

type initFile struct {
	Output    string                 `yaml:"output"`
	StatePath string                 `yaml:"state_path"`
	Timeout   string                 `yaml:"timeout"`
	BaseURL   string                 `yaml:"base_url"`
	Datasets  map[string]initDataset `yaml:"datasets"`
	UI        initUI                 `yaml:"ui"`
	Cache     config.CacheConfig     `yaml:"cache"`
}

// renderInitFile returns the YAML written by init.
func renderInitFile(baseURL string) ([]byte, error) {
	cfg := config.Defaults()
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := initFile{
		Output:    cfg.OutputFormat,
		StatePath: cfg.StatePath,
		Timeout:   "30s",
		BaseURL:   cfg.BaseURL,
		Datasets:  make(map[string]initDataset),
		UI: initUI{
			Port:       cfg.UI.Port,
			AutoOpen:   cfg.UI.AutoOpen,
			Watch:      cfg.UI.Watch,
			PageSize:   cfg.UI.PageSize,
			SessionTTL: cfg.UI.SessionTTL.String(),
		},
		Cache: cfg.Cache,
	}
	for id, url := range cfg.Endpoints() {
		f.Datasets[string(id)] = initDataset{URL: url}
	}

	var buf bytes.Buffer
	buf.WriteString("# SSOT dashboard configuration\n")
	buf.WriteString(fmt.Sprintf("# Datasets: %v\n", core.DatasetIDs()))
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func runInit(cmd *cobra.Command, dir, baseURL string, force bool) error {
	r := NewCommandContextWithoutData(cmd).Renderer

	// Create directory if specified and doesn't exist
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Check if config already exists
	configPath := filepath.Join(dir, configFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", configFileName)
	}

	content, err := renderInitFile(baseURL)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	r.StatusLine(configPath, "success", "")
	r.Println("")
	r.Success("SSOT configuration initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Point datasets.<id>.url at your backends")
	r.Println("  2. Run 'ssot datasets' to check the endpoints")
	r.Println("  3. Run 'ssot serve' to open the dashboard")

	return nil
}
