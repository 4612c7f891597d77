package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/ssot/internal/cli/config"
	"github.com/leapstack-labs/ssot/pkg/core"
)

// generateConfigDocs writes the ssot.yaml reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := generateConfigurationDoc(outDir); err != nil {
		return fmt.Errorf("failed to generate configuration.md: %w", err)
	}
	log.Printf("  Generated configuration.md")
	return nil
}

// ConfigField describes one key of ssot.yaml.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
	Category    string // "general", "ui", "cache", "datasets"
}

func getConfigSchema() []ConfigField {
	ui := config.DefaultUIConfig()
	return []ConfigField{
		{Name: "base_url", Type: "string", Description: "Base URL joined with each dataset path", Category: "general"},
		{Name: "state_path", Type: "string", Default: config.DefaultStateFile, Description: "SQLite database holding snapshots and the edit journal", Category: "general"},
		{Name: "output", Type: "string", Default: config.DefaultOutput, Description: "Output format: auto, text, markdown, json", Category: "general"},
		{Name: "log_level", Type: "string", Description: "debug, info, warn or error", Category: "general"},
		{Name: "timeout", Type: "duration", Description: "HTTP timeout of one backend request", Category: "general"},
		{Name: "offline", Type: "bool", Default: "false", Description: "Serve mirrored snapshots instead of fetching", Category: "general"},
		{Name: "audiences", Type: "[]string", Description: "Choices offered by the audience editor", Category: "general"},

		{Name: "ui.port", Type: "int", Default: strconv.Itoa(ui.Port), Description: "Dashboard port", Category: "ui"},
		{Name: "ui.auto_open", Type: "bool", Default: strconv.FormatBool(ui.AutoOpen), Description: "Open a browser on start", Category: "ui"},
		{Name: "ui.watch", Type: "bool", Default: strconv.FormatBool(ui.Watch), Description: "Reload endpoints when the config file changes", Category: "ui"},
		{Name: "ui.page_size", Type: "int", Default: strconv.Itoa(ui.PageSize), Description: "Rows per table page", Category: "ui"},
		{Name: "ui.session_ttl", Type: "duration", Default: ui.SessionTTL.String(), Description: "Idle time after which a browser session is dropped", Category: "ui"},
		{Name: "ui.session_secret", Type: "string", Description: "Key signing the session cookie", Category: "ui"},

		{Name: "cache.mirror", Type: "[]string", Default: fmt.Sprint(config.DefaultMirror), Description: "Datasets copied into the state database after each fetch", Category: "cache"},

		{Name: "datasets.<id>.url", Type: "string", Description: "Full endpoint overriding base_url for one dataset", Category: "datasets"},
		{Name: "datasets.<id>.channel_column", Type: "string", Description: "Column read by the channel dimension", Category: "datasets"},
	}
}

func fieldRows(fields []ConfigField, category string) [][]string {
	var rows [][]string
	for _, f := range fields {
		if f.Category != category {
			continue
		}
		defVal := f.Default
		if defVal == "" {
			defVal = "-"
		}
		rows = append(rows, []string{InlineCode(f.Name), f.Type, InlineCode(defVal), f.Description})
	}
	return rows
}

// generateConfigurationDoc generates the configuration reference page.
func generateConfigurationDoc(outDir string) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Configuration", "ssot configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("ssot reads `ssot.yaml` from the current directory or the nearest parent. Flags override environment variables, which override the file.")

	fields := getConfigSchema()
	headers := []string{"Field", "Type", "Default", "Description"}

	w.Header(2, "General")
	w.Table(headers, fieldRows(fields, "general"))

	w.Header(2, "Dashboard")
	w.Table(headers, fieldRows(fields, "ui"))

	w.Header(2, "Cache")
	w.Table(headers, fieldRows(fields, "cache"))

	w.Header(2, "Datasets")
	w.Paragraph("Per-dataset overrides live under `datasets`, keyed by dataset ID:")
	var ids []string
	for _, spec := range core.Specs() {
		ids = append(ids, fmt.Sprintf("%s (%s)", InlineCode(string(spec.ID)), spec.Label))
	}
	w.BulletList(ids)
	w.Table(headers, fieldRows(fields, "datasets"))

	w.Header(2, "Example")
	w.CodeBlock("yaml", `base_url: https://ssot.example.com
state_path: .ssot/state.db
ui:
  port: 8765
  session_ttl: 2h
cache:
  mirror: [radia-plan]
datasets:
  campaign-overview:
    url: https://reporting.example.com/api/campaign`)

	filename := filepath.Join(outDir, "configuration.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}
