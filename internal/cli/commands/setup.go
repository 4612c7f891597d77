package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/ssot/internal/cache"
	"github.com/leapstack-labs/ssot/internal/cli/config"
	"github.com/leapstack-labs/ssot/internal/cli/output"
	"github.com/leapstack-labs/ssot/internal/source"
	"github.com/leapstack-labs/ssot/internal/state"
	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Store    *state.SQLiteStore
	Client   *source.Client
	Cache    *cache.Cache
}

// NewCommandContext creates a CommandContext with the state store, the
// dataset client and a cache over them. With --offline the cache reads
// mirrored snapshots instead of the network.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutData(cmd)
	cfg := cmdCtx.Cfg

	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	client := newClient(cfg, cmdCtx.Logger)
	var fetcher cache.Fetcher = client
	if cfg.Offline {
		fetcher = cache.StoreFetcher{Store: store}
	}

	cmdCtx.Store = store
	cmdCtx.Client = client
	cmdCtx.Cache = cache.New(cache.Config{
		Fetcher: fetcher,
		Store:   store,
		Mirror:  cfg.MirrorIDs(),
		Logger:  cmdCtx.Logger,
	})

	cleanup := func() {
		_ = store.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutData creates a CommandContext without a store or
// client. Useful for commands that never touch datasets.
func NewCommandContextWithoutData(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Load resolves a dataset name and returns its catalog entry and rows.
func (c *CommandContext) Load(ctx context.Context, name string) (core.DatasetSpec, *core.Dataset, error) {
	id, err := core.ParseDatasetID(name)
	if err != nil {
		return core.DatasetSpec{}, nil, err
	}
	spec, _ := c.Cfg.DatasetSpec(id)

	ds, err := c.Cache.Get(ctx, id)
	if err != nil {
		return spec, nil, err
	}
	return spec, ds, nil
}

// Helper functions shared across commands

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded (for example when a command runs in isolation).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Defaults()
}

func openStore(cfg *config.Config) (*state.SQLiteStore, error) {
	// Ensure state directory exists
	if cfg.StatePath != ":memory:" {
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store, err := state.Open(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return store, nil
}

func newClient(cfg *config.Config, logger *slog.Logger) *source.Client {
	return source.New(source.Config{
		Endpoints: cfg.Endpoints(),
		Timeout:   cfg.Timeout,
		Logger:    logger,
	})
}

// datasetCompletion completes dataset names for positional arguments.
func datasetCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ids := core.DatasetIDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
