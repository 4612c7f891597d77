package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/google/uuid"
	"github.com/leapstack-labs/ssot/internal/cache"
	"github.com/leapstack-labs/ssot/internal/cli/config"
	"github.com/leapstack-labs/ssot/internal/ui"
	"github.com/leapstack-labs/ssot/internal/ui/notifier"
	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the campaign dashboard",
		Long: `Start a local web server with the campaign dashboard.

The dashboard provides:
- A landing page to pick an agency, advertiser and channel
- One tab per dataset with cross-filtering dropdowns
- Sorting, paging and CSV export
- Row editing for media plan and targeting data
- A history of submitted edits`,
		Example: `  # Start the dashboard on the default port
  ssot serve

  # Start on a custom port without opening a browser
  ssot serve --port 3000 --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload endpoints when the config file changes")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	// Get UI config with defaults
	uiCfg := cfg.GetUIConfig()

	// CLI flags override config file
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	autoOpen := uiCfg.AutoOpen
	if opts.NoBrowser {
		autoOpen = false
	}

	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client := newClient(cfg, logger)
	var fetcher cache.Fetcher = client
	if cfg.Offline {
		fetcher = cache.StoreFetcher{Store: store}
	}

	notify := notifier.New()
	datasets := cache.New(cache.Config{
		Fetcher: fetcher,
		Store:   store,
		Mirror:  cfg.MirrorIDs(),
		OnChange: func(id core.DatasetID) {
			notify.Broadcast(id)
		},
		Logger: logger,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if n, err := datasets.Warm(ctx); err != nil {
		logger.Warn("failed to warm cache", "error", err)
	} else if n > 0 {
		logger.Info("cache warmed from snapshots", "datasets", n)
	}

	secret := uiCfg.SessionSecret
	if secret == "" {
		// sessions do not survive a restart without a configured secret
		secret = uuid.NewString()
	}

	flags := cmd.Flags()
	server := ui.NewServer(ui.Config{
		Cache:    datasets,
		Source:   client,
		Store:    store,
		Notifier: notify,
		Catalog: func(id core.DatasetID) (core.DatasetSpec, bool) {
			return getConfig().DatasetSpec(id)
		},
		Audiences:     cfg.AudienceOptions(),
		Port:          port,
		Watch:         watch,
		SessionSecret: secret,
		SessionTTL:    uiCfg.SessionTTL,
		PageSize:      uiCfg.PageSize,
		ConfigFile:    config.GetConfigFileUsed(),
		Reload: func() (map[core.DatasetID]string, error) {
			next, err := config.LoadConfig(config.GetConfigFileUsed(), flags)
			if err != nil {
				return nil, err
			}
			return next.Endpoints(), nil
		},
		Logger: logger,
	})

	if autoOpen {
		url := fmt.Sprintf("http://localhost:%d", port)
		go openBrowser(url)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Starting dashboard on http://localhost:%d\n", port)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	return server.Serve(ctx)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
