// Package ui serves the campaign dashboard.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/ssot/internal/cache"
	"github.com/leapstack-labs/ssot/internal/ui/features/common"
	"github.com/leapstack-labs/ssot/internal/ui/notifier"
	"github.com/leapstack-labs/ssot/internal/ui/resources"
	"github.com/leapstack-labs/ssot/internal/ui/router"
	"github.com/leapstack-labs/ssot/internal/ui/session"
	"github.com/leapstack-labs/ssot/pkg/core"
)

const (
	debounceDelay   = 100 * time.Millisecond
	shutdownTimeout = 5 * time.Second
	sweepInterval   = time.Minute
)

// Source is the backend client: it applies edits and can be repointed when
// the configuration changes.
type Source interface {
	common.Updater
	SetEndpoints(endpoints map[core.DatasetID]string)
}

// Config holds configuration for the UI server.
type Config struct {
	Cache  *cache.Cache
	Source Source
	Store  core.Store
	// Notifier receives the ids of re-fetched datasets, normally from the
	// cache's OnChange hook. A new one is created when nil.
	Notifier  *notifier.Notifier
	Catalog   func(core.DatasetID) (core.DatasetSpec, bool)
	Audiences []string

	Port          int
	Watch         bool
	SessionSecret string
	SessionTTL    time.Duration
	PageSize      int

	// ConfigFile is watched when Watch is set. Reload re-reads it and
	// returns the new endpoint table.
	ConfigFile string
	Reload     func() (map[core.DatasetID]string, error)

	Logger *slog.Logger
}

// Server is the main UI server.
type Server struct {
	deps       *common.Deps
	cache      *cache.Cache
	source     Source
	port       int
	watch      bool
	ttl        time.Duration
	configFile string
	reload     func() (map[core.DatasetID]string, error)
	logger     *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	notify := cfg.Notifier
	if notify == nil {
		notify = notifier.New()
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(int(ttl / time.Second))
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	return &Server{
		deps: &common.Deps{
			Cache:     cfg.Cache,
			Source:    cfg.Source,
			Store:     cfg.Store,
			Notifier:  notify,
			Sessions:  sessionStore,
			Registry:  session.NewRegistry(),
			Catalog:   cfg.Catalog,
			Audiences: cfg.Audiences,
			PageSize:  cfg.PageSize,
			Logger:    logger,
			Dev:       resources.Dev,
		},
		cache:      cfg.Cache,
		source:     cfg.Source,
		port:       cfg.Port,
		watch:      cfg.Watch,
		ttl:        ttl,
		configFile: cfg.ConfigFile,
		reload:     cfg.Reload,
		logger:     logger,
	}
}

// Handler builds the router with middleware and every feature mounted.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.deps); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.configFile != "" && s.reload != nil {
		eg.Go(func() error {
			return s.watchConfig(egctx)
		})
	}

	eg.Go(func() error {
		return s.sweepSessions(egctx)
	})

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.deps.Notifier
}

// Sessions returns the registry of visitor view state.
func (s *Server) Sessions() *session.Registry {
	return s.deps.Registry
}

// sweepSessions drops view state of visitors idle for longer than the TTL.
func (s *Server) sweepSessions(ctx context.Context) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.deps.Registry.Sweep(s.ttl); n > 0 {
				s.logger.Debug("evicted idle sessions", "count", n, "remaining", s.deps.Registry.Len())
			}
		}
	}
}

// watchConfig reloads the endpoints when the config file changes. The
// directory is watched because editors often replace the file on save.
func (s *Server) watchConfig(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	target := filepath.Clean(s.configFile)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.logger.Error("failed to watch config file", "path", target, "error", err)
		<-ctx.Done()
		return nil
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.applyConfig(ctx)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// applyConfig repoints the client, drops every cached dataset and fetches
// them again so open tables pick up the new data.
func (s *Server) applyConfig(ctx context.Context) {
	s.logger.Info("config changed, reloading endpoints", "path", s.configFile)

	endpoints, err := s.reload()
	if err != nil {
		s.logger.Error("failed to reload config", "error", err)
		return
	}
	s.source.SetEndpoints(endpoints)
	s.cache.InvalidateAll()

	var failed []core.DatasetID
	for _, id := range core.DatasetIDs() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.cache.Get(ctx, id); err != nil {
			failed = append(failed, id)
		}
	}
	// successful fetches were announced by the cache
	s.deps.Notifier.Broadcast(failed...)
}
