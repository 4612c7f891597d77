// Package router sets up HTTP routes for the UI server.
package router

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/ssot/internal/ui/features/common"
	historyFeature "github.com/leapstack-labs/ssot/internal/ui/features/history"
	homeFeature "github.com/leapstack-labs/ssot/internal/ui/features/home"
	tablesFeature "github.com/leapstack-labs/ssot/internal/ui/features/tables"
	"github.com/leapstack-labs/ssot/internal/ui/resources"
)

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	if deps.Dev {
		setupReload(router)
	}

	router.Handle("/static/*", resources.Handler())

	if err := homeFeature.SetupRoutes(router, deps); err != nil {
		return err
	}
	if err := tablesFeature.SetupRoutes(router, deps); err != nil {
		return err
	}
	if err := historyFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	return nil
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
