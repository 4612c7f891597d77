// Package history provides the edit journal page.
package history

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/ssot/internal/ui/features/common"
)

// SetupRoutes configures routes for the history feature.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	handlers := NewHandlers(deps)
	router.Get("/history", handlers.HistoryPage)
	return nil
}
