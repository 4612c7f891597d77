package home

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/ssot/internal/ui/features/common"
)

// SetupRoutes configures routes for the home feature.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/", handlers.HomePage)
	router.Get("/landing", handlers.Landing)
	router.Post("/landing", handlers.Pick)
	router.Post("/landing/retry", handlers.Retry)

	return nil
}
