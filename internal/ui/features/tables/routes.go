package tables

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/ssot/internal/ui/features/common"
)

// SetupRoutes configures routes for the table tabs.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/table", handlers.TablePage)
	router.Get("/table/updates", handlers.Updates)

	router.Route("/table/{dataset}", func(r chi.Router) {
		r.Get("/", handlers.Content)
		r.Post("/retry", handlers.Retry)

		r.Post("/dropdown/{dim}/toggle", handlers.ToggleDropdown)
		r.Post("/dropdown/{dim}/close", handlers.CloseDropdown)
		r.Post("/dropdown/{dim}/search", handlers.Search)
		r.Post("/dropdown/{dim}/option", handlers.ToggleOption)
		r.Post("/dropdown/{dim}/select-all", handlers.SelectAll)

		r.Post("/reset", handlers.Reset)
		r.Post("/clear", handlers.Clear)
		r.Post("/page", handlers.Page)
		r.Post("/page-size", handlers.PageSize)
		r.Post("/sort", handlers.Sort)
		r.Get("/export.csv", handlers.Export)

		r.Get("/rows/{row}/edit", handlers.OpenEditor)
		r.Post("/rows/{row}/edit", handlers.SubmitEdit)
		r.Post("/dialog/close", handlers.CloseEditor)
	})

	return nil
}
