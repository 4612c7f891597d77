package history

import (
	"net/http"
	"time"

	"github.com/leapstack-labs/ssot/internal/ui/features/common"
	"github.com/leapstack-labs/ssot/internal/ui/views"
	"github.com/leapstack-labs/ssot/pkg/core"
)

// pageLimit caps the number of journal entries shown.
const pageLimit = 200

// Handlers provides HTTP handlers for the history feature.
type Handlers struct {
	deps *common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// HistoryPage lists the most recent edits, optionally for one dataset.
func (h *Handlers) HistoryPage(w http.ResponseWriter, r *http.Request) {
	filter := core.EditFilter{Limit: pageLimit}
	selected := r.URL.Query().Get("dataset")
	if selected != "" {
		id, err := core.ParseDatasetID(selected)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.Dataset = id
	}

	layout := h.deps.Layout("History", "")
	layout.HistoryActive = true
	page := views.HistoryPageData{Layout: layout, Dataset: selected}
	for _, id := range core.DatasetIDs() {
		page.Datasets = append(page.Datasets, views.Option{Value: string(id), Selected: string(id) == selected})
	}

	if h.deps.Store == nil {
		page.Error = "Edit history is not available without a state database"
	} else {
		edits, err := h.deps.Store.ListEdits(r.Context(), filter)
		if err != nil {
			h.deps.Log().Error("failed to list edits", "error", err)
			page.Error = "Failed to load edit history"
		}
		for _, e := range edits {
			page.Edits = append(page.Edits, views.EditRow{
				Time:    e.CreatedAt.Local().Format(time.DateTime),
				Dataset: string(e.Dataset),
				Action:  e.Action,
				Status:  string(e.Status),
				Error:   e.Error,
			})
		}
	}

	if err := views.HistoryPage(page).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
