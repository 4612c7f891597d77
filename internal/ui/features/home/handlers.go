package home

import (
	"context"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/ssot/internal/ui/features/common"
	"github.com/leapstack-labs/ssot/internal/ui/views"
	"github.com/leapstack-labs/ssot/pkg/core"
)

// Handlers provides HTTP handlers for the home feature.
type Handlers struct {
	deps *common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// HomePage renders the landing page. The pickers load over SSE.
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	page := views.LandingPageData{Layout: h.deps.Layout("Home", "")}
	if err := views.LandingPage(page).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Landing loads the Radia plan and patches in the pickers.
func (h *Handlers) Landing(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.send(r.Context(), sse, nil, false)
}

// Pick narrows the pickers after one of them changed.
func (h *Handlers) Pick(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	picks := picksFromForm(r.PostForm)

	sse := datastar.NewSSE(w, r)
	h.send(r.Context(), sse, picks, false)
}

// Retry re-fetches the Radia plan after a failure.
func (h *Handlers) Retry(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.send(r.Context(), sse, nil, true)
}

func (h *Handlers) send(ctx context.Context, sse *datastar.ServerSentEventGenerator, picks map[string]string, reload bool) {
	spec, ok := h.deps.Spec(core.RadiaPlan)
	if !ok {
		_ = sse.ConsoleError(errUnknownDataset)
		return
	}

	if reload || h.deps.Cache.Peek(core.RadiaPlan).Dataset == nil {
		if err := sse.PatchElementTempl(views.Landing(views.LandingData{Status: "pending"})); err != nil {
			return
		}
	}

	var (
		ds  *core.Dataset
		err error
	)
	if reload {
		ds, err = h.deps.Cache.Reload(ctx, core.RadiaPlan)
	} else {
		ds, err = h.deps.Cache.Get(ctx, core.RadiaPlan)
	}
	if err != nil {
		_ = sse.PatchElementTempl(views.Landing(views.LandingData{
			Status: "failed",
			Error:  common.ErrorText(err),
		}))
		return
	}

	if err := sse.PatchElementTempl(views.Landing(buildLanding(spec, ds, picks))); err != nil {
		_ = sse.ConsoleError(err)
	}
}
