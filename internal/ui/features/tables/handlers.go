package tables

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/ssot/internal/ui/features/common"
	"github.com/leapstack-labs/ssot/internal/ui/session"
	"github.com/leapstack-labs/ssot/internal/ui/views"
	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/leapstack-labs/ssot/pkg/crossfilter"
	"github.com/leapstack-labs/ssot/pkg/grid"
)

// Handlers provides HTTP handlers for the table tabs.
type Handlers struct {
	deps *common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// searchSignals are the Datastar signals sent by a dropdown search box.
type searchSignals struct {
	Search string `json:"search"`
}

// TablePage renders the tab page. Drill-down values in the query replace
// the session presets and reset every selection.
func (h *Handlers) TablePage(w http.ResponseWriter, r *http.Request) {
	id := core.RadiaPlan
	if tab := r.URL.Query().Get("tab"); tab != "" {
		id = core.DatasetID(tab)
	}
	spec, ok := h.deps.Spec(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	var (
		st  *session.State
		err error
	)
	if presets, ok := common.PresetsFromQuery(r.URL.Query()); ok {
		st, err = h.deps.SavePresets(w, r, presets)
	} else {
		st, err = h.deps.LoadState(w, r, true)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := views.TablePageData{
		Layout:     h.deps.Layout(spec.Label, spec.ID),
		Dataset:    string(spec.ID),
		Label:      spec.Label,
		ContentURL: baseURL(spec.ID),
		UpdatesURL: "/table/updates?tab=" + string(spec.ID),
	}
	st.Lock()
	presets := st.Presets()
	for _, d := range common.PresetDimensions {
		if v := presets[d.Name]; v != "" {
			page.Presets = append(page.Presets, views.Preset{Label: d.Label, Value: v})
		}
	}
	st.Unlock()

	if err := views.TablePage(page).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Content loads a dataset and patches in its table.
func (h *Handlers) Content(w http.ResponseWriter, r *http.Request) {
	h.load(w, r, false)
}

// Retry re-fetches a dataset after a failure.
func (h *Handlers) Retry(w http.ResponseWriter, r *http.Request) {
	h.load(w, r, true)
}

func (h *Handlers) load(w http.ResponseWriter, r *http.Request, reload bool) {
	spec, ok := h.spec(w, r)
	if !ok {
		return
	}
	st, err := h.deps.LoadState(w, r, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	if reload || h.deps.Cache.Peek(spec.ID).Dataset == nil {
		if err := sse.PatchElementTempl(views.TableContent(pendingTable(spec))); err != nil {
			return
		}
	}

	var ds *core.Dataset
	if reload {
		ds, err = h.deps.Cache.Reload(ctx, spec.ID)
	} else {
		ds, err = h.deps.Cache.Get(ctx, spec.ID)
	}
	if err != nil {
		_ = sse.PatchElementTempl(views.TableContent(failedTable(spec, common.ErrorText(err))))
		return
	}

	st.Lock()
	data := buildTable(spec, st.View(spec, ds, h.deps.PageSize), h.deps.Audiences)
	st.Unlock()

	if err := sse.PatchElementTempl(views.TableContent(data)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Updates is the long-lived SSE endpoint of a tab page. It re-renders the
// table whenever its dataset is re-fetched. The initial content is loaded
// by Content, so nothing is sent up front.
func (h *Handlers) Updates(w http.ResponseWriter, r *http.Request) {
	id := core.DatasetID(r.URL.Query().Get("tab"))
	spec, ok := h.deps.Spec(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	st, err := h.deps.LoadState(w, r, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)

	updates := h.deps.Notifier.Subscribe()
	defer h.deps.Notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case changed := <-updates:
			if changed != spec.ID {
				continue
			}
			if err := h.sendCached(sse, st, spec); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// sendCached re-renders the table from the cache without fetching.
func (h *Handlers) sendCached(sse *datastar.ServerSentEventGenerator, st *session.State, spec core.DatasetSpec) error {
	entry := h.deps.Cache.Peek(spec.ID)
	if entry.Dataset == nil {
		if entry.Err != nil {
			return sse.PatchElementTempl(views.TableContent(failedTable(spec, common.ErrorText(entry.Err))))
		}
		return nil
	}

	st.Lock()
	data := buildTable(spec, st.View(spec, entry.Dataset, h.deps.PageSize), h.deps.Audiences)
	st.Unlock()
	return sse.PatchElementTempl(views.TableContent(data))
}

// ToggleDropdown opens or closes the picker of one dimension. Opening one
// closes the others.
func (h *Handlers) ToggleDropdown(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dim")
	h.update(w, r, func(v *session.View) error {
		if _, ok := v.Dropdowns.Get(name); !ok {
			return errUnknownDimension(name)
		}
		v.Dropdowns.Toggle(name, v.Filter.Disabled(name))
		return nil
	}, resetSearch)
}

// CloseDropdown closes the picker of one dimension.
func (h *Handlers) CloseDropdown(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dim")
	h.update(w, r, func(v *session.View) error {
		d, ok := v.Dropdowns.Get(name)
		if !ok {
			return errUnknownDimension(name)
		}
		d.Close()
		return nil
	}, resetSearch)
}

// Search narrows the options shown by an open picker. Only the picker is
// patched so the search box keeps focus.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var signals searchSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	spec, ok := h.spec(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "dim")
	st, ds, ok := h.loaded(w, r, spec)
	if !ok {
		return
	}

	st.Lock()
	v := st.View(spec, ds, h.deps.PageSize)
	d, found := v.Dropdowns.Get(name)
	dim, active := v.Filter.Dimension(name)
	var data views.DropdownData
	if found && active {
		d.SetSearch(signals.Search)
		data = buildDropdown(spec.ID, v, dim)
	}
	st.Unlock()

	if !found || !active {
		http.NotFound(w, r)
		return
	}
	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(views.Dropdown(data)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// ToggleOption flips one value of a dimension's selection.
func (h *Handlers) ToggleOption(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dim")
	value := r.URL.Query().Get("value")
	h.update(w, r, func(v *session.View) error {
		d, ok := v.Dropdowns.Get(name)
		if !ok {
			return errUnknownDimension(name)
		}
		v.Filter.Toggle(name, value)
		d.Commit()
		v.Page = 0
		return nil
	})
}

// SelectAll toggles every option matching the picker's search text.
func (h *Handlers) SelectAll(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dim")
	h.update(w, r, func(v *session.View) error {
		d, ok := v.Dropdowns.Get(name)
		if !ok {
			return errUnknownDimension(name)
		}
		v.Filter.SelectAllFiltered(name, d.Search)
		v.Page = 0
		return nil
	})
}

// Reset selects every value of every dimension.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(v *session.View) error {
		v.Filter.ResetAll()
		v.Dropdowns.CloseAll()
		v.Page = 0
		return nil
	}, resetSearch)
}

// Clear deselects every value of every dimension.
func (h *Handlers) Clear(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(v *session.View) error {
		v.Filter.ClearAll()
		v.Dropdowns.CloseAll()
		v.Page = 0
		return nil
	}, resetSearch)
}

// Page moves to the 1-based page n.
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil {
		http.Error(w, "invalid page number", http.StatusBadRequest)
		return
	}
	h.update(w, r, func(v *session.View) error {
		v.Page = n - 1
		return nil
	})
}

// PageSize changes the number of rows per page.
func (h *Handlers) PageSize(w http.ResponseWriter, r *http.Request) {
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || !grid.ValidPageSize(size) {
		http.Error(w, "invalid page size", http.StatusBadRequest)
		return
	}
	h.update(w, r, func(v *session.View) error {
		v.PageSize = size
		v.Page = 0
		return nil
	})
}

// Sort sorts by a column, flipping the direction on repeated clicks.
func (h *Handlers) Sort(w http.ResponseWriter, r *http.Request) {
	column := r.URL.Query().Get("column")
	h.update(w, r, func(v *session.View) error {
		v.ToggleSort(column)
		return nil
	})
}

// Export downloads the filtered rows as CSV, hidden columns included.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.spec(w, r)
	if !ok {
		return
	}
	st, err := h.deps.LoadState(w, r, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ds, err := h.deps.Cache.Get(r.Context(), spec.ID)
	if err != nil {
		http.Error(w, common.ErrorText(err), http.StatusBadGateway)
		return
	}

	st.Lock()
	rows := st.View(spec, ds, h.deps.PageSize).Rows()
	st.Unlock()

	name := crossfilter.ExportFilename(spec.ID, time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := crossfilter.ExportCSV(w, rows, ds.Columns); err != nil {
		h.deps.Log().Warn("export failed", "dataset", spec.ID, "error", err)
	}
}

// OpenEditor opens the edit dialog of one row.
func (h *Handlers) OpenEditor(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.spec(w, r)
	if !ok {
		return
	}
	action, ok := spec.Action(r.URL.Query().Get("action"))
	if !ok {
		http.Error(w, "unknown edit action", http.StatusBadRequest)
		return
	}
	rowIdx, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		http.Error(w, "invalid row", http.StatusBadRequest)
		return
	}
	st, ds, ok := h.loaded(w, r, spec)
	if !ok {
		return
	}
	if rowIdx < 0 || rowIdx >= ds.Len() {
		http.NotFound(w, r)
		return
	}

	st.Lock()
	v := st.View(spec, ds, h.deps.PageSize)
	v.Dropdowns.CloseAll()
	v.Dialog = &session.Dialog{
		Action: action,
		Row:    rowIdx,
		Values: ds.Rows[rowIdx].Clone(),
	}
	dialog := buildDialog(spec.ID, ds, v.Dialog, h.deps.Audiences)
	st.Unlock()

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(views.EditDialog(dialog)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// CloseEditor discards the open edit dialog.
func (h *Handlers) CloseEditor(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.spec(w, r)
	if !ok {
		return
	}
	st, err := h.deps.LoadState(w, r, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	st.Lock()
	if v, ok := st.Peek(spec.ID); ok {
		v.Dialog = nil
	}
	st.Unlock()

	sse := datastar.NewSSE(w, r)
	_ = sse.PatchElementTempl(views.NoDialog())
}

// SubmitEdit sends the edited row to the backend, journals the attempt and
// re-fetches the datasets the action affects. A failed update alerts the
// user and leaves the dialog open with the error.
func (h *Handlers) SubmitEdit(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.spec(w, r)
	if !ok {
		return
	}
	action, ok := spec.Action(r.URL.Query().Get("action"))
	if !ok {
		http.Error(w, "unknown edit action", http.StatusBadRequest)
		return
	}
	rowIdx, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		http.Error(w, "invalid row", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	st, ds, ok := h.loaded(w, r, spec)
	if !ok {
		return
	}

	// edit the row captured by the dialog; the dataset may have been
	// re-fetched and reordered since it opened
	st.Lock()
	v := st.View(spec, ds, h.deps.PageSize)
	if v.Dialog == nil || v.Dialog.Row != rowIdx || v.Dialog.Action.Name != action.Name {
		st.Unlock()
		http.Error(w, "no open edit dialog for this row", http.StatusConflict)
		return
	}
	row := editedRow(v.Dialog.Values, ds.Columns, action, r.PostForm)
	v.Dialog.Values = row
	st.Unlock()

	ctx := r.Context()
	updateErr := h.deps.Source.Update(ctx, spec.ID, action, row)
	h.journal(ctx, spec.ID, action, row, updateErr)

	sse := datastar.NewSSE(w, r)

	if updateErr != nil {
		st.Lock()
		v = st.View(spec, ds, h.deps.PageSize)
		if v.Dialog == nil {
			v.Dialog = &session.Dialog{Action: action, Row: rowIdx, Values: row}
		}
		v.Dialog.Error = common.ErrorText(updateErr)
		dialog := buildDialog(spec.ID, ds, v.Dialog, h.deps.Audiences)
		st.Unlock()

		_ = sse.PatchElementTempl(views.EditDialog(dialog))
		_ = sse.ExecuteScript("alert(" + jsString(action.AlertMessage) + ")")
		return
	}

	for _, id := range action.Refreshes {
		// a failed refresh is stored in the cache and shown by that tab
		_, _ = h.deps.Cache.Reload(ctx, id)
	}

	st.Lock()
	if v, ok := st.Peek(spec.ID); ok {
		v.Dialog = nil
	}
	st.Unlock()

	if err := h.sendCached(sse, st, spec); err != nil {
		_ = sse.ConsoleError(err)
	}
}

func (h *Handlers) journal(ctx context.Context, id core.DatasetID, action core.EditAction, row core.Row, updateErr error) {
	if h.deps.Store == nil {
		return
	}
	edit := &core.Edit{
		Dataset: id,
		Action:  action.Name,
		Row:     row,
		Status:  core.EditStatusOK,
	}
	if updateErr != nil {
		edit.Status = core.EditStatusFailed
		edit.Error = common.ErrorText(updateErr)
	}
	if err := h.deps.Store.RecordEdit(context.WithoutCancel(ctx), edit); err != nil {
		h.deps.Log().Warn("failed to journal edit", "dataset", id, "action", action.Name, "error", err)
	}
}

// update runs fn on the caller's view and patches the table. The dataset
// is fetched first when it is not cached yet. after runs on the stream
// once the table was sent.
func (h *Handlers) update(w http.ResponseWriter, r *http.Request, fn func(v *session.View) error, after ...func(*datastar.ServerSentEventGenerator) error) {
	spec, ok := h.spec(w, r)
	if !ok {
		return
	}
	st, ds, ok := h.loaded(w, r, spec)
	if !ok {
		return
	}

	st.Lock()
	v := st.View(spec, ds, h.deps.PageSize)
	err := fn(v)
	var data views.TableData
	if err == nil {
		data = buildTable(spec, v, h.deps.Audiences)
	}
	st.Unlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(views.TableContent(data)); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	for _, then := range after {
		if err := then(sse); err != nil {
			_ = sse.ConsoleError(err)
		}
	}
}

// loaded returns the caller's state and the dataset. When the dataset
// cannot be loaded the failed table is streamed and ok is false.
func (h *Handlers) loaded(w http.ResponseWriter, r *http.Request, spec core.DatasetSpec) (*session.State, *core.Dataset, bool) {
	st, err := h.deps.LoadState(w, r, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, nil, false
	}
	ds, err := h.deps.Cache.Get(r.Context(), spec.ID)
	if err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.PatchElementTempl(views.TableContent(failedTable(spec, common.ErrorText(err))))
		return nil, nil, false
	}
	return st, ds, true
}

func (h *Handlers) spec(w http.ResponseWriter, r *http.Request) (core.DatasetSpec, bool) {
	spec, ok := h.deps.Spec(core.DatasetID(chi.URLParam(r, "dataset")))
	if !ok {
		http.NotFound(w, r)
	}
	return spec, ok
}

func resetSearch(sse *datastar.ServerSentEventGenerator) error {
	return sse.MarshalAndPatchSignals(searchSignals{})
}

func errUnknownDimension(name string) error {
	return fmt.Errorf("unknown dimension %q", name)
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
