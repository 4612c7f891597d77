// Package session keeps the per-browser view state of the dashboard on the
// server: selections, open dropdowns, paging, sorting and the edit dialog of
// every table a visitor has opened.
package session

import (
	"reflect"
	"sync"
	"time"

	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/leapstack-labs/ssot/pkg/crossfilter"
	"github.com/leapstack-labs/ssot/pkg/grid"
)

// Dialog is an open edit dialog.
type Dialog struct {
	Action core.EditAction
	// Row is the index of the edited row in the dataset.
	Row    int
	Values core.Row
	Error  string
}

// View is the state of one table for one visitor.
type View struct {
	Dataset   core.DatasetID
	Filter    *crossfilter.Filter
	Dropdowns *crossfilter.DropdownGroup
	Page      int
	PageSize  int
	Sort      string
	SortDesc  bool
	Dialog    *Dialog

	source *core.Dataset
	index  map[uintptr]int
}

// Source returns the dataset the view was last synced with.
func (v *View) Source() *core.Dataset { return v.source }

// Index returns the position of row in the source dataset, or -1 when the
// row does not belong to it.
func (v *View) Index(row core.Row) int {
	if v.index == nil {
		v.index = make(map[uintptr]int, v.source.Len())
		for i, r := range v.source.Rows {
			v.index[reflect.ValueOf(r).Pointer()] = i
		}
	}
	if i, ok := v.index[reflect.ValueOf(row).Pointer()]; ok {
		return i
	}
	return -1
}

// ToggleSort sorts by column, flipping the direction when it is already
// the sort column.
func (v *View) ToggleSort(column string) {
	if v.Sort == column {
		v.SortDesc = !v.SortDesc
	} else {
		v.Sort, v.SortDesc = column, false
	}
	v.Page = 0
}

// Rows returns the visible rows in display order.
func (v *View) Rows() []core.Row {
	rows := v.Filter.Visible()
	if v.Sort != "" {
		rows = grid.Sort(rows, v.Sort, v.SortDesc)
	}
	return rows
}

// CurrentPage returns the page being shown, clamping the stored index.
func (v *View) CurrentPage() grid.Page {
	p := grid.Paginate(v.Rows(), v.Page, v.PageSize)
	v.Page = p.Index
	return p
}

// State is everything kept for one visitor. Callers must hold the lock
// returned by Lock while reading or changing it.
type State struct {
	mu       sync.Mutex
	presets  map[string]string
	views    map[core.DatasetID]*View
	lastSeen time.Time
}

// Lock acquires the state.
func (s *State) Lock() { s.mu.Lock() }

// Unlock releases the state.
func (s *State) Unlock() { s.mu.Unlock() }

// Presets returns the drill-down values the visitor arrived with.
func (s *State) Presets() map[string]string { return s.presets }

// SetPresets replaces the drill-down values and drops every view so the
// next render starts from them.
func (s *State) SetPresets(presets map[string]string) {
	s.presets = presets
	s.views = make(map[core.DatasetID]*View)
}

// Peek returns the view of a dataset if one exists.
func (s *State) Peek(id core.DatasetID) (*View, bool) {
	v, ok := s.views[id]
	return v, ok
}

// View returns the view of spec over ds, creating it from the presets on
// first use. When ds is a newer fetch than the one the view was built
// from, the selections are carried over onto it.
func (s *State) View(spec core.DatasetSpec, ds *core.Dataset, pageSize int) *View {
	v, ok := s.views[spec.ID]
	if !ok {
		f := crossfilter.NewFilter(ds.Rows, spec.Dimensions)
		if len(s.presets) > 0 {
			f.Preselect(s.presets)
		}
		names := make([]string, 0, len(spec.Dimensions))
		for _, d := range spec.Dimensions {
			names = append(names, d.Name)
		}
		v = &View{
			Dataset:   spec.ID,
			Filter:    f,
			Dropdowns: crossfilter.NewDropdownGroup(false, names...),
			PageSize:  grid.NormalizePageSize(pageSize),
			source:    ds,
		}
		s.views[spec.ID] = v
		return v
	}
	if v.source != ds {
		v.Filter.Rebase(ds.Rows)
		v.source = ds
		v.index = nil
		if v.Dialog != nil && v.Dialog.Row >= len(ds.Rows) {
			v.Dialog = nil
		}
	}
	return v
}

// Registry holds the state of every visitor by session id.
type Registry struct {
	mu     sync.Mutex
	states map[string]*State
	now    func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		states: make(map[string]*State),
		now:    time.Now,
	}
}

// Get returns the state of a session, creating it when missing, and marks
// it as used.
func (r *Registry) Get(id string) *State {
	return r.Open(id, nil)
}

// Open is Get, seeding a newly created state with presets. Presets of an
// existing state are left alone.
func (r *Registry) Open(id string, presets map[string]string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[id]
	if !ok {
		s = &State{
			presets: presets,
			views:   make(map[core.DatasetID]*View),
		}
		r.states[id] = s
	}
	s.lastSeen = r.now()
	return s
}

// Sweep drops every state unused for longer than ttl and returns how many
// were dropped.
func (r *Registry) Sweep(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-ttl)
	n := 0
	for id, s := range r.states {
		if s.lastSeen.Before(cutoff) {
			delete(r.states, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
