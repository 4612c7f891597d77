package crossfilter

import (
	"fmt"

	"github.com/leapstack-labs/ssot/pkg/core"
)

// Filter is the selection state of one view over one dataset.
// A Filter is not safe for concurrent use.
type Filter struct {
	rows     []core.Row
	declared []core.Dimension
	u        universe
	sel      Selections
}

// NewFilter returns a filter over rows with every value selected.
// Dimensions with no values in rows are dropped.
func NewFilter(rows []core.Row, dims []core.Dimension) *Filter {
	u := newUniverse(rows, dims)
	return &Filter{
		rows:     rows,
		declared: dims,
		u:        u,
		sel:      u.reset(),
	}
}

// Rows returns the full dataset the filter works on.
func (f *Filter) Rows() []core.Row { return f.rows }

// Dimensions returns the active dimensions in declaration order.
func (f *Filter) Dimensions() []core.Dimension { return f.u.dims }

// Dimension looks up an active dimension by name.
func (f *Filter) Dimension(name string) (core.Dimension, bool) {
	for _, d := range f.u.dims {
		if d.Name == name {
			return d, true
		}
	}
	return core.Dimension{}, false
}

// Universe returns every value of the named dimension.
func (f *Filter) Universe(name string) []string {
	return f.u.values[name].Values()
}

// Options returns the selectable values of the named dimension given the
// selections of all the others.
func (f *Filter) Options(name string) []string {
	d, ok := f.Dimension(name)
	if !ok {
		return nil
	}
	return f.u.options(f.rows, f.sel, d)
}

// Disabled reports whether the named dimension currently has no options.
func (f *Filter) Disabled(name string) bool {
	return len(f.Options(name)) == 0
}

// Selection returns a copy of the effective selection of a dimension.
// A disabled dimension contributes an empty selection.
func (f *Filter) Selection(name string) Set {
	if f.Disabled(name) {
		return Set{}
	}
	return f.sel.Get(name).Clone()
}

// Selections returns a copy of the effective selections of every dimension.
func (f *Filter) Selections() Selections {
	out := make(Selections, len(f.u.dims))
	for _, d := range f.u.dims {
		out[d.Name] = f.Selection(d.Name)
	}
	return out
}

// Selected reports whether value is selected in the named dimension.
func (f *Filter) Selected(name, value string) bool {
	return f.sel.Get(name).Has(value)
}

// Toggle flips the membership of value in the named dimension. Values the
// dimension never takes are ignored.
func (f *Filter) Toggle(name, value string) {
	set, ok := f.sel[name]
	if !ok || !f.u.values[name].Has(value) {
		return
	}
	if set.Has(value) {
		set.Remove(value)
		return
	}
	set.Add(value)
}

// SetSelection replaces the selection of a dimension. Values the dimension
// never takes are ignored and returned.
func (f *Filter) SetSelection(name string, values []string) ([]string, error) {
	if _, ok := f.Dimension(name); !ok {
		return nil, fmt.Errorf("unknown dimension %q", name)
	}
	all := f.u.values[name]
	set := Set{}
	var unknown []string
	for _, v := range values {
		if all.Has(v) {
			set.Add(v)
			continue
		}
		unknown = append(unknown, v)
	}
	f.sel[name] = set
	return unknown, nil
}

// AllFilteredSelected reports whether every option matching search is
// selected. It is false when nothing matches.
func (f *Filter) AllFilteredSelected(name, search string) bool {
	opts := MatchOptions(f.Options(name), search)
	if len(opts) == 0 {
		return false
	}
	set := f.sel.Get(name)
	for _, v := range opts {
		if !set.Has(v) {
			return false
		}
	}
	return true
}

// SelectAllFiltered toggles exactly the options that match search: when all
// of them are selected they are removed, otherwise they are all added.
// Selected values outside the search are left alone.
func (f *Filter) SelectAllFiltered(name, search string) {
	set, ok := f.sel[name]
	if !ok {
		return
	}
	remove := f.AllFilteredSelected(name, search)
	for _, v := range MatchOptions(f.Options(name), search) {
		if remove {
			set.Remove(v)
			continue
		}
		set.Add(v)
	}
}

// Visible returns the rows passing every effective selection.
func (f *Filter) Visible() []core.Row {
	return f.u.visible(f.rows, f.Selections())
}

// Preselect applies values arriving from navigation, keyed by dimension
// name. Selections start from the full dataset.
func (f *Filter) Preselect(presets map[string]string) {
	f.sel = f.u.preselect(f.rows, f.u.reset(), presets)
}

// ResetAll selects every value of every dimension.
func (f *Filter) ResetAll() {
	f.sel = f.u.reset()
}

// ClearAll deselects everything.
func (f *Filter) ClearAll() {
	for _, d := range f.u.dims {
		f.sel[d.Name] = Set{}
	}
}

// IsFiltered reports whether any dimension is narrower than its universe.
func (f *Filter) IsFiltered() bool {
	for _, d := range f.u.dims {
		if !f.sel.Get(d.Name).Contains(f.u.values[d.Name]) {
			return true
		}
	}
	return false
}

// Rebase moves the filter onto a re-fetched dataset. A dimension that had
// everything selected selects everything in the new data; otherwise the
// previous selection is kept for the values that still exist.
func (f *Filter) Rebase(rows []core.Row) {
	full := make(map[string]bool, len(f.u.dims))
	for _, d := range f.u.dims {
		full[d.Name] = f.sel.Get(d.Name).Contains(f.u.values[d.Name])
	}
	prev := f.sel

	f.rows = rows
	f.u = newUniverse(rows, f.declared)
	f.sel = f.u.reset()
	for _, d := range f.u.dims {
		if wasFull, seen := full[d.Name]; !seen || wasFull {
			continue
		}
		kept := Set{}
		for v := range prev.Get(d.Name) {
			if f.u.values[d.Name].Has(v) {
				kept.Add(v)
			}
		}
		f.sel[d.Name] = kept
	}
}
