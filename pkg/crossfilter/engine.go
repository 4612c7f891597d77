package crossfilter

import (
	"github.com/leapstack-labs/ssot/pkg/core"
)

// universe holds, per dimension, every non-empty value of its column.
// Dimensions whose column is empty in every row are not active and take no
// part in filtering.
type universe struct {
	dims   []core.Dimension
	values map[string]Set
}

func newUniverse(rows []core.Row, dims []core.Dimension) universe {
	u := universe{values: make(map[string]Set, len(dims))}
	for _, d := range dims {
		set := Set{}
		for _, row := range rows {
			if v := row.Get(d.Column); v != "" {
				set.Add(v)
			}
		}
		if set.Len() == 0 {
			continue
		}
		u.dims = append(u.dims, d)
		u.values[d.Name] = set
	}
	return u
}

// admits reports whether row passes dimension d under selection sel.
// An empty cell only passes while the selection still covers every value
// of the dimension, so resetting all selections shows every row.
func (u universe) admits(row core.Row, d core.Dimension, sel Set) bool {
	v := row.Get(d.Column)
	if v == "" {
		return sel.Contains(u.values[d.Name])
	}
	return sel.Has(v)
}

func (u universe) visible(rows []core.Row, sel Selections) []core.Row {
	out := []core.Row{}
	for _, d := range u.dims {
		if sel.Get(d.Name).Len() == 0 {
			return out
		}
	}
	for _, row := range rows {
		if u.passes(row, sel, "") {
			out = append(out, row)
		}
	}
	return out
}

// passes checks row against every active dimension except skip. Siblings
// with an empty selection do not narrow, so clearing one dimension does not
// wipe out the option lists of all the others.
func (u universe) passes(row core.Row, sel Selections, skip string) bool {
	for _, d := range u.dims {
		if d.Name == skip {
			continue
		}
		s := sel.Get(d.Name)
		if skip != "" && s.Len() == 0 {
			continue
		}
		if !u.admits(row, d, s) {
			return false
		}
	}
	return true
}

func (u universe) options(rows []core.Row, sel Selections, dim core.Dimension) []string {
	set := Set{}
	for _, row := range rows {
		v := row.Get(dim.Column)
		if v == "" || set.Has(v) {
			continue
		}
		if u.passes(row, sel, dim.Name) {
			set.Add(v)
		}
	}
	return set.Values()
}

func (u universe) reset() Selections {
	sel := make(Selections, len(u.dims))
	for _, d := range u.dims {
		sel[d.Name] = u.values[d.Name].Clone()
	}
	return sel
}

func (u universe) preselect(rows []core.Row, sel Selections, presets map[string]string) Selections {
	out := sel.Clone()

	applied := make(map[string]string)
	for _, d := range u.dims {
		v, ok := presets[d.Name]
		if !ok || v == "" {
			continue
		}
		if u.values[d.Name].Has(v) {
			applied[d.Name] = v
		}
	}
	if len(applied) == 0 {
		return out
	}

	reachable := make(map[string]Set, len(u.dims))
	for _, d := range u.dims {
		reachable[d.Name] = Set{}
	}
	for _, row := range rows {
		if !matchesPresets(row, u.dims, applied) {
			continue
		}
		for _, d := range u.dims {
			if v := row.Get(d.Column); v != "" {
				reachable[d.Name].Add(v)
			}
		}
	}

	for _, d := range u.dims {
		if v, ok := applied[d.Name]; ok {
			out[d.Name] = NewSet(v)
			continue
		}
		if v := presets[d.Name]; v != "" {
			// unknown preset value keeps the previous selection
			continue
		}
		out[d.Name] = reachable[d.Name]
	}
	return out
}

func matchesPresets(row core.Row, dims []core.Dimension, applied map[string]string) bool {
	for _, d := range dims {
		if v, ok := applied[d.Name]; ok && row.Get(d.Column) != v {
			return false
		}
	}
	return true
}

// Values returns the sorted distinct non-empty values of dim's column.
func Values(rows []core.Row, dim core.Dimension) []string {
	set := Set{}
	for _, row := range rows {
		if v := row.Get(dim.Column); v != "" {
			set.Add(v)
		}
	}
	return set.Values()
}

// ActiveDimensions returns the dimensions whose column holds at least one
// non-empty value in rows.
func ActiveDimensions(rows []core.Row, dims []core.Dimension) []core.Dimension {
	return newUniverse(rows, dims).dims
}

// OptionsFor returns the values dim can take across the rows that satisfy
// every other dimension's selection. The result is sorted ascending,
// deduplicated and never contains "".
func OptionsFor(rows []core.Row, dims []core.Dimension, sel Selections, dim core.Dimension) []string {
	return newUniverse(rows, dims).options(rows, sel, dim)
}

// VisibleRows returns, in dataset order, the rows whose cell is selected in
// every active dimension. If any active dimension has an empty selection
// the result is empty.
func VisibleRows(rows []core.Row, dims []core.Dimension, sel Selections) []core.Row {
	return newUniverse(rows, dims).visible(rows, sel)
}

// ApplyExternalPreselection narrows sel to the given dimension values.
// presets maps a dimension name to a value. Each preset found in the
// dataset collapses its dimension to that value; every other dimension
// becomes exactly the values co-occurring with the applied presets. When no
// preset value exists in the dataset, sel is returned unchanged.
func ApplyExternalPreselection(rows []core.Row, dims []core.Dimension, sel Selections, presets map[string]string) Selections {
	return newUniverse(rows, dims).preselect(rows, sel, presets)
}

// ResetAll selects every value of every dimension.
func ResetAll(rows []core.Row, dims []core.Dimension) Selections {
	return newUniverse(rows, dims).reset()
}
