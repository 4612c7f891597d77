package crossfilter

import "strings"

// DropdownState is the open/closed state of a picker.
type DropdownState int

// Dropdown states.
const (
	Closed DropdownState = iota
	Open
)

func (s DropdownState) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Dropdown is the picker of one dimension. Search only narrows the
// displayed options; it never changes what is selected.
type Dropdown struct {
	Dimension string
	State     DropdownState
	Search    string
	// Single dropdowns close as soon as an option is committed.
	Single bool
}

// IsOpen reports whether the dropdown is open.
func (d *Dropdown) IsOpen() bool { return d.State == Open }

// Toggle opens a closed dropdown unless disabled, and closes an open one.
func (d *Dropdown) Toggle(disabled bool) {
	switch {
	case d.State == Open:
		d.Close()
	case !disabled:
		d.State = Open
	}
}

// Close closes the dropdown and clears its search text.
func (d *Dropdown) Close() {
	d.State = Closed
	d.Search = ""
}

// Commit records that an option was picked.
func (d *Dropdown) Commit() {
	if d.Single {
		d.Close()
	}
}

// SetSearch updates the search text of an open dropdown.
func (d *Dropdown) SetSearch(text string) {
	if d.State != Open {
		return
	}
	d.Search = text
}

// Filter narrows options by the current search text.
func (d *Dropdown) Filter(options []string) []string {
	return MatchOptions(options, d.Search)
}

// MatchOptions returns the options containing search, case-insensitively.
// An empty search matches everything.
func MatchOptions(options []string, search string) []string {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return options
	}
	out := make([]string, 0, len(options))
	for _, o := range options {
		if strings.Contains(strings.ToLower(o), search) {
			out = append(out, o)
		}
	}
	return out
}

// DropdownGroup holds the pickers of one view. At most one is open.
type DropdownGroup struct {
	items map[string]*Dropdown
	order []string
}

// NewDropdownGroup creates closed dropdowns for the given dimension names.
func NewDropdownGroup(single bool, names ...string) *DropdownGroup {
	g := &DropdownGroup{items: make(map[string]*Dropdown, len(names))}
	for _, n := range names {
		g.items[n] = &Dropdown{Dimension: n, Single: single}
		g.order = append(g.order, n)
	}
	return g
}

// Get returns the dropdown of a dimension.
func (g *DropdownGroup) Get(name string) (*Dropdown, bool) {
	d, ok := g.items[name]
	return d, ok
}

// Toggle toggles one dropdown and closes every other.
func (g *DropdownGroup) Toggle(name string, disabled bool) {
	d, ok := g.items[name]
	if !ok {
		return
	}
	for n, other := range g.items {
		if n != name {
			other.Close()
		}
	}
	d.Toggle(disabled)
}

// CloseAll closes every dropdown, as an outside click does.
func (g *DropdownGroup) CloseAll() {
	for _, d := range g.items {
		d.Close()
	}
}

// Active returns the open dropdown, if any.
func (g *DropdownGroup) Active() (*Dropdown, bool) {
	for _, n := range g.order {
		if d := g.items[n]; d.IsOpen() {
			return d, true
		}
	}
	return nil, false
}
