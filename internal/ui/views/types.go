package views

// Tab is one entry of the navigation bar.
type Tab struct {
	Label  string
	URL    string
	Active bool
}

// Layout is the data every full page needs.
type Layout struct {
	Title string
	Tabs  []Tab
	// HistoryActive highlights the history link.
	HistoryActive bool
	// Dev enables the hot reload stream.
	Dev bool
}

// Option is one choice of a picker or dropdown.
type Option struct {
	Value    string
	Selected bool
	// URL toggles the option. Empty for plain <select> options.
	URL string
}

// Picker is a single-select control of the landing page.
type Picker struct {
	Name    string
	Label   string
	Options []Option
}

// LandingData is the picker panel of the landing page.
type LandingData struct {
	Status  string
	Error   string
	Pickers []Picker
	GoURL   string
}

// LandingPageData is the landing page.
type LandingPageData struct {
	Layout
}

// Preset is a drill-down value shown above a table.
type Preset struct {
	Label string
	Value string
}

// TablePageData is the tab page around a table.
type TablePageData struct {
	Layout
	Dataset    string
	Label      string
	Presets    []Preset
	ContentURL string
	UpdatesURL string
}

// DropdownData is the picker of one dimension.
type DropdownData struct {
	ID          string
	Name        string
	Label       string
	URL         string
	Open        bool
	Disabled    bool
	Search      string
	Summary     string
	AllSelected bool
	Options     []Option
}

// Header is a sortable column header.
type Header struct {
	Label   string
	SortURL string
	Sorted  bool
	Desc    bool
}

// Cell is one table cell. EditURL is set on cells that open an editor.
type Cell struct {
	Value   string
	EditURL string
}

// RowData is one rendered row. EditURL opens the row-level editor.
type RowData struct {
	Cells   []Cell
	EditURL string
}

// PageLink is one numbered page button.
type PageLink struct {
	Label   string
	URL     string
	Current bool
}

// PagerData is the pagination bar.
type PagerData struct {
	Summary string
	HasPrev bool
	HasNext bool
	PrevURL string
	NextURL string
	Links   []PageLink
	SizeURL string
	Sizes   []Option
}

// TableData is the content of one tab.
type TableData struct {
	Dataset    string
	Label      string
	Base       string
	Status     string
	Error      string
	Dropdowns  []DropdownData
	Filtered   bool
	Headers    []Header
	Rows       []RowData
	RowActions bool
	Empty      bool
	Pager      PagerData
	Dialog     *DialogData
}

// Choice is one checkbox of a multi-select field.
type Choice struct {
	Name     string
	Value    string
	Selected bool
}

// Field is one input of the edit dialog.
type Field struct {
	Column   string
	Label    string
	Value    string
	ReadOnly bool
	Choices  []Choice
}

// DialogData is the edit dialog.
type DialogData struct {
	Title     string
	Error     string
	SubmitURL string
	CancelURL string
	Fields    []Field
}

// EditRow is one line of the edit history.
type EditRow struct {
	Time    string
	Dataset string
	Action  string
	Status  string
	Error   string
}

// HistoryPageData is the edit history page.
type HistoryPageData struct {
	Layout
	Dataset  string
	Datasets []Option
	Edits    []EditRow
	Error    string
}
