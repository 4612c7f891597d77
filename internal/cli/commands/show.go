package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/ssot/internal/cli/output"
	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/leapstack-labs/ssot/pkg/crossfilter"
	"github.com/leapstack-labs/ssot/pkg/grid"
	"github.com/spf13/cobra"
)

// emptyViewMessage is shown when the filters exclude every row.
const emptyViewMessage = "No data matches the current filters"

// ShowOptions holds options for the show command.
type ShowOptions struct {
	FilterOptions
	Sort     string
	Desc     bool
	Page     int
	PageSize int
	Columns  []string
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show <dataset>",
		Short: "Show the filtered rows of a dataset",
		Long: `Fetch a dataset and print the rows that pass the current selections.

Drill-down flags (--agency, --advertiser, --campaign, --channel) narrow every
dimension to the values that co-occur with the given ones, the same way the
dashboard landing page does. --filter sets a dimension's selection explicitly.

Output adapts to environment:
  - Terminal: table
  - Piped/Scripted: Markdown table
  
Use --output to override: auto, text, markdown, json`,
		Example: `  # Show the Radia plan
  ssot show radia-plan

  # Drill down to one agency and channel
  ssot show radia-plan --agency OMD --channel Video

  # Select two advertisers and sort by budget
  ssot show media-plan --filter advertiser=Nike,Puma --sort TOTAL_BUDGET --desc

  # Second page of 50 rows as JSON
  ssot show targeting-analytics --page 2 --page-size 50 -o json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], opts)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Column to sort by")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "Sort descending")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "Rows per page: 50, 100, 200 or 500 (default: ui.page_size)")
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "Columns to print, in order")

	return cmd
}

// showOutput is the JSON shape of the show command.
type showOutput struct {
	Dataset    core.DatasetID      `json:"dataset"`
	Total      int                 `json:"total"`
	Visible    int                 `json:"visible"`
	Page       int                 `json:"page"`
	Pages      int                 `json:"pages"`
	PageSize   int                 `json:"page_size"`
	Selections map[string][]string `json:"selections"`
	Columns    []string            `json:"columns"`
	Rows       []core.Row          `json:"rows"`
	Warnings   []string            `json:"warnings,omitempty"`
}

func runShow(cmd *cobra.Command, name string, opts *ShowOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	spec, ds, err := cmdCtx.Load(cmd.Context(), name)
	if err != nil {
		return err
	}

	f := crossfilter.NewFilter(ds.Rows, spec.Dimensions)
	warnings, err := opts.apply(f)
	if err != nil {
		return err
	}

	columns := grid.Visible(ds.Columns, spec.Hidden)
	if len(opts.Columns) > 0 {
		var missing []string
		columns, missing = grid.Select(ds.Columns, opts.Columns)
		if len(missing) > 0 {
			warnings = append(warnings, "unknown columns: "+strings.Join(missing, ", "))
		}
	}

	visible := f.Visible()
	if opts.Sort != "" {
		visible = grid.Sort(visible, opts.Sort, opts.Desc)
	}
	size := opts.PageSize
	if size == 0 {
		size = cmdCtx.Cfg.GetUIConfig().PageSize
	}
	page := grid.Paginate(visible, opts.Page-1, size)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(showOutput{
			Dataset:    spec.ID,
			Total:      ds.Len(),
			Visible:    len(visible),
			Page:       page.Index + 1,
			Pages:      page.Count,
			PageSize:   page.Size,
			Selections: selectionValues(f),
			Columns:    columns,
			Rows:       projectRows(page.Rows, columns),
			Warnings:   warnings,
		})
	}

	for _, w := range warnings {
		r.Warning(w)
	}

	r.Header(1, spec.Label)
	printSelections(r, f)
	r.Println()

	if len(visible) == 0 {
		r.Muted(emptyViewMessage)
		return nil
	}

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = grid.HeaderLabel(c, spec.HeaderOverrides)
	}
	body := make([][]string, 0, len(page.Rows))
	for _, row := range page.Rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = row.Get(c)
		}
		body = append(body, cells)
	}
	r.Table(header, body)
	r.Println()
	r.Muted(fmt.Sprintf("%s (page %d of %d)", page.Summary(), page.Index+1, page.Count))
	return nil
}

// printSelections writes one "Label: n of m" line per active dimension.
func printSelections(r *output.Renderer, f *crossfilter.Filter) {
	for _, d := range f.Dimensions() {
		sel := f.Selection(d.Name)
		all := f.Universe(d.Name)
		detail := fmt.Sprintf("%d of %d", sel.Len(), len(all))
		if n := sel.Len(); n > 0 && n <= 3 {
			detail += " (" + strings.Join(sel.Values(), ", ") + ")"
		}
		if output.ModeText == r.EffectiveMode() {
			r.Printf("%s %s\n", r.Styles().Bold.Render(d.Label+":"), detail)
			continue
		}
		r.Println(output.FormatKeyValue(d.Label, detail))
	}
}

func selectionValues(f *crossfilter.Filter) map[string][]string {
	out := make(map[string][]string)
	for name, set := range f.Selections() {
		out[name] = set.Values()
	}
	return out
}

// projectRows keeps only the given columns of each row.
func projectRows(rows []core.Row, columns []string) []core.Row {
	out := make([]core.Row, len(rows))
	for i, row := range rows {
		p := make(core.Row, len(columns))
		for _, c := range columns {
			p[c] = row.Get(c)
		}
		out[i] = p
	}
	return out
}
