// Package tables provides the four dataset tabs: cross-filter dropdowns,
// the paged grid, CSV export and the edit dialogs.
package tables

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/leapstack-labs/ssot/internal/ui/session"
	"github.com/leapstack-labs/ssot/internal/ui/views"
	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/leapstack-labs/ssot/pkg/grid"
)

// pageWindow is the number of numbered page buttons.
const pageWindow = 5

func baseURL(id core.DatasetID) string {
	return "/table/" + url.PathEscape(string(id))
}

func editURL(id core.DatasetID, row int, action string) string {
	return baseURL(id) + "/rows/" + strconv.Itoa(row) + "/edit?" + url.Values{"action": {action}}.Encode()
}

func pageURL(id core.DatasetID, n int) string {
	return baseURL(id) + "/page?n=" + strconv.Itoa(n)
}

// pendingTable is shown while a dataset is being fetched.
func pendingTable(spec core.DatasetSpec) views.TableData {
	return views.TableData{
		Dataset: string(spec.ID),
		Label:   spec.Label,
		Base:    baseURL(spec.ID),
		Status:  "pending",
	}
}

// failedTable is shown when the fetch failed.
func failedTable(spec core.DatasetSpec, msg string) views.TableData {
	d := pendingTable(spec)
	d.Status = "failed"
	d.Error = msg
	return d
}

// buildTable renders the current state of a view. The caller holds the
// session lock.
func buildTable(spec core.DatasetSpec, v *session.View, audiences []string) views.TableData {
	id := spec.ID
	base := baseURL(id)
	ds := v.Source()

	data := views.TableData{
		Dataset:  string(id),
		Label:    spec.Label,
		Base:     base,
		Status:   "ready",
		Filtered: v.Filter.IsFiltered(),
	}

	for _, d := range v.Filter.Dimensions() {
		data.Dropdowns = append(data.Dropdowns, buildDropdown(id, v, d))
	}

	var rowAction *core.EditAction
	for _, a := range spec.Actions {
		if a.TriggerColumn == "" {
			rowAction = &a
			break
		}
	}
	data.RowActions = rowAction != nil

	columns := grid.Visible(ds.Columns, spec.Hidden)
	for _, col := range columns {
		data.Headers = append(data.Headers, views.Header{
			Label:   grid.HeaderLabel(col, spec.HeaderOverrides),
			SortURL: base + "/sort?" + url.Values{"column": {col}}.Encode(),
			Sorted:  v.Sort == col,
			Desc:    v.Sort == col && v.SortDesc,
		})
	}

	page := v.CurrentPage()
	data.Empty = page.Total == 0
	for _, row := range page.Rows {
		idx := v.Index(row)
		rd := views.RowData{}
		for _, col := range columns {
			cell := views.Cell{Value: row.Get(col)}
			if a, ok := spec.ActionForColumn(col); ok && idx >= 0 {
				cell.EditURL = editURL(id, idx, a.Name)
			}
			rd.Cells = append(rd.Cells, cell)
		}
		if rowAction != nil && idx >= 0 {
			rd.EditURL = editURL(id, idx, rowAction.Name)
		}
		data.Rows = append(data.Rows, rd)
	}
	data.Pager = buildPager(id, page)

	if v.Dialog != nil {
		dialog := buildDialog(id, ds, v.Dialog, audiences)
		data.Dialog = &dialog
	}
	return data
}

func buildDropdown(id core.DatasetID, v *session.View, d core.Dimension) views.DropdownData {
	base := baseURL(id) + "/dropdown/" + url.PathEscape(d.Name)
	options := v.Filter.Options(d.Name)
	dd := views.DropdownData{
		ID:       "dropdown-" + d.Name,
		Name:     d.Name,
		Label:    d.Label,
		URL:      base,
		Disabled: v.Filter.Disabled(d.Name),
		Summary:  fmt.Sprintf("%d of %d", selectedCount(v, d.Name, options), len(options)),
	}
	state, ok := v.Dropdowns.Get(d.Name)
	if !ok || !state.IsOpen() {
		return dd
	}
	dd.Open = true
	dd.Search = state.Search
	dd.AllSelected = v.Filter.AllFilteredSelected(d.Name, state.Search)
	for _, o := range state.Filter(options) {
		dd.Options = append(dd.Options, views.Option{
			Value:    o,
			Selected: v.Filter.Selected(d.Name, o),
			URL:      base + "/option?" + url.Values{"value": {o}}.Encode(),
		})
	}
	return dd
}

func selectedCount(v *session.View, name string, options []string) int {
	n := 0
	for _, o := range options {
		if v.Filter.Selected(name, o) {
			n++
		}
	}
	return n
}

func buildPager(id core.DatasetID, page grid.Page) views.PagerData {
	p := views.PagerData{
		Summary: page.Summary(),
		HasPrev: page.HasPrev(),
		HasNext: page.HasNext(),
		PrevURL: pageURL(id, page.Index),
		NextURL: pageURL(id, page.Index+2),
		SizeURL: baseURL(id) + "/page-size",
	}
	for _, i := range page.Window(pageWindow) {
		p.Links = append(p.Links, views.PageLink{
			Label:   strconv.Itoa(i + 1),
			URL:     pageURL(id, i+1),
			Current: i == page.Index,
		})
	}
	for _, size := range grid.PageSizes {
		p.Sizes = append(p.Sizes, views.Option{
			Value:    strconv.Itoa(size),
			Selected: size == page.Size,
		})
	}
	return p
}

func buildDialog(id core.DatasetID, ds *core.Dataset, d *session.Dialog, audiences []string) views.DialogData {
	a := d.Action
	out := views.DialogData{
		Title:     a.Label,
		Error:     d.Error,
		SubmitURL: editURL(id, d.Row, a.Name),
		CancelURL: baseURL(id) + "/dialog/close",
	}
	for _, col := range ds.Columns {
		f := views.Field{
			Column:   col,
			Label:    grid.HeaderLabel(col, nil),
			Value:    d.Values.Get(col),
			ReadOnly: a.IsReadOnly(col),
		}
		if col == a.ListColumn {
			f.Choices = listChoices(col, f.Value, audiences)
		}
		out.Fields = append(out.Fields, f)
	}
	return out
}

// listChoices offers every configured value plus any unknown value the row
// already carries.
func listChoices(col, current string, options []string) []views.Choice {
	selected := make(map[string]bool)
	for _, v := range splitList(current) {
		selected[v] = true
	}
	var out []views.Choice
	seen := make(map[string]bool)
	for _, o := range options {
		seen[o] = true
		out = append(out, views.Choice{Name: col, Value: o, Selected: selected[o]})
	}
	for _, v := range splitList(current) {
		if !seen[v] {
			seen[v] = true
			out = append(out, views.Choice{Name: col, Value: v, Selected: true})
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// editedRow applies submitted form values to the original row. Read-only
// columns always keep their original value.
func editedRow(original core.Row, columns []string, a core.EditAction, form url.Values) core.Row {
	row := original.Clone()
	for _, col := range columns {
		if a.IsReadOnly(col) {
			continue
		}
		if col == a.ListColumn {
			row[col] = strings.Join(form[col], ",")
			continue
		}
		if vals, ok := form[col]; ok && len(vals) > 0 {
			row[col] = vals[0]
		}
	}
	return row
}
