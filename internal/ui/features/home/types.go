// Package home provides the landing page: drill-down pickers over the
// Radia plan that open its tab already filtered.
package home

import (
	"errors"
	"net/url"

	"github.com/leapstack-labs/ssot/internal/ui/features/common"
	"github.com/leapstack-labs/ssot/internal/ui/views"
	"github.com/leapstack-labs/ssot/pkg/core"
	"github.com/leapstack-labs/ssot/pkg/crossfilter"
)

// pickerNames are the landing pickers in display order.
var pickerNames = []string{
	core.AgencyDimension.Name,
	core.AdvertiserDimension.Name,
	core.ChannelDimension.Name,
}

// buildLanding narrows each picker by the values chosen in the others.
// Choices that are not offered are dropped, later pickers first, until
// the remaining ones are consistent.
func buildLanding(spec core.DatasetSpec, ds *core.Dataset, picks map[string]string) views.LandingData {
	var dims []core.Dimension
	for _, name := range pickerNames {
		if d, ok := spec.Dimension(name); ok {
			dims = append(dims, d)
		}
	}
	dims = crossfilter.ActiveDimensions(ds.Rows, dims)

	chosen := make(map[string]string)
	for _, d := range dims {
		if v := picks[d.Name]; v != "" {
			chosen[d.Name] = v
		}
	}

	options := make(map[string][]string, len(dims))
	// drop one stale choice per round, the last picker first
	for {
		sel := crossfilter.Selections{}
		for _, d := range dims {
			if v, ok := chosen[d.Name]; ok {
				sel[d.Name] = crossfilter.NewSet(v)
				continue
			}
			sel[d.Name] = crossfilter.Set{}
		}
		stale := ""
		for _, d := range dims {
			options[d.Name] = crossfilter.OptionsFor(ds.Rows, dims, sel, d)
			if v, ok := chosen[d.Name]; ok && !contains(options[d.Name], v) {
				stale = d.Name
			}
		}
		if stale == "" {
			break
		}
		delete(chosen, stale)
	}

	data := views.LandingData{Status: "ready"}
	for _, d := range dims {
		p := views.Picker{Name: d.Name, Label: d.Label}
		for _, v := range options[d.Name] {
			p.Options = append(p.Options, views.Option{Value: v, Selected: chosen[d.Name] == v})
		}
		data.Pickers = append(data.Pickers, p)
	}
	data.GoURL = goURL(spec.ID, chosen)
	return data
}

func goURL(id core.DatasetID, chosen map[string]string) string {
	q := common.PresetQuery(chosen)
	q.Set("tab", string(id))
	return "/table?" + q.Encode()
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func picksFromForm(form url.Values) map[string]string {
	out := make(map[string]string, len(pickerNames))
	for _, name := range pickerNames {
		if v := form.Get(name); v != "" {
			out[name] = v
		}
	}
	return out
}

var errUnknownDataset = errors.New("radia plan is not in the catalog")
