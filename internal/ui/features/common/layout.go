package common

import (
	"net/url"

	"github.com/leapstack-labs/ssot/internal/ui/views"
	"github.com/leapstack-labs/ssot/pkg/core"
)

// TableURL is the tab page of a dataset.
func TableURL(id core.DatasetID) string {
	return "/table?" + url.Values{"tab": {string(id)}}.Encode()
}

// Layout builds the page chrome with active highlighted in the tabs.
func (d *Deps) Layout(title string, active core.DatasetID) views.Layout {
	l := views.Layout{Title: title, Dev: d.Dev}
	for _, id := range core.DatasetIDs() {
		spec, ok := d.Spec(id)
		if !ok {
			continue
		}
		l.Tabs = append(l.Tabs, views.Tab{
			Label:  spec.Label,
			URL:    TableURL(id),
			Active: id == active,
		})
	}
	return l
}
