package grid

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/ssot/pkg/core"
)

var titler = cases.Title(language.English)

// Columns returns the union of keys across rows in order of first appearance.
func Columns(rows []core.Row) []string {
	return core.Columns(rows)
}

// HeaderLabel turns a column key into a display label:
// "ADVERTISER_NAME" becomes "Advertiser Name". overrides wins when it has
// an entry for col.
func HeaderLabel(col string, overrides map[string]string) string {
	if label, ok := overrides[col]; ok {
		return label
	}
	return titler.String(strings.ReplaceAll(col, "_", " "))
}

// Visible drops hidden columns, keeping order.
func Visible(columns, hidden []string) []string {
	if len(hidden) == 0 {
		return columns
	}
	skip := make(map[string]struct{}, len(hidden))
	for _, h := range hidden {
		skip[h] = struct{}{}
	}
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if _, ok := skip[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Select keeps only the requested columns that exist, in the requested
// order. It returns the names that were not found.
func Select(columns, wanted []string) (kept, missing []string) {
	have := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		have[c] = struct{}{}
	}
	for _, w := range wanted {
		if _, ok := have[w]; ok {
			kept = append(kept, w)
			continue
		}
		missing = append(missing, w)
	}
	return kept, missing
}
