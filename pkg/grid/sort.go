package grid

import (
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/ssot/pkg/core"
)

// Sort returns a stably sorted copy of rows ordered by column. Cells that
// both parse as numbers compare numerically, other cells compare as
// case-insensitive text. Empty cells always sort last.
func Sort(rows []core.Row, column string, desc bool) []core.Row {
	out := make([]core.Row, len(rows))
	copy(out, rows)
	if column == "" {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Get(column), out[j].Get(column)
		switch {
		case a == "" || b == "":
			return a != "" && b == ""
		case desc:
			return compareCells(b, a) < 0
		default:
			return compareCells(a, b) < 0
		}
	})
	return out
}

func compareCells(a, b string) int {
	fa, errA := parseNumber(a)
	fb, errB := parseNumber(b)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// parseNumber accepts plain numbers as well as "$1,200.50" and "15%".
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}
