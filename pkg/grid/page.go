package grid

import (
	"fmt"

	"github.com/leapstack-labs/ssot/pkg/core"
)

// PageSizes are the sizes offered by the page size picker.
var PageSizes = []int{50, 100, 200, 500}

// DefaultPageSize is used when no valid size is given.
const DefaultPageSize = 100

// ValidPageSize reports whether size is one of PageSizes.
func ValidPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// NormalizePageSize returns size when valid, otherwise DefaultPageSize.
func NormalizePageSize(size int) int {
	if ValidPageSize(size) {
		return size
	}
	return DefaultPageSize
}

// Page is one slice of a row sequence.
type Page struct {
	Rows []core.Row
	// Index is zero based.
	Index int
	Size  int
	Count int
	Total int
}

// Paginate returns page index of rows. The index is clamped to the
// available pages; an empty input yields one empty page.
func Paginate(rows []core.Row, index, size int) Page {
	size = NormalizePageSize(size)
	count := (len(rows) + size - 1) / size
	if count == 0 {
		count = 1
	}
	if index < 0 {
		index = 0
	}
	if index >= count {
		index = count - 1
	}

	start := index * size
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	if start > end {
		start = end
	}

	return Page{
		Rows:  rows[start:end],
		Index: index,
		Size:  size,
		Count: count,
		Total: len(rows),
	}
}

// First is the 1-based number of the first row on the page, 0 when empty.
func (p Page) First() int {
	if len(p.Rows) == 0 {
		return 0
	}
	return p.Index*p.Size + 1
}

// Last is the 1-based number of the last row on the page.
func (p Page) Last() int {
	if len(p.Rows) == 0 {
		return 0
	}
	return p.Index*p.Size + len(p.Rows)
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Index > 0 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.Index < p.Count-1 }

// Summary renders "Showing 1 to 100 of 250 entries".
func (p Page) Summary() string {
	return fmt.Sprintf("Showing %d to %d of %d entries", p.First(), p.Last(), p.Total)
}

// Window returns up to n page indexes centred on the current page, used
// to draw numbered page buttons.
func (p Page) Window(n int) []int {
	if n <= 0 {
		return nil
	}
	start := p.Index - n/2
	if start+n > p.Count {
		start = p.Count - n
	}
	if start < 0 {
		start = 0
	}
	out := make([]int, 0, n)
	for i := start; i < p.Count && len(out) < n; i++ {
		out = append(out, i)
	}
	return out
}
