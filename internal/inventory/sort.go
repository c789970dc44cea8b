package inventory

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/vbonduro/storagescout/internal/domain"
)

type SortField string

const (
	SortByName     SortField = "name"
	SortByDate     SortField = "date"
	SortByLocation SortField = "location"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseSortField maps a request value onto a SortField.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByName, SortByDate, SortByLocation:
		return f, true
	}
	return "", false
}

func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Asc, Desc:
		return d, true
	}
	return "", false
}

// Query is a filter followed by a sort.
type Query struct {
	Text string
	Sort SortField
	Dir  Direction
}

// DefaultQuery lists newest items first.
func DefaultQuery() Query {
	return Query{Sort: SortByDate, Dir: Desc}
}

// Apply filters items by q.Text, then sorts the survivors.
func Apply(items []domain.Item, q Query) []domain.Item {
	return SortItems(FilterItems(items, q.Text), q.Sort, q.Dir)
}

// SortItems returns a sorted copy of items. The sort is stable and Desc is
// the exact reverse of the Asc comparison, so equal keys keep their input
// order in both directions. Text fields compare with locale collation and a
// zero CreatedAt counts as the epoch.
func SortItems(items []domain.Item, field SortField, dir Direction) []domain.Item {
	sorted := slices.Clone(items)
	if sorted == nil {
		sorted = []domain.Item{}
	}

	compare := comparator(field)
	if compare == nil {
		return sorted
	}
	if dir == Desc {
		asc := compare
		compare = func(a, b domain.Item) int { return -asc(a, b) }
	}

	slices.SortStableFunc(sorted, compare)
	return sorted
}

func comparator(field SortField) func(a, b domain.Item) int {
	switch field {
	case SortByName:
		// Collators keep scratch buffers and are not safe to share.
		c := collate.New(language.English)
		return func(a, b domain.Item) int { return c.CompareString(a.Name, b.Name) }
	case SortByLocation:
		c := collate.New(language.English)
		return func(a, b domain.Item) int { return c.CompareString(a.Location, b.Location) }
	case SortByDate:
		return func(a, b domain.Item) int { return cmp.Compare(createdMillis(a), createdMillis(b)) }
	}
	return nil
}

func createdMillis(it domain.Item) int64 {
	if it.CreatedAt.IsZero() {
		return 0
	}
	return it.CreatedAt.UnixMilli()
}
