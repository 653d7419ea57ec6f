package dataset

import (
	"sort"
	"strings"

	"complaint-insights-go/internal/types"
)

// All is the "no filter" sentinel.
const All = "all"

// FilterColumns are the columns the dashboard offers as selectors, in order.
var FilterColumns = []types.Column{
	types.ColCity, types.ColCategory, types.ColSentiment, types.ColProductType,
}

// FilterSet maps a column to the selected value or the All sentinel.
type FilterSet map[types.Column]string

// IsAll reports whether v means "no filter".
func IsAll(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", All, "none", "todas", "todos":
		return true
	}
	return false
}

// Active returns the filters that actually restrict rows.
func (fs FilterSet) Active() FilterSet {
	out := FilterSet{}
	for c, v := range fs {
		if !IsAll(v) {
			out[c] = v
		}
	}
	return out
}

// Apply keeps rows where every active filter matches exactly. A filter on a
// column the table lacks matches no rows; null never matches a value.
func Apply(t types.Table, fs FilterSet) types.Table {
	active := fs.Active()
	if len(active) == 0 {
		return t
	}
	for c := range active {
		if !t.Has(c) {
			return t.Select(func(types.Record) bool { return false })
		}
	}
	return t.Select(func(r types.Record) bool {
		for c, want := range active {
			got, ok := r.Value(c)
			if !ok || got != want {
				return false
			}
		}
		return true
	})
}

// FilterOptions lists the sorted distinct observed values per filter column
// present in t.
func FilterOptions(t types.Table) map[types.Column][]string {
	out := map[types.Column][]string{}
	for _, c := range FilterColumns {
		if !t.Has(c) {
			continue
		}
		seen := map[string]bool{}
		vals := []string{}
		for _, r := range t.Records {
			v, ok := r.Value(c)
			if !ok || seen[v] {
				continue
			}
			seen[v] = true
			vals = append(vals, v)
		}
		sort.Strings(vals)
		out[c] = vals
	}
	return out
}
