// Package aggregator computes the named aggregate views over a (filtered)
// table. Every function is pure: it reads the table and returns fresh values.
//
// Grouped outputs carry FirstSeen, the index of the first row contributing to
// the group, so that extremal picks break ties by table order.
package aggregator

import (
	"math"
	"sort"
	"strconv"
	"time"

	"complaint-insights-go/internal/types"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

type KeyCount struct {
	Key       string `json:"key"`
	Count     int    `json:"count"`
	FirstSeen int    `json:"-"`
}

type KeyMean struct {
	Key       string  `json:"key"`
	Mean      float64 `json:"mean"`
	N         int     `json:"n"`
	FirstSeen int     `json:"-"`
}

type KeyShare struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type WeekCount struct {
	WeekEnding time.Time `json:"week_ending"`
	Count      int       `json:"count"`
}

// CrossTab is a zero-filled two-way count table.
type CrossTab struct {
	Rows   []string                  `json:"rows"`
	Cols   []string                  `json:"cols"`
	Counts map[string]map[string]int `json:"counts"`
}

func (c CrossTab) Get(row, col string) int {
	return c.Counts[row][col]
}

// groups collects non-null values of col in first-seen order.
func groups(t types.Table, col types.Column) ([]KeyCount, map[string]int) {
	var out []KeyCount
	pos := map[string]int{}
	for i, r := range t.Records {
		v, ok := r.Value(col)
		if !ok {
			continue
		}
		p, seen := pos[v]
		if !seen {
			p = len(out)
			pos[v] = p
			out = append(out, KeyCount{Key: v, FirstSeen: i})
		}
		out[p].Count++
	}
	return out, pos
}

// CountBy counts non-null rows per value of col, ascending by key.
func CountBy(t types.Table, col types.Column) []KeyCount {
	out, _ := groups(t, col)
	sort.SliceStable(out, func(i, j int) bool { return lessKey(out[i].Key, out[j].Key) })
	return nonNil(out)
}

// MeanBy averages metric per value of col, ascending by key. Null metrics are
// ignored and groups with no valid metric are omitted.
func MeanBy(t types.Table, col, metric types.Column) []KeyMean {
	type acc struct {
		key       string
		vals      []float64
		firstSeen int
	}
	var accs []*acc
	byKey := map[string]*acc{}
	for i, r := range t.Records {
		k, ok := r.Value(col)
		if !ok {
			continue
		}
		a := byKey[k]
		if a == nil {
			a = &acc{key: k, firstSeen: i}
			byKey[k] = a
			accs = append(accs, a)
		}
		if m, ok := r.Float(metric); ok {
			a.vals = append(a.vals, m)
		}
	}
	out := []KeyMean{}
	for _, a := range accs {
		mean, err := stats.Mean(a.vals)
		if err != nil {
			continue
		}
		out = append(out, KeyMean{Key: a.key, Mean: mean, N: len(a.vals), FirstSeen: a.firstSeen})
	}
	sort.SliceStable(out, func(i, j int) bool { return lessKey(out[i].Key, out[j].Key) })
	return out
}

// ValueCounts is the frequency table of col, descending by count with ties in
// first-seen order.
func ValueCounts(t types.Table, col types.Column) []KeyCount {
	out, _ := groups(t, col)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return nonNil(out)
}

// TopN is ValueCounts truncated to n entries.
func TopN(t types.Table, col types.Column, n int) []KeyCount {
	vc := ValueCounts(t, col)
	if n >= 0 && n < len(vc) {
		return vc[:n]
	}
	return vc
}

// CrossTabulate counts rows per (a, b) pair where both are non-null. Row and
// column keys are ascending; absent combinations are present as 0.
func CrossTabulate(t types.Table, a, b types.Column) CrossTab {
	ct := CrossTab{Counts: map[string]map[string]int{}}
	colSeen := map[string]bool{}
	for _, r := range t.Records {
		av, ok := r.Value(a)
		if !ok {
			continue
		}
		bv, ok := r.Value(b)
		if !ok {
			continue
		}
		if ct.Counts[av] == nil {
			ct.Counts[av] = map[string]int{}
			ct.Rows = append(ct.Rows, av)
		}
		ct.Counts[av][bv]++
		if !colSeen[bv] {
			colSeen[bv] = true
			ct.Cols = append(ct.Cols, bv)
		}
	}
	sort.SliceStable(ct.Rows, func(i, j int) bool { return lessKey(ct.Rows[i], ct.Rows[j]) })
	sort.SliceStable(ct.Cols, func(i, j int) bool { return lessKey(ct.Cols[i], ct.Cols[j]) })
	for _, rk := range ct.Rows {
		for _, ck := range ct.Cols {
			if _, ok := ct.Counts[rk][ck]; !ok {
				ct.Counts[rk][ck] = 0
			}
		}
	}
	if ct.Rows == nil {
		ct.Rows, ct.Cols = []string{}, []string{}
	}
	return ct
}

// WeeklyTimeSeries counts non-null countCol values per calendar week ending on
// Sunday, chronologically, with empty weeks between the first and last filled
// as 0. Rows without a parsed date are excluded.
func WeeklyTimeSeries(t types.Table, dateCol, countCol types.Column) []WeekCount {
	counts := map[time.Time]int{}
	var first, last time.Time
	seen := false
	for _, r := range t.Records {
		ts, ok := r.Time(dateCol)
		if !ok {
			continue
		}
		wk := weekEnding(ts)
		if !seen || wk.Before(first) {
			first = wk
		}
		if !seen || wk.After(last) {
			last = wk
		}
		seen = true
		if _, ok := r.Value(countCol); ok {
			counts[wk]++
		}
	}
	if !seen {
		return []WeekCount{}
	}
	var out []WeekCount
	for wk := first; !wk.After(last); wk = wk.AddDate(0, 0, 7) {
		out = append(out, WeekCount{WeekEnding: wk, Count: counts[wk]})
	}
	return out
}

func weekEnding(ts time.Time) time.Time {
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, (7-int(day.Weekday()))%7)
}

// NUnique counts distinct non-null values of col.
func NUnique(t types.Table, col types.Column) int {
	_, pos := groups(t, col)
	return len(pos)
}

// ScalarMean averages col over the whole table. ok is false when there is no
// valid value; callers show "N/A".
func ScalarMean(t types.Table, col types.Column) (mean float64, ok bool) {
	var vals []float64
	for _, r := range t.Records {
		if v, ok := r.Float(col); ok {
			vals = append(vals, v)
		}
	}
	m, err := stats.Mean(vals)
	if err != nil {
		return 0, false
	}
	return m, true
}

// Shares turns counts into percentages of their total, keeping order.
func Shares(counts []KeyCount) []KeyShare {
	vals := make([]float64, len(counts))
	for i, c := range counts {
		vals[i] = float64(c.Count)
	}
	total := floats.Sum(vals)
	out := make([]KeyShare, len(counts))
	for i, c := range counts {
		out[i] = KeyShare{Key: c.Key, Count: c.Count}
		if total > 0 {
			out[i].Percent = vals[i] / total * 100
		}
	}
	return out
}

// ArgMaxCount picks the largest count; ties go to the first-seen key.
func ArgMaxCount(counts []KeyCount) (KeyCount, bool) {
	if len(counts) == 0 {
		return KeyCount{}, false
	}
	best := counts[0]
	for _, c := range counts[1:] {
		if c.Count > best.Count || (c.Count == best.Count && c.FirstSeen < best.FirstSeen) {
			best = c
		}
	}
	return best, true
}

// ArgMax picks the highest mean; ties go to the first-seen key.
func ArgMax(means []KeyMean) (KeyMean, bool) {
	return pick(means, func(a, b float64) bool { return a > b })
}

// ArgMin picks the lowest mean; ties go to the first-seen key.
func ArgMin(means []KeyMean) (KeyMean, bool) {
	return pick(means, func(a, b float64) bool { return a < b })
}

func pick(means []KeyMean, better func(a, b float64) bool) (KeyMean, bool) {
	if len(means) == 0 {
		return KeyMean{}, false
	}
	best := means[0]
	for _, m := range means[1:] {
		if better(m.Mean, best.Mean) || (m.Mean == best.Mean && m.FirstSeen < best.FirstSeen) {
			best = m
		}
	}
	return best, true
}

// lessKey is a total order on group keys: numeric keys first, by value, then
// every other key bytewise. Numerically equal keys ("2", "2.0") fall back to
// bytewise.
func lessKey(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	numA, numB := errA == nil && !math.IsNaN(fa), errB == nil && !math.IsNaN(fb)
	switch {
	case numA && numB:
		if fa != fb {
			return fa < fb
		}
		return a < b
	case numA != numB:
		return numA
	}
	return a < b
}

func nonNil(kc []KeyCount) []KeyCount {
	if kc == nil {
		return []KeyCount{}
	}
	return kc
}
