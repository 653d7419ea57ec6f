package geo

import (
	"fmt"
	"sort"

	"complaint-insights-go/internal/aggregator"
	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/theme"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// StateCount is one feature of the rendered map.
type StateCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
	Fill  string `json:"fill"`
}

// Scale returns the colour stops of the map for th, low to high.
func Scale(th theme.Theme) []string {
	return []string{th.Warning, th.Primary}
}

// ColorFor interpolates v linearly over stops between lo and hi.
func ColorFor(v, lo, hi float64, stops []string) string {
	switch len(stops) {
	case 0:
		return "#000000"
	case 1:
		return stops[0]
	}
	f := 0.0
	if hi > lo {
		f = (v - lo) / (hi - lo)
	}
	seg := f * float64(len(stops)-1)
	i := int(seg)
	if i >= len(stops)-1 {
		return theme.Lerp(stops[len(stops)-2], stops[len(stops)-1], 1)
	}
	return theme.Lerp(stops[i], stops[i+1], seg-float64(i))
}

// Choropleth writes count, fillColor and tooltip into the properties of each
// feature, matched by feature id. States without complaints get count 0 and
// the theme's light colour. The returned states are ordered by count,
// highest first.
func Choropleth(boundaries []byte, counts []aggregator.KeyCount, th theme.Theme) ([]byte, []StateCount, error) {
	features := gjson.GetBytes(boundaries, "features")
	if !features.IsArray() {
		return nil, nil, apperrors.ExternalResource("state boundaries", fmt.Errorf("no features array"))
	}

	byID := map[string]int{}
	lo, hi := 0.0, 0.0
	for i, kc := range counts {
		byID[kc.Key] = kc.Count
		c := float64(kc.Count)
		if i == 0 || c < lo {
			lo = c
		}
		if i == 0 || c > hi {
			hi = c
		}
	}
	stops := Scale(th)

	doc := boundaries
	states := []StateCount{}
	var err error
	for i, f := range features.Array() {
		id := f.Get("id").String()
		name := f.Get("properties.name").String()
		n, ok := byID[id]
		fill := th.Light
		if ok {
			fill = ColorFor(float64(n), lo, hi, stops)
		}
		base := fmt.Sprintf("features.%d.properties.", i)
		if doc, err = sjson.SetBytes(doc, base+"count", n); err != nil {
			return nil, nil, apperrors.Wrap(err, "set count")
		}
		if doc, err = sjson.SetBytes(doc, base+"fillColor", fill); err != nil {
			return nil, nil, apperrors.Wrap(err, "set fill")
		}
		if doc, err = sjson.SetBytes(doc, base+"tooltip", fmt.Sprintf("%s: %d", name, n)); err != nil {
			return nil, nil, apperrors.Wrap(err, "set tooltip")
		}
		states = append(states, StateCount{ID: id, Name: name, Count: n, Fill: fill})
	}

	sort.SliceStable(states, func(i, j int) bool { return states[i].Count > states[j].Count })
	return doc, states, nil
}
