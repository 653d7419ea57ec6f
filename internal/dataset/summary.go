package dataset

import (
	"fmt"

	"complaint-insights-go/internal/logger"
	"complaint-insights-go/internal/types"
)

// DatasetSummary is the compact overview logged at startup and returned by
// the upload endpoint.
type DatasetSummary struct {
	TotalComplaints    int               `json:"total_complaints"`
	Columns            []types.Column    `json:"columns"`
	DistinctCities     int               `json:"distinct_cities"`
	DistinctCategories int               `json:"distinct_categories"`
	BySentiment        map[string]int    `json:"by_sentiment"`
	MissingByView      map[View][]string `json:"missing_by_view,omitempty"`
	ExampleMessages    []string          `json:"example_messages"`
}

// Summarize describes t without aggregating beyond simple counts.
func Summarize(t types.Table) DatasetSummary {
	ds := DatasetSummary{
		TotalComplaints: t.Len(),
		Columns:         t.Columns,
		BySentiment:     map[string]int{},
		MissingByView:   map[View][]string{},
		ExampleMessages: []string{},
	}
	cities := map[string]bool{}
	cats := map[string]bool{}
	for _, r := range t.Records {
		if v, ok := r.Value(types.ColCity); ok {
			cities[v] = true
		}
		if v, ok := r.Value(types.ColCategory); ok {
			cats[v] = true
		}
		if v, ok := r.Value(types.ColSentiment); ok {
			ds.BySentiment[v]++
		}
		if v, ok := r.Value(types.ColMessage); ok && len(ds.ExampleMessages) < 3 {
			ds.ExampleMessages = append(ds.ExampleMessages, v)
		}
	}
	ds.DistinctCities = len(cities)
	ds.DistinctCategories = len(cats)

	for v, cols := range Requirements {
		if err := Validate(t, cols); err != nil {
			ds.MissingByView[v] = missingOf(t, cols)
		}
	}
	return ds
}

// LoadAndSummarize reads the dataset at path and logs its overview.
func LoadAndSummarize(path string) (types.Table, DatasetSummary, error) {
	log := logger.New().Component("dataset.summary").WithField("path", path)
	log.Info("opening dataset")
	t, err := Load(path)
	if err != nil {
		log.WithError(err).Error("open failed")
		return types.Table{}, DatasetSummary{}, fmt.Errorf("load dataset: %w", err)
	}
	ds := Summarize(t)
	log.WithFields(map[string]interface{}{
		"total_complaints":    ds.TotalComplaints,
		"distinct_cities":     ds.DistinctCities,
		"distinct_categories": ds.DistinctCategories,
		"degraded_views":      len(ds.MissingByView),
	}).Info("dataset summarization complete")
	for v, cols := range ds.MissingByView {
		log.WithField("view", string(v)).WithField("missing", cols).Debug("view will degrade")
	}
	return t, ds, nil
}

func missingOf(t types.Table, cols []types.Column) []string {
	var out []string
	for _, c := range cols {
		if !t.Has(c) {
			out = append(out, string(c))
		}
	}
	return out
}
