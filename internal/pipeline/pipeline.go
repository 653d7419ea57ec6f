// Package pipeline builds the interactive dashboard: every view of the
// filtered table in one pass, with a warning in place of any view whose
// columns are missing.
package pipeline

import (
	"fmt"

	"complaint-insights-go/internal/actionable"
	"complaint-insights-go/internal/aggregator"
	"complaint-insights-go/internal/config"
	"complaint-insights-go/internal/dataset"
	"complaint-insights-go/internal/logger"
	"complaint-insights-go/internal/narrative"
	"complaint-insights-go/internal/types"
	"complaint-insights-go/internal/wordfreq"
)

// NoRows is the base warning when the filters leave nothing to show.
const NoRows = "no complaints match the selected filters"

// Deps carries the resources loaded once at startup.
type Deps struct {
	Stopwords wordfreq.Stopwords
	// StopwordsErr is set when the stop-word file could not be read; the word
	// cloud is then built unfiltered and says so.
	StopwordsErr error
}

type MetricCards struct {
	TotalOpinions int    `json:"total_opinions"`
	UniqueCities  int    `json:"unique_cities"`
	TopCity       string `json:"top_city"`
	Complaints    int    `json:"complaints"`
	TopCategory   string `json:"top_category"`
	AverageRating string `json:"average_rating"`
}

type CategoryRow struct {
	Category       string   `json:"category"`
	Count          int      `json:"count"`
	MeanRating     *float64 `json:"mean_rating"`
	MeanConfidence *float64 `json:"mean_confidence,omitempty"`
}

type DetailsTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Dashboard is the JSON document served for one filter selection.
type Dashboard struct {
	Filters               dataset.FilterSet         `json:"filters"`
	Rows                  int                       `json:"rows"`
	Metrics               MetricCards               `json:"metrics"`
	CategoryCounts        []aggregator.KeyCount     `json:"category_counts,omitempty"`
	TopCities             []aggregator.KeyCount     `json:"top_cities,omitempty"`
	MeanByCategory        []aggregator.KeyMean      `json:"mean_by_category,omitempty"`
	RatingDistribution    []aggregator.KeyCount     `json:"rating_distribution,omitempty"`
	SentimentDistribution []aggregator.KeyCount     `json:"sentiment_distribution,omitempty"`
	SentimentByCategory   *aggregator.CrossTab      `json:"sentiment_by_category,omitempty"`
	Weekly                []aggregator.WeekCount    `json:"weekly,omitempty"`
	CategoryTable         []CategoryRow             `json:"category_table,omitempty"`
	Details               *DetailsTable             `json:"details,omitempty"`
	WordCloud             []aggregator.KeyCount     `json:"word_cloud,omitempty"`
	PositiveComments      []string                  `json:"positive_comments,omitempty"`
	NegativeComments      []string                  `json:"negative_comments,omitempty"`
	StateCounts           []aggregator.KeyCount     `json:"state_counts,omitempty"`
	Findings              []narrative.Finding       `json:"findings"`
	Recommendations       []actionable.ActionCard   `json:"recommendations"`
	Options               map[types.Column][]string `json:"options"`
	Warnings              map[dataset.View]string   `json:"warnings,omitempty"`
}

// BuildDashboard validates the base columns of the full table, applies fs and
// computes every view over the filtered rows. Only a base validation failure
// is returned as an error; anything narrower becomes a warning.
func BuildDashboard(t types.Table, fs dataset.FilterSet, cfg config.ReportConfig, deps Deps) (*Dashboard, error) {
	log := logger.New().Component("pipeline").WithField("filters", fs.Active())

	if err := dataset.ValidateView(t, dataset.ViewBase); err != nil {
		log.WithError(err).Error("dataset lacks base columns")
		return nil, err
	}

	ft := dataset.Apply(t, fs)
	d := &Dashboard{
		Filters:  fs.Active(),
		Rows:     ft.Len(),
		Options:  dataset.FilterOptions(t),
		Warnings: map[dataset.View]string{},
	}
	if ft.Len() == 0 {
		d.Warnings[dataset.ViewBase] = NoRows
	}

	view := func(v dataset.View, build func()) {
		if err := dataset.ValidateView(ft, v); err != nil {
			d.Warnings[v] = err.Error()
			log.WithField("view", string(v)).WithError(err).Warn("view skipped")
			return
		}
		build()
	}

	d.Metrics = metrics(ft)
	view(dataset.ViewCategoryCounts, func() {
		d.CategoryCounts = aggregator.CountBy(ft, types.ColCategory)
	})
	view(dataset.ViewTopCities, func() {
		d.TopCities = aggregator.TopN(ft, types.ColCity, cfg.TopCities)
	})
	view(dataset.ViewMeanByCategory, func() {
		d.MeanByCategory = aggregator.MeanBy(ft, types.ColCategory, types.ColStarRating)
	})
	view(dataset.ViewRatingDistribution, func() {
		d.RatingDistribution = aggregator.CountBy(ft, types.ColStarRating)
	})
	view(dataset.ViewSentimentDistribution, func() {
		d.SentimentDistribution = sentimentCounts(ft)
	})
	view(dataset.ViewSentimentByCategory, func() {
		ct := aggregator.CrossTabulate(ft, types.ColCategory, types.ColSentiment)
		d.SentimentByCategory = &ct
	})
	view(dataset.ViewWeeklyTrend, func() {
		d.Weekly = aggregator.WeeklyTimeSeries(ft, types.ColSentDate, types.ColCategory)
	})
	view(dataset.ViewCategoryTable, func() {
		d.CategoryTable = categoryTable(ft)
	})
	view(dataset.ViewDetails, func() {
		d.Details = details(ft)
		if len(d.Details.Columns) == 0 {
			d.Details = nil
			d.Warnings[dataset.ViewDetails] = "no detail columns in dataset"
		}
	})
	d.buildWordCloud(ft, deps)
	view(dataset.ViewSampleComments, func() {
		samples := narrative.SampleComments(ft, cfg.SampleSize, cfg.Seed)
		d.PositiveComments = narrative.For(samples, types.SentimentPositive)
		d.NegativeComments = narrative.For(samples, types.SentimentNegative)
	})
	view(dataset.ViewMap, func() {
		d.StateCounts = aggregator.CountBy(ft, types.ColStateCode)
	})

	d.Findings = narrative.Synthesize(ft)
	d.Recommendations = actionable.Generate(d.Findings)

	log.WithField("rows", d.Rows).WithField("warnings", len(d.Warnings)).Info("dashboard built")
	return d, nil
}

func metrics(t types.Table) MetricCards {
	m := MetricCards{
		TotalOpinions: t.Len(),
		UniqueCities:  aggregator.NUnique(t, types.ColCity),
		TopCity:       "N/A",
		TopCategory:   "N/A",
		AverageRating: "N/A",
	}
	if top, ok := aggregator.ArgMaxCount(aggregator.ValueCounts(t, types.ColCity)); ok {
		m.TopCity = top.Key
	}
	if top, ok := aggregator.ArgMaxCount(aggregator.ValueCounts(t, types.ColCategory)); ok {
		m.TopCategory = top.Key
	}
	for _, r := range t.Records {
		if s, ok := r.Value(types.ColSentiment); ok && s == types.SentimentNegative {
			m.Complaints++
		}
	}
	if mean, ok := aggregator.ScalarMean(t, types.ColStarRating); ok {
		m.AverageRating = fmt.Sprintf("%.1f", mean)
	}
	return m
}

// sentimentCounts lists the three classes in their fixed order, zero-filled.
func sentimentCounts(t types.Table) []aggregator.KeyCount {
	byKey := map[string]int{}
	for _, kc := range aggregator.CountBy(t, types.ColSentiment) {
		byKey[kc.Key] = kc.Count
	}
	out := make([]aggregator.KeyCount, len(types.SentimentOrder))
	for i, s := range types.SentimentOrder {
		out[i] = aggregator.KeyCount{Key: s, Count: byKey[s]}
	}
	return out
}

func categoryTable(t types.Table) []CategoryRow {
	ratings := map[string]float64{}
	for _, km := range aggregator.MeanBy(t, types.ColCategory, types.ColStarRating) {
		ratings[km.Key] = km.Mean
	}
	conf := map[string]float64{}
	if t.Has(types.ColConfidence) {
		for _, km := range aggregator.MeanBy(t, types.ColCategory, types.ColConfidence) {
			conf[km.Key] = km.Mean
		}
	}
	counts := aggregator.CountBy(t, types.ColCategory)
	out := make([]CategoryRow, len(counts))
	for i, kc := range counts {
		out[i] = CategoryRow{Category: kc.Key, Count: kc.Count}
		if v, ok := ratings[kc.Key]; ok {
			out[i].MeanRating = types.Ptr(v)
		}
		if v, ok := conf[kc.Key]; ok {
			out[i].MeanConfidence = types.Ptr(v)
		}
	}
	return out
}

// details keeps the pass-through columns the table has and drops rows where
// every one of them is empty.
func details(t types.Table) *DetailsTable {
	var cols []types.Column
	for _, c := range types.DetailColumns {
		if t.Has(c) {
			cols = append(cols, c)
		}
	}
	dt := &DetailsTable{Columns: make([]string, len(cols)), Rows: [][]string{}}
	for i, c := range cols {
		dt.Columns[i] = string(c)
	}
	if len(cols) == 0 {
		return dt
	}
	for _, r := range t.Records {
		row := make([]string, len(cols))
		empty := true
		for i, c := range cols {
			if v, ok := r.Value(c); ok {
				row[i] = v
				empty = false
			}
		}
		if !empty {
			dt.Rows = append(dt.Rows, row)
		}
	}
	return dt
}

// buildWordCloud counts tokens, falling back to the free-text message column
// when the export carries no token lists.
func (d *Dashboard) buildWordCloud(t types.Table, deps Deps) {
	col := types.ColTokens
	if !t.Has(col) && t.Has(types.ColMessage) {
		col = types.ColMessage
	}
	if err := dataset.Validate(t, []types.Column{col}); err != nil {
		d.Warnings[dataset.ViewWordCloud] = err.Error()
		return
	}
	d.WordCloud = wordfreq.Build(t, col, deps.Stopwords, wordfreq.DefaultMinLength)
	switch {
	case deps.StopwordsErr != nil:
		d.Warnings[dataset.ViewWordCloud] = "stop words unavailable, showing unfiltered words: " + deps.StopwordsErr.Error()
	case len(d.WordCloud) == 0 && t.Len() > 0:
		d.Warnings[dataset.ViewWordCloud] = "no words to display"
	}
}
