package report

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"complaint-insights-go/internal/actionable"
	"complaint-insights-go/internal/aggregator"
	"complaint-insights-go/internal/config"
	"complaint-insights-go/internal/dataset"
	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/logger"
	"complaint-insights-go/internal/narrative"
	"complaint-insights-go/internal/theme"
	"complaint-insights-go/internal/types"

	"github.com/google/uuid"
)

// NotAvailable is shown in place of an undefined mean.
const NotAvailable = "N/A"

// DefaultLayout is the fixed section order of the document.
var DefaultLayout = []dataset.View{
	dataset.ViewCover,
	dataset.ViewSummary,
	dataset.ViewCategoryPerception,
	dataset.ViewSentimentDistribution,
	dataset.ViewCategoryDistribution,
	dataset.ViewTopStates,
	dataset.ViewCityCategoryGrid,
	dataset.ViewSingleCategoryCities,
	dataset.ViewTopProducts,
	dataset.ViewWeeklyTrend,
	dataset.ViewFindings,
	dataset.ViewRecommendations,
	dataset.ViewSampleComments,
}

// ReportCategories are the complaint categories the model predicts, listed on
// the summary page.
var ReportCategories = []string{
	"Request for shipping to the user's postal address",
	"Request for shipping to a specific hospital",
	"Accidentally lost inside the hospital",
	"Never received and still waiting",
	"Request for tracking confirmation shipment",
}

type Options struct {
	Theme       theme.Theme
	TopStates   int
	TopProducts int
	SampleSize  int
	// Seed pins comment sampling; nil samples differently on every run.
	Seed *int64
	Now  func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Theme:       theme.Corporate,
		TopStates:   5,
		TopProducts: 10,
		SampleSize:  3,
		Now:         time.Now,
	}
}

// OptionsFromConfig resolves the report knobs of cfg.
func OptionsFromConfig(cfg config.ReportConfig) (Options, error) {
	th, err := theme.ByName(cfg.Theme)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Theme:       th,
		TopStates:   cfg.TopStates,
		TopProducts: cfg.TopProducts,
		SampleSize:  cfg.SampleSize,
		Seed:        cfg.Seed,
		Now:         time.Now,
	}, nil
}

type builder func(t types.Table, opts Options) (Section, error)

var builders = map[dataset.View]builder{
	dataset.ViewCover:                 buildCover,
	dataset.ViewSummary:               buildSummary,
	dataset.ViewCategoryPerception:    buildCategoryPerception,
	dataset.ViewSentimentDistribution: buildSentimentDistribution,
	dataset.ViewCategoryDistribution:  buildCategoryDistribution,
	dataset.ViewTopStates:             buildTopStates,
	dataset.ViewCityCategoryGrid:      buildCityGrid,
	dataset.ViewSingleCategoryCities:  buildSingleCategoryCities,
	dataset.ViewTopProducts:           buildTopProducts,
	dataset.ViewWeeklyTrend:           buildWeeklyTrend,
	dataset.ViewFindings:              buildFindings,
	dataset.ViewRecommendations:       buildRecommendations,
	dataset.ViewSampleComments:        buildSampleComments,
}

// Assemble computes every section of layout from one snapshot of t. A section
// whose columns are missing, or whose data is empty, is skipped and logged;
// assembly itself never fails.
func Assemble(t types.Table, layout []dataset.View, opts Options) *Report {
	log := logger.New().Component("report.assembler")
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Theme.Palette) == 0 {
		opts.Theme = theme.Corporate
	}

	snapshot := types.NewTable(
		append([]types.Column(nil), t.Columns...),
		append([]types.Record(nil), t.Records...),
	)
	rep := &Report{
		ID:          uuid.New().String(),
		GeneratedAt: opts.Now(),
		Theme:       opts.Theme,
		Rows:        snapshot.Len(),
		Sections:    []Section{},
		Skipped:     []Skip{},
		Warnings:    []string{},
	}

	for _, v := range layout {
		build, ok := builders[v]
		if !ok {
			rep.Skipped = append(rep.Skipped, Skip{Kind: v, Reason: "unknown section"})
			continue
		}
		if err := dataset.ValidateView(snapshot, v); err != nil {
			log.WithField("section", string(v)).WithError(err).Warn("section skipped")
			rep.Skipped = append(rep.Skipped, Skip{Kind: v, Reason: err.Error()})
			continue
		}
		sec, err := build(snapshot, opts)
		if err != nil {
			log.WithField("section", string(v)).WithError(err).Warn("section skipped")
			rep.Skipped = append(rep.Skipped, Skip{Kind: v, Reason: err.Error()})
			continue
		}
		sec.Kind = v
		rep.Sections = append(rep.Sections, sec)
	}

	log.WithField("report_id", rep.ID).WithField("sections", len(rep.Sections)).
		WithField("skipped", len(rep.Skipped)).Info("report assembled")
	return rep
}

func buildCover(_ types.Table, opts Options) (Section, error) {
	return Section{
		Title:   "Feedback Report",
		Payload: Cover{Title: "Feedback Report", Date: opts.Now().Format("02/01/2006")},
	}, nil
}

func buildSummary(t types.Table, _ Options) (Section, error) {
	s := Summary{
		TotalMessages:      t.Len(),
		DistinctCities:     aggregator.NUnique(t, types.ColCity),
		DistinctCategories: aggregator.NUnique(t, types.ColCategory),
		Categories:         ReportCategories,
	}
	if m, ok := aggregator.ScalarMean(t, types.ColStarRating); ok {
		s.MeanRating = &m
	}
	return Section{Title: "Data Overview", Payload: s}, nil
}

// buildCategoryPerception plots the number of ratings per category, categories
// ordered by mean rating (best first) and annotated with it.
func buildCategoryPerception(t types.Table, opts Options) (Section, error) {
	means := aggregator.MeanBy(t, types.ColCategory, types.ColStarRating)
	if len(means) == 0 {
		return Section{}, apperrors.EmptyAggregate("category perception")
	}
	sort.SliceStable(means, func(i, j int) bool {
		if means[i].Mean != means[j].Mean {
			return means[i].Mean > means[j].Mean
		}
		return means[i].FirstSeen < means[j].FirstSeen
	})
	chart := BarChart{XLabel: "Category", YLabel: "Number of opinions"}
	for i, m := range means {
		chart.Bars = append(chart.Bars, Bar{
			Label: m.Key, Value: float64(m.N),
			Annotation: formatFloat(m.Mean, 1), Color: opts.Theme.Color(i),
		})
	}
	return Section{
		Title:    "Perception by Category",
		Subtitle: "Categories ordered by average star rating",
		Payload:  chart,
	}, nil
}

func buildSentimentDistribution(t types.Table, opts Options) (Section, error) {
	counts := map[string]int{}
	for _, kc := range aggregator.ValueCounts(t, types.ColSentiment) {
		counts[kc.Key] = kc.Count
	}
	chart := BarChart{XLabel: "Sentiment", YLabel: "Number of messages"}
	for _, s := range types.SentimentOrder {
		chart.Bars = append(chart.Bars, Bar{
			Label: s, Value: float64(counts[s]),
			Annotation: strconv.Itoa(counts[s]), Color: opts.Theme.SentimentColor(s),
		})
	}
	return Section{
		Title:    "Sentiment Distribution",
		Subtitle: "Sentiment of the received messages",
		Payload:  chart,
	}, nil
}

func buildCategoryDistribution(t types.Table, opts Options) (Section, error) {
	shares := aggregator.Shares(aggregator.ValueCounts(t, types.ColCategory))
	if len(shares) == 0 {
		return Section{}, apperrors.EmptyAggregate("category distribution")
	}
	return Section{
		Title:    "Predicted Categories",
		Subtitle: "Distribution of predicted complaint categories",
		Payload:  shareChart(shares, opts.Theme, "Predicted category", "Number of messages"),
	}, nil
}

func shareChart(shares []aggregator.KeyShare, th theme.Theme, x, y string) BarChart {
	chart := BarChart{XLabel: x, YLabel: y}
	for i, s := range shares {
		chart.Bars = append(chart.Bars, Bar{
			Label: s.Key, Value: float64(s.Count),
			Annotation: formatFloat(s.Percent, 1) + "%", Color: th.Color(i),
		})
	}
	return chart
}

// buildTopStates annotates each state with its share of all rows.
func buildTopStates(t types.Table, opts Options) (Section, error) {
	top := aggregator.TopN(t, types.ColStateName, opts.TopStates)
	if len(top) == 0 {
		return Section{}, apperrors.EmptyAggregate("top states")
	}
	chart := BarChart{XLabel: "Number of complaints", YLabel: "State", Horizontal: true}
	for _, kc := range top {
		pct := float64(kc.Count) / float64(t.Len()) * 100
		chart.Bars = append(chart.Bars, Bar{
			Label: kc.Key, Value: float64(kc.Count),
			Annotation: fmt.Sprintf("%d (%s%%)", kc.Count, formatFloat(pct, 1)),
			Color:      opts.Theme.Secondary,
		})
	}
	return Section{
		Title:    "Complaints by State",
		Subtitle: fmt.Sprintf("Top %d states by number of complaints", opts.TopStates),
		Payload:  chart,
	}, nil
}

// categoriesByCity maps each city to its distinct non-null categories.
func categoriesByCity(t types.Table) map[string]map[string]bool {
	out := map[string]map[string]bool{}
	for _, r := range t.Records {
		city, ok := r.Value(types.ColCity)
		if !ok {
			continue
		}
		if out[city] == nil {
			out[city] = map[string]bool{}
		}
		if cat, ok := r.Value(types.ColCategory); ok {
			out[city][cat] = true
		}
	}
	return out
}

func buildCityGrid(t types.Table, opts Options) (Section, error) {
	var cities []string
	for city, cats := range categoriesByCity(t) {
		if len(cats) > 1 {
			cities = append(cities, city)
		}
	}
	if len(cities) == 0 {
		return Section{}, apperrors.EmptyAggregate("no city has more than one category")
	}
	sort.Strings(cities)

	grid := ChartGrid{Columns: 2}
	for _, city := range cities {
		sub := t.Select(func(r types.Record) bool {
			v, ok := r.Value(types.ColCity)
			return ok && v == city
		})
		shares := aggregator.Shares(aggregator.ValueCounts(sub, types.ColCategory))
		grid.Panels = append(grid.Panels, Panel{
			Title: "Distribution in " + city,
			Chart: shareChart(shares, opts.Theme, "Category", "Count"),
		})
	}
	return Section{Title: "Predicted Categories by City", Payload: grid}, nil
}

// buildSingleCategoryCities lists distinct (city, category) pairs, in table
// order, for cities with exactly one distinct category.
func buildSingleCategoryCities(t types.Table, _ Options) (Section, error) {
	byCity := categoriesByCity(t)
	data := TableData{Headers: []string{"City", "Category"}}
	seen := map[[2]string]bool{}
	for _, r := range t.Records {
		city, ok := r.Value(types.ColCity)
		if !ok || len(byCity[city]) != 1 {
			continue
		}
		cat, ok := r.Value(types.ColCategory)
		if !ok {
			continue
		}
		key := [2]string{city, cat}
		if seen[key] {
			continue
		}
		seen[key] = true
		data.Rows = append(data.Rows, []string{city, cat})
	}
	if len(data.Rows) == 0 {
		return Section{}, apperrors.EmptyAggregate("no single-category city")
	}
	return Section{Title: "Cities with a Single Predicted Category", Payload: data}, nil
}

func buildTopProducts(t types.Table, opts Options) (Section, error) {
	top := aggregator.TopN(t, types.ColProductType, opts.TopProducts)
	if len(top) == 0 {
		return Section{}, apperrors.EmptyAggregate("top products")
	}
	chart := BarChart{XLabel: "Number of complaints", YLabel: "Product type", Horizontal: true}
	for _, kc := range top {
		chart.Bars = append(chart.Bars, Bar{
			Label: kc.Key, Value: float64(kc.Count),
			Annotation: strconv.Itoa(kc.Count), Color: opts.Theme.Color(4),
		})
	}
	return Section{
		Title:    "Products with Most Complaints",
		Subtitle: fmt.Sprintf("Top %d product types mentioned in complaints", opts.TopProducts),
		Payload:  chart,
	}, nil
}

func buildWeeklyTrend(t types.Table, opts Options) (Section, error) {
	weeks := aggregator.WeeklyTimeSeries(t, types.ColSentDate, types.ColCategory)
	if len(weeks) == 0 {
		return Section{}, apperrors.EmptyAggregate("weekly trend")
	}
	line := LineChart{XLabel: "Week ending", YLabel: "Number of complaints", Color: opts.Theme.Primary}
	for _, w := range weeks {
		line.Points = append(line.Points, Point{Label: w.WeekEnding.Format("2006-01-02"), Value: float64(w.Count)})
	}
	return Section{
		Title:    "Complaints over Time",
		Subtitle: "Weekly trend of received complaints",
		Payload:  line,
	}, nil
}

func buildFindings(t types.Table, _ Options) (Section, error) {
	return Section{
		Title:    "Conclusions and Key Findings",
		Subtitle: "Executive summary of the main insights",
		Payload:  Findings{Items: narrative.Synthesize(t)},
	}, nil
}

func buildRecommendations(t types.Table, _ Options) (Section, error) {
	return Section{
		Title:   "Recommendations",
		Payload: Recommendations{Cards: actionable.Generate(narrative.Synthesize(t))},
	}, nil
}

func buildSampleComments(t types.Table, opts Options) (Section, error) {
	return Section{
		Title:   "Example Comments",
		Payload: Comments{Samples: narrative.SampleComments(t, opts.SampleSize, opts.Seed)},
	}, nil
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
