package report

import (
	"testing"
	"time"

	"complaint-insights-go/internal/config"
	"complaint-insights-go/internal/dataset"
	"complaint-insights-go/internal/narrative"
	"complaint-insights-go/internal/theme"
	"complaint-insights-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var str = types.Ptr[string]

func day(d int) *time.Time {
	t := time.Date(2024, 1, d, 9, 0, 0, 0, time.UTC)
	return &t
}

func fullTable() types.Table {
	rec := func(city, state, cat string, stars float64, sent, msg, product string, d int) types.Record {
		return types.Record{
			City: str(city), StateName: str(state), Category: str(cat), StarRating: types.Ptr(stars),
			Sentiment: str(sent), Message: str(msg), ProductType: str(product), SentDate: day(d),
		}
	}
	return types.NewTable(
		[]types.Column{
			types.ColCity, types.ColStateName, types.ColCategory, types.ColStarRating,
			types.ColSentiment, types.ColMessage, types.ColProductType, types.ColSentDate,
		},
		[]types.Record{
			rec("Austin", "Texas", "lost", 2, "Negativo", "never arrived", "kit", 2),
			rec("Austin", "Texas", "late", 4, "Positivo", "arrived late but fine", "box", 3),
			rec("Boston", "Massachusetts", "late", 5, "Positivo", "great service", "kit", 10),
			rec("Denver", "Colorado", "tracking", 3, "Neutro", "where is it", "kit", 16),
		},
	)
}

func fixedOptions() Options {
	seed := int64(7)
	opts := DefaultOptions()
	opts.Seed = &seed
	opts.Now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return opts
}

func kinds(rep *Report) []dataset.View {
	out := []dataset.View{}
	for _, s := range rep.Sections {
		out = append(out, s.Kind)
	}
	return out
}

func TestAssembleFollowsLayout(t *testing.T) {
	rep := Assemble(fullTable(), DefaultLayout, fixedOptions())
	assert.Equal(t, DefaultLayout, kinds(rep))
	assert.Empty(t, rep.Skipped)
	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, 4, rep.Rows)

	cover, ok := rep.Section(dataset.ViewCover)
	require.True(t, ok)
	assert.Equal(t, "01/03/2024", cover.Payload.(Cover).Date)
}

func TestAssembleSkipsSectionsWithMissingColumns(t *testing.T) {
	s := types.Ptr[string]
	tbl := types.NewTable(
		[]types.Column{types.ColCity, types.ColCategory, types.ColStarRating, types.ColSentiment, types.ColMessage},
		[]types.Record{
			{City: s("Austin"), Category: s("A"), StarRating: types.Ptr(4.0), Sentiment: s("Positivo"), Message: s("ok")},
			{City: s("Austin"), Category: s("A"), StarRating: types.Ptr(2.0), Sentiment: s("Negativo"), Message: s("bad")},
			{City: s("Boston"), Category: s("B"), StarRating: types.Ptr(5.0), Sentiment: s("Positivo")},
		},
	)
	rep := Assemble(tbl, DefaultLayout, fixedOptions())

	skipped := map[dataset.View]string{}
	for _, sk := range rep.Skipped {
		skipped[sk.Kind] = sk.Reason
	}
	assert.Contains(t, skipped[dataset.ViewTopStates], "state_name")
	assert.Contains(t, skipped[dataset.ViewTopProducts], "product_type")
	assert.Contains(t, skipped[dataset.ViewWeeklyTrend], "sent_date")
	// every city has a single category
	assert.Contains(t, skipped, dataset.ViewCityCategoryGrid)

	assert.Equal(t, []dataset.View{
		dataset.ViewCover, dataset.ViewSummary, dataset.ViewCategoryPerception,
		dataset.ViewSentimentDistribution, dataset.ViewCategoryDistribution,
		dataset.ViewSingleCategoryCities, dataset.ViewFindings,
		dataset.ViewRecommendations, dataset.ViewSampleComments,
	}, kinds(rep))

	f, _ := rep.Section(dataset.ViewFindings)
	items := f.Payload.(Findings).Items
	require.Len(t, items, narrative.NumFindings)
	assert.Equal(t, "A (2)", items[0].Value)
	assert.Equal(t, "A (3.0)", items[1].Value)
}

func TestSummarySection(t *testing.T) {
	rep := Assemble(fullTable(), []dataset.View{dataset.ViewSummary}, fixedOptions())
	sum := rep.Sections[0].Payload.(Summary)
	assert.Equal(t, 4, sum.TotalMessages)
	assert.Equal(t, 3, sum.DistinctCities)
	assert.Equal(t, 3, sum.DistinctCategories)
	assert.Equal(t, "3.50", sum.MeanRatingText())
	assert.Len(t, sum.Categories, 5)

	empty := Summary{}
	assert.Equal(t, NotAvailable, empty.MeanRatingText())
}

func TestCategoryPerceptionOrderedByMean(t *testing.T) {
	rep := Assemble(fullTable(), []dataset.View{dataset.ViewCategoryPerception}, fixedOptions())
	chart := rep.Sections[0].Payload.(BarChart)
	labels := []string{}
	for _, b := range chart.Bars {
		labels = append(labels, b.Label)
	}
	assert.Equal(t, []string{"late", "tracking", "lost"}, labels)
	assert.Equal(t, 2.0, chart.Bars[0].Value)
	assert.Equal(t, "4.5", chart.Bars[0].Annotation)
	assert.Equal(t, theme.Corporate.Palette[0], chart.Bars[0].Color)
}

func TestSentimentDistributionKeepsFixedOrder(t *testing.T) {
	rep := Assemble(fullTable(), []dataset.View{dataset.ViewSentimentDistribution}, fixedOptions())
	chart := rep.Sections[0].Payload.(BarChart)
	require.Len(t, chart.Bars, 3)
	assert.Equal(t, "Positivo", chart.Bars[0].Label)
	assert.Equal(t, 2.0, chart.Bars[0].Value)
	assert.Equal(t, "Negativo", chart.Bars[2].Label)
}

func TestTopStatesAnnotatesShareOfRows(t *testing.T) {
	opts := fixedOptions()
	opts.TopStates = 2
	rep := Assemble(fullTable(), []dataset.View{dataset.ViewTopStates}, opts)
	chart := rep.Sections[0].Payload.(BarChart)
	require.Len(t, chart.Bars, 2)
	assert.True(t, chart.Horizontal)
	assert.Equal(t, "Texas", chart.Bars[0].Label)
	assert.Equal(t, "2 (50.0%)", chart.Bars[0].Annotation)
	assert.Equal(t, "Massachusetts", chart.Bars[1].Label)
}

func TestCityGridAndSingleCategoryTable(t *testing.T) {
	rep := Assemble(fullTable(), []dataset.View{dataset.ViewCityCategoryGrid, dataset.ViewSingleCategoryCities}, fixedOptions())
	require.Len(t, rep.Sections, 2)

	grid := rep.Sections[0].Payload.(ChartGrid)
	require.Len(t, grid.Panels, 1)
	assert.Equal(t, "Distribution in Austin", grid.Panels[0].Title)
	assert.Equal(t, "50.0%", grid.Panels[0].Chart.Bars[0].Annotation)

	table := rep.Sections[1].Payload.(TableData)
	assert.Equal(t, [][]string{{"Boston", "late"}, {"Denver", "tracking"}}, table.Rows)
}

func TestWeeklyTrend(t *testing.T) {
	rep := Assemble(fullTable(), []dataset.View{dataset.ViewWeeklyTrend}, fixedOptions())
	line := rep.Sections[0].Payload.(LineChart)
	require.Len(t, line.Points, 3)
	assert.Equal(t, "2024-01-07", line.Points[0].Label)
	assert.Equal(t, 2.0, line.Points[0].Value)
	assert.Equal(t, "2024-01-21", line.Points[2].Label)
}

func TestSampleCommentsAreReproducibleWithSeed(t *testing.T) {
	layout := []dataset.View{dataset.ViewSampleComments}
	a := Assemble(fullTable(), layout, fixedOptions())
	b := Assemble(fullTable(), layout, fixedOptions())
	assert.Equal(t, a.Sections[0].Payload, b.Sections[0].Payload)
}

func TestAssembleDoesNotSeeLaterChanges(t *testing.T) {
	tbl := fullTable()
	rep := Assemble(tbl, []dataset.View{dataset.ViewSummary}, fixedOptions())
	tbl.Records = tbl.Records[:1]
	assert.Equal(t, 4, rep.Sections[0].Payload.(Summary).TotalMessages)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Report
	cfg.Theme = "classic"
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, theme.Classic, opts.Theme)
	assert.Equal(t, 5, opts.TopStates)

	cfg.Theme = "neon"
	_, err = OptionsFromConfig(cfg)
	assert.Error(t, err)
}
