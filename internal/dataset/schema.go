package dataset

import (
	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/types"
)

// View names a dashboard view or report section with its own column needs.
type View string

const (
	ViewBase                  View = "base"
	ViewCover                 View = "cover"
	ViewSummary               View = "summary"
	ViewCategoryPerception    View = "category_perception"
	ViewSentimentDistribution View = "sentiment_distribution"
	ViewCategoryDistribution  View = "category_distribution"
	ViewTopStates             View = "top_states"
	ViewCityCategoryGrid      View = "city_category_grid"
	ViewSingleCategoryCities  View = "single_category_cities"
	ViewTopProducts           View = "top_products"
	ViewWeeklyTrend           View = "weekly_trend"
	ViewFindings              View = "findings"
	ViewRecommendations       View = "recommendations"
	ViewSampleComments        View = "sample_comments"
	ViewCategoryCounts        View = "category_counts"
	ViewTopCities             View = "top_cities"
	ViewMeanByCategory        View = "mean_by_category"
	ViewRatingDistribution    View = "rating_distribution"
	ViewSentimentByCategory   View = "sentiment_by_category"
	ViewCategoryTable         View = "category_table"
	ViewDetails               View = "details"
	ViewWordCloud             View = "word_cloud"
	ViewMap                   View = "map"
)

// Requirements is the single declarative table of columns each view needs.
// Findings and recommendations list nothing: they degrade per slot instead.
var Requirements = map[View][]types.Column{
	ViewBase: {
		types.ColCity, types.ColCategory, types.ColStarRating, types.ColSentiment, types.ColMessage,
	},
	ViewCover:                 nil,
	ViewSummary:               {types.ColCity, types.ColCategory, types.ColStarRating},
	ViewCategoryPerception:    {types.ColCategory, types.ColStarRating},
	ViewSentimentDistribution: {types.ColSentiment},
	ViewCategoryDistribution:  {types.ColCategory},
	ViewTopStates:             {types.ColStateName},
	ViewCityCategoryGrid:      {types.ColCity, types.ColCategory},
	ViewSingleCategoryCities:  {types.ColCity, types.ColCategory},
	ViewTopProducts:           {types.ColProductType},
	ViewWeeklyTrend:           {types.ColSentDate, types.ColCategory},
	ViewFindings:              nil,
	ViewRecommendations:       nil,
	ViewSampleComments:        {types.ColSentiment, types.ColMessage},
	ViewCategoryCounts:        {types.ColCategory},
	ViewTopCities:             {types.ColCity},
	ViewMeanByCategory:        {types.ColCategory, types.ColStarRating},
	ViewRatingDistribution:    {types.ColStarRating},
	ViewSentimentByCategory:   {types.ColCategory, types.ColSentiment},
	ViewCategoryTable:         {types.ColCategory, types.ColStarRating},
	ViewDetails:               nil,
	ViewWordCloud:             {types.ColTokens},
	ViewMap:                   {types.ColStateCode},
}

// Validate checks column presence only. It returns a MISSING_COLUMN AppError
// listing every absent column, in the order required.
func Validate(t types.Table, required []types.Column) error {
	var missing []string
	for _, c := range required {
		if !t.Has(c) {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return apperrors.MissingColumns(missing...)
	}
	return nil
}

// ValidateView validates t against the declared requirements of v.
func ValidateView(t types.Table, v View) error {
	return Validate(t, Requirements[v])
}
