package report

import (
	"fmt"

	"complaint-insights-go/internal/narrative"
	"complaint-insights-go/internal/types"
)

// The helpers below flatten text sections into lines shared by the PDF and
// HTML renderers.

func summaryLines(s Summary) []string {
	out := []string{
		fmt.Sprintf("Total messages analysed: %d", s.TotalMessages),
		fmt.Sprintf("Distinct cities: %d", s.DistinctCities),
		fmt.Sprintf("Predicted categories: %d", s.DistinctCategories),
		fmt.Sprintf("Overall average rating: %s", s.MeanRatingText()),
		"",
		"Available categories:",
	}
	for _, c := range s.Categories {
		out = append(out, "- "+c)
	}
	return out
}

func findingLines(f Findings) []string {
	out := []string{"Main findings:", ""}
	for _, item := range f.Items {
		if item.Slot == narrative.SlotSentimentMix && item.Sufficient {
			out = append(out, "", fmt.Sprintf("%d. %s:", item.Slot, item.Label))
			for _, s := range types.SentimentOrder {
				out = append(out, fmt.Sprintf("- %s: %.1f%%", s, item.Sentiments[s]))
			}
			continue
		}
		out = append(out, item.Text())
	}
	return out
}

func recommendationLines(r Recommendations) []string {
	var out []string
	for _, c := range r.Cards {
		out = append(out, "- "+c.Action, "  "+c.Insight+". Expected impact: "+c.Impact, "")
	}
	return out
}

func commentLines(comments []string) []string {
	if len(comments) == 0 {
		return []string{"No comments available."}
	}
	var out []string
	for _, c := range comments {
		out = append(out, "- "+c, "")
	}
	return out
}
