package actionable

import (
	"fmt"

	"complaint-insights-go/internal/narrative"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

type rule struct {
	slot    narrative.Slot
	insight string
	action  string
	impact  string
}

var rules = []rule{
	{
		slot:    narrative.SlotTopCategory,
		insight: "Most complaints fall under %s",
		action:  "Prioritise attention to the category with the most complaints",
		impact:  "Largest reduction in complaint volume",
	},
	{
		slot:    narrative.SlotWorstCategory,
		insight: "Lowest perception in category %s",
		action:  "Implement improvements in the lowest-rated category",
		impact:  "Raise average rating where customers are least satisfied",
	},
	{
		slot:    narrative.SlotBestCity,
		insight: "Best perception in %s",
		action:  "Reinforce good practices in the cities with the best perception",
		impact:  "Keep high-performing regions stable and reusable as a playbook",
	},
	{
		slot:    narrative.SlotWorstCity,
		insight: "Lowest perception in %s",
		action:  "Analyse common causes in the cities with the lowest perception and take corrective action",
		impact:  "Reduce regional escalations",
	},
}

// Generate derives recommendation cards from the findings. A card whose
// finding has insufficient data is left out.
func Generate(findings []narrative.Finding) []ActionCard {
	bySlot := map[narrative.Slot]narrative.Finding{}
	for _, f := range findings {
		bySlot[f.Slot] = f
	}
	cards := []ActionCard{}
	for _, r := range rules {
		f, ok := bySlot[r.slot]
		if !ok || !f.Sufficient {
			continue
		}
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf(r.insight, f.Value),
			Action:  r.action,
			Impact:  r.impact,
		})
	}
	if len(cards) == 0 {
		return []ActionCard{{
			Insight: "No strong pattern detected",
			Action:  "Monitor and collect more data",
			Impact:  "Low immediate intervention",
		}}
	}
	return cards
}
