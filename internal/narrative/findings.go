// Package narrative turns aggregate extremes into the key-findings page and
// picks example comments per sentiment.
package narrative

import (
	"fmt"
	"strings"

	"complaint-insights-go/internal/aggregator"
	apperrors "complaint-insights-go/internal/errors"
	"complaint-insights-go/internal/logger"
	"complaint-insights-go/internal/types"
)

// InsufficientData replaces a finding whose aggregate is undefined.
const InsufficientData = "insufficient data"

// NumFindings is the fixed number of slots Synthesize returns.
const NumFindings = 7

// Slot identifies one finding.
type Slot int

const (
	SlotTopCategory Slot = iota + 1
	SlotWorstCategory
	SlotBestCity
	SlotWorstCity
	SlotTopState
	SlotTopProduct
	SlotSentimentMix
)

var slotLabels = map[Slot]string{
	SlotTopCategory:   "Most frequent category",
	SlotWorstCategory: "Lowest-rated category",
	SlotBestCity:      "Best-rated city",
	SlotWorstCity:     "Worst-rated city",
	SlotTopState:      "State with most complaints",
	SlotTopProduct:    "Most mentioned product",
	SlotSentimentMix:  "Sentiment distribution",
}

func (s Slot) Label() string { return slotLabels[s] }

// Finding is one narrative statement. Key is the winning group (empty for the
// sentiment mix); Value is the display form, e.g. "A (2)" or "A (3.0)".
type Finding struct {
	Slot       Slot               `json:"slot"`
	Label      string             `json:"label"`
	Key        string             `json:"key,omitempty"`
	Value      string             `json:"value"`
	Sufficient bool               `json:"sufficient"`
	Sentiments map[string]float64 `json:"sentiments,omitempty"`
}

// Text renders the finding as a single line.
func (f Finding) Text() string {
	return fmt.Sprintf("%d. %s: %s", f.Slot, f.Label, f.Value)
}

func insufficient(s Slot) Finding {
	return Finding{Slot: s, Label: s.Label(), Value: InsufficientData}
}

// Synthesize always returns NumFindings findings in slot order. A slot whose
// aggregate is empty carries InsufficientData instead of failing.
func Synthesize(t types.Table) []Finding {
	log := logger.New().Component("narrative")
	out := make([]Finding, 0, NumFindings)

	top := func(s Slot, col types.Column, withCount bool) Finding {
		kc, ok := aggregator.ArgMaxCount(aggregator.ValueCounts(t, col))
		if !ok {
			return insufficient(s)
		}
		v := kc.Key
		if withCount {
			v = fmt.Sprintf("%s (%d)", kc.Key, kc.Count)
		}
		return Finding{Slot: s, Label: s.Label(), Key: kc.Key, Value: v, Sufficient: true}
	}
	extreme := func(s Slot, col types.Column, pick func([]aggregator.KeyMean) (aggregator.KeyMean, bool)) Finding {
		km, ok := pick(aggregator.MeanBy(t, col, types.ColStarRating))
		if !ok {
			return insufficient(s)
		}
		return Finding{
			Slot: s, Label: s.Label(), Key: km.Key,
			Value: fmt.Sprintf("%s (%.1f)", km.Key, km.Mean), Sufficient: true,
		}
	}

	out = append(out,
		top(SlotTopCategory, types.ColCategory, true),
		extreme(SlotWorstCategory, types.ColCategory, aggregator.ArgMin),
		extreme(SlotBestCity, types.ColCity, aggregator.ArgMax),
		extreme(SlotWorstCity, types.ColCity, aggregator.ArgMin),
		top(SlotTopState, types.ColStateName, false),
		top(SlotTopProduct, types.ColProductType, false),
		sentimentMix(t),
	)

	for _, f := range out {
		if !f.Sufficient {
			log.WithField("slot", f.Label).Warn(apperrors.EmptyAggregate(f.Label).Error())
		}
	}
	return out
}

// sentimentMix reports each fixed sentiment as a share of all non-null
// sentiment values; classes that never occur read 0.0%.
func sentimentMix(t types.Table) Finding {
	s := SlotSentimentMix
	shares := aggregator.Shares(aggregator.ValueCounts(t, types.ColSentiment))
	if len(shares) == 0 {
		return insufficient(s)
	}
	pct := map[string]float64{}
	for _, sh := range shares {
		pct[sh.Key] = sh.Percent
	}
	f := Finding{Slot: s, Label: s.Label(), Sufficient: true, Sentiments: map[string]float64{}}
	parts := make([]string, 0, len(types.SentimentOrder))
	for _, name := range types.SentimentOrder {
		f.Sentiments[name] = pct[name]
		parts = append(parts, fmt.Sprintf("%s %.1f%%", name, pct[name]))
	}
	f.Value = strings.Join(parts, ", ")
	return f
}
