package pipeline

import (
	"context"
	"encoding/json"

	"complaint-insights-go/internal/aggregator"
	"complaint-insights-go/internal/dataset"
	"complaint-insights-go/internal/geo"
	"complaint-insights-go/internal/logger"
	"complaint-insights-go/internal/theme"
	"complaint-insights-go/internal/types"
)

// Boundaries is satisfied by geo.Client.
type Boundaries interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Map is the choropleth payload. When the boundaries cannot be fetched only
// States and Warning are set.
type Map struct {
	GeoJSON json.RawMessage       `json:"geojson,omitempty"`
	States  []geo.StateCount      `json:"states,omitempty"`
	Counts  []aggregator.KeyCount `json:"counts"`
	Warning string                `json:"warning,omitempty"`
}

// BuildMap counts complaints per state code over the filtered table and joins
// them onto freshly fetched boundaries. A missing state_code column is
// returned as an error; a failed fetch is not.
func BuildMap(ctx context.Context, t types.Table, fs dataset.FilterSet, src Boundaries, th theme.Theme) (*Map, error) {
	log := logger.New().Component("pipeline.map")

	ft := dataset.Apply(t, fs)
	if err := dataset.ValidateView(ft, dataset.ViewMap); err != nil {
		return nil, err
	}
	m := &Map{Counts: aggregator.CountBy(ft, types.ColStateCode)}

	raw, err := src.Fetch(ctx)
	if err != nil {
		log.WithError(err).Warn("map degraded")
		m.Warning = err.Error()
		return m, nil
	}
	doc, states, err := geo.Choropleth(raw, m.Counts, th)
	if err != nil {
		log.WithError(err).Warn("map degraded")
		m.Warning = err.Error()
		return m, nil
	}
	m.GeoJSON = doc
	m.States = states
	return m, nil
}
