// Package report assembles the ordered, pre-computed sections of the
// downloadable complaint report and renders them to PDF, XLSX or HTML.
package report

import (
	"time"

	"complaint-insights-go/internal/actionable"
	"complaint-insights-go/internal/dataset"
	"complaint-insights-go/internal/narrative"
	"complaint-insights-go/internal/theme"
)

// Payload is the pre-computed data of one section. Renderers switch on the
// concrete type; nothing outside this package implements it.
type Payload interface {
	payload()
}

type Cover struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

type Summary struct {
	TotalMessages      int      `json:"total_messages"`
	DistinctCities     int      `json:"distinct_cities"`
	DistinctCategories int      `json:"distinct_categories"`
	MeanRating         *float64 `json:"mean_rating"`
	Categories         []string `json:"categories"`
}

// MeanRatingText is the two-decimal mean or "N/A".
func (s Summary) MeanRatingText() string {
	if s.MeanRating == nil {
		return NotAvailable
	}
	return formatFloat(*s.MeanRating, 2)
}

type Bar struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	Annotation string  `json:"annotation,omitempty"`
	Color      string  `json:"color"`
}

type BarChart struct {
	XLabel     string `json:"x_label"`
	YLabel     string `json:"y_label"`
	Horizontal bool   `json:"horizontal"`
	Bars       []Bar  `json:"bars"`
}

type Panel struct {
	Title string   `json:"title"`
	Chart BarChart `json:"chart"`
}

type ChartGrid struct {
	Columns int     `json:"columns"`
	Panels  []Panel `json:"panels"`
}

type TableData struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type LineChart struct {
	XLabel string  `json:"x_label"`
	YLabel string  `json:"y_label"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

type Findings struct {
	Items []narrative.Finding `json:"items"`
}

type Recommendations struct {
	Cards []actionable.ActionCard `json:"cards"`
}

type Comments struct {
	Samples []narrative.CommentSample `json:"samples"`
}

func (Cover) payload()           {}
func (Summary) payload()         {}
func (BarChart) payload()        {}
func (ChartGrid) payload()       {}
func (TableData) payload()       {}
func (LineChart) payload()       {}
func (Findings) payload()        {}
func (Recommendations) payload() {}
func (Comments) payload()        {}

type Section struct {
	Kind     dataset.View `json:"kind"`
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle,omitempty"`
	Payload  Payload      `json:"payload"`
}

// Skip records a section left out of the report and why.
type Skip struct {
	Kind   dataset.View `json:"kind"`
	Reason string       `json:"reason"`
}

type Report struct {
	ID          string      `json:"id"`
	GeneratedAt time.Time   `json:"generated_at"`
	Theme       theme.Theme `json:"theme"`
	Rows        int         `json:"rows"`
	Sections    []Section   `json:"sections"`
	Skipped     []Skip      `json:"skipped"`
	Warnings    []string    `json:"warnings"`
}

// Section returns the first section of kind k.
func (r *Report) Section(k dataset.View) (Section, bool) {
	for _, s := range r.Sections {
		if s.Kind == k {
			return s, true
		}
	}
	return Section{}, false
}

func (r *Report) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
