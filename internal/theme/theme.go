// Package theme holds the colour sets shared by the report renderers and the
// choropleth.
package theme

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "complaint-insights-go/internal/errors"
)

// Theme is the only thing that differs between report variants.
type Theme struct {
	Name      string   `json:"name"`
	Primary   string   `json:"primary"`
	Secondary string   `json:"secondary"`
	Accent    string   `json:"accent"`
	Warning   string   `json:"warning"`
	Danger    string   `json:"danger"`
	Light     string   `json:"light"`
	Dark      string   `json:"dark"`
	Palette   []string `json:"palette"`
}

var Corporate = Theme{
	Name:      "corporate",
	Primary:   "#F22259",
	Secondary: "#F23D91",
	Accent:    "#6F04D9",
	Warning:   "#F2A30F",
	Danger:    "#F20505",
	Light:     "#FFF6F8",
	Dark:      "#343A40",
	Palette:   []string{"#F22259", "#F23D91", "#6F04D9", "#F2A30F", "#F20505"},
}

// Classic is the plain matplotlib-like palette of the first dashboard.
var Classic = Theme{
	Name:      "classic",
	Primary:   "#87CEEB",
	Secondary: "#FA8072",
	Accent:    "#90EE90",
	Warning:   "#FFD700",
	Danger:    "#F08080",
	Light:     "#FFFFFF",
	Dark:      "#343A40",
	Palette:   []string{"#87CEEB", "#FA8072", "#90EE90", "#F08080", "#FFD700"},
}

// ByName resolves a configured theme name.
func ByName(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Corporate.Name:
		return Corporate, nil
	case Classic.Name:
		return Classic, nil
	}
	return Theme{}, apperrors.ConfigInvalid(fmt.Sprintf("unknown report theme %q", name))
}

// Color cycles through the palette.
func (t Theme) Color(i int) string {
	if len(t.Palette) == 0 {
		return t.Primary
	}
	return t.Palette[i%len(t.Palette)]
}

// Colors returns n palette colours, cycling as needed.
func (t Theme) Colors(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = t.Color(i)
	}
	return out
}

// SentimentColor gives each fixed sentiment its own colour.
func (t Theme) SentimentColor(sentiment string) string {
	switch sentiment {
	case "Positivo":
		return t.Color(3)
	case "Neutro":
		return t.Color(2)
	case "Negativo":
		return t.Color(0)
	}
	return t.Dark
}

// RGB parses a #RRGGBB colour; anything else reads as black.
func RGB(hex string) (r, g, b int) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}

// Lerp interpolates linearly between two #RRGGBB colours, f in [0,1].
func Lerp(from, to string, f float64) string {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	r1, g1, b1 := RGB(from)
	r2, g2, b2 := RGB(to)
	mix := func(a, b int) int { return a + int(math.Round(float64(b-a)*f)) }
	return fmt.Sprintf("#%02X%02X%02X", mix(r1, r2), mix(g1, g2), mix(b1, b2))
}
