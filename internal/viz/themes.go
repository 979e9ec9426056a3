package viz

import "github.com/charmbracelet/lipgloss"

// Theme is a colour scale for loss maps, ordered from low loss (loud) to
// high loss (quiet).
type Theme struct {
	Name  string
	Scale []lipgloss.Color
	Muted lipgloss.Color
}

var (
	ThemeOcean = Theme{
		Name:  "ocean",
		Scale: []lipgloss.Color{"#ffd700", "#00ff88", "#00a8cc", "#0077be", "#003366"},
		Muted: lipgloss.Color("#4488aa"),
	}

	ThemeThermal = Theme{
		Name:  "thermal",
		Scale: []lipgloss.Color{"#ffffff", "#ffcc00", "#ff6b00", "#c0003c", "#2d1b2e"},
		Muted: lipgloss.Color("#8b6b8c"),
	}

	ThemeMono = Theme{
		Name:  "mono",
		Scale: []lipgloss.Color{"#ffffff", "#cccccc", "#999999", "#666666", "#333333"},
		Muted: lipgloss.Color("#888888"),
	}

	Themes = []Theme{
		ThemeOcean,
		ThemeThermal,
		ThemeMono,
	}
)

// GetTheme returns a theme by name, ocean if unknown.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeOcean
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Color maps a normalised value in [0, 1] onto the scale.
func (t Theme) Color(norm float64) lipgloss.Color {
	n := len(t.Scale)
	i := int(norm * float64(n))
	return t.Scale[max(0, min(i, n-1))]
}
