package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// RangePlot draws loss against range. The y axis is negated so that the
// curve falls as the loss grows, the way TL plots are usually read.
func RangePlot(row []float64, caption string, height, width int) string {
	data := make([]float64, 0, len(row))
	last := math.NaN()
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if math.IsNaN(last) {
				continue
			}
			v = last
		}
		data = append(data, -v)
		last = v
	}
	if len(data) == 0 {
		return Subtle.Render("(no finite values)")
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.Caption(caption),
	)
}

// Heatmap renders a [row][col] field as coloured blocks, resampled to
// width x height cells. lo and hi bound the colour scale; pass equal
// values to use the field's own range.
func Heatmap(field [][]float64, theme Theme, lo, hi float64, width, height int) string {
	if len(field) == 0 || len(field[0]) == 0 || width <= 0 || height <= 0 {
		return ""
	}
	if lo == hi {
		lo, hi = finiteRange(field)
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	rows, cols := len(field), len(field[0])
	muted := lipgloss.NewStyle().Foreground(theme.Muted)

	var b strings.Builder
	for y := 0; y < height; y++ {
		r := y * rows / height
		for x := 0; x < width; x++ {
			v := field[r][x*cols/width]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				b.WriteString(muted.Render("·"))
				continue
			}
			norm := (v - lo) / span
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Color(norm)).Render("█"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Legend shows the theme's scale with its end values.
func Legend(theme Theme, lo, hi float64) string {
	var b strings.Builder
	b.WriteString(Label.Render(fmt.Sprintf("%.0f dB ", lo)))
	for _, c := range theme.Scale {
		b.WriteString(lipgloss.NewStyle().Foreground(c).Render("██"))
	}
	b.WriteString(Label.Render(fmt.Sprintf(" %.0f dB", hi)))
	return b.String()
}

func finiteRange(field [][]float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range field {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) {
		return 0, 1
	}
	return lo, hi
}
