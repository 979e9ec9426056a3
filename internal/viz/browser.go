package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/pesim/internal/storage"
)

const (
	viewPlot = iota
	viewMap
	viewHeat
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(36)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// Browser is a bubbletea model for stepping through a stored run: one
// receiver depth and bearing at a time, as a range plot, a footprint map
// or a bearing/range heatmap.
type Browser struct {
	meta      *storage.RunMetadata
	table     *storage.Table
	depth     int
	angle     int
	view      int
	theme     int
	threshold float64
	width     int
	height    int
}

func NewBrowser(meta *storage.RunMetadata, table *storage.Table, threshold float64) Browser {
	return Browser{
		meta:      meta,
		table:     table,
		threshold: threshold,
		width:     60,
		height:    12,
	}
}

func (m Browser) Init() tea.Cmd { return nil }

func (m Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(20, msg.Width-48)
		m.height = max(6, msg.Height-10)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.angle = (m.angle - 1 + len(m.table.Angles)) % len(m.table.Angles)
		case "right", "l":
			m.angle = (m.angle + 1) % len(m.table.Angles)
		case "up", "k":
			m.depth = max(0, m.depth-1)
		case "down", "j":
			m.depth = min(len(m.table.Depths)-1, m.depth+1)
		case "v", "tab":
			m.view = (m.view + 1) % 3
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		case "+", "=":
			m.threshold += 5
		case "-", "_":
			m.threshold -= 5
		}
	}
	return m, nil
}

func (m Browser) View() string {
	if len(m.table.Angles) == 0 || len(m.table.Depths) == 0 {
		return Failure.Render("empty run") + "\n"
	}
	plane := m.table.TL[m.depth]
	row := plane[m.angle]
	theme := Themes[m.theme]

	var main string
	switch m.view {
	case viewPlot:
		main = RangePlot(row, fmt.Sprintf("TL at %.1f deg (dB, negated)", m.table.Angles[m.angle]), m.height, m.width)
	case viewMap:
		main = Footprint(plane, m.table.Angles, m.table.Ranges, m.threshold, m.height).String()
	case viewHeat:
		lo, hi := finiteRange(plane)
		main = Heatmap(plane, theme, lo, hi, m.width, m.height) + "\n" + Legend(theme, lo, hi)
	}

	var s strings.Builder
	s.WriteString(Title.Render(strings.ToUpper(m.meta.Name)) + "\n\n")
	s.WriteString(KeyValue("freq", fmt.Sprintf("%g Hz", m.meta.Frequency)) + "\n")
	s.WriteString(KeyValue("source", fmt.Sprintf("%g m", m.meta.SourceDepth)) + "\n")
	s.WriteString(KeyValue("receiver", fmt.Sprintf("%g m", m.table.Depths[m.depth])) + "\n")
	s.WriteString(KeyValue("bearing", fmt.Sprintf("%.1f deg", m.table.Angles[m.angle])) + "\n")
	s.WriteString(KeyValue("threshold", fmt.Sprintf("%.0f dB", m.threshold)) + "\n")
	s.WriteString(KeyValue("theme", theme.Name) + "\n\n")
	s.WriteString(Sparkline(row, 30) + "\n")
	s.WriteString(helpStyle.Render("←→:Bearing ↑↓:Depth V:View\nT:Theme +-:Threshold Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(main), statsStyle.Render(s.String()))
}

// Browse runs the browser full screen until the user quits.
func Browse(meta *storage.RunMetadata, table *storage.Table, threshold float64) error {
	_, err := tea.NewProgram(NewBrowser(meta, table, threshold), tea.WithAltScreen()).Run()
	return err
}
