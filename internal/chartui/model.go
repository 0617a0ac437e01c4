// Package chartui provides the Bubble Tea chart window.
package chartui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/trainplot/internal/model"
	"github.com/verte-zerg/trainplot/internal/stats"
)

const (
	sparkWidth = 24
	// Rows around the plot area: y label, x axis, x ticks, x label, legend border.
	chartOverhead = 6
	minChartRows  = 4
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea chart window.
type Model struct {
	runs       []model.Run
	spec       model.PlotSpec
	sigma      float64
	plotHeight int

	chart    stats.Chart
	viewport viewport.Model
	errMsg   string

	width  int
	height int
}

// NewModel constructs a chart window for the given runs. A non-positive
// plotHeight fits the chart to the window.
func NewModel(runs []model.Run, spec model.PlotSpec, sigma float64, plotHeight int) *Model {
	return &Model{
		runs:       runs,
		spec:       spec,
		sigma:      sigma,
		plotHeight: plotHeight,
		chart:      stats.BuildChart(runs, spec, sigma),
		viewport:   viewport.New(0, 0),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderContent()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.viewport.View(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = 2
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.viewport.Width = m.width
	m.viewport.Height = bodyHeight
}

func (m *Model) renderContent() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	cards := renderSummaryCards(m.runs, width)
	_, bodyHeight, _ := m.layoutHeights()
	rows := m.plotHeight
	if rows <= 0 {
		rows = bodyHeight - lipgloss.Height(cards) - 1 - chartOverhead - m.legendEntries()
		if rows < minChartRows {
			rows = minChartRows
		}
	}
	var buf bytes.Buffer
	chart := m.chart
	// The title is already in the header.
	chart.Title = ""
	if err := stats.RenderChart(&buf, chart, stats.PlotWidthFor(width), rows, true); err != nil {
		m.errMsg = fmt.Sprintf("Failed to render chart: %v", err)
		m.viewport.SetContent(cards)
		return
	}
	m.errMsg = ""
	m.viewport.SetContent(strings.TrimRight(cards+"\n\n"+buf.String(), "\n"))
}

func (m *Model) legendEntries() int {
	return len(m.chart.Lines) + len(m.chart.References)
}

func (m *Model) renderHeader() string {
	title := truncateLine(m.spec.Title, m.width)
	settings := fmt.Sprintf("σ=%g  runs=%d", m.sigma, len(m.runs))
	return titleStyle.Render(title) + "\n" + headerStyle.Render(truncateLine(settings, m.width))
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Scroll: up/down/pgup/pgdn  Top/Bottom: g/G  Close: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func renderSummaryCards(runs []model.Run, width int) string {
	if len(runs) == 0 {
		return "No runs loaded."
	}
	cards := make([]string, 0, len(runs))
	for i, run := range runs {
		color := stats.RunColors[i%len(stats.RunColors)]
		cards = append(cards, runCard(run, color))
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func runCard(run model.Run, color lipgloss.Color) string {
	label := run.Label
	if label == "" {
		label = run.Series.Source
	}
	trend := stats.Sparkline(stats.Downsample(run.Smoothed, sparkWidth))
	lines := []string{
		lipgloss.NewStyle().Foreground(color).Bold(true).Render(label),
		metric("Points", fmt.Sprintf("%d", run.Series.Len())),
		metric("Converged", fmt.Sprintf("%.1f", run.Converged)),
		metric("Noise", fmt.Sprintf("%.1f → %.1f", stats.TotalVariation(run.Series.Rewards), stats.TotalVariation(run.Smoothed))),
		lipgloss.NewStyle().Foreground(color).Render(trend),
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func metric(label, value string) string {
	return cardTitleStyle.Render(label+": ") + cardValueStyle.Render(value)
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
