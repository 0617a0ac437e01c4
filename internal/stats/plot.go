// Package stats contains smoothing, summaries and chart rendering.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// LineStyle selects the dash pattern of a plotted line.
type LineStyle struct {
	name   string
	period int
	on     int
}

// Available line styles.
var (
	Solid  = LineStyle{name: "solid", period: 1, on: 1}
	Dashed = LineStyle{name: "dashed", period: 6, on: 3}
	Dotted = LineStyle{name: "dotted", period: 2, on: 1}
)

// Line is one x/y polyline on the chart.
type Line struct {
	Name  string
	X     []float64
	Y     []float64
	Color lipgloss.Color
	Style LineStyle
	Faint bool
}

// Reference is a horizontal line across the full x range.
type Reference struct {
	Name  string
	Value float64
	Color lipgloss.Color
}

// Chart describes everything drawn by RenderChart.
type Chart struct {
	Title      string
	XLabel     string
	YLabel     string
	Lines      []Line
	References []Reference
}

type axisRange struct {
	min float64
	max float64
}

type layer struct {
	cells [][]uint8
	color lipgloss.Color
	faint bool
	grid  bool
}

const (
	// DefaultPlotHeight is the number of text rows used when no height is given.
	DefaultPlotHeight   = 20
	minPlotWidth        = 10
	minPlotHeight       = 4
	axisLabelWidth      = 9
	axisSeparator       = " ┤"
	axisCorner          = " └"
	yTickCount          = 5
	rangePadding        = 0.05
	terminalWidthBackup = 80
)

var (
	gridColor   = lipgloss.Color("#4A4A4A")
	legendStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#B0B0B0")).
			Background(lipgloss.Color("#FFFFFF")).
			BorderBackground(lipgloss.Color("#FFFFFF")).
			Foreground(lipgloss.Color("#000000"))
	plainLegendStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true)
)

// RenderChart draws the chart as braille text. A non-positive width or height
// falls back to the terminal width and DefaultPlotHeight.
func RenderChart(w io.Writer, chart Chart, width, height int, useColor bool) error {
	lines := filterLines(chart.Lines)
	if len(lines) == 0 {
		return fmt.Errorf("chart has no data")
	}
	if height <= 0 {
		height = DefaultPlotHeight
	}
	if height < minPlotHeight {
		height = minPlotHeight
	}
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	xr := xRange(lines)
	yr := yRange(lines, chart.References)
	pxWidth := width * 2
	pxHeight := height * 4

	layers := make([]layer, 0, len(lines)+len(chart.References)+1)
	grid := makeCells(height, width)
	for _, row := range tickRows(height) {
		for px := 0; px < pxWidth; px += 4 {
			setBrailleDot(grid, px, row*4+1)
		}
	}
	layers = append(layers, layer{cells: grid, color: gridColor, faint: true, grid: true})

	// Draw order: faint raw data, reference lines, then trends on top.
	for _, l := range lines {
		if l.Faint {
			layers = append(layers, lineLayer(l, xr, yr, width, height))
		}
	}
	for _, ref := range chart.References {
		cells := makeCells(height, width)
		py := valueToPixel(ref.Value, yr, pxHeight)
		for px := 0; px < pxWidth; px++ {
			if Dashed.shouldPlot(px) {
				setBrailleDot(cells, px, py)
			}
		}
		layers = append(layers, layer{cells: cells, color: ref.Color})
	}
	for _, l := range lines {
		if !l.Faint {
			layers = append(layers, lineLayer(l, xr, yr, width, height))
		}
	}

	labels := makeAxisLabels(height, yr)
	if chart.Title != "" {
		title := chart.Title
		if useColor {
			title = lipgloss.NewStyle().Bold(true).Render(title)
		}
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	if chart.YLabel != "" {
		if _, err := fmt.Fprintln(w, colorize(chart.YLabel, "", true, useColor)); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", axisLabelWidth, labels[y], axisSeparator))
		for x := 0; x < width; x++ {
			mask, top := composeCell(layers, x, y)
			ch := string(brailleFromMask(mask))
			if top >= 0 {
				ch = colorize(ch, layers[top].color, layers[top].faint, useColor)
			}
			row.WriteString(ch)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	axis := strings.Repeat(" ", axisLabelWidth) + axisCorner + strings.Repeat("─", width)
	if _, err := fmt.Fprintln(w, axis); err != nil {
		return err
	}
	pad := strings.Repeat(" ", axisLabelWidth+runewidth.StringWidth(axisSeparator))
	if _, err := fmt.Fprintln(w, pad+xTickLine(xr, width)); err != nil {
		return err
	}
	if chart.XLabel != "" {
		label := centerText(chart.XLabel, width)
		if _, err := fmt.Fprintln(w, pad+colorize(label, "", true, useColor)); err != nil {
			return err
		}
	}
	legend := renderLegend(lines, chart.References, useColor)
	totalWidth := runewidth.StringWidth(pad) + width
	if _, err := fmt.Fprintln(w, lipgloss.PlaceHorizontal(totalWidth, lipgloss.Right, legend)); err != nil {
		return err
	}
	return nil
}

func filterLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		n := minInt(len(l.X), len(l.Y))
		if n == 0 {
			continue
		}
		l.X = l.X[:n]
		l.Y = l.Y[:n]
		if l.Style.period == 0 {
			l.Style = Solid
		}
		out = append(out, l)
	}
	return out
}

func xRange(lines []Line) axisRange {
	r := axisRange{min: math.Inf(1), max: math.Inf(-1)}
	for _, l := range lines {
		for _, x := range l.X {
			r.min = math.Min(r.min, x)
			r.max = math.Max(r.max, x)
		}
	}
	if math.Abs(r.max-r.min) < 1e-9 {
		r.min -= 0.5
		r.max += 0.5
	}
	return r
}

func yRange(lines []Line, refs []Reference) axisRange {
	r := axisRange{min: math.Inf(1), max: math.Inf(-1)}
	for _, l := range lines {
		for _, y := range l.Y {
			r.min = math.Min(r.min, y)
			r.max = math.Max(r.max, y)
		}
	}
	for _, ref := range refs {
		r.min = math.Min(r.min, ref.Value)
		r.max = math.Max(r.max, ref.Value)
	}
	if math.Abs(r.max-r.min) < 1e-9 {
		r.min--
		r.max++
	}
	span := r.max - r.min
	r.min -= span * rangePadding
	r.max += span * rangePadding
	return r
}

func lineLayer(l Line, xr, yr axisRange, width, height int) layer {
	cells := makeCells(height, width)
	plotLine(cells, l, xr, yr, width*2, height*4)
	return layer{cells: cells, color: l.Color, faint: l.Faint}
}

func plotLine(cells [][]uint8, l Line, xr, yr axisRange, pxWidth, pxHeight int) {
	prevX, prevY := -1, -1
	for i := range l.X {
		px := valueToColumn(l.X[i], xr, pxWidth)
		py := valueToPixel(l.Y[i], yr, pxHeight)
		if prevX >= 0 {
			drawLine(prevX, prevY, px, py, func(dx, dy int) {
				if l.Style.shouldPlot(dx) {
					setBrailleDot(cells, dx, dy)
				}
			})
		} else {
			setBrailleDot(cells, px, py)
		}
		prevX, prevY = px, py
	}
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := axisLabelWidth + runewidth.StringWidth(axisSeparator)
	plotWidth := totalWidth - axisWidth - 1
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// ShouldUseColor reports whether w is a terminal that accepts color.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func colorize(s string, color lipgloss.Color, faint, useColor bool) string {
	if !useColor {
		return s
	}
	style := lipgloss.NewStyle().Faint(faint)
	if color != "" {
		style = style.Foreground(color)
	}
	return style.Render(s)
}

func tickRows(height int) []int {
	rows := make([]int, 0, yTickCount)
	for i := 0; i < yTickCount; i++ {
		row := int(math.Round(float64(i) * float64(height-1) / float64(yTickCount-1)))
		if len(rows) > 0 && rows[len(rows)-1] == row {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func makeAxisLabels(height int, yr axisRange) []string {
	labels := make([]string, height)
	for _, row := range tickRows(height) {
		py := float64(row*4 + 1)
		v := yr.max - py/float64(height*4-1)*(yr.max-yr.min)
		labels[row] = formatTick(v)
	}
	return labels
}

func formatTick(v float64) string {
	if math.Abs(v) < 0.05 {
		v = 0
	}
	s := fmt.Sprintf("%.1f", v)
	if len(s) > axisLabelWidth {
		s = fmt.Sprintf("%.2g", v)
	}
	return s
}

func xTickLine(xr axisRange, width int) string {
	line := []rune(strings.Repeat(" ", width))
	place := func(label string, start int) {
		runes := []rune(label)
		if start+len(runes) > width {
			start = width - len(runes)
		}
		if start < 0 {
			start = 0
		}
		for i, r := range runes {
			if start+i < width {
				line[start+i] = r
			}
		}
	}
	minLabel := formatBatch(xr.min)
	midLabel := formatBatch((xr.min + xr.max) / 2)
	maxLabel := formatBatch(xr.max)
	place(minLabel, 0)
	if width >= len(minLabel)+len(midLabel)+len(maxLabel)+4 {
		place(midLabel, width/2-len(midLabel)/2)
	}
	place(maxLabel, width-len(maxLabel))
	return string(line)
}

func formatBatch(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func centerText(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return strings.Repeat(" ", (width-sw)/2) + s
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

// composeCell merges all data layers of a cell and returns the index of the
// topmost layer with a dot. Grid dots only show in cells without data.
func composeCell(layers []layer, x, y int) (uint8, int) {
	var mask uint8
	top := -1
	var gridMask uint8
	gridIdx := -1
	for i, l := range layers {
		if y < 0 || y >= len(l.cells) || x < 0 || x >= len(l.cells[y]) {
			continue
		}
		cellMask := l.cells[y][x]
		if cellMask == 0 {
			continue
		}
		if l.grid {
			gridMask |= cellMask
			gridIdx = i
			continue
		}
		mask |= cellMask
		top = i
	}
	if mask == 0 {
		return gridMask, gridIdx
	}
	return mask, top
}

func (ls LineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

func (ls LineStyle) marker() string {
	switch ls.name {
	case Dashed.name:
		return "╌╌"
	case Dotted.name:
		return "┈┈"
	default:
		return "━━"
	}
}

func valueToColumn(v float64, xr axisRange, pxWidth int) int {
	if pxWidth <= 1 {
		return 0
	}
	pos := (v - xr.min) / (xr.max - xr.min)
	return clampInt(int(math.Round(pos*float64(pxWidth-1))), 0, pxWidth-1)
}

func valueToPixel(v float64, yr axisRange, pxHeight int) int {
	if pxHeight <= 1 {
		return 0
	}
	pos := (v - yr.min) / (yr.max - yr.min)
	return clampInt(int(math.Round((1-pos)*float64(pxHeight-1))), 0, pxHeight-1)
}

func renderLegend(lines []Line, refs []Reference, useColor bool) string {
	entries := make([]string, 0, len(lines)+len(refs))
	for _, l := range lines {
		marker := colorize(l.Style.marker(), l.Color, l.Faint, useColor)
		entries = append(entries, marker+" "+l.Name)
	}
	for _, ref := range refs {
		marker := colorize(Dashed.marker(), ref.Color, false, useColor)
		entries = append(entries, marker+" "+ref.Name)
	}
	body := strings.Join(entries, "\n")
	if useColor {
		return legendStyle.Render(body)
	}
	return plainLegendStyle.Render(body)
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
