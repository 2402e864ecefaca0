// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"spectrum/internal/analysis"
	"spectrum/internal/bands"
	"spectrum/pkg/interp"
)

// SnapshotSource is the read side of the analyzer.
type SnapshotSource interface {
	SnapshotInto(dst []bands.FrequencyBand) analysis.Snapshot
}

const (
	DefaultMonitorInterval = 33 * time.Millisecond

	barRate       = 6.0 // Full-scale bar travel per second.
	minBarRows    = 4
	defaultWidth  = 80
	defaultHeight = 24
	chromeRows    = 4 // Title, blank line, axis, help.
)

// Partial cells from empty to full, in eighths.
var eighths = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

const peakMarker = "▔"

var pauseKeys = key.NewBinding(key.WithKeys(" ", "p"))

type frameMsg time.Time

// Monitor is a Bubble Tea model that draws the analyzer's bands as bars with
// peak markers. Bars move toward the published values at a bounded rate.
type Monitor struct {
	source   SnapshotSource
	interval time.Duration
	title    string

	bands   []bands.FrequencyBand // Scratch for snapshots.
	version uint64
	heights []float64 // Animated bar heights in [0, 1].
	peaks   []float64 // Marker heights; 0 hides the marker.
	last    time.Time

	width, height int
	paused        bool
}

func NewMonitor(source SnapshotSource, interval time.Duration, title string) Monitor {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	return Monitor{
		source:   source,
		interval: interval,
		title:    title,
		width:    defaultWidth,
		height:   defaultHeight,
	}
}

func (m Monitor) Init() tea.Cmd {
	return m.tick()
}

func (m Monitor) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, quitKeys), key.Matches(msg, escapeKeys):
			return m, tea.Quit
		case key.Matches(msg, pauseKeys):
			m.paused = !m.paused
		}

	case frameMsg:
		now := time.Time(msg)
		if !m.paused {
			m = m.poll(now)
		}
		m.last = now
		return m, m.tick()
	}
	return m, nil
}

// poll copies the latest snapshot and advances the bar animation.
func (m Monitor) poll(now time.Time) Monitor {
	snap := m.source.SnapshotInto(m.bands)
	m.bands = snap.Bands
	m.version = snap.Version

	// A new layout restarts the animation.
	if len(m.heights) != len(m.bands) {
		m.heights = make([]float64, len(m.bands))
		m.peaks = make([]float64, len(m.bands))
	}

	dt := m.interval
	if !m.last.IsZero() {
		if d := now.Sub(m.last); d > 0 {
			dt = min(d, 4*m.interval)
		}
	}
	step := barRate * dt.Seconds()

	for i := range m.bands {
		b := &m.bands[i]
		m.heights[i] = interp.Step(m.heights[i], clamp01(b.Cur), step)
		m.peaks[i] = 0
		if b.HasMarker() {
			m.peaks[i] = clamp01(b.Peak)
		}
	}
	return m
}

func (m Monitor) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n\n")

	if len(m.bands) == 0 {
		sb.WriteString("Waiting for analyzer...")
		return sb.String()
	}

	n := len(m.bands)
	rows := max(minBarRows, m.height-chromeRows)
	barWidth, gap := 1, ""
	if m.width >= 2*n {
		barWidth, gap = max(1, m.width/n-1), " "
	}

	for r := rows - 1; r >= 0; r-- {
		for i := range n {
			sb.WriteString(m.cell(i, r, rows, barWidth))
			sb.WriteString(gap)
		}
		sb.WriteString("\n")
	}

	status := fmt.Sprintf("%s - %s  %d bands  #%d", formatHz(m.bands[0].Lo), formatHz(m.bands[n-1].Hi), n, m.version)
	if m.paused {
		status += "  [paused]"
	}
	sb.WriteString(axisStyle.Render(status))
	sb.WriteString("\n")
	sb.WriteString(infoStyle.Render("Space: Pause • q: Quit"))
	return sb.String()
}

// cell renders band i at row r (0 is the bottom) of a rows-high chart.
func (m Monitor) cell(i, r, rows, width int) string {
	fill := m.heights[i]*float64(rows) - float64(r)
	switch {
	case fill >= 1:
		return barStyle.Render(strings.Repeat(eighths[8], width))
	case fill > 0:
		return barStyle.Render(strings.Repeat(eighths[int(fill*8)], width))
	}

	if p := m.peaks[i]; p > 0 && min(rows-1, int(p*float64(rows))) == r {
		return peakStyle.Render(strings.Repeat(peakMarker, width))
	}
	return strings.Repeat(" ", width)
}

func formatHz(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.1f kHz", hz/1000)
	}
	return fmt.Sprintf("%.0f Hz", hz)
}

func clamp01(x float64) float64 {
	return min(1, max(0, x))
}

// RunMonitor shows the monitor full screen until the user quits.
func RunMonitor(source SnapshotSource, interval time.Duration, title string) error {
	p := tea.NewProgram(
		NewMonitor(source, interval, title),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
