package viz

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/heatsim/internal/dynamo"
	"github.com/san-kum/heatsim/internal/experiment"
)

const (
	plotWidth       = 60
	plotHeight      = 12
	historyCapacity = 600
)

// Horizon is where a run ends, used for the progress bar. Zero fields are
// unknown.
type Horizon struct {
	Time  float64
	Steps int
}

func (h Horizon) progress(step int, t float64) float64 {
	switch {
	case h.Time > 0:
		return t / h.Time
	case h.Steps > 0:
		return float64(step) / float64(h.Steps)
	}
	return 0
}

// FrameMsg delivers a new output frame from the running experiment.
type FrameMsg experiment.Frame

// DoneMsg reports the end of the run.
type DoneMsg struct {
	Result *experiment.Result
	Err    error
}

// Model is the live view of a running experiment. It only renders frames;
// the experiment itself runs in its own goroutine.
type Model struct {
	title   string
	horizon Horizon
	theme   Theme
	cancel  context.CancelFunc

	frame     experiment.Frame
	haveFrame bool
	peaks     []float64
	ignitedAt float64

	showEta  bool
	showHelp bool
	done     bool
	result   *experiment.Result
	err      error
}

func NewModel(title string, horizon Horizon, cancel context.CancelFunc) Model {
	return Model{
		title:     title,
		horizon:   horizon,
		theme:     Themes[0],
		cancel:    cancel,
		peaks:     make([]float64, 0, historyCapacity),
		ignitedAt: math.NaN(),
		showEta:   true,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "e":
			m.showEta = !m.showEta
		case "t":
			m.theme = nextTheme(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case FrameMsg:
		m.frame = experiment.Frame(msg)
		m.haveFrame = true
		if len(m.peaks) == historyCapacity {
			m.peaks = m.peaks[1:]
		}
		m.peaks = append(m.peaks, msg.Sample.TMax)
		if msg.Sample.Ignited && math.IsNaN(m.ignitedAt) {
			m.ignitedAt = msg.Sample.Time
		}
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
	}
	return m, nil
}

func (m Model) View() string {
	if !m.haveFrame {
		return headerStyle(m.theme).Render(strings.ToUpper(m.title)) + "\n  waiting for first output...\n"
	}

	var plots strings.Builder
	plots.WriteString(asciigraph.Plot(m.frame.T,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.SeriesColors(m.theme.TPlot),
		asciigraph.Caption("T [K] along x")))
	if m.showEta {
		plots.WriteString("\n\n")
		plots.WriteString(asciigraph.Plot(m.frame.Eta,
			asciigraph.Height(plotHeight/2),
			asciigraph.Width(plotWidth),
			asciigraph.LowerBound(0),
			asciigraph.UpperBound(1),
			asciigraph.SeriesColors(m.theme.EtaPlot),
			asciigraph.Caption("reaction progress")))
	}

	s := m.frame.Sample
	var b strings.Builder
	b.WriteString(headerStyle(m.theme).Render(strings.ToUpper(m.title)) + "\n")
	b.WriteString(m.status() + "\n\n")
	b.WriteString(ProgressBar(m.theme, m.horizon.progress(s.Step, s.Time), 30) + "\n\n")
	b.WriteString(stat("Step", fmt.Sprintf("%d", s.Step)))
	b.WriteString(stat("Time", fmt.Sprintf("%.4g s", s.Time)))
	b.WriteString(stat("dt", fmt.Sprintf("%.3g s", s.Dt)))
	b.WriteString(stat("T max", fmt.Sprintf("%.1f K", s.TMax)))
	b.WriteString(stat("T min", fmt.Sprintf("%.1f K", s.TMin)))
	b.WriteString(stat("eta max", fmt.Sprintf("%.4f", s.EtaMax)))
	b.WriteString(stat("Energy", fmt.Sprintf("%.4g J/m²", s.Energy)))
	if !math.IsNaN(m.ignitedAt) {
		b.WriteString(stat("Ignited at", fmt.Sprintf("%.4g s", m.ignitedAt)))
	}
	b.WriteString("\n" + labelStyle.Render("T max trend") + "\n")
	b.WriteString(Sparkline(m.theme, m.peaks, 36) + "\n")
	if m.done && m.result != nil {
		b.WriteString("\n" + Separator(m.theme, 36) + "\n")
		b.WriteString(stat("Wave speed", fmt.Sprintf("%.4g m/s", m.result.WaveSpeed)))
	}
	b.WriteString(helpStyle.Render("Q:Quit E:Eta T:Theme ?:Help"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, graphStyle.Render(plots.String()), statsStyle.Render(b.String()))
	if m.showHelp {
		return help + "\n" + view
	}
	return view
}

func (m Model) status() string {
	switch {
	case m.done && m.err != nil:
		return statusStyle(m.theme.Error).Render("HALTED: " + m.err.Error())
	case m.done:
		return statusStyle(m.theme.Success).Render("FINISHED")
	case m.frame.Code != dynamo.OK:
		return statusStyle(m.theme.Error).Render(strings.ToUpper(m.frame.Code.String()))
	case m.frame.Sample.Ignited:
		return statusStyle(m.theme.Warning).Render("BURNING")
	}
	return statusStyle(m.theme.Primary).Render("HEATING")
}

func stat(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

const help = `
╔══════════════════════════════════╗
║        KEYBOARD SHORTCUTS        ║
╠══════════════════════════════════╣
║  Q/Esc  - Stop the run and quit  ║
║  E      - Toggle progress plot   ║
║  T      - Cycle themes           ║
║  ?      - Toggle this help       ║
╚══════════════════════════════════╝`

// Run executes exp in the background and renders its output frames until
// the run ends and the user quits. Quitting early cancels the run.
func Run(ctx context.Context, exp *experiment.Experiment, title string, horizon Horizon) (*experiment.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, horizon, cancel), tea.WithAltScreen())
	exp.AddObserver(experiment.ObserverFunc(func(f experiment.Frame) {
		p.Send(FrameMsg(f))
	}))

	done := make(chan DoneMsg, 1)
	go func() {
		res, err := exp.Run(ctx)
		msg := DoneMsg{Result: res, Err: err}
		done <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("live view: %w", err)
	}
	cancel()
	msg := <-done
	return msg.Result, msg.Err
}
