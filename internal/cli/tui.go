package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/dungeonforge/pkg/simulation"
)

const barWidth = 40

var (
	barFilledStyle = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// SimulationModel - Live simulation progress
// =============================================================================

type progressMsg simulation.Progress

type progressClosedMsg struct{}

type simulationDoneMsg struct {
	results *simulation.Results
	err     error
}

// SimulationModel is the bubbletea model for the simulate --tui view.
type SimulationModel struct {
	Title    string
	Sim      *simulation.Simulation
	Progress simulation.Progress
	Started  time.Time
	// Cancelling is set once the user asked to stop.
	Cancelling bool

	Results *simulation.Results
	Err     error
	Done    bool
}

// NewSimulationModel creates a model that follows sim.
func NewSimulationModel(title string, sim *simulation.Simulation) SimulationModel {
	return SimulationModel{
		Title:    title,
		Sim:      sim,
		Progress: sim.Snapshot(),
		Started:  time.Now(),
	}
}

func (m SimulationModel) Init() tea.Cmd {
	return waitForProgress(m.Sim)
}

func waitForProgress(sim *simulation.Simulation) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-sim.Progress()
		if !ok {
			return progressClosedMsg{}
		}
		return progressMsg(p)
	}
}

func waitForResult(sim *simulation.Simulation) tea.Cmd {
	return func() tea.Msg {
		res, err := sim.Wait()
		return simulationDoneMsg{results: res, err: err}
	}
}

func (m SimulationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.Cancelling {
				m.Cancelling = true
				m.Sim.Cancel()
			}
		}
	case progressMsg:
		m.Progress = simulation.Progress(msg)
		return m, waitForProgress(m.Sim)
	case progressClosedMsg:
		return m, waitForResult(m.Sim)
	case simulationDoneMsg:
		m.Results, m.Err, m.Done = msg.results, msg.err, true
		m.Progress = m.Sim.Snapshot()
		return m, tea.Quit
	}
	return m, nil
}

func (m SimulationModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n\n")
	b.WriteString(renderBar(m.Progress, barWidth))
	b.WriteString(" ")
	b.WriteString(StyleNumber.Render(fmt.Sprintf("%d/%d", m.Progress.Completed, m.Progress.Total)))
	b.WriteString("\n")

	elapsed := time.Since(m.Started).Round(100 * time.Millisecond)
	status := fmt.Sprintf("elapsed %s", elapsed)
	if m.Progress.Completed > 0 && m.Progress.Completed < m.Progress.Total {
		rate := float64(m.Progress.Completed) / time.Since(m.Started).Seconds()
		status += fmt.Sprintf(" · %.0f runs/s", rate)
	}
	b.WriteString(StyleDim.Render(status))
	b.WriteString("\n\n")

	switch {
	case m.Done:
	case m.Cancelling:
		b.WriteString(StyleWarning.Render("cancelling, waiting for running seeds..."))
	default:
		b.WriteString(StyleDim.Render("q cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

// renderBar draws a width-cell progress bar.
func renderBar(p simulation.Progress, width int) string {
	filled := 0
	if p.Total > 0 {
		filled = p.Completed * width / p.Total
	}
	filled = min(max(filled, 0), width)
	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}
