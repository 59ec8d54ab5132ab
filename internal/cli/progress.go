package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/SurabhiV1999/ChemBot/internal/engine"
)

const durationPrecision = time.Millisecond

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// milestoneMsg carries one pipeline progress update.
type milestoneMsg engine.Progress

// ingestDoneMsg carries the final pipeline outcome.
type ingestDoneMsg struct {
	result *engine.IngestResult
	err    error
}

// ingestModel is the bubbletea model for pipeline progress.
type ingestModel struct {
	cancel   context.CancelFunc
	current  engine.Progress
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
	err      error
}

func newIngestModel(cancel context.CancelFunc) ingestModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return ingestModel{
		cancel:   cancel,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command.
func (m ingestModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m ingestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case milestoneMsg:
		m.current = engine.Progress(msg)
		return m, nil

	case ingestDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m ingestModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m ingestModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", stageOrDefault(m.current.Stage)))
	bar := m.progress.ViewAs(float64(m.current.Percentage) / 100)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to cancel")

	return fmt.Sprintf("%s %s %3d%%\n%s\n%s\n", status, bar, m.current.Percentage, m.current.Message, hint)
}

func (m ingestModel) finalView() string {
	if m.quitting {
		return m.theme.hintStyle().Render("\nIngestion cancelled.\n")
	}
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Ingestion failed: %s\n", m.err))
	}
	return m.theme.completedStyle().Render("✓ Completed") + "\n"
}

func stageOrDefault(stage string) string {
	if stage == "" {
		return "starting"
	}
	return stage
}

// runIngestProgress runs the pipeline under an interactive progress bar.
// Ctrl+C cancels the pipeline context.
func runIngestProgress(ctx context.Context, run func(ctx context.Context, report func(engine.Progress)) (*engine.IngestResult, error)) (*engine.IngestResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newIngestModel(cancel))

	var result *engine.IngestResult
	var runErr error
	go func() {
		result, runErr = run(ctx, func(milestone engine.Progress) {
			p.Send(milestoneMsg(milestone))
		})
		p.Send(ingestDoneMsg{result: result, err: runErr})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(ingestModel); ok && m.quitting {
		return nil, context.Canceled
	}
	if runErr != nil {
		return nil, runErr
	}
	return result, nil
}
