package main

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	orchestration "github.com/koscakluka/ema-vision/core"
	"github.com/koscakluka/ema-vision/core/captions"
	"github.com/koscakluka/ema-vision/core/events"
)

const defaultWidth = 60

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	stateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	captionStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	liveStyle    = captionStyle.BorderForeground(lipgloss.Color("42"))
	errorStyle   = captionStyle.BorderForeground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type statusMsg orchestration.StatusChange

type interimMsg string

// interactionController is what the terminal needs from the orchestrator.
type interactionController interface {
	ToggleCapture() error
	Stop()
}

type model struct {
	controller interactionController

	spinner spinner.Model
	state   orchestration.InteractionState
	caption captions.Caption
	width   int
}

func newModel(controller interactionController) model {
	return model{
		controller: controller,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(titleStyle)),
		state:      orchestration.StateIdle,
		caption:    captions.Describe(orchestration.StatusChange{State: orchestration.StateIdle}),
		width:      defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case " ", "enter":
			// Busy toggles surface as a status change.
			_ = m.controller.ToggleCapture()
		case "s", "esc":
			m.controller.Stop()
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = max(msg.Width-4, 20)
		return m, nil

	case statusMsg:
		change := orchestration.StatusChange(msg)
		m.state = change.State
		if caption := captions.Describe(change); caption.Text != "" {
			m.caption = caption
		}
		return m, nil

	case interimMsg:
		if m.state == orchestration.StateListening {
			m.caption = captions.Interim(string(msg))
		}
		return m, nil

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ema vision"))
	b.WriteString("  ")
	if m.state != orchestration.StateIdle {
		b.WriteString(m.spinner.View())
	}
	b.WriteString(stateStyle.Render(m.state.String()))
	b.WriteString("\n\n")

	style := captionStyle
	if m.caption.IsError {
		style = errorStyle
	} else if m.caption.Live {
		style = liveStyle
	}
	b.WriteString(style.Render(wordwrap.String(m.caption.Text, m.width)))
	b.WriteString("\n\n")

	b.WriteString(helpStyle.Render("espacio: hablar/terminar • s: detener • q: salir"))
	b.WriteString("\n")
	return b.String()
}

// programRelay forwards orchestrator notifications to the running program.
// Notifications before the program is set are dropped.
type programRelay struct {
	mu      sync.Mutex
	program *tea.Program
}

func (r *programRelay) set(program *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = program
}

func (r *programRelay) send(msg tea.Msg) {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

func (r *programRelay) status(change orchestration.StatusChange) {
	r.send(statusMsg(change))
}

func (r *programRelay) event(event events.Event) {
	if interim, ok := event.(events.UserTranscriptInterimUpdated); ok {
		r.send(interimMsg(interim.Transcript))
	}
}
