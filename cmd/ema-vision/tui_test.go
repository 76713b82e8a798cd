package main

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	orchestration "github.com/koscakluka/ema-vision/core"
	"github.com/koscakluka/ema-vision/core/captions"
)

type controllerStub struct {
	toggles int
	stops   int
}

func (c *controllerStub) ToggleCapture() error {
	c.toggles++
	return errors.New("busy")
}

func (c *controllerStub) Stop() { c.stops++ }

func TestKeysDriveTheController(t *testing.T) {
	controller := &controllerStub{}
	var m tea.Model = newModel(controller)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})

	if controller.toggles != 1 || controller.stops != 1 {
		t.Fatalf("expected one toggle and one stop, got %d and %d", controller.toggles, controller.stops)
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}); cmd == nil {
		t.Fatalf("expected a quit command")
	}
}

func TestStatusChangesUpdateTheCaption(t *testing.T) {
	var m tea.Model = newModel(&controllerStub{})

	m, _ = m.Update(statusMsg(orchestration.StatusChange{State: orchestration.StateListening}))
	m, _ = m.Update(interimMsg("qué es"))
	if got := m.(model).caption; got != captions.Interim("qué es") {
		t.Fatalf("expected the interim caption, got %+v", got)
	}

	turn := &orchestration.TurnSnapshot{Transcript: "qué es esto"}
	m, _ = m.Update(statusMsg(orchestration.StatusChange{State: orchestration.StateGenerating, Turn: turn}))
	m, _ = m.Update(interimMsg("late"))

	view := m.View()
	if !strings.Contains(view, "Pensando...") || strings.Contains(view, "late") {
		t.Fatalf("unexpected view %q", view)
	}
	if !strings.Contains(view, "Generating") {
		t.Fatalf("expected the state in the view, got %q", view)
	}
}
