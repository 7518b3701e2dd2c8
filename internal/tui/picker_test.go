package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pojntfx/pojde-rs/internal/forward"
	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/port"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

func testInstances() []instance.Instance {
	return []instance.Instance{
		{Name: "felix", Status: runtime.StateRunning, Ports: &port.Range{Start: 8000, End: 8005}},
		{Name: "archive", Status: runtime.StateExited},
	}
}

func TestInstanceItemMethods(t *testing.T) {
	item := instanceItem{inst: testInstances()[0]}

	t.Run("Title", func(t *testing.T) {
		if got := item.Title(); got != "felix" {
			t.Errorf("Title() = %q, want %q", got, "felix")
		}
	})

	t.Run("FilterValue", func(t *testing.T) {
		if got := item.FilterValue(); got != "felix" {
			t.Errorf("FilterValue() = %q, want %q", got, "felix")
		}
	})

	t.Run("Description", func(t *testing.T) {
		desc := item.Description()
		if !strings.Contains(desc, "running") {
			t.Errorf("Description() = %q, should contain status", desc)
		}
		if !strings.Contains(desc, "8000-8005") {
			t.Errorf("Description() = %q, should contain port range", desc)
		}
	})
}

func TestInstanceItemStatusIcons(t *testing.T) {
	tests := []struct {
		status string
		icon   string
	}{
		{runtime.StateRunning, "✓"},
		{runtime.StateExited, "●"},
		{runtime.StateRestarting, "⚠"},
		{runtime.StateCreated, "○"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			item := instanceItem{inst: instance.Instance{Name: "x", Status: tt.status}}
			desc := item.Description()
			if !strings.HasPrefix(desc, tt.icon) {
				t.Errorf("Description() = %q, want icon %q", desc, tt.icon)
			}
			if !strings.Contains(desc, "no ports") {
				t.Errorf("Description() = %q, want no ports", desc)
			}
		})
	}
}

func TestModelKeyHandling(t *testing.T) {
	t.Run("quit with q", func(t *testing.T) {
		m := NewPicker(testInstances())
		newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		model := newModel.(Model)

		if model.result.Action != ActionQuit {
			t.Errorf("Action = %v, want ActionQuit", model.result.Action)
		}
		if !model.quitting {
			t.Error("Model should be quitting")
		}
		if cmd == nil {
			t.Error("Should return tea.Quit command")
		}
	})

	t.Run("quit with esc", func(t *testing.T) {
		m := NewPicker(testInstances())
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		model := newModel.(Model)

		if model.result.Action != ActionQuit {
			t.Errorf("Action = %v, want ActionQuit", model.result.Action)
		}
	})

	actions := []struct {
		key    tea.KeyMsg
		action Action
	}{
		{tea.KeyMsg{Type: tea.KeyEnter}, ActionEnter},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}}, ActionLogs},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}}, ActionStart},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}, ActionStop},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}, ActionRestart},
	}
	for _, tt := range actions {
		t.Run(tt.action.String(), func(t *testing.T) {
			m := NewPicker(testInstances())
			newModel, _ := m.Update(tt.key)
			model := newModel.(Model)

			if model.result.Action != tt.action {
				t.Errorf("Action = %v, want %v", model.result.Action, tt.action)
			}
			// Running instances sort first
			if model.result.Instance == nil || model.result.Instance.Name != "felix" {
				t.Errorf("Instance = %+v, want felix", model.result.Instance)
			}
		})
	}

	t.Run("navigation skips headers", func(t *testing.T) {
		m := NewPicker(testInstances())
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
		model := newModel.(Model)

		if isHeaderSelected(&model.list) {
			t.Error("a header should never be selected")
		}
		newModel, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if got := newModel.(Model).result.Instance; got == nil || got.Name != "archive" {
			t.Errorf("Instance = %+v, want archive", got)
		}
	})

	t.Run("window size update", func(t *testing.T) {
		m := NewPicker(testInstances())
		newModel, cmd := m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
		model := newModel.(Model)

		if model.width != 100 {
			t.Errorf("Width = %d, want 100", model.width)
		}
		if model.height != 50 {
			t.Errorf("Height = %d, want 50", model.height)
		}
		if cmd != nil {
			t.Error("Window size update should not return a command")
		}
	})
}

func TestModelForwardWizard(t *testing.T) {
	m := NewPicker(testInstances())

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	model := newModel.(Model)
	if model.wizard == nil {
		t.Fatal("f should open the forward wizard")
	}
	if !strings.Contains(model.View(), "Forward Ports - felix") {
		t.Errorf("View() should render the wizard, got %q", model.View())
	}

	model.wizard.addressInput.SetValue("8000")
	steps := []tea.KeyMsg{
		{Type: tea.KeyEnter}, // addresses
		{Type: tea.KeyEnter}, // direction
		{Type: tea.KeyEnter}, // confirm
	}
	var cmd tea.Cmd
	for _, k := range steps {
		newModel, cmd = model.Update(k)
		model = newModel.(Model)
	}

	if cmd == nil || !model.quitting {
		t.Fatal("completing the wizard should quit the picker")
	}
	res := model.Result()
	if res.Action != ActionForward || res.Instance == nil || res.Instance.Name != "felix" {
		t.Fatalf("Result() = %+v", res)
	}
	if res.Forward == nil || res.Forward.Direction != forward.DirectionLocal {
		t.Fatalf("Forward = %+v, want local", res.Forward)
	}
	want := forward.Request{Local: "localhost:8000", Remote: "localhost:8000"}
	if len(res.Forward.Requests) != 1 || res.Forward.Requests[0] != want {
		t.Errorf("Requests = %+v, want %+v", res.Forward.Requests, want)
	}
}

func TestModelForwardWizardCancel(t *testing.T) {
	m := NewPicker(testInstances())
	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	newModel, _ = newModel.(Model).Update(tea.KeyMsg{Type: tea.KeyEsc})
	model := newModel.(Model)

	if model.wizard != nil {
		t.Error("esc on the first step should close the wizard")
	}
	if model.quitting {
		t.Error("cancelling the wizard should return to the list")
	}
}

func TestModelInit(t *testing.T) {
	m := Model{}
	cmd := m.Init()
	if cmd != nil {
		t.Error("Init() should return nil")
	}
}

func TestModelView(t *testing.T) {
	t.Run("normal view contains help", func(t *testing.T) {
		m := NewPicker(testInstances())
		view := m.View()

		for _, want := range []string{"[enter] Enter", "[f] Forward", "[q] Quit"} {
			if !strings.Contains(view, want) {
				t.Errorf("View should contain %q", want)
			}
		}
	})

	t.Run("quitting view is empty", func(t *testing.T) {
		m := NewPicker(testInstances())
		m.quitting = true
		view := m.View()

		if view != "" {
			t.Errorf("Quitting view should be empty, got %q", view)
		}
	})
}

func TestModelResult(t *testing.T) {
	m := Model{
		result: PickerResult{
			Action:   ActionLogs,
			Instance: &instance.Instance{Name: "test"},
		},
	}

	result := m.Result()
	if result.Action != ActionLogs {
		t.Errorf("Action = %v, want ActionLogs", result.Action)
	}
	if result.Instance.Name != "test" {
		t.Errorf("Instance.Name = %q, want %q", result.Instance.Name, "test")
	}
}

func TestRunPickerEmptyInstances(t *testing.T) {
	result, err := RunPicker(nil)
	if err != nil {
		t.Fatalf("RunPicker with no instances failed: %v", err)
	}

	if result.Action != ActionQuit {
		t.Errorf("No instances should return ActionQuit, got %v", result.Action)
	}
}

func TestSimplePicker(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		out := SimplePicker(nil)
		if !strings.Contains(out, "No instances found.") {
			t.Errorf("SimplePicker(nil) = %q", out)
		}
	})

	t.Run("lists instances", func(t *testing.T) {
		out := SimplePicker(testInstances())
		if !strings.Contains(out, "1. felix") || !strings.Contains(out, "2. archive") {
			t.Errorf("SimplePicker() = %q", out)
		}
		if !strings.Contains(out, "8000-8005") {
			t.Errorf("SimplePicker() should show ports, got %q", out)
		}
	})
}

func TestActionString(t *testing.T) {
	tests := map[Action]string{
		ActionNone:    "none",
		ActionEnter:   "enter",
		ActionLogs:    "logs",
		ActionStart:   "start",
		ActionStop:    "stop",
		ActionRestart: "restart",
		ActionForward: "forward",
		ActionQuit:    "quit",
	}
	for a, want := range tests {
		if got := a.String(); got != want {
			t.Errorf("Action(%d).String() = %q, want %q", a, got, want)
		}
	}
}
