package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

// Action represents the action to take after picker selection
type Action int

const (
	ActionNone Action = iota
	ActionEnter
	ActionLogs
	ActionStart
	ActionStop
	ActionRestart
	ActionForward
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionEnter:
		return "enter"
	case ActionLogs:
		return "logs"
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	case ActionRestart:
		return "restart"
	case ActionForward:
		return "forward"
	case ActionQuit:
		return "quit"
	default:
		return "none"
	}
}

// PickerResult holds the result of the picker
type PickerResult struct {
	Action   Action
	Instance *instance.Instance
	// Forward is set for ActionForward
	Forward *ForwardSpec
}

// instanceItem implements list.Item for instance display
type instanceItem struct {
	inst instance.Instance
}

func (i instanceItem) Title() string {
	return i.inst.Name
}

func (i instanceItem) Description() string {
	statusIcon := "○"
	switch i.inst.Status {
	case runtime.StateRunning:
		statusIcon = "✓"
	case runtime.StateExited:
		statusIcon = "●"
	case runtime.StateRestarting, runtime.StatePaused:
		statusIcon = "⚠"
	}

	ports := i.inst.PortsString()
	if ports == "" {
		ports = "no ports"
	}

	return fmt.Sprintf("%s %s | %s", statusIcon, i.inst.Status, ports)
}

func (i instanceItem) FilterValue() string {
	return i.inst.Name
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// Model is the bubbletea model for the instance picker
type Model struct {
	list     list.Model
	result   PickerResult
	quitting bool
	width    int
	height   int

	wizard       *wizardModel
	wizardTarget *instance.Instance
}

// NewPicker creates a new instance picker
func NewPicker(instances []instance.Instance) Model {
	items := buildGroupedItems(instances)

	l := list.New(items, newGroupedDelegate(), 80, 20)
	l.Title = "pojde - Select Instance"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	// Start on the first selectable item
	skipHeaders(&l, 1)

	return Model{list: l}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) selected() (*instance.Instance, bool) {
	if item, ok := m.list.SelectedItem().(instanceItem); ok {
		inst := item.inst
		return &inst, true
	}
	return nil, false
}

func (m Model) finish(action Action, inst *instance.Instance) (tea.Model, tea.Cmd) {
	m.result = PickerResult{Action: action, Instance: inst}
	m.quitting = true
	return m, tea.Quit
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.wizard != nil {
		return m.updateWizard(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		// Don't handle keys if filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		actions := map[string]Action{
			"enter": ActionEnter,
			"l":     ActionLogs,
			"s":     ActionStart,
			"x":     ActionStop,
			"r":     ActionRestart,
		}
		if action, ok := actions[msg.String()]; ok {
			if inst, ok := m.selected(); ok {
				return m.finish(action, inst)
			}
			return m, nil
		}

		switch msg.String() {
		case "f":
			if inst, ok := m.selected(); ok {
				w := newWizardModel(inst)
				w.width, w.height = m.width, m.height
				m.wizard = &w
				m.wizardTarget = inst
				return m, w.Init()
			}
			return m, nil

		case "q", "esc":
			return m.finish(ActionQuit, nil)

		case "up", "k", "down", "j":
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			skipHeaders(&m.list, navigationDirection(msg))
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	if isHeaderSelected(&m.list) {
		skipHeaders(&m.list, 1)
	}
	return m, cmd
}

func (m Model) updateWizard(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = size.Width, size.Height
		m.list.SetSize(size.Width, size.Height-4)
		m.wizard.width, m.wizard.height = size.Width, size.Height
		return m, nil
	}

	done, spec, cmd := m.wizard.Update(msg)
	if !done {
		return m, cmd
	}

	target := m.wizardTarget
	m.wizard = nil
	m.wizardTarget = nil
	if spec == nil {
		// Cancelled: back to the list
		return m, nil
	}

	m.result = PickerResult{Action: ActionForward, Instance: target, Forward: spec}
	m.quitting = true
	return m, tea.Quit
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.wizard != nil {
		return m.wizard.View()
	}

	help := helpStyle.Render("[enter] Enter  [l] Logs  [s] Start  [x] Stop  [r] Restart  [f] Forward  [/] Filter  [q] Quit")

	return m.list.View() + "\n" + help
}

// Result returns the picker result
func (m Model) Result() PickerResult {
	return m.result
}

// RunPicker runs the interactive instance picker
func RunPicker(instances []instance.Instance) (PickerResult, error) {
	if len(instances) == 0 {
		return PickerResult{Action: ActionQuit}, nil
	}

	m := NewPicker(instances)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}

// SimplePicker is a non-interactive picker that just lists instances
func SimplePicker(instances []instance.Instance) string {
	var sb strings.Builder

	sb.WriteString("pojde - Instances\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n\n")

	if len(instances) == 0 {
		sb.WriteString("No instances found.\n")
		return sb.String()
	}

	for i, inst := range instances {
		item := instanceItem{inst: inst}
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, item.Title()))
		sb.WriteString(fmt.Sprintf("   %s\n\n", item.Description()))
	}

	return sb.String()
}
