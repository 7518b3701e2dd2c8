package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pojntfx/pojde-rs/internal/forward"
	"github.com/pojntfx/pojde-rs/internal/instance"
)

// ForwardSpec is the outcome of the forward wizard.
type ForwardSpec struct {
	Requests  []forward.Request
	Direction forward.Direction
}

// wizardStep identifies the current step.
type wizardStep int

const (
	stepAddress wizardStep = iota
	stepDirection
	stepConfirm
)

// wizardModel drives the multi-step port forward wizard.
type wizardModel struct {
	step     wizardStep
	instance *instance.Instance

	// Step 1: addresses
	addressInput textinput.Model
	addressErr   string

	// Step 2: direction
	directionList list.Model

	// Collected values
	requests  []forward.Request
	direction forward.Direction

	width  int
	height int
}

// directionItem implements list.Item for direction selection.
type directionItem struct {
	direction   forward.Direction
	description string
}

func (d directionItem) Title() string       { return string(d.direction) }
func (d directionItem) Description() string { return d.description }
func (d directionItem) FilterValue() string { return string(d.direction) }

// wizardStyles
var (
	wizardTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				MarginBottom(1)

	wizardStepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	wizardActiveStepStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	wizardLabelStyle = lipgloss.NewStyle().
				Bold(true).
				MarginBottom(1)

	wizardValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39"))

	wizardDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	wizardErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))
)

func newWizardModel(inst *instance.Instance) wizardModel {
	ai := textinput.New()
	ai.Placeholder = "8000 localhost:3000:localhost:3000"
	ai.Focus()
	ai.CharLimit = 512
	ai.Width = 60
	ai.ShowSuggestions = true
	ai.SetSuggestions(portSuggestions(inst))

	return wizardModel{
		step:          stepAddress,
		instance:      inst,
		addressInput:  ai,
		directionList: newDirectionList(),
	}
}

// portSuggestions offers one forward per published port of the instance.
func portSuggestions(inst *instance.Instance) []string {
	if inst == nil || inst.Ports == nil {
		return nil
	}
	var suggestions []string
	for p := int(inst.Ports.Start); p <= int(inst.Ports.End); p++ {
		suggestions = append(suggestions, strconv.Itoa(p))
	}
	return suggestions
}

func newDirectionList() list.Model {
	items := []list.Item{
		directionItem{forward.DirectionLocal, "Listen here, connect from the instance"},
		directionItem{forward.DirectionRemote, "Listen in the instance, connect from here"},
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 60, 10)
	l.Title = ""
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return l
}

func (w *wizardModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update processes a message and returns (done, spec, cmd).
// done=true with non-nil spec means wizard completed successfully.
// done=true with nil spec means wizard was cancelled.
func (w *wizardModel) Update(msg tea.Msg) (bool, *ForwardSpec, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyCtrlC:
			return true, nil, nil
		case tea.KeyEsc:
			return w.handleBack()
		}
	}

	switch w.step {
	case stepAddress:
		return w.updateAddress(msg)
	case stepDirection:
		return w.updateDirection(msg)
	case stepConfirm:
		return w.updateConfirm(msg)
	}

	return false, nil, nil
}

func (w *wizardModel) handleBack() (bool, *ForwardSpec, tea.Cmd) {
	switch w.step {
	case stepAddress:
		// Esc at first step cancels wizard
		return true, nil, nil
	case stepDirection:
		w.step = stepAddress
		w.addressInput.Focus()
		return false, nil, textinput.Blink
	case stepConfirm:
		w.step = stepDirection
		return false, nil, nil
	}
	return false, nil, nil
}

// parseAddresses parses the space separated forward specs in the input.
func parseAddresses(value string) ([]forward.Request, error) {
	specs := strings.Fields(value)
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one forward is required")
	}
	return forward.ParseRequests(specs)
}

func (w *wizardModel) updateAddress(msg tea.Msg) (bool, *ForwardSpec, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		reqs, err := parseAddresses(w.addressInput.Value())
		if err != nil {
			w.addressErr = err.Error()
			return false, nil, nil
		}
		w.addressErr = ""
		w.requests = reqs
		w.step = stepDirection
		w.addressInput.Blur()
		return false, nil, nil
	}

	var cmd tea.Cmd
	w.addressInput, cmd = w.addressInput.Update(msg)
	return false, nil, cmd
}

func (w *wizardModel) updateDirection(msg tea.Msg) (bool, *ForwardSpec, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		if item, ok := w.directionList.SelectedItem().(directionItem); ok {
			w.direction = item.direction
			w.step = stepConfirm
		}
		return false, nil, nil
	}

	var cmd tea.Cmd
	w.directionList, cmd = w.directionList.Update(msg)
	return false, nil, cmd
}

func (w *wizardModel) updateConfirm(msg tea.Msg) (bool, *ForwardSpec, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter", "y":
			return true, &ForwardSpec{
				Requests:  w.requests,
				Direction: w.direction,
			}, nil
		case "n":
			// Restart wizard
			w.step = stepAddress
			w.addressInput.SetValue("")
			w.addressInput.Focus()
			w.requests = nil
			w.direction = ""
			w.directionList.Select(0)
			return false, nil, textinput.Blink
		}
	}
	return false, nil, nil
}

func (w *wizardModel) View() string {
	var b strings.Builder

	title := "Forward Ports"
	if w.instance != nil {
		title += " - " + w.instance.Name
	}
	b.WriteString(wizardTitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(w.progressBar())
	b.WriteString("\n\n")

	switch w.step {
	case stepAddress:
		b.WriteString(wizardLabelStyle.Render("Forwards:"))
		b.WriteString("\n")
		b.WriteString(w.addressInput.View())
		b.WriteString("\n\n")
		if w.addressErr != "" {
			b.WriteString(wizardErrorStyle.Render(w.addressErr))
			b.WriteString("\n")
		}
		b.WriteString(wizardDimStyle.Render("Space separated lhost:lport:rhost:rport, hosts optional. Tab to complete."))
	case stepDirection:
		b.WriteString(wizardLabelStyle.Render("Select direction:"))
		b.WriteString("\n")
		b.WriteString(w.directionList.View())
	case stepConfirm:
		b.WriteString(wizardLabelStyle.Render("Confirm:"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("  Direction: %s\n", wizardValueStyle.Render(string(w.direction))))
		for _, r := range w.requests {
			b.WriteString(fmt.Sprintf("  Forward:   %s\n", wizardValueStyle.Render(r.String())))
		}
		b.WriteString("\n")
		b.WriteString(wizardDimStyle.Render("Enter to forward, n to restart, Esc to go back."))
	}

	return b.String()
}

func (w *wizardModel) progressBar() string {
	steps := []struct {
		num  int
		name string
	}{
		{1, "Forwards"},
		{2, "Direction"},
		{3, "Confirm"},
	}

	var parts []string
	for _, s := range steps {
		label := fmt.Sprintf("%d. %s", s.num, s.name)
		if s.num == int(w.step)+1 {
			parts = append(parts, wizardActiveStepStyle.Render(label))
		} else {
			parts = append(parts, wizardStepStyle.Render(label))
		}
	}

	return strings.Join(parts, wizardDimStyle.Render(" > "))
}
