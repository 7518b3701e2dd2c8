// Package tui provides terminal user interface components for pojdectl.
//
// This package uses the Bubble Tea framework to create interactive terminal
// interfaces, primarily for the instance picker behind "pojdectl pick".
//
// # Instance Picker
//
// The picker displays instances grouped by status and allows selection:
//
//	result, err := tui.RunPicker(instances)
//	switch result.Action {
//	case tui.ActionEnter:
//	    // Open a shell in result.Instance
//	case tui.ActionForward:
//	    // Forward result.Forward.Requests in result.Forward.Direction
//	case tui.ActionQuit:
//	    // Exit
//	}
//
// # Picker Features
//
//   - Lists all instances grouped by status, running first
//   - Keyboard navigation (j/k or arrows), headers auto-skipped
//   - Quick actions: Enter (shell), l (logs), s/x/r (start, stop, restart), q (quit)
//   - Forward wizard on f (addresses, direction, confirm)
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - UI components
//   - github.com/charmbracelet/lipgloss - Styling
package tui
