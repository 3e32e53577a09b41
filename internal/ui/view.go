package ui

import tea "github.com/charmbracelet/bubbletea"

// View is the unit of composition; it mirrors Bubble Tea's Init/Update/View
// but returns View so regions can be updated and swapped in place.
type View interface {
	Init() tea.Cmd
	Update(tea.Msg) (View, tea.Cmd)
	View() string
}
