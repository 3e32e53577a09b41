package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/task"
)

// App is the root model: the deck of task panes plus the activity log.
type App struct {
	Deck *Deck
	Log  *ActivityLog

	width    int
	height   int
	finished bool
	err      error
}

var _ tea.Model = (*App)(nil)

// NewApp creates the root application model over a deck.
func NewApp(deck *Deck) *App {
	return &App{
		Deck: deck,
		Log:  NewActivityLog(),
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.Log.Init()}
	for _, p := range a.Deck.Panes() {
		cmds = append(cmds, p.Init())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "tab":
			a.Deck.Next()
			return a, nil
		case "shift+tab":
			a.Deck.Prev()
			return a, nil
		}
		if n := digitKey(msg); n > 0 {
			a.Deck.Select(n - 1)
			return a, nil
		}
		// Remaining keys scroll the activity log.
		return a, a.updateLog(msg)

	case SelectPaneMsg:
		a.Deck.Select(msg.Index)
		return a, nil

	case task.Event:
		// The log keeps everything; panes filter by scope themselves.
		cmds := []tea.Cmd{a.updateLog(msg)}
		for _, p := range a.Deck.Panes() {
			_, cmd := p.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		// Every pane sees the tick; spinners ignore ticks that are not
		// theirs, so only one chain advances per message.
		var cmds []tea.Cmd
		for _, p := range a.Deck.Panes() {
			_, cmd := p.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		cmds := []tea.Cmd{a.updateLog(msg)}
		for _, p := range a.Deck.Panes() {
			_, cmd := p.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case WidgetUpdatedMsg:
		// Repaint only; the widgets already hold their new state.
		return a, nil

	case TasksFinishedMsg:
		a.finished = true
		a.err = msg.Err
		return a, nil
	}

	return a, a.updateLog(msg)
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.renderTabs() + "\n\n")

	if p := a.Deck.Active(); p != nil {
		b.WriteString(Styles.Box.Render(p.View()) + "\n")
	}
	b.WriteString(a.Log.View() + "\n")

	hint := "tab/shift+tab: switch pane  1-9: select  q: quit"
	if a.finished {
		if a.err != nil {
			b.WriteString(Styles.Danger.Render(fmt.Sprintf("Tasks finished with error: %v", a.err)) + "\n")
		} else {
			b.WriteString(Styles.Success.Render("All tasks finished") + "\n")
		}
	}
	b.WriteString(Styles.Hint.Render(hint))
	return b.String()
}

func (a *App) renderTabs() string {
	var tabs []string
	for i, p := range a.Deck.Panes() {
		label := fmt.Sprintf("%d:%s", i+1, p.Title)
		if i == a.Deck.ActiveIndex() {
			tabs = append(tabs, Styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, Styles.Tab.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

func (a *App) updateLog(msg tea.Msg) tea.Cmd {
	v, cmd := a.Log.Update(msg)
	a.Log = v.(*ActivityLog)
	return cmd
}

// digitKey returns 1-9 for a bare digit key press, 0 otherwise.
func digitKey(msg tea.KeyMsg) int {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0
	}
	return int(r - '0')
}
