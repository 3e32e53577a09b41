package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/task"
	"taskdeck/internal/ui/textutil"
)

const defaultLogWidth = 70
const defaultLogHeight = 10
const defaultLogCapacity = 200

// ActivityLog displays recent task runner events with scrollback.
type ActivityLog struct {
	events   []task.Event
	viewport viewport.Model
	capacity int
}

var _ View = (*ActivityLog)(nil)

// NewActivityLog creates an empty activity log.
func NewActivityLog() *ActivityLog {
	vp := viewport.New(defaultLogWidth, defaultLogHeight)
	vp.Style = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorMuted)).
		Padding(0, 1)
	l := &ActivityLog{
		viewport: vp,
		capacity: defaultLogCapacity,
	}
	l.refreshContent()
	return l
}

// Init implements View.
func (l *ActivityLog) Init() tea.Cmd {
	return l.viewport.Init()
}

// Update implements View.
func (l *ActivityLog) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case task.Event:
		l.events = append(l.events, msg)
		if len(l.events) > l.capacity {
			l.events = l.events[len(l.events)-l.capacity:]
		}
		l.refreshContent()
		return l, nil
	case tea.WindowSizeMsg:
		w := msg.Width - 4
		if w < 40 {
			w = 40
		}
		h := msg.Height / 3
		if h < 6 {
			h = 6
		}
		l.viewport.Width = w
		l.viewport.Height = h
		l.refreshContent()
		return l, nil
	}

	var cmd tea.Cmd
	l.viewport, cmd = l.viewport.Update(msg)
	return l, cmd
}

// View implements View.
func (l *ActivityLog) View() string {
	header := Styles.Title.Render("Activity") + Styles.Hint.Render("  j/k: scroll")
	return header + "\n" + l.viewport.View()
}

// Len returns the number of retained events.
func (l *ActivityLog) Len() int {
	return len(l.events)
}

// refreshContent rebuilds the viewport content from accumulated events.
func (l *ActivityLog) refreshContent() {
	var lines []string
	for _, ev := range l.events {
		ts := ev.Timestamp.Format("15:04:05")
		scope := ev.Scope
		if scope == "" {
			scope = "-"
		}
		origin := textutil.PadRightVisual(scope+"/"+ev.Task, 20)
		lines = append(lines, fmt.Sprintf("[%s] %s %s %s", ts, statusIcon(ev.Status), origin, ev.Message))
	}
	content := strings.Join(lines, "\n")
	if content == "" {
		content = "Waiting for task output..."
	}
	l.viewport.SetContent(content)
	l.viewport.GotoBottom()
}
