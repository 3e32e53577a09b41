package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/task"
	"taskdeck/internal/ui/textutil"
)

// TaskPane shows one scope: its title, the latest status line per task and
// the scope's progress widget.
type TaskPane struct {
	Scope  string
	Title  string
	widget *PaneWidget

	order  []string              // task names in first-seen order
	status map[string]task.Event // task name -> latest event
	width  int
}

var _ View = (*TaskPane)(nil)

// NewTaskPane creates a pane for scope. notify is handed to the widget.
func NewTaskPane(scope, title string, notify func()) *TaskPane {
	return &TaskPane{
		Scope:  scope,
		Title:  title,
		widget: NewPaneWidget(notify),
		status: make(map[string]task.Event),
		width:  60,
	}
}

// Widget returns the progress widget reporters draw into.
func (p *TaskPane) Widget() *PaneWidget {
	return p.widget
}

// Init implements View.
func (p *TaskPane) Init() tea.Cmd {
	return p.widget.TickCmd()
}

// Update implements View.
func (p *TaskPane) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case task.Event:
		if msg.Scope != p.Scope {
			return p, nil
		}
		if _, seen := p.status[msg.Task]; !seen {
			p.order = append(p.order, msg.Task)
		}
		p.status[msg.Task] = msg
		return p, nil
	case spinner.TickMsg:
		return p, p.widget.UpdateSpinner(msg)
	case tea.WindowSizeMsg:
		p.width = msg.Width
		return p, nil
	}
	return p, nil
}

// View implements View.
func (p *TaskPane) View() string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render(p.Title) + "\n")

	if len(p.order) == 0 {
		b.WriteString(Styles.Empty.Render("No tasks yet") + "\n")
	}
	for _, name := range p.order {
		ev := p.status[name]
		line := fmt.Sprintf("%s %s  %s", statusIcon(ev.Status), name, ev.Message)
		b.WriteString(statusStyle(ev.Status).Render(textutil.Truncate(line, p.width-4)) + "\n")
	}

	if wv := p.widget.View(); wv != "" {
		b.WriteString("\n" + wv + "\n")
	}
	return b.String()
}

func statusIcon(s task.Status) string {
	switch s {
	case task.StatusRunning:
		return "●"
	case task.StatusSucceeded:
		return "✓"
	case task.StatusFailed:
		return "✗"
	default:
		return "•"
	}
}

func statusStyle(s task.Status) lipgloss.Style {
	switch s {
	case task.StatusSucceeded:
		return Styles.Success
	case task.StatusFailed:
		return Styles.Danger
	default:
		return Styles.Normal
	}
}
