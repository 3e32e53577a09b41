package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/task"
)

func taskEvent(scope, name string, status task.Status, msg string) task.Event {
	return task.Event{Task: name, Scope: scope, Status: status, Message: msg}
}

func TestTaskPane_IgnoresOtherScopes(t *testing.T) {
	p := NewTaskPane("build", "Build", nil)

	p.Update(taskEvent("test", "unit", task.StatusRunning, "starting"))

	output := p.View()
	if !strings.Contains(output, "No tasks yet") {
		t.Error("expected empty state after foreign-scope event")
	}
	if strings.Contains(output, "unit") {
		t.Error("foreign-scope task should not be listed")
	}
}

func TestTaskPane_TracksFirstSeenOrder(t *testing.T) {
	p := NewTaskPane("build", "Build", nil)

	p.Update(taskEvent("build", "compile", task.StatusRunning, "step 1"))
	p.Update(taskEvent("build", "lint", task.StatusRunning, "starting"))
	p.Update(taskEvent("build", "compile", task.StatusSucceeded, "done"))

	output := p.View()
	ci := strings.Index(output, "compile")
	li := strings.Index(output, "lint")
	if ci == -1 || li == -1 {
		t.Fatalf("expected both tasks in view, got %q", output)
	}
	if ci > li {
		t.Error("expected compile listed before lint")
	}

	// The latest event replaces the earlier line for the same task.
	if !strings.Contains(output, "done") {
		t.Error("expected updated message in view")
	}
	if strings.Contains(output, "step 1") {
		t.Error("stale message should be replaced")
	}
}

func TestTaskPane_ViewShowsStatusIcons(t *testing.T) {
	p := NewTaskPane("build", "Build", nil)

	p.Update(taskEvent("build", "compile", task.StatusRunning, ""))
	if !strings.Contains(p.View(), "●") {
		t.Error("expected ● for running task")
	}

	p.Update(taskEvent("build", "compile", task.StatusSucceeded, ""))
	if !strings.Contains(p.View(), "✓") {
		t.Error("expected ✓ for succeeded task")
	}

	p.Update(taskEvent("build", "compile", task.StatusFailed, ""))
	if !strings.Contains(p.View(), "✗") {
		t.Error("expected ✗ for failed task")
	}
}

func TestTaskPane_ViewIncludesWidgetLine(t *testing.T) {
	p := NewTaskPane("build", "Build", nil)

	w := p.Widget()
	w.StartDeterminate(5)
	w.SetWorked(2)
	w.Reveal(0)

	if !strings.Contains(p.View(), "2/5") {
		t.Errorf("expected widget count 2/5 in view, got %q", p.View())
	}
}

func TestTaskPane_ViewRendersTitle(t *testing.T) {
	p := NewTaskPane("build", "Build", nil)

	if !strings.Contains(p.View(), "Build") {
		t.Error("expected pane title in view")
	}
	if !strings.Contains(p.View(), "No tasks yet") {
		t.Error("expected empty state in fresh pane")
	}
}

func TestTaskPane_WindowSizeTruncatesLines(t *testing.T) {
	p := NewTaskPane("build", "Build", nil)

	p.Update(tea.WindowSizeMsg{Width: 24, Height: 40})
	p.Update(taskEvent("build", "compile", task.StatusRunning, "a very long message that cannot fit"))

	if !strings.Contains(p.View(), "…") {
		t.Errorf("expected truncated line in view, got %q", p.View())
	}
}
