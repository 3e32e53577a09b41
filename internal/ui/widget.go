package ui

import (
	"fmt"
	"sync"
	"time"

	pbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/progress"
)

type widgetMode int

const (
	modeIdle widgetMode = iota
	modeIndeterminate
	modeDeterminate
)

const paneBarWidth = 30

// PaneWidget is the progress widget a task pane hosts. Reporters drive it
// from task goroutines while Bubble Tea renders on the program goroutine, so
// every field lives behind the mutex. notify schedules a repaint and must be
// safe to call from any goroutine, including the program's own.
type PaneWidget struct {
	mu        sync.Mutex
	mode      widgetMode
	total     int
	worked    int
	visible   bool
	revealGen int
	spin      spinner.Model
	bar       pbar.Model
	notify    func()
}

var _ progress.Widget = (*PaneWidget)(nil)

// NewPaneWidget returns a hidden, idle widget. notify may be nil.
func NewPaneWidget(notify func()) *PaneWidget {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	b := pbar.New(
		pbar.WithDefaultGradient(),
		pbar.WithWidth(paneBarWidth),
	)

	return &PaneWidget{spin: s, bar: b, notify: notify}
}

// StartIndeterminate implements progress.Widget.
func (w *PaneWidget) StartIndeterminate() {
	w.mu.Lock()
	w.mode = modeIndeterminate
	w.mu.Unlock()
	w.repaint()
}

// StartDeterminate implements progress.Widget. The completed count restarts
// at zero whenever a total is declared.
func (w *PaneWidget) StartDeterminate(total int) {
	w.mu.Lock()
	w.mode = modeDeterminate
	w.total = total
	w.worked = 0
	w.mu.Unlock()
	w.repaint()
}

// SetWorked implements progress.Widget.
func (w *PaneWidget) SetWorked(n int) {
	w.mu.Lock()
	w.worked += n
	w.mu.Unlock()
	w.repaint()
}

// HasTotal implements progress.Widget.
func (w *PaneWidget) HasTotal() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode == modeDeterminate
}

// Reveal implements progress.Widget. A deferred reveal is dropped when the
// widget was stopped or concealed before the delay elapsed.
func (w *PaneWidget) Reveal(delay time.Duration) {
	w.mu.Lock()
	if delay <= 0 {
		w.visible = true
		w.mu.Unlock()
		w.repaint()
		return
	}
	gen := w.revealGen
	w.mu.Unlock()

	time.AfterFunc(delay, func() {
		w.mu.Lock()
		if w.revealGen != gen || w.mode == modeIdle {
			w.mu.Unlock()
			return
		}
		w.visible = true
		w.mu.Unlock()
		w.repaint()
	})
}

// Stop implements progress.Widget.
func (w *PaneWidget) Stop() {
	w.mu.Lock()
	w.mode = modeIdle
	w.total = 0
	w.worked = 0
	w.revealGen++
	w.mu.Unlock()
	w.repaint()
}

// Conceal implements progress.Widget.
func (w *PaneWidget) Conceal() {
	w.mu.Lock()
	w.visible = false
	w.revealGen++
	w.mu.Unlock()
	w.repaint()
}

// Visible reports whether the widget currently draws anything.
func (w *PaneWidget) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible && w.mode != modeIdle
}

// TickCmd starts this widget's spinner animation chain.
func (w *PaneWidget) TickCmd() tea.Cmd {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spin.Tick
}

// UpdateSpinner advances the spinner and returns the next tick. Ticks for
// other widgets' spinners are ignored by the spinner's own ID check.
func (w *PaneWidget) UpdateSpinner(msg spinner.TickMsg) tea.Cmd {
	w.mu.Lock()
	defer w.mu.Unlock()
	var cmd tea.Cmd
	w.spin, cmd = w.spin.Update(msg)
	return cmd
}

// View renders the widget's single line. Hidden or idle widgets render
// nothing.
func (w *PaneWidget) View() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.visible || w.mode == modeIdle {
		return ""
	}
	switch w.mode {
	case modeIndeterminate:
		return w.spin.View() + " working"
	case modeDeterminate:
		pct := 0.0
		if w.total > 0 {
			pct = float64(w.worked) / float64(w.total)
		}
		if pct < 0 {
			pct = 0
		}
		if pct > 1 {
			pct = 1
		}
		return fmt.Sprintf("%s %d/%d", w.bar.ViewAs(pct), w.worked, w.total)
	}
	return ""
}

// repaint schedules a redraw; must be called without the mutex held.
func (w *PaneWidget) repaint() {
	if w.notify != nil {
		w.notify()
	}
}
