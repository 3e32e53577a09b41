package ui

// WidgetUpdatedMsg requests a repaint after a reporter mutated a pane widget
// from outside the program goroutine.
type WidgetUpdatedMsg struct{}

// SelectPaneMsg activates the pane at Index (0-based, wrapped into range).
type SelectPaneMsg struct {
	Index int
}

// TasksFinishedMsg is sent when the task set driving the deck completes.
type TasksFinishedMsg struct {
	Err error
}
