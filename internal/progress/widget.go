package progress

import "time"

// Widget is the visual capability indicators drive: an infinite animation
// mode, a determinate total/worked mode, visibility control with optional
// delayed reveal, and a query for whether a determinate total is set.
// Implementations own all rendering and display-level validation; numeric
// input reaches them verbatim, negatives included.
//
// Reveal with a positive delay schedules a one-shot deferred reveal. A
// deferred reveal that fires after Stop or Conceal must be a no-op:
// implementations check their state when the timer fires, not a snapshot
// from when it was scheduled. Implementations must tolerate concurrent
// calls; reporters may drive them from several goroutines.
type Widget interface {
	// StartIndeterminate switches to the infinite animation mode.
	StartIndeterminate()
	// StartDeterminate switches to determinate mode with the given total
	// and restarts the completed count at zero.
	StartDeterminate(total int)
	// SetWorked adds amount to the completed units shown.
	SetWorked(amount int)
	// HasTotal reports whether a determinate total is currently set.
	HasTotal() bool
	// Reveal makes the widget visible, after delay when positive.
	Reveal(delay time.Duration)
	// Stop ends the running animation or determinate display.
	Stop()
	// Conceal hides the widget and drops any pending reveal.
	Conceal()
}
