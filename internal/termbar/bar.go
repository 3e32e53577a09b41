// Package termbar implements the progress widget for plain terminals. A Bar
// redraws a single line in place with carriage returns: a block-character
// bar with counts in determinate mode, a spinner frame cycle in
// indeterminate mode.
//
// Intended for TTY output (typically os.Stderr). Pipes and CI logs are
// better served by a line-oriented logger.
package termbar

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"taskdeck/internal/progress"
)

type mode int

const (
	modeNone mode = iota
	modeIndeterminate
	modeDeterminate
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const defaultBarWidth = 25

// Bar is a progress.Widget rendering onto one terminal line. Safe for
// concurrent use; reporters drive it from several goroutines.
type Bar struct {
	mu          sync.Mutex
	out         io.Writer
	label       string
	barWidth    int
	mode        mode
	total       int
	worked      int
	visible     bool
	frame       int
	lastLineLen int

	// revealGen invalidates deferred reveals scheduled before a Stop or
	// Conceal; a stale timer firing checks it and gives up.
	revealGen int
	anim      chan struct{}

	accent *color.Color
	dim    *color.Color
}

var _ progress.Widget = (*Bar)(nil)

// New returns a bar labeled label that draws to out.
func New(out io.Writer, label string) *Bar {
	return &Bar{
		out:      out,
		label:    label,
		barWidth: defaultBarWidth,
		accent:   color.New(color.FgCyan),
		dim:      color.New(color.Faint),
	}
}

// StartIndeterminate implements progress.Widget.
func (b *Bar) StartIndeterminate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = modeIndeterminate
	b.total = 0
	b.worked = 0
	b.redrawLocked()
	b.syncAnimLocked()
}

// StartDeterminate implements progress.Widget.
func (b *Bar) StartDeterminate(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = modeDeterminate
	b.total = total
	b.worked = 0
	b.redrawLocked()
	b.syncAnimLocked()
}

// SetWorked implements progress.Widget.
func (b *Bar) SetWorked(amount int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.worked += amount
	b.redrawLocked()
}

// HasTotal implements progress.Widget.
func (b *Bar) HasTotal() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode == modeDeterminate
}

// Reveal implements progress.Widget. A positive delay schedules a one-shot
// deferred reveal; the timer re-checks the bar's state when it fires, so a
// Stop or Conceal in between wins.
func (b *Bar) Reveal(delay time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if delay <= 0 {
		b.revealLocked()
		return
	}
	gen := b.revealGen
	time.AfterFunc(delay, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.revealGen != gen || b.mode == modeNone {
			return
		}
		b.revealLocked()
	})
}

func (b *Bar) revealLocked() {
	b.visible = true
	b.redrawLocked()
	b.syncAnimLocked()
}

// Stop implements progress.Widget.
func (b *Bar) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = modeNone
	b.total = 0
	b.worked = 0
	b.revealGen++
	b.clearLineLocked()
	b.syncAnimLocked()
}

// Conceal implements progress.Widget.
func (b *Bar) Conceal() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.visible = false
	b.revealGen++
	b.clearLineLocked()
	b.syncAnimLocked()
}

// syncAnimLocked starts or stops the spinner ticker to match the current
// mode and visibility.
func (b *Bar) syncAnimLocked() {
	animate := b.visible && b.mode == modeIndeterminate
	if animate && b.anim == nil {
		stop := make(chan struct{})
		b.anim = stop
		go b.animate(stop)
	}
	if !animate && b.anim != nil {
		close(b.anim)
		b.anim = nil
	}
}

func (b *Bar) animate(stop chan struct{}) {
	ticker := time.NewTicker(120 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.mu.Lock()
			if b.visible && b.mode == modeIndeterminate {
				b.frame = (b.frame + 1) % len(spinnerFrames)
				b.redrawLocked()
			}
			b.mu.Unlock()
		}
	}
}

// redrawLocked rewrites the line in place: move to column zero, blank the
// previous content, then print the current rendering.
func (b *Bar) redrawLocked() {
	if !b.visible || b.mode == modeNone {
		return
	}
	plain, colored := b.renderLocked()
	if b.lastLineLen > 0 {
		fmt.Fprint(b.out, "\r", strings.Repeat(" ", b.lastLineLen), "\r")
	}
	fmt.Fprint(b.out, colored)
	b.lastLineLen = runewidth.StringWidth(plain)
}

func (b *Bar) clearLineLocked() {
	if b.lastLineLen == 0 {
		return
	}
	fmt.Fprint(b.out, "\r", strings.Repeat(" ", b.lastLineLen), "\r")
	b.lastLineLen = 0
}

// renderLocked builds the line twice: plain for width accounting, colored
// for display. ANSI escapes would otherwise corrupt the clearing width.
func (b *Bar) renderLocked() (plain, colored string) {
	switch b.mode {
	case modeDeterminate:
		percent := 0
		if b.total > 0 {
			percent = b.worked * 100 / b.total
		}
		filled := 0
		if b.total > 0 {
			filled = b.barWidth * b.worked / b.total
		}
		if filled > b.barWidth {
			filled = b.barWidth
		}
		if filled < 0 {
			filled = 0
		}
		filledBar := strings.Repeat("█", filled)
		emptyBar := strings.Repeat("░", b.barWidth-filled)
		counts := fmt.Sprintf("%d/%d", b.worked, b.total)

		plain = fmt.Sprintf("%s %3d%% |%s%s| %s", b.label, percent, filledBar, emptyBar, counts)
		colored = fmt.Sprintf("%s %3d%% |%s%s| %s",
			b.label, percent, b.accent.Sprint(filledBar), emptyBar, b.dim.Sprint(counts))
		return plain, colored
	case modeIndeterminate:
		frame := spinnerFrames[b.frame]
		plain = fmt.Sprintf("%s %s", frame, b.label)
		colored = fmt.Sprintf("%s %s", b.accent.Sprint(frame), b.label)
		return plain, colored
	default:
		return "", ""
	}
}
