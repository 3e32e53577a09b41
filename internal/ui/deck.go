package ui

import "taskdeck/internal/progress"

// Deck is the ordered pane set with exactly one pane visible. Every switch
// announces scope-closed for the leaving pane and then scope-opened for the
// entering one, which is what drives scoped reporters active and inactive.
type Deck struct {
	panes    []*TaskPane
	active   int
	notifier *progress.ScopeNotifier
}

// NewDeck creates a deck over the given panes. The first pane starts
// visible; its scope is announced immediately so its reporter activates.
func NewDeck(notifier *progress.ScopeNotifier, panes ...*TaskPane) *Deck {
	d := &Deck{panes: panes, notifier: notifier}
	if len(panes) > 0 && notifier != nil {
		notifier.Open(panes[0].Scope)
	}
	return d
}

// Panes returns the deck's panes in order.
func (d *Deck) Panes() []*TaskPane {
	return d.panes
}

// Active returns the visible pane, or nil for an empty deck.
func (d *Deck) Active() *TaskPane {
	if len(d.panes) == 0 {
		return nil
	}
	return d.panes[d.active]
}

// ActiveIndex returns the visible pane's position.
func (d *Deck) ActiveIndex() int {
	return d.active
}

// Next activates the pane after the current one, wrapping around.
func (d *Deck) Next() {
	d.Select(d.active + 1)
}

// Prev activates the pane before the current one, wrapping around.
func (d *Deck) Prev() {
	d.Select(d.active - 1)
}

// Select activates the pane at i, wrapped into range. Selecting the already
// visible pane announces nothing.
func (d *Deck) Select(i int) {
	n := len(d.panes)
	if n == 0 {
		return
	}
	i = ((i % n) + n) % n
	if i == d.active {
		return
	}

	old := d.panes[d.active]
	d.active = i
	if d.notifier != nil {
		d.notifier.Close(old.Scope)
		d.notifier.Open(d.panes[i].Scope)
	}
}
