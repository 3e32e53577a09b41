// Package ui renders the task deck: a Bubble Tea interface presenting one
// pane per visual scope, with exactly one pane visible at a time.
//
// Core pieces:
//   - View: a major UI region with its own model, update, view (Elm-style)
//   - PaneWidget: the progress widget each pane hosts
//   - TaskPane: one scope's pane (title, task status lines, widget)
//   - ActivityLog: scrollback of task runner events
//   - Deck: the ordered panes; every switch announces scope open/close
//   - App: the root model wiring keys, sizing and message routing
package ui
