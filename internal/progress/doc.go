// Package progress tracks visual progress state for UI scopes that can be
// hidden and reshown independently of the operations reporting into them.
//
// Core pieces:
//   - State / Transition: the tagged-union progress state machine
//   - Operation: a settle-once future handle with explicit joining
//   - WidgetIndicator: reporter for an always-visible widget
//   - ScopedIndicator: reporter that records while hidden and replays on reveal
//   - ScopeNotifier: in-process scope open/close event source
//
// The package performs no I/O and never draws. Rendering is consumed through
// the Widget capability interface; scope visibility arrives through a
// ScopeEventSource.
package progress
