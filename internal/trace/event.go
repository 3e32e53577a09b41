package trace

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// EventKind identifies the kind of operation event
type EventKind string

const (
	EventOpStart EventKind = "op_start" // operation began
	EventOpEnd   EventKind = "op_end"   // operation finished
)

// OpEvent is one half of an operation's lifecycle, reported in-process by
// runners or over HTTP by out-of-process reporters.
type OpEvent struct {
	Kind      EventKind         `json:"kind"`             // op_start or op_end
	ID        string            `json:"id"`               // pairs the two halves
	Name      string            `json:"name"`             // human-readable operation name
	Scope     string            `json:"scope,omitempty"`  // visual scope the operation reports under
	Detail    map[string]string `json:"detail,omitempty"` // additional metadata
	Timestamp time.Time         `json:"timestamp"`        // when the event occurred
}

// NewOpID generates a random 8-byte operation ID as hex string (16 characters)
func NewOpID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
