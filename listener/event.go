package listener

import "encoding/json"

// Event is a single message from the inbound completion stream. The stream
// delivers events at least once and in no particular order across job ids.
type Event struct {
	// ID identifies the event for diagnostics. Optional.
	ID string `json:"id,omitempty"`

	// Source names the emitting system.
	Source string `json:"source"`

	// Type is the event type within the source.
	Type string `json:"type"`

	// Payload is the structured event body.
	Payload json.RawMessage `json:"payload,omitempty"`
}
