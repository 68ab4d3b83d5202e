package sse

// Event types.
const (
	// EventConnected is the first event every client receives.
	EventConnected = "connected"
	// EventFrame carries a summary of a rendered frame.
	EventFrame = "frame"
	// EventConfig carries a node snapshot after a configuration change.
	EventConfig = "config"
)

// Event is one message on the stream.
type Event struct {
	Type string
	Data []byte
}

// Publisher accepts events for delivery.
type Publisher interface {
	Publish(e Event) bool
}

// ConnectedEvent is the payload of EventConnected.
type ConnectedEvent struct {
	ClientID string `json:"clientId"`
	Pattern  string `json:"pattern"`
}
