package core

// Event is a status change shown on the indicator.
type Event string

const (
	EventDisconnected    Event = "disconnected"
	EventConnected       Event = "connected"
	EventCommandReceived Event = "command.received"
)
