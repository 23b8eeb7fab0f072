package paths

// Topic segments shared by the car agent and anything watching it.
// Every topic is built as {root}/{segment}/{deviceID}.

// Downstream: operator -> car
const (
	// Command carries a motion command. Payload: {"action": "forward"}
	Command = "command"
)

// Upstream: car -> operator
const (
	// Online is the retained online/offline status. The broker publishes the
	// offline payload as the connection's will.
	Online = "online"

	// Register announces a ready car after boot.
	Register = "register"

	// State reports each execution phase change.
	State = "state"
)
