package hub

import (
	"cloupeer.io/bcicar/internal/caragent/core"
	"cloupeer.io/bcicar/internal/pkg/mqtt/paths"
)

type route struct {
	segment string
	qos     byte
	retain  bool
}

// routes maps each upstream topic onto its MQTT segment. Online and state are
// retained so a late subscriber sees the current value.
var routes = map[core.Topic]route{
	core.TopicOnline:   {segment: paths.Online, qos: 1, retain: true},
	core.TopicRegister: {segment: paths.Register, qos: 1},
	core.TopicState:    {segment: paths.State, qos: 0, retain: true},
}
