package core

import (
	"context"

	"google.golang.org/protobuf/proto"
)

// Topic names an upstream stream published by the hub.
type Topic string

const (
	TopicOnline   Topic = "agent.online"
	TopicRegister Topic = "agent.register"
	TopicState    Topic = "execution.state"
)

// Sender publishes agent telemetry upstream.
type Sender interface {
	Send(ctx context.Context, topic Topic, payload []byte) error
	SendProto(ctx context.Context, topic Topic, msg proto.Message) error
}
