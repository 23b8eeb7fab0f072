package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"cloupeer.io/bcicar/internal/caragent/core"
	"cloupeer.io/bcicar/internal/caragent/drive"
	"cloupeer.io/bcicar/internal/pkg/metrics"
	"cloupeer.io/bcicar/internal/pkg/mqtt/paths"
	v1 "cloupeer.io/bcicar/pkg/apis/car/v1"
	"cloupeer.io/bcicar/pkg/log"
	"cloupeer.io/bcicar/pkg/mqtt"
	mqtttopic "cloupeer.io/bcicar/pkg/mqtt/topic"
)

// Dispatcher accepts validated commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, action drive.Action) error
}

// Hub connects the car to an MQTT broker. It publishes online status,
// the ready announcement and execution state, and feeds commands received on
// the command topic to the Dispatcher.
type Hub struct {
	deviceID string

	mc         mqtt.Client
	topics     *mqtttopic.Builder
	dispatcher Dispatcher
	address    func() string

	states   chan drive.ExecutionState
	commands chan drive.Action
}

var _ core.Sender = (*Hub)(nil)

// New builds a Hub. address is read when the ready message is published.
func New(deviceID string, client mqtt.Client, builder *mqtttopic.Builder, dispatcher Dispatcher, address func() string) *Hub {
	return &Hub{
		deviceID:   deviceID,
		mc:         client,
		topics:     builder,
		dispatcher: dispatcher,
		address:    address,
		states:     make(chan drive.ExecutionState, 16),
		commands:   make(chan drive.Action, 8),
	}
}

func (h *Hub) Send(ctx context.Context, topic core.Topic, payload []byte) error {
	r, ok := routes[topic]
	if !ok {
		return fmt.Errorf("unmapped topic: %s", topic)
	}
	return h.mc.Publish(ctx, h.topics.Build(r.segment, h.deviceID), r.qos, r.retain, payload)
}

func (h *Hub) SendProto(ctx context.Context, topic core.Topic, msg proto.Message) error {
	payload, err := protojson.Marshal(msg)
	if err != nil {
		return err
	}
	return h.Send(ctx, topic, payload)
}

// ObserveState queues st for publishing. It never blocks; when the queue is
// full the update is dropped and the next one supersedes it.
func (h *Hub) ObserveState(st drive.ExecutionState) {
	select {
	case h.states <- st:
	default:
		log.Debug("State queue full, dropping update", "phase", st.Phase)
	}
}

// Announce publishes the ready message.
func (h *Hub) Announce(ctx context.Context, ip string) error {
	msg, err := registerMessage(h.deviceID, ip)
	if err != nil {
		return err
	}
	return h.SendProto(ctx, core.TopicRegister, msg)
}

// Run connects, subscribes to commands, announces the car and pumps state and
// commands until ctx is done. The offline status is published before
// disconnecting.
func (h *Hub) Run(ctx context.Context) error {
	if err := h.mc.Start(ctx); err != nil {
		return err
	}
	defer h.stop()

	if err := h.mc.AwaitConnection(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	commandTopic := h.topics.Build(paths.Command, h.deviceID)
	// The client keeps the subscription and replays it on reconnect.
	if err := h.mc.Subscribe(ctx, commandTopic, 1, h.handleCommand); err != nil {
		log.Error(err, "Failed to subscribe to commands", "topic", commandTopic)
	}

	if err := h.publishOnline(ctx, true, "Connected"); err != nil {
		log.Error(err, "Failed to publish online status")
	}
	if err := h.Announce(ctx, h.address()); err != nil {
		log.Error(err, "Failed to publish ready message")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case st := <-h.states:
			h.publishState(ctx, st)
		case action := <-h.commands:
			if err := h.dispatcher.Dispatch(ctx, action); err != nil {
				metrics.CommandsRejectedTotal.WithLabelValues("mqtt", "closed").Inc()
				log.Error(err, "Failed to dispatch MQTT command", "action", action)
			}
		}
	}
}

// handleCommand runs on the MQTT client's reader. It validates and queues;
// dispatch happens on Run's goroutine.
func (h *Hub) handleCommand(_ context.Context, topic string, payload []byte) {
	var req v1.CommandRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		metrics.CommandsRejectedTotal.WithLabelValues("mqtt", "invalid").Inc()
		log.Warn("Dropping malformed MQTT command", "topic", topic, "error", err)
		return
	}

	action, err := drive.ParseAction(req.Action)
	if err != nil {
		metrics.CommandsRejectedTotal.WithLabelValues("mqtt", "invalid").Inc()
		log.Warn("Dropping invalid MQTT command", "topic", topic, "action", req.Action)
		return
	}

	select {
	case h.commands <- action:
		log.Info("Received MQTT command", "action", action)
	default:
		metrics.CommandsRejectedTotal.WithLabelValues("mqtt", "busy").Inc()
		log.Warn("Command queue full, dropping MQTT command", "action", action)
	}
}

func (h *Hub) publishState(ctx context.Context, st drive.ExecutionState) {
	msg, err := stateMessage(h.deviceID, st)
	if err != nil {
		log.Error(err, "Failed to encode state")
		return
	}
	if err := h.SendProto(ctx, core.TopicState, msg); err != nil {
		log.Error(err, "Failed to publish state", "phase", st.Phase)
	}
}

func (h *Hub) publishOnline(ctx context.Context, online bool, reason string) error {
	payload, err := OnlinePayload(h.deviceID, online, reason)
	if err != nil {
		return err
	}
	return h.Send(ctx, core.TopicOnline, payload)
}

func (h *Hub) stop() {
	log.Info("Disconnecting MQTT client...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if h.mc.IsConnected() {
		if err := h.publishOnline(ctx, false, "Shutdown"); err != nil {
			log.Error(err, "Failed to publish offline status")
		}
	}
	h.mc.Disconnect(ctx)
}
