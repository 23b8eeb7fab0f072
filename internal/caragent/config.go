package caragent

import (
	"fmt"
	"time"

	"cloupeer.io/bcicar/internal/caragent/core"
	"cloupeer.io/bcicar/internal/caragent/drive"
	"cloupeer.io/bcicar/internal/caragent/hal"
	"cloupeer.io/bcicar/internal/caragent/hub"
	"cloupeer.io/bcicar/internal/caragent/indicator"
	"cloupeer.io/bcicar/internal/caragent/notify"
	"cloupeer.io/bcicar/internal/caragent/server"
	"cloupeer.io/bcicar/internal/pkg/mqtt/paths"
	"cloupeer.io/bcicar/internal/pkg/util/sleeper"
	"cloupeer.io/bcicar/pkg/mqtt"
	mqtttopic "cloupeer.io/bcicar/pkg/mqtt/topic"
	"cloupeer.io/bcicar/pkg/options"
)

// NetworkConfig controls the connectivity wait at boot.
type NetworkConfig struct {
	PollInterval time.Duration
	// ConnectTimeout bounds the wait. Zero waits forever.
	ConnectTimeout time.Duration
}

type Config struct {
	DeviceID string

	HAL     *hal.Config
	Profile drive.Profile
	Palette indicator.Palette
	Network NetworkConfig

	HttpOptions *options.HttpOptions
	MqttOptions *options.MqttOptions

	RelayURL      string
	NotifyTimeout time.Duration
}

// NewAgent opens the hardware and assembles the agent.
func (cfg *Config) NewAgent() (*Agent, error) {
	deviceID := DiscoverDeviceID(cfg.DeviceID)

	h, err := hal.New(cfg.HAL)
	if err != nil {
		return nil, fmt.Errorf("failed to open hal: %w", err)
	}

	return cfg.newAgent(deviceID, h, sleeper.Real())
}

func (cfg *Config) newAgent(deviceID string, h core.HAL, s sleeper.Sleeper) (*Agent, error) {
	pair := drive.NewPair(
		drive.NewChannel(core.SideLeft, h.Motor(core.SideLeft)),
		drive.NewChannel(core.SideRight, h.Motor(core.SideRight)),
	)
	engine := drive.NewEngine(pair, s, cfg.Profile)
	ind := indicator.New(h.Pixel(), s, cfg.Palette)
	arbiter := drive.NewArbiter(engine, ind)

	a := &Agent{
		deviceID:  deviceID,
		hal:       h,
		engine:    engine,
		arbiter:   arbiter,
		indicator: ind,
		network:   cfg.Network,
		notifier:  notify.New(cfg.RelayURL, deviceID, cfg.NotifyTimeout),
	}
	a.server = server.New(cfg.HttpOptions, deviceID, arbiter, h.Address)

	if cfg.MqttOptions.Enabled() {
		mc, builder, err := cfg.initMqttClientAndTopicBuilder(deviceID)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		a.hub = hub.New(deviceID, mc, builder, arbiter, h.Address)
		engine.OnStateChange(a.hub.ObserveState)
	}

	return a, nil
}

func (cfg *Config) initMqttClientAndTopicBuilder(deviceID string) (mqtt.Client, *mqtttopic.Builder, error) {
	topicBuilder := mqtttopic.NewBuilder(cfg.MqttOptions.TopicRoot)

	mqttConfig := cfg.MqttOptions.ToClientConfig()
	if mqttConfig.ClientID == "" {
		mqttConfig.ClientID = fmt.Sprintf("bcicar-%s", deviceID)
	}

	offlinePayload, err := hub.OnlinePayload(deviceID, false, "UnexpectedDisconnect")
	if err != nil {
		return nil, nil, err
	}

	mqttConfig.WillTopic = topicBuilder.Build(paths.Online, deviceID)
	mqttConfig.WillPayload = offlinePayload
	mqttConfig.WillQoS = 1
	mqttConfig.WillRetain = true

	mqttClient, err := mqtt.NewClient(mqttConfig)
	if err != nil {
		return nil, nil, err
	}

	return mqttClient, topicBuilder, nil
}
