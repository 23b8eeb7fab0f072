package caragent

import (
	"os"
	"strings"

	"cloupeer.io/bcicar/pkg/log"
)

const (
	// DefaultDeviceID is the name the car announces when nothing else is configured.
	DefaultDeviceID = "esp32_car"

	deviceIDEnv  = "BCICAR_DEVICE_ID"
	deviceIDFile = "/etc/bcicar/device-id"
)

// DiscoverDeviceID resolves the car's identity: an explicit id wins, then the
// environment, then the provisioning file, then DefaultDeviceID.
func DiscoverDeviceID(explicit string) string {
	return discoverDeviceID(explicit, deviceIDFile)
}

func discoverDeviceID(explicit, file string) string {
	if explicit != "" {
		return explicit
	}

	if envID := os.Getenv(deviceIDEnv); envID != "" {
		log.Info("DeviceID detected from env", "id", envID)
		return envID
	}

	if content, err := os.ReadFile(file); err == nil {
		if id := strings.TrimSpace(string(content)); id != "" {
			log.Info("DeviceID detected from file", "id", id, "file", file)
			return id
		}
	}

	return DefaultDeviceID
}
