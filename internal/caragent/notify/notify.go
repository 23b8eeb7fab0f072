// Package notify announces a ready car to its relay.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	v1 "cloupeer.io/bcicar/pkg/apis/car/v1"
	"cloupeer.io/bcicar/pkg/log"
)

// DefaultTimeout bounds the single notification attempt.
const DefaultTimeout = 3 * time.Second

// Notifier posts the ready announcement to {relay}/notify.
type Notifier struct {
	relayURL string
	deviceID string
	client   *http.Client
}

// New returns a Notifier for relayURL. An empty relayURL disables it.
func New(relayURL, deviceID string, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Notifier{
		relayURL: strings.TrimRight(relayURL, "/"),
		deviceID: deviceID,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a relay is configured.
func (n *Notifier) Enabled() bool {
	return n.relayURL != ""
}

// Ready makes one attempt to announce ip. Failures are returned for the
// caller to log; nothing is retried.
func (n *Notifier) Ready(ctx context.Context, ip string) error {
	if !n.Enabled() {
		return nil
	}

	body, err := json.Marshal(v1.NotifyRequest{Status: v1.StatusReady, Device: n.deviceID, IP: ip})
	if err != nil {
		return err
	}

	url := n.relayURL + "/notify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create notify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to notify relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("relay returned %s", resp.Status)
	}

	log.Info("Ready notification sent", "relay", n.relayURL, "ip", ip)
	return nil
}
