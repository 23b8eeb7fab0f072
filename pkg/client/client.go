// Package client talks to a car's command surface, directly or through the relay.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	v1 "cloupeer.io/bcicar/pkg/apis/car/v1"
)

type Client struct {
	baseURL string
	relay   bool
	http    *http.Client
}

// New returns a client for baseURL. With relay set, commands go to /control
// instead of /cmd.
func New(baseURL string, relay bool, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		relay:   relay,
		http:    &http.Client{Timeout: timeout},
	}
}

// Send asks the car to execute action and returns the status it reported.
func (c *Client) Send(ctx context.Context, action string) (string, error) {
	path := "/cmd"
	if c.relay {
		path = "/control"
	}

	body, err := json.Marshal(v1.CommandRequest{Action: action})
	if err != nil {
		return "", err
	}

	var resp v1.CommandResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Ping returns the car's liveness and execution state.
func (c *Client) Ping(ctx context.Context) (*v1.PingResponse, error) {
	var resp v1.PingResponse
	if err := c.do(ctx, http.MethodGet, "/ping", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var er v1.ErrorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, er.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
