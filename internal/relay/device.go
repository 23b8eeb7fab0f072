package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	v1 "cloupeer.io/bcicar/pkg/apis/car/v1"
	"cloupeer.io/bcicar/pkg/log"
)

// ErrUnreachable is returned when no HTTP exchange with the car happened.
var ErrUnreachable = errors.New("device unreachable")

const unknownDeviceError = "Unknown error from device"

// DeviceError is a non-200 reply from the car.
type DeviceError struct {
	StatusCode int
	Message    string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device returned %d: %s", e.StatusCode, e.Message)
}

// device is the relay's view of one car.
type device struct {
	target atomic.Pointer[url.URL]
	client *http.Client
}

func newDevice(rawURL string) (*device, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid device url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("device url %q must be absolute", rawURL)
	}
	d := &device{client: &http.Client{}}
	d.target.Store(u)
	return d, nil
}

// URL returns the current base URL of the car.
func (d *device) URL() *url.URL {
	return d.target.Load()
}

// retarget swaps the host for ip, keeping scheme and port.
func (d *device) retarget(ip string) {
	cur := d.target.Load()
	next := *cur
	if port := cur.Port(); port != "" {
		next.Host = net.JoinHostPort(ip, port)
	} else {
		next.Host = ip
	}
	d.target.Store(&next)
}

// command posts action to the car's /cmd and returns the decoded reply.
func (d *device) command(ctx context.Context, action string, timeout time.Duration) (any, error) {
	body, err := json.Marshal(v1.CommandRequest{Action: action})
	if err != nil {
		return nil, err
	}
	return d.do(ctx, http.MethodPost, "/cmd", body, timeout)
}

// ping fetches the car's /ping.
func (d *device) ping(ctx context.Context, timeout time.Duration) (any, error) {
	return d.do(ctx, http.MethodGet, "/ping", nil, timeout)
}

func (d *device) do(ctx context.Context, method, path string, body []byte, timeout time.Duration) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, d.URL().JoinPath(path).String(), rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := unknownDeviceError
		var er v1.ErrorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			msg = er.Error
		}
		return nil, &DeviceError{StatusCode: resp.StatusCode, Message: msg}
	}

	var reply any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &reply); err != nil {
			log.Debug("Device reply is not JSON", "error", err)
			reply = string(data)
		}
	}
	return reply, nil
}
