package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/wire"
	"github.com/go-resty/resty/v2"
)

const (
	NotificationsPath = "/notifs.json"
	LogsPath          = "/logs.json"
	SettingsPath      = "/settings.json"
)

var ErrBadStatus = errors.New("unexpected status")

// Client reads the plain JSON documents the device serves next to the page.
type Client struct {
	http *resty.Client
}

// BaseURL builds http://host:port.
func BaseURL(host string, port int) string {
	u := url.URL{Scheme: "http", Host: net.JoinHostPort(host, strconv.Itoa(port))}
	return u.String()
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: client}
}

type notificationsDocument struct {
	Notifs []json.RawMessage `json:"notifs"`
}

// Notifications returns the history oldest first, as served.
// Entries may be {ts,text} objects or bare strings. Entries that are null or
// fail to decode are skipped.
func (c *Client) Notifications(ctx context.Context) ([]types.Notification, error) {
	var doc notificationsDocument
	if err := c.getJSON(ctx, NotificationsPath, &doc); err != nil {
		return nil, err
	}

	out := make([]types.Notification, 0, len(doc.Notifs))
	for _, raw := range doc.Notifs {
		if n, ok := decodeNotification(raw); ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func decodeNotification(raw json.RawMessage) (types.Notification, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return types.Notification{}, false
	}
	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return types.Notification{}, false
		}
		return types.Notification{Text: text}, true
	case '{':
		var entry struct {
			Ts   json.RawMessage `json:"ts"`
			Text string          `json:"text"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return types.Notification{}, false
		}
		return types.Notification{Timestamp: int64(wire.CoerceNumber(entry.Ts)), Text: entry.Text}, true
	}
	return types.Notification{}, false
}

// Settings returns the persisted settings. A zero price means none is set.
func (c *Client) Settings(ctx context.Context) (types.Settings, error) {
	var s types.Settings
	err := c.getJSON(ctx, SettingsPath, &s)
	return s, err
}

// Logs returns the historical log document untouched.
func (c *Client) Logs(ctx context.Context) (json.RawMessage, error) {
	var doc json.RawMessage
	if err := c.getJSON(ctx, LogsPath, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("fetch %s: %w: %d", path, ErrBadStatus, resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
