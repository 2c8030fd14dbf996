package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/config"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/projection"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/transport"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second
const tick = 10 * time.Millisecond

type fakeTransport struct {
	events chan transport.Event

	mu     sync.Mutex
	open   bool
	closed bool
	sent   []wire.Command
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan transport.Event, 16)}
}

func (f *fakeTransport) Open(ctx context.Context)       {}
func (f *fakeTransport) Events() <-chan transport.Event { return f.events }

func (f *fakeTransport) Send(cmd wire.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return transport.ErrNotOpen
	}
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) connect() {
	f.mu.Lock()
	f.open = true
	f.mu.Unlock()
	f.events <- transport.Event{Kind: transport.EventOpen}
}

func (f *fakeTransport) message(t *testing.T, raw string) {
	t.Helper()
	f.events <- transport.Event{Kind: transport.EventMessage, Data: []byte(raw)}
}

func (f *fakeTransport) commands() []wire.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wire.Command(nil), f.sent...)
}

type fakeCollab struct {
	notifs      []types.Notification
	notifsErr   error
	settings    types.Settings
	settingsErr error
	// Settings blocks until closed, when set.
	settingsGate chan struct{}
	// Notifications blocks until closed, when set.
	notifsGate chan struct{}
	logs       json.RawMessage
}

func (f *fakeCollab) Notifications(ctx context.Context) ([]types.Notification, error) {
	if f.notifsGate != nil {
		<-f.notifsGate
	}
	return append([]types.Notification(nil), f.notifs...), f.notifsErr
}

func (f *fakeCollab) Settings(ctx context.Context) (types.Settings, error) {
	if f.settingsGate != nil {
		<-f.settingsGate
	}
	return f.settings, f.settingsErr
}

func (f *fakeCollab) Logs(ctx context.Context) (json.RawMessage, error) {
	return f.logs, nil
}

type captureRenderer struct {
	mu    sync.Mutex
	views []projection.View
}

func (c *captureRenderer) Render(v projection.View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views = append(c.views, v)
}

func (c *captureRenderer) last() projection.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.views) == 0 {
		return projection.View{}
	}
	return c.views[len(c.views)-1]
}

type harness struct {
	dash     *Dashboard
	tr       *fakeTransport
	collab   *fakeCollab
	renderer *captureRenderer
	cancel   context.CancelFunc
	errCh    chan error
	applied  atomic.Int32
}

func start(t *testing.T, collab *fakeCollab) *harness {
	t.Helper()
	cfg := config.DefaultDashboardConfig()
	h := &harness{
		tr:       newFakeTransport(),
		collab:   collab,
		renderer: &captureRenderer{},
		errCh:    make(chan error, 1),
	}
	h.dash = New(cfg, h.tr, collab, h.renderer, nil)
	h.dash.loc = time.UTC
	h.dash.afterResult = func() { h.applied.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.errCh <- h.dash.Run(ctx) }()
	t.Cleanup(h.stop)

	// Events pushed before the startup fetches land would be replaced by the
	// history load, so wait for both unless a test holds one back.
	if collab.settingsGate == nil && collab.notifsGate == nil {
		require.Eventually(t, func() bool { return h.applied.Load() >= 2 }, waitFor, tick)
	}
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.dash.done
}

func TestRun_InitialFetch(t *testing.T) {
	h := start(t, &fakeCollab{
		notifs: []types.Notification{
			{Timestamp: 1, Text: "first"},
			{Timestamp: 2, Text: "second"},
			{Timestamp: 3, Text: "third"},
		},
		settings: types.Settings{UnitPrice: 10},
	})

	require.Eventually(t, func() bool {
		v := h.renderer.last()
		return len(v.Notifications) == 3 && v.PriceSource == "settings"
	}, waitFor, tick)

	v := h.renderer.last()
	assert.True(t, strings.HasSuffix(v.Notifications[0], " - third"))
	assert.True(t, strings.HasSuffix(v.Notifications[2], " - first"))
	assert.Equal(t, "01/01/1970, 00:00:03 - third", v.Notifications[0])
	assert.Equal(t, "10", v.UnitPrice)
	assert.False(t, v.Connected)
}

func TestRun_ZeroStoredPriceUsesDefault(t *testing.T) {
	h := start(t, &fakeCollab{settings: types.Settings{UnitPrice: 0}})

	require.Eventually(t, func() bool {
		return h.renderer.last().PriceSource == "settings"
	}, waitFor, tick)
	assert.Equal(t, "8", h.renderer.last().UnitPrice)
}

func TestRun_FetchFailureKeepsDefaults(t *testing.T) {
	h := start(t, &fakeCollab{
		notifsErr:   errors.New("boom"),
		settingsErr: errors.New("boom"),
	})
	h.tr.connect()

	require.Eventually(t, func() bool { return h.renderer.last().Connected }, waitFor, tick)
	v := h.renderer.last()
	assert.Empty(t, v.Notifications)
	assert.Equal(t, "8", v.UnitPrice)
	assert.Equal(t, "default", v.PriceSource)
}

func TestRun_StateAndNotification(t *testing.T) {
	h := start(t, &fakeCollab{})
	h.tr.connect()
	h.tr.message(t, `{"type":"state","loads":[
		{"id":1,"voltage":230.1,"current":0.5,"power":115,"energy":7,"relay":true},
		{"id":2,"voltage":229.9,"current":0.1,"power":23,"energy":1,"relay":false}]}`)
	h.tr.message(t, `{"type":"notification","text":"Load 1 turned ON"}`)

	require.Eventually(t, func() bool {
		v := h.renderer.last()
		return v.Connected && len(v.Notifications) == 1
	}, waitFor, tick)

	v := h.renderer.last()
	require.Len(t, v.Tiles, 4)
	assert.Equal(t, "115.00 W", v.Tiles[0].Power)
	assert.Equal(t, "ON", v.Tiles[0].State)
	assert.Equal(t, "OFF", v.Tiles[1].State)
	assert.Equal(t, "138.00 W", v.Total.Power)
	assert.Equal(t, "8.00 Wh", v.Total.Energy)
	assert.True(t, strings.HasSuffix(v.Notifications[0], " - Load 1 turned ON"))
}

func TestRun_MalformedMessageIgnored(t *testing.T) {
	h := start(t, &fakeCollab{})
	h.tr.connect()
	h.tr.message(t, `{"type":"state","loads":[{"id":1,"power":50}]}`)
	h.tr.message(t, `{"type":"state","loads":[{"id":1,"power":99},{"id":7}]}`)
	h.tr.message(t, `garbage`)
	h.tr.message(t, `{"type":"notification","text":"marker"}`)

	require.Eventually(t, func() bool {
		return len(h.renderer.last().Notifications) == 1
	}, waitFor, tick)
	assert.Equal(t, "50.00 W", h.renderer.last().Tiles[0].Power)
}

func TestRun_HistoryLoadReplacesLivePushes(t *testing.T) {
	gate := make(chan struct{})
	h := start(t, &fakeCollab{
		notifs: []types.Notification{
			{Timestamp: 1, Text: "old one"},
			{Timestamp: 2, Text: "old two"},
		},
		notifsGate: gate,
	})
	h.tr.message(t, `{"type":"notification","text":"live"}`)
	require.Eventually(t, func() bool {
		return len(h.renderer.last().Notifications) == 1
	}, waitFor, tick)

	close(gate)

	require.Eventually(t, func() bool {
		return len(h.renderer.last().Notifications) == 2
	}, waitFor, tick)
	v := h.renderer.last()
	assert.True(t, strings.HasSuffix(v.Notifications[0], " - old two"))
	assert.True(t, strings.HasSuffix(v.Notifications[1], " - old one"))
}

func TestRun_LivePriceWinsOverStored(t *testing.T) {
	gate := make(chan struct{})
	h := start(t, &fakeCollab{settings: types.Settings{UnitPrice: 3}, settingsGate: gate})
	h.tr.connect()
	h.tr.message(t, `{"type":"state","loads":[],"unitPrice":9.5}`)

	require.Eventually(t, func() bool {
		return h.renderer.last().PriceSource == "device"
	}, waitFor, tick)
	close(gate)

	assert.Never(t, func() bool {
		return h.renderer.last().UnitPrice != "9.5"
	}, 200*time.Millisecond, tick)
}

func TestRun_Commands(t *testing.T) {
	h := start(t, &fakeCollab{})
	h.tr.connect()
	require.Eventually(t, func() bool { return h.renderer.last().Connected }, waitFor, tick)

	require.NoError(t, h.dash.Submit(ToggleRelay{Id: 2, On: true}))
	require.NoError(t, h.dash.Submit(PresetTimer{Minutes: "30"}))
	require.NoError(t, h.dash.Submit(SetTimer{Id: 1}))
	require.NoError(t, h.dash.Submit(SetTimer{Id: 3, Minutes: "-5"}))
	require.NoError(t, h.dash.Submit(SetLimits{Hours: []string{"2", "0"}}))
	require.NoError(t, h.dash.Submit(SetPrice{Price: "9.5"}))
	require.NoError(t, h.dash.Submit(ToggleRelay{Id: 9, On: true}))

	expected := []wire.Command{
		wire.RelayCommand{Id: 2, State: true},
		wire.SetTimerCommand{Id: 1, Minutes: 30},
		wire.SetTimerCommand{Id: 3, Minutes: 0},
		wire.SetLimitCommand{Id: 1, Seconds: 7200},
		wire.SetLimitCommand{Id: 2, Seconds: 1},
		wire.SetLimitCommand{Id: 3, Seconds: 43200},
		wire.SetLimitCommand{Id: 4, Seconds: 43200},
		wire.SetPriceCommand{Price: 9.5},
	}
	require.Eventually(t, func() bool {
		return len(h.tr.commands()) == len(expected)
	}, waitFor, tick)
	assert.Equal(t, expected, h.tr.commands())

	require.Eventually(t, func() bool {
		return h.renderer.last().PriceSource == "local"
	}, waitFor, tick)
	assert.Equal(t, "9.5", h.renderer.last().UnitPrice)
}

func TestRun_ClearWhileDisconnected(t *testing.T) {
	h := start(t, &fakeCollab{notifs: []types.Notification{{Timestamp: 1, Text: "old"}}})
	require.Eventually(t, func() bool {
		return len(h.renderer.last().Notifications) == 1
	}, waitFor, tick)

	require.NoError(t, h.dash.Submit(ClearNotifications{}))

	require.Eventually(t, func() bool {
		return len(h.renderer.last().Notifications) == 0
	}, waitFor, tick)
	assert.Empty(t, h.tr.commands())
}

func TestRun_Refresh(t *testing.T) {
	h := start(t, &fakeCollab{notifs: []types.Notification{{Timestamp: 1, Text: "old"}}})
	require.Eventually(t, func() bool {
		return len(h.renderer.last().Notifications) == 1
	}, waitFor, tick)

	h.tr.message(t, `{"type":"notification","text":"live"}`)
	require.Eventually(t, func() bool {
		return len(h.renderer.last().Notifications) == 2
	}, waitFor, tick)

	require.NoError(t, h.dash.Submit(RefreshNotifications{}))
	require.Eventually(t, func() bool {
		v := h.renderer.last()
		return len(v.Notifications) == 1 && strings.HasSuffix(v.Notifications[0], " - old")
	}, waitFor, tick)
}

func TestRun_ChannelStopped(t *testing.T) {
	h := start(t, &fakeCollab{})
	h.tr.connect()
	require.Eventually(t, func() bool { return h.renderer.last().Connected }, waitFor, tick)

	close(h.tr.events)
	require.Eventually(t, func() bool { return !h.renderer.last().Connected }, waitFor, tick)
}

func TestRun_ExportLogs(t *testing.T) {
	h := start(t, &fakeCollab{logs: json.RawMessage(`[{"hour":1,"energy":2.5}]`)})
	path := filepath.Join(t.TempDir(), "logs.xlsx")

	require.NoError(t, h.dash.Submit(ExportLogs{Path: path}))
	require.Eventually(t, func() bool {
		info, err := os.Stat(path)
		return err == nil && info.Size() > 0
	}, waitFor, tick)
}

func TestSubmit_AfterStop(t *testing.T) {
	h := start(t, &fakeCollab{})
	h.stop()

	assert.NoError(t, <-h.errCh)
	assert.ErrorIs(t, h.dash.Submit(ClearNotifications{}), ErrStopped)
	assert.True(t, h.tr.closed)
}
