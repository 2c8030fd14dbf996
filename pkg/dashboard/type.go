package dashboard

import (
	"context"
	"encoding/json"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/transport"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/wire"
)

// Transport is the device channel. *transport.Client implements it.
type Transport interface {
	Open(ctx context.Context)
	Events() <-chan transport.Event
	Send(wire.Command) error
	Close() error
}

// Collaborator serves the JSON documents next to the device page.
// *collab.Client implements it.
type Collaborator interface {
	Notifications(ctx context.Context) ([]types.Notification, error)
	Settings(ctx context.Context) (types.Settings, error)
	Logs(ctx context.Context) (json.RawMessage, error)
}

// Intent is one user action.
type Intent interface {
	Name() string
}

type ToggleRelay struct {
	Id int
	On bool
}

// SetTimer arms the timer of one channel. An empty Minutes uses the preset.
type SetTimer struct {
	Id      int
	Minutes string
}

// PresetTimer fills the timer field without sending anything.
type PresetTimer struct {
	Minutes string
}

// SetLimits carries one raw hours value per channel, in channel order.
type SetLimits struct {
	Hours []string
}

type SetPrice struct {
	Price string
}

type ClearNotifications struct{}

type RefreshNotifications struct{}

type ExportLogs struct {
	Path string
}

func (ToggleRelay) Name() string          { return "relay" }
func (SetTimer) Name() string             { return "timer" }
func (PresetTimer) Name() string          { return "preset" }
func (SetLimits) Name() string            { return "limits" }
func (SetPrice) Name() string             { return "price" }
func (ClearNotifications) Name() string   { return "clear" }
func (RefreshNotifications) Name() string { return "refresh" }
func (ExportLogs) Name() string           { return "export" }
