package export

import (
	"encoding/json"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/snapshot"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
)

const (
	Title = "ESP32 Power Tracker - Logs snapshot"

	LogsSheet          = "Logs"
	ReadingsSheet      = "Readings"
	NotificationsSheet = "Notifications"
)

// Report is everything one export writes.
type Report struct {
	// The historical log document as served, any shape.
	Logs json.RawMessage
	// Current model contents.
	State snapshot.State
	// Newest first.
	Notifications []types.Notification

	GeneratedAt time.Time
	Location    *time.Location
}
