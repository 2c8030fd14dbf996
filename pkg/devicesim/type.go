package devicesim

import (
	"sync"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/aggregator"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/meterdb"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
	"github.com/gorilla/websocket"
)

// Store is the persistent part of the device. *meterdb.DB implements it.
type Store interface {
	InsertNotification(types.Notification) error
	ListNotifications() ([]types.Notification, error)
	ClearNotifications() error
	InsertSample(meterdb.Sample) error
	ListSamples(since int64) ([]meterdb.Sample, error)
	GetUnitPrice() (float64, bool, error)
	SetUnitPrice(float64) error
}

// Nominal draw per channel while ON, cycled when there are more channels.
var nominalWatts = []float64{60, 100, 450, 1200}

const mainsVoltage = 230.0

type channel struct {
	reading types.ChannelReading
	nominal float64

	// Zero when disarmed.
	timerDeadline time.Time

	// ON time allowed before the channel is switched off. 0 means no limit.
	limitSeconds int
	onSeconds    float64
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type logsDocument struct {
	GeneratedAt int64                    `json:"generatedAt"`
	UnitPrice   float64                  `json:"unitPrice"`
	Hourly      []aggregator.HourlyUsage `json:"hourly"`
}
