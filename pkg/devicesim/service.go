package devicesim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/config"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/meterdb"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/units"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/wire"
	"github.com/sirupsen/logrus"
)

// Device plays the firmware side: it owns the relays, timers and limits,
// streams snapshots and reacts to commands.
type Device struct {
	cfg   *config.DeviceSimConfig
	store Store
	log   *logrus.Entry
	now   func() time.Time

	mu        sync.Mutex
	channels  []*channel
	unitPrice float64
	rnd       *rand.Rand

	clientsMu sync.RWMutex
	clients   map[string]*client
}

func New(cfg *config.DeviceSimConfig, store Store, log *logrus.Entry) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.WithField("component", "devicesim")
	}
	d := &Device{
		cfg:       cfg,
		store:     store,
		log:       log,
		now:       time.Now,
		unitPrice: cfg.UnitPrice,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		clients:   make(map[string]*client),
	}

	price, ok, err := store.GetUnitPrice()
	if err != nil {
		return nil, fmt.Errorf("error loading unit price: %w", err)
	}
	if ok {
		d.unitPrice = price
	}

	for i := 0; i < cfg.Channels; i++ {
		ch := &channel{
			reading: types.ChannelReading{Id: i + 1},
			nominal: nominalWatts[i%len(nominalWatts)],
		}
		d.step(ch, 0)
		d.channels = append(d.channels, ch)
	}
	return d, nil
}

// Run advances the simulation and broadcasts until ctx ends.
func (d *Device) Run(ctx context.Context) {
	broadcast := time.NewTicker(d.cfg.BroadcastInterval())
	defer broadcast.Stop()
	sample := time.NewTicker(d.cfg.SampleInterval())
	defer sample.Stop()

	last := d.now()
	for {
		select {
		case <-ctx.Done():
			d.closeClients()
			return
		case <-broadcast.C:
			now := d.now()
			d.Tick(now.Sub(last))
			last = now
			d.BroadcastState()
		case <-sample.C:
			if err := d.Sample(); err != nil {
				d.log.WithError(err).Warn("Failed to store samples")
			}
		}
	}
}

// Tick moves every channel forward by dt and fires due timers and limits.
func (d *Device) Tick(dt time.Duration) {
	var notes []string

	d.mu.Lock()
	now := d.now()
	for _, ch := range d.channels {
		id := ch.reading.Id
		wasOn := ch.reading.Relay
		d.step(ch, dt)

		if !ch.timerDeadline.IsZero() && !now.Before(ch.timerDeadline) {
			ch.timerDeadline = time.Time{}
			if ch.reading.Relay {
				d.setRelay(ch, false)
				notes = append(notes, fmt.Sprintf("Load %d timer expired, turned OFF", id))
			} else {
				notes = append(notes, fmt.Sprintf("Load %d timer expired", id))
			}
		}

		if wasOn && ch.limitSeconds > 0 {
			ch.onSeconds += dt.Seconds()
			if ch.onSeconds >= float64(ch.limitSeconds) {
				ch.onSeconds = 0
				if ch.reading.Relay {
					d.setRelay(ch, false)
					notes = append(notes, fmt.Sprintf("Load %d limit of %.2f h reached, turned OFF", id, units.SecondsToHours(ch.limitSeconds)))
				}
			}
		}
	}
	d.mu.Unlock()

	for _, text := range notes {
		d.notify(text)
	}
}

// HandleCommand applies one raw command from a dashboard.
func (d *Device) HandleCommand(raw []byte) error {
	cmd, err := wire.DecodeCommand(raw)
	if err != nil {
		return err
	}

	var notes []string
	d.mu.Lock()
	switch c := cmd.(type) {
	case wire.RelayCommand:
		ch, err := d.channel(c.Id)
		if err != nil {
			d.mu.Unlock()
			return err
		}
		if ch.reading.Relay != c.State {
			d.setRelay(ch, c.State)
			notes = append(notes, fmt.Sprintf("Load %d turned %s", c.Id, onOff(c.State)))
		}
	case wire.SetTimerCommand:
		ch, err := d.channel(c.Id)
		if err != nil {
			d.mu.Unlock()
			return err
		}
		if c.Minutes == 0 {
			ch.timerDeadline = time.Time{}
			notes = append(notes, fmt.Sprintf("Load %d timer cleared", c.Id))
		} else {
			ch.timerDeadline = d.now().Add(time.Duration(c.Minutes) * time.Minute)
			notes = append(notes, fmt.Sprintf("Load %d timer set for %d min", c.Id, c.Minutes))
		}
	case wire.SetLimitCommand:
		ch, err := d.channel(c.Id)
		if err != nil {
			d.mu.Unlock()
			return err
		}
		ch.limitSeconds = c.Seconds
		ch.onSeconds = 0
	case wire.SetPriceCommand:
		d.unitPrice = c.Price
		notes = append(notes, fmt.Sprintf("Unit price set to %g", c.Price))
	case wire.ClearNotificationsCommand:
	}
	d.mu.Unlock()

	switch c := cmd.(type) {
	case wire.SetPriceCommand:
		if err := d.store.SetUnitPrice(c.Price); err != nil {
			d.log.WithError(err).Warn("Failed to persist unit price")
		}
	case wire.ClearNotificationsCommand:
		if err := d.store.ClearNotifications(); err != nil {
			return fmt.Errorf("error clearing notifications: %w", err)
		}
	}

	for _, text := range notes {
		d.notify(text)
	}
	d.BroadcastState()
	return nil
}

// Sample stores the current reading of every channel.
func (d *Device) Sample() error {
	d.mu.Lock()
	ts := d.now().Unix()
	samples := make([]meterdb.Sample, 0, len(d.channels))
	for _, ch := range d.channels {
		samples = append(samples, meterdb.Sample{
			Timestamp: ts,
			ChannelId: ch.reading.Id,
			Watt:      ch.reading.Power,
			EnergyWh:  ch.reading.Energy,
			Relay:     ch.reading.Relay,
		})
	}
	d.mu.Unlock()

	for _, s := range samples {
		if err := d.store.InsertSample(s); err != nil {
			return err
		}
	}
	return nil
}

// Readings returns a copy of every channel reading.
func (d *Device) Readings() []types.ChannelReading {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]types.ChannelReading, len(d.channels))
	for i, ch := range d.channels {
		out[i] = ch.reading
	}
	return out
}

func (d *Device) UnitPrice() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unitPrice
}

func (d *Device) stateMessage() ([]byte, error) {
	loads := d.Readings()
	return wire.EncodeState(loads, d.UnitPrice())
}

func (d *Device) notify(text string) {
	n := types.Notification{Timestamp: d.now().Unix(), Text: text}
	if err := d.store.InsertNotification(n); err != nil {
		d.log.WithError(err).Warn("Failed to store notification")
	}
	data, err := wire.EncodeNotification(text)
	if err != nil {
		d.log.WithError(err).Warn("Failed to encode notification")
		return
	}
	d.log.Info(text)
	d.Broadcast(data)
}

// step refreshes the reading of ch and accumulates energy over dt.
// Callers hold d.mu.
func (d *Device) step(ch *channel, dt time.Duration) {
	r := &ch.reading
	r.Voltage = mainsVoltage + d.rnd.Float64()*4 - 2
	if !r.Relay {
		r.Current = 0
		r.Power = 0
		return
	}
	r.Power = ch.nominal * (0.95 + d.rnd.Float64()*0.1)
	r.Current = r.Power / r.Voltage
	r.Energy += r.Power * dt.Hours()
}

func (d *Device) setRelay(ch *channel, on bool) {
	ch.reading.Relay = on
	if !on {
		ch.onSeconds = 0
	}
	d.step(ch, 0)
}

func (d *Device) channel(id int) (*channel, error) {
	if id < 1 || id > len(d.channels) {
		return nil, fmt.Errorf("unknown channel %d", id)
	}
	return d.channels[id-1], nil
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
