package dispatcher

import (
	"errors"
	"fmt"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/notiflog"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/units"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/wire"
	"github.com/sirupsen/logrus"
)

var ErrUnknownChannel = errors.New("unknown channel")

// Sender is the outbound half of the device channel.
type Sender interface {
	Send(wire.Command) error
}

// Dispatcher turns user intents into commands. Input is defaulted, never
// rejected, and send failures are logged and dropped.
type Dispatcher struct {
	sender            Sender
	channels          int
	defaultLimitHours float64
	defaultPrice      float64
	log               *logrus.Entry
}

func New(sender Sender, channels int, defaultLimitHours, defaultPrice float64, log *logrus.Entry) *Dispatcher {
	if log == nil {
		log = logrus.WithField("component", "dispatcher")
	}
	return &Dispatcher{
		sender:            sender,
		channels:          channels,
		defaultLimitHours: defaultLimitHours,
		defaultPrice:      defaultPrice,
		log:               log,
	}
}

// ToggleRelay sends the new relay state right away. The model is not touched;
// the next snapshot confirms it.
func (d *Dispatcher) ToggleRelay(id int, on bool) error {
	if err := d.checkChannel(id); err != nil {
		return err
	}
	d.send(wire.RelayCommand{Id: id, State: on})
	return nil
}

// SetTimer arms the shutoff timer of one channel. Returns the minutes sent.
func (d *Dispatcher) SetTimer(id int, rawMinutes string) (int, error) {
	if err := d.checkChannel(id); err != nil {
		return 0, err
	}
	minutes := ParseMinutes(rawMinutes)
	d.send(wire.SetTimerCommand{Id: id, Minutes: minutes})
	return minutes, nil
}

// SetLimits sends one setLimit per channel, in channel order. Missing entries
// use the default hours. Delivery is per message, not atomic.
func (d *Dispatcher) SetLimits(rawHours []string) []int {
	if len(rawHours) > d.channels {
		d.log.Warnf("Ignoring %d extra limit values", len(rawHours)-d.channels)
	}
	seconds := make([]int, d.channels)
	for i := range seconds {
		raw := ""
		if i < len(rawHours) {
			raw = rawHours[i]
		}
		seconds[i] = units.HoursToSeconds(ParseLimitHours(raw, d.defaultLimitHours))
		d.send(wire.SetLimitCommand{Id: i + 1, Seconds: seconds[i]})
	}
	return seconds
}

// SetPrice sends the unit price and returns the value sent.
func (d *Dispatcher) SetPrice(raw string) float64 {
	price := ParsePrice(raw, d.defaultPrice)
	d.send(wire.SetPriceCommand{Price: price})
	return price
}

// ClearNotifications asks the device to clear its history and empties the
// local view without waiting for any confirmation.
func (d *Dispatcher) ClearNotifications(log *notiflog.Log) {
	d.send(wire.ClearNotificationsCommand{})
	log.Clear()
}

func (d *Dispatcher) checkChannel(id int) error {
	if id < 1 || id > d.channels {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, id)
	}
	return nil
}

func (d *Dispatcher) send(cmd wire.Command) {
	if err := d.sender.Send(cmd); err != nil {
		d.log.WithError(err).WithField("cmd", cmd.Name()).Warn("Command dropped")
		return
	}
	d.log.WithField("cmd", cmd.Name()).Debug("Command sent")
}

// ParseMinutes reads a timer field: leading integer, 0 when empty,
// unparseable or negative.
func ParseMinutes(raw string) int {
	v, ok := units.ParseLeadingInt(raw)
	if !ok || v < 0 {
		return 0
	}
	return v
}

// ParseLimitHours reads a limit field, falling back to def when empty or
// unparseable.
func ParseLimitHours(raw string, def float64) float64 {
	v, ok := units.ParseLeadingFloat(raw)
	if !ok {
		return def
	}
	return v
}

// ParsePrice reads the price field, falling back to def when empty or
// unparseable.
func ParsePrice(raw string, def float64) float64 {
	v, ok := units.ParseLeadingFloat(raw)
	if !ok {
		return def
	}
	return v
}
