package reducer

import (
	"fmt"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/notiflog"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/snapshot"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/wire"
	"github.com/sirupsen/logrus"
)

// Reducer applies inbound device messages to the model and the log.
// Messages must be handed over one at a time, in arrival order.
type Reducer struct {
	model  *snapshot.Model
	notifs *notiflog.Log
	now    func() time.Time
	log    *logrus.Entry
}

func New(model *snapshot.Model, notifs *notiflog.Log, log *logrus.Entry) *Reducer {
	if log == nil {
		log = logrus.WithField("component", "reducer")
	}
	return &Reducer{
		model:  model,
		notifs: notifs,
		now:    time.Now,
		log:    log,
	}
}

// Handle decodes and applies one raw message. A message that fails to decode
// is logged and dropped; the model is left exactly as it was.
func (r *Reducer) Handle(raw []byte) (wire.Inbound, error) {
	msg, err := wire.DecodeInbound(raw, r.model.Size())
	if err != nil {
		r.log.WithError(err).Warn("Discarding inbound message")
		return nil, err
	}
	if err := r.Apply(msg); err != nil {
		r.log.WithError(err).Warn("Discarding inbound message")
		return nil, err
	}
	return msg, nil
}

func (r *Reducer) Apply(msg wire.Inbound) error {
	switch m := msg.(type) {
	case *wire.StateMessage:
		if err := r.model.Apply(m.Loads); err != nil {
			return err
		}
		// Device state wins over any local edit.
		if m.HasUnitPrice {
			r.model.SetLivePrice(m.UnitPrice)
		}
	case *wire.NotificationMessage:
		// Live pushes carry no timestamp; stamp with the local clock.
		r.notifs.Prepend(types.Notification{Timestamp: r.now().Unix(), Text: m.Text})
	default:
		return fmt.Errorf("%w: %T", wire.ErrUnknownType, msg)
	}
	return nil
}
