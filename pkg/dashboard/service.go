package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/config"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/dispatcher"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/export"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/notiflog"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/probe"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/projection"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/reducer"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/snapshot"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/transport"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrStopped = errors.New("dashboard stopped")

// Dashboard owns the model and the notification log. Everything that touches
// them runs on the Run goroutine: transport events, intents and the results
// of collaborator fetches.
type Dashboard struct {
	cfg       *config.DashboardConfig
	transport Transport
	collab    Collaborator
	renderer  projection.Renderer
	log       *logrus.Entry
	loc       *time.Location
	ping      func(host string, timeout time.Duration) (bool, time.Duration, error)

	model    *snapshot.Model
	notifs   *notiflog.Log
	reducer  *reducer.Reducer
	dispatch *dispatcher.Dispatcher

	connected   bool
	timerPreset string

	intents chan Intent
	results chan func()
	done    chan struct{}

	// Called on the Run goroutine after each fetch result is applied.
	afterResult func()
}

func New(cfg *config.DashboardConfig, tr Transport, collab Collaborator, renderer projection.Renderer, log *logrus.Entry) *Dashboard {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("session", uuid.NewString())

	model := snapshot.New(cfg.Channels, cfg.DefaultUnitPrice)
	notifs := notiflog.New()
	return &Dashboard{
		cfg:       cfg,
		transport: tr,
		collab:    collab,
		renderer:  renderer,
		log:       log.WithField("component", "dashboard"),
		loc:       time.Local,
		ping:      probe.Ping,
		model:     model,
		notifs:    notifs,
		reducer:   reducer.New(model, notifs, log.WithField("component", "reducer")),
		dispatch:  dispatcher.New(tr, cfg.Channels, cfg.DefaultLimitHours, cfg.DefaultUnitPrice, log.WithField("component", "dispatcher")),
		intents:   make(chan Intent, 16),
		results:   make(chan func(), 16),
		done:      make(chan struct{}),
	}
}

// Submit queues an intent for the Run loop.
func (d *Dashboard) Submit(in Intent) error {
	select {
	case <-d.done:
		return ErrStopped
	default:
	}
	select {
	case d.intents <- in:
		return nil
	case <-d.done:
		return ErrStopped
	}
}

// Run opens the channel, loads history and settings, and serves events and
// intents until ctx ends.
func (d *Dashboard) Run(ctx context.Context) error {
	defer close(d.done)

	if d.cfg.ProbeBeforeConnect {
		d.probeDevice()
	}

	d.render()
	d.transport.Open(ctx)
	d.fetchNotifications(ctx)
	d.fetchSettings(ctx)

	events := d.transport.Events()
	for {
		select {
		case <-ctx.Done():
			d.transport.Close()
			return nil
		case ev, ok := <-events:
			if !ok {
				// Without reconnect a dropped channel stays down.
				events = nil
				d.log.Warn("Device channel stopped, live updates ended")
				d.setConnected(false)
				continue
			}
			d.handleEvent(ev)
		case in := <-d.intents:
			d.handleIntent(ctx, in)
		case fn := <-d.results:
			fn()
			if d.afterResult != nil {
				d.afterResult()
			}
		}
	}
}

func (d *Dashboard) handleEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.EventOpen:
		d.log.Info("Device channel open")
		d.setConnected(true)
	case transport.EventClose:
		d.log.WithError(ev.Err).Info("Device channel closed")
		d.setConnected(false)
	case transport.EventError:
		d.log.WithError(ev.Err).Warn("Device channel error")
	case transport.EventMessage:
		if _, err := d.reducer.Handle(ev.Data); err != nil {
			return
		}
		d.render()
	}
}

func (d *Dashboard) handleIntent(ctx context.Context, in Intent) {
	log := d.log.WithField("intent", in.Name())

	switch i := in.(type) {
	case ToggleRelay:
		if err := d.dispatch.ToggleRelay(i.Id, i.On); err != nil {
			log.WithError(err).Warn("Ignoring relay toggle")
		}
	case SetTimer:
		raw := i.Minutes
		if raw == "" {
			raw = d.timerPreset
		}
		minutes, err := d.dispatch.SetTimer(i.Id, raw)
		if err != nil {
			log.WithError(err).Warn("Ignoring timer")
			return
		}
		log.Infof("Timer for load %d set to %d min", i.Id, minutes)
	case PresetTimer:
		d.timerPreset = i.Minutes
	case SetLimits:
		seconds := d.dispatch.SetLimits(i.Hours)
		log.Infof("Limits sent: %v seconds", seconds)
	case SetPrice:
		price := d.dispatch.SetPrice(i.Price)
		d.model.SetLocalPrice(price)
		d.render()
	case ClearNotifications:
		d.dispatch.ClearNotifications(d.notifs)
		d.render()
	case RefreshNotifications:
		d.fetchNotifications(ctx)
	case ExportLogs:
		d.exportLogs(ctx, i.Path)
	default:
		log.Warn("Unknown intent")
	}
}

// fetchNotifications replaces the log with the device history. On failure
// the current entries stay.
func (d *Dashboard) fetchNotifications(ctx context.Context) {
	go func() {
		fctx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout())
		defer cancel()
		notifs, err := d.collab.Notifications(fctx)
		d.post(ctx, func() {
			if err != nil {
				d.log.WithError(err).Warn("Failed to load notifications")
				return
			}
			d.notifs.Load(notifs)
			d.render()
		})
	}()
}

// fetchSettings loads the stored unit price. A live price from the device
// takes precedence and is never overwritten.
func (d *Dashboard) fetchSettings(ctx context.Context) {
	go func() {
		fctx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout())
		defer cancel()
		settings, err := d.collab.Settings(fctx)
		d.post(ctx, func() {
			if err != nil {
				d.log.WithError(err).Warn("Failed to load settings")
				return
			}
			price := settings.UnitPrice
			if price == 0 {
				price = d.cfg.DefaultUnitPrice
			}
			if !d.model.SetFetchedPrice(price) {
				d.log.Debug("Live unit price already known, ignoring stored one")
				return
			}
			d.render()
		})
	}()
}

// exportLogs captures the current state, then fetches the logs and writes
// the workbook off the loop.
func (d *Dashboard) exportLogs(ctx context.Context, path string) {
	report := export.Report{
		State:         d.model.State(),
		Notifications: d.notifs.Entries(),
		Location:      d.loc,
	}
	go func() {
		fctx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout())
		defer cancel()
		logs, err := d.collab.Logs(fctx)
		if err != nil {
			d.log.WithError(err).Warn("Failed to load logs")
			return
		}
		report.Logs = logs
		report.GeneratedAt = time.Now()
		if err := export.WriteFile(path, report); err != nil {
			d.log.WithError(err).Warnf("Failed to write %s", path)
			return
		}
		d.log.Infof("Exported logs to %s", path)
	}()
}

func (d *Dashboard) probeDevice() {
	ok, rtt, err := d.ping(d.cfg.DeviceHost, d.cfg.FetchTimeout())
	if !ok {
		d.log.WithError(err).Warnf("Device %s did not answer ping", d.cfg.DeviceHost)
		return
	}
	d.log.Infof("Device %s reachable (%s)", d.cfg.DeviceHost, rtt)
}

func (d *Dashboard) post(ctx context.Context, fn func()) {
	select {
	case d.results <- fn:
	case <-ctx.Done():
	case <-d.done:
	}
}

func (d *Dashboard) setConnected(connected bool) {
	d.connected = connected
	d.render()
}

func (d *Dashboard) render() {
	if d.renderer == nil {
		return
	}
	d.renderer.Render(projection.Build(d.model, d.notifs, d.connected, d.loc))
}
