package projection

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/notiflog"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/snapshot"
)

type Tile struct {
	Title   string
	Voltage string
	Current string
	Power   string
	Energy  string
	// Empty on the totals tile.
	State string
	Relay bool
}

type View struct {
	Connected     bool
	Tiles         []Tile
	Total         Tile
	UnitPrice     string
	PriceSource   string
	Notifications []string
}

// Build projects the model and the log. It has no side effects.
func Build(m *snapshot.Model, log *notiflog.Log, connected bool, loc *time.Location) View {
	v := View{
		Connected:   connected,
		UnitPrice:   Price(m.UnitPrice()),
		PriceSource: m.PriceSource().String(),
	}
	for _, c := range m.Channels() {
		v.Tiles = append(v.Tiles, Tile{
			Title:   fmt.Sprintf("Load %d", c.Id),
			Voltage: Voltage(c.Voltage),
			Current: Current(c.Current),
			Power:   Power(c.Power),
			Energy:  Energy(c.Energy),
			State:   RelayText(c.Relay),
			Relay:   c.Relay,
		})
	}
	t := m.Totals()
	v.Total = Tile{
		Title:   "Total Power Usage",
		Voltage: Voltage(t.Voltage),
		Current: Current(t.Current),
		Power:   Power(t.Power),
		Energy:  Energy(t.Energy),
	}
	for _, n := range log.Entries() {
		v.Notifications = append(v.Notifications, NotificationLine(n, loc))
	}
	return v
}

// Renderer receives every new view.
type Renderer interface {
	Render(View)
}

// Screen keeps the latest view and writes it out on demand, or on every
// render when live is set.
type Screen struct {
	w    io.Writer
	live bool

	mu     sync.Mutex
	latest View
}

func NewScreen(w io.Writer, live bool) *Screen {
	return &Screen{w: w, live: live}
}

func (s *Screen) Render(v View) {
	s.mu.Lock()
	s.latest = v
	s.mu.Unlock()
	if s.live {
		s.Print()
	}
}

func (s *Screen) Latest() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *Screen) Print() {
	v := s.Latest()
	fmt.Fprint(s.w, Text(v))
}

// Text lays out a view as plain terminal text.
func Text(v View) string {
	var b strings.Builder
	status := "disconnected"
	if v.Connected {
		status = "connected"
	}
	fmt.Fprintf(&b, "== ESP32 Power Tracker (%s) ==\n", status)
	for _, t := range append(append([]Tile{}, v.Tiles...), v.Total) {
		fmt.Fprintf(&b, "%-18s %12s %12s %12s %14s", t.Title, t.Voltage, t.Current, t.Power, t.Energy)
		if t.State != "" {
			fmt.Fprintf(&b, "  %s", t.State)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Unit price: %s (%s)\n", v.UnitPrice, v.PriceSource)
	b.WriteString("Notifications:\n")
	if len(v.Notifications) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, line := range v.Notifications {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	return b.String()
}
