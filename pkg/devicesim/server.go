package devicesim

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/aggregator"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// How much history /logs.json covers.
const logsWindow = 24 * time.Hour

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // The page is served by the device itself
	},
}

// ServeControl is the command channel endpoint.
func (d *Device) ServeControl(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.log.WithError(err).Warn("WebSocket upgrade error")
		return
	}

	id := uuid.NewString()
	c := &client{conn: conn}
	d.addClient(id, c)
	log := d.log.WithField("client", id)
	log.Info("Dashboard connected")

	// Send current state immediately
	if data, err := d.stateMessage(); err == nil {
		c.write(data)
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Info("Dashboard disconnected")
			d.removeClient(id)
			return
		}
		if err := d.HandleCommand(msg); err != nil {
			log.WithError(err).Warnf("Rejected command %s", string(msg))
		}
	}
}

// HTTPHandler serves the JSON documents next to the page.
func (d *Device) HTTPHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/notifs.json", func(w http.ResponseWriter, r *http.Request) {
		notifs, err := d.store.ListNotifications()
		if err != nil {
			writeError(w, err)
			return
		}
		if notifs == nil {
			notifs = []types.Notification{}
		}
		writeJSON(w, map[string]interface{}{"notifs": notifs})
	})

	mux.HandleFunc("/settings.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]float64{"unitPrice": d.UnitPrice()})
	})

	mux.HandleFunc("/logs.json", func(w http.ResponseWriter, r *http.Request) {
		now := d.now()
		samples, err := d.store.ListSamples(now.Add(-logsWindow).Unix())
		if err != nil {
			writeError(w, err)
			return
		}
		price := d.UnitPrice()
		hourly := aggregator.Hourly(samples, price)
		if hourly == nil {
			hourly = []aggregator.HourlyUsage{}
		}
		writeJSON(w, logsDocument{
			GeneratedAt: now.Unix(),
			UnitPrice:   price,
			Hourly:      hourly,
		})
	})

	return mux
}

// BroadcastState pushes the current snapshot to every dashboard.
func (d *Device) BroadcastState() {
	data, err := d.stateMessage()
	if err != nil {
		d.log.WithError(err).Warn("Error marshaling state")
		return
	}
	d.Broadcast(data)
}

func (d *Device) Broadcast(data []byte) {
	d.clientsMu.RLock()
	clients := make(map[string]*client, len(d.clients))
	for id, c := range d.clients {
		clients[id] = c
	}
	d.clientsMu.RUnlock()

	for id, c := range clients {
		if err := c.write(data); err != nil {
			d.removeClient(id)
		}
	}
}

func (d *Device) ClientCount() int {
	d.clientsMu.RLock()
	defer d.clientsMu.RUnlock()
	return len(d.clients)
}

func (d *Device) addClient(id string, c *client) {
	d.clientsMu.Lock()
	d.clients[id] = c
	d.clientsMu.Unlock()
}

func (d *Device) removeClient(id string) {
	d.clientsMu.Lock()
	c, ok := d.clients[id]
	delete(d.clients, id)
	d.clientsMu.Unlock()
	if ok {
		c.conn.Close()
	}
}

func (d *Device) closeClients() {
	d.clientsMu.Lock()
	clients := d.clients
	d.clients = make(map[string]*client)
	d.clientsMu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
		c.mu.Unlock()
		c.conn.Close()
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	})
}
