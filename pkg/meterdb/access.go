package meterdb

import (
	"database/sql"
	"errors"
	"strconv"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
)

func (d *DB) InsertNotification(n types.Notification) error {
	_, err := d.db.Exec(
		"INSERT INTO notifications (timestamp, text) VALUES (?, ?)",
		n.Timestamp,
		n.Text,
	)
	return err
}

// ListNotifications returns the history oldest first.
func (d *DB) ListNotifications() ([]types.Notification, error) {
	rows, err := d.db.Query("SELECT timestamp, text FROM notifications ORDER BY timestamp, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []types.Notification{}
	for rows.Next() {
		var n types.Notification
		if err := rows.Scan(&n.Timestamp, &n.Text); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (d *DB) ClearNotifications() error {
	_, err := d.db.Exec("DELETE FROM notifications")
	return err
}

func (d *DB) InsertSample(s Sample) error {
	_, err := d.db.Exec(
		"INSERT OR REPLACE INTO channel_samples (timestamp, channel_id, watt, energy_wh, relay) "+
			"VALUES (?, ?, ?, ?, ?)",
		s.Timestamp,
		s.ChannelId,
		s.Watt,
		s.EnergyWh,
		s.Relay,
	)
	return err
}

// ListSamples returns samples at or after since, oldest first.
func (d *DB) ListSamples(since int64) ([]Sample, error) {
	rows, err := d.db.Query(
		"SELECT timestamp, channel_id, watt, energy_wh, relay FROM channel_samples "+
			"WHERE timestamp >= ? ORDER BY timestamp, channel_id",
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Sample{}
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.Timestamp, &s.ChannelId, &s.Watt, &s.EnergyWh, &s.Relay); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetUnitPrice reports false when no price was ever stored.
func (d *DB) GetUnitPrice() (float64, bool, error) {
	var raw string
	err := d.db.QueryRow("SELECT value FROM settings WHERE key = ?", settingUnitPrice).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return price, true, nil
}

func (d *DB) SetUnitPrice(price float64) error {
	_, err := d.db.Exec(
		"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)",
		settingUnitPrice,
		strconv.FormatFloat(price, 'f', -1, 64),
	)
	return err
}
