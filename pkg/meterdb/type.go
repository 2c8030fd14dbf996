package meterdb

type Sample struct {
	Timestamp int64   `db:"timestamp"`
	ChannelId int     `db:"channel_id"`
	Watt      float64 `db:"watt"`
	EnergyWh  float64 `db:"energy_wh"`
	Relay     bool    `db:"relay"`
}

const settingUnitPrice = "unit_price"
