package config

import "time"

type DashboardConfig struct {
	// Host serving the page and the control channel, usually the device itself.
	DeviceHost  string `toml:"device_host"`
	ControlPort int    `toml:"control_port"`
	ControlPath string `toml:"control_path"`
	HTTPPort    int    `toml:"http_port"`

	Channels          int     `toml:"channels"`
	DefaultUnitPrice  float64 `toml:"default_unit_price"`
	DefaultLimitHours float64 `toml:"default_limit_hours"`

	// Off by default: a dropped channel stops live updates until restart.
	Reconnect  bool `toml:"reconnect"`
	MaxRetries int  `toml:"max_retries"`

	// Ping the device before dialing. Informational only.
	ProbeBeforeConnect bool `toml:"probe_before_connect"`

	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	LogLevel            string `toml:"log_level"`
}

func (c *DashboardConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

type DeviceSimConfig struct {
	ListenAddress string  `toml:"listen_address"`
	ControlPort   int     `toml:"control_port"`
	HTTPPort      int     `toml:"http_port"`
	Channels      int     `toml:"channels"`
	DatabasePath  string  `toml:"database_path"`
	UnitPrice     float64 `toml:"unit_price"`

	BroadcastIntervalMs   int    `toml:"broadcast_interval_ms"`
	SampleIntervalSeconds int    `toml:"sample_interval_seconds"`
	LogLevel              string `toml:"log_level"`
}

func (c *DeviceSimConfig) BroadcastInterval() time.Duration {
	return time.Duration(c.BroadcastIntervalMs) * time.Millisecond
}

func (c *DeviceSimConfig) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalSeconds) * time.Second
}
