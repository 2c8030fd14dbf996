package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/pathing"
)

var ErrInvalidConfig = errors.New("invalid config")

func DefaultDashboardConfig() *DashboardConfig {
	return &DashboardConfig{
		DeviceHost:          "192.168.4.1",
		ControlPort:         81,
		ControlPath:         "/",
		HTTPPort:            80,
		Channels:            4,
		DefaultUnitPrice:    8,
		DefaultLimitHours:   12,
		Reconnect:           false,
		MaxRetries:          10,
		ProbeBeforeConnect:  false,
		FetchTimeoutSeconds: 10,
		LogLevel:            "info",
	}
}

func DefaultDeviceSimConfig() *DeviceSimConfig {
	return &DeviceSimConfig{
		ListenAddress:         "0.0.0.0",
		ControlPort:           81,
		HTTPPort:              80,
		Channels:              4,
		DatabasePath:          pathing.GetSimulatorDbPath(),
		UnitPrice:             8,
		BroadcastIntervalMs:   1000,
		SampleIntervalSeconds: 60,
		LogLevel:              "info",
	}
}

// LoadDashboardConfig reads the dashboard config at path.
// A file with defaults is written if none exists.
func LoadDashboardConfig(path string) (*DashboardConfig, error) {
	cfg := DefaultDashboardConfig()
	if err := loadOrCreate(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func LoadDeviceSimConfig(path string) (*DeviceSimConfig, error) {
	cfg := DefaultDeviceSimConfig()
	if err := loadOrCreate(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the dashboard cannot run with.
func (c *DashboardConfig) Validate() error {
	var errs []error
	if c.Channels < 1 {
		errs = append(errs, fmt.Errorf("%w: channels must be at least 1, got %d", ErrInvalidConfig, c.Channels))
	}
	if c.FetchTimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("%w: fetch_timeout_seconds must be at least 1, got %d", ErrInvalidConfig, c.FetchTimeoutSeconds))
	}
	return errors.Join(errs...)
}

// Validate rejects values the simulator cannot run with.
func (c *DeviceSimConfig) Validate() error {
	var errs []error
	if c.Channels < 1 {
		errs = append(errs, fmt.Errorf("%w: channels must be at least 1, got %d", ErrInvalidConfig, c.Channels))
	}
	if c.BroadcastIntervalMs < 1 {
		errs = append(errs, fmt.Errorf("%w: broadcast_interval_ms must be at least 1, got %d", ErrInvalidConfig, c.BroadcastIntervalMs))
	}
	if c.SampleIntervalSeconds < 1 {
		errs = append(errs, fmt.Errorf("%w: sample_interval_seconds must be at least 1, got %d", ErrInvalidConfig, c.SampleIntervalSeconds))
	}
	return errors.Join(errs...)
}

// cfg holds the defaults on entry. Keys missing from an existing file keep them.
func loadOrCreate(path string, cfg any) error {
	// Create default if not exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := pathing.EnsureDir(filepath.Dir(path)); err != nil {
			return err
		}
		cfgFile, err := os.Create(path)
		if err != nil {
			return err
		}
		defer cfgFile.Close()
		return toml.NewEncoder(cfgFile).Encode(cfg)
	}

	// Load existing config
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("error decoding %s: %w", path, err)
	}
	return nil
}
