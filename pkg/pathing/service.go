package pathing

import (
	"os"
	"path/filepath"
)

// EnsureDir creates dir if it does not exist yet.
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func GetSimulatorDbPath() string {
	return filepath.Join(GetDataDir(), "device-sim.db")
}

func GetDashboardConfigPath() string {
	return filepath.Join(GetConfigDir(), "dashboard.toml")
}

func GetDeviceSimConfigPath() string {
	return filepath.Join(GetConfigDir(), "device_sim.toml")
}

func GetDataDir() string {
	if dir := os.Getenv("POWER_TRACKER_DATA_DIR"); dir != "" {
		return dir
	}
	return "/var/lib/esp32_power_tracker"
}

func GetConfigDir() string {
	if dir := os.Getenv("POWER_TRACKER_CONFIG_DIR"); dir != "" {
		return dir
	}
	return "/etc/esp32_power_tracker"
}
