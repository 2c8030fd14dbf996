package config

import (
	"github.com/koding/multiconfig"
)

// CliConfig is filled from flags and environment, then points at the TOML file.
type CliConfig struct {
	Config   string
	Host     string
	LogLevel string
}

func LoadCliConfig(defaultPath string) (*CliConfig, error) {
	cli := &CliConfig{}
	loader := multiconfig.MultiLoader(
		&multiconfig.EnvironmentLoader{Prefix: "POWER_TRACKER"},
		&multiconfig.FlagLoader{},
	)
	if err := loader.Load(cli); err != nil {
		return nil, err
	}
	if cli.Config == "" {
		cli.Config = defaultPath
	}
	return cli, nil
}

// Apply copies non-empty overrides onto the dashboard config.
func (c *CliConfig) Apply(cfg *DashboardConfig) {
	if c.Host != "" {
		cfg.DeviceHost = c.Host
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
}
