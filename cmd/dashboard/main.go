// Dashboard connects to a power tracker, mirrors its readings and sends
// commands typed on the console.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/collab"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/config"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/console"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/dashboard"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/pathing"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/projection"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/transport"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cli, err := config.LoadCliConfig(pathing.GetDashboardConfigPath())
	if err != nil {
		logrus.Fatalf("Failed to read flags: %v", err)
	}
	cfg, err := config.LoadDashboardConfig(cli.Config)
	if err != nil {
		logrus.Fatalf("Failed to load dashboard config: %v", err)
	}
	cli.Apply(cfg)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level %q: %v", cfg.LogLevel, err)
	}
	logrus.SetLevel(level)

	opts := transport.DefaultOptions()
	opts.Reconnect = cfg.Reconnect
	opts.MaxRetries = cfg.MaxRetries
	opts.Log = logrus.WithField("component", "transport")
	endpoint := transport.Endpoint(cfg.DeviceHost, cfg.ControlPort, cfg.ControlPath)
	tr := transport.NewClient(endpoint, opts)

	httpClient := collab.NewClient(collab.BaseURL(cfg.DeviceHost, cfg.HTTPPort), cfg.FetchTimeout())
	screen := projection.NewScreen(os.Stdout, false)
	dash := dashboard.New(cfg, tr, httpClient, screen, logrus.NewEntry(logrus.StandardLogger()))

	logrus.Infof("Connecting to %s", endpoint)
	fmt.Print(console.Usage)

	go readConsole(ctx, stop, dash, screen)

	if err := dash.Run(ctx); err != nil {
		logrus.Fatalf("Dashboard stopped: %v", err)
	}
}

// readConsole feeds typed lines to the dashboard until quit or EOF.
func readConsole(ctx context.Context, stop context.CancelFunc, dash *dashboard.Dashboard, screen *projection.Screen) {
	defer stop()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		intent, err := console.Parse(scanner.Text())
		if errors.Is(err, console.ErrEmpty) {
			continue
		}
		if err != nil {
			fmt.Println(err)
			continue
		}

		switch intent.(type) {
		case console.Quit:
			return
		case console.Show:
			screen.Print()
			continue
		case console.Help:
			fmt.Print(console.Usage)
			continue
		}

		if err := dash.Submit(intent); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}
