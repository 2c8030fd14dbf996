// Device sim plays the power tracker firmware: it serves the control channel
// and the JSON documents a dashboard expects.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/config"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/devicesim"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/meterdb"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/pathing"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cli, err := config.LoadCliConfig(pathing.GetDeviceSimConfigPath())
	if err != nil {
		logrus.Fatalf("Failed to read flags: %v", err)
	}
	cfg, err := config.LoadDeviceSimConfig(cli.Config)
	if err != nil {
		logrus.Fatalf("Failed to load device sim config: %v", err)
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level %q: %v", cfg.LogLevel, err)
	}
	logrus.SetLevel(level)

	// Open database
	if err := pathing.EnsureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		logrus.Fatalf("Failed to create data directory: %v", err)
	}
	db, err := meterdb.Open(cfg.DatabasePath)
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	device, err := devicesim.New(cfg, db, logrus.WithField("component", "devicesim"))
	if err != nil {
		logrus.Fatalf("Failed to start device: %v", err)
	}

	controlMux := http.NewServeMux()
	controlMux.HandleFunc("/", device.ServeControl)
	servers := []*http.Server{
		{Addr: fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ControlPort), Handler: controlMux},
		{Addr: fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.HTTPPort), Handler: device.HTTPHandler()},
	}
	for _, srv := range servers {
		go func(srv *http.Server) {
			logrus.Infof("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("Server on %s failed: %v", srv.Addr, err)
				stop()
			}
		}(srv)
	}

	device.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		srv.Shutdown(shutdownCtx)
	}
	logrus.Info("Device sim stopped")
}
