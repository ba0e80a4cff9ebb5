// Package main runs one vending machine session on the terminal.
package main

import (
	"os"

	"github.com/fairyhunter13/vending-machine-simulator/internal/catalog"
	"github.com/fairyhunter13/vending-machine-simulator/internal/config"
	"github.com/fairyhunter13/vending-machine-simulator/internal/console"
	"github.com/fairyhunter13/vending-machine-simulator/internal/machine"
	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
)

func main() {
	cfg, err := config.LoadWithDotEnv()
	if err != nil {
		obs.Logger.Error("config_error", "error", err)
		os.Exit(1)
	}
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.Info("machine_starting", "name", cfg.MachineName, "catalog_file", cfg.CatalogFile)

	products, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		obs.Logger.Error("catalog_error", "error", err)
		os.Exit(1)
	}

	metrics := obs.NewMetrics()
	m, err := machine.New(machine.Config{
		Name:     cfg.MachineName,
		Products: products,
		Metrics:  metrics,
	}, console.NewDisplay(os.Stdout, cfg.Verbose), console.NewInput(os.Stdin, os.Stdout))
	if err != nil {
		obs.Logger.Error("machine_init_error", "error", err)
		os.Exit(1)
	}

	res := m.Run()
	obs.Logger.Info("machine_stopped",
		"terminal", res.Terminal.String(),
		"dispensed", res.Dispensed,
		"total_units", res.TotalUnits,
	)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			obs.Logger.Error("metrics_write_error", "path", cfg.MetricsFile, "error", err)
		}
	}
}
