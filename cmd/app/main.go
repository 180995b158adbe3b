package main

import (
	"context"
	"flag"
	"os"

	"MarketSim/internal/di"
	"MarketSim/pkg/config"
	applogger "MarketSim/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	boot, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stderr"})

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		boot.Error("config load failed", applogger.Error(err))
		os.Exit(1)
	}
	boot.Info("config loaded",
		applogger.String("env", cfg.Environment),
		applogger.String("sink", cfg.Sink.Backend),
		applogger.String("portfolio", cfg.Portfolio.Backend),
	)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		boot.Error("app initialization failed", applogger.Error(err))
		os.Exit(1)
	}

	// Run application (blocks until signal)
	if err := app.Run(context.Background()); err != nil {
		boot.Error("app error", applogger.Error(err))
		os.Exit(1)
	}
}
