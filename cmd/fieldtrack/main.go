package main

import (
	"context"
	"flag"
	"os"

	"github.com/Temutjin2k/fieldtrack/config"
	_ "github.com/Temutjin2k/fieldtrack/docs"
	"github.com/Temutjin2k/fieldtrack/internal/app"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
)

var (
	helpFlag   = flag.Bool("help", false, "Show help message")
	configPath = flag.String("config-path", "config.yaml", "Path to the config yaml file")
)

func main() {
	flag.Parse()
	if *helpFlag {
		config.PrintHelp()
		return
	}

	ctx := context.Background()
	log := logger.InitLogger("", logger.LevelDebug)

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		log.Error(ctx, "failed to configure application", err)
		config.PrintHelp()
		os.Exit(2)
	}

	// Printing configuration
	config.PrintConfig(cfg)

	log = logger.InitLogger(string(cfg.Mode), cfg.Log.Level)

	// Creating application
	application, err := app.NewApplication(ctx, *cfg, log)
	if err != nil {
		log.Error(ctx, "failed to init application", err)
		os.Exit(1)
	}

	// Running the application
	if err = application.Run(ctx); err != nil {
		log.Error(ctx, "failed to run application", err)
		os.Exit(1)
	}
}
