package main

import (
	"github.com/OFFIS-RIT/niemgraph/internal/config"
	"github.com/OFFIS-RIT/niemgraph/internal/server"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger"
	"github.com/OFFIS-RIT/niemgraph/pkg/logger/console"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{}))
		logger.Fatal("Invalid configuration", "err", err)
	}

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: cfg.Debug,
	})
	logger.Init(consoleLogger)

	server.Init(cfg)
}
