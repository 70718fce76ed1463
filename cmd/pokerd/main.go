package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/DecentPokerLabs/DecentPoker/internal/game"
	"github.com/DecentPokerLabs/DecentPoker/internal/ledger"
	"github.com/DecentPokerLabs/DecentPoker/internal/lobby"
	"github.com/DecentPokerLabs/DecentPoker/internal/rank"
	"github.com/DecentPokerLabs/DecentPoker/internal/server"
	"github.com/DecentPokerLabs/DecentPoker/internal/shuffle"
)

var CLI struct {
	Config   string `short:"c" default:"pokerd.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	Ledger   string `help:"Path to the sqlite ledger database (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}
	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
		cfg.Server.Port = 0
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Ledger != "" {
		cfg.Server.LedgerPath = CLI.Ledger
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	store, err := ledger.OpenSQLite(cfg.Server.LedgerPath)
	if err != nil {
		logger.Error("failed to open ledger", "error", err)
		kctx.Exit(1)
	}
	defer store.Close()

	clock := quartz.NewReal()
	beacon := shuffle.NewBeacon(clock, time.Duration(cfg.Server.EntropyIntervalSecs)*time.Second)
	engine := game.NewEngine(store, shuffle.NewDealer(beacon), rank.NewEvaluator(), clock, logger)
	engine.SetActionTimeout(time.Duration(cfg.Server.ActionTimeoutSecs) * time.Second)
	registry := lobby.NewRegistry(store, logger)

	for _, table := range cfg.Tables {
		gameID, err := engine.CreateGame(table.MaxPlayers, table.BigBlind, shuffle.Commitment{})
		if err != nil {
			logger.Error("failed to open table", "table", table.Name, "error", err)
			kctx.Exit(1)
		}
		logger.Info("table open", "table", table.Name, "game", gameID, "bigBlind", table.BigBlind)
	}

	addr := cfg.Server.Address
	if cfg.Server.Port != 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	}
	srv := server.New(addr, engine, registry, clock,
		time.Duration(cfg.Server.SweepIntervalSecs)*time.Second, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server exited", "error", err)
		kctx.Exit(1)
	}
}
