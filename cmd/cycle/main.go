package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvtarkov/vampires-engine/internal/config"
	"github.com/dvtarkov/vampires-engine/internal/game"
	"github.com/dvtarkov/vampires-engine/internal/notify"
	"github.com/dvtarkov/vampires-engine/internal/repository"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting game cycle",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Rates must load before anything touches the database.
	rates, err := game.LoadCombatRates(cfg.Game.CombatRatesPath)
	if err != nil {
		logger.Fatal("failed to load combat rates", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	pool, err := repository.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	store := repository.NewStore(pool, logger)
	newsSink := repository.NewNewsSink(pool)
	notifier := notify.NewLogNotifier(logger)

	engine := game.NewEngine(store, notifier, newsSink, rates, engineOptions(cfg.Game), logger)
	if err := engine.RunCycle(ctx); err != nil {
		logger.Fatal("game cycle failed", zap.Error(err))
	}

	logger.Info("game cycle complete")
}

func engineOptions(cfg config.GameConfig) game.Options {
	opts := game.DefaultOptions()
	if cfg.ContestedPolicy == "multiple-claims" {
		opts.ContestedPolicy = game.PolicyMultipleClaims
	}
	if cfg.AttackOrder == "newest-first" {
		opts.AttacksOldestFirst = false
	}
	return opts
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
