package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"propsim/internal/cache"
	"propsim/internal/common/config"
	"propsim/internal/common/database"
	"propsim/internal/common/logger"
	"propsim/internal/service"
	"propsim/internal/sim"
	"propsim/internal/storage"
)

// app bundles the wired dependencies behind every subcommand.
type app struct {
	cfg    *config.Config
	log    logger.Logger
	zapLog *zap.Logger
	repo   storage.Repository
	svc    *service.Service
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if rootFlags.configPath != "" {
		cfg, err = config.LoadFromFile(rootFlags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if rootFlags.dbPath != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.SQLite.Path = rootFlags.dbPath
	}
	if rootFlags.logLevel != "" {
		cfg.Logging.Level = rootFlags.logLevel
	}
	return cfg, nil
}

// bootstrap loads config and wires logging, storage, the cache, and the
// service behind it.
func bootstrap() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)

	repo, err := openRepository(cfg)
	if err != nil {
		return nil, err
	}
	svc := service.New(repo, openCache(cfg, log), cfg.Runs.Dir,
		config.GetDuration(cfg.Cache.TTL), log)

	return &app{cfg: cfg, log: log, zapLog: zapLog, repo: repo, svc: svc}, nil
}

func (a *app) Close() {
	_ = a.repo.Close()
	_ = a.zapLog.Sync()
}

func openRepository(cfg *config.Config) (storage.Repository, error) {
	switch cfg.Database.Driver {
	case "postgres":
		client, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return storage.NewPostgres(client.GetDB())
	default:
		client, err := database.NewSQLite(cfg.Database.SQLite)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return storage.NewSQLite(client.GetDB())
	}
}

// openCache picks the configured backend. A dead Redis downgrades to the
// in-process cache so one-shot commands still work offline.
func openCache(cfg *config.Config, log logger.Logger) cache.Repository {
	if cfg.Cache.Backend == "redis" {
		client, err := database.NewRedis(cfg.Cache.Redis)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err = client.Ping(ctx)
			cancel()
		}
		if err != nil {
			log.Warn("redis unavailable, using in-process cache", map[string]interface{}{
				"error": err.Error(),
			})
			return cache.NewMemory()
		}
		return cache.NewRedis(client.GetClient())
	}
	return cache.NewMemory()
}

// printSummary writes the KPI block shown after a simulation.
func printSummary(w io.Writer, sum sim.Summary) {
	payback := "Not reached"
	if sum.PaybackMonthOnUpfront != nil {
		payback = strconv.Itoa(*sum.PaybackMonthOnUpfront)
	}
	fmt.Fprintf(w, "Monthly mortgage:    $%.2f\n", sum.MonthlyMortgage)
	fmt.Fprintf(w, "Initial CoC:         %.1f%%\n", sum.InitialCashOnCashPercent)
	fmt.Fprintf(w, "Ending monthly CF:   $%.2f\n", sum.EndingMonthlyCashFlow)
	fmt.Fprintf(w, "Cumulative CF:       $%.2f\n", sum.CumulativeCashFlow)
	fmt.Fprintf(w, "Terminal equity:     $%.2f\n", sum.TerminalEquity)
	fmt.Fprintf(w, "Total invested:      $%.2f\n", sum.TotalInvestedEst)
	fmt.Fprintf(w, "Total return:        $%.2f\n", sum.TotalReturnEst)
	fmt.Fprintf(w, "Payback month:       %s\n", payback)
}

// parseID parses a positive integer id argument.
func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", what, raw)
	}
	return id, nil
}

// fmtIntPtr renders an optional listing fact for table output.
func fmtIntPtr(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
