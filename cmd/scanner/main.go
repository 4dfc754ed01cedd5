package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/memegate/config"
	"github.com/alejandrodnm/memegate/internal/adapters/dexscreener"
	"github.com/alejandrodnm/memegate/internal/adapters/notify"
	"github.com/alejandrodnm/memegate/internal/adapters/storage"
	"github.com/alejandrodnm/memegate/internal/adapters/swap"
	"github.com/alejandrodnm/memegate/internal/application/engine/live"
	"github.com/alejandrodnm/memegate/internal/application/engine/paper"
	"github.com/alejandrodnm/memegate/internal/application/scanner"
	"github.com/alejandrodnm/memegate/internal/ports"
	"github.com/alejandrodnm/memegate/internal/state"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full candidate table (default: compact 1-line)")
	report := flag.Bool("report", false, "print paper/live/model report from state + journal and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *table {
		cfg.Notify.Table = true
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repo := storage.NewFileStore(cfg.Storage.StatePath)
	doc, err := repo.Load(ctx)
	if err != nil {
		slog.Error("failed to load state", "err", err, "path", repo.Path())
		os.Exit(1)
	}
	st := state.NewStore(doc, cfg.StateConfig())

	journal, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer journal.Close()

	console := notify.NewConsole(cfg.Notify.Table, cfg.Notify.Top)

	if *report {
		runReport(ctx, st, journal, console)
		return
	}

	slog.Info("memegate starting",
		"config", *configPath,
		"chain", cfg.Scanner.Chain,
		"interval", cfg.ScanInterval(),
		"once", *once,
		"state", repo.Path(),
		"scans", st.Doc().ScanCount,
		"live_enabled", cfg.Live.Enabled,
		"live_mirror", cfg.Live.Mirror,
	)

	dex := dexscreener.NewClient(cfg.API.DexScreenerBase, cfg.API.SearchQueries)

	notifiers := []ports.Notifier{console}
	if cfg.Notify.TelegramBotToken != "" && cfg.Notify.TelegramChatID != "" {
		notifiers = append(notifiers, notify.NewTelegram(
			cfg.API.TelegramBase, cfg.Notify.TelegramBotToken, cfg.Notify.TelegramChatID, cfg.Notify.OnlyActivity))
	}

	s := scanner.New(
		cfg.LoopConfig(*once),
		scanner.Deps{
			Discovery: dex,
			Snapshots: dex,
			Repo:      repo,
			Journal:   journal,
			Notifier:  notify.NewMulti(notifiers...),
		},
		st,
		paper.New(cfg.PaperEngineConfig(), nil),
		live.New(cfg.LiveEngineConfig(), newExecutor(cfg.Live), nil),
		nil,
	)

	if err := s.Run(ctx); err != nil {
		slog.Error("scanner exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("memegate stopped cleanly")
}

// newExecutor devuelve nil si live está apagado: el live engine queda inactivo.
func newExecutor(cfg config.LiveConfig) ports.SwapExecutor {
	switch {
	case !cfg.Enabled:
		return nil
	case cfg.DryRun:
		slog.Warn("live trading enabled in dry-run mode: buys are simulated")
		return swap.DryRunExecutor{}
	default:
		return swap.NewHTTPExecutor(cfg.ExecutorURL, cfg.ExecutorToken, cfg.SlippageBps)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
