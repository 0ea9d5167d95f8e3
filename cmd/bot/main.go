package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"VCPSentinel/internal/collector"
	"VCPSentinel/internal/config"
	"VCPSentinel/internal/notifier"
	"VCPSentinel/internal/recorder"
	"VCPSentinel/internal/scanner"
	"VCPSentinel/internal/scheduler"
	"VCPSentinel/internal/state"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] VCPSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	params, err := cfg.StrategyParams()
	if err != nil {
		log.Fatalf("[FATAL] strategy params: %v", err)
	}
	settings, err := cfg.SignalSettings()
	if err != nil {
		log.Fatalf("[FATAL] signal settings: %v", err)
	}
	log.Printf("[INFO] preset %s: lookback %d, threshold %.2f, %d symbols",
		cfg.VCP.Preset, params.LookbackPeriod, settings.ProgressThreshold, len(cfg.Symbols))

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderREST:
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case config.ProviderCSV:
		fetcher = collector.NewCSVDirFetcher(cfg.DataSource.CSVDir)
	case config.ProviderMock:
		fetcher = &collector.MockFetcher{}
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.DataSource.Benchmark, cfg.DataSource.HistoryDays)

	// Init state store
	var store state.Store
	if cfg.State.RedisAddr != "" {
		store, err = state.NewRedisStore(ctx, cfg.State.RedisAddr, cfg.State.RedisPassword, cfg.State.RedisDB)
	} else {
		store, err = state.NewFileStore(cfg.State.File)
	}
	if err != nil {
		log.Fatalf("[FATAL] init state store: %v", err)
	}
	defer store.Close()

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	sc := &scanner.Scanner{
		Collector: col,
		Store:     store,
		Recorder:  rec,
		Params:    params,
		Settings:  settings,
		Weights:   cfg.RSWeights(),
		Workers:   cfg.Workers,
		Universe:  cfg.Symbols,
		MinRated:  cfg.RSMinUniverse(),
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, sc, cfg.Symbols, tn, store, rec)
	if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing scan now")
		go sched.RunNow()
	}

	log.Println("[INFO] VCPSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] VCPSentinel stopped")
}
