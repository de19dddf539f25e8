package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"SwingSentinel/internal/api"
	"SwingSentinel/internal/collector"
	"SwingSentinel/internal/config"
	"SwingSentinel/internal/notifier"
	"SwingSentinel/internal/override"
	"SwingSentinel/internal/recorder"
	"SwingSentinel/internal/scanner"
	"SwingSentinel/internal/scheduler"
	"SwingSentinel/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] SwingSentinel starting...")

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
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	// Manual overrides
	overrides, err := override.NewManager(cfg.Override.StateFile)
	if err != nil {
		log.Fatalf("[FATAL] init override manager: %v", err)
	}

	// Data sources: manual price first, then the configured providers
	yahoo := collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout)
	yahoo.Limiter = rate.NewLimiter(rate.Limit(cfg.DataSource.YahooRPS), 1)
	nse := collector.NewNSEFetcher(cfg.DataSource.NSEBaseURL, cfg.Proxy, cfg.DataSource.Timeout)

	sources := []collector.SeriesSource{&collector.ManualSource{Override: overrides}}
	switch cfg.DataSource.Primary {
	case "mock":
		sources = append(sources, &collector.MockSource{Price: mockBasePrice(cfg.DataSource.Symbol)})
	case "nse":
		sources = append(sources, nse, yahoo)
	default:
		sources = append(sources, yahoo, nse)
	}
	chain := collector.NewChain(sources...)
	chain.Timeout = cfg.DataSource.Timeout
	log.Printf("[INFO] data sources: %s", chain.Name())

	// Notification sinks
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	en := notifier.NewEmailNotifier(cfg.Email.Sender, cfg.Email.Password, cfg.Email.Receiver,
		cfg.Email.SMTPServer, cfg.Email.SMTPPort)
	sink := notifier.NewMultiSink(tn, en)
	if !sink.Configured() {
		log.Println("[WARN] no notifier configured, signals will only be logged and recorded")
	}

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

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init orchestrator
	orch := scheduler.NewOrchestrator(cfg.DataSource.Symbol, chain, strategy.NewEngine(), sink,
		scheduler.NewCronTrigger(loc))
	orch.Recorder = rec
	orch.Overrides = overrides
	orch.Jobs = scheduler.DefaultJobs(cfg.Schedule.OpenCron, cfg.Schedule.CloseCron)
	orch.LookbackDays = cfg.DataSource.LookbackDays
	orch.SwingLookback = cfg.Strategy.SwingLookback
	orch.HistoryLimit = cfg.Strategy.HistoryLimit
	orch.RunOnStart = cfg.Schedule.RunOnStart
	if err := orch.Start(ctx); err != nil {
		log.Fatalf("[FATAL] start orchestrator: %v", err)
	}
	defer orch.Stop()

	// Start Telegram polling
	if tn.Configured() && cfg.Telegram.Polling {
		go tn.StartPolling(ctx, orch.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// HTTP API
	sc := scanner.New(scanner.NewYahooSnapshotter(yahoo), &scanner.NSESnapshotter{Fetcher: nse}, cfg.Scanner.Workers)
	sc.Timeout = cfg.DataSource.Timeout * 3
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(orch, sc, sink).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[INFO] HTTP API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] http server: %v", err)
		}
	}()

	log.Printf("[INFO] SwingSentinel is watching %s. Press Ctrl+C to stop.", cfg.DataSource.Symbol)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] SwingSentinel stopped")
}

// mockBasePrice picks a realistic level for the mock source.
func mockBasePrice(symbol string) decimal.Decimal {
	switch symbol {
	case "BANKNIFTY":
		return decimal.NewFromInt(48000)
	case "NIFTY":
		return decimal.NewFromInt(22000)
	}
	return decimal.NewFromInt(1000)
}
