package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"SwingSentinel/internal/calculator"
	"SwingSentinel/internal/collector"
	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
	"SwingSentinel/internal/notifier"
	"SwingSentinel/internal/override"
	"SwingSentinel/internal/recorder"
	"SwingSentinel/internal/strategy"
)

// Scan trigger labels used in metrics and the scan audit trail.
const (
	TriggerOpen     = "OPEN"
	TriggerClose    = "CLOSE"
	TriggerManual   = "MANUAL"
	TriggerStartup  = "STARTUP"
	TriggerTelegram = "TELEGRAM"
)

// Job is a named schedule entry.
type Job struct {
	Name    string `json:"name"`
	Spec    string `json:"spec"`
	Trigger string `json:"trigger"`
}

// DefaultJobs are the market-open and near-close scans.
func DefaultJobs(openSpec, closeSpec string) []Job {
	return []Job{
		{Name: "market-open", Spec: openSpec, Trigger: TriggerOpen},
		{Name: "near-close", Spec: closeSpec, Trigger: TriggerClose},
	}
}

// Orchestrator ties level refresh, signal evaluation, recording and
// notification together for one symbol.
type Orchestrator struct {
	Symbol        string
	Source        collector.SeriesSource
	Engine        *strategy.Engine
	Sink          notifier.Sink
	Recorder      recorder.Recorder
	Overrides     *override.Manager
	Trigger       Trigger
	Jobs          []Job
	LookbackDays  int
	SwingLookback int
	HistoryLimit  int
	RunOnStart    bool

	// scanMu serializes every scan and level refresh.
	scanMu sync.Mutex

	stateMu    sync.RWMutex
	running    bool
	lastScan   time.Time
	lastSample *model.Sample
	cancel     context.CancelFunc
}

// NewOrchestrator creates an Orchestrator with a no-op recorder and the default jobs.
func NewOrchestrator(symbol string, src collector.SeriesSource, engine *strategy.Engine, sink notifier.Sink, trigger Trigger) *Orchestrator {
	return &Orchestrator{
		Symbol:        symbol,
		Source:        src,
		Engine:        engine,
		Sink:          sink,
		Recorder:      recorder.NewNoopRecorder(),
		Trigger:       trigger,
		Jobs:          DefaultJobs("0 15 9 * * 1-5", "0 25 15 * * 1-5"),
		LookbackDays:  10,
		SwingLookback: 5,
		HistoryLimit:  50,
	}
}

// Start refreshes levels, registers the jobs and starts the trigger, then
// optionally scans once.
func (o *Orchestrator) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	if err := o.RefreshLevels(runCtx); err != nil {
		log.Printf("[WARN] initial level refresh: %v", err)
	}

	for _, job := range o.Jobs {
		trigger := job.Trigger
		if err := o.Trigger.Schedule(job.Name, job.Spec, func() {
			if _, err := o.scan(runCtx, trigger); err != nil {
				log.Printf("[ERROR] %s scan: %v", strings.ToLower(trigger), err)
			}
		}); err != nil {
			cancel()
			return err
		}
	}
	o.Trigger.Start()

	o.stateMu.Lock()
	o.running = true
	o.cancel = cancel
	o.stateMu.Unlock()
	log.Printf("[INFO] orchestrator started for %s (%d jobs)", o.Symbol, len(o.Jobs))

	if o.RunOnStart {
		if _, err := o.scan(runCtx, TriggerStartup); err != nil {
			log.Printf("[ERROR] startup scan: %v", err)
		}
	}
	return nil
}

// Stop stops the trigger and cancels in-flight scheduled work.
func (o *Orchestrator) Stop() {
	o.Trigger.Stop()
	o.stateMu.Lock()
	o.running = false
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.stateMu.Unlock()
	log.Println("[INFO] orchestrator stopped")
}

// ScanOnce runs one manual scan cycle.
func (o *Orchestrator) ScanOnce(ctx context.Context) (*model.Signal, error) {
	return o.scan(ctx, TriggerManual)
}

func (o *Orchestrator) scan(ctx context.Context, trigger string) (*model.Signal, error) {
	o.scanMu.Lock()
	defer o.scanMu.Unlock()

	start := time.Now()
	evt := &recorder.ScanEvent{Symbol: o.Symbol, Trigger: trigger, StartedAt: start}
	log.Printf("[INFO] %s scan started for %s", strings.ToLower(trigger), o.Symbol)

	o.stateMu.Lock()
	o.lastScan = start
	o.stateMu.Unlock()

	if err := o.refreshLevels(ctx); err != nil {
		log.Printf("[WARN] level refresh failed, keeping last-known levels: %v", err)
	}

	sample, err := o.currentSample(ctx)
	if err != nil {
		evt.Error = err.Error()
		o.finishScan(evt, start, "error")
		return nil, err
	}

	o.stateMu.Lock()
	o.lastSample = sample
	o.stateMu.Unlock()
	metrics.UpdatePrice(o.Symbol, sample.Price.InexactFloat64())

	sig := o.Engine.CheckSignal(sample.Price)
	evt.Price = sample.Price.String()
	evt.Status = o.Engine.MarketStatus(sample.Price).Status

	if sig == nil {
		o.finishScan(evt, start, "no_signal")
		return nil, nil
	}

	evt.Signal = string(sig.Direction)
	log.Printf("[INFO] %s %s signal at %s (trigger %s)", o.Symbol, sig.Direction, sig.Price, sig.TriggerLevel)
	metrics.RecordSignal(o.Symbol, string(sig.Direction))

	if err := o.Recorder.RecordSignal(o.Symbol, sig); err != nil {
		log.Printf("[ERROR] record signal: %v", err)
	}
	o.notify(ctx, sig)

	o.finishScan(evt, start, "signal")
	return sig, nil
}

// currentSample fetches and validates the live price. Non-positive prices
// never reach the engine.
func (o *Orchestrator) currentSample(ctx context.Context) (*model.Sample, error) {
	sample, err := o.Source.CurrentSample(ctx, o.Symbol)
	if err != nil {
		if errors.Is(err, model.ErrInvalidSample) || errors.Is(err, model.ErrDataUnavailable) {
			return nil, fmt.Errorf("current sample for %s: %w", o.Symbol, err)
		}
		return nil, fmt.Errorf("current sample for %s: %w: %w", o.Symbol, model.ErrDataUnavailable, err)
	}
	if sample == nil {
		return nil, fmt.Errorf("current sample for %s: %w", o.Symbol, model.ErrDataUnavailable)
	}
	if !sample.Price.IsPositive() {
		return nil, fmt.Errorf("current sample for %s: price %s: %w", o.Symbol, sample.Price, model.ErrInvalidSample)
	}
	return sample, nil
}

func (o *Orchestrator) notify(ctx context.Context, sig *model.Signal) {
	if o.Sink == nil || !o.Sink.Configured() {
		log.Printf("[WARN] no notifier configured, %s signal %s not delivered", sig.Direction, sig.ID)
		return
	}
	if !o.Sink.Notify(ctx, o.Symbol, *sig) {
		log.Printf("[WARN] notification for signal %s failed: %v", sig.ID, model.ErrNotificationFailed)
		metrics.RecordNotifyFailure(o.Sink.Name())
	}
}

func (o *Orchestrator) finishScan(evt *recorder.ScanEvent, start time.Time, outcome string) {
	metrics.RecordScan(evt.Trigger, outcome, time.Since(start).Seconds())
	if err := o.Recorder.RecordScan(evt); err != nil {
		log.Printf("[ERROR] record scan: %v", err)
	}
}

// RefreshLevels reloads the reference levels outside a scan cycle.
func (o *Orchestrator) RefreshLevels(ctx context.Context) error {
	o.scanMu.Lock()
	defer o.scanMu.Unlock()
	return o.refreshLevels(ctx)
}

// refreshLevels replaces the engine levels. Pinned override levels win over
// provider data; on any failure the previous levels stay in place.
func (o *Orchestrator) refreshLevels(ctx context.Context) error {
	if o.Overrides != nil {
		if pinned, ok := o.Overrides.Levels(); ok {
			o.setLevels(pinned)
			return nil
		}
	}

	bars, err := o.Source.DailySeries(ctx, o.Symbol, o.LookbackDays)
	if err != nil {
		return fmt.Errorf("daily series for %s: %w", o.Symbol, err)
	}
	levels, ok := calculator.ExtractLevels(bars, o.SwingLookback)
	if !ok {
		return fmt.Errorf("%d bars for %s: %w", len(bars), o.Symbol, model.ErrInsufficientHistory)
	}
	o.setLevels(levels)
	log.Printf("[INFO] levels for %s: high=%s (%s) low=%s (%s)",
		o.Symbol, levels.High, levels.HighDate, levels.Low, levels.LowDate)
	return nil
}

func (o *Orchestrator) setLevels(levels model.LevelSet) {
	o.Engine.SetLevels(levels)
	if levels.HasHigh {
		metrics.UpdateLevel(o.Symbol, "high", levels.High.InexactFloat64())
	}
	if levels.HasLow {
		metrics.UpdateLevel(o.Symbol, "low", levels.Low.InexactFloat64())
	}
}

// ApplyOverride pins manual levels (and optionally a price) and applies them
// to the engine immediately.
func (o *Orchestrator) ApplyOverride(high, low, close decimal.Decimal, price *decimal.Decimal) error {
	if o.Overrides == nil {
		return errors.New("manual overrides not enabled")
	}
	if err := o.Overrides.SetLevels(high, low, close, price); err != nil {
		return err
	}
	o.scanMu.Lock()
	defer o.scanMu.Unlock()
	if pinned, ok := o.Overrides.Levels(); ok {
		o.setLevels(pinned)
	}
	return nil
}

// UpdatePrice sets the manual current price served ahead of providers.
func (o *Orchestrator) UpdatePrice(price decimal.Decimal) error {
	if o.Overrides == nil {
		return errors.New("manual overrides not enabled")
	}
	return o.Overrides.SetPrice(price)
}

// ClearOverride removes manual inputs and reloads provider levels.
func (o *Orchestrator) ClearOverride(ctx context.Context) error {
	if o.Overrides == nil {
		return nil
	}
	if err := o.Overrides.Clear(); err != nil {
		return err
	}
	return o.RefreshLevels(ctx)
}

// ResetSignals clears the last signal and history; levels are kept.
func (o *Orchestrator) ResetSignals() {
	o.Engine.Reset()
	log.Printf("[INFO] signal history reset for %s", o.Symbol)
}

// Signals returns recent signals, bounded by HistoryLimit.
func (o *Orchestrator) Signals(limit int) []model.Signal {
	if limit <= 0 || limit > o.HistoryLimit {
		limit = o.HistoryLimit
	}
	return o.Engine.History(limit)
}

// Status is a read-only snapshot for presentation layers.
type Status struct {
	Symbol             string             `json:"symbol"`
	Running            bool               `json:"running"`
	LastScan           *time.Time         `json:"last_scan,omitempty"`
	LastSample         *model.Sample      `json:"last_sample,omitempty"`
	Market             model.MarketStatus `json:"market_status"`
	Levels             *model.LevelSet    `json:"levels,omitempty"`
	LastSignal         *model.Signal      `json:"last_signal,omitempty"`
	Signals            []model.Signal     `json:"signals"`
	Jobs               []Job              `json:"jobs"`
	NotifierConfigured bool               `json:"notifier_configured"`
	Override           *override.State    `json:"override,omitempty"`
}

// Status never mutates engine state.
func (o *Orchestrator) Status() Status {
	o.stateMu.RLock()
	st := Status{
		Symbol:     o.Symbol,
		Running:    o.running,
		LastSample: o.lastSample,
	}
	if !o.lastScan.IsZero() {
		ts := o.lastScan
		st.LastScan = &ts
	}
	o.stateMu.RUnlock()

	if st.LastSample != nil {
		st.Market = o.Engine.MarketStatus(st.LastSample.Price)
	} else {
		st.Market = model.MarketStatus{Status: model.StatusNoData, SignalActive: model.ActionNeutral}
	}
	if levels, ok := o.Engine.Levels(); ok {
		st.Levels = &levels
	}
	st.LastSignal = o.Engine.LastSignal()
	st.Signals = o.Signals(0)
	st.Jobs = o.Jobs
	st.NotifierConfigured = o.Sink != nil && o.Sink.Configured()
	if o.Overrides != nil {
		ov := o.Overrides.GetState()
		st.Override = &ov
	}
	return st
}

// HandleCommand processes a chat command and returns a reply.
func (o *Orchestrator) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	cmd := ""
	if len(fields) > 0 {
		cmd = strings.ToLower(fields[0])
	}
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	switch cmd {
	case "/scan":
		sig, err := o.scan(ctx, TriggerTelegram)
		if err != nil {
			return fmt.Sprintf("❌ Scan failed: %v", err)
		}
		if sig == nil {
			st := o.Status()
			return "No new signal.\n\n" + notifier.FormatStatus(o.Symbol, st.Market, lastScanTime(st))
		}
		// The sink already delivered the alert.
		return ""
	case "/status":
		st := o.Status()
		return notifier.FormatStatus(o.Symbol, st.Market, lastScanTime(st))
	case "/signals":
		return notifier.FormatSignalList(o.Symbol, o.Signals(10))
	case "/refresh":
		if err := o.RefreshLevels(ctx); err != nil {
			return fmt.Sprintf("❌ Refresh failed: %v", err)
		}
		levels, _ := o.Engine.Levels()
		return fmt.Sprintf("✅ Levels refreshed\nHigh: %s (%s)\nLow: %s (%s)",
			notifier.FormatPrice(levels.High), levels.HighDate, notifier.FormatPrice(levels.Low), levels.LowDate)
	default:
		return "Available commands:\n• /scan - run a scan now\n• /status - market status\n• /signals - recent signals\n• /refresh - reload swing levels"
	}
}

func lastScanTime(st Status) time.Time {
	if st.LastScan == nil {
		return time.Time{}
	}
	return *st.LastScan
}
