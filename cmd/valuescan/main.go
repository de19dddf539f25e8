package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"SwingSentinel/internal/collector"
	"SwingSentinel/internal/config"
	"SwingSentinel/internal/model"
	"SwingSentinel/internal/scanner"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		cfgPath    = flag.String("config", "configs/config.yaml", "config file path")
		symbols    = flag.String("symbols", "", "comma-separated symbols (default: built-in NSE list)")
		dailyMin   = flag.Float64("daily-rsi-min", 0, "minimum daily RSI (0 disables)")
		dailyMax   = flag.Float64("daily-rsi-max", 0, "maximum daily RSI (0 disables)")
		weeklyMin  = flag.Float64("weekly-rsi-min", 0, "minimum weekly RSI (0 disables)")
		weeklyMax  = flag.Float64("weekly-rsi-max", 0, "maximum weekly RSI (0 disables)")
		monthlyMin = flag.Float64("monthly-rsi-min", 0, "minimum monthly RSI (0 disables)")
		workers    = flag.Int("workers", 0, "concurrent symbols (default from config)")
		timeout    = flag.Duration("timeout", 2*time.Minute, "overall scan timeout")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if *workers <= 0 {
		*workers = cfg.Scanner.Workers
	}

	yahoo := collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout)
	yahoo.Limiter = rate.NewLimiter(rate.Limit(cfg.DataSource.YahooRPS*5), *workers)
	nse := collector.NewNSEFetcher(cfg.DataSource.NSEBaseURL, cfg.Proxy, cfg.DataSource.Timeout)
	sc := scanner.New(scanner.NewYahooSnapshotter(yahoo), &scanner.NSESnapshotter{Fetcher: nse}, *workers)

	var conds []model.Condition
	add := func(tf model.Timeframe, op string, v float64) {
		if v > 0 {
			conds = append(conds, model.Condition{Timeframe: tf, Indicator: "Rsi", Operator: op, Value: v})
		}
	}
	add(model.TimeframeDaily, ">=", *dailyMin)
	add(model.TimeframeDaily, "<=", *dailyMax)
	add(model.TimeframeWeekly, ">=", *weeklyMin)
	add(model.TimeframeWeekly, "<=", *weeklyMax)
	add(model.TimeframeMonthly, ">=", *monthlyMin)

	list := cfg.Scanner.Symbols
	if *symbols != "" {
		list = nil
		for _, s := range strings.Split(*symbols, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				list = append(list, s)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	start := time.Now()
	results, err := sc.Scan(ctx, conds, list)
	if err != nil {
		log.Printf("[WARN] %v (showing partial results)", err)
	}
	render(results)
	fmt.Printf("\n%d matches in %s\n", len(results), time.Since(start).Round(time.Millisecond))
}

func render(results []model.StockSnapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Symbol", "LTP", "Change %", "Volume", "RSI D", "RSI W", "RSI M", "Source"})
	for i, r := range results {
		t.AppendRow(table.Row{
			i + 1, r.Symbol, r.LastPrice.StringFixed(2), colorChange(r.ChangePct), r.VolumeText,
			nullRSI(r.DailyRSI), nullRSI(r.WeeklyRSI), nullRSI(r.MonthlyRSI), r.Source,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	t.Render()
}

func colorChange(d decimal.Decimal) string {
	s := d.StringFixed(2)
	switch {
	case d.IsPositive():
		return text.FgGreen.Sprint("+" + s)
	case d.IsNegative():
		return text.FgRed.Sprint(s)
	}
	return s
}

func nullRSI(n decimal.NullDecimal) string {
	if !n.Valid {
		return "-"
	}
	return n.Decimal.StringFixed(2)
}
