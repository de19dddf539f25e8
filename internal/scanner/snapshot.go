package scanner

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"SwingSentinel/internal/calculator"
	"SwingSentinel/internal/collector"
	"SwingSentinel/internal/model"
)

const rsiPeriod = 14

// YahooSnapshotter builds snapshots from daily, weekly and monthly Yahoo bars.
type YahooSnapshotter struct {
	Fetcher *collector.YahooFetcher
	Suffix  string // exchange suffix appended to the symbol
}

func NewYahooSnapshotter(f *collector.YahooFetcher) *YahooSnapshotter {
	return &YahooSnapshotter{Fetcher: f, Suffix: ".NS"}
}

func (y *YahooSnapshotter) Name() string { return "yahoo" }

// Snapshot fails only when daily bars are unavailable; weekly or monthly
// failures leave that RSI null.
func (y *YahooSnapshotter) Snapshot(ctx context.Context, symbol string) (*model.StockSnapshot, error) {
	ticker := symbol
	if y.Suffix != "" && !strings.Contains(symbol, ".") {
		ticker += y.Suffix
	}

	daily, err := y.Fetcher.FetchBars(ctx, ticker, "1d", "6mo")
	if err != nil {
		return nil, err
	}
	if len(daily) == 0 {
		return nil, fmt.Errorf("yahoo: no daily bars for %s: %w", ticker, model.ErrDataUnavailable)
	}

	latest := daily[len(daily)-1]
	snap := &model.StockSnapshot{
		Symbol:    symbol,
		LastPrice: latest.Close.Round(2),
		Open:      latest.Open.Round(2),
		High:      latest.High.Round(2),
		Low:       latest.Low.Round(2),
		Volume:    latest.Volume.IntPart(),
		DailyRSI:  rsi(daily),
		Source:    y.Name(),
	}
	if len(daily) > 1 {
		snap.ChangePct = collector.PercentChange(daily[len(daily)-2].Close, latest.Close)
	}
	if weekly, err := y.Fetcher.FetchBars(ctx, ticker, "1wk", "1y"); err == nil {
		snap.WeeklyRSI = rsi(weekly)
	}
	if monthly, err := y.Fetcher.FetchBars(ctx, ticker, "1mo", "2y"); err == nil {
		snap.MonthlyRSI = rsi(monthly)
	}
	return snap, nil
}

func rsi(bars []model.OHLCBar) decimal.NullDecimal {
	v, ok := calculator.RSI(model.Closes(bars), rsiPeriod)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v.Round(2))
}

// NSESnapshotter serves quote-only snapshots without RSI.
type NSESnapshotter struct {
	Fetcher *collector.NSEFetcher
}

func (n *NSESnapshotter) Name() string { return "nse" }

func (n *NSESnapshotter) Snapshot(ctx context.Context, symbol string) (*model.StockSnapshot, error) {
	return n.Fetcher.FetchEquityQuote(ctx, symbol)
}

// FormatVolume renders a volume in crore, lakh or thousand units.
func FormatVolume(volume int64) string {
	v := float64(volume)
	switch {
	case volume >= 10_000_000:
		return fmt.Sprintf("%.2fCr", v/10_000_000)
	case volume >= 100_000:
		return fmt.Sprintf("%.2fL", v/100_000)
	case volume >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	}
	return fmt.Sprint(volume)
}
