package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"SwingSentinel/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements SeriesSource using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	Limiter   *rate.Limiter     // optional request pacing
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, timeout time.Duration) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL, timeout),
		SymbolMap: map[string]string{
			"BANKNIFTY": "^NSEBANK",
			"NIFTY":     "^NSEI",
			"SPX":       "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// toDecimal converts a JSON number to a decimal; nulls and non-finite values are rejected.
func toDecimal(v interface{}) (decimal.Decimal, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	default:
		return decimal.Zero, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func at(vals []interface{}, i int) interface{} {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

// FetchBars fetches bars for a raw Yahoo ticker at the given interval ("1d", "1wk", "1mo")
// and range ("5d", "6mo", "1y", ...).
func (f *YahooFetcher) FetchBars(ctx context.Context, ticker, interval, rng string) ([]model.OHLCBar, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("yahoo rate limit: %w", err)
		}
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(ticker), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w: %w", model.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s: %w", resp.StatusCode, string(body), model.ErrDataUnavailable)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s: %w", chart.Chart.Error.Description, model.ErrDataUnavailable)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned: %w", model.ErrDataUnavailable)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCBar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, ok1 := toDecimal(at(quote.Open, i))
		h, ok2 := toDecimal(at(quote.High, i))
		l, ok3 := toDecimal(at(quote.Low, i))
		c, ok4 := toDecimal(at(quote.Close, i))
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue // null bars (holidays etc.)
		}
		vol, _ := toDecimal(at(quote.Volume, i))
		bars = append(bars, model.OHLCBar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: vol,
		})
	}

	model.SortBars(bars)
	return bars, nil
}

func (f *YahooFetcher) DailySeries(ctx context.Context, symbol string, days int) ([]model.OHLCBar, error) {
	rng := "2y"
	if days <= 5 {
		rng = "5d"
	} else if days <= 30 {
		rng = "1mo"
	} else if days <= 90 {
		rng = "3mo"
	} else if days <= 180 {
		rng = "6mo"
	} else if days <= 365 {
		rng = "1y"
	}
	bars, err := f.FetchBars(ctx, f.yahooSymbol(symbol), "1d", rng)
	if err != nil {
		return nil, err
	}
	// Trim to requested count
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

func (f *YahooFetcher) CurrentSample(ctx context.Context, symbol string) (*model.Sample, error) {
	bars, err := f.FetchBars(ctx, f.yahooSymbol(symbol), "1d", "5d")
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo: no price data: %w", model.ErrDataUnavailable)
	}
	latest := bars[len(bars)-1]
	sample := &model.Sample{
		Price:     latest.Close,
		Open:      latest.Open,
		High:      latest.High,
		Low:       latest.Low,
		Timestamp: time.Now(),
		Source:    f.Name(),
	}
	if len(bars) >= 2 {
		sample.ChangePct = PercentChange(bars[len(bars)-2].Close, latest.Close)
	}
	return sample, nil
}

// PercentChange returns (to-from)/from*100 rounded to 2 places, or zero when from is zero.
func PercentChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(decimal.NewFromInt(100)).Round(2)
}
