package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"SwingSentinel/internal/model"
)

const nseBaseURL = "https://www.nseindia.com"

// NSEFetcher implements SeriesSource by scraping the NSE India JSON endpoints.
type NSEFetcher struct {
	BaseURL  string
	Client   *http.Client
	IndexMap map[string]string // maps internal symbol to NSE index name
}

// NewNSEFetcher creates a new NSE fetcher with optional proxy support.
func NewNSEFetcher(baseURL, proxyURL string, timeout time.Duration) *NSEFetcher {
	if baseURL == "" {
		baseURL = nseBaseURL
	}
	return &NSEFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(proxyURL, timeout),
		IndexMap: map[string]string{
			"BANKNIFTY": "NIFTY BANK",
			"NIFTY":     "NIFTY 50",
		},
	}
}

func (f *NSEFetcher) Name() string { return "nse" }

func (f *NSEFetcher) indexName(symbol string) string {
	if mapped, ok := f.IndexMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// prime hits the home page so the session picks up the cookies the API expects.
func (f *NSEFetcher) prime(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL, nil)
	if err != nil {
		return
	}
	f.setHeaders(req)
	if resp, err := f.Client.Do(req); err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

func (f *NSEFetcher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", f.BaseURL+"/")
}

func (f *NSEFetcher) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	f.setHeaders(req)
	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("nse fetch: %w: %w", model.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("nse: status %d, body: %s: %w", resp.StatusCode, string(body), model.ErrDataUnavailable)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("nse decode: %w", err)
	}
	return nil
}

// number converts an NSE numeric field, which may arrive as a number or a string.
func number(v interface{}) (decimal.Decimal, bool) {
	if s, ok := v.(string); ok {
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
		return d, err == nil
	}
	return toDecimal(v)
}

type nseHistory struct {
	Data struct {
		Records []map[string]interface{} `json:"indexCloseOnlineRecords"`
	} `json:"data"`
}

func (f *NSEFetcher) DailySeries(ctx context.Context, symbol string, days int) ([]model.OHLCBar, error) {
	f.prime(ctx)

	end := time.Now()
	start := end.AddDate(0, 0, -days*2)
	q := url.Values{}
	q.Set("indexType", f.indexName(symbol))
	q.Set("from", start.Format("02-01-2006"))
	q.Set("to", end.Format("02-01-2006"))

	var hist nseHistory
	if err := f.getJSON(ctx, f.BaseURL+"/api/historical/indicesHistory?"+q.Encode(), &hist); err != nil {
		return nil, err
	}

	bars := make([]model.OHLCBar, 0, len(hist.Data.Records))
	for _, r := range hist.Data.Records {
		ts, _ := r["EOD_TIMESTAMP"].(string)
		date, err := time.Parse("02-Jan-2006", ts)
		if err != nil {
			continue
		}
		o, ok1 := number(r["EOD_OPEN_INDEX_VAL"])
		h, ok2 := number(r["EOD_HIGH_INDEX_VAL"])
		l, ok3 := number(r["EOD_LOW_INDEX_VAL"])
		c, ok4 := number(r["EOD_CLOSE_INDEX_VAL"])
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		bars = append(bars, model.OHLCBar{Date: date, Open: o, High: h, Low: l, Close: c})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("nse: no history for %s: %w", symbol, model.ErrDataUnavailable)
	}

	model.SortBars(bars)
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

type nseAllIndices struct {
	Data []struct {
		Index         string      `json:"index"`
		Last          interface{} `json:"last"`
		Open          interface{} `json:"open"`
		High          interface{} `json:"high"`
		Low           interface{} `json:"low"`
		PercentChange interface{} `json:"percentChange"`
	} `json:"data"`
}

func (f *NSEFetcher) CurrentSample(ctx context.Context, symbol string) (*model.Sample, error) {
	f.prime(ctx)

	var all nseAllIndices
	if err := f.getJSON(ctx, f.BaseURL+"/api/allIndices", &all); err != nil {
		return nil, err
	}
	name := f.indexName(symbol)
	for _, idx := range all.Data {
		if idx.Index != name {
			continue
		}
		price, ok := number(idx.Last)
		if !ok {
			break
		}
		s := &model.Sample{Price: price, Timestamp: time.Now(), Source: f.Name()}
		s.Open, _ = number(idx.Open)
		s.High, _ = number(idx.High)
		s.Low, _ = number(idx.Low)
		s.ChangePct, _ = number(idx.PercentChange)
		return s, nil
	}
	return nil, fmt.Errorf("nse: index %q not found: %w", name, model.ErrDataUnavailable)
}

type nseEquityQuote struct {
	PriceInfo struct {
		LastPrice       interface{} `json:"lastPrice"`
		Open            interface{} `json:"open"`
		PChange         interface{} `json:"pChange"`
		IntraDayHighLow struct {
			Max interface{} `json:"max"`
			Min interface{} `json:"min"`
		} `json:"intraDayHighLow"`
	} `json:"priceInfo"`
	SecurityWiseDP struct {
		QuantityTraded interface{} `json:"quantityTraded"`
	} `json:"securityWiseDP"`
}

// FetchEquityQuote returns a snapshot of an equity from the quote endpoint. NSE does not
// provide RSI, so the RSI fields are left null.
func (f *NSEFetcher) FetchEquityQuote(ctx context.Context, symbol string) (*model.StockSnapshot, error) {
	f.prime(ctx)

	var q nseEquityQuote
	if err := f.getJSON(ctx, f.BaseURL+"/api/quote-equity?symbol="+url.QueryEscape(symbol), &q); err != nil {
		return nil, err
	}
	price, ok := number(q.PriceInfo.LastPrice)
	if !ok || !price.IsPositive() {
		return nil, fmt.Errorf("nse: no price for %s: %w", symbol, model.ErrInvalidSample)
	}
	snap := &model.StockSnapshot{Symbol: symbol, LastPrice: price, Source: f.Name()}
	snap.Open, _ = number(q.PriceInfo.Open)
	snap.High, _ = number(q.PriceInfo.IntraDayHighLow.Max)
	snap.Low, _ = number(q.PriceInfo.IntraDayHighLow.Min)
	snap.ChangePct, _ = number(q.PriceInfo.PChange)
	if vol, ok := number(q.SecurityWiseDP.QuantityTraded); ok {
		snap.Volume = vol.IntPart()
	}
	return snap, nil
}
