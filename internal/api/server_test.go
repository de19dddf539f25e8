package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwingSentinel/internal/collector"
	"SwingSentinel/internal/model"
	"SwingSentinel/internal/override"
	"SwingSentinel/internal/scanner"
	"SwingSentinel/internal/scheduler"
	"SwingSentinel/internal/strategy"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSink struct {
	testErr  error
	notified int
}

func (s *stubSink) Notify(context.Context, string, model.Signal) bool {
	s.notified++
	return true
}

func (s *stubSink) SendTest(context.Context) error { return s.testErr }
func (s *stubSink) Name() string                   { return "stub" }
func (s *stubSink) Configured() bool               { return true }

type stubSnapshotter struct{}

func (stubSnapshotter) Name() string { return "stub" }
func (stubSnapshotter) Snapshot(_ context.Context, symbol string) (*model.StockSnapshot, error) {
	if symbol == "BAD" {
		return nil, errors.New("no data")
	}
	rsi := map[string]float64{"TCS": 65, "INFY": 35}[symbol]
	return &model.StockSnapshot{
		Symbol:    symbol,
		LastPrice: decimal.NewFromInt(1000),
		Volume:    2_000_000,
		DailyRSI:  decimal.NewNullDecimal(decimal.NewFromFloat(rsi)),
	}, nil
}

func swingBars() []model.OHLCBar {
	highs := []float64{100, 101, 102, 103, 110, 105, 104, 103, 102, 101}
	lows := []float64{95, 94, 93, 92, 91, 90, 85, 88, 89, 90}
	day0 := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCBar, len(highs))
	for i := range highs {
		bars[i] = model.OHLCBar{
			Date:  day0.AddDate(0, 0, i),
			High:  decimal.NewFromFloat(highs[i]),
			Low:   decimal.NewFromFloat(lows[i]),
			Close: decimal.NewFromFloat(lows[i] + 2),
		}
	}
	return bars
}

type fixture struct {
	router *gin.Engine
	source *collector.MockSource
	sink   *stubSink
	orch   *scheduler.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	src := &collector.MockSource{Price: decimal.NewFromInt(100), DailyData: swingBars()}
	mgr, err := override.NewManager("")
	require.NoError(t, err)

	sink := &stubSink{}
	orch := scheduler.NewOrchestrator("BANKNIFTY", collector.NewChain(&collector.ManualSource{Override: mgr}, src),
		strategy.NewEngine(), sink, scheduler.NewManualTrigger())
	orch.Overrides = mgr

	srv := NewServer(orch, scanner.New(stubSnapshotter{}, nil, 4), sink)
	return &fixture{router: srv.Router(), source: src, sink: sink, orch: orch}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHealthzAndMetrics(t *testing.T) {
	f := newFixture(t)
	w, body := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	f.do(t, http.MethodPost, "/api/scan", nil)
	w, _ = f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swing_sentinel_scans_total")
}

func TestScanAndStatus(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodPost, "/api/scan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Nil(t, body["signal"])
	assert.Contains(t, body["message"], model.StatusWithinRange)

	w, body = f.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BANKNIFTY", body["symbol"])
	assert.Equal(t, "110", body["previous_high"])
	assert.Equal(t, "85", body["previous_low"])
	market := body["market_status"].(map[string]interface{})
	assert.Equal(t, "110", market["swing_high"])

	f.source.Price = decimal.NewFromInt(111)
	w, body = f.do(t, http.MethodPost, "/api/scan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sig := body["signal"].(map[string]interface{})
	assert.Equal(t, "UP", sig["direction"])
	assert.Equal(t, "110", sig["trigger_level"])
	assert.Equal(t, 1, f.sink.notified)

	w, body = f.do(t, http.MethodGet, "/api/signals?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	w, _ = f.do(t, http.MethodGet, "/api/signals?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodDelete, "/api/signals", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.orch.Signals(0))
}

func TestScan_ProviderDown(t *testing.T) {
	f := newFixture(t)
	f.source.Err = model.ErrDataUnavailable

	w, body := f.do(t, http.MethodPost, "/api/scan", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, body["success"])
	assert.NotNil(t, body["market_status"])

	w, _ = f.do(t, http.MethodPost, "/api/refresh-data", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSetDataAndOverrides(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/set-data", map[string]interface{}{
		"previous_high": 50000, "previous_low": 49000, "previous_close": 49500, "current_price": 50100,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Manual price is served ahead of the provider.
	w, body := f.do(t, http.MethodPost, "/api/scan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sig := body["signal"].(map[string]interface{})
	assert.Equal(t, "50000", sig["trigger_level"])
	assert.Equal(t, "50100", sig["price"])

	w, _ = f.do(t, http.MethodPost, "/api/update-price", map[string]interface{}{"price": 48000})
	require.Equal(t, http.StatusOK, w.Code)
	_, body = f.do(t, http.MethodPost, "/api/scan", nil)
	assert.Equal(t, "DOWN", body["signal"].(map[string]interface{})["direction"])

	w, _ = f.do(t, http.MethodPost, "/api/update-price", map[string]interface{}{"price": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/set-data", map[string]interface{}{"previous_high": 1, "previous_low": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/set-data", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodDelete, "/api/override", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, body = f.do(t, http.MethodGet, "/api/status", nil)
	assert.Equal(t, "110", body["previous_high"])
}

func TestTestNotify(t *testing.T) {
	f := newFixture(t)
	w, _ := f.do(t, http.MethodPost, "/api/test-notify", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	f.sink.testErr = model.ErrNotificationFailed
	w, body := f.do(t, http.MethodPost, "/api/test-notify", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestValueScan(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodPost, "/api/value-scan", map[string]interface{}{
		"symbols": []string{"INFY", "TCS", "BAD"},
		"conditions": []map[string]interface{}{
			{"timeframe": "Daily", "indicator": "Rsi", "operator": "Greater than equal to", "value": 30},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["count"])
	results := body["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.Equal(t, "TCS", first["symbol"])
	assert.Equal(t, "20.00L", first["volume_text"])

	// Empty body scans the default list without conditions.
	w, body = f.do(t, http.MethodPost, "/api/value-scan", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, len(scanner.DefaultSymbols), body["count"])
}
