package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwingSentinel/internal/model"
)

const chartJSON = `{"chart":{"result":[{"timestamp":[1741219200,1741046400,1741132800,1741305600],
"indicators":{"quote":[{"open":[101,99,100,null],"high":[103,100,102,null],
"low":[99,98,99,null],"close":[102,99.5,101,null],"volume":[10,20,30,null]}]}}],"error":null}}`

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := NewYahooFetcher("", 2*time.Second)
	f.BaseURL = srv.URL
	return f
}

func TestYahoo_DailySeries(t *testing.T) {
	var gotPath, gotQuery string
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Write([]byte(chartJSON))
	})

	bars, err := f.DailySeries(context.Background(), "BANKNIFTY", 30)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(gotPath, "/%5ENSEBANK") || strings.HasSuffix(gotPath, "/^NSEBANK"), gotPath)
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Contains(t, gotQuery, "range=1mo")

	// Null bar dropped, remaining sorted by date.
	require.Len(t, bars, 3)
	assert.True(t, bars[0].Close.Equal(decimal.NewFromFloat(99.5)))
	assert.True(t, bars[2].Close.Equal(decimal.NewFromInt(102)))
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i].Date.After(bars[i-1].Date))
	}
}

func TestYahoo_DailySeriesTrims(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartJSON))
	})
	bars, err := f.DailySeries(context.Background(), "^NSEBANK", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[1].Close.Equal(decimal.NewFromInt(102)))
}

func TestYahoo_CurrentSample(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartJSON))
	})
	s, err := f.CurrentSample(context.Background(), "BANKNIFTY")
	require.NoError(t, err)
	assert.True(t, s.Price.Equal(decimal.NewFromInt(102)))
	assert.Equal(t, "yahoo", s.Source)
	assert.True(t, s.ChangePct.Equal(decimal.NewFromFloat(0.99)), "got %s", s.ChangePct)
}

func TestYahoo_Errors(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	})
	_, err := f.DailySeries(context.Background(), "X", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)

	f = newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	})
	_, err = f.CurrentSample(context.Background(), "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestYahoo_Timeout(t *testing.T) {
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := f.DailySeries(ctx, "X", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}
