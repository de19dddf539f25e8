package collector

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"SwingSentinel/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
type MockSource struct {
	Price     decimal.Decimal
	DailyData []model.OHLCBar
	Err       error
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) DailySeries(_ context.Context, _ string, days int) ([]model.OHLCBar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Price, days), nil
}

func (m *MockSource) CurrentSample(_ context.Context, _ string) (*model.Sample, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &model.Sample{Price: m.Price, Timestamp: time.Now(), Source: m.Name()}, nil
}

// generateMockBars produces a gentle zig-zag around basePrice so swing points exist.
func generateMockBars(basePrice decimal.Decimal, count int) []model.OHLCBar {
	bars := make([]model.OHLCBar, count)
	today := time.Now().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		step := float64(i-count/2) * 0.001
		if i%3 == 1 {
			step += 0.004
		}
		p := basePrice.Mul(decimal.NewFromFloat(1 + step))
		bars[i] = model.OHLCBar{
			Date:   today.AddDate(0, 0, -(count - i)),
			Open:   p.Mul(decimal.NewFromFloat(0.999)),
			High:   p.Mul(decimal.NewFromFloat(1.005)),
			Low:    p.Mul(decimal.NewFromFloat(0.995)),
			Close:  p,
			Volume: decimal.NewFromInt(1000000),
		}
	}
	return bars
}
