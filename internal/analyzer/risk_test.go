package analyzer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-stock-tracker/internal/entity"
)

func constantBars(n int, price float64) []entity.Candle {
	bars := make([]entity.Candle, n)
	for i := range bars {
		bars[i] = entity.Candle{
			Date:  fmt.Sprintf("2025-01-%02d", i+1),
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
		}
	}
	return bars
}

func TestCalculateATR(t *testing.T) {
	assert.Equal(t, 0.0, CalculateATR(nil, 14))
	assert.Equal(t, 0.0, CalculateATR(constantBars(1, 100), 14))

	// Flat series has zero true range.
	assert.Equal(t, 0.0, CalculateATR(constantBars(30, 100), 14))

	// Two bars: TR = max(high-low, |high-prevClose|, |low-prevClose|).
	bars := []entity.Candle{
		{Open: 100, High: 105, Low: 95, Close: 100},
		{Open: 100, High: 110, Low: 100, Close: 108},
	}
	assert.InDelta(t, 10.0, CalculateATR(bars, 14), 0.001)
}

func TestCalculateRiskLevels(t *testing.T) {
	prices := &stubPriceRepository{candles: map[string][]entity.Candle{
		"005930": constantBars(20, 70000),
	}}
	m := NewRiskManager(prices, newTestLogger(t))

	level := m.CalculateRiskLevels(context.Background(), "005930", "삼성전자", 0)
	require.NotNil(t, level)

	assert.Equal(t, 70000.0, level.CurrentPrice)
	assert.Equal(t, 0.0, level.ATR)
	assert.Equal(t, entity.VolatilityLow, level.VolatilityGrade)
	// Zero ATR collapses every band onto the current price.
	assert.Equal(t, 70000.0, level.StopLossPrice)
	assert.Equal(t, 70000.0, level.TakeProfit1Price)
}

func TestCalculateRiskLevelsTooFewBars(t *testing.T) {
	prices := &stubPriceRepository{candles: map[string][]entity.Candle{
		"005930": constantBars(3, 70000),
	}}
	m := NewRiskManager(prices, newTestLogger(t))

	assert.Nil(t, m.CalculateRiskLevels(context.Background(), "005930", "삼성전자", 0))
}

func TestVolatilityGrades(t *testing.T) {
	assert.Equal(t, entity.VolatilityLow, volatilityGrade(1.5))
	assert.Equal(t, entity.VolatilityLow, volatilityGrade(2.0))
	assert.Equal(t, entity.VolatilityMedium, volatilityGrade(3.0))
	assert.Equal(t, entity.VolatilityHigh, volatilityGrade(4.5))
	assert.Equal(t, entity.VolatilityVeryHigh, volatilityGrade(6.0))
}

func TestPositionSize(t *testing.T) {
	m := NewRiskManager(&stubPriceRepository{}, newTestLogger(t))

	// 1% risk on 10M with a 4% stop allows a 2.5M position.
	size := m.PositionSize(10_000_000, 1, 4)
	assert.Equal(t, 2_500_000.0, size.PositionSize)
	assert.Equal(t, 100_000.0, size.MaxLoss)
	assert.Equal(t, 25.0, size.PositionPct)

	// Zero stop distance yields no position.
	assert.Equal(t, 0.0, m.PositionSize(10_000_000, 1, 0).PositionSize)
}
