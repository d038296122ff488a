package analyzer

import (
	"context"
	"math"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

const (
	atrPeriod        = 14
	riskLookbackDays = 30
	minBarsForRisk   = 5

	stopLossATRMultiplier    = 1.5
	takeProfit1ATRMultiplier = 2.0
	takeProfit2ATRMultiplier = 3.5
)

// Volatility grade boundaries in ATR percent.
const (
	volatilityLowMax    = 2.0
	volatilityMediumMax = 3.5
	volatilityHighMax   = 5.0
)

// RiskManager derives ATR-based stop-loss/take-profit bands from daily
// price bars.
type RiskManager struct {
	prices repository.PriceRepository
	log    *logger.Logger
}

// NewRiskManager creates a RiskManager.
func NewRiskManager(prices repository.PriceRepository, log *logger.Logger) *RiskManager {
	return &RiskManager{prices: prices, log: log}
}

// CalculateRiskLevels computes the risk bands for a stock. currentPrice of 0
// uses the latest close. Returns nil when fewer than five bars are
// available.
func (m *RiskManager) CalculateRiskLevels(ctx context.Context, stockCode, stockName string, currentPrice float64) *entity.RiskLevel {
	now := utils.TimeNowKST()
	bars, err := m.prices.DailyCandles(ctx, stockCode, now.AddDate(0, 0, -(riskLookbackDays+10)), now)
	if err != nil {
		m.log.Warn("Failed to fetch price bars for risk levels",
			logger.StringField("stock_code", stockCode), logger.ErrorField(err))
		return nil
	}
	if len(bars) < minBarsForRisk {
		return nil
	}

	if currentPrice == 0 {
		currentPrice = bars[len(bars)-1].Close
	}

	atr := CalculateATR(bars, atrPeriod)
	atrPct := atr / currentPrice * 100

	stopLossAmount := atr * stopLossATRMultiplier
	takeProfit1Amount := atr * takeProfit1ATRMultiplier
	takeProfit2Amount := atr * takeProfit2ATRMultiplier

	stopLossPct := stopLossAmount / currentPrice * 100
	takeProfit1Pct := takeProfit1Amount / currentPrice * 100
	takeProfit2Pct := takeProfit2Amount / currentPrice * 100

	riskReward := 0.0
	if stopLossPct > 0 {
		riskReward = takeProfit1Pct / stopLossPct
	}

	return &entity.RiskLevel{
		StockCode:        stockCode,
		StockName:        stockName,
		CurrentPrice:     currentPrice,
		StopLossPrice:    math.Round(currentPrice - stopLossAmount),
		StopLossPct:      round2(stopLossPct),
		TakeProfit1Price: math.Round(currentPrice + takeProfit1Amount),
		TakeProfit1Pct:   round2(takeProfit1Pct),
		TakeProfit2Price: math.Round(currentPrice + takeProfit2Amount),
		TakeProfit2Pct:   round2(takeProfit2Pct),
		ATR:              math.Round(atr),
		ATRPct:           round2(atrPct),
		VolatilityGrade:  volatilityGrade(atrPct),
		RiskRewardRatio:  round2(riskReward),
	}
}

// CalculateATR is the mean of the most recent min(period, len-1) true
// ranges. Bars are oldest first.
func CalculateATR(bars []entity.Candle, period int) float64 {
	if len(bars) < 2 {
		return 0
	}
	if len(bars) < period+1 {
		period = len(bars) - 1
	}

	trueRanges := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		high := bars[i].High
		low := bars[i].Low
		prevClose := bars[i-1].Close

		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trueRanges = append(trueRanges, tr)
	}

	recent := trueRanges[len(trueRanges)-period:]
	sum := 0.0
	for _, tr := range recent {
		sum += tr
	}
	return sum / float64(len(recent))
}

// PositionSize suggests a position given an account size, a per-trade risk
// budget in percent and the stop-loss distance in percent.
func (m *RiskManager) PositionSize(accountSize, riskPct, stopLossPct float64) entity.PositionSize {
	maxLoss := accountSize * riskPct / 100
	positionSize := 0.0
	if stopLossPct > 0 {
		positionSize = maxLoss / (stopLossPct / 100)
	}
	positionPct := 0.0
	if accountSize > 0 {
		positionPct = positionSize / accountSize * 100
	}
	return entity.PositionSize{
		PositionSize: math.Round(positionSize),
		MaxLoss:      math.Round(maxLoss),
		PositionPct:  math.Round(positionPct*10) / 10,
	}
}

func volatilityGrade(atrPct float64) entity.VolatilityGrade {
	switch {
	case atrPct <= volatilityLowMax:
		return entity.VolatilityLow
	case atrPct <= volatilityMediumMax:
		return entity.VolatilityMedium
	case atrPct <= volatilityHighMax:
		return entity.VolatilityHigh
	default:
		return entity.VolatilityVeryHigh
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
