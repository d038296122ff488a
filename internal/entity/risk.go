package entity

// VolatilityGrade buckets a stock's ATR percentage.
type VolatilityGrade string

const (
	VolatilityLow      VolatilityGrade = "low"
	VolatilityMedium   VolatilityGrade = "medium"
	VolatilityHigh     VolatilityGrade = "high"
	VolatilityVeryHigh VolatilityGrade = "very_high"
)

// RiskLevel carries ATR-derived stop-loss/take-profit bands. Derived per
// recommendation; never persisted.
type RiskLevel struct {
	StockCode    string
	StockName    string
	CurrentPrice float64

	StopLossPrice float64
	StopLossPct   float64

	TakeProfit1Price float64
	TakeProfit1Pct   float64
	TakeProfit2Price float64
	TakeProfit2Pct   float64

	ATR             float64
	ATRPct          float64
	VolatilityGrade VolatilityGrade

	RiskRewardRatio float64
}

// PositionSize is the sizing suggestion for a given account and risk budget.
type PositionSize struct {
	PositionSize float64
	MaxLoss      float64
	PositionPct  float64
}
