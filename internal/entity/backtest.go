package entity

// HoldingPeriods are the trading-day horizons evaluated by the backtester.
var HoldingPeriods = []int{1, 3, 5, 10, 20}

// BacktestResult is the per-recommendation outcome across holding periods.
// A nil entry means price data was unavailable for that horizon.
type BacktestResult struct {
	StockCode          string
	StockName          string
	RecommendedDate    string
	RecommendedPrice   float64
	RecommendationType RecommendationType
	Returns            map[int]*float64 // % return per holding period
	BenchmarkReturns   map[int]*float64 // KOSPI, same horizons
	ExcessReturns      map[int]*float64 // stock - benchmark when both defined
}

// TypePerformance aggregates one recommendation type at the 5-day horizon.
type TypePerformance struct {
	Count       int
	AvgReturn5D float64
	WinRate5D   float64
}

// BacktestSummary is the aggregate statistics over a backtest window.
type BacktestSummary struct {
	Period               string
	TotalRecommendations int
	HoldingPeriods       []int

	AvgReturns map[int]float64
	WinRates   map[int]float64
	MaxReturns map[int]float64
	MinReturns map[int]float64

	AvgBenchmarkReturns map[int]float64
	AvgExcessReturns    map[int]float64

	ByRecommendationType map[RecommendationType]TypePerformance

	BestPerformers  map[int]BacktestResult
	WorstPerformers map[int]BacktestResult
}

// PerformanceResult is one recommendation marked to the current price.
type PerformanceResult struct {
	StockCode          string
	StockName          string
	RecommendedDate    string
	RecommendedPrice   float64
	CurrentPrice       float64
	ReturnPct          float64
	DaysHeld           int
	RecommendationType RecommendationType
	Action             Action
}

// PerformanceReport summarizes live performance over a recent window.
type PerformanceReport struct {
	PeriodDays           int
	TotalRecommendations int
	AvgReturn            float64
	WinRate              float64
	BestPerformer        *PerformanceResult
	WorstPerformer       *PerformanceResult
	Results              []PerformanceResult // sorted by return desc
}
