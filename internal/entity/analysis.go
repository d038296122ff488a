package entity

// ConsecutiveBuyStock is a stock an investor class has bought on consecutive
// trading days, derived from the persisted trading history.
type ConsecutiveBuyStock struct {
	StockCode       string
	StockName       string
	ConsecutiveDays int
	InvestorType    InvestorType
	TotalNetBuy     int64
	AvgDailyBuy     int64
	PriceChangePct  float64
}

// MomentumStock is a positive-flow stock whose price is also rising.
type MomentumStock struct {
	StockCode      string
	StockName      string
	NetBuyAmount   int64
	PriceChangePct float64
	InvestorType   InvestorType
}

// FlowDirection classifies a sector's aggregate flow by sign.
type FlowDirection string

const (
	FlowInflow  FlowDirection = "inflow"
	FlowOutflow FlowDirection = "outflow"
)

// SectorFlow aggregates today's combined investor flow by sector.
type SectorFlow struct {
	Sector        string
	NetBuyAmount  int64
	StockCount    int
	TopStocks     []string
	FlowDirection FlowDirection
}

// DailySummary captures the per-run market snapshot used in notifications.
type DailySummary struct {
	Date                  string
	ForeignerTop          []FlowRecord
	InstitutionTop        []FlowRecord
	MajorShareholderCount int
	ExecutiveTradingCount int
}
