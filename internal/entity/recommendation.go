package entity

// Action is the suggested trade action of a recommendation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
	ActionSell Action = "SELL"
)

// RecommendationType identifies which strategy produced a recommendation.
type RecommendationType string

const (
	RecommendationRuleBased  RecommendationType = "rule_based"
	RecommendationScoreBased RecommendationType = "score_based"
	RecommendationAI         RecommendationType = "ai"
)

// Recommendation is one ranked trade idea produced per run.
type Recommendation struct {
	StockCode   string
	StockName   string
	Action      Action
	Score       float64 // 0..100
	Reasons     []string
	RiskFactors []string
}

// RecommendationRecord is the persisted form of a recommendation, written to
// the append-only log for later backtesting.
type RecommendationRecord struct {
	StockCode          string             `json:"stock_code"`
	StockName          string             `json:"stock_name"`
	RecommendedDate    string             `json:"recommended_date"` // YYYY-MM-DD
	RecommendedPrice   float64            `json:"recommended_price"`
	RecommendationType RecommendationType `json:"recommendation_type"`
	Action             Action             `json:"action"`
	Score              float64            `json:"score"`
	Reasons            []string           `json:"reasons"`
}
