package entity

// PriceAlertType says which side of the target price fires the alert.
type PriceAlertType string

const (
	PriceAlertBelow PriceAlertType = "below"
	PriceAlertAbove PriceAlertType = "above"
)

// PriceAlert is a user-managed target-price alert. Mutated in place when
// triggered; kept until explicitly cleared or reset.
type PriceAlert struct {
	StockCode   string         `json:"stock_code"`
	StockName   string         `json:"stock_name"`
	AlertType   PriceAlertType `json:"alert_type"`
	TargetPrice int64          `json:"target_price"`
	Memo        string         `json:"memo,omitempty"`
	CreatedAt   string         `json:"created_at"`
	Triggered   bool           `json:"triggered"`
	TriggeredAt string         `json:"triggered_at,omitempty"`
}

// TriggeredAlert is a fired alert with the quote that tripped it.
type TriggeredAlert struct {
	PriceAlert
	CurrentPrice int64
	ChangeRate   float64
}
