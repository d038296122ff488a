package entity

// HundredMillionKRW is one 억원 in KRW, the unit thresholds are configured in.
const HundredMillionKRW int64 = 100_000_000

// InvestorType identifies which investor class a flow record belongs to.
type InvestorType string

const (
	InvestorForeigner   InvestorType = "foreigner"
	InvestorInstitution InvestorType = "institution"
)

// FlowRecord is one stock's net purchase by an investor class on a date.
// Produced fresh by the KRX collector each run; immutable once produced.
type FlowRecord struct {
	StockCode    string  `json:"stock_code"`
	StockName    string  `json:"stock_name"`
	NetBuyAmount int64   `json:"net_buy_amount"` // KRW
	ClosePrice   int64   `json:"close_price"`
	ChangeRate   float64 `json:"change_rate"` // %
	Date         string  `json:"date"`        // YYYYMMDD
	Market       string  `json:"market"`      // KOSPI or KOSDAQ
}

// AmountInHundredMillion returns the net buy amount in hundred-million KRW.
func (f FlowRecord) AmountInHundredMillion() float64 {
	return float64(f.NetBuyAmount) / float64(HundredMillionKRW)
}
