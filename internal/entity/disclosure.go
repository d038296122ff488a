package entity

// DisclosureType identifies the filing category a disclosure was filtered into.
type DisclosureType string

const (
	DisclosureMajorShareholder DisclosureType = "major_shareholder"
	DisclosureExecutiveTrading DisclosureType = "executive_trading"
)

// DisclosureRecord is one regulatory filing from the DART open API.
// RceptNo uniquely identifies a filing.
type DisclosureRecord struct {
	Type       DisclosureType `json:"type"`
	CorpName   string         `json:"corp_name"`
	CorpCode   string         `json:"corp_code"`
	StockCode  string         `json:"stock_code"`
	ReportName string         `json:"report_name"`
	RceptNo    string         `json:"rcept_no"`
	RceptDate  string         `json:"rcept_date"` // YYYYMMDD
	FilerName  string         `json:"flr_nm"`
}
