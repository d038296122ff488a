package entity

// Candle is one daily OHLC price bar.
type Candle struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// StockQuote is a near-realtime quote scraped from Naver finance.
type StockQuote struct {
	StockCode    string
	StockName    string
	CurrentPrice int64
	ChangePrice  int64 // vs previous close, signed
	ChangeRate   float64
	HighPrice    int64
	LowPrice     int64
	OpenPrice    int64
	Volume       int64
}
