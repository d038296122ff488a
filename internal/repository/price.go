package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

// BenchmarkSymbol is the broad-market index used for excess-return
// computation.
const BenchmarkSymbol = "KOSPI"

// PriceRepository serves quotes and daily candles for KRX symbols.
type PriceRepository interface {
	Quote(ctx context.Context, stockCode string) (*entity.StockQuote, error)
	DailyCandles(ctx context.Context, symbol string, start, end time.Time) ([]entity.Candle, error)
}

const (
	naverItemURL = "https://finance.naver.com/item/main.naver"
	naverSiseURL = "https://api.finance.naver.com/siseJson.naver"
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

	quoteCacheTTL = 5 * time.Minute
)

// naverPriceRepository scrapes quotes from the Naver finance item page and
// daily candles from the siseJson endpoint.
type naverPriceRepository struct {
	client     *http.Client
	limiter    *rate.Limiter
	quoteCache *cache.Cache
	log        *logger.Logger
}

// NewNaverPriceRepository creates a PriceRepository backed by Naver finance.
func NewNaverPriceRepository(log *logger.Logger) PriceRepository {
	return &naverPriceRepository{
		client:     &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(300*time.Millisecond), 1),
		quoteCache: cache.New(quoteCacheTTL, 10*time.Minute),
		log:        log,
	}
}

// Quote fetches the near-realtime quote for a stock, memoized for five
// minutes within the process.
func (r *naverPriceRepository) Quote(ctx context.Context, stockCode string) (*entity.StockQuote, error) {
	if cached, ok := r.quoteCache.Get(stockCode); ok {
		return cached.(*entity.StockQuote), nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?code=%s", naverItemURL, stockCode), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create quote request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", stockCode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote page for %s returned status %d", stockCode, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quote page for %s: %w", stockCode, err)
	}

	quote, err := r.parseQuote(doc, stockCode)
	if err != nil {
		return nil, err
	}

	r.quoteCache.Set(stockCode, quote, cache.DefaultExpiration)
	return quote, nil
}

func (r *naverPriceRepository) parseQuote(doc *goquery.Document, stockCode string) (*entity.StockQuote, error) {
	name := strings.TrimSpace(doc.Find("div.wrap_company h2 a").First().Text())
	if name == "" {
		name = stockCode
	}

	today := doc.Find("div.rate_info div.today")
	current := parsePrice(today.Find("p.no_today span.blind").First().Text())
	if current == 0 {
		return nil, fmt.Errorf("no current price found for %s", stockCode)
	}

	exday := today.Find("p.no_exday")
	change := parsePrice(exday.Find("span.blind").Eq(0).Text())
	changeRate := parseFloat(exday.Find("span.blind").Eq(1).Text())
	if exday.Find("em.no_down").Length() > 0 {
		change = -change
		changeRate = -changeRate
	}

	// The "no_info" table carries previous close, open, high, low, volume.
	info := doc.Find("table.no_info span.blind")
	quote := &entity.StockQuote{
		StockCode:    stockCode,
		StockName:    name,
		CurrentPrice: current,
		ChangePrice:  change,
		ChangeRate:   changeRate,
		HighPrice:    parsePrice(info.Eq(1).Text()),
		LowPrice:     parsePrice(info.Eq(5).Text()),
		OpenPrice:    parsePrice(info.Eq(4).Text()),
		Volume:       parsePrice(info.Eq(3).Text()),
	}
	if quote.HighPrice == 0 {
		quote.HighPrice = current
	}
	if quote.LowPrice == 0 {
		quote.LowPrice = current
	}
	if quote.OpenPrice == 0 {
		quote.OpenPrice = current
	}
	return quote, nil
}

// DailyCandles fetches daily OHLC bars for [start, end]. The symbol is a
// six-digit stock code or an index name such as "KOSPI".
func (r *naverPriceRepository) DailyCandles(ctx context.Context, symbol string, start, end time.Time) ([]entity.Candle, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s?symbol=%s&requestType=1&startTime=%s&endTime=%s&timeframe=day",
		naverSiseURL, symbol, start.Format(utils.KrxDateLayout), end.Format(utils.KrxDateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create candle request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("candle endpoint for %s returned status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read candle response: %w", err)
	}

	candles, err := parseSiseJSON(body)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		r.log.Warn("No candles returned", logger.StringField("symbol", symbol))
	}
	return candles, nil
}

var (
	siseQuoteRe         = regexp.MustCompile(`'([^']*)'`)
	siseTrailingCommaRe = regexp.MustCompile(`,\s*]`)
)

// parseSiseJSON decodes Naver's quasi-JSON candle payload: a nested array
// with single-quoted strings, a header row and trailing commas.
func parseSiseJSON(body []byte) ([]entity.Candle, error) {
	normalized := siseQuoteRe.ReplaceAll(body, []byte(`"$1"`))
	normalized = siseTrailingCommaRe.ReplaceAll(normalized, []byte("]"))

	var rows [][]interface{}
	if err := json.Unmarshal(normalized, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode candle payload: %w", err)
	}

	var candles []entity.Candle
	for i, row := range rows {
		if i == 0 || len(row) < 5 { // header row
			continue
		}
		date, ok := row[0].(string)
		if !ok || len(date) != 8 {
			continue
		}
		candles = append(candles, entity.Candle{
			Date:  fmt.Sprintf("%s-%s-%s", date[:4], date[4:6], date[6:]),
			Open:  toFloat(row[1]),
			High:  toFloat(row[2]),
			Low:   toFloat(row[3]),
			Close: toFloat(row[4]),
		})
	}
	return candles, nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64)
		return f
	}
	return 0
}

func parsePrice(text string) int64 {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '-' {
			return r
		}
		return -1
	}, strings.TrimSpace(text))
	if cleaned == "" || cleaned == "-" {
		return 0
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(text string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '-' || r == '.' {
			return r
		}
		return -1
	}, strings.TrimSpace(text))
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}
