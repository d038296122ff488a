package collector

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

// FlowCollector fetches investor net-buy rankings. Any source returning the
// FlowRecord shape is interchangeable.
type FlowCollector interface {
	TopNetBuy(ctx context.Context, investor entity.InvestorType, topN int) ([]entity.FlowRecord, error)
	InvestorRankings(ctx context.Context) (foreigner, institution []entity.FlowRecord)
}

const (
	dealRankURL = "https://finance.naver.com/sise/sise_deal_rank_iframe.naver"
	userAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

	defaultTopN = 20
)

// Naver's ranking pages use numeric investor codes.
var investorCodes = map[entity.InvestorType]string{
	entity.InvestorForeigner:   "9000",
	entity.InvestorInstitution: "1000",
}

var stockCodeRe = regexp.MustCompile(`code=(\d{6})`)

// krxCollector scrapes the investor net-purchase rankings published for KRX
// markets from Naver finance.
type krxCollector struct {
	client  *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewKrxCollector creates a FlowCollector backed by Naver's deal-rank pages.
func NewKrxCollector(log *logger.Logger) FlowCollector {
	return &krxCollector{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		log:     log,
	}
}

// TopNetBuy returns the top net-buy entries for one investor class across
// KOSPI (topN) and KOSDAQ (topN/2), sorted by amount descending. Only
// positive net-buy rows are kept.
func (c *krxCollector) TopNetBuy(ctx context.Context, investor entity.InvestorType, topN int) ([]entity.FlowRecord, error) {
	if topN <= 0 {
		topN = defaultTopN
	}
	code, ok := investorCodes[investor]
	if !ok {
		return nil, fmt.Errorf("unknown investor type %q", investor)
	}

	date := utils.RecentTradingDate(utils.TimeNowKST())

	var records []entity.FlowRecord
	for market, limit := range map[string]int{"KOSPI": topN, "KOSDAQ": topN / 2} {
		rows, err := c.fetchMarket(ctx, code, market, date)
		if err != nil {
			// Partial data degrades gracefully; the run continues with what
			// was collected.
			c.log.Error("Failed to fetch investor ranking",
				logger.StringField("investor", string(investor)),
				logger.StringField("market", market),
				logger.ErrorField(err))
			continue
		}
		if len(rows) > limit {
			rows = rows[:limit]
		}
		records = append(records, rows...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].NetBuyAmount > records[j].NetBuyAmount
	})
	if len(records) > topN {
		records = records[:topN]
	}
	return records, nil
}

// InvestorRankings fetches both investor classes, treating per-source
// failures as empty lists.
func (c *krxCollector) InvestorRankings(ctx context.Context) ([]entity.FlowRecord, []entity.FlowRecord) {
	foreigner, err := c.TopNetBuy(ctx, entity.InvestorForeigner, defaultTopN)
	if err != nil {
		c.log.Error("Failed to collect foreigner rankings", logger.ErrorField(err))
	}
	institution, err := c.TopNetBuy(ctx, entity.InvestorInstitution, defaultTopN)
	if err != nil {
		c.log.Error("Failed to collect institution rankings", logger.ErrorField(err))
	}
	return foreigner, institution
}

func (c *krxCollector) fetchMarket(ctx context.Context, investorCode, market, date string) ([]entity.FlowRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	sosok := "01" // KOSPI
	if market == "KOSDAQ" {
		sosok = "02"
	}
	url := fmt.Sprintf("%s?investor_gubun=%s&type=buy&sosok=%s", dealRankURL, investorCode, sosok)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deal rank: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deal rank returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse deal rank page: %w", err)
	}

	return c.parseRows(doc, market, date), nil
}

// parseRows walks the ranking table. Columns: name, volume, amount
// (million KRW), close price, change, change rate.
func (c *krxCollector) parseRows(doc *goquery.Document, market, date string) []entity.FlowRecord {
	var records []entity.FlowRecord

	doc.Find("table.type_2 tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("td a")
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		m := stockCodeRe.FindStringSubmatch(href)
		if m == nil {
			return
		}

		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}

		amountMillion := parseNumber(cells.Eq(2).Text())
		netBuy := amountMillion * 1_000_000
		if netBuy <= 0 {
			return
		}

		records = append(records, entity.FlowRecord{
			StockCode:    m[1],
			StockName:    strings.TrimSpace(link.Text()),
			NetBuyAmount: netBuy,
			ClosePrice:   parseNumber(cells.Eq(3).Text()),
			ChangeRate:   parseRate(cells.Eq(5).Text()),
			Date:         date,
			Market:       market,
		})
	})

	return records
}

func parseNumber(text string) int64 {
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

func parseRate(text string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '-' || r == '.' || r == '+' {
			return r
		}
		return -1
	}, strings.TrimSpace(text))
	cleaned = strings.TrimPrefix(cleaned, "+")
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}
