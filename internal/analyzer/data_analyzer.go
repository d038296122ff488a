package analyzer

import (
	"sort"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/storage"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

const historyRetentionDays = 30

// sectorByCode is a static code-to-sector lookup. Codes absent from the
// table bucket into "other" and are excluded from the sector report.
var sectorByCode = map[string]string{
	// semiconductors
	"005930": "반도체", "000660": "반도체", "402340": "반도체",
	// automotive
	"005380": "자동차", "000270": "자동차", "012330": "자동차",
	// bio
	"207940": "바이오", "068270": "바이오",
	// secondary batteries
	"373220": "2차전지", "006400": "2차전지", "051910": "2차전지",
	// IT/internet
	"035420": "IT/인터넷", "035720": "IT/인터넷", "263750": "IT/인터넷",
	// financials
	"105560": "금융", "055550": "금융", "086790": "금융",
	// steel/chemicals
	"005490": "철강/화학", "010130": "철강/화학",
}

const otherSector = "기타"

// DataAnalyzer maintains the persisted daily flow history and derives
// consecutive-buy streaks, momentum stocks and sector flow from it.
type DataAnalyzer struct {
	store   *storage.Store
	log     *logger.Logger
	history storage.TradingHistory
}

// NewDataAnalyzer creates a DataAnalyzer with the history loaded.
func NewDataAnalyzer(store *storage.Store, log *logger.Logger) *DataAnalyzer {
	return &DataAnalyzer{
		store:   store,
		log:     log,
		history: store.LoadTradingHistory(),
	}
}

// UpdateHistory merges today's flow data into the history, prunes entries
// older than 30 days and persists the result. Stocks left with no days are
// removed entirely.
func (d *DataAnalyzer) UpdateHistory(foreigner, institution []entity.FlowRecord) {
	today := utils.TimeNowKST().Format(utils.DateLayout)

	d.merge(entity.InvestorForeigner, foreigner, today)
	d.merge(entity.InvestorInstitution, institution, today)
	d.pruneHistory(historyRetentionDays)

	if err := d.store.SaveTradingHistory(d.history); err != nil {
		d.log.Error("Failed to persist trading history", logger.ErrorField(err))
	}
}

func (d *DataAnalyzer) merge(investor entity.InvestorType, flows []entity.FlowRecord, today string) {
	for _, item := range flows {
		h, ok := d.history[investor][item.StockCode]
		if !ok {
			h = &storage.StockHistory{StockName: item.StockName, DailyData: map[string]storage.DailyFlow{}}
			d.history[investor][item.StockCode] = h
		}
		h.DailyData[today] = storage.DailyFlow{
			NetBuyAmount: item.NetBuyAmount,
			ClosePrice:   item.ClosePrice,
			ChangeRate:   item.ChangeRate,
		}
	}
}

func (d *DataAnalyzer) pruneHistory(days int) {
	cutoff := utils.TimeNowKST().AddDate(0, 0, -days).Format(utils.DateLayout)

	for _, byCode := range d.history {
		for code, h := range byCode {
			for date := range h.DailyData {
				if date < cutoff {
					delete(h.DailyData, date)
				}
			}
			if len(h.DailyData) == 0 {
				delete(byCode, code)
			}
		}
	}
}

// ConsecutiveBuyStocks walks each stock's history newest first, counting a
// streak that stops at the first non-positive day. Results are filtered by
// minimum streak length and sorted by (streak, total amount) descending.
func (d *DataAnalyzer) ConsecutiveBuyStocks(investor entity.InvestorType, minDays, topN int) []entity.ConsecutiveBuyStock {
	var results []entity.ConsecutiveBuyStock

	for code, h := range d.history[investor] {
		if len(h.DailyData) == 0 {
			continue
		}

		dates := make([]string, 0, len(h.DailyData))
		for date := range h.DailyData {
			dates = append(dates, date)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(dates)))

		streak := 0
		var totalNetBuy int64
		var firstPrice, lastPrice int64

		for _, date := range dates {
			day := h.DailyData[date]
			if day.NetBuyAmount <= 0 {
				break
			}
			streak++
			totalNetBuy += day.NetBuyAmount
			if firstPrice == 0 {
				firstPrice = day.ClosePrice
			}
			lastPrice = day.ClosePrice
		}

		if streak < minDays {
			continue
		}

		priceChange := 0.0
		if firstPrice > 0 && lastPrice > 0 {
			priceChange = float64(firstPrice-lastPrice) / float64(lastPrice) * 100
		}

		results = append(results, entity.ConsecutiveBuyStock{
			StockCode:       code,
			StockName:       h.StockName,
			ConsecutiveDays: streak,
			InvestorType:    investor,
			TotalNetBuy:     totalNetBuy,
			AvgDailyBuy:     totalNetBuy / int64(streak),
			PriceChangePct:  round2(priceChange),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].ConsecutiveDays != results[j].ConsecutiveDays {
			return results[i].ConsecutiveDays > results[j].ConsecutiveDays
		}
		if results[i].TotalNetBuy != results[j].TotalNetBuy {
			return results[i].TotalNetBuy > results[j].TotalNetBuy
		}
		return results[i].StockCode < results[j].StockCode
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// MomentumStocks filters today's positive-flow entries whose price change
// meets the minimum, ranked by 0.4*changePct + 0.6*(amount in hundred
// millions). A stock present in both lists keeps its foreigner entry.
func (d *DataAnalyzer) MomentumStocks(foreigner, institution []entity.FlowRecord, minPriceChange float64, topN int) []entity.MomentumStock {
	var results []entity.MomentumStock
	seen := map[string]bool{}

	add := func(item entity.FlowRecord, investor entity.InvestorType) {
		if item.NetBuyAmount <= 0 || item.ChangeRate < minPriceChange {
			return
		}
		if seen[item.StockCode] {
			return
		}
		seen[item.StockCode] = true
		results = append(results, entity.MomentumStock{
			StockCode:      item.StockCode,
			StockName:      item.StockName,
			NetBuyAmount:   item.NetBuyAmount,
			PriceChangePct: item.ChangeRate,
			InvestorType:   investor,
		})
	}

	for _, item := range foreigner {
		add(item, entity.InvestorForeigner)
	}
	for _, item := range institution {
		add(item, entity.InvestorInstitution)
	}

	momentumScore := func(s entity.MomentumStock) float64 {
		return s.PriceChangePct*0.4 + float64(s.NetBuyAmount)/float64(entity.HundredMillionKRW)*0.6
	}
	sort.SliceStable(results, func(i, j int) bool {
		return momentumScore(results[i]) > momentumScore(results[j])
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// SectorFlow groups today's combined flow by the static sector table,
// classifies inflow/outflow by sign and ranks by absolute magnitude.
func (d *DataAnalyzer) SectorFlow(foreigner, institution []entity.FlowRecord, topN int) []entity.SectorFlow {
	type sectorAgg struct {
		netBuyAmount int64
		stocks       []entity.FlowRecord
	}
	bySector := map[string]*sectorAgg{}

	for _, item := range append(append([]entity.FlowRecord{}, foreigner...), institution...) {
		sector, ok := sectorByCode[item.StockCode]
		if !ok {
			sector = otherSector
		}
		agg, ok := bySector[sector]
		if !ok {
			agg = &sectorAgg{}
			bySector[sector] = agg
		}
		agg.netBuyAmount += item.NetBuyAmount
		agg.stocks = append(agg.stocks, item)
	}

	var results []entity.SectorFlow
	for sector, agg := range bySector {
		if sector == otherSector {
			continue
		}

		sort.SliceStable(agg.stocks, func(i, j int) bool {
			return agg.stocks[i].NetBuyAmount > agg.stocks[j].NetBuyAmount
		})
		var topStocks []string
		for i, s := range agg.stocks {
			if i >= 3 {
				break
			}
			topStocks = append(topStocks, s.StockName)
		}

		direction := entity.FlowOutflow
		if agg.netBuyAmount > 0 {
			direction = entity.FlowInflow
		}

		results = append(results, entity.SectorFlow{
			Sector:        sector,
			NetBuyAmount:  agg.netBuyAmount,
			StockCount:    len(agg.stocks),
			TopStocks:     topStocks,
			FlowDirection: direction,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		ai, aj := abs64(results[i].NetBuyAmount), abs64(results[j].NetBuyAmount)
		if ai != aj {
			return ai > aj
		}
		return results[i].Sector < results[j].Sector
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// AnalysisResults bundles the insight channels sent in one notification.
type AnalysisResults struct {
	ConsecutiveForeigner   []entity.ConsecutiveBuyStock
	ConsecutiveInstitution []entity.ConsecutiveBuyStock
	MomentumStocks         []entity.MomentumStock
	SectorFlow             []entity.SectorFlow
}

// AllAnalysis updates the history with today's data and derives every
// insight channel.
func (d *DataAnalyzer) AllAnalysis(foreigner, institution []entity.FlowRecord) AnalysisResults {
	d.UpdateHistory(foreigner, institution)

	return AnalysisResults{
		ConsecutiveForeigner:   d.ConsecutiveBuyStocks(entity.InvestorForeigner, 2, 5),
		ConsecutiveInstitution: d.ConsecutiveBuyStocks(entity.InvestorInstitution, 2, 5),
		MomentumStocks:         d.MomentumStocks(foreigner, institution, 1.0, 5),
		SectorFlow:             d.SectorFlow(foreigner, institution, 5),
	}
}
