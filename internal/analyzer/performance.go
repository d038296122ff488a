package analyzer

import (
	"context"
	"sort"
	"time"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/internal/storage"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

// Recommendations older than this are dropped from the persisted log.
const recommendationRetentionDays = 90

// PerformanceTracker persists the day's recommendations with their entry
// prices and marks them to the current market later.
type PerformanceTracker struct {
	prices repository.PriceRepository
	store  *storage.Store
	log    *logger.Logger
}

// NewPerformanceTracker creates a PerformanceTracker.
func NewPerformanceTracker(prices repository.PriceRepository, store *storage.Store, log *logger.Logger) *PerformanceTracker {
	return &PerformanceTracker{prices: prices, store: store, log: log}
}

// SaveRecommendations appends today's recommendations with quoted entry
// prices. A day is recorded at most once: any existing record for today makes
// the call a no-op. Rule-based entries take precedence over score-based
// duplicates of the same stock.
func (t *PerformanceTracker) SaveRecommendations(ctx context.Context, ruleBased, scoreBased []entity.Recommendation) error {
	today := utils.TimeNowKST().Format(utils.DateLayout)
	records := t.store.LoadRecommendations()

	for _, rec := range records {
		if rec.RecommendedDate == today {
			t.log.Debug("Recommendations already recorded today", logger.StringField("date", today))
			return nil
		}
	}

	seen := map[string]bool{}
	appendRecs := func(recs []entity.Recommendation, recType entity.RecommendationType) {
		for _, rec := range recs {
			if seen[rec.StockCode] {
				continue
			}
			seen[rec.StockCode] = true

			price := 0.0
			if quote, err := t.prices.Quote(ctx, rec.StockCode); err != nil {
				t.log.Warn("Failed to quote recommendation entry price",
					logger.StringField("stock_code", rec.StockCode), logger.ErrorField(err))
			} else {
				price = float64(quote.CurrentPrice)
			}
			if price == 0 {
				continue
			}

			records = append(records, entity.RecommendationRecord{
				StockCode:          rec.StockCode,
				StockName:          rec.StockName,
				RecommendedDate:    today,
				RecommendedPrice:   price,
				RecommendationType: recType,
				Action:             rec.Action,
				Score:              rec.Score,
				Reasons:            rec.Reasons,
			})
		}
	}
	appendRecs(ruleBased, entity.RecommendationRuleBased)
	appendRecs(scoreBased, entity.RecommendationScoreBased)

	records = pruneRecords(records, recommendationRetentionDays)
	return t.store.SaveRecommendations(records)
}

func pruneRecords(records []entity.RecommendationRecord, days int) []entity.RecommendationRecord {
	cutoff := utils.TimeNowKST().AddDate(0, 0, -days).Format(utils.DateLayout)
	kept := records[:0]
	for _, rec := range records {
		if rec.RecommendedDate >= cutoff {
			kept = append(kept, rec)
		}
	}
	return kept
}

// SummaryStats counts the persisted recommendation log by strategy.
func (t *PerformanceTracker) SummaryStats() (total int, byType map[entity.RecommendationType]int, oldestDate string) {
	byType = map[entity.RecommendationType]int{}
	for _, rec := range t.store.LoadRecommendations() {
		total++
		byType[rec.RecommendationType]++
		if oldestDate == "" || rec.RecommendedDate < oldestDate {
			oldestDate = rec.RecommendedDate
		}
	}
	return total, byType, oldestDate
}

// Report marks every recommendation from the last given days to the current
// price. Stocks with no quote are skipped.
func (t *PerformanceTracker) Report(ctx context.Context, days int) (*entity.PerformanceReport, error) {
	now := utils.TimeNowKST()
	cutoff := now.AddDate(0, 0, -days).Format(utils.DateLayout)
	today := now.Format(utils.DateLayout)
	todayDate, _ := time.Parse(utils.DateLayout, today)

	var results []entity.PerformanceResult
	for _, rec := range t.store.LoadRecommendations() {
		if rec.RecommendedDate < cutoff || rec.RecommendedDate >= today {
			continue
		}

		quote, err := t.prices.Quote(ctx, rec.StockCode)
		if err != nil {
			t.log.Warn("Failed to quote stock for performance report",
				logger.StringField("stock_code", rec.StockCode), logger.ErrorField(err))
			continue
		}
		if rec.RecommendedPrice <= 0 || quote.CurrentPrice <= 0 {
			continue
		}

		recDate, err := time.Parse(utils.DateLayout, rec.RecommendedDate)
		if err != nil {
			continue
		}

		current := float64(quote.CurrentPrice)
		results = append(results, entity.PerformanceResult{
			StockCode:          rec.StockCode,
			StockName:          rec.StockName,
			RecommendedDate:    rec.RecommendedDate,
			RecommendedPrice:   rec.RecommendedPrice,
			CurrentPrice:       current,
			ReturnPct:          round2((current - rec.RecommendedPrice) / rec.RecommendedPrice * 100),
			DaysHeld:           int(todayDate.Sub(recDate).Hours() / 24),
			RecommendationType: rec.RecommendationType,
			Action:             rec.Action,
		})
	}

	if len(results) == 0 {
		return nil, nil
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].ReturnPct != results[j].ReturnPct {
			return results[i].ReturnPct > results[j].ReturnPct
		}
		return results[i].StockCode < results[j].StockCode
	})

	wins := 0
	var returns []float64
	for _, r := range results {
		returns = append(returns, r.ReturnPct)
		if r.ReturnPct > 0 {
			wins++
		}
	}

	return &entity.PerformanceReport{
		PeriodDays:           days,
		TotalRecommendations: len(results),
		AvgReturn:            round2(mean(returns)),
		WinRate:              round2(float64(wins) / float64(len(results)) * 100),
		BestPerformer:        &results[0],
		WorstPerformer:       &results[len(results)-1],
		Results:              results,
	}, nil
}
