package analyzer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/internal/storage"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

const (
	// Recommendations newer than this many days are skipped so every
	// holding period has room to resolve.
	backtestTailDays = 25
	// Closes are fetched this many calendar days past the recommendation
	// date to cover 20 trading days.
	backtestFetchWindowDays = 35

	typePerformancePeriod = 5
)

// Backtester replays persisted recommendations against historical closes and
// reports per-period returns with a KOSPI benchmark.
type Backtester struct {
	prices repository.PriceRepository
	store  *storage.Store
	log    *logger.Logger
	cache  storage.PriceCache
}

// NewBacktester creates a Backtester with the persisted price cache loaded.
func NewBacktester(prices repository.PriceRepository, store *storage.Store, log *logger.Logger) *Backtester {
	return &Backtester{
		prices: prices,
		store:  store,
		log:    log,
		cache:  store.LoadPriceCache(),
	}
}

// Run backtests every recommendation recorded between days ago and 25 days
// ago, then aggregates a summary. Returns nil when nothing qualifies.
func (b *Backtester) Run(ctx context.Context, days int) (*entity.BacktestSummary, []entity.BacktestResult, error) {
	now := utils.TimeNowKST()
	windowStart := now.AddDate(0, 0, -days).Format(utils.DateLayout)
	windowEnd := now.AddDate(0, 0, -backtestTailDays).Format(utils.DateLayout)

	var candidates []entity.RecommendationRecord
	for _, rec := range b.store.LoadRecommendations() {
		if rec.RecommendedDate >= windowStart && rec.RecommendedDate <= windowEnd {
			candidates = append(candidates, rec)
		}
	}
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	b.log.Info("Backtesting recommendations",
		logger.IntField("count", len(candidates)), logger.IntField("window_days", days))

	var results []entity.BacktestResult
	for _, rec := range candidates {
		result, err := b.backtestOne(ctx, rec)
		if err != nil {
			b.log.Warn("Skipping recommendation in backtest",
				logger.StringField("stock_code", rec.StockCode), logger.ErrorField(err))
			continue
		}
		results = append(results, *result)
	}

	if err := b.store.SavePriceCache(b.cache); err != nil {
		b.log.Error("Failed to persist backtest price cache", logger.ErrorField(err))
	}

	if len(results) == 0 {
		return nil, nil, nil
	}

	summary := b.summarize(results, days)
	return summary, results, nil
}

func (b *Backtester) backtestOne(ctx context.Context, rec entity.RecommendationRecord) (*entity.BacktestResult, error) {
	closes, err := b.closes(ctx, rec.StockCode, rec.RecommendedDate)
	if err != nil {
		return nil, err
	}
	benchmark, err := b.closes(ctx, repository.BenchmarkSymbol, rec.RecommendedDate)
	if err != nil {
		b.log.Warn("Benchmark closes unavailable", logger.ErrorField(err))
		benchmark = nil
	}

	result := &entity.BacktestResult{
		StockCode:          rec.StockCode,
		StockName:          rec.StockName,
		RecommendedDate:    rec.RecommendedDate,
		RecommendedPrice:   rec.RecommendedPrice,
		RecommendationType: rec.RecommendationType,
		Returns:            map[int]*float64{},
		BenchmarkReturns:   map[int]*float64{},
		ExcessReturns:      map[int]*float64{},
	}

	for _, period := range entity.HoldingPeriods {
		result.Returns[period] = periodReturn(closes, rec.RecommendedDate, period, rec.RecommendedPrice)
		result.BenchmarkReturns[period] = benchmarkReturn(benchmark, rec.RecommendedDate, period)

		if r, br := result.Returns[period], result.BenchmarkReturns[period]; r != nil && br != nil {
			excess := round2(*r - *br)
			result.ExcessReturns[period] = &excess
		}
	}
	return result, nil
}

// closes returns the date-to-close map for the fetch window starting at the
// recommendation date, consulting the persisted cache first.
func (b *Backtester) closes(ctx context.Context, symbol, recommendedDate string) (map[string]float64, error) {
	start, err := time.Parse(utils.DateLayout, recommendedDate)
	if err != nil {
		return nil, fmt.Errorf("invalid recommendation date %q: %w", recommendedDate, err)
	}
	end := start.AddDate(0, 0, backtestFetchWindowDays)

	key := fmt.Sprintf("%s_%s_%s", symbol, start.Format(utils.DateLayout), end.Format(utils.DateLayout))
	if cached, ok := b.cache[key]; ok {
		return cached, nil
	}

	bars, err := b.prices.DailyCandles(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	closes := map[string]float64{}
	for _, bar := range bars {
		closes[bar.Date] = bar.Close
	}
	b.cache[key] = closes
	return closes, nil
}

// tradingCloses returns the window's closes in date order, starting from the
// first trading day at or after the recommendation date.
func tradingCloses(closes map[string]float64, recommendedDate string) []float64 {
	dates := make([]string, 0, len(closes))
	for date := range closes {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for i, date := range dates {
		if date >= recommendedDate {
			series := make([]float64, 0, len(dates)-i)
			for _, d := range dates[i:] {
				series = append(series, closes[d])
			}
			return series
		}
	}
	return nil
}

// periodReturn is the percent return from the recorded entry price to the
// close the given number of trading days after the recommendation date. The
// entry price is the intraday quote captured at recommendation time, so it is
// the base even when it differs from that day's close. Nil when the exit
// close is missing.
func periodReturn(closes map[string]float64, recommendedDate string, period int, entryPrice float64) *float64 {
	if entryPrice <= 0 {
		return nil
	}
	series := tradingCloses(closes, recommendedDate)
	if period >= len(series) {
		return nil
	}

	ret := round2((series[period] - entryPrice) / entryPrice * 100)
	return &ret
}

// benchmarkReturn is the percent return of the index over the same trading
// days. The index has no entry price, so the first close in the window is the
// base.
func benchmarkReturn(closes map[string]float64, recommendedDate string, period int) *float64 {
	series := tradingCloses(closes, recommendedDate)
	if period >= len(series) || series[0] <= 0 {
		return nil
	}

	ret := round2((series[period] - series[0]) / series[0] * 100)
	return &ret
}

func (b *Backtester) summarize(results []entity.BacktestResult, days int) *entity.BacktestSummary {
	summary := &entity.BacktestSummary{
		Period:               fmt.Sprintf("최근 %d일", days),
		TotalRecommendations: len(results),
		HoldingPeriods:       entity.HoldingPeriods,
		AvgReturns:           map[int]float64{},
		WinRates:             map[int]float64{},
		MaxReturns:           map[int]float64{},
		MinReturns:           map[int]float64{},
		AvgBenchmarkReturns:  map[int]float64{},
		AvgExcessReturns:     map[int]float64{},
		ByRecommendationType: map[entity.RecommendationType]entity.TypePerformance{},
		BestPerformers:       map[int]entity.BacktestResult{},
		WorstPerformers:      map[int]entity.BacktestResult{},
	}

	for _, period := range entity.HoldingPeriods {
		var returns, benchmarks, excesses []float64
		wins := 0
		bestIdx, worstIdx := -1, -1

		for i, r := range results {
			ret := r.Returns[period]
			if ret == nil {
				continue
			}
			returns = append(returns, *ret)
			if *ret > 0 {
				wins++
			}
			if bestIdx < 0 || *ret > *results[bestIdx].Returns[period] {
				bestIdx = i
			}
			if worstIdx < 0 || *ret < *results[worstIdx].Returns[period] {
				worstIdx = i
			}
			if br := r.BenchmarkReturns[period]; br != nil {
				benchmarks = append(benchmarks, *br)
			}
			if er := r.ExcessReturns[period]; er != nil {
				excesses = append(excesses, *er)
			}
		}
		if len(returns) == 0 {
			continue
		}

		summary.AvgReturns[period] = round2(mean(returns))
		summary.WinRates[period] = round2(float64(wins) / float64(len(returns)) * 100)
		summary.MaxReturns[period] = maxOf(returns)
		summary.MinReturns[period] = minOf(returns)
		if len(benchmarks) > 0 {
			summary.AvgBenchmarkReturns[period] = round2(mean(benchmarks))
		}
		if len(excesses) > 0 {
			summary.AvgExcessReturns[period] = round2(mean(excesses))
		}
		summary.BestPerformers[period] = results[bestIdx]
		summary.WorstPerformers[period] = results[worstIdx]
	}

	byType := map[entity.RecommendationType][]float64{}
	for _, r := range results {
		ret := r.Returns[typePerformancePeriod]
		if ret == nil {
			continue
		}
		byType[r.RecommendationType] = append(byType[r.RecommendationType], *ret)
	}
	for recType, returns := range byType {
		wins := 0
		for _, ret := range returns {
			if ret > 0 {
				wins++
			}
		}
		summary.ByRecommendationType[recType] = entity.TypePerformance{
			Count:       len(returns),
			AvgReturn5D: round2(mean(returns)),
			WinRate5D:   round2(float64(wins) / float64(len(returns)) * 100),
		}
	}
	return summary
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
