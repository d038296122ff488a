// Package storage centralizes the flat-file JSON state the tracker persists
// between runs. Corrupt files are reset to empty defaults; writes go through
// a temp file and rename so a crashed run never leaves a truncated store.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/pkg/logger"
)

const (
	dedupStateFile     = "state.json"
	recommendationFile = "recommendations.json"
	priceCacheFile     = "backtest_cache.json"
	tradingHistoryFile = "trading_history.json"
	priceAlertFile     = "price_alerts.json"
	geminiUsageFile    = "gemini_usage.json"
)

// DedupState is the persisted alert-dedup record.
type DedupState struct {
	LastRun    string            `json:"last_run,omitempty"`
	SentAlerts map[string]string `json:"sent_alerts"` // alert id -> RFC3339 sent time
}

// DailyFlow is one day's flow entry inside the trading history.
type DailyFlow struct {
	NetBuyAmount int64   `json:"net_buy_amount"`
	ClosePrice   int64   `json:"close_price"`
	ChangeRate   float64 `json:"change_rate"`
}

// StockHistory is the per-stock slice of the trading history.
type StockHistory struct {
	StockName string               `json:"stock_name"`
	DailyData map[string]DailyFlow `json:"daily_data"` // YYYY-MM-DD -> flow
}

// TradingHistory maps investor type -> stock code -> history.
type TradingHistory map[entity.InvestorType]map[string]*StockHistory

// PriceCache maps "{code}_{start}_{end}" -> date -> close.
type PriceCache map[string]map[string]float64

// GeminiUsage is the persisted daily request counter.
type GeminiUsage struct {
	Date        string `json:"date"`
	Count       int    `json:"count"`
	WarningSent bool   `json:"warning_sent"`
}

// Store reads and writes the data directory.
type Store struct {
	dir string
	log *logger.Logger
}

// New creates the data directory if needed and returns a Store.
func New(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return &Store{dir: dir, log: log}, nil
}

// load decodes the named file into v. Missing or corrupt files leave v at
// its zero value; corruption is logged, never fatal.
func (s *Store) load(name string, v interface{}) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("Failed to read state file", logger.StringField("file", name), logger.ErrorField(err))
		}
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn("Corrupt state file, resetting to defaults", logger.StringField("file", name), logger.ErrorField(err))
		// Unmarshal may have decoded some fields before failing; wipe them
		// so the caller really gets the defaults.
		rv := reflect.ValueOf(v).Elem()
		rv.Set(reflect.Zero(rv.Type()))
	}
}

// save writes v to the named file via temp file + rename.
func (s *Store) save(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// LoadDedupState loads the sent-alert dedup map.
func (s *Store) LoadDedupState() DedupState {
	st := DedupState{}
	s.load(dedupStateFile, &st)
	if st.SentAlerts == nil {
		st.SentAlerts = map[string]string{}
	}
	return st
}

// SaveDedupState persists the dedup map.
func (s *Store) SaveDedupState(st DedupState) error {
	return s.save(dedupStateFile, st)
}

// LoadRecommendations loads the append-only recommendation log.
func (s *Store) LoadRecommendations() []entity.RecommendationRecord {
	var recs []entity.RecommendationRecord
	s.load(recommendationFile, &recs)
	return recs
}

// SaveRecommendations persists the recommendation log.
func (s *Store) SaveRecommendations(recs []entity.RecommendationRecord) error {
	return s.save(recommendationFile, recs)
}

// LoadPriceCache loads the backtest price cache.
func (s *Store) LoadPriceCache() PriceCache {
	pc := PriceCache{}
	s.load(priceCacheFile, &pc)
	return pc
}

// SavePriceCache persists the backtest price cache.
func (s *Store) SavePriceCache(pc PriceCache) error {
	return s.save(priceCacheFile, pc)
}

// LoadTradingHistory loads the per-investor daily flow history.
func (s *Store) LoadTradingHistory() TradingHistory {
	th := TradingHistory{}
	s.load(tradingHistoryFile, &th)
	for _, inv := range []entity.InvestorType{entity.InvestorForeigner, entity.InvestorInstitution} {
		if th[inv] == nil {
			th[inv] = map[string]*StockHistory{}
		}
	}
	return th
}

// SaveTradingHistory persists the flow history.
func (s *Store) SaveTradingHistory(th TradingHistory) error {
	return s.save(tradingHistoryFile, th)
}

// LoadPriceAlerts loads the configured price alerts.
func (s *Store) LoadPriceAlerts() []entity.PriceAlert {
	var alerts []entity.PriceAlert
	s.load(priceAlertFile, &alerts)
	return alerts
}

// SavePriceAlerts persists the price alerts.
func (s *Store) SavePriceAlerts(alerts []entity.PriceAlert) error {
	return s.save(priceAlertFile, alerts)
}

// LoadGeminiUsage loads the daily API usage counter.
func (s *Store) LoadGeminiUsage() GeminiUsage {
	u := GeminiUsage{}
	s.load(geminiUsageFile, &u)
	return u
}

// SaveGeminiUsage persists the usage counter.
func (s *Store) SaveGeminiUsage(u GeminiUsage) error {
	return s.save(geminiUsageFile, u)
}
