package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/storage"
	"golang-stock-tracker/pkg/config"
	"golang-stock-tracker/pkg/utils"
)

func testAlertConfig() *config.Config {
	return &config.Config{
		Alert: config.Alert{MinNetBuyAmount: 100, DedupWindowDays: 7},
	}
}

func TestAnalyzeFlowSignals(t *testing.T) {
	store := newTestStore(t)
	a := NewSignalAnalyzer(testAlertConfig(), store, newTestLogger(t))

	foreigner := []entity.FlowRecord{
		flow("005930", "삼성전자", 250), // twice the threshold
		flow("000660", "SK하이닉스", 150),
		flow("035420", "NAVER", 50), // below threshold
	}

	signals := a.Analyze(foreigner, nil, nil, nil)
	require.Len(t, signals, 2)

	// High priority sorts first.
	assert.Equal(t, entity.PriorityHigh, signals[0].Priority)
	assert.Equal(t, "005930", signals[0].Flow.StockCode)
	assert.Equal(t, entity.PriorityMedium, signals[1].Priority)
	assert.Equal(t, "000660", signals[1].Flow.StockCode)
}

func TestAnalyzeDeduplicatesAcrossRuns(t *testing.T) {
	store := newTestStore(t)
	cfg := testAlertConfig()

	foreigner := []entity.FlowRecord{flow("005930", "삼성전자", 250)}
	major := []entity.DisclosureRecord{{
		Type:     entity.DisclosureMajorShareholder,
		CorpName: "삼성전자",
		RceptNo:  "20250115000001",
	}}

	a := NewSignalAnalyzer(cfg, store, newTestLogger(t))
	first := a.Analyze(foreigner, nil, major, nil)
	require.Len(t, first, 2)

	// A fresh analyzer sees the persisted state and emits nothing.
	b := NewSignalAnalyzer(cfg, store, newTestLogger(t))
	second := b.Analyze(foreigner, nil, major, nil)
	assert.Empty(t, second)
}

func TestAnalyzeNetSellingSignals(t *testing.T) {
	store := newTestStore(t)
	a := NewSignalAnalyzer(testAlertConfig(), store, newTestLogger(t))

	foreigner := []entity.FlowRecord{flow("005930", "삼성전자", -150)}

	signals := a.Analyze(foreigner, nil, nil, nil)
	require.Len(t, signals, 1)
	assert.Contains(t, signals[0].Reason, "순매도")
}

func TestAnalyzeWatchlistFilter(t *testing.T) {
	store := newTestStore(t)
	cfg := testAlertConfig()
	cfg.Watchlist = []string{"000660"}
	a := NewSignalAnalyzer(cfg, store, newTestLogger(t))

	foreigner := []entity.FlowRecord{
		flow("005930", "삼성전자", 250),
		flow("000660", "SK하이닉스", 250),
	}

	signals := a.Analyze(foreigner, nil, nil, nil)
	require.Len(t, signals, 1)
	assert.Equal(t, "000660", signals[0].Flow.StockCode)
}

func TestDisclosurePriorities(t *testing.T) {
	store := newTestStore(t)
	a := NewSignalAnalyzer(testAlertConfig(), store, newTestLogger(t))

	major := []entity.DisclosureRecord{{Type: entity.DisclosureMajorShareholder, RceptNo: "1"}}
	executive := []entity.DisclosureRecord{{Type: entity.DisclosureExecutiveTrading, RceptNo: "2"}}

	signals := a.Analyze(nil, nil, major, executive)
	require.Len(t, signals, 2)
	assert.Equal(t, entity.PriorityHigh, signals[0].Priority)
	assert.Equal(t, entity.SignalMajorShareholder, signals[0].Type)
	assert.Equal(t, entity.PriorityMedium, signals[1].Priority)
}

func TestClearOldAlerts(t *testing.T) {
	store := newTestStore(t)

	now := utils.TimeNowKST()
	state := storage.DedupState{SentAlerts: map[string]string{
		"foreigner_20250101_005930": now.AddDate(0, 0, -10).Format(time.RFC3339),
		"foreigner_20250114_000660": now.AddDate(0, 0, -1).Format(time.RFC3339),
		"broken_entry":              "not-a-timestamp",
	}}
	require.NoError(t, store.SaveDedupState(state))

	a := NewSignalAnalyzer(testAlertConfig(), store, newTestLogger(t))
	a.ClearOldAlerts(7)

	persisted := store.LoadDedupState()
	assert.Len(t, persisted.SentAlerts, 1)
	assert.Contains(t, persisted.SentAlerts, "foreigner_20250114_000660")
}

func TestDailySummaryTruncatesTopFive(t *testing.T) {
	store := newTestStore(t)
	a := NewSignalAnalyzer(testAlertConfig(), store, newTestLogger(t))

	var foreigner []entity.FlowRecord
	for i := 0; i < 8; i++ {
		foreigner = append(foreigner, flow("00000"+string(rune('0'+i)), "종목", int64(100+i)))
	}

	summary := a.DailySummary(foreigner, nil, nil, nil)
	assert.Len(t, summary.ForeignerTop, 5)
	assert.Equal(t, 0, summary.MajorShareholderCount)
}
