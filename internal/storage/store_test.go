package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/pkg/logger"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)

	dir := t.TempDir()
	store, err := New(dir, log)
	require.NoError(t, err)
	return store, dir
}

func TestDedupStateRoundTrip(t *testing.T) {
	store, _ := newStore(t)

	state := store.LoadDedupState()
	assert.NotNil(t, state.SentAlerts)

	state.LastRun = "2025-01-15T09:15:00+09:00"
	state.SentAlerts["foreigner_20250115_005930"] = "2025-01-15T09:15:00+09:00"
	require.NoError(t, store.SaveDedupState(state))

	loaded := store.LoadDedupState()
	assert.Equal(t, state.LastRun, loaded.LastRun)
	assert.Equal(t, state.SentAlerts, loaded.SentAlerts)
}

func TestCorruptFileResetsToDefaults(t *testing.T) {
	store, dir := newStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), []byte("{broken"), 0o644))

	state := store.LoadDedupState()
	assert.Empty(t, state.SentAlerts)
	assert.Empty(t, state.LastRun)
}

func TestTypeCorruptFileDropsPartialState(t *testing.T) {
	store, dir := newStore(t)

	// Valid JSON with a wrong value type: last_run decodes before
	// sent_alerts fails, and must not survive the reset.
	data := []byte(`{"last_run":"2025-01-15T09:15:00+09:00","sent_alerts":"oops"}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), data, 0o644))

	state := store.LoadDedupState()
	assert.Empty(t, state.LastRun)
	assert.Empty(t, state.SentAlerts)
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	store, dir := newStore(t)

	require.NoError(t, store.SaveDedupState(DedupState{SentAlerts: map[string]string{"a": "b"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestTradingHistoryInitializesInvestorMaps(t *testing.T) {
	store, _ := newStore(t)

	th := store.LoadTradingHistory()
	require.NotNil(t, th[entity.InvestorForeigner])
	require.NotNil(t, th[entity.InvestorInstitution])

	th[entity.InvestorForeigner]["005930"] = &StockHistory{
		StockName: "삼성전자",
		DailyData: map[string]DailyFlow{"2025-01-15": {NetBuyAmount: 100, ClosePrice: 70000}},
	}
	require.NoError(t, store.SaveTradingHistory(th))

	loaded := store.LoadTradingHistory()
	require.Contains(t, loaded[entity.InvestorForeigner], "005930")
	assert.Equal(t, int64(70000), loaded[entity.InvestorForeigner]["005930"].DailyData["2025-01-15"].ClosePrice)
}

func TestPriceCacheRoundTrip(t *testing.T) {
	store, _ := newStore(t)

	cache := store.LoadPriceCache()
	assert.Empty(t, cache)

	cache["005930_2025-01-01_2025-02-05"] = map[string]float64{"2025-01-02": 70000}
	require.NoError(t, store.SavePriceCache(cache))

	loaded := store.LoadPriceCache()
	assert.Equal(t, 70000.0, loaded["005930_2025-01-01_2025-02-05"]["2025-01-02"])
}

func TestGeminiUsageRoundTrip(t *testing.T) {
	store, _ := newStore(t)

	usage := store.LoadGeminiUsage()
	assert.Zero(t, usage.Count)

	require.NoError(t, store.SaveGeminiUsage(GeminiUsage{Date: "2025-01-15", Count: 3, WarningSent: true}))

	loaded := store.LoadGeminiUsage()
	assert.Equal(t, "2025-01-15", loaded.Date)
	assert.Equal(t, 3, loaded.Count)
	assert.True(t, loaded.WarningSent)
}
