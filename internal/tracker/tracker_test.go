package tracker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/storage"
	"golang-stock-tracker/pkg/config"
	"golang-stock-tracker/pkg/logger"
)

type stubFlows struct {
	foreigner   []entity.FlowRecord
	institution []entity.FlowRecord
}

func (s *stubFlows) TopNetBuy(_ context.Context, investor entity.InvestorType, _ int) ([]entity.FlowRecord, error) {
	if investor == entity.InvestorForeigner {
		return s.foreigner, nil
	}
	return s.institution, nil
}

func (s *stubFlows) InvestorRankings(context.Context) (foreigner, institution []entity.FlowRecord) {
	return s.foreigner, s.institution
}

type stubDisclosures struct {
	major     []entity.DisclosureRecord
	executive []entity.DisclosureRecord
}

func (s *stubDisclosures) MajorShareholderReports(context.Context, string, string) ([]entity.DisclosureRecord, error) {
	return s.major, nil
}

func (s *stubDisclosures) ExecutiveTradingReports(context.Context, string, string) ([]entity.DisclosureRecord, error) {
	return s.executive, nil
}

func (s *stubDisclosures) AllDisclosureReports(context.Context) (major, executive []entity.DisclosureRecord) {
	return s.major, s.executive
}

type stubPrices struct {
	quotes map[string]*entity.StockQuote
}

func (s *stubPrices) Quote(_ context.Context, stockCode string) (*entity.StockQuote, error) {
	q, ok := s.quotes[stockCode]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", stockCode)
	}
	return q, nil
}

func (s *stubPrices) DailyCandles(context.Context, string, time.Time, time.Time) ([]entity.Candle, error) {
	return nil, nil
}

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) SendMessage(text string) error {
	r.messages = append(r.messages, text)
	return nil
}

func (r *recordingNotifier) containing(substr string) int {
	n := 0
	for _, m := range r.messages {
		if strings.Contains(m, substr) {
			n++
		}
	}
	return n
}

func newTestTracker(t *testing.T) (*Tracker, *recordingNotifier) {
	t.Helper()

	log, err := logger.New("error", "console")
	require.NoError(t, err)
	store, err := storage.New(t.TempDir(), log)
	require.NoError(t, err)

	cfg := &config.Config{
		Alert: config.Alert{MinNetBuyAmount: 100, DedupWindowDays: 7},
	}
	flows := &stubFlows{
		foreigner: []entity.FlowRecord{{
			StockCode: "005930", StockName: "삼성전자",
			NetBuyAmount: 600 * entity.HundredMillionKRW,
			ClosePrice:   70000, ChangeRate: 1.5, Date: "20250115", Market: "KOSPI",
		}},
		institution: []entity.FlowRecord{{
			StockCode: "005930", StockName: "삼성전자",
			NetBuyAmount: 200 * entity.HundredMillionKRW,
			ClosePrice:   70000, ChangeRate: 1.5, Date: "20250115", Market: "KOSPI",
		}},
	}
	prices := &stubPrices{quotes: map[string]*entity.StockQuote{
		"005930": {StockCode: "005930", StockName: "삼성전자", CurrentPrice: 70000},
	}}
	notify := &recordingNotifier{}

	tr := New(Deps{
		Config:      cfg,
		Log:         log,
		Store:       store,
		Flows:       flows,
		Disclosures: &stubDisclosures{},
		Prices:      prices,
		Notifier:    notify,
	})
	return tr, notify
}

func TestRunOncePipeline(t *testing.T) {
	tr, notify := newTestTracker(t)

	require.NoError(t, tr.RunOnce(context.Background(), false))

	assert.Equal(t, 1, notify.containing("매매 시그널"))
	assert.Equal(t, 1, notify.containing("오늘의 추천 종목"))
	// Joint foreigner+institution buying produces a rule-based pick.
	assert.Equal(t, 1, notify.containing("외국인+기관 동시 매수"))
}

func TestRunOnceDeduplicatesSignals(t *testing.T) {
	tr, notify := newTestTracker(t)

	require.NoError(t, tr.RunOnce(context.Background(), false))
	require.NoError(t, tr.RunOnce(context.Background(), false))

	// The second pass repeats recommendations but not signals.
	assert.Equal(t, 1, notify.containing("매매 시그널"))
	assert.Equal(t, 2, notify.containing("오늘의 추천 종목"))
}

func TestRunOnceSummary(t *testing.T) {
	tr, notify := newTestTracker(t)

	require.NoError(t, tr.RunOnce(context.Background(), true))

	assert.Equal(t, 1, notify.containing("시장 수급 요약"))
	assert.Equal(t, 1, notify.containing("수급 분석 인사이트"))
}

func TestRunOnceNoFlowData(t *testing.T) {
	tr, _ := newTestTracker(t)
	tr.flows = &stubFlows{}

	assert.Error(t, tr.RunOnce(context.Background(), false))
}

func TestBacktestEmptyLog(t *testing.T) {
	tr, notify := newTestTracker(t)

	require.NoError(t, tr.Backtest(context.Background(), 60))
	assert.Equal(t, 1, notify.containing("분석할 추천 기록이 없습니다"))
}
