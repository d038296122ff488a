package analyzer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/storage"
	"golang-stock-tracker/pkg/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.New(t.TempDir(), newTestLogger(t))
	require.NoError(t, err)
	return store
}

type stubPriceRepository struct {
	quotes   map[string]*entity.StockQuote
	candles  map[string][]entity.Candle
	quoteErr error
}

func (s *stubPriceRepository) Quote(_ context.Context, stockCode string) (*entity.StockQuote, error) {
	if s.quoteErr != nil {
		return nil, s.quoteErr
	}
	q, ok := s.quotes[stockCode]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", stockCode)
	}
	return q, nil
}

func (s *stubPriceRepository) DailyCandles(_ context.Context, symbol string, _, _ time.Time) ([]entity.Candle, error) {
	return s.candles[symbol], nil
}

func flow(code, name string, netBuyHundredMillion int64) entity.FlowRecord {
	return entity.FlowRecord{
		StockCode:    code,
		StockName:    name,
		NetBuyAmount: netBuyHundredMillion * entity.HundredMillionKRW,
		ClosePrice:   70000,
		ChangeRate:   1.5,
		Date:         "20250115",
		Market:       "KOSPI",
	}
}
