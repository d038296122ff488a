package analyzer

import (
	"context"
	"fmt"
	"time"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/internal/storage"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

// PriceAlertManager maintains the user-managed target-price alerts and
// evaluates them against live quotes. An alert fires once; triggered alerts
// stay in the store until cleared or reset.
type PriceAlertManager struct {
	prices repository.PriceRepository
	store  *storage.Store
	log    *logger.Logger
	alerts []entity.PriceAlert
}

// NewPriceAlertManager creates a PriceAlertManager with the persisted alerts
// loaded.
func NewPriceAlertManager(prices repository.PriceRepository, store *storage.Store, log *logger.Logger) *PriceAlertManager {
	return &PriceAlertManager{
		prices: prices,
		store:  store,
		log:    log,
		alerts: store.LoadPriceAlerts(),
	}
}

// Add registers an alert. Re-adding an existing (code, type) pair replaces
// the target price and rearms the alert.
func (m *PriceAlertManager) Add(ctx context.Context, stockCode string, alertType entity.PriceAlertType, targetPrice int64, memo string) (*entity.PriceAlert, error) {
	if targetPrice <= 0 {
		return nil, fmt.Errorf("target price must be positive, got %d", targetPrice)
	}

	stockName := stockCode
	if quote, err := m.prices.Quote(ctx, stockCode); err != nil {
		m.log.Warn("Failed to quote stock for new alert",
			logger.StringField("stock_code", stockCode), logger.ErrorField(err))
	} else {
		stockName = quote.StockName
	}

	alert := entity.PriceAlert{
		StockCode:   stockCode,
		StockName:   stockName,
		AlertType:   alertType,
		TargetPrice: targetPrice,
		Memo:        memo,
		CreatedAt:   utils.TimeNowKST().Format(time.RFC3339),
	}

	replaced := false
	for i := range m.alerts {
		if m.alerts[i].StockCode == stockCode && m.alerts[i].AlertType == alertType {
			m.alerts[i] = alert
			replaced = true
			break
		}
	}
	if !replaced {
		m.alerts = append(m.alerts, alert)
	}

	if err := m.store.SavePriceAlerts(m.alerts); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Remove deletes every alert for a stock code. Reports whether anything was
// removed.
func (m *PriceAlertManager) Remove(stockCode string) (bool, error) {
	kept := m.alerts[:0]
	removed := false
	for _, a := range m.alerts {
		if a.StockCode == stockCode {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	if !removed {
		return false, nil
	}
	m.alerts = kept
	return true, m.store.SavePriceAlerts(m.alerts)
}

// List returns every alert, triggered or not.
func (m *PriceAlertManager) List() []entity.PriceAlert {
	return m.alerts
}

// ActiveAlerts returns the alerts that have not fired yet.
func (m *PriceAlertManager) ActiveAlerts() []entity.PriceAlert {
	var active []entity.PriceAlert
	for _, a := range m.alerts {
		if !a.Triggered {
			active = append(active, a)
		}
	}
	return active
}

// Check quotes every active alert and fires those whose condition holds:
// below alerts at current <= target, above alerts at current >= target.
// Fired alerts are marked triggered in place and persisted.
func (m *PriceAlertManager) Check(ctx context.Context) ([]entity.TriggeredAlert, error) {
	var triggered []entity.TriggeredAlert
	fired := false

	for i := range m.alerts {
		alert := &m.alerts[i]
		if alert.Triggered {
			continue
		}

		quote, err := m.prices.Quote(ctx, alert.StockCode)
		if err != nil {
			m.log.Warn("Failed to quote stock for alert check",
				logger.StringField("stock_code", alert.StockCode), logger.ErrorField(err))
			continue
		}

		hit := false
		switch alert.AlertType {
		case entity.PriceAlertBelow:
			hit = quote.CurrentPrice <= alert.TargetPrice
		case entity.PriceAlertAbove:
			hit = quote.CurrentPrice >= alert.TargetPrice
		}
		if !hit {
			continue
		}

		alert.Triggered = true
		alert.TriggeredAt = utils.TimeNowKST().Format(time.RFC3339)
		fired = true

		triggered = append(triggered, entity.TriggeredAlert{
			PriceAlert:   *alert,
			CurrentPrice: quote.CurrentPrice,
			ChangeRate:   quote.ChangeRate,
		})
	}

	if fired {
		if err := m.store.SavePriceAlerts(m.alerts); err != nil {
			return triggered, err
		}
	}
	return triggered, nil
}

// ClearTriggered removes fired alerts, keeping active ones.
func (m *PriceAlertManager) ClearTriggered() (int, error) {
	kept := m.alerts[:0]
	cleared := 0
	for _, a := range m.alerts {
		if a.Triggered {
			cleared++
			continue
		}
		kept = append(kept, a)
	}
	if cleared == 0 {
		return 0, nil
	}
	m.alerts = kept
	return cleared, m.store.SavePriceAlerts(m.alerts)
}

// Reset removes every alert.
func (m *PriceAlertManager) Reset() error {
	m.alerts = nil
	return m.store.SavePriceAlerts(m.alerts)
}

// WatchlistWithPrices quotes each watchlist code for the alert overview.
func (m *PriceAlertManager) WatchlistWithPrices(ctx context.Context, watchlist []string) []entity.StockQuote {
	var quotes []entity.StockQuote
	for _, code := range watchlist {
		quote, err := m.prices.Quote(ctx, code)
		if err != nil {
			m.log.Warn("Failed to quote watchlist stock",
				logger.StringField("stock_code", code), logger.ErrorField(err))
			continue
		}
		quotes = append(quotes, *quote)
	}
	return quotes
}
