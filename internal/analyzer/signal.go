package analyzer

import (
	"fmt"
	"sort"
	"time"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/storage"
	"golang-stock-tracker/pkg/config"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

// SignalAnalyzer turns collected data into priority-ordered alert signals,
// deduplicated against the persisted sent-alert state. A signal is marked
// sent as soon as it passes analysis, before delivery is attempted.
type SignalAnalyzer struct {
	cfg       *config.Config
	store     *storage.Store
	log       *logger.Logger
	watchlist map[string]bool
	state     storage.DedupState
}

// NewSignalAnalyzer creates a SignalAnalyzer with the persisted dedup state
// loaded.
func NewSignalAnalyzer(cfg *config.Config, store *storage.Store, log *logger.Logger) *SignalAnalyzer {
	watchlist := map[string]bool{}
	for _, code := range cfg.Watchlist {
		watchlist[code] = true
	}
	return &SignalAnalyzer{
		cfg:       cfg,
		store:     store,
		log:       log,
		watchlist: watchlist,
		state:     store.LoadDedupState(),
	}
}

// Analyze inspects all four data channels, persists the updated dedup state
// and returns signals ordered high, medium, low.
func (a *SignalAnalyzer) Analyze(foreigner, institution []entity.FlowRecord, major, executive []entity.DisclosureRecord) []entity.Signal {
	var signals []entity.Signal

	signals = append(signals, a.analyzeFlows(entity.SignalForeigner, foreigner)...)
	signals = append(signals, a.analyzeFlows(entity.SignalInstitution, institution)...)
	signals = append(signals, a.analyzeDisclosures(entity.SignalMajorShareholder, entity.PriorityHigh, major, "5% 이상 대량보유 공시 발생")...)
	signals = append(signals, a.analyzeDisclosures(entity.SignalExecutiveTrading, entity.PriorityMedium, executive, "임원/주요주주 주식 거래 공시")...)

	a.saveState()

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Priority.Rank() < signals[j].Priority.Rank()
	})
	return signals
}

func (a *SignalAnalyzer) analyzeFlows(sigType entity.SignalType, flows []entity.FlowRecord) []entity.Signal {
	minAmount := a.cfg.Alert.MinNetBuyAmount * entity.HundredMillionKRW

	var signals []entity.Signal
	for i := range flows {
		flow := flows[i]

		if !a.inWatchlist(flow.StockCode) {
			continue
		}

		netBuy := flow.NetBuyAmount
		if abs64(netBuy) < minAmount {
			continue
		}

		id := entity.FlowAlertID(sigType, flow.Date, flow.StockCode)
		if a.alreadySent(id) {
			continue
		}

		direction := "순매수"
		if netBuy < 0 {
			direction = "순매도"
		}
		priority := entity.PriorityMedium
		if abs64(netBuy) >= minAmount*2 {
			priority = entity.PriorityHigh
		}

		investorLabel := "외국인"
		if sigType == entity.SignalInstitution {
			investorLabel = "기관"
		}

		signals = append(signals, entity.Signal{
			Type:     sigType,
			Priority: priority,
			Flow:     &flow,
			Reason: fmt.Sprintf("%s %s %.0f억원 (기준: %d억원)",
				investorLabel, direction, float64(abs64(netBuy))/float64(entity.HundredMillionKRW), a.cfg.Alert.MinNetBuyAmount),
		})
		a.markSent(id)
	}
	return signals
}

func (a *SignalAnalyzer) analyzeDisclosures(sigType entity.SignalType, priority entity.Priority, reports []entity.DisclosureRecord, reason string) []entity.Signal {
	var signals []entity.Signal
	for i := range reports {
		report := reports[i]

		id := entity.DisclosureAlertID(sigType, report.RceptNo)
		if a.alreadySent(id) {
			continue
		}

		signals = append(signals, entity.Signal{
			Type:       sigType,
			Priority:   priority,
			Disclosure: &report,
			Reason:     reason,
		})
		a.markSent(id)
	}
	return signals
}

// DailySummary builds the per-run market snapshot.
func (a *SignalAnalyzer) DailySummary(foreigner, institution []entity.FlowRecord, major, executive []entity.DisclosureRecord) entity.DailySummary {
	top := func(flows []entity.FlowRecord) []entity.FlowRecord {
		if len(flows) > 5 {
			return flows[:5]
		}
		return flows
	}
	return entity.DailySummary{
		Date:                  utils.TimeNowKST().Format(utils.DateLayout),
		ForeignerTop:          top(foreigner),
		InstitutionTop:        top(institution),
		MajorShareholderCount: len(major),
		ExecutiveTradingCount: len(executive),
	}
}

// ClearOldAlerts evicts dedup entries sent more than the given number of
// days ago. Unparseable timestamps are dropped.
func (a *SignalAnalyzer) ClearOldAlerts(days int) {
	cutoff := utils.TimeNowKST().AddDate(0, 0, -days)

	kept := map[string]string{}
	for id, sentAt := range a.state.SentAlerts {
		t, err := time.Parse(time.RFC3339, sentAt)
		if err != nil {
			continue
		}
		if t.After(cutoff) {
			kept[id] = sentAt
		}
	}
	a.state.SentAlerts = kept
	a.saveState()
}

func (a *SignalAnalyzer) inWatchlist(stockCode string) bool {
	if len(a.watchlist) == 0 {
		return true
	}
	return a.watchlist[stockCode]
}

func (a *SignalAnalyzer) alreadySent(id entity.AlertID) bool {
	_, ok := a.state.SentAlerts[id.String()]
	return ok
}

func (a *SignalAnalyzer) markSent(id entity.AlertID) {
	a.state.SentAlerts[id.String()] = utils.TimeNowKST().Format(time.RFC3339)
}

func (a *SignalAnalyzer) saveState() {
	a.state.LastRun = utils.TimeNowKST().Format(time.RFC3339)
	if err := a.store.SaveDedupState(a.state); err != nil {
		a.log.Error("Failed to persist dedup state", logger.ErrorField(err))
	}
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
