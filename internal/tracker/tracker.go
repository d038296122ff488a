// Package tracker wires the collectors, analyzers and notifier into the
// scheduled surveillance pipeline.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"golang-stock-tracker/internal/analyzer"
	"golang-stock-tracker/internal/collector"
	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/notifier"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/internal/storage"
	"golang-stock-tracker/pkg/config"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

const (
	recommendationTopN    = 5
	defaultBacktestDays   = 60
	performanceReportDays = 7
)

// Deps are the wired components a Tracker runs with. Disclosures and AI are
// optional; a nil entry disables that channel.
type Deps struct {
	Config      *config.Config
	Log         *logger.Logger
	Store       *storage.Store
	Flows       collector.FlowCollector
	Disclosures collector.DisclosureCollector
	Prices      repository.PriceRepository
	AI          repository.AIRepository
	Notifier    notifier.Notifier
	// DryRun skips recommendation persistence so rehearsal runs leave the
	// recommendation log untouched.
	DryRun bool
}

// Tracker runs the end-to-end pipeline: collect, analyze, notify.
type Tracker struct {
	cfg         *config.Config
	log         *logger.Logger
	store       *storage.Store
	flows       collector.FlowCollector
	disclosures collector.DisclosureCollector
	prices      repository.PriceRepository
	ai          repository.AIRepository
	notify      notifier.Notifier
	dryRun      bool

	signals      *analyzer.SignalAnalyzer
	recommender  *analyzer.Recommender
	data         *analyzer.DataAnalyzer
	risk         *analyzer.RiskManager
	backtester   *analyzer.Backtester
	performance  *analyzer.PerformanceTracker
	alertManager *analyzer.PriceAlertManager
}

// New assembles a Tracker from its dependencies.
func New(d Deps) *Tracker {
	return &Tracker{
		cfg:          d.Config,
		log:          d.Log,
		store:        d.Store,
		flows:        d.Flows,
		disclosures:  d.Disclosures,
		prices:       d.Prices,
		ai:           d.AI,
		notify:       d.Notifier,
		dryRun:       d.DryRun,
		signals:      analyzer.NewSignalAnalyzer(d.Config, d.Store, d.Log),
		recommender:  analyzer.NewRecommender(),
		data:         analyzer.NewDataAnalyzer(d.Store, d.Log),
		risk:         analyzer.NewRiskManager(d.Prices, d.Log),
		backtester:   analyzer.NewBacktester(d.Prices, d.Store, d.Log),
		performance:  analyzer.NewPerformanceTracker(d.Prices, d.Store, d.Log),
		alertManager: analyzer.NewPriceAlertManager(d.Prices, d.Store, d.Log),
	}
}

// AlertManager exposes the price-alert manager for the CLI commands.
func (t *Tracker) AlertManager() *analyzer.PriceAlertManager {
	return t.alertManager
}

// RunOnce executes one full pipeline pass. sendSummary additionally posts
// the market overview and insight messages.
func (t *Tracker) RunOnce(ctx context.Context, sendSummary bool) error {
	t.log.Info("Starting tracker run", logger.Field("send_summary", sendSummary))
	start := time.Now()

	t.checkPriceAlerts(ctx)

	foreigner, institution := t.flows.InvestorRankings(ctx)
	if len(foreigner) == 0 && len(institution) == 0 {
		return fmt.Errorf("no investor flow data collected")
	}

	var major, executive []entity.DisclosureRecord
	if t.disclosures != nil {
		major, executive = t.disclosures.AllDisclosureReports(ctx)
	}

	t.sendSignals(ctx, foreigner, institution, major, executive)

	if sendSummary {
		summary := t.signals.DailySummary(foreigner, institution, major, executive)
		t.deliver(notifier.FormatDailySummary(summary))
	}

	t.sendRecommendations(ctx, foreigner, institution, major, executive)

	if sendSummary {
		t.sendInsights(foreigner, institution)
		t.sendPerformance(ctx)
	} else {
		t.data.UpdateHistory(foreigner, institution)
	}

	t.signals.ClearOldAlerts(t.cfg.Alert.DedupWindowDays)

	t.log.Info("Tracker run finished",
		logger.Field("duration", time.Since(start).String()),
		logger.IntField("foreigner_stocks", len(foreigner)),
		logger.IntField("institution_stocks", len(institution)))
	return nil
}

func (t *Tracker) sendSignals(ctx context.Context, foreigner, institution []entity.FlowRecord, major, executive []entity.DisclosureRecord) {
	signals := t.signals.Analyze(foreigner, institution, major, executive)
	if len(signals) == 0 {
		t.log.Info("No new signals this run")
		return
	}

	risks := map[string]*entity.RiskLevel{}
	for _, s := range signals {
		if s.Flow == nil {
			continue
		}
		if _, ok := risks[s.Flow.StockCode]; ok {
			continue
		}
		risks[s.Flow.StockCode] = t.risk.CalculateRiskLevels(ctx, s.Flow.StockCode, s.Flow.StockName, float64(s.Flow.ClosePrice))
	}

	t.deliver(notifier.FormatSignals(signals, risks))
}

func (t *Tracker) sendRecommendations(ctx context.Context, foreigner, institution []entity.FlowRecord, major, executive []entity.DisclosureRecord) {
	ruleBased := t.recommender.RuleBased(foreigner, institution, recommendationTopN)
	scoreBased := t.recommender.ScoreBased(foreigner, institution, executive, recommendationTopN)

	aiText := ""
	if t.ai != nil {
		text, err := t.ai.RecommendStocks(ctx, foreigner, institution, major, executive)
		if err != nil {
			t.log.Warn("AI recommendation unavailable", logger.ErrorField(err))
		} else {
			aiText = text
		}
		if t.ai.ShouldSendUsageWarning() {
			t.deliver(notifier.FormatUsageWarning(t.ai.UsageStatus()))
		}
	}

	if len(ruleBased) == 0 && len(scoreBased) == 0 && aiText == "" {
		t.log.Info("No recommendations this run")
		return
	}

	risks := map[string]*entity.RiskLevel{}
	for _, rec := range ruleBased {
		risks[rec.StockCode] = t.risk.CalculateRiskLevels(ctx, rec.StockCode, rec.StockName, 0)
	}

	t.deliver(notifier.FormatRecommendations(ruleBased, scoreBased, aiText, risks))

	if t.dryRun {
		return
	}
	if err := t.performance.SaveRecommendations(ctx, ruleBased, scoreBased); err != nil {
		t.log.Error("Failed to record recommendations", logger.ErrorField(err))
	}
}

func (t *Tracker) sendInsights(foreigner, institution []entity.FlowRecord) {
	results := t.data.AllAnalysis(foreigner, institution)
	if len(results.ConsecutiveForeigner) == 0 && len(results.ConsecutiveInstitution) == 0 &&
		len(results.MomentumStocks) == 0 && len(results.SectorFlow) == 0 {
		return
	}
	t.deliver(notifier.FormatAnalysisInsights(
		results.ConsecutiveForeigner, results.ConsecutiveInstitution,
		results.MomentumStocks, results.SectorFlow))
}

func (t *Tracker) sendPerformance(ctx context.Context) {
	report, err := t.performance.Report(ctx, performanceReportDays)
	if err != nil {
		t.log.Error("Failed to build performance report", logger.ErrorField(err))
		return
	}
	if report == nil {
		return
	}
	t.deliver(notifier.FormatPerformanceReport(report))
}

func (t *Tracker) checkPriceAlerts(ctx context.Context) {
	triggered, err := t.alertManager.Check(ctx)
	if err != nil {
		t.log.Error("Failed to check price alerts", logger.ErrorField(err))
	}
	if len(triggered) > 0 {
		t.deliver(notifier.FormatTriggeredAlerts(triggered))
	}
}

// Backtest replays the recommendation log and posts the report.
func (t *Tracker) Backtest(ctx context.Context, days int) error {
	if days <= 0 {
		days = defaultBacktestDays
	}
	summary, _, err := t.backtester.Run(ctx, days)
	if err != nil {
		return err
	}
	t.deliver(notifier.FormatBacktestReport(summary))
	return nil
}

// SendAlertOverview posts the registered alerts and watchlist quotes.
func (t *Tracker) SendAlertOverview(ctx context.Context) {
	active := t.alertManager.ActiveAlerts()
	quotes := t.alertManager.WatchlistWithPrices(ctx, t.cfg.Watchlist)
	t.deliver(notifier.FormatAlertOverview(active, quotes))
}

// Monitor polls price alerts every interval during market hours until the
// context is cancelled.
func (t *Tracker) Monitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	t.log.Info("Starting price monitor", logger.Field("interval", interval.String()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !utils.IsMarketHours(utils.TimeNowKST()) {
				continue
			}
			t.checkPriceAlerts(ctx)
		}
	}
}

// RunScheduler runs the KST weekday schedule until the context is
// cancelled: intraday passes at 09:15, 11:30 and 14:00, the closing pass at
// 15:40 and the daily summary at 17:00.
func (t *Tracker) RunScheduler(ctx context.Context) error {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return fmt.Errorf("failed to load KST location: %w", err)
	}

	c := cron.New(cron.WithLocation(loc))

	runOnce := func() {
		if err := t.RunOnce(ctx, false); err != nil {
			t.log.Error("Scheduled run failed", logger.ErrorField(err))
		}
	}
	for _, spec := range []string{"15 9 * * 1-5", "30 11 * * 1-5", "0 14 * * 1-5", "40 15 * * 1-5"} {
		if _, err := c.AddFunc(spec, runOnce); err != nil {
			return fmt.Errorf("failed to register schedule %q: %w", spec, err)
		}
	}
	if _, err := c.AddFunc("0 17 * * 1-5", func() {
		if err := t.RunOnce(ctx, true); err != nil {
			t.log.Error("Scheduled summary run failed", logger.ErrorField(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to register summary schedule: %w", err)
	}

	t.log.Info("Scheduler started", logger.IntField("jobs", len(c.Entries())))
	c.Start()
	defer c.Stop()

	<-ctx.Done()
	t.log.Info("Scheduler stopping")
	return ctx.Err()
}

func (t *Tracker) deliver(text string) {
	if err := t.notify.SendMessage(text); err != nil {
		t.log.Error("Failed to send notification", logger.ErrorField(err))
	}
}
