package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"golang-stock-tracker/internal/collector"
	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/notifier"
	"golang-stock-tracker/internal/repository"
	"golang-stock-tracker/internal/storage"
	"golang-stock-tracker/internal/tracker"
	"golang-stock-tracker/pkg/config"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/telegram"
)

var (
	configPath string
	dryRun     bool

	backtestDays    int
	monitorInterval time.Duration

	alertList   bool
	alertClear  bool
	alertRemove string
	alertCode   string
	alertPrice  int64
	alertType   string
	alertMemo   string
)

type app struct {
	cfg     *config.Config
	log     *logger.Logger
	tracker *tracker.Tracker
}

// bootstrap loads configuration and wires every component. Optional
// channels (DART, Gemini, Telegram) are disabled with a warning when their
// credentials are missing.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := storage.New(cfg.App.DataDir, appLogger)
	if err != nil {
		return nil, err
	}

	flows := collector.NewKrxCollector(appLogger)
	prices := repository.NewNaverPriceRepository(appLogger)

	disclosures, err := collector.NewDartCollector(cfg.Dart.BaseURL, cfg.Dart.APIKey, appLogger)
	if err != nil {
		if !errors.Is(err, collector.ErrMissingDartKey) {
			return nil, err
		}
		appLogger.Warn("DART disclosure channel disabled", logger.ErrorField(err))
		disclosures = nil
	}

	ai, err := repository.NewGeminiAIRepository(ctx, cfg, appLogger, store)
	if err != nil {
		if !errors.Is(err, repository.ErrMissingGeminiKey) {
			return nil, err
		}
		appLogger.Warn("AI recommendation channel disabled", logger.ErrorField(err))
		ai = nil
	}

	notify := buildNotifier(cfg, appLogger)

	t := tracker.New(tracker.Deps{
		Config:      cfg,
		Log:         appLogger,
		Store:       store,
		Flows:       flows,
		Disclosures: disclosures,
		Prices:      prices,
		AI:          ai,
		Notifier:    notify,
		DryRun:      dryRun,
	})
	return &app{cfg: cfg, log: appLogger, tracker: t}, nil
}

func buildNotifier(cfg *config.Config, appLogger *logger.Logger) notifier.Notifier {
	if dryRun {
		appLogger.Info("Dry run: notifications are logged, not sent")
		return notifier.NewLogNotifier(appLogger)
	}

	var channels []notifier.Notifier
	if slack, err := notifier.NewSlackClient(cfg.Slack.WebhookURL); err != nil {
		appLogger.Warn("Slack channel disabled", logger.ErrorField(err))
	} else {
		channels = append(channels, slack)
	}
	if cfg.Telegram.BotToken != "" {
		if tg, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID); err != nil {
			appLogger.Warn("Telegram channel disabled", logger.ErrorField(err))
		} else {
			channels = append(channels, tg)
		}
	}
	if len(channels) == 0 {
		appLogger.Warn("No notification channel configured, logging messages instead")
		return notifier.NewLogNotifier(appLogger)
	}
	return notifier.NewMulti(appLogger, channels...)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runWithApp(run func(ctx context.Context, a *app) error) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, _ []string) {
		ctx, stop := signalContext()
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer func() { _ = a.log.Sync() }()

		if err := run(ctx, a); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Fatal("Command failed", logger.ErrorField(err))
		}
	}
}

func runAlert(ctx context.Context, a *app) error {
	manager := a.tracker.AlertManager()

	switch {
	case alertList:
		alerts := manager.List()
		if len(alerts) == 0 {
			fmt.Println("등록된 가격 알림이 없습니다.")
			return nil
		}
		for _, al := range alerts {
			status := "대기"
			if al.Triggered {
				status = "도달"
			}
			fmt.Printf("%s (%s) %s %d원 [%s] %s\n",
				al.StockName, al.StockCode, al.AlertType, al.TargetPrice, status, al.Memo)
		}
		return nil

	case alertClear:
		cleared, err := manager.ClearTriggered()
		if err != nil {
			return err
		}
		fmt.Printf("도달한 알림 %d건을 정리했습니다.\n", cleared)
		return nil

	case alertRemove != "":
		removed, err := manager.Remove(alertRemove)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Printf("%s에 등록된 알림이 없습니다.\n", alertRemove)
			return nil
		}
		fmt.Printf("%s의 알림을 삭제했습니다.\n", alertRemove)
		return nil

	case alertCode != "":
		at := entity.PriceAlertType(alertType)
		if at != entity.PriceAlertBelow && at != entity.PriceAlertAbove {
			return fmt.Errorf("alert type must be %q or %q", entity.PriceAlertBelow, entity.PriceAlertAbove)
		}
		alert, err := manager.Add(ctx, alertCode, at, alertPrice, alertMemo)
		if err != nil {
			return err
		}
		fmt.Printf("알림 등록: %s (%s) %s %d원\n",
			alert.StockName, alert.StockCode, alert.AlertType, alert.TargetPrice)
		return nil

	default:
		a.tracker.SendAlertOverview(ctx)
		return nil
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "stock-tracker",
		Short: "KRX investor-flow and disclosure tracker",
		Long:  "Tracks foreigner/institution net buying and DART disclosures, derives trade signals and recommendations, and notifies Slack.",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Log notifications instead of sending them")

	onceCmd := &cobra.Command{
		Use:   "once",
		Short: "Run one tracking pass",
		Run: runWithApp(func(ctx context.Context, a *app) error {
			return a.tracker.RunOnce(ctx, false)
		}),
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Run one tracking pass with the daily summary and insights",
		Run: runWithApp(func(ctx context.Context, a *app) error {
			return a.tracker.RunOnce(ctx, true)
		}),
	}

	schedulerCmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run the KST weekday schedule until interrupted",
		Run: runWithApp(func(ctx context.Context, a *app) error {
			return a.tracker.RunScheduler(ctx)
		}),
	}

	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Backtest recorded recommendations and post the report",
		Run: runWithApp(func(ctx context.Context, a *app) error {
			return a.tracker.Backtest(ctx, backtestDays)
		}),
	}
	backtestCmd.Flags().IntVar(&backtestDays, "days", 60, "Recommendation window in days")

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Poll price alerts during market hours until interrupted",
		Run: runWithApp(func(ctx context.Context, a *app) error {
			return a.tracker.Monitor(ctx, monitorInterval)
		}),
	}
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 5*time.Minute, "Polling interval")

	alertCmd := &cobra.Command{
		Use:   "alert",
		Short: "Manage target-price alerts",
		Run:   runWithApp(runAlert),
	}
	alertCmd.Flags().BoolVar(&alertList, "list", false, "List registered alerts")
	alertCmd.Flags().BoolVar(&alertClear, "clear", false, "Remove triggered alerts")
	alertCmd.Flags().StringVar(&alertRemove, "remove", "", "Remove alerts for a stock code")
	alertCmd.Flags().StringVar(&alertCode, "code", "", "Stock code to register an alert for")
	alertCmd.Flags().Int64Var(&alertPrice, "price", 0, "Target price in KRW")
	alertCmd.Flags().StringVar(&alertType, "type", string(entity.PriceAlertBelow), "Alert type: below or above")
	alertCmd.Flags().StringVar(&alertMemo, "memo", "", "Optional memo")

	rootCmd.AddCommand(onceCmd, summaryCmd, schedulerCmd, backtestCmd, monitorCmd, alertCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing stock-tracker CLI: %s\n", err)
		os.Exit(1)
	}
}
