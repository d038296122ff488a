package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/storage"
	"golang-stock-tracker/pkg/config"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

// ErrMissingGeminiKey disables the AI channel when no key is configured.
var ErrMissingGeminiKey = errors.New("Gemini API key is not configured")

// ErrDailyQuotaExceeded is returned once the persisted daily counter hits
// the configured request limit.
var ErrDailyQuotaExceeded = errors.New("Gemini daily request quota exceeded")

// UsageStatus is the current day's quota consumption.
type UsageStatus struct {
	Date     string
	Count    int
	Limit    int
	UsagePct float64
}

// AIRepository produces the free-text AI recommendation channel.
type AIRepository interface {
	RecommendStocks(ctx context.Context, foreigner, institution []entity.FlowRecord, major, executive []entity.DisclosureRecord) (string, error)
	UsageStatus() UsageStatus
	// ShouldSendUsageWarning reports whether the warning threshold was
	// crossed and no warning has been sent today; calling it marks the
	// warning as sent.
	ShouldSendUsageWarning() bool
}

type geminiAIRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	store          *storage.Store
	genAiClient    *genai.Client
	requestLimiter *rate.Limiter
}

// NewGeminiAIRepository creates the Gemini-backed AIRepository.
func NewGeminiAIRepository(ctx context.Context, cfg *config.Config, log *logger.Logger, store *storage.Store) (AIRepository, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, ErrMissingGeminiKey
	}

	genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.Gemini.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	perMinute := cfg.Gemini.MaxRequestPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	requestLimiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)

	return &geminiAIRepository{
		cfg:            cfg,
		log:            log,
		store:          store,
		genAiClient:    genAiClient,
		requestLimiter: requestLimiter,
	}, nil
}

// RecommendStocks serializes the day's flow and disclosure data into a
// prompt and returns the model's raw text. Each call consumes one unit of
// the persisted daily quota.
func (r *geminiAIRepository) RecommendStocks(ctx context.Context, foreigner, institution []entity.FlowRecord, major, executive []entity.DisclosureRecord) (string, error) {
	if err := r.consumeQuota(); err != nil {
		return "", err
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request limit: %w", err)
	}

	prompt := buildRecommendationPrompt(foreigner, institution, major, executive)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		r.log.Error("Gemini request failed", logger.ErrorField(err))
		return "", fmt.Errorf("failed to generate recommendations: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("Gemini returned an empty response")
	}
	return text, nil
}

// consumeQuota increments today's counter, resetting it on date rollover.
func (r *geminiAIRepository) consumeQuota() error {
	today := utils.TimeNowKST().Format(utils.DateLayout)

	usage := r.store.LoadGeminiUsage()
	if usage.Date != today {
		usage = storage.GeminiUsage{Date: today}
	}

	if usage.Count >= r.cfg.Gemini.DailyRequestLimit {
		return ErrDailyQuotaExceeded
	}

	usage.Count++
	if err := r.store.SaveGeminiUsage(usage); err != nil {
		r.log.Error("Failed to persist Gemini usage", logger.ErrorField(err))
	}
	return nil
}

// UsageStatus reports today's consumption against the configured limit.
func (r *geminiAIRepository) UsageStatus() UsageStatus {
	today := utils.TimeNowKST().Format(utils.DateLayout)
	usage := r.store.LoadGeminiUsage()
	if usage.Date != today {
		usage = storage.GeminiUsage{Date: today}
	}
	limit := r.cfg.Gemini.DailyRequestLimit
	pct := 0.0
	if limit > 0 {
		pct = float64(usage.Count) / float64(limit) * 100
	}
	return UsageStatus{Date: today, Count: usage.Count, Limit: limit, UsagePct: pct}
}

// ShouldSendUsageWarning fires at most once per day after the warning
// threshold is crossed.
func (r *geminiAIRepository) ShouldSendUsageWarning() bool {
	today := utils.TimeNowKST().Format(utils.DateLayout)
	usage := r.store.LoadGeminiUsage()
	if usage.Date != today || usage.WarningSent {
		return false
	}

	limit := r.cfg.Gemini.DailyRequestLimit
	if limit <= 0 {
		return false
	}
	if float64(usage.Count)/float64(limit) < r.cfg.Gemini.WarningThreshold {
		return false
	}

	usage.WarningSent = true
	if err := r.store.SaveGeminiUsage(usage); err != nil {
		r.log.Error("Failed to persist Gemini usage warning flag", logger.ErrorField(err))
	}
	return true
}

func buildRecommendationPrompt(foreigner, institution []entity.FlowRecord, major, executive []entity.DisclosureRecord) string {
	var b strings.Builder

	b.WriteString("You are a Korean stock market analyst. Based on today's investor flow and regulatory disclosures below, ")
	b.WriteString("recommend up to 5 stocks to watch, each with a one-line rationale and a suggested action (BUY/HOLD).\n\n")

	writeFlows := func(title string, flows []entity.FlowRecord) {
		b.WriteString(title + "\n")
		for i, f := range flows {
			if i >= 10 {
				break
			}
			fmt.Fprintf(&b, "- %s (%s): net buy %.0f억원, close %d, change %.2f%%\n",
				f.StockName, f.StockCode, f.AmountInHundredMillion(), f.ClosePrice, f.ChangeRate)
		}
		b.WriteString("\n")
	}
	writeFlows("[Foreigner net buying]", foreigner)
	writeFlows("[Institution net buying]", institution)

	writeDisclosures := func(title string, reports []entity.DisclosureRecord) {
		b.WriteString(title + "\n")
		for i, d := range reports {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s (filed %s by %s)\n", d.CorpName, d.ReportName, d.RceptDate, d.FilerName)
		}
		b.WriteString("\n")
	}
	writeDisclosures("[5% major shareholder filings]", major)
	writeDisclosures("[Executive/major shareholder trading filings]", executive)

	b.WriteString("Answer in Korean, in concise Slack-friendly markdown.")
	return b.String()
}
