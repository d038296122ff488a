package notifier

import (
	"fmt"
	"strconv"
	"strings"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/repository"
)

// FormatDailySummary formats the per-run market overview.
func FormatDailySummary(summary entity.DailySummary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📊 *시장 수급 요약* (%s)\n\n", summary.Date))

	writeTop := func(title string, flows []entity.FlowRecord) {
		sb.WriteString(title + "\n")
		if len(flows) == 0 {
			sb.WriteString("_데이터 없음_\n")
		}
		for i, f := range flows {
			sb.WriteString(fmt.Sprintf("%d. %s (%s): %s억원 (%+.2f%%)\n",
				i+1, f.StockName, f.StockCode, comma(int64(f.AmountInHundredMillion())), f.ChangeRate))
		}
		sb.WriteString("\n")
	}
	writeTop("🌏 *외국인 순매수 상위*", summary.ForeignerTop)
	writeTop("🏦 *기관 순매수 상위*", summary.InstitutionTop)

	sb.WriteString(fmt.Sprintf("📋 공시: 대량보유 %d건 | 임원/주요주주 거래 %d건\n",
		summary.MajorShareholderCount, summary.ExecutiveTradingCount))
	return sb.String()
}

// FormatSignals formats trading signals with their risk bands. risks is
// keyed by stock code; flow signals without an entry render without bands.
func FormatSignals(signals []entity.Signal, risks map[string]*entity.RiskLevel) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🚨 *매매 시그널* (%d건)\n\n", len(signals)))

	for _, s := range signals {
		sb.WriteString(fmt.Sprintf("%s %s\n", priorityIcon(s.Priority), signalTitle(s)))
		sb.WriteString(fmt.Sprintf("💬 %s\n", s.Reason))

		if s.Flow != nil {
			if risk, ok := risks[s.Flow.StockCode]; ok && risk != nil {
				sb.WriteString(formatRiskLine(risk))
			}
		}
		if s.Disclosure != nil {
			sb.WriteString(fmt.Sprintf("📄 %s (접수번호 %s, %s)\n",
				s.Disclosure.ReportName, s.Disclosure.RceptNo, s.Disclosure.RceptDate))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func signalTitle(s entity.Signal) string {
	if s.Flow != nil {
		return fmt.Sprintf("*%s* (%s)", s.Flow.StockName, s.Flow.StockCode)
	}
	if s.Disclosure != nil {
		return fmt.Sprintf("*%s* (%s)", s.Disclosure.CorpName, s.Disclosure.StockCode)
	}
	return string(s.Type)
}

// FormatRecommendations formats the unified recommendation message: the
// rule-based picks, the score-based ranking and the optional AI commentary.
func FormatRecommendations(ruleBased, scoreBased []entity.Recommendation, aiText string, risks map[string]*entity.RiskLevel) string {
	var sb strings.Builder

	sb.WriteString("💡 *오늘의 추천 종목*\n\n")

	writeRecs := func(title string, recs []entity.Recommendation) {
		sb.WriteString(title + "\n")
		if len(recs) == 0 {
			sb.WriteString("_해당 없음_\n\n")
			return
		}
		for i, rec := range recs {
			sb.WriteString(fmt.Sprintf("%d. %s *%s* (%s) 점수 %.0f\n",
				i+1, actionIcon(rec.Action), rec.StockName, rec.StockCode, rec.Score))
			for _, reason := range rec.Reasons {
				sb.WriteString(fmt.Sprintf("  • %s\n", reason))
			}
			for _, risk := range rec.RiskFactors {
				sb.WriteString(fmt.Sprintf("  ⚠️ %s\n", risk))
			}
			if level, ok := risks[rec.StockCode]; ok && level != nil {
				sb.WriteString(formatRiskLine(level))
			}
		}
		sb.WriteString("\n")
	}
	writeRecs("📐 *규칙 기반*", ruleBased)
	writeRecs("🧮 *점수 기반*", scoreBased)

	if aiText != "" {
		sb.WriteString("🤖 *AI 분석*\n")
		sb.WriteString(aiText)
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatRiskLine(r *entity.RiskLevel) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  🛡 손절 %s (-%.1f%%) | 🎯 1차 익절 %s (+%.1f%%) | 2차 %s (+%.1f%%)\n",
		comma(int64(r.StopLossPrice)), r.StopLossPct,
		comma(int64(r.TakeProfit1Price)), r.TakeProfit1Pct,
		comma(int64(r.TakeProfit2Price)), r.TakeProfit2Pct))
	sb.WriteString(fmt.Sprintf("  📏 ATR %.0f (%.1f%%, 변동성 %s) | 손익비 %.2f\n",
		r.ATR, r.ATRPct, volatilityLabel(r.VolatilityGrade), r.RiskRewardRatio))
	return sb.String()
}

// FormatAnalysisInsights formats the derived history insights: consecutive
// buying, momentum and sector flow.
func FormatAnalysisInsights(
	consecutiveForeigner, consecutiveInstitution []entity.ConsecutiveBuyStock,
	momentum []entity.MomentumStock,
	sectors []entity.SectorFlow,
) string {
	var sb strings.Builder

	sb.WriteString("🔍 *수급 분석 인사이트*\n\n")

	writeStreaks := func(title string, stocks []entity.ConsecutiveBuyStock) {
		if len(stocks) == 0 {
			return
		}
		sb.WriteString(title + "\n")
		for _, s := range stocks {
			sb.WriteString(fmt.Sprintf("• %s (%s): %d일 연속, 누적 %s억원 (%+.2f%%)\n",
				s.StockName, s.StockCode, s.ConsecutiveDays,
				comma(s.TotalNetBuy/entity.HundredMillionKRW), s.PriceChangePct))
		}
		sb.WriteString("\n")
	}
	writeStreaks("🌏 *외국인 연속 순매수*", consecutiveForeigner)
	writeStreaks("🏦 *기관 연속 순매수*", consecutiveInstitution)

	if len(momentum) > 0 {
		sb.WriteString("🚀 *수급+모멘텀 종목*\n")
		for _, m := range momentum {
			sb.WriteString(fmt.Sprintf("• %s (%s): %s억원 순매수, %+.2f%% (%s)\n",
				m.StockName, m.StockCode,
				comma(m.NetBuyAmount/entity.HundredMillionKRW), m.PriceChangePct,
				investorLabel(m.InvestorType)))
		}
		sb.WriteString("\n")
	}

	if len(sectors) > 0 {
		sb.WriteString("🏭 *섹터별 자금 흐름*\n")
		for _, s := range sectors {
			icon := "🔻"
			if s.FlowDirection == entity.FlowInflow {
				icon = "🔺"
			}
			sb.WriteString(fmt.Sprintf("%s %s: %s억원 (%d종목) | %s\n",
				icon, s.Sector, comma(s.NetBuyAmount/entity.HundredMillionKRW),
				s.StockCount, strings.Join(s.TopStocks, ", ")))
		}
	}
	return sb.String()
}

// FormatBacktestReport formats the aggregate backtest summary.
func FormatBacktestReport(summary *entity.BacktestSummary) string {
	if summary == nil {
		return "📉 *백테스트*\n_분석할 추천 기록이 없습니다._"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📉 *추천 백테스트* (%s, %d건)\n\n", summary.Period, summary.TotalRecommendations))

	sb.WriteString("*보유기간별 성과*\n")
	for _, period := range summary.HoldingPeriods {
		avg, ok := summary.AvgReturns[period]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("• %d일: 평균 %+.2f%% | 승률 %.0f%% | 최고 %+.2f%% | 최저 %+.2f%%",
			period, avg, summary.WinRates[period], summary.MaxReturns[period], summary.MinReturns[period]))
		if excess, ok := summary.AvgExcessReturns[period]; ok {
			sb.WriteString(fmt.Sprintf(" | 초과수익 %+.2f%%p", excess))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if len(summary.ByRecommendationType) > 0 {
		sb.WriteString("*전략별 성과 (5일 기준)*\n")
		for recType, perf := range summary.ByRecommendationType {
			sb.WriteString(fmt.Sprintf("• %s: %d건, 평균 %+.2f%%, 승률 %.0f%%\n",
				recommendationTypeLabel(recType), perf.Count, perf.AvgReturn5D, perf.WinRate5D))
		}
		sb.WriteString("\n")
	}

	if best, ok := summary.BestPerformers[5]; ok {
		if ret := best.Returns[5]; ret != nil {
			sb.WriteString(fmt.Sprintf("🏆 최고: %s (%s) %+.2f%%\n", best.StockName, best.RecommendedDate, *ret))
		}
	}
	if worst, ok := summary.WorstPerformers[5]; ok {
		if ret := worst.Returns[5]; ret != nil {
			sb.WriteString(fmt.Sprintf("💧 최저: %s (%s) %+.2f%%\n", worst.StockName, worst.RecommendedDate, *ret))
		}
	}
	return sb.String()
}

// FormatPerformanceReport formats the live mark-to-market report.
func FormatPerformanceReport(report *entity.PerformanceReport) string {
	if report == nil {
		return "📈 *추천 성과*\n_집계할 추천 기록이 없습니다._"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📈 *추천 성과* (최근 %d일, %d건)\n\n", report.PeriodDays, report.TotalRecommendations))
	sb.WriteString(fmt.Sprintf("평균 수익률 %+.2f%% | 승률 %.0f%%\n\n", report.AvgReturn, report.WinRate))

	for _, r := range report.Results {
		sb.WriteString(fmt.Sprintf("%s %s (%s): %s → %s (%+.2f%%, %d일 보유)\n",
			returnIcon(r.ReturnPct), r.StockName, r.StockCode,
			comma(int64(r.RecommendedPrice)), comma(int64(r.CurrentPrice)),
			r.ReturnPct, r.DaysHeld))
	}
	return sb.String()
}

// FormatTriggeredAlerts formats fired price alerts.
func FormatTriggeredAlerts(alerts []entity.TriggeredAlert) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 *가격 알림 도달* (%d건)\n\n", len(alerts)))

	for _, a := range alerts {
		condition := "이하"
		if a.AlertType == entity.PriceAlertAbove {
			condition = "이상"
		}
		sb.WriteString(fmt.Sprintf("• *%s* (%s): 현재가 %s원, 목표 %s원 %s 도달 (%+.2f%%)\n",
			a.StockName, a.StockCode, comma(a.CurrentPrice), comma(a.TargetPrice), condition, a.ChangeRate))
		if a.Memo != "" {
			sb.WriteString(fmt.Sprintf("  📝 %s\n", a.Memo))
		}
	}
	return sb.String()
}

// FormatAlertOverview formats the alert list with current watchlist quotes.
func FormatAlertOverview(active []entity.PriceAlert, quotes []entity.StockQuote) string {
	var sb strings.Builder

	sb.WriteString("🔔 *등록된 가격 알림*\n")
	if len(active) == 0 {
		sb.WriteString("_등록된 알림이 없습니다._\n")
	}
	for _, a := range active {
		condition := "이하"
		if a.AlertType == entity.PriceAlertAbove {
			condition = "이상"
		}
		sb.WriteString(fmt.Sprintf("• %s (%s): %s원 %s", a.StockName, a.StockCode, comma(a.TargetPrice), condition))
		if a.Memo != "" {
			sb.WriteString(fmt.Sprintf(" | %s", a.Memo))
		}
		sb.WriteString("\n")
	}

	if len(quotes) > 0 {
		sb.WriteString("\n👀 *관심종목 현재가*\n")
		for _, q := range quotes {
			sb.WriteString(fmt.Sprintf("• %s (%s): %s원 (%+.2f%%)\n",
				q.StockName, q.StockCode, comma(q.CurrentPrice), q.ChangeRate))
		}
	}
	return sb.String()
}

// FormatUsageWarning formats the Gemini quota warning.
func FormatUsageWarning(status repository.UsageStatus) string {
	return fmt.Sprintf("⚠️ *Gemini API 사용량 경고*\n%s 기준 %d/%d회 사용 (%.0f%%). 잔여 호출을 아껴서 사용하세요.",
		status.Date, status.Count, status.Limit, status.UsagePct)
}

func priorityIcon(p entity.Priority) string {
	switch p {
	case entity.PriorityHigh:
		return "🔴"
	case entity.PriorityMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

func actionIcon(a entity.Action) string {
	switch a {
	case entity.ActionBuy:
		return "🟢"
	case entity.ActionSell:
		return "🔴"
	default:
		return "🟡"
	}
}

func returnIcon(pct float64) string {
	if pct > 0 {
		return "🔺"
	}
	if pct < 0 {
		return "🔻"
	}
	return "➖"
}

func investorLabel(t entity.InvestorType) string {
	if t == entity.InvestorInstitution {
		return "기관"
	}
	return "외국인"
}

func volatilityLabel(g entity.VolatilityGrade) string {
	switch g {
	case entity.VolatilityLow:
		return "낮음"
	case entity.VolatilityMedium:
		return "보통"
	case entity.VolatilityHigh:
		return "높음"
	default:
		return "매우 높음"
	}
}

func recommendationTypeLabel(t entity.RecommendationType) string {
	switch t {
	case entity.RecommendationRuleBased:
		return "규칙 기반"
	case entity.RecommendationScoreBased:
		return "점수 기반"
	case entity.RecommendationAI:
		return "AI"
	}
	return string(t)
}

// comma renders an integer with thousands separators.
func comma(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var sb strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}
