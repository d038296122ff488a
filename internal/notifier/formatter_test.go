package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/internal/repository"
)

func TestComma(t *testing.T) {
	assert.Equal(t, "0", comma(0))
	assert.Equal(t, "999", comma(999))
	assert.Equal(t, "1,000", comma(1000))
	assert.Equal(t, "70,000", comma(70000))
	assert.Equal(t, "1,234,567", comma(1234567))
	assert.Equal(t, "-1,234", comma(-1234))
}

func TestFormatDailySummary(t *testing.T) {
	summary := entity.DailySummary{
		Date: "2025-01-15",
		ForeignerTop: []entity.FlowRecord{{
			StockCode: "005930", StockName: "삼성전자",
			NetBuyAmount: 250 * entity.HundredMillionKRW, ChangeRate: 1.5,
		}},
		MajorShareholderCount: 2,
	}

	text := FormatDailySummary(summary)
	assert.Contains(t, text, "2025-01-15")
	assert.Contains(t, text, "삼성전자 (005930): 250억원")
	assert.Contains(t, text, "대량보유 2건")
	assert.Contains(t, text, "_데이터 없음_") // empty institution list
}

func TestFormatSignals(t *testing.T) {
	flow := entity.FlowRecord{StockCode: "005930", StockName: "삼성전자"}
	signals := []entity.Signal{
		{Type: entity.SignalForeigner, Priority: entity.PriorityHigh, Flow: &flow, Reason: "외국인 순매수 250억원"},
		{Type: entity.SignalMajorShareholder, Priority: entity.PriorityMedium,
			Disclosure: &entity.DisclosureRecord{CorpName: "카카오", ReportName: "주식등의대량보유상황보고서", RceptNo: "1"},
			Reason:     "5% 이상 대량보유 공시 발생"},
	}
	risks := map[string]*entity.RiskLevel{
		"005930": {StopLossPrice: 68000, TakeProfit1Price: 73000, TakeProfit2Price: 75000},
	}

	text := FormatSignals(signals, risks)
	assert.Contains(t, text, "🔴 *삼성전자* (005930)")
	assert.Contains(t, text, "손절 68,000")
	assert.Contains(t, text, "🟡 *카카오*")
	assert.Contains(t, text, "주식등의대량보유상황보고서")
}

func TestFormatRecommendations(t *testing.T) {
	ruleBased := []entity.Recommendation{{
		StockCode: "005930", StockName: "삼성전자", Action: entity.ActionBuy, Score: 70,
		Reasons:     []string{"외국인 순매수: 500억원"},
		RiskFactors: []string{"단기 차익 실현 매물 출회 가능성"},
	}}

	text := FormatRecommendations(ruleBased, nil, "AI 코멘트", nil)
	assert.Contains(t, text, "🟢 *삼성전자* (005930) 점수 70")
	assert.Contains(t, text, "• 외국인 순매수: 500억원")
	assert.Contains(t, text, "⚠️ 단기 차익 실현 매물 출회 가능성")
	assert.Contains(t, text, "🤖 *AI 분석*")
	assert.Contains(t, text, "_해당 없음_") // empty score-based section
}

func TestFormatBacktestReport(t *testing.T) {
	assert.Contains(t, FormatBacktestReport(nil), "분석할 추천 기록이 없습니다")

	ret := 5.0
	summary := &entity.BacktestSummary{
		Period:               "최근 60일",
		TotalRecommendations: 3,
		HoldingPeriods:       entity.HoldingPeriods,
		AvgReturns:           map[int]float64{5: 2.5},
		WinRates:             map[int]float64{5: 66.67},
		MaxReturns:           map[int]float64{5: 8.0},
		MinReturns:           map[int]float64{5: -3.0},
		AvgExcessReturns:     map[int]float64{5: 1.2},
		ByRecommendationType: map[entity.RecommendationType]entity.TypePerformance{
			entity.RecommendationRuleBased: {Count: 3, AvgReturn5D: 2.5, WinRate5D: 66.67},
		},
		BestPerformers: map[int]entity.BacktestResult{
			5: {StockName: "삼성전자", RecommendedDate: "2025-01-02", Returns: map[int]*float64{5: &ret}},
		},
	}

	text := FormatBacktestReport(summary)
	assert.Contains(t, text, "최근 60일")
	assert.Contains(t, text, "5일: 평균 +2.50%")
	assert.Contains(t, text, "초과수익 +1.20%p")
	assert.Contains(t, text, "규칙 기반: 3건")
	assert.Contains(t, text, "🏆 최고: 삼성전자")
}

func TestFormatPerformanceReport(t *testing.T) {
	assert.Contains(t, FormatPerformanceReport(nil), "집계할 추천 기록이 없습니다")

	report := &entity.PerformanceReport{
		PeriodDays:           30,
		TotalRecommendations: 1,
		AvgReturn:            10.0,
		WinRate:              100.0,
		Results: []entity.PerformanceResult{{
			StockCode: "005930", StockName: "삼성전자",
			RecommendedPrice: 70000, CurrentPrice: 77000, ReturnPct: 10.0, DaysHeld: 5,
		}},
	}

	text := FormatPerformanceReport(report)
	assert.Contains(t, text, "평균 수익률 +10.00%")
	assert.Contains(t, text, "🔺 삼성전자 (005930): 70,000 → 77,000")
}

func TestFormatTriggeredAlerts(t *testing.T) {
	alerts := []entity.TriggeredAlert{{
		PriceAlert: entity.PriceAlert{
			StockCode: "005930", StockName: "삼성전자",
			AlertType: entity.PriceAlertBelow, TargetPrice: 70000, Memo: "지지선",
		},
		CurrentPrice: 69500,
		ChangeRate:   -1.2,
	}}

	text := FormatTriggeredAlerts(alerts)
	assert.Contains(t, text, "현재가 69,500원, 목표 70,000원 이하 도달")
	assert.Contains(t, text, "📝 지지선")
}

func TestFormatUsageWarning(t *testing.T) {
	text := FormatUsageWarning(repository.UsageStatus{
		Date: "2025-01-15", Count: 1200, Limit: 1500, UsagePct: 80,
	})
	assert.Contains(t, text, "1200/1500")
	assert.Contains(t, text, "80%")
}
