// Package analyzer holds the scoring, risk and persistence-backed analysis
// engines that turn collected flow and disclosure data into ranked trade
// ideas and alert signals.
package analyzer

import (
	"fmt"
	"sort"

	"golang-stock-tracker/internal/entity"
)

const (
	// Single-side net buying above this many hundred-million KRW is large
	// enough to recommend without the other investor class joining.
	largeSingleSideAmount = 500

	foreignerScoreMax   = 40.0
	institutionScoreMax = 40.0
	insiderScoreValue   = 20.0

	// Score-based entries at or below this total are dropped.
	minTotalScore = 20.0
	// Totals at or above this become BUY instead of HOLD.
	buyScoreThreshold = 50.0
)

// Recommender ranks stocks from investor flow and disclosure lists. All
// methods are pure: no I/O, no retained state.
type Recommender struct{}

// NewRecommender creates a Recommender.
func NewRecommender() *Recommender {
	return &Recommender{}
}

// RuleBased recommends stocks where foreigners and institutions buy
// together, or either side buys very large. Score is the combined amount in
// hundred-million KRW divided by ten, capped at 100.
func (r *Recommender) RuleBased(foreigner, institution []entity.FlowRecord, topN int) []entity.Recommendation {
	foreignerByCode := positiveFlowByCode(foreigner)
	institutionByCode := positiveFlowByCode(institution)

	var recs []entity.Recommendation
	common := map[string]bool{}

	for code, f := range foreignerByCode {
		i, ok := institutionByCode[code]
		if !ok {
			continue
		}
		common[code] = true

		fAmount := f.AmountInHundredMillion()
		iAmount := i.AmountInHundredMillion()
		recs = append(recs, entity.Recommendation{
			StockCode: code,
			StockName: f.StockName,
			Action:    entity.ActionBuy,
			Score:     capScore((fAmount + iAmount) / 10),
			Reasons: []string{
				fmt.Sprintf("외국인 순매수: %.0f억원", fAmount),
				fmt.Sprintf("기관 순매수: %.0f억원", iAmount),
				"외국인+기관 동시 매수 (수급 일치)",
			},
			RiskFactors: []string{"단기 차익 실현 매물 출회 가능성"},
		})
	}

	for code, f := range foreignerByCode {
		if common[code] {
			continue
		}
		amount := f.AmountInHundredMillion()
		if amount < largeSingleSideAmount {
			continue
		}
		recs = append(recs, entity.Recommendation{
			StockCode: code,
			StockName: f.StockName,
			Action:    entity.ActionBuy,
			Score:     capScore(amount / 10),
			Reasons: []string{
				fmt.Sprintf("외국인 대량 순매수: %.0f억원", amount),
				"외국인 수급 강세",
			},
			RiskFactors: []string{"기관 미동참으로 추가 상승 제한 가능"},
		})
	}

	for code, i := range institutionByCode {
		if common[code] {
			continue
		}
		amount := i.AmountInHundredMillion()
		if amount < largeSingleSideAmount {
			continue
		}
		recs = append(recs, entity.Recommendation{
			StockCode: code,
			StockName: i.StockName,
			Action:    entity.ActionBuy,
			Score:     capScore(amount / 10),
			Reasons: []string{
				fmt.Sprintf("기관 대량 순매수: %.0f억원", amount),
				"기관 수급 강세",
			},
			RiskFactors: []string{"외국인 미동참으로 추가 상승 제한 가능"},
		})
	}

	sortRecommendations(recs)
	return truncate(recs, topN)
}

type stockScore struct {
	stockName        string
	foreignerScore   float64
	institutionScore float64
	insiderScore     float64
	reasons          []string
}

// ScoreBased ranks stocks by a composite of foreigner flow (40), institution
// flow (40) and insider-trading disclosures (20). The insider component joins
// on company name equality with disclosure corp names, which can miss stocks
// whose listed name differs from the filing name.
func (r *Recommender) ScoreBased(foreigner, institution []entity.FlowRecord, executive []entity.DisclosureRecord, topN int) []entity.Recommendation {
	scores := map[string]*stockScore{}
	ensure := func(item entity.FlowRecord) *stockScore {
		s, ok := scores[item.StockCode]
		if !ok {
			s = &stockScore{stockName: item.StockName}
			scores[item.StockCode] = s
		}
		return s
	}

	if maxAmount := maxNetBuy(foreigner); maxAmount > 0 {
		for _, item := range foreigner {
			s := ensure(item)
			if item.NetBuyAmount > 0 {
				s.foreignerScore = float64(item.NetBuyAmount) / float64(maxAmount) * foreignerScoreMax
				s.reasons = append(s.reasons, fmt.Sprintf("외국인: %.0f억원", item.AmountInHundredMillion()))
			}
		}
	} else {
		for _, item := range foreigner {
			ensure(item)
		}
	}

	if maxAmount := maxNetBuy(institution); maxAmount > 0 {
		for _, item := range institution {
			s := ensure(item)
			if item.NetBuyAmount > 0 {
				s.institutionScore = float64(item.NetBuyAmount) / float64(maxAmount) * institutionScoreMax
				s.reasons = append(s.reasons, fmt.Sprintf("기관: %.0f억원", item.AmountInHundredMillion()))
			}
		}
	} else {
		for _, item := range institution {
			ensure(item)
		}
	}

	insiderCorps := map[string]bool{}
	for _, d := range executive {
		insiderCorps[d.CorpName] = true
	}
	for _, s := range scores {
		if insiderCorps[s.stockName] {
			s.insiderScore = insiderScoreValue
			s.reasons = append(s.reasons, "임원/주요주주 거래 공시 있음")
		}
	}

	var recs []entity.Recommendation
	for code, s := range scores {
		total := s.foreignerScore + s.institutionScore + s.insiderScore
		if total <= minTotalScore {
			continue
		}

		var riskFactors []string
		if s.foreignerScore == 0 {
			riskFactors = append(riskFactors, "외국인 매수세 없음")
		}
		if s.institutionScore == 0 {
			riskFactors = append(riskFactors, "기관 매수세 없음")
		}
		if len(riskFactors) == 0 {
			riskFactors = []string{"특이사항 없음"}
		}

		action := entity.ActionHold
		if total >= buyScoreThreshold {
			action = entity.ActionBuy
		}

		recs = append(recs, entity.Recommendation{
			StockCode:   code,
			StockName:   s.stockName,
			Action:      action,
			Score:       total,
			Reasons:     s.reasons,
			RiskFactors: riskFactors,
		})
	}

	sortRecommendations(recs)
	return truncate(recs, topN)
}

func positiveFlowByCode(flows []entity.FlowRecord) map[string]entity.FlowRecord {
	byCode := map[string]entity.FlowRecord{}
	for _, f := range flows {
		if f.NetBuyAmount > 0 {
			byCode[f.StockCode] = f
		}
	}
	return byCode
}

func maxNetBuy(flows []entity.FlowRecord) int64 {
	var max int64
	for _, f := range flows {
		if f.NetBuyAmount > max {
			max = f.NetBuyAmount
		}
	}
	return max
}

func capScore(score float64) float64 {
	if score > 100 {
		return 100
	}
	return score
}

// sortRecommendations orders by score descending with stock code as the
// deterministic tie-break.
func sortRecommendations(recs []entity.Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].StockCode < recs[j].StockCode
	})
}

func truncate(recs []entity.Recommendation, topN int) []entity.Recommendation {
	if topN > 0 && len(recs) > topN {
		return recs[:topN]
	}
	return recs
}
