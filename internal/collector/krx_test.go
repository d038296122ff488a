package collector

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-stock-tracker/pkg/logger"
)

const dealRankHTML = `
<table class="type_2">
  <tr><th>종목명</th><th>거래량</th><th>금액</th><th>현재가</th><th>전일비</th><th>등락률</th></tr>
  <tr>
    <td><a href="/item/main.naver?code=005930">삼성전자</a></td>
    <td>1,234,567</td><td>50,000</td><td>70,000</td><td>1,000</td><td>+1.45%</td>
  </tr>
  <tr>
    <td><a href="/item/main.naver?code=000660">SK하이닉스</a></td>
    <td>456,789</td><td>-12,000</td><td>180,000</td><td>-2,000</td><td>-1.10%</td>
  </tr>
  <tr><td>합계</td><td></td><td></td><td></td><td></td><td></td></tr>
</table>`

func newTestCollector(t *testing.T) *krxCollector {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return NewKrxCollector(log).(*krxCollector)
}

func TestParseRows(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(dealRankHTML))
	require.NoError(t, err)

	c := newTestCollector(t)
	records := c.parseRows(doc, "KOSPI", "20250115")

	// Only the positive net-buy row survives.
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "005930", rec.StockCode)
	assert.Equal(t, "삼성전자", rec.StockName)
	assert.Equal(t, int64(50_000_000_000), rec.NetBuyAmount) // 50,000 million KRW
	assert.Equal(t, int64(70000), rec.ClosePrice)
	assert.InDelta(t, 1.45, rec.ChangeRate, 0.001)
	assert.Equal(t, "KOSPI", rec.Market)
	assert.Equal(t, "20250115", rec.Date)
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(50000), parseNumber("50,000"))
	assert.Equal(t, int64(-12000), parseNumber("-12,000"))
	assert.Equal(t, int64(0), parseNumber(""))
	assert.Equal(t, int64(0), parseNumber("-"))
	assert.Equal(t, int64(0), parseNumber("N/A"))
}

func TestParseRate(t *testing.T) {
	assert.InDelta(t, 1.45, parseRate("+1.45%"), 0.001)
	assert.InDelta(t, -1.10, parseRate("-1.10%"), 0.001)
	assert.Equal(t, 0.0, parseRate(""))
}
