package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/pkg/logger"
)

const dartListJSON = `{
  "status": "000",
  "message": "정상",
  "list": [
    {
      "corp_name": "삼성전자",
      "corp_code": "00126380",
      "stock_code": "005930",
      "report_nm": "주식등의대량보유상황보고서(일반)",
      "rcept_no": "20250115000001",
      "rcept_dt": "20250115",
      "flr_nm": "국민연금공단"
    },
    {
      "corp_name": "카카오",
      "corp_code": "00258801",
      "stock_code": "035720",
      "report_nm": "임원ㆍ주요주주특정증권등소유상황보고서",
      "rcept_no": "20250115000002",
      "rcept_dt": "20250115",
      "flr_nm": "홍길동"
    },
    {
      "corp_name": "NAVER",
      "corp_code": "00266961",
      "stock_code": "035420",
      "report_nm": "기타경영사항(자율공시)",
      "rcept_no": "20250115000003",
      "rcept_dt": "20250115",
      "flr_nm": "NAVER"
    }
  ]
}`

func newDartTestCollector(t *testing.T, handler http.HandlerFunc) DisclosureCollector {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log, err := logger.New("error", "console")
	require.NoError(t, err)
	c, err := NewDartCollector(srv.URL, "test-key", log)
	require.NoError(t, err)
	return c
}

func TestMajorShareholderReports(t *testing.T) {
	c := newDartTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list.json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("crtfc_key"))
		assert.Equal(t, "D", r.URL.Query().Get("pblntf_ty"))
		w.Write([]byte(dartListJSON))
	})

	reports, err := c.MajorShareholderReports(context.Background(), "20250108", "20250115")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "삼성전자", reports[0].CorpName)
	assert.Equal(t, entity.DisclosureMajorShareholder, reports[0].Type)
	assert.Equal(t, "20250115000001", reports[0].RceptNo)
}

func TestExecutiveTradingReports(t *testing.T) {
	c := newDartTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dartListJSON))
	})

	reports, err := c.ExecutiveTradingReports(context.Background(), "20250108", "20250115")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "카카오", reports[0].CorpName)
	assert.Equal(t, entity.DisclosureExecutiveTrading, reports[0].Type)
}

func TestDartNoDataStatus(t *testing.T) {
	c := newDartTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "013", "message": "조회된 데이타가 없습니다."}`))
	})

	reports, err := c.MajorShareholderReports(context.Background(), "20250108", "20250115")
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestDartErrorStatus(t *testing.T) {
	c := newDartTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "020", "message": "사용한도 초과"}`))
	})

	_, err := c.MajorShareholderReports(context.Background(), "20250108", "20250115")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "020")
}

func TestDartMissingKey(t *testing.T) {
	log, err := logger.New("error", "console")
	require.NoError(t, err)

	_, err = NewDartCollector("https://opendart.fss.or.kr/api", "", log)
	assert.ErrorIs(t, err, ErrMissingDartKey)
}
