package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang-stock-tracker/internal/entity"
	"golang-stock-tracker/pkg/logger"
	"golang-stock-tracker/pkg/utils"
)

// ErrMissingDartKey is returned when no DART API key is configured; the
// caller disables the disclosure channel and continues.
var ErrMissingDartKey = errors.New("DART API key is not configured")

// DisclosureCollector fetches regulatory filings.
type DisclosureCollector interface {
	MajorShareholderReports(ctx context.Context, start, end string) ([]entity.DisclosureRecord, error)
	ExecutiveTradingReports(ctx context.Context, start, end string) ([]entity.DisclosureRecord, error)
	AllDisclosureReports(ctx context.Context) (major, executive []entity.DisclosureRecord)
}

const (
	// DART status codes.
	dartStatusOK     = "000"
	dartStatusNoData = "013"

	disclosureLookbackDays = 7
)

type dartListResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	List    []struct {
		CorpName  string `json:"corp_name"`
		CorpCode  string `json:"corp_code"`
		StockCode string `json:"stock_code"`
		ReportNm  string `json:"report_nm"`
		RceptNo   string `json:"rcept_no"`
		RceptDt   string `json:"rcept_dt"`
		FlrNm     string `json:"flr_nm"`
	} `json:"list"`
}

type dartCollector struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     *logger.Logger
}

// NewDartCollector creates a DisclosureCollector against the DART open API.
func NewDartCollector(baseURL, apiKey string, log *logger.Logger) (DisclosureCollector, error) {
	if apiKey == "" {
		return nil, ErrMissingDartKey
	}
	return &dartCollector{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     log,
	}, nil
}

// MajorShareholderReports returns 5%-stake filings in [start, end].
func (c *dartCollector) MajorShareholderReports(ctx context.Context, start, end string) ([]entity.DisclosureRecord, error) {
	return c.listFiltered(ctx, start, end, entity.DisclosureMajorShareholder, func(reportName string) bool {
		return strings.Contains(reportName, "대량보유")
	})
}

// ExecutiveTradingReports returns executive/major-shareholder trading filings
// in [start, end].
func (c *dartCollector) ExecutiveTradingReports(ctx context.Context, start, end string) ([]entity.DisclosureRecord, error) {
	return c.listFiltered(ctx, start, end, entity.DisclosureExecutiveTrading, func(reportName string) bool {
		return strings.Contains(reportName, "임원") || strings.Contains(reportName, "주요주주")
	})
}

// AllDisclosureReports fetches both filing categories over the default
// 7-day window, degrading to empty lists on failure.
func (c *dartCollector) AllDisclosureReports(ctx context.Context) ([]entity.DisclosureRecord, []entity.DisclosureRecord) {
	now := utils.TimeNowKST()
	end := now.Format(utils.KrxDateLayout)
	start := now.AddDate(0, 0, -disclosureLookbackDays).Format(utils.KrxDateLayout)

	major, err := c.MajorShareholderReports(ctx, start, end)
	if err != nil {
		c.log.Error("Failed to fetch major shareholder reports", logger.ErrorField(err))
	}
	executive, err := c.ExecutiveTradingReports(ctx, start, end)
	if err != nil {
		c.log.Error("Failed to fetch executive trading reports", logger.ErrorField(err))
	}
	return major, executive
}

func (c *dartCollector) listFiltered(ctx context.Context, start, end string, dtype entity.DisclosureType, match func(string) bool) ([]entity.DisclosureRecord, error) {
	params := url.Values{}
	params.Set("crtfc_key", c.apiKey)
	params.Set("bgn_de", start)
	params.Set("end_de", end)
	params.Set("pblntf_ty", "D") // ownership disclosures
	params.Set("page_count", "100")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/list.json?%s", c.baseURL, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create DART request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call DART API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DART API returned status %d", resp.StatusCode)
	}

	var list dartListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode DART response: %w", err)
	}

	if list.Status != dartStatusOK {
		if list.Status == dartStatusNoData {
			return nil, nil
		}
		return nil, fmt.Errorf("DART API error %s: %s", list.Status, list.Message)
	}

	var records []entity.DisclosureRecord
	for _, r := range list.List {
		if !match(r.ReportNm) {
			continue
		}
		records = append(records, entity.DisclosureRecord{
			Type:       dtype,
			CorpName:   r.CorpName,
			CorpCode:   r.CorpCode,
			StockCode:  r.StockCode,
			ReportName: r.ReportNm,
			RceptNo:    r.RceptNo,
			RceptDate:  r.RceptDt,
			FilerName:  r.FlrNm,
		})
	}
	return records, nil
}
