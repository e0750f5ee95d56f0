// Package tushare implements the Tushare Pro fund provider. Tushare is a
// token-gated JSON API; the factory only wires it up when a token is
// configured. It serves fund profiles, the valuation series, and portfolio
// holdings. Star ratings are not in its catalogue.
package tushare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/jefftan83/ai-find-fund/internal/infra"
	"github.com/jefftan83/ai-find-fund/internal/provider"
	"github.com/jefftan83/ai-find-fund/pkg/models"
)

const providerName = "tushare"

const tsDateLayout = "20060102"

// Provider implements provider.FundProvider against api.tushare.pro.
type Provider struct {
	provider.Unsupported

	base    string
	token   string
	limiter *infra.RateLimiter
	log     zerolog.Logger
}

// Option customizes a Provider.
type Option func(*Provider)

// WithHost points the API at a test server.
func WithHost(host string) Option {
	return func(p *Provider) { p.base = host }
}

// New creates a Tushare provider. The token is required for every call.
func New(token string, limiter *infra.RateLimiter, log zerolog.Logger, opts ...Option) *Provider {
	p := &Provider{
		base:    "https://api.tushare.pro",
		token:   token,
		limiter: limiter,
		log:     log.With().Str("provider", providerName).Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return providerName }

// Ping issues a minimal fund_basic call to verify the token.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := p.call(ctx, "fund_basic", map[string]string{"limit": "1"}, "ts_code")
	if err != nil {
		return fmt.Errorf("tushare ping: %w", err)
	}
	return nil
}

type apiRequest struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params,omitempty"`
	Fields  string            `json:"fields,omitempty"`
}

type apiResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Fields []string          `json:"fields"`
		Items  [][]json.RawMessage `json:"items"`
	} `json:"data"`
}

// call posts one API request and returns the rows keyed by field name.
func (p *Provider) call(ctx context.Context, apiName string, params map[string]string, fields string) ([]map[string]string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqBody, err := json.Marshal(apiRequest{APIName: apiName, Token: p.token, Params: params, Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", apiName, err)
	}
	body, err := infra.DoPost(ctx, p.base, string(reqBody))
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", apiName, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", apiName, err)
	}
	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", apiName, err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s: upstream error %d: %s", apiName, resp.Code, resp.Msg)
	}

	rows := make([]map[string]string, 0, len(resp.Data.Items))
	for _, item := range resp.Data.Items {
		row := make(map[string]string, len(resp.Data.Fields))
		for i, name := range resp.Data.Fields {
			if i >= len(item) {
				break
			}
			row[name] = decodeCell(item[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// decodeCell flattens a JSON cell (string, number, or null) to its text form.
func decodeCell(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// tsCode converts a bare fund code to Tushare's open-fund symbol.
func tsCode(code string) string { return code + ".OF" }

// Basic returns the fund_basic record for one fund.
func (p *Provider) Basic(ctx context.Context, code string) (*models.Fund, error) {
	if err := provider.ValidateCode(code); err != nil {
		return nil, err
	}
	rows, err := p.call(ctx, "fund_basic",
		map[string]string{"ts_code": tsCode(code)},
		"ts_code,name,management,fund_type,m_fee")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	return &models.Fund{
		Code:     code,
		Name:     row["name"],
		Company:  row["management"],
		Category: mapFundType(row["fund_type"]),
	}, nil
}

// mapFundType normalizes Tushare's fund_type labels to our categories.
func mapFundType(t string) string {
	switch t {
	case "货币市场型":
		return "money-market"
	case "债券型":
		return "bond"
	case "混合型":
		return "hybrid"
	case "股票型":
		return "equity"
	default:
		return ""
	}
}

// NAVHistory returns up to days of the fund_nav series, oldest first.
func (p *Provider) NAVHistory(ctx context.Context, code string, days int) ([]models.NAVPoint, error) {
	if err := provider.ValidateCode(code); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}
	start := time.Now().AddDate(0, 0, -days*2) // pad for non-trading days

	rows, err := p.call(ctx, "fund_nav",
		map[string]string{
			"ts_code":    tsCode(code),
			"start_date": start.Format(tsDateLayout),
		},
		"ts_code,nav_date,unit_nav,accum_nav")
	if err != nil {
		return nil, err
	}

	points := make([]models.NAVPoint, 0, len(rows))
	// Tushare returns newest first; walk backwards for ascending order.
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		date, err := time.Parse(tsDateLayout, row["nav_date"])
		if err != nil {
			continue
		}
		unit, _ := strconv.ParseFloat(row["unit_nav"], 64)
		accum, _ := strconv.ParseFloat(row["accum_nav"], 64)
		points = append(points, models.NAVPoint{Code: code, Date: date, UnitNAV: unit, AccumNAV: accum})
	}
	// Fill daily growth from consecutive closes; the API has no growth field.
	for i := 1; i < len(points); i++ {
		if prev := points[i-1].UnitNAV; prev > 0 {
			points[i].DailyGrowth = (points[i].UnitNAV - prev) / prev * 100
		}
	}
	if len(points) > days {
		points = points[len(points)-days:]
	}
	return points, nil
}

// LatestNAV returns the newest point of the valuation series.
func (p *Provider) LatestNAV(ctx context.Context, code string) (*models.NAVPoint, error) {
	points, err := p.NAVHistory(ctx, code, 7)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}
	return &points[len(points)-1], nil
}

// Holdings returns the most recent fund_portfolio snapshot.
func (p *Provider) Holdings(ctx context.Context, code string) ([]models.Holding, error) {
	if err := provider.ValidateCode(code); err != nil {
		return nil, err
	}
	rows, err := p.call(ctx, "fund_portfolio",
		map[string]string{"ts_code": tsCode(code)},
		"ts_code,end_date,symbol,mkv,amount,stk_mkv_ratio")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Rows span several report dates; keep only the newest one.
	newest := rows[0]["end_date"]
	for _, row := range rows {
		if row["end_date"] > newest {
			newest = row["end_date"]
		}
	}
	reportDate, _ := time.Parse(tsDateLayout, newest)

	var holdings []models.Holding
	for _, row := range rows {
		if row["end_date"] != newest {
			continue
		}
		weight, _ := strconv.ParseFloat(row["stk_mkv_ratio"], 64)
		value, _ := strconv.ParseFloat(row["mkv"], 64)
		shares, _ := strconv.ParseFloat(row["amount"], 64)
		holdings = append(holdings, models.Holding{
			Code:        code,
			ReportDate:  reportDate,
			StockCode:   row["symbol"],
			WeightPct:   weight,
			Shares:      int64(shares),
			MarketValue: value,
		})
	}
	return holdings, nil
}
