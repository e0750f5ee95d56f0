// Package eastmoney implements the Eastmoney fund data provider. It is the
// richest free source and backs every resolver operation: the open-fund
// ranking feed, the f10 JSON valuation API, and the f10 HTML pages for fund
// profiles, holdings, and ratings.
package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/jefftan83/ai-find-fund/internal/infra"
	"github.com/jefftan83/ai-find-fund/internal/provider"
	"github.com/jefftan83/ai-find-fund/pkg/models"
)

const providerName = "eastmoney"

const dateLayout = "2006-01-02"

// rankCategories maps our category labels to the ranking feed's ft parameter.
// Money-market funds live in a separate feed and are not ranked here.
var rankCategories = []struct {
	category string
	ft       string
}{
	{"equity", "gp"},
	{"hybrid", "hh"},
	{"bond", "zq"},
	{"index", "zs"},
}

// Provider implements provider.FundProvider against Eastmoney's public
// endpoints.
type Provider struct {
	rankBase string // fund.eastmoney.com
	apiBase  string // api.fund.eastmoney.com
	f10Base  string // fundf10.eastmoney.com

	limiter *infra.RateLimiter
	log     zerolog.Logger
}

// Option customizes a Provider.
type Option func(*Provider)

// WithHost points every endpoint at one host, used by tests against a local
// server.
func WithHost(host string) Option {
	return func(p *Provider) {
		p.rankBase = host
		p.apiBase = host
		p.f10Base = host
	}
}

// New creates an Eastmoney provider sharing the given rate limiter.
func New(limiter *infra.RateLimiter, log zerolog.Logger, opts ...Option) *Provider {
	p := &Provider{
		rankBase: "https://fund.eastmoney.com",
		apiBase:  "https://api.fund.eastmoney.com",
		f10Base:  "https://fundf10.eastmoney.com",
		limiter:  limiter,
		log:      log.With().Str("provider", providerName).Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return providerName }

// Ping fetches a single ranking row to verify reachability.
func (p *Provider) Ping(ctx context.Context) error {
	url := p.rankBase + "/data/rankhandler.aspx?op=ph&dt=kf&ft=hh&sc=1nzf&st=desc&pi=1&pn=1&dx=1"
	if _, err := infra.GetBody(ctx, url, p.headers()); err != nil {
		return fmt.Errorf("eastmoney ping: %w", err)
	}
	return nil
}

func (p *Provider) headers() map[string]string {
	return map[string]string{"Referer": "https://fund.eastmoney.com/"}
}

func (p *Provider) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// List walks the per-category ranking feeds and returns the combined open
// fund universe tagged with our category labels.
func (p *Provider) List(ctx context.Context) ([]models.Fund, error) {
	var funds []models.Fund
	for _, rc := range rankCategories {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
		url := fmt.Sprintf("%s/data/rankhandler.aspx?op=ph&dt=kf&ft=%s&sc=1nzf&st=desc&pi=1&pn=10000&dx=1", p.rankBase, rc.ft)
		body, err := infra.GetBody(ctx, url, p.headers())
		if err != nil {
			return nil, fmt.Errorf("fetch %s ranking: %w", rc.category, err)
		}
		batch, err := parseRanking(body, rc.category)
		if err != nil {
			return nil, fmt.Errorf("parse %s ranking: %w", rc.category, err)
		}
		funds = append(funds, batch...)
	}
	p.log.Debug().Int("count", len(funds)).Msg("fund universe fetched")
	return funds, nil
}

// parseRanking extracts fund rows from the rankhandler JSONP payload. Each
// row is a comma-joined record: code, name, pinyin, date, unit nav, accum
// nav, daily, 1w, 1m, 3m, 6m, 1y, 2y, 3y, ytd, ...
func parseRanking(body, category string) ([]models.Fund, error) {
	start := strings.Index(body, "[")
	end := strings.LastIndex(body, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no datas array in ranking payload")
	}

	var rows []string
	if err := json.Unmarshal([]byte(body[start:end+1]), &rows); err != nil {
		return nil, fmt.Errorf("decode ranking rows: %w", err)
	}

	funds := make([]models.Fund, 0, len(rows))
	for _, row := range rows {
		fields := strings.Split(row, ",")
		if len(fields) < 15 {
			continue
		}
		f := models.Fund{
			Code:      fields[0],
			Name:      fields[1],
			Category:  category,
			Return1M:  parseFloat(fields[8]),
			Return3M:  parseFloat(fields[9]),
			Return6M:  parseFloat(fields[10]),
			Return1Y:  parseFloat(fields[11]),
			Return3Y:  parseFloat(fields[13]),
			ReturnYTD: parseFloat(fields[14]),
		}
		if provider.ValidateCode(f.Code) != nil {
			continue
		}
		funds = append(funds, f)
	}
	return funds, nil
}

// DailyNAV reads the latest published valuation for the whole open-fund
// universe out of the ranking feeds, which carry the valuation date and the
// unit and accumulated NAV alongside the returns.
func (p *Provider) DailyNAV(ctx context.Context) (map[string]models.NAVPoint, error) {
	points := make(map[string]models.NAVPoint)
	for _, rc := range rankCategories {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
		url := fmt.Sprintf("%s/data/rankhandler.aspx?op=ph&dt=kf&ft=%s&sc=1nzf&st=desc&pi=1&pn=10000&dx=1", p.rankBase, rc.ft)
		body, err := infra.GetBody(ctx, url, p.headers())
		if err != nil {
			return nil, fmt.Errorf("fetch %s daily nav: %w", rc.category, err)
		}
		if err := parseDailyNAV(body, points); err != nil {
			return nil, fmt.Errorf("parse %s daily nav: %w", rc.category, err)
		}
	}
	p.log.Debug().Int("count", len(points)).Msg("daily valuations fetched")
	return points, nil
}

// parseDailyNAV extracts valuation points from the rankhandler payload into
// out. Rows with an unparseable date carry no published valuation yet and
// are skipped.
func parseDailyNAV(body string, out map[string]models.NAVPoint) error {
	start := strings.Index(body, "[")
	end := strings.LastIndex(body, "]")
	if start < 0 || end <= start {
		return fmt.Errorf("no datas array in ranking payload")
	}

	var rows []string
	if err := json.Unmarshal([]byte(body[start:end+1]), &rows); err != nil {
		return fmt.Errorf("decode ranking rows: %w", err)
	}

	for _, row := range rows {
		fields := strings.Split(row, ",")
		if len(fields) < 7 {
			continue
		}
		code := fields[0]
		if provider.ValidateCode(code) != nil {
			continue
		}
		date, err := time.Parse(dateLayout, fields[3])
		if err != nil {
			continue
		}
		out[code] = models.NAVPoint{
			Code:        code,
			Date:        date,
			UnitNAV:     parseFloat(fields[4]),
			AccumNAV:    parseFloat(fields[5]),
			DailyGrowth: parseFloat(fields[6]),
		}
	}
	return nil
}

// Basic scrapes the f10 profile page for one fund.
func (p *Provider) Basic(ctx context.Context, code string) (*models.Fund, error) {
	if err := provider.ValidateCode(code); err != nil {
		return nil, err
	}
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/jbgk_%s.html", p.f10Base, code)
	body, status, err := infra.DoGet(ctx, url, p.headers())
	if err != nil {
		return nil, fmt.Errorf("fetch fund profile %s (status %d): %w", code, status, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse fund profile %s: %w", code, err)
	}

	f := &models.Fund{Code: code}
	doc.Find("table.info th").Each(func(_ int, th *goquery.Selection) {
		val := strings.TrimSpace(th.Next().Text())
		switch strings.TrimSpace(th.Text()) {
		case "基金简称":
			f.Name = val
		case "基金类型":
			f.Category = mapCategory(val)
		case "基金管理人":
			f.Company = val
		case "基金经理人":
			f.Manager = val
		case "资产规模":
			f.SizeYuan = parseSizeYuan(val)
		}
	})
	if f.Name == "" {
		return nil, fmt.Errorf("fund profile %s: no name found", code)
	}
	return f, nil
}

// mapCategory normalizes Eastmoney's fund type labels to our categories.
func mapCategory(label string) string {
	switch {
	case strings.Contains(label, "货币"):
		return "money-market"
	case strings.Contains(label, "债券"):
		return "bond"
	case strings.Contains(label, "指数") || strings.Contains(label, "联接"):
		return "index"
	case strings.Contains(label, "混合"):
		return "hybrid"
	case strings.Contains(label, "股票"):
		return "equity"
	default:
		return ""
	}
}

// parseSizeYuan parses "12.34亿元（2026-06-30）" into yuan. Unknown or
// malformed sizes come back as 0.
func parseSizeYuan(s string) float64 {
	idx := strings.Index(s, "亿")
	if idx < 0 {
		return 0
	}
	n := parseFloat(strings.TrimSpace(s[:idx]))
	return n * 1e8
}

type lsjzResponse struct {
	Data struct {
		LSJZList []struct {
			FSRQ  string `json:"FSRQ"`  // valuation date
			DWJZ  string `json:"DWJZ"`  // unit nav
			LJJZ  string `json:"LJJZ"`  // accumulated nav
			JZZZL string `json:"JZZZL"` // daily growth pct
		} `json:"LSJZList"`
	} `json:"Data"`
	ErrCode int `json:"ErrCode"`
}

// NAVHistory fetches up to days of the valuation series, oldest first.
func (p *Provider) NAVHistory(ctx context.Context, code string, days int) ([]models.NAVPoint, error) {
	if err := provider.ValidateCode(code); err != nil {
		return nil, err
	}
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}

	url := fmt.Sprintf("%s/f10/lsjz?fundCode=%s&pageIndex=1&pageSize=%d", p.apiBase, code, days)
	body, err := infra.GetBody(ctx, url, p.headers())
	if err != nil {
		return nil, fmt.Errorf("fetch nav history %s: %w", code, err)
	}

	var resp lsjzResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("decode nav history %s: %w", code, err)
	}
	if resp.ErrCode != 0 {
		return nil, fmt.Errorf("nav history %s: upstream error code %d", code, resp.ErrCode)
	}

	points := make([]models.NAVPoint, 0, len(resp.Data.LSJZList))
	// The feed is newest-first; walk it backwards to return ascending dates.
	for i := len(resp.Data.LSJZList) - 1; i >= 0; i-- {
		row := resp.Data.LSJZList[i]
		date, err := time.Parse(dateLayout, row.FSRQ)
		if err != nil {
			continue
		}
		points = append(points, models.NAVPoint{
			Code:        code,
			Date:        date,
			UnitNAV:     parseFloat(row.DWJZ),
			AccumNAV:    parseFloat(row.LJJZ),
			DailyGrowth: parseFloat(row.JZZZL),
		})
	}
	return points, nil
}

// LatestNAV returns the newest point of the valuation series.
func (p *Provider) LatestNAV(ctx context.Context, code string) (*models.NAVPoint, error) {
	points, err := p.NAVHistory(ctx, code, 1)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}
	return &points[len(points)-1], nil
}

// Holdings fetches the top stock constituents from the f10 archive endpoint.
// The payload is a JS assignment wrapping an HTML table.
func (p *Provider) Holdings(ctx context.Context, code string) ([]models.Holding, error) {
	if err := provider.ValidateCode(code); err != nil {
		return nil, err
	}
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/FundArchivesDatas.aspx?type=jjcc&code=%s&topline=10", p.f10Base, code)
	body, err := infra.GetBody(ctx, url, p.headers())
	if err != nil {
		return nil, fmt.Errorf("fetch holdings %s: %w", code, err)
	}

	html, err := extractContent(body)
	if err != nil {
		return nil, fmt.Errorf("holdings %s: %w", code, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse holdings %s: %w", code, err)
	}

	reportDate := parseReportDate(doc)
	var holdings []models.Holding
	doc.Find("table tbody tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return strings.TrimSpace(td.Text())
		})
		if len(cells) < 4 {
			return true
		}
		h := models.Holding{
			Code:       code,
			ReportDate: reportDate,
			StockCode:  cells[1],
			StockName:  cells[2],
		}
		// Trailing columns are weight, shares, market value in every report
		// layout, so the weight is third from the end. The daily-change
		// column also ends in % so a left-to-right scan would misfire.
		if w := cells[len(cells)-3]; strings.HasSuffix(w, "%") {
			h.WeightPct = parseFloat(strings.TrimSuffix(w, "%"))
		}
		if h.StockCode != "" && h.WeightPct > 0 {
			holdings = append(holdings, h)
		}
		return len(holdings) < 10
	})
	return holdings, nil
}

// extractContent pulls the HTML string out of `var apidata={ content:"...",
// arryear:[...]}`.
func extractContent(body string) (string, error) {
	start := strings.Index(body, `content:"`)
	if start < 0 {
		return "", fmt.Errorf("no content field in payload")
	}
	start += len(`content:"`)
	end := strings.Index(body[start:], `",`)
	if end < 0 {
		return "", fmt.Errorf("unterminated content field in payload")
	}
	return strings.ReplaceAll(body[start:start+end], `\"`, `"`), nil
}

// parseReportDate reads the "2026年2季度" style heading and maps the quarter
// to its report date.
func parseReportDate(doc *goquery.Document) time.Time {
	text := doc.Find("h4, .box h4 label, font").First().Text()
	if text == "" {
		text = doc.Text()
	}
	yearIdx := strings.Index(text, "年")
	if yearIdx < 4 {
		return time.Time{}
	}
	year, err := strconv.Atoi(text[yearIdx-4 : yearIdx])
	if err != nil {
		return time.Time{}
	}
	quarterEnds := map[string]string{"1": "-03-31", "2": "-06-30", "3": "-09-30", "4": "-12-31"}
	rest := text[yearIdx:]
	for q, suffix := range quarterEnds {
		if strings.Contains(rest, q+"季度") {
			d, _ := time.Parse(dateLayout, strconv.Itoa(year)+suffix)
			return d
		}
	}
	return time.Time{}
}

// Rating scrapes the f10 rating page. Rows list one agency per line with
// star counts for the 1/2/3 year windows.
func (p *Provider) Rating(ctx context.Context, code string) (*models.Rating, error) {
	if err := provider.ValidateCode(code); err != nil {
		return nil, err
	}
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/jjpj_%s.html", p.f10Base, code)
	body, status, err := infra.DoGet(ctx, url, p.headers())
	if err != nil {
		return nil, fmt.Errorf("fetch rating %s (status %d): %w", code, status, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse rating %s: %w", code, err)
	}

	r := &models.Rating{Code: code, Date: time.Now().Truncate(24 * time.Hour)}
	doc.Find("table.pjtable tbody tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return strings.TrimSpace(td.Text())
		})
		if len(cells) < 4 {
			return true
		}
		r.Agency = cells[0]
		r.Rating1Y = parseStars(cells[1])
		r.Rating2Y = parseStars(cells[2])
		r.Rating3Y = parseStars(cells[3])
		return false // first agency row wins
	})
	if r.Agency == "" {
		return nil, nil // unrated fund
	}
	return r, nil
}

// Ratings scrapes the all-fund rating board. Each row carries one composite
// star score per rating agency; they fill the 1/2/3 year slots in agency
// order, matching what the per-fund page summarizes.
func (p *Provider) Ratings(ctx context.Context) (map[string]models.Rating, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	url := p.rankBase + "/data/fundrating.html"
	body, status, err := infra.DoGet(ctx, url, p.headers())
	if err != nil {
		return nil, fmt.Errorf("fetch rating board (status %d): %w", status, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse rating board: %w", err)
	}

	date := time.Now().Truncate(24 * time.Hour)
	ratings := make(map[string]models.Rating)
	doc.Find("table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return strings.TrimSpace(td.Text())
		})
		if len(cells) < 8 {
			return
		}
		code := cells[0]
		if provider.ValidateCode(code) != nil {
			return
		}
		r := models.Rating{
			Code:     code,
			Date:     date,
			Agency:   "综合",
			Rating1Y: parseStars(cells[5]),
			Rating2Y: parseStars(cells[6]),
			Rating3Y: parseStars(cells[7]),
		}
		if r.Rating1Y == 0 && r.Rating2Y == 0 && r.Rating3Y == 0 {
			return // unrated row
		}
		ratings[code] = r
	})
	p.log.Debug().Int("count", len(ratings)).Msg("rating board fetched")
	return ratings, nil
}

// parseStars reads a star cell: either a bare digit or a run of ★ glyphs.
func parseStars(s string) int {
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 5 {
		return n
	}
	return strings.Count(s, "★")
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "--" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
