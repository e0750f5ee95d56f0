package models

import "time"

// Fund is the instrument record the resolver assembles from the cache and the
// upstream providers. Trailing returns and risk statistics are percentages.
type Fund struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"` // bond, money-market, hybrid, equity, index, sector, fixed-income-plus
	Company  string `json:"company,omitempty"`
	Manager  string `json:"manager,omitempty"`

	Return1M  float64 `json:"return_1m"`
	Return3M  float64 `json:"return_3m"`
	Return6M  float64 `json:"return_6m"`
	Return1Y  float64 `json:"return_1y"`
	Return3Y  float64 `json:"return_3y"`
	ReturnYTD float64 `json:"return_ytd"`

	MaxDrawdown float64 `json:"max_drawdown"` // positive percentage, peak to trough
	Volatility  float64 `json:"volatility"`   // annualized, percentage

	Rating1Y int `json:"rating_1y"` // star ratings, 0 = unrated
	Rating2Y int `json:"rating_2y"`
	Rating3Y int `json:"rating_3y"`

	SizeYuan      float64 `json:"size_yuan"`       // 0 = unknown
	TopHoldingPct float64 `json:"top_holding_pct"` // weight of the largest constituent
}

// Rated reports whether the fund carries any star rating.
func (f Fund) Rated() bool {
	return f.Rating1Y > 0 || f.Rating2Y > 0 || f.Rating3Y > 0
}

// BestRating returns the highest of the 1/2/3-year star ratings.
func (f Fund) BestRating() int {
	best := f.Rating1Y
	if f.Rating2Y > best {
		best = f.Rating2Y
	}
	if f.Rating3Y > best {
		best = f.Rating3Y
	}
	return best
}

// NAVPoint is one day of a fund's valuation series.
type NAVPoint struct {
	Code        string    `json:"code"`
	Date        time.Time `json:"date"`
	UnitNAV     float64   `json:"unit_nav"`
	AccumNAV    float64   `json:"accum_nav"`
	DailyGrowth float64   `json:"daily_growth"` // percentage change vs prior day
}

// Holding is a single constituent of a fund's reported portfolio.
type Holding struct {
	Code        string    `json:"code"` // fund code
	ReportDate  time.Time `json:"report_date"`
	StockCode   string    `json:"stock_code"`
	StockName   string    `json:"stock_name"`
	WeightPct   float64   `json:"weight_pct"`
	Shares      int64     `json:"shares,omitempty"`
	MarketValue float64   `json:"market_value,omitempty"`
}

// Rating is an agency star rating snapshot for a fund.
type Rating struct {
	Code     string    `json:"code"`
	Date     time.Time `json:"date"`
	Agency   string    `json:"agency"`
	Rating1Y int       `json:"rating_1y"`
	Rating2Y int       `json:"rating_2y"`
	Rating3Y int       `json:"rating_3y"`
}

// Performance holds statistics computed from a fund's NAV history.
type Performance struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`
	MaxDrawdown      float64 `json:"max_drawdown"`
}

// Analysis bundles everything the resolver can gather about a single fund.
type Analysis struct {
	Basic       *Fund       `json:"basic,omitempty"`
	LatestNAV   *NAVPoint   `json:"latest_nav,omitempty"`
	Holdings    []Holding   `json:"holdings,omitempty"`
	Rating      *Rating     `json:"rating,omitempty"`
	Performance Performance `json:"performance"`
}
