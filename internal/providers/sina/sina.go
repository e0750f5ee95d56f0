// Package sina implements the Sina Finance fund provider. It only exposes
// the realtime quote feed, so it serves as a latest-NAV fallback when the
// primary source is down; everything else is unsupported.
package sina

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jefftan83/ai-find-fund/internal/infra"
	"github.com/jefftan83/ai-find-fund/internal/provider"
	"github.com/jefftan83/ai-find-fund/pkg/models"
)

const providerName = "sina"

// Provider implements provider.FundProvider against hq.sinajs.cn.
type Provider struct {
	provider.Unsupported

	base    string
	limiter *infra.RateLimiter
	log     zerolog.Logger
}

// Option customizes a Provider.
type Option func(*Provider)

// WithHost points the quote feed at a test server.
func WithHost(host string) Option {
	return func(p *Provider) { p.base = host }
}

// New creates a Sina provider sharing the given rate limiter.
func New(limiter *infra.RateLimiter, log zerolog.Logger, opts ...Option) *Provider {
	p := &Provider{
		base:    "https://hq.sinajs.cn",
		limiter: limiter,
		log:     log.With().Str("provider", providerName).Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) headers() map[string]string {
	// The feed rejects requests without a Sina referer.
	return map[string]string{"Referer": "https://finance.sina.com.cn"}
}

// Ping fetches a well-known fund quote to verify reachability.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.quote(ctx, "000001"); err != nil {
		return fmt.Errorf("sina ping: %w", err)
	}
	return nil
}

// quote fetches and parses one hq_str_f_ line:
//
//	var hq_str_f_161725="招商中证白酒指数,1.1920,2.0093,2026-08-29,...";
func (p *Provider) quote(ctx context.Context, code string) ([]string, error) {
	if err := provider.ValidateCode(code); err != nil {
		return nil, err
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, err := infra.GetBody(ctx, p.base+"/list=f_"+code, p.headers())
	if err != nil {
		return nil, fmt.Errorf("fetch quote %s: %w", code, err)
	}

	start := strings.Index(body, `"`)
	end := strings.LastIndex(body, `"`)
	if start < 0 || end <= start {
		return nil, fmt.Errorf("quote %s: malformed payload", code)
	}
	inner := body[start+1 : end]
	if inner == "" {
		return nil, nil // unknown code
	}
	fields := strings.Split(inner, ",")
	if len(fields) < 4 {
		return nil, fmt.Errorf("quote %s: expected 4+ fields, got %d", code, len(fields))
	}
	return fields, nil
}

// LatestNAV returns the most recent published valuation from the quote feed.
func (p *Provider) LatestNAV(ctx context.Context, code string) (*models.NAVPoint, error) {
	fields, err := p.quote(ctx, code)
	if err != nil || fields == nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", fields[3])
	if err != nil {
		return nil, fmt.Errorf("quote %s: bad date %q", code, fields[3])
	}
	unit, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil, fmt.Errorf("quote %s: bad nav %q", code, fields[1])
	}
	accum, _ := strconv.ParseFloat(fields[2], 64)

	return &models.NAVPoint{Code: code, Date: date, UnitNAV: unit, AccumNAV: accum}, nil
}

// Basic returns a name-only record; the quote feed carries no profile fields.
func (p *Provider) Basic(ctx context.Context, code string) (*models.Fund, error) {
	fields, err := p.quote(ctx, code)
	if err != nil || fields == nil {
		return nil, err
	}
	return &models.Fund{Code: code, Name: fields[0]}, nil
}
