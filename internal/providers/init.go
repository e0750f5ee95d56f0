// Package providers builds the concrete fund data sources in the order the
// resolver should try them.
package providers

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jefftan83/ai-find-fund/internal/config"
	"github.com/jefftan83/ai-find-fund/internal/infra"
	"github.com/jefftan83/ai-find-fund/internal/provider"
	"github.com/jefftan83/ai-find-fund/internal/providers/eastmoney"
	"github.com/jefftan83/ai-find-fund/internal/providers/sina"
	"github.com/jefftan83/ai-find-fund/internal/providers/tushare"
)

// Build returns the provider chain in cfg.Providers priority order. All
// providers share one rate limiter sized from the config. Token-gated
// providers are skipped when their credential is absent; unknown names are
// logged and skipped, so a typo in config degrades rather than fails.
func Build(cfg config.DataConfig, log zerolog.Logger) []provider.FundProvider {
	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = 60
	}
	limiter := infra.NewRateLimiter(rpm, time.Minute)

	var chain []provider.FundProvider
	for _, name := range cfg.Providers {
		switch name {
		case "eastmoney":
			chain = append(chain, eastmoney.New(limiter, log))
		case "sina":
			chain = append(chain, sina.New(limiter, log))
		case "tushare":
			if cfg.TushareToken == "" {
				log.Debug().Msg("tushare configured but no token set, skipping")
				continue
			}
			chain = append(chain, tushare.New(cfg.TushareToken, limiter, log))
		default:
			log.Warn().Str("provider", name).Msg("unknown provider in config, skipping")
		}
	}
	return chain
}
