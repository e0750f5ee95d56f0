// Package fundata resolves fund data through a local cache backed by a chain
// of upstream providers. Reads prefer fresh cache rows; a stale row or miss
// walks the provider chain in priority order, writes the result back, and
// falls back to stale data rather than failing the caller.
package fundata

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jefftan83/ai-find-fund/internal/cache"
	"github.com/jefftan83/ai-find-fund/internal/config"
	"github.com/jefftan83/ai-find-fund/internal/infra"
	"github.com/jefftan83/ai-find-fund/internal/provider"
	"github.com/jefftan83/ai-find-fund/internal/screener"
	"github.com/jefftan83/ai-find-fund/pkg/models"
)

// Resolver answers fund data queries. Methods never return an error for an
// upstream outage; an empty result means the data is currently unavailable.
type Resolver struct {
	store *cache.Store
	chain []provider.FundProvider
	sup   *infra.Supervisor
	log   zerolog.Logger

	navStaleDays int
	basicStale   time.Duration
	listStale    time.Duration
	history      int

	now func() time.Time // test hook
}

// New creates a Resolver over the given cache and provider chain.
func New(store *cache.Store, chain []provider.FundProvider, sup *infra.Supervisor, cfg config.DataConfig, history int, log zerolog.Logger) *Resolver {
	if history <= 0 {
		history = 30
	}
	return &Resolver{
		store:        store,
		chain:        chain,
		sup:          sup,
		log:          log.With().Str("component", "resolver").Logger(),
		navStaleDays: cfg.NAVStaleDays,
		basicStale:   time.Duration(cfg.BasicStaleDays) * 24 * time.Hour,
		listStale:    time.Duration(cfg.ListStaleHours) * time.Hour,
		history:      history,
		now:          time.Now,
	}
}

// fresh reports whether an update stamp is within the window. A zero stamp
// (never fetched) is always stale.
func (r *Resolver) fresh(stamp time.Time, window time.Duration) bool {
	return !stamp.IsZero() && r.now().Sub(stamp) <= window
}

// navFresh reports whether a valuation dated d is recent enough to serve.
// Ages compare in whole days, so yesterday's close is still fresh under the
// default 1-day window.
func (r *Resolver) navFresh(d time.Time) bool {
	if d.IsZero() {
		return false
	}
	return int(r.now().Sub(d).Hours()/24) <= r.navStaleDays
}

// Universe returns the screening universe: the cached fund list when fresh,
// otherwise the first provider that produces a non-empty list. When every
// provider fails, any cached list (stale included) is better than nothing.
func (r *Resolver) Universe(ctx context.Context) ([]models.Fund, error) {
	stamp, err := r.store.LastLogged(ctx, cache.DataList)
	if err != nil {
		return nil, err
	}
	if r.fresh(stamp, r.listStale) {
		return r.store.ListFunds(ctx)
	}

	for _, p := range r.chain {
		funds, err := p.List(ctx)
		if err != nil {
			r.logMiss(p, "list", "", err)
			continue
		}
		if len(funds) == 0 {
			continue
		}
		if err := r.store.PutFunds(ctx, funds); err != nil {
			r.log.Warn().Err(err).Msg("fund list write-back failed")
		}
		return funds, nil
	}

	r.log.Warn().Msg("all providers failed for fund list, serving stale cache")
	return r.store.ListFunds(ctx)
}

// LatestNAV returns the newest valuation for a fund, at most NAVStaleDays
// old when the upstream chain is healthy. nil means no data anywhere.
// Freshness is judged by the valuation's own date, not by when the row was
// written: a write-back carrying an old point does not make it current.
func (r *Resolver) LatestNAV(ctx context.Context, code string) (*models.NAVPoint, error) {
	cached, err := r.store.LatestNAV(ctx, code)
	if err != nil {
		return nil, err
	}
	if cached != nil && r.navFresh(cached.Date) {
		return cached, nil
	}

	for _, p := range r.chain {
		nav, err := p.LatestNAV(ctx, code)
		if err != nil {
			r.logMiss(p, "nav", code, err)
			continue
		}
		if nav == nil {
			continue
		}
		if err := r.store.PutNAVHistory(ctx, code, []models.NAVPoint{*nav}); err != nil {
			r.log.Warn().Err(err).Str("code", code).Msg("nav write-back failed")
		}
		return nav, nil
	}

	// Stale beats nothing.
	return cached, nil
}

// NAVHistory returns up to days of the valuation series, oldest first.
func (r *Resolver) NAVHistory(ctx context.Context, code string, days int) ([]models.NAVPoint, error) {
	if days <= 0 {
		days = r.history
	}
	cached, err := r.store.NAVHistory(ctx, code, days)
	if err != nil {
		return nil, err
	}
	// A single cached point means only the latest valuation was written;
	// fetch the full series even when that point is recent.
	if len(cached) > 1 && r.navFresh(cached[len(cached)-1].Date) {
		return cached, nil
	}

	for _, p := range r.chain {
		points, err := p.NAVHistory(ctx, code, days)
		if err != nil {
			r.logMiss(p, "nav history", code, err)
			continue
		}
		if len(points) == 0 {
			continue
		}
		if err := r.store.PutNAVHistory(ctx, code, points); err != nil {
			r.log.Warn().Err(err).Str("code", code).Msg("nav history write-back failed")
		}
		return points, nil
	}

	return cached, nil
}

// Basic returns the fund's profile record, refreshed when older than
// BasicStaleDays. nil means unknown fund.
func (r *Resolver) Basic(ctx context.Context, code string) (*models.Fund, error) {
	stamp, err := r.store.LastUpdate(ctx, cache.DataBasic, code)
	if err != nil {
		return nil, err
	}
	if r.fresh(stamp, r.basicStale) {
		return r.store.GetFund(ctx, code)
	}

	for _, p := range r.chain {
		f, err := p.Basic(ctx, code)
		if err != nil {
			r.logMiss(p, "basic", code, err)
			continue
		}
		if f == nil || f.Name == "" {
			continue
		}
		if err := r.store.PutFund(ctx, *f); err != nil {
			r.log.Warn().Err(err).Str("code", code).Msg("basic write-back failed")
		}
		return f, nil
	}

	return r.store.GetFund(ctx, code)
}

// Holdings returns the fund's constituents. Any cached age is acceptable, so
// the chain is only consulted on a miss.
func (r *Resolver) Holdings(ctx context.Context, code string) ([]models.Holding, error) {
	cached, err := r.store.Holdings(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		return cached, nil
	}

	for _, p := range r.chain {
		holdings, err := p.Holdings(ctx, code)
		if err != nil {
			r.logMiss(p, "holdings", code, err)
			continue
		}
		if len(holdings) == 0 {
			continue
		}
		if err := r.store.PutHoldings(ctx, code, holdings); err != nil {
			r.log.Warn().Err(err).Str("code", code).Msg("holdings write-back failed")
		}
		return holdings, nil
	}
	return nil, nil
}

// Rating returns the fund's star rating. Any cached age is acceptable. On a
// miss the whole rating board is fetched and persisted when a provider
// serves it, so subsequent lookups for other funds hit the cache.
func (r *Resolver) Rating(ctx context.Context, code string) (*models.Rating, error) {
	cached, err := r.store.RatingFor(ctx, code)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	for _, p := range r.chain {
		if batch, err := p.Ratings(ctx); err != nil {
			r.logMiss(p, "ratings", "", err)
		} else if len(batch) > 0 {
			if err := r.store.PutRatings(ctx, batch); err != nil {
				r.log.Warn().Err(err).Msg("rating batch write-back failed")
			}
			if rating, ok := batch[code]; ok {
				return &rating, nil
			}
			// The board only lists rated funds; fall through to the
			// per-fund page before giving up on this provider.
		}
		rating, err := p.Rating(ctx, code)
		if err != nil {
			r.logMiss(p, "rating", code, err)
			continue
		}
		if rating == nil {
			continue
		}
		if err := r.store.PutRating(ctx, *rating); err != nil {
			r.log.Warn().Err(err).Str("code", code).Msg("rating write-back failed")
		}
		return rating, nil
	}
	return nil, nil
}

// Analysis gathers everything known about one fund in parallel and derives
// performance statistics from the NAV series. Individual branches failing
// leave their slot empty rather than failing the whole gather.
func (r *Resolver) Analysis(ctx context.Context, code string) (*models.Analysis, error) {
	a := &models.Analysis{}
	var history []models.NAVPoint

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := r.Basic(gctx, code)
		if err == nil {
			a.Basic = f
		}
		return nil
	})
	g.Go(func() error {
		nav, err := r.LatestNAV(gctx, code)
		if err == nil {
			a.LatestNAV = nav
		}
		return nil
	})
	g.Go(func() error {
		holdings, err := r.Holdings(gctx, code)
		if err == nil {
			a.Holdings = holdings
		}
		return nil
	})
	g.Go(func() error {
		rating, err := r.Rating(gctx, code)
		if err == nil {
			a.Rating = rating
		}
		return nil
	})
	g.Go(func() error {
		points, err := r.NAVHistory(gctx, code, r.history)
		if err == nil {
			history = points
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.Performance = screener.Stats(history)
	return a, nil
}

// RefreshDailyNAV pulls the latest valuation for the whole universe from the
// first provider serving the bulk feed and persists the batch. Returns how
// many funds were refreshed; zero with a nil error means no provider serves
// the feed right now.
func (r *Resolver) RefreshDailyNAV(ctx context.Context) (int, error) {
	for _, p := range r.chain {
		batch, err := p.DailyNAV(ctx)
		if err != nil {
			r.logMiss(p, "daily nav", "", err)
			continue
		}
		if len(batch) == 0 {
			continue
		}
		if err := r.store.PutDailyNAVs(ctx, batch); err != nil {
			return 0, err
		}
		r.log.Info().Int("count", len(batch)).Str("provider", p.Name()).Msg("daily valuations refreshed")
		return len(batch), nil
	}
	return 0, nil
}

// PrefetchShortlist warms the cache for shortlisted codes in the background.
// It never blocks the calling turn and never surfaces errors; the supervisor
// logs and swallows them.
func (r *Resolver) PrefetchShortlist(codes []string) {
	if r.sup == nil || len(codes) == 0 {
		return
	}
	snapshot := make([]string, len(codes))
	copy(snapshot, codes)

	r.sup.Go("prefetch-shortlist", func(ctx context.Context) error {
		// One bulk pull covers every shortlisted code's valuation; the
		// per-code loop then only fills what the feed missed.
		if _, err := r.RefreshDailyNAV(ctx); err != nil {
			r.log.Debug().Err(err).Msg("prefetch daily nav failed")
		}
		for _, code := range snapshot {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if f, err := r.Basic(ctx, code); err == nil && (f == nil || f.SizeYuan == 0) {
				r.log.Debug().Str("code", code).Msg("prefetch: size still unknown")
			}
			if _, err := r.LatestNAV(ctx, code); err != nil {
				r.log.Debug().Err(err).Str("code", code).Msg("prefetch nav failed")
			}
		}
		return nil
	})
}

func (r *Resolver) logMiss(p provider.FundProvider, op, code string, err error) {
	r.log.Debug().Err(err).Str("provider", p.Name()).Str("op", op).Str("code", code).Msg("provider miss, trying next")
}
