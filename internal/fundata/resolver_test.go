package fundata

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jefftan83/ai-find-fund/internal/cache"
	"github.com/jefftan83/ai-find-fund/internal/config"
	"github.com/jefftan83/ai-find-fund/internal/infra"
	"github.com/jefftan83/ai-find-fund/internal/provider"
	"github.com/jefftan83/ai-find-fund/pkg/models"
)

// fakeProvider counts calls and serves canned data. Zero-valued fields mean
// "miss": nil results with nil errors.
type fakeProvider struct {
	name  string
	calls map[string]int

	funds    []models.Fund
	basic    *models.Fund
	nav      *models.NAVPoint
	navHist  []models.NAVPoint
	holdings []models.Holding
	rating   *models.Rating
	daily    map[string]models.NAVPoint
	ratings  map[string]models.Rating
	err      error
}

func newFake(name string) *fakeProvider {
	return &fakeProvider{name: name, calls: map[string]int{}}
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Ping(context.Context) error { return f.err }

func (f *fakeProvider) List(context.Context) ([]models.Fund, error) {
	f.calls["list"]++
	return f.funds, f.err
}

func (f *fakeProvider) Basic(context.Context, string) (*models.Fund, error) {
	f.calls["basic"]++
	return f.basic, f.err
}

func (f *fakeProvider) LatestNAV(context.Context, string) (*models.NAVPoint, error) {
	f.calls["nav"]++
	return f.nav, f.err
}

func (f *fakeProvider) NAVHistory(context.Context, string, int) ([]models.NAVPoint, error) {
	f.calls["hist"]++
	return f.navHist, f.err
}

func (f *fakeProvider) Holdings(context.Context, string) ([]models.Holding, error) {
	f.calls["holdings"]++
	return f.holdings, f.err
}

func (f *fakeProvider) Rating(context.Context, string) (*models.Rating, error) {
	f.calls["rating"]++
	return f.rating, f.err
}

func (f *fakeProvider) DailyNAV(context.Context) (map[string]models.NAVPoint, error) {
	f.calls["daily"]++
	if f.err != nil {
		return nil, f.err
	}
	if f.daily == nil {
		return nil, provider.ErrUnsupported
	}
	return f.daily, nil
}

func (f *fakeProvider) Ratings(context.Context) (map[string]models.Rating, error) {
	f.calls["ratings"]++
	if f.err != nil {
		return nil, f.err
	}
	if f.ratings == nil {
		return nil, provider.ErrUnsupported
	}
	return f.ratings, nil
}

var testDataCfg = config.DataConfig{
	NAVStaleDays:   1,
	BasicStaleDays: 7,
	ListStaleHours: 24,
}

func newTestResolver(t *testing.T, chain ...provider.FundProvider) (*Resolver, *cache.Store) {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	r := New(store, chain, nil, testDataCfg, 30, zerolog.Nop())
	return r, store
}

func TestUniverseFreshCacheSkipsProviders(t *testing.T) {
	p := newFake("primary")
	r, store := newTestResolver(t, p)
	ctx := context.Background()

	if err := store.PutFunds(ctx, []models.Fund{{Code: "000001", Name: "cached"}}); err != nil {
		t.Fatal(err)
	}

	funds, err := r.Universe(ctx)
	if err != nil {
		t.Fatalf("Universe: %v", err)
	}
	if len(funds) != 1 || funds[0].Name != "cached" {
		t.Errorf("funds = %+v", funds)
	}
	if p.calls["list"] != 0 {
		t.Errorf("provider consulted despite fresh cache (%d calls)", p.calls["list"])
	}
}

func TestUniverseFallsThroughChain(t *testing.T) {
	down := newFake("down")
	down.err = errors.New("unreachable")
	empty := newFake("empty") // nil funds, nil error: still a miss
	good := newFake("good")
	good.funds = []models.Fund{{Code: "000001", Name: "fresh"}}

	r, store := newTestResolver(t, down, empty, good)
	ctx := context.Background()

	funds, err := r.Universe(ctx)
	if err != nil {
		t.Fatalf("Universe: %v", err)
	}
	if len(funds) != 1 || funds[0].Name != "fresh" {
		t.Errorf("funds = %+v", funds)
	}
	if down.calls["list"] != 1 || empty.calls["list"] != 1 || good.calls["list"] != 1 {
		t.Errorf("chain walk = %v/%v/%v", down.calls, empty.calls, good.calls)
	}

	// Success was written back.
	cached, err := store.ListFunds(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 1 {
		t.Errorf("write-back missing, cache has %d rows", len(cached))
	}
}

func TestUniverseAllFailServesStaleCache(t *testing.T) {
	down := newFake("down")
	down.err = errors.New("unreachable")

	r, store := newTestResolver(t, down)
	ctx := context.Background()

	if err := store.PutFunds(ctx, []models.Fund{{Code: "000001", Name: "stale"}}); err != nil {
		t.Fatal(err)
	}
	// Push the clock past the list window so the stamp reads stale.
	r.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	funds, err := r.Universe(ctx)
	if err != nil {
		t.Fatalf("Universe: %v", err)
	}
	if len(funds) != 1 || funds[0].Name != "stale" {
		t.Errorf("expected stale cache fallback, got %+v", funds)
	}
}

func TestUniverseAllFailNoCacheIsEmptyNotError(t *testing.T) {
	down := newFake("down")
	down.err = errors.New("unreachable")

	r, _ := newTestResolver(t, down)
	funds, err := r.Universe(context.Background())
	if err != nil {
		t.Fatalf("outage must not be an error: %v", err)
	}
	if len(funds) != 0 {
		t.Errorf("funds = %+v, want empty", funds)
	}
}

func TestLatestNAVStalenessWindow(t *testing.T) {
	p := newFake("primary")
	p.nav = &models.NAVPoint{Code: "000001", Date: time.Now(), UnitNAV: 1.05}

	r, store := newTestResolver(t, p)
	ctx := context.Background()

	// Seed the cache with a point dated today.
	if err := store.PutNAVHistory(ctx, "000001", []models.NAVPoint{{Date: time.Now(), UnitNAV: 1.00}}); err != nil {
		t.Fatal(err)
	}

	// Within the 1-day window: cache hit.
	nav, err := r.LatestNAV(ctx, "000001")
	if err != nil {
		t.Fatal(err)
	}
	if nav == nil || nav.UnitNAV != 1.00 {
		t.Errorf("nav = %+v, want cached 1.00", nav)
	}
	if p.calls["nav"] != 0 {
		t.Error("provider consulted despite fresh nav")
	}

	// Past the window: provider refresh.
	r.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	nav, err = r.LatestNAV(ctx, "000001")
	if err != nil {
		t.Fatal(err)
	}
	if nav == nil || nav.UnitNAV != 1.05 {
		t.Errorf("nav = %+v, want refreshed 1.05", nav)
	}
	if p.calls["nav"] != 1 {
		t.Errorf("nav calls = %d, want 1", p.calls["nav"])
	}
}

func TestLatestNAVFreshnessKeyedOnValuationDate(t *testing.T) {
	p := newFake("primary")
	p.nav = &models.NAVPoint{Code: "000001", Date: time.Now(), UnitNAV: 1.07}

	r, store := newTestResolver(t, p)
	ctx := context.Background()

	// A freshly written row carrying an old valuation: the write stamp is
	// now, but the point itself is two days old and must not be served.
	old := models.NAVPoint{Date: time.Now().AddDate(0, 0, -2), UnitNAV: 0.99}
	if err := store.PutNAVHistory(ctx, "000001", []models.NAVPoint{old}); err != nil {
		t.Fatal(err)
	}

	nav, err := r.LatestNAV(ctx, "000001")
	if err != nil {
		t.Fatal(err)
	}
	if p.calls["nav"] != 1 {
		t.Errorf("nav calls = %d, want 1 (old valuation must trigger a refresh)", p.calls["nav"])
	}
	if nav == nil || nav.UnitNAV != 1.07 {
		t.Errorf("nav = %+v, want refreshed 1.07", nav)
	}
}

func TestLatestNAVYesterdayStillFresh(t *testing.T) {
	p := newFake("primary")
	r, store := newTestResolver(t, p)
	ctx := context.Background()

	// Yesterday's close is the newest point a fund can have before today's
	// valuation is published; it must serve without an upstream call.
	if err := store.PutNAVHistory(ctx, "000001", []models.NAVPoint{
		{Date: time.Now().AddDate(0, 0, -1), UnitNAV: 1.02},
	}); err != nil {
		t.Fatal(err)
	}

	nav, err := r.LatestNAV(ctx, "000001")
	if err != nil {
		t.Fatal(err)
	}
	if nav == nil || nav.UnitNAV != 1.02 {
		t.Errorf("nav = %+v, want cached 1.02", nav)
	}
	if p.calls["nav"] != 0 {
		t.Errorf("nav calls = %d, want 0", p.calls["nav"])
	}
}

func TestLatestNAVOutageServesStale(t *testing.T) {
	down := newFake("down")
	down.err = errors.New("unreachable")

	r, store := newTestResolver(t, down)
	ctx := context.Background()

	if err := store.PutNAVHistory(ctx, "000001", []models.NAVPoint{{Date: time.Now().AddDate(0, 0, -10), UnitNAV: 0.98}}); err != nil {
		t.Fatal(err)
	}
	r.now = func() time.Time { return time.Now().Add(72 * time.Hour) }

	nav, err := r.LatestNAV(ctx, "000001")
	if err != nil {
		t.Fatal(err)
	}
	if nav == nil || nav.UnitNAV != 0.98 {
		t.Errorf("nav = %+v, want stale 0.98", nav)
	}
}

func TestHoldingsAnyCachedAgeAcceptable(t *testing.T) {
	p := newFake("primary")
	p.holdings = []models.Holding{{StockCode: "600519", WeightPct: 9.5}}

	r, store := newTestResolver(t, p)
	ctx := context.Background()

	// Miss: chain consulted and result written back.
	holdings, err := r.Holdings(ctx, "000001")
	if err != nil {
		t.Fatal(err)
	}
	if len(holdings) != 1 || p.calls["holdings"] != 1 {
		t.Errorf("holdings = %+v, calls = %d", holdings, p.calls["holdings"])
	}

	// Second read is served from cache regardless of age.
	r.now = func() time.Time { return time.Now().AddDate(1, 0, 0) }
	if _, err := r.Holdings(ctx, "000001"); err != nil {
		t.Fatal(err)
	}
	if p.calls["holdings"] != 1 {
		t.Errorf("holdings refetched despite cached rows (%d calls)", p.calls["holdings"])
	}
	_ = store
}

func TestRatingMissFetchesWholeBoard(t *testing.T) {
	p := newFake("primary")
	p.ratings = map[string]models.Rating{
		"000001": {Code: "000001", Agency: "综合", Rating1Y: 4, Rating3Y: 5},
		"110022": {Code: "110022", Agency: "综合", Rating1Y: 3, Rating3Y: 3},
	}

	r, store := newTestResolver(t, p)
	ctx := context.Background()

	rating, err := r.Rating(ctx, "000001")
	if err != nil {
		t.Fatal(err)
	}
	if rating == nil || rating.Rating3Y != 5 {
		t.Errorf("rating = %+v, want 3y star count 5", rating)
	}
	if p.calls["ratings"] != 1 || p.calls["rating"] != 0 {
		t.Errorf("calls = %v, want one board fetch and no per-fund fetch", p.calls)
	}

	// The whole board was persisted, so another fund is now a cache hit.
	if _, err := r.Rating(ctx, "110022"); err != nil {
		t.Fatal(err)
	}
	if p.calls["ratings"] != 1 {
		t.Errorf("board refetched for a cached fund (%d calls)", p.calls["ratings"])
	}
	cached, err := store.RatingFor(ctx, "110022")
	if err != nil {
		t.Fatal(err)
	}
	if cached == nil || cached.Rating1Y != 3 {
		t.Errorf("batch write-back missing: %+v", cached)
	}
}

func TestRatingFallsBackToPerFundPage(t *testing.T) {
	p := newFake("primary")
	p.rating = &models.Rating{Code: "000001", Agency: "上海证券", Rating3Y: 4}

	r, _ := newTestResolver(t, p)
	rating, err := r.Rating(context.Background(), "000001")
	if err != nil {
		t.Fatal(err)
	}
	if rating == nil || rating.Rating3Y != 4 {
		t.Errorf("rating = %+v", rating)
	}
	if p.calls["rating"] != 1 {
		t.Errorf("per-fund rating calls = %d, want 1", p.calls["rating"])
	}
}

func TestRefreshDailyNAVPersistsBatch(t *testing.T) {
	empty := newFake("empty") // no bulk feed
	p := newFake("primary")
	p.daily = map[string]models.NAVPoint{
		"000001": {Code: "000001", Date: time.Now(), UnitNAV: 1.05},
		"110022": {Code: "110022", Date: time.Now(), UnitNAV: 3.12},
	}

	r, _ := newTestResolver(t, empty, p)
	ctx := context.Background()

	n, err := r.RefreshDailyNAV(ctx)
	if err != nil {
		t.Fatalf("RefreshDailyNAV: %v", err)
	}
	if n != 2 {
		t.Errorf("refreshed = %d, want 2", n)
	}
	if empty.calls["daily"] != 1 {
		t.Error("chain did not fall through the feed-less provider")
	}

	// Both funds now resolve from cache without per-code fetches.
	for _, code := range []string{"000001", "110022"} {
		nav, err := r.LatestNAV(ctx, code)
		if err != nil {
			t.Fatal(err)
		}
		if nav == nil {
			t.Errorf("nav[%s] missing after bulk refresh", code)
		}
	}
	if p.calls["nav"] != 0 {
		t.Errorf("per-code nav calls = %d, want 0", p.calls["nav"])
	}
}

func TestAnalysisGathersAllParts(t *testing.T) {
	p := newFake("primary")
	p.basic = &models.Fund{Code: "000001", Name: "Test", Category: "hybrid"}
	p.nav = &models.NAVPoint{Code: "000001", Date: time.Now(), UnitNAV: 1.10}
	p.navHist = []models.NAVPoint{
		{Date: time.Now().AddDate(0, 0, -2), UnitNAV: 1.00},
		{Date: time.Now().AddDate(0, 0, -1), UnitNAV: 1.20},
		{Date: time.Now(), UnitNAV: 1.10},
	}
	p.holdings = []models.Holding{{StockCode: "600519", WeightPct: 9.5}}
	p.rating = &models.Rating{Code: "000001", Rating3Y: 4}

	r, _ := newTestResolver(t, p)
	a, err := r.Analysis(context.Background(), "000001")
	if err != nil {
		t.Fatalf("Analysis: %v", err)
	}
	if a.Basic == nil || a.Basic.Name != "Test" {
		t.Errorf("basic = %+v", a.Basic)
	}
	if a.LatestNAV == nil || len(a.Holdings) != 1 || a.Rating == nil {
		t.Errorf("incomplete analysis: %+v", a)
	}
	// 1.20 -> 1.10 is a drawdown of 8.33%.
	if a.Performance.MaxDrawdown < 8 || a.Performance.MaxDrawdown > 9 {
		t.Errorf("max drawdown = %v, want about 8.33", a.Performance.MaxDrawdown)
	}
}

func TestAnalysisSurvivesOutage(t *testing.T) {
	down := newFake("down")
	down.err = errors.New("unreachable")

	r, _ := newTestResolver(t, down)
	a, err := r.Analysis(context.Background(), "000001")
	if err != nil {
		t.Fatalf("Analysis during outage: %v", err)
	}
	if a.Basic != nil || a.LatestNAV != nil {
		t.Errorf("expected empty analysis, got %+v", a)
	}
}

func TestPrefetchShortlistWarmsCacheAndSwallowsErrors(t *testing.T) {
	good := newFake("good")
	good.basic = &models.Fund{Code: "000001", Name: "Warm", SizeYuan: 1e9}
	good.nav = &models.NAVPoint{Code: "000001", Date: time.Now(), UnitNAV: 1.01}

	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	sup := infra.NewSupervisor(zerolog.Nop())
	r := New(store, []provider.FundProvider{good}, sup, testDataCfg, 30, zerolog.Nop())

	r.PrefetchShortlist([]string{"000001"})
	sup.Wait()

	f, err := store.GetFund(context.Background(), "000001")
	if err != nil {
		t.Fatal(err)
	}
	if f == nil || f.Name != "Warm" {
		t.Errorf("cache not warmed: %+v", f)
	}

	// A failing prefetch must not panic or surface anywhere.
	down := newFake("down")
	down.err = errors.New("unreachable")
	r2 := New(store, []provider.FundProvider{down}, sup, testDataCfg, 30, zerolog.Nop())
	r2.PrefetchShortlist([]string{"000002"})
	sup.Wait()
}

func TestPrefetchWithoutSupervisorIsNoop(t *testing.T) {
	r, _ := newTestResolver(t)
	r.PrefetchShortlist([]string{"000001"}) // must not panic
}
