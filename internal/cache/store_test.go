package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jefftan83/ai-find-fund/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestFundRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := models.Fund{
		Code: "000001", Name: "Test Growth", Category: "hybrid",
		Return1Y: 12.5, MaxDrawdown: 8.2, Volatility: 14.1,
		Rating3Y: 4, SizeYuan: 2.5e9,
	}
	if err := s.PutFund(ctx, f); err != nil {
		t.Fatalf("PutFund: %v", err)
	}

	got, err := s.GetFund(ctx, "000001")
	if err != nil {
		t.Fatalf("GetFund: %v", err)
	}
	if got == nil {
		t.Fatal("GetFund returned nil for stored fund")
	}
	if got.Name != "Test Growth" || got.Return1Y != 12.5 || got.Rating3Y != 4 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	// Unknown code is a miss, not an error.
	missing, err := s.GetFund(ctx, "999999")
	if err != nil {
		t.Fatalf("GetFund miss: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown code, got %+v", missing)
	}
}

func TestFundUpsertLastWriterWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutFund(ctx, models.Fund{Code: "000001", Name: "Old", Return1Y: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutFund(ctx, models.Fund{Code: "000001", Name: "New", Return1Y: 9}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetFund(ctx, "000001")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "New" || got.Return1Y != 9 {
		t.Errorf("expected last write to win, got %+v", got)
	}

	funds, err := s.ListFunds(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(funds) != 1 {
		t.Errorf("expected single row after upsert, got %d", len(funds))
	}
}

func TestNAVHistoryOrderingAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	points := []models.NAVPoint{
		{Date: day("2026-08-03"), UnitNAV: 1.03},
		{Date: day("2026-08-01"), UnitNAV: 1.01},
		{Date: day("2026-08-02"), UnitNAV: 1.02},
	}
	if err := s.PutNAVHistory(ctx, "000001", points); err != nil {
		t.Fatalf("PutNAVHistory: %v", err)
	}

	got, err := s.NAVHistory(ctx, "000001", 0)
	if err != nil {
		t.Fatalf("NAVHistory: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 points, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Date.After(got[i-1].Date) {
			t.Errorf("history not ascending: %v before %v", got[i-1].Date, got[i].Date)
		}
	}

	// Limit keeps the most recent points.
	limited, err := s.NAVHistory(ctx, "000001", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 || limited[0].UnitNAV != 1.02 || limited[1].UnitNAV != 1.03 {
		t.Errorf("limited history wrong: %+v", limited)
	}

	latest, err := s.LatestNAV(ctx, "000001")
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.UnitNAV != 1.03 {
		t.Errorf("latest nav wrong: %+v", latest)
	}
}

func TestNAVUpsertSameDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []models.NAVPoint{{Date: day("2026-08-01"), UnitNAV: 1.00}}
	second := []models.NAVPoint{{Date: day("2026-08-01"), UnitNAV: 1.05}}
	if err := s.PutNAVHistory(ctx, "000001", first); err != nil {
		t.Fatal(err)
	}
	if err := s.PutNAVHistory(ctx, "000001", second); err != nil {
		t.Fatal(err)
	}

	got, err := s.NAVHistory(ctx, "000001", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].UnitNAV != 1.05 {
		t.Errorf("same-day upsert should replace, got %+v", got)
	}
}

func TestHoldingsReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := []models.Holding{
		{StockCode: "600519", StockName: "Kweichow Moutai", WeightPct: 9.5, ReportDate: day("2026-03-31")},
		{StockCode: "000858", StockName: "Wuliangye", WeightPct: 7.2, ReportDate: day("2026-03-31")},
	}
	if err := s.PutHoldings(ctx, "000001", old); err != nil {
		t.Fatal(err)
	}

	fresh := []models.Holding{
		{StockCode: "300750", StockName: "CATL", WeightPct: 8.8, ReportDate: day("2026-06-30")},
	}
	if err := s.PutHoldings(ctx, "000001", fresh); err != nil {
		t.Fatal(err)
	}

	got, err := s.Holdings(ctx, "000001")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].StockCode != "300750" {
		t.Errorf("holdings should be replaced wholesale, got %+v", got)
	}
}

func TestRatingRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := models.Rating{Code: "000001", Date: day("2026-06-30"), Agency: "shanghai", Rating3Y: 5}
	if err := s.PutRating(ctx, r); err != nil {
		t.Fatal(err)
	}

	got, err := s.RatingFor(ctx, "000001")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Agency != "shanghai" || got.Rating3Y != 5 {
		t.Errorf("rating mismatch: %+v", got)
	}
}

func TestLastUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts, err := s.LastUpdate(ctx, DataNAV, "000001")
	if err != nil {
		t.Fatal(err)
	}
	if !ts.IsZero() {
		t.Errorf("expected zero time before any write, got %v", ts)
	}

	if err := s.PutNAVHistory(ctx, "000001", []models.NAVPoint{{Date: day("2026-08-01"), UnitNAV: 1}}); err != nil {
		t.Fatal(err)
	}
	ts, err = s.LastUpdate(ctx, DataNAV, "000001")
	if err != nil {
		t.Fatal(err)
	}
	if ts.IsZero() || time.Since(ts) > time.Minute {
		t.Errorf("expected recent timestamp, got %v", ts)
	}
}

func TestUpdateLogAppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts, err := s.LastLogged(ctx, DataNAV)
	if err != nil {
		t.Fatal(err)
	}
	if !ts.IsZero() {
		t.Errorf("expected zero time before any log entry, got %v", ts)
	}

	if err := s.LogUpdate(ctx, DataNAV, StatusSuccess, "updated 2 valuations"); err != nil {
		t.Fatal(err)
	}
	// A later failure appends a new row; it must not overwrite or mask the
	// earlier success.
	if err := s.LogUpdate(ctx, DataNAV, StatusError, "upstream timeout"); err != nil {
		t.Fatal(err)
	}

	ts, err = s.LastLogged(ctx, DataNAV)
	if err != nil {
		t.Fatal(err)
	}
	if ts.IsZero() || time.Since(ts) > time.Minute {
		t.Errorf("expected the success entry to survive the failure row, got %v", ts)
	}
}

func TestPutFundsLogsListRefresh(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutFunds(ctx, []models.Fund{{Code: "000001", Name: "A"}, {Code: "000002", Name: "B"}}); err != nil {
		t.Fatal(err)
	}
	ts, err := s.LastLogged(ctx, DataList)
	if err != nil {
		t.Fatal(err)
	}
	if ts.IsZero() || time.Since(ts) > time.Minute {
		t.Errorf("expected a list refresh log entry, got %v", ts)
	}
}

func TestPutDailyNAVsBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := map[string]models.NAVPoint{
		"000001": {Code: "000001", Date: day("2026-08-29"), UnitNAV: 1.05},
		"110022": {Code: "110022", Date: day("2026-08-29"), UnitNAV: 3.12},
	}
	if err := s.PutDailyNAVs(ctx, batch); err != nil {
		t.Fatalf("PutDailyNAVs: %v", err)
	}

	for code, want := range batch {
		nav, err := s.LatestNAV(ctx, code)
		if err != nil {
			t.Fatal(err)
		}
		if nav == nil || nav.UnitNAV != want.UnitNAV {
			t.Errorf("nav[%s] = %+v, want %v", code, nav, want.UnitNAV)
		}
	}
	ts, err := s.LastLogged(ctx, DataNAV)
	if err != nil {
		t.Fatal(err)
	}
	if ts.IsZero() {
		t.Error("expected a nav refresh log entry")
	}
	stamp, err := s.LastUpdate(ctx, DataNAV, "110022")
	if err != nil {
		t.Fatal(err)
	}
	if stamp.IsZero() {
		t.Error("expected a per-code nav stamp")
	}
}

func TestPutRatingsBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := map[string]models.Rating{
		"000001": {Code: "000001", Date: day("2026-08-29"), Agency: "综合", Rating1Y: 4, Rating3Y: 5},
		"110022": {Code: "110022", Date: day("2026-08-29"), Agency: "综合", Rating1Y: 3, Rating3Y: 3},
	}
	if err := s.PutRatings(ctx, batch); err != nil {
		t.Fatalf("PutRatings: %v", err)
	}

	r, err := s.RatingFor(ctx, "110022")
	if err != nil {
		t.Fatal(err)
	}
	if r == nil || r.Rating1Y != 3 {
		t.Errorf("rating = %+v, want 1y star count 3", r)
	}
	ts, err := s.LastLogged(ctx, DataRating)
	if err != nil {
		t.Fatal(err)
	}
	if ts.IsZero() {
		t.Error("expected a rating refresh log entry")
	}
}

func TestPurgeOlderThan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	oldDate := time.Now().AddDate(0, 0, -400)
	recent := time.Now().AddDate(0, 0, -5)
	points := []models.NAVPoint{
		{Date: oldDate, UnitNAV: 0.9},
		{Date: recent, UnitNAV: 1.1},
	}
	if err := s.PutNAVHistory(ctx, "000001", points); err != nil {
		t.Fatal(err)
	}

	n, err := s.PurgeOlderThan(ctx, 365)
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged row, got %d", n)
	}

	got, err := s.NAVHistory(ctx, "000001", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].UnitNAV != 1.1 {
		t.Errorf("recent point should survive purge, got %+v", got)
	}
}
