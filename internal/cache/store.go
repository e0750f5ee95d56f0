// Package cache persists fund data locally so repeated lookups do not hit the
// upstream providers. It is a single SQLite database with last-writer-wins
// upserts, per-key write stamps the resolver consults for staleness
// decisions, and an append-only update log recording every bulk refresh.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/jefftan83/ai-find-fund/pkg/models"
)

// Data type labels recorded in data_stamps and update_log. The resolver
// matches against these when deciding whether a cached row is fresh enough
// to serve.
const (
	DataBasic    = "basic"
	DataNAV      = "nav"
	DataHoldings = "holdings"
	DataRating   = "rating"
	DataList     = "list"
)

// Update log statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const dateLayout = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS fund_basic (
	code            TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	company         TEXT NOT NULL DEFAULT '',
	manager         TEXT NOT NULL DEFAULT '',
	return_1m       REAL NOT NULL DEFAULT 0,
	return_3m       REAL NOT NULL DEFAULT 0,
	return_6m       REAL NOT NULL DEFAULT 0,
	return_1y       REAL NOT NULL DEFAULT 0,
	return_3y       REAL NOT NULL DEFAULT 0,
	return_ytd      REAL NOT NULL DEFAULT 0,
	max_drawdown    REAL NOT NULL DEFAULT 0,
	volatility      REAL NOT NULL DEFAULT 0,
	rating_1y       INTEGER NOT NULL DEFAULT 0,
	rating_2y       INTEGER NOT NULL DEFAULT 0,
	rating_3y       INTEGER NOT NULL DEFAULT 0,
	size_yuan       REAL NOT NULL DEFAULT 0,
	top_holding_pct REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS fund_nav (
	code         TEXT NOT NULL,
	nav_date     TEXT NOT NULL,
	unit_nav     REAL NOT NULL,
	accum_nav    REAL NOT NULL DEFAULT 0,
	daily_growth REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (code, nav_date)
);

CREATE TABLE IF NOT EXISTS fund_holdings (
	code         TEXT NOT NULL,
	report_date  TEXT NOT NULL,
	stock_code   TEXT NOT NULL,
	stock_name   TEXT NOT NULL DEFAULT '',
	weight_pct   REAL NOT NULL DEFAULT 0,
	shares       INTEGER NOT NULL DEFAULT 0,
	market_value REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (code, stock_code)
);

CREATE TABLE IF NOT EXISTS fund_rating (
	code        TEXT PRIMARY KEY,
	rating_date TEXT NOT NULL,
	agency      TEXT NOT NULL DEFAULT '',
	rating_1y   INTEGER NOT NULL DEFAULT 0,
	rating_2y   INTEGER NOT NULL DEFAULT 0,
	rating_3y   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS data_stamps (
	data_type  TEXT NOT NULL,
	code       TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (data_type, code)
);

CREATE TABLE IF NOT EXISTS update_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	data_type  TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	status     TEXT NOT NULL,
	message    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_nav_code_date ON fund_nav(code, nav_date DESC);
`

// Store is the SQLite-backed fund data cache. Safe for concurrent use; all
// writes are last-writer-wins upserts.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the cache database at path. A path of the
// form "file:...?..." is passed through untouched, which tests use for
// in-memory databases.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if len(path) < 5 || path[:5] != "file:" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve cache path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
		path = abs + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer, avoids SQLITE_BUSY under concurrency

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}

	return &Store{db: db, log: log.With().Str("component", "cache").Logger()}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutFund upserts a fund's basic record and stamps the update log.
func (s *Store) PutFund(ctx context.Context, f models.Fund) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO fund_basic
		(code, name, category, company, manager,
		 return_1m, return_3m, return_6m, return_1y, return_3y, return_ytd,
		 max_drawdown, volatility, rating_1y, rating_2y, rating_3y,
		 size_yuan, top_holding_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Code, f.Name, f.Category, f.Company, f.Manager,
		f.Return1M, f.Return3M, f.Return6M, f.Return1Y, f.Return3Y, f.ReturnYTD,
		f.MaxDrawdown, f.Volatility, f.Rating1Y, f.Rating2Y, f.Rating3Y,
		f.SizeYuan, f.TopHoldingPct)
	if err != nil {
		return fmt.Errorf("put fund %s: %w", f.Code, err)
	}
	return s.touch(ctx, DataBasic, f.Code)
}

// PutFunds upserts a batch of funds in one transaction and appends a list
// refresh entry to the update log, used after fetching the whole universe
// from a provider.
func (s *Store) PutFunds(ctx context.Context, funds []models.Fund) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin fund batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO fund_basic
		(code, name, category, company, manager,
		 return_1m, return_3m, return_6m, return_1y, return_3y, return_ytd,
		 max_drawdown, volatility, rating_1y, rating_2y, rating_3y,
		 size_yuan, top_holding_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare fund batch: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, f := range funds {
		if _, err := stmt.ExecContext(ctx,
			f.Code, f.Name, f.Category, f.Company, f.Manager,
			f.Return1M, f.Return3M, f.Return6M, f.Return1Y, f.Return3Y, f.ReturnYTD,
			f.MaxDrawdown, f.Volatility, f.Rating1Y, f.Rating2Y, f.Rating3Y,
			f.SizeYuan, f.TopHoldingPct); err != nil {
			return fmt.Errorf("put fund %s: %w", f.Code, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO data_stamps (data_type, code, updated_at) VALUES (?, ?, ?)`,
			DataBasic, f.Code, now); err != nil {
			return fmt.Errorf("stamp fund %s: %w", f.Code, err)
		}
	}
	if err := appendLog(ctx, tx, DataList, now, StatusSuccess,
		fmt.Sprintf("updated %d funds", len(funds))); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fund batch: %w", err)
	}
	s.log.Debug().Int("count", len(funds)).Msg("fund list cached")
	return nil
}

// GetFund returns the cached basic record for code, or nil when absent.
func (s *Store) GetFund(ctx context.Context, code string) (*models.Fund, error) {
	f := &models.Fund{}
	err := s.db.QueryRowContext(ctx, `
		SELECT code, name, category, company, manager,
		       return_1m, return_3m, return_6m, return_1y, return_3y, return_ytd,
		       max_drawdown, volatility, rating_1y, rating_2y, rating_3y,
		       size_yuan, top_holding_pct
		FROM fund_basic WHERE code = ?`, code).Scan(
		&f.Code, &f.Name, &f.Category, &f.Company, &f.Manager,
		&f.Return1M, &f.Return3M, &f.Return6M, &f.Return1Y, &f.Return3Y, &f.ReturnYTD,
		&f.MaxDrawdown, &f.Volatility, &f.Rating1Y, &f.Rating2Y, &f.Rating3Y,
		&f.SizeYuan, &f.TopHoldingPct)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fund %s: %w", code, err)
	}
	return f, nil
}

// ListFunds returns every cached basic record, unordered.
func (s *Store) ListFunds(ctx context.Context) ([]models.Fund, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, category, company, manager,
		       return_1m, return_3m, return_6m, return_1y, return_3y, return_ytd,
		       max_drawdown, volatility, rating_1y, rating_2y, rating_3y,
		       size_yuan, top_holding_pct
		FROM fund_basic`)
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}
	defer rows.Close()

	var funds []models.Fund
	for rows.Next() {
		var f models.Fund
		if err := rows.Scan(
			&f.Code, &f.Name, &f.Category, &f.Company, &f.Manager,
			&f.Return1M, &f.Return3M, &f.Return6M, &f.Return1Y, &f.Return3Y, &f.ReturnYTD,
			&f.MaxDrawdown, &f.Volatility, &f.Rating1Y, &f.Rating2Y, &f.Rating3Y,
			&f.SizeYuan, &f.TopHoldingPct); err != nil {
			return nil, fmt.Errorf("scan fund: %w", err)
		}
		funds = append(funds, f)
	}
	return funds, rows.Err()
}

// PutNAVHistory upserts a NAV series for a fund. Points with a zero date are
// skipped.
func (s *Store) PutNAVHistory(ctx context.Context, code string, points []models.NAVPoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin nav batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO fund_nav (code, nav_date, unit_nav, accum_nav, daily_growth)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare nav batch: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if p.Date.IsZero() {
			continue
		}
		if _, err := stmt.ExecContext(ctx, code, p.Date.Format(dateLayout),
			p.UnitNAV, p.AccumNAV, p.DailyGrowth); err != nil {
			return fmt.Errorf("put nav %s %s: %w", code, p.Date.Format(dateLayout), err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO data_stamps (data_type, code, updated_at) VALUES (?, ?, ?)`,
		DataNAV, code, time.Now().Unix()); err != nil {
		return fmt.Errorf("stamp nav %s: %w", code, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit nav batch: %w", err)
	}
	return nil
}

// PutDailyNAVs upserts the latest valuation for many funds in one
// transaction and appends a refresh entry to the update log. Points with a
// zero date are skipped.
func (s *Store) PutDailyNAVs(ctx context.Context, points map[string]models.NAVPoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin daily nav batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO fund_nav (code, nav_date, unit_nav, accum_nav, daily_growth)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare daily nav batch: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for code, p := range points {
		if p.Date.IsZero() {
			continue
		}
		if _, err := stmt.ExecContext(ctx, code, p.Date.Format(dateLayout),
			p.UnitNAV, p.AccumNAV, p.DailyGrowth); err != nil {
			return fmt.Errorf("put daily nav %s: %w", code, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO data_stamps (data_type, code, updated_at) VALUES (?, ?, ?)`,
			DataNAV, code, now); err != nil {
			return fmt.Errorf("stamp nav %s: %w", code, err)
		}
	}
	if err := appendLog(ctx, tx, DataNAV, now, StatusSuccess,
		fmt.Sprintf("updated %d valuations", len(points))); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit daily nav batch: %w", err)
	}
	s.log.Debug().Int("count", len(points)).Msg("daily valuations cached")
	return nil
}

// NAVHistory returns up to limit NAV points for a fund in ascending date
// order. limit <= 0 means no limit.
func (s *Store) NAVHistory(ctx context.Context, code string, limit int) ([]models.NAVPoint, error) {
	q := `SELECT nav_date, unit_nav, accum_nav, daily_growth
	      FROM fund_nav WHERE code = ? ORDER BY nav_date DESC`
	args := []any{code}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("nav history %s: %w", code, err)
	}
	defer rows.Close()

	var points []models.NAVPoint
	for rows.Next() {
		var p models.NAVPoint
		var d string
		if err := rows.Scan(&d, &p.UnitNAV, &p.AccumNAV, &p.DailyGrowth); err != nil {
			return nil, fmt.Errorf("scan nav: %w", err)
		}
		p.Code = code
		p.Date, _ = time.Parse(dateLayout, d)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Flip the DESC-ordered rows into ascending order.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// LatestNAV returns the most recent NAV point for a fund, or nil when the
// series is empty.
func (s *Store) LatestNAV(ctx context.Context, code string) (*models.NAVPoint, error) {
	p := &models.NAVPoint{Code: code}
	var d string
	err := s.db.QueryRowContext(ctx, `
		SELECT nav_date, unit_nav, accum_nav, daily_growth
		FROM fund_nav WHERE code = ? ORDER BY nav_date DESC LIMIT 1`, code).
		Scan(&d, &p.UnitNAV, &p.AccumNAV, &p.DailyGrowth)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest nav %s: %w", code, err)
	}
	p.Date, _ = time.Parse(dateLayout, d)
	return p, nil
}

// PutHoldings replaces a fund's holdings snapshot.
func (s *Store) PutHoldings(ctx context.Context, code string, holdings []models.Holding) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin holdings batch: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fund_holdings WHERE code = ?`, code); err != nil {
		return fmt.Errorf("clear holdings %s: %w", code, err)
	}
	for _, h := range holdings {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO fund_holdings
			(code, report_date, stock_code, stock_name, weight_pct, shares, market_value)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			code, h.ReportDate.Format(dateLayout), h.StockCode, h.StockName,
			h.WeightPct, h.Shares, h.MarketValue); err != nil {
			return fmt.Errorf("put holding %s/%s: %w", code, h.StockCode, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO data_stamps (data_type, code, updated_at) VALUES (?, ?, ?)`,
		DataHoldings, code, time.Now().Unix()); err != nil {
		return fmt.Errorf("stamp holdings %s: %w", code, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit holdings batch: %w", err)
	}
	return nil
}

// Holdings returns a fund's cached holdings sorted by weight, heaviest first.
func (s *Store) Holdings(ctx context.Context, code string) ([]models.Holding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_date, stock_code, stock_name, weight_pct, shares, market_value
		FROM fund_holdings WHERE code = ? ORDER BY weight_pct DESC`, code)
	if err != nil {
		return nil, fmt.Errorf("holdings %s: %w", code, err)
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		var d string
		if err := rows.Scan(&d, &h.StockCode, &h.StockName, &h.WeightPct, &h.Shares, &h.MarketValue); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		h.Code = code
		h.ReportDate, _ = time.Parse(dateLayout, d)
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// PutRating upserts a fund's star rating snapshot.
func (s *Store) PutRating(ctx context.Context, r models.Rating) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO fund_rating
		(code, rating_date, agency, rating_1y, rating_2y, rating_3y)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Code, r.Date.Format(dateLayout), r.Agency, r.Rating1Y, r.Rating2Y, r.Rating3Y)
	if err != nil {
		return fmt.Errorf("put rating %s: %w", r.Code, err)
	}
	return s.touch(ctx, DataRating, r.Code)
}

// PutRatings upserts the rating snapshot for many funds in one transaction
// and appends a refresh entry to the update log.
func (s *Store) PutRatings(ctx context.Context, ratings map[string]models.Rating) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rating batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO fund_rating
		(code, rating_date, agency, rating_1y, rating_2y, rating_3y)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare rating batch: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for code, r := range ratings {
		if _, err := stmt.ExecContext(ctx, code, r.Date.Format(dateLayout),
			r.Agency, r.Rating1Y, r.Rating2Y, r.Rating3Y); err != nil {
			return fmt.Errorf("put rating %s: %w", code, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO data_stamps (data_type, code, updated_at) VALUES (?, ?, ?)`,
			DataRating, code, now); err != nil {
			return fmt.Errorf("stamp rating %s: %w", code, err)
		}
	}
	if err := appendLog(ctx, tx, DataRating, now, StatusSuccess,
		fmt.Sprintf("updated %d ratings", len(ratings))); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rating batch: %w", err)
	}
	s.log.Debug().Int("count", len(ratings)).Msg("rating table cached")
	return nil
}

// RatingFor returns the cached rating for a fund, or nil when absent.
func (s *Store) RatingFor(ctx context.Context, code string) (*models.Rating, error) {
	r := &models.Rating{}
	var d string
	err := s.db.QueryRowContext(ctx, `
		SELECT code, rating_date, agency, rating_1y, rating_2y, rating_3y
		FROM fund_rating WHERE code = ?`, code).
		Scan(&r.Code, &d, &r.Agency, &r.Rating1Y, &r.Rating2Y, &r.Rating3Y)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rating %s: %w", code, err)
	}
	r.Date, _ = time.Parse(dateLayout, d)
	return r, nil
}

// LastUpdate returns when a data type for a code was last written, or the
// zero time when it never was.
func (s *Store) LastUpdate(ctx context.Context, dataType, code string) (time.Time, error) {
	var unix int64
	err := s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM data_stamps WHERE data_type = ? AND code = ?`,
		dataType, code).Scan(&unix)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last update %s/%s: %w", dataType, code, err)
	}
	return time.Unix(unix, 0), nil
}

// PurgeOlderThan deletes NAV rows older than the retention window and returns
// how many were removed.
func (s *Store) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -days).Format(dateLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM fund_nav WHERE nav_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge nav history: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.log.Info().Int64("rows", n).Str("cutoff", cutoff).Msg("purged stale nav history")
	}
	return n, nil
}

// LogUpdate appends a row to the update audit log. Bulk refresh paths record
// one row per fetch, success or failure; rows are never overwritten.
func (s *Store) LogUpdate(ctx context.Context, dataType, status, message string) error {
	return appendLog(ctx, s.db, dataType, time.Now().Unix(), status, message)
}

// LastLogged returns the time of the most recent successful refresh of a
// data type, or the zero time when none was logged. Failed refreshes do not
// count.
func (s *Store) LastLogged(ctx context.Context, dataType string) (time.Time, error) {
	var unix int64
	err := s.db.QueryRowContext(ctx, `
		SELECT updated_at FROM update_log
		WHERE data_type = ? AND status = ?
		ORDER BY id DESC LIMIT 1`, dataType, StatusSuccess).Scan(&unix)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last logged %s: %w", dataType, err)
	}
	return time.Unix(unix, 0), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func appendLog(ctx context.Context, db execer, dataType string, at int64, status, message string) error {
	if _, err := db.ExecContext(ctx,
		`INSERT INTO update_log (data_type, updated_at, status, message) VALUES (?, ?, ?, ?)`,
		dataType, at, status, message); err != nil {
		return fmt.Errorf("log update %s: %w", dataType, err)
	}
	return nil
}

func (s *Store) touch(ctx context.Context, dataType, code string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO data_stamps (data_type, code, updated_at) VALUES (?, ?, ?)`,
		dataType, code, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("stamp %s/%s: %w", dataType, code, err)
	}
	return nil
}
