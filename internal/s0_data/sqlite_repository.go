package s0_data

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wonny/stox/backend/internal/contracts"
)

const sqliteDateLayout = "2006-01-02"

// SQLiteRepository reads and writes bars in the legacy equities/indices tables
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an opened sqlite handle (see database.OpenSQLite)
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Fetch implements contracts.SeriesSource. Equities and indices are searched together.
func (r *SQLiteRepository) Fetch(ctx context.Context, symbol contracts.Symbol, from time.Time) (*contracts.RawSeries, error) {
	query := `
		SELECT date, open, high, low, close, volume FROM equities
		WHERE ticker = ? AND market = ? AND date >= ?
		UNION ALL
		SELECT date, open, high, low, close, volume FROM indices
		WHERE ticker = ? AND market = ? AND date >= ?
		ORDER BY date ASC
	`
	fromText := ""
	if !from.IsZero() {
		fromText = from.Format(sqliteDateLayout)
	}

	rows, err := r.db.QueryContext(ctx, query,
		symbol.Ticker, symbol.Market, fromText,
		symbol.Ticker, symbol.Market, fromText,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", contracts.ErrSourceFetch, symbol, err)
	}
	defer rows.Close()

	series := &contracts.RawSeries{Symbol: symbol}
	for rows.Next() {
		var (
			dateText                string
			open, high, low, cls, v sql.NullFloat64
		)
		if err := rows.Scan(&dateText, &open, &high, &low, &cls, &v); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", contracts.ErrSourceFetch, symbol, err)
		}
		// some loaders stored full timestamps
		date, err := time.Parse(sqliteDateLayout, dateText[:min(len(dateText), len(sqliteDateLayout))])
		if err != nil {
			return nil, fmt.Errorf("%w: bad date %q for %s", contracts.ErrSourceFetch, dateText, symbol)
		}
		series.Bars = append(series.Bars, contracts.Bar{
			Date:   date,
			Open:   nullToNaN(open),
			High:   nullToNaN(high),
			Low:    nullToNaN(low),
			Close:  nullToNaN(cls),
			Volume: nullToNaN(v),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows %s: %v", contracts.ErrSourceFetch, symbol, err)
	}
	return series, nil
}

// ListTickers implements contracts.TickerLister
func (r *SQLiteRepository) ListTickers(ctx context.Context, markets []string) ([]contracts.Symbol, error) {
	return r.listSymbols(ctx, "equities", markets)
}

// ListIndices returns the index series stored per market
func (r *SQLiteRepository) ListIndices(ctx context.Context, markets []string) ([]contracts.Symbol, error) {
	return r.listSymbols(ctx, "indices", markets)
}

func (r *SQLiteRepository) listSymbols(ctx context.Context, table string, markets []string) ([]contracts.Symbol, error) {
	var (
		where strings.Builder
		args  []interface{}
	)
	where.WriteString("ticker NOT LIKE '^%'")
	if len(markets) > 0 {
		where.WriteString(" AND market IN (?" + strings.Repeat(",?", len(markets)-1) + ")")
		for _, m := range markets {
			args = append(args, m)
		}
	}

	// table is one of two constants
	query := fmt.Sprintf(`SELECT DISTINCT ticker, market FROM %s WHERE %s ORDER BY market, ticker`, table, where.String())
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []contracts.Symbol
	for rows.Next() {
		var s contracts.Symbol
		if err := rows.Scan(&s.Ticker, &s.Market); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveBatch upserts a series in a single transaction
func (r *SQLiteRepository) SaveBatch(ctx context.Context, series *contracts.RawSeries, isIndex bool) error {
	if series.Len() == 0 {
		return nil
	}
	table := "equities"
	if isIndex {
		table = "indices"
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (ticker, market, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, table))
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range series.Bars {
		if _, err := stmt.ExecContext(ctx,
			series.Symbol.Ticker, series.Symbol.Market, b.Date.Format(sqliteDateLayout),
			nanToNull(b.Open), nanToNull(b.High), nanToNull(b.Low), nanToNull(b.Close), nanToNull(b.Volume),
		); err != nil {
			return fmt.Errorf("save %s %s: %w", series.Symbol, b.Date.Format(sqliteDateLayout), err)
		}
	}
	return tx.Commit()
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func nanToNull(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
