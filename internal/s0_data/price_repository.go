package s0_data

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/stox/backend/internal/contracts"
)

// PriceRepository reads and writes daily bars in Postgres
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// Fetch implements contracts.SeriesSource
func (r *PriceRepository) Fetch(ctx context.Context, symbol contracts.Symbol, from time.Time) (*contracts.RawSeries, error) {
	query := `
		SELECT trade_date, open, high, low, close, volume
		FROM market.daily_bars
		WHERE ticker = $1 AND market = $2 AND trade_date >= $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol.Ticker, symbol.Market, from)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", contracts.ErrSourceFetch, symbol, err)
	}
	defer rows.Close()

	series := &contracts.RawSeries{Symbol: symbol}
	for rows.Next() {
		var (
			date                    time.Time
			open, high, low, cls, v *float64
		)
		if err := rows.Scan(&date, &open, &high, &low, &cls, &v); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", contracts.ErrSourceFetch, symbol, err)
		}
		series.Bars = append(series.Bars, contracts.Bar{
			Date:   date.UTC(),
			Open:   orNaN(open),
			High:   orNaN(high),
			Low:    orNaN(low),
			Close:  orNaN(cls),
			Volume: orNaN(v),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows %s: %v", contracts.ErrSourceFetch, symbol, err)
	}
	return series, nil
}

// ListTickers implements contracts.TickerLister. Index codes (^...) are skipped.
func (r *PriceRepository) ListTickers(ctx context.Context, markets []string) ([]contracts.Symbol, error) {
	return r.listSymbols(ctx, false, markets)
}

// ListIndices returns the index series stored per market
func (r *PriceRepository) ListIndices(ctx context.Context, markets []string) ([]contracts.Symbol, error) {
	return r.listSymbols(ctx, true, markets)
}

func (r *PriceRepository) listSymbols(ctx context.Context, indices bool, markets []string) ([]contracts.Symbol, error) {
	query := `
		SELECT DISTINCT ticker, market
		FROM market.daily_bars
		WHERE is_index = $1
		  AND ticker NOT LIKE '^%'
		  AND (cardinality($2::text[]) = 0 OR market = ANY($2))
		ORDER BY market, ticker
	`
	if markets == nil {
		markets = []string{}
	}

	rows, err := r.pool.Query(ctx, query, indices, markets)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
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

// SaveBatch upserts a series in one round trip
func (r *PriceRepository) SaveBatch(ctx context.Context, series *contracts.RawSeries, isIndex bool) error {
	if series.Len() == 0 {
		return nil
	}

	query := `
		INSERT INTO market.daily_bars (ticker, market, is_index, trade_date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ticker, market, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, b := range series.Bars {
		batch.Queue(query,
			series.Symbol.Ticker, series.Symbol.Market, isIndex, b.Date,
			nullable(b.Open), nullable(b.High), nullable(b.Low), nullable(b.Close), nullable(b.Volume),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save %s bar %d: %w", series.Symbol, i, err)
		}
	}
	return nil
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
