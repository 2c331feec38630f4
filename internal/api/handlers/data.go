package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/pkg/logger"
)

// DataHandler handles raw series endpoints
// ⭐ SSOT: 데이터 API 핸들러는 이 구조체에서만
type DataHandler struct {
	source contracts.SeriesSource
	lister contracts.TickerLister
	logger *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(source contracts.SeriesSource, lister contracts.TickerLister, log *logger.Logger) *DataHandler {
	return &DataHandler{
		source: source,
		lister: lister,
		logger: log,
	}
}

// BarView is a JSON-safe bar
type BarView struct {
	Date   string   `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

// GetSeries returns the raw bars of one symbol
// GET /api/data/series/{symbol}?from=YYYY-MM-DD
func (h *DataHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sym, err := contracts.ParseSymbol(mux.Vars(r)["symbol"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var from time.Time
	if s := r.URL.Query().Get("from"); s != "" {
		from, err = time.Parse("2006-01-02", s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
			return
		}
	}

	series, err := h.source.Fetch(ctx, sym, from)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", sym.String()).Error("Failed to fetch series")
		respondError(w, http.StatusBadGateway, "Failed to fetch series")
		return
	}

	bars := make([]BarView, len(series.Bars))
	for i, b := range series.Bars {
		bars[i] = BarView{
			Date:   b.Date.Format("2006-01-02"),
			Open:   nullable(b.Open),
			High:   nullable(b.High),
			Low:    nullable(b.Low),
			Close:  nullable(b.Close),
			Volume: nullable(b.Volume),
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": sym.String(),
		"bars":   bars,
	})
}

// GetTickers lists tickers, optionally restricted to markets
// GET /api/data/tickers?market=AU&market=US
func (h *DataHandler) GetTickers(w http.ResponseWriter, r *http.Request) {
	markets := r.URL.Query()["market"]
	tickers, err := h.lister.ListTickers(r.Context(), markets)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list tickers")
		respondError(w, http.StatusInternalServerError, "Failed to list tickers")
		return
	}

	out := make([]string, len(tickers))
	for i, t := range tickers {
		out[i] = t.String()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tickers": out,
	})
}
