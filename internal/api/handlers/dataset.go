package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/stox/backend/internal/brain"
	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/pkg/logger"
)

// JobRunner triggers a scheduled job out of band (scheduler.Scheduler)
type JobRunner interface {
	RunJob(jobName string) error
}

// DatasetHandler serves the published dataset snapshots
// ⭐ SSOT: 데이터셋 API 핸들러는 이 구조체에서만
type DatasetHandler struct {
	store  *brain.Store
	runner JobRunner
	logger *logger.Logger
}

// NewDatasetHandler creates a new dataset handler. runner may be nil.
func NewDatasetHandler(store *brain.Store, runner JobRunner, log *logger.Logger) *DatasetHandler {
	return &DatasetHandler{
		store:  store,
		runner: runner,
		logger: log,
	}
}

// DatasetSummary describes one snapshot without its rows
type DatasetSummary struct {
	RunID       string                `json:"run_id"`
	ProfileID   string                `json:"profile_id"`
	ProfileHash string                `json:"profile_hash"`
	CreatedAt   time.Time             `json:"created_at"`
	Columns     []string              `json:"columns"`
	Categorical []string              `json:"categorical"`
	Rows        int                   `json:"rows"`
	Predictors  int                   `json:"predictors"`
	Report      contracts.BuildReport `json:"report"`
}

// RowView is a JSON-safe feature row
type RowView struct {
	Date   string     `json:"date"`
	Symbol string     `json:"symbol"`
	Values []*float64 `json:"values"`
	Future *float64   `json:"future"`
}

// snapshot picks ?run_id= or the latest snapshot
func (h *DatasetHandler) snapshot(w http.ResponseWriter, r *http.Request) (*brain.Snapshot, bool) {
	if id := r.URL.Query().Get("run_id"); id != "" {
		snap, ok := h.store.Get(id)
		if !ok {
			respondError(w, http.StatusNotFound, "Unknown run_id")
			return nil, false
		}
		return snap, true
	}
	snap := h.store.Latest()
	if snap == nil {
		respondError(w, http.StatusServiceUnavailable, "No dataset has been built yet")
		return nil, false
	}
	return snap, true
}

// GetDataset returns the snapshot summary
// GET /api/dataset?run_id=
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	ds := snap.Dataset

	respondJSON(w, http.StatusOK, DatasetSummary{
		RunID:       snap.Meta.RunID,
		ProfileID:   snap.Meta.ProfileID,
		ProfileHash: snap.Meta.ProfileHash,
		CreatedAt:   snap.Meta.CreatedAt,
		Columns:     ds.Columns,
		Categorical: ds.Categorical,
		Rows:        len(ds.Rows),
		Predictors:  len(ds.Predictors),
		Report:      ds.Report,
	})
}

// GetRows returns training rows, optionally for one symbol
// GET /api/dataset/rows?symbol=BHP[AU]&offset=0&limit=500
func (h *DatasetHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	offset, ok1 := queryInt(r, "offset", 0)
	limit, ok2 := queryInt(r, "limit", 500)
	if !ok1 || !ok2 {
		respondError(w, http.StatusBadRequest, "offset and limit must be non-negative integers")
		return
	}

	var filter *contracts.Symbol
	if s := r.URL.Query().Get("symbol"); s != "" {
		sym, err := contracts.ParseSymbol(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter = &sym
	}

	rows := make([]RowView, 0, min(limit, len(snap.Dataset.Rows)))
	skipped := 0
	for _, row := range snap.Dataset.Rows {
		if filter != nil && row.Symbol != *filter {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(rows) >= limit {
			break
		}
		rows = append(rows, toView(row))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  snap.Meta.RunID,
		"columns": snap.Dataset.Columns,
		"rows":    rows,
	})
}

// GetPredictors returns the held-out latest row of every ticker
// GET /api/predictors
func (h *DatasetHandler) GetPredictors(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	views := make([]RowView, len(snap.Dataset.Predictors))
	for i, p := range snap.Dataset.Predictors {
		views[i] = toView(p)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":     snap.Meta.RunID,
		"columns":    snap.Dataset.Columns,
		"predictors": views,
	})
}

// GetRankings returns evaluation results ordered by potential
// GET /api/rankings
func (h *DatasetHandler) GetRankings(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	if snap.Evaluation == nil {
		respondError(w, http.StatusNotFound, "Snapshot has no evaluation")
		return
	}
	respondJSON(w, http.StatusOK, snap.Evaluation)
}

// GetRuns lists retained run IDs
// GET /api/runs
func (h *DatasetHandler) GetRuns(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs": h.store.RunIDs(),
	})
}

// TriggerJob starts a scheduled job now
// POST /api/jobs/{name}/run
func (h *DatasetHandler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		respondError(w, http.StatusServiceUnavailable, "Scheduler is not running")
		return
	}
	name := mux.Vars(r)["name"]
	if err := h.runner.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.WithField("job", name).Info("Job triggered via API")
	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
		"job":    name,
	})
}

func toView(row contracts.FeatureRow) RowView {
	return RowView{
		Date:   row.Date.Format("2006-01-02"),
		Symbol: row.Symbol.String(),
		Values: nullableSlice(row.Values),
		Future: nullable(row.Future),
	}
}
