package handlers

import (
	"net/http"

	"github.com/wonny/stox/backend/internal/scheduler"
)

// JobsHandler exposes scheduler statistics
type JobsHandler struct {
	scheduler *scheduler.Scheduler
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(s *scheduler.Scheduler) *JobsHandler {
	return &JobsHandler{scheduler: s}
}

// GetJobs returns per-job run statistics
// GET /api/jobs
func (h *JobsHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scheduler.GetJobStats())
}
