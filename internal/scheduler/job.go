package scheduler

import (
	"context"
	"time"
)

// MaxHistory is the number of results kept per job
const MaxHistory = 100

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job. Returning an error triggers a retry.
	Run(ctx context.Context) error

	// Schedule returns a cron expression with a leading seconds field
	// Examples: "0 30 18 * * 1-5" (weekdays 18:30), "@daily"
	Schedule() string
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory stores the most recent MaxHistory results, oldest first
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, evicting the oldest beyond MaxHistory
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if over := len(h.Results) - MaxHistory; over > 0 {
		h.Results = append(h.Results[:0:0], h.Results[over:]...)
	}
}

// GetLatestResults returns the latest N results
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// GetFailedResults returns all failed results
func (h *JobHistory) GetFailedResults() []JobResult {
	failed := make([]JobResult, 0)
	for _, result := range h.Results {
		if !result.Success {
			failed = append(failed, result)
		}
	}
	return failed
}

// Counts returns the number of successful and failed runs
func (h *JobHistory) Counts() (success, failure int) {
	for _, result := range h.Results {
		if result.Success {
			success++
		} else {
			failure++
		}
	}
	return success, failure
}

// GetSuccessRate returns the success rate (0.0 - 1.0)
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	success, _ := h.Counts()
	return float64(success) / float64(len(h.Results))
}

// lastWhere returns the start time of the newest result matching ok
func (h *JobHistory) lastWhere(ok func(JobResult) bool) *time.Time {
	for i := len(h.Results) - 1; i >= 0; i-- {
		if ok(h.Results[i]) {
			t := h.Results[i].StartTime
			return &t
		}
	}
	return nil
}
