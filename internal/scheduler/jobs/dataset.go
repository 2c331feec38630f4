package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/stox/backend/internal/brain"
	"github.com/wonny/stox/backend/internal/profile"
	"github.com/wonny/stox/backend/pkg/logger"
)

// DatasetJob rebuilds the dataset and its evaluation nightly
// ⭐ SSOT: 데이터셋 재구성 스케줄은 이 Job에서만
type DatasetJob struct {
	orchestrator *brain.Orchestrator
	profile      *profile.Profile
	profileYAML  []byte
	schedule     string
	logger       *logger.Logger
}

// NewDatasetJob creates a new dataset rebuild job
func NewDatasetJob(o *brain.Orchestrator, p *profile.Profile, yamlData []byte, schedule string, log *logger.Logger) *DatasetJob {
	return &DatasetJob{
		orchestrator: o,
		profile:      p,
		profileYAML:  yamlData,
		schedule:     schedule,
		logger:       log,
	}
}

// Name returns the job name
func (j *DatasetJob) Name() string {
	return "dataset_build"
}

// Schedule returns the cron schedule (weekday evenings by default)
func (j *DatasetJob) Schedule() string {
	return j.schedule
}

// Run executes the pipeline
func (j *DatasetJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled dataset build")

	res, err := j.orchestrator.Run(ctx, brain.RunConfig{
		Profile:     j.profile,
		ProfileYAML: j.profileYAML,
		Evaluate:    true,
	})
	if err != nil {
		return fmt.Errorf("dataset build: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": res.RunID,
		"stages": res.CompletedStages,
	}).Info("Scheduled dataset build completed")
	return nil
}
