package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/stox/backend/internal/brain"
	"github.com/wonny/stox/backend/internal/s3_dataset"
	"github.com/wonny/stox/backend/internal/s4_evaluate"
)

// datasetCmd represents the dataset command
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "데이터셋 생성/평가",
	Long: `프로필에 따라 데이터셋을 생성하고 선택적으로 평가합니다.

Subcommands:
  build     - 데이터셋 생성 (CSV 출력 가능)
  evaluate  - 데이터셋 생성 후 회귀 모델로 평가/랭킹

Example:
  go run ./cmd/stox dataset build --out dataset.csv
  go run ./cmd/stox dataset evaluate --source mock --profile profiles/au.yaml`,
}

var (
	datasetBuildCmd = &cobra.Command{
		Use:   "build",
		Short: "데이터셋 생성",
		RunE:  runDatasetBuild,
	}

	datasetEvaluateCmd = &cobra.Command{
		Use:   "evaluate",
		Short: "데이터셋 생성 후 평가",
		RunE:  runDatasetEvaluate,
	}
)

var (
	datasetOut string
	rankTop    int
)

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetBuildCmd)
	datasetCmd.AddCommand(datasetEvaluateCmd)

	datasetBuildCmd.Flags().StringVarP(&datasetOut, "out", "o", "", "write the dataset as CSV to this path")
	datasetEvaluateCmd.Flags().IntVar(&rankTop, "top", 20, "number of ranked tickers to print")
}

func runDatasetBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	PrintHeader("Dataset Build")

	res, err := a.orchestrator.Run(ctx, brain.RunConfig{
		Profile:     a.profile,
		ProfileYAML: a.profileYAML,
	})
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}
	printBuildSummary(res.Snapshot)

	if datasetOut != "" {
		f, err := os.Create(datasetOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", datasetOut, err)
		}
		defer f.Close()

		if err := s3_dataset.WriteCSV(f, res.Snapshot.Dataset); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		PrintSuccess(fmt.Sprintf("Dataset written to %s", datasetOut))
	}

	PrintSuccess(fmt.Sprintf("Run %s completed in %s", res.RunID, res.Duration))
	return nil
}

func runDatasetEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	PrintHeader("Dataset Evaluation")

	res, err := a.orchestrator.Run(ctx, brain.RunConfig{
		Profile:     a.profile,
		ProfileYAML: a.profileYAML,
		Evaluate:    true,
	})
	if err != nil {
		return fmt.Errorf("evaluate dataset: %w", err)
	}
	printBuildSummary(res.Snapshot)

	report := res.Snapshot.Evaluation
	if report == nil {
		PrintWarning("No training rows, evaluation skipped")
		return nil
	}
	printRankings(report, rankTop)

	PrintSuccess(fmt.Sprintf("Run %s completed in %s", res.RunID, res.Duration))
	return nil
}

func printBuildSummary(snap *brain.Snapshot) {
	ds := snap.Dataset
	PrintKeyValue("Run ID", snap.Meta.RunID, 12)
	PrintKeyValue("Profile", fmt.Sprintf("%s (%s)", snap.Meta.ProfileID, snap.Meta.ProfileHash[:12]), 12)
	PrintKeyValue("Columns", strconv.Itoa(len(ds.Columns)), 12)
	PrintKeyValue("Categorical", strconv.Itoa(len(ds.Categorical)), 12)
	PrintKeyValue("Rows", strconv.Itoa(len(ds.Rows)), 12)
	PrintKeyValue("Predictors", strconv.Itoa(len(ds.Predictors)), 12)
	PrintKeyValue("Built", fmt.Sprintf("%d / %d", len(ds.Report.Built), ds.Report.Requested), 12)

	for _, ex := range ds.Report.Excluded {
		PrintWarning(fmt.Sprintf("%s excluded (%s)", ex.Symbol, ex.Reason))
	}
	PrintSeparator()
}

func printRankings(report *s4_evaluate.Report, top int) {
	PrintKeyValue("Model", report.Model, 12)
	PrintKeyValue("Train rows", strconv.Itoa(report.TrainRows), 12)
	PrintKeyValue("Test rows", strconv.Itoa(report.TestRows), 12)
	PrintKeyValue("Alpha", fmt.Sprintf("%.2f%%", report.Overall.Alpha), 12)
	fmt.Println()

	widths := []int{4, 14, 11, 9, 9, 9, 10}
	PrintTableHeader([]string{"#", "Ticker", "Prediction", "MAE", "Alpha", "VarScore", "Potential"}, widths)
	for i, r := range report.Results {
		if top > 0 && i >= top {
			break
		}
		PrintTableRow([]string{
			strconv.Itoa(i + 1),
			r.Symbol,
			fmt.Sprintf("%+.3f", r.Prediction),
			fmt.Sprintf("%.3f", r.MAE),
			fmt.Sprintf("%.1f", r.Alpha),
			fmt.Sprintf("%.3f", r.VarScore),
			fmt.Sprintf("%.4f", r.Potential),
		}, widths)
	}

	for _, s := range report.Skipped {
		PrintWarning(fmt.Sprintf("%s not ranked (%s)", s.Symbol, s.Reason))
	}
	fmt.Println()
}
