package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profilePath string
	dataSource  string
	workers     int
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stox",
	Short: "stox - 시계열 피처 엔진",
	Long: `stox Unified CLI

일봉 OHLCV 시계열을 정제하고 기술적 지표/리본 피처와 미래 수익률 라벨을 붙여
머신러닝용 데이터셋을 만든다.

Usage:
  go run ./cmd/stox [command]

Examples:
  go run ./cmd/stox dataset build --out dataset.csv
  go run ./cmd/stox dataset evaluate --source mock
  go run ./cmd/stox data sync --from-source mock
  go run ./cmd/stox scheduler start
  go run ./cmd/stox api
  go run ./cmd/stox test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "YAML dataset profile (default: PROFILE_PATH or built-in)")
	rootCmd.PersistentFlags().StringVar(&dataSource, "source", "", "series source override (postgres|sqlite|mock)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "build parallelism override (default: WORKERS or CPU count)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
