package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stox/backend/internal/contracts"
	"github.com/wonny/stox/backend/internal/s0_data"
	"github.com/wonny/stox/backend/internal/s0_data/collector"
	"github.com/wonny/stox/backend/internal/s0_data/quality"
	"github.com/wonny/stox/backend/internal/scheduler/jobs"
)

// dataCmd represents the data command
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "원천 시계열 관리",
	Long: `원천 일봉 저장소(postgres/sqlite)를 관리합니다.

Subcommands:
  sync     - 업스트림 소스에서 저장소로 일봉 복사
  tickers  - 저장소의 종목 목록

Example:
  go run ./cmd/stox data sync --source sqlite --window 720h
  go run ./cmd/stox data tickers --markets AU,US`,
}

var (
	dataSyncCmd = &cobra.Command{
		Use:   "sync",
		Short: "업스트림 → 저장소 동기화",
		Long: `업스트림 소스의 일봉을 DATA_SOURCE 저장소에 upsert 합니다.

현재 업스트림은 결정적 mock 시계열(easy ramp / hard random walk)이며
오프라인 개발/테스트용 저장소를 채우는 용도입니다.`,
		RunE: runDataSync,
	}

	dataTickersCmd = &cobra.Command{
		Use:   "tickers",
		Short: "종목 목록 조회",
		RunE:  runDataTickers,
	}
)

var (
	syncWindow  time.Duration
	syncMarkets string
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataSyncCmd)
	dataCmd.AddCommand(dataTickersCmd)

	dataSyncCmd.Flags().DurationVar(&syncWindow, "window", 0, "copy only bars newer than now-window (0 = full history)")
	dataCmd.PersistentFlags().StringVar(&syncMarkets, "markets", "", "comma separated markets (default: profile markets; sync: upstream markets)")
}

func runDataSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	markets := marketsFlag(a)
	if syncMarkets == "" {
		markets = upstreamMarkets
	}
	job, err := a.dataSyncJob(syncWindow, markets)
	if err != nil {
		return err
	}

	PrintHeader("Data Sync")
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("Sync completed in %.2fs", time.Since(start).Seconds()))
	return nil
}

func runDataTickers(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tickers, err := a.lister.ListTickers(ctx, marketsFlag(a))
	if err != nil {
		return fmt.Errorf("list tickers: %w", err)
	}

	fmt.Printf("Tickers (%d):\n", len(tickers))
	for _, t := range tickers {
		fmt.Printf("  - %s\n", t)
	}
	return nil
}

// upstreamMarkets are the markets the mock upstream serves
var upstreamMarkets = []string{s0_data.MockMarket}

// dataSyncJob wires the collector from the mock upstream into the configured store
func (a *app) dataSyncJob(window time.Duration, markets []string) (*jobs.DataSyncJob, error) {
	if a.writer == nil {
		return nil, fmt.Errorf("data sync needs a writable store (DATA_SOURCE=postgres or sqlite)")
	}

	upstream := s0_data.NewMockSource(mockLength, mockSeed)
	var src contracts.SeriesSource = s0_data.NewThrottledSource(upstream, a.cfg.FetchRatePerSec)
	src = s0_data.NewMeteredSource(src, "upstream", a.recorder)

	col := collector.NewCollector(src, a.writer, a.log).
		WithQualityGate(quality.NewQualityGate(quality.DefaultConfig()))
	return jobs.NewDataSyncJob(col, upstream, a.indices, markets, window, a.cfg.Workers, a.log), nil
}

func marketsFlag(a *app) []string {
	if syncMarkets == "" {
		return a.profile.Universe.Markets
	}
	var out []string
	for _, m := range strings.Split(syncMarkets, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, strings.ToUpper(m))
		}
	}
	return out
}
