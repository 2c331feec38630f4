package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/stox/backend/internal/api"
	"github.com/wonny/stox/backend/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버와 스케줄러를 함께 시작합니다.

Endpoints:
  GET  /health                     - Health check
  GET  /metrics                    - Prometheus metrics
  GET  /api/dataset                - 최신 데이터셋 요약
  GET  /api/dataset/rows           - 학습 행 (ticker, limit, offset)
  GET  /api/predictors             - 예측 행
  GET  /api/rankings               - 평가 랭킹
  GET  /api/runs                   - 보관 중인 run 목록
  GET  /api/jobs                   - 작업 통계
  POST /api/jobs/{name}/run        - 작업 즉시 실행
  GET  /api/data/tickers           - 종목 목록
  GET  /api/data/series/{symbol}   - 원천 일봉

Example:
  go run ./cmd/stox api
  go run ./cmd/stox api --port 8080 --build-on-start`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	buildOnStart bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
	apiCmd.Flags().BoolVar(&buildOnStart, "build-on-start", false, "시작 시 dataset_build 1회 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	PrintHeader("stox API Server")

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	sched, err := a.scheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if buildOnStart {
		if err := sched.RunJob("dataset_build"); err != nil {
			return err
		}
	}

	router := api.NewRouter(api.Handlers{
		Dataset: handlers.NewDatasetHandler(a.store, sched, a.log),
		Data:    handlers.NewDataHandler(a.source, a.lister, a.log),
		Jobs:    handlers.NewJobsHandler(sched),
		Metrics: a.recorder.Handler(),
	}, a.log)

	server := api.New(a.cfg, a.log, router)

	// Ctrl+C / SIGTERM로 graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	a.log.Info("Server stopped")
	return nil
}
