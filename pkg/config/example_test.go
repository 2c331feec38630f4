package config_test

import (
	"fmt"
	"os"

	"github.com/wonny/stox/backend/pkg/config"
)

// Example loads an offline mock configuration
func Example() {
	os.Setenv("DATA_SOURCE", "mock")
	os.Setenv("WORKERS", "4")
	os.Setenv("SCHEDULE_CRON", "0 0 19 * * 1-5")
	defer os.Unsetenv("DATA_SOURCE")
	defer os.Unsetenv("WORKERS")
	defer os.Unsetenv("SCHEDULE_CRON")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("source=%s workers=%d cron=%q\n", cfg.DataSource, cfg.Workers, cfg.ScheduleCron)
	// Output: source=mock workers=4 cron="0 0 19 * * 1-5"
}
