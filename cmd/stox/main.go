package main

import (
	"os"

	"github.com/wonny/stox/backend/cmd/stox/commands"
)

// main is the entry point for the stox CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/stox [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
