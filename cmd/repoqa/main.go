package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/repoqa/repoqa/internal/cli"
)

func main() {
	// Load .env if present (API key, model overrides).
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
