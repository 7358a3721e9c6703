// Package main provides the entry point for the Reading Tracker HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reading_tracker",
	Short: "Reading Tracker HTTP API Server",
	Long:  "Reading Tracker generates personalized book recommendations from a user's rating history and stated preferences via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
