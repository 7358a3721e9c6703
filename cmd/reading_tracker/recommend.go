package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/reading-tracker/internal/config"
	"github.com/jonathan/reading-tracker/internal/db"
	"github.com/jonathan/reading-tracker/internal/llm"
	"github.com/jonathan/reading-tracker/internal/observability"
	"github.com/jonathan/reading-tracker/internal/pipeline"
	"github.com/jonathan/reading-tracker/internal/quota"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Generate book recommendations for one user",
	Long: `Runs the recommendation pipeline once for the given user and prints the
resulting batch. Intended for local testing against a real library database;
the daily quota still applies within the process but does not persist across
invocations.`,
	RunE: runRecommend,
}

var (
	recommendUser        string
	recommendCount       int
	recommendAPIKey      string
	recommendDatabaseURL string
	recommendVerbose     bool
)

func init() {
	recommendCmd.Flags().StringVarP(&recommendUser, "user", "u", "", "User ID (UUID) to recommend for (required)")
	recommendCmd.Flags().IntVarP(&recommendCount, "count", "c", 5, "Number of recommendations to request")
	recommendCmd.Flags().StringVar(&recommendAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	recommendCmd.Flags().StringVar(&recommendDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	recommendCmd.Flags().BoolVarP(&recommendVerbose, "verbose", "v", false, "Print a formatted summary instead of raw JSON")

	_ = recommendCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	userID, err := uuid.Parse(recommendUser)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", recommendUser, err)
	}

	apiKey := recommendAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("API key is required (use --api-key or GEMINI_API_KEY)")
	}

	databaseURL := recommendDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("database URL is required (use --db-url or DATABASE_URL)")
	}

	recCfg, err := config.NewRecommendationConfig()
	if err != nil {
		return fmt.Errorf("failed to load recommendation config: %w", err)
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	gate := quota.NewLimiter(recCfg.DailyLimit, 24*time.Hour)

	pipe := pipeline.New(gate, database, client, pipeline.Config{
		MaxRequestedCount: recCfg.MaxRequestedCount,
		MinSignals:        recCfg.MinSignals,
		MaxSignals:        recCfg.MaxSignals,
		CompletionTimeout: recCfg.CompletionTimeout,
		Temperature:       float32(recCfg.Temperature),
		MaxTokens:         int32(recCfg.MaxTokens),
	})

	batch, err := pipe.Generate(ctx, userID, recommendCount)
	if err != nil {
		return err
	}

	if recommendVerbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintRecommendations(batch)
		return nil
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(batch)
}
