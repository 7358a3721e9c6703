package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/reading-tracker/internal/config"
	"github.com/jonathan/reading-tracker/internal/observability"
	"github.com/jonathan/reading-tracker/internal/quota"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show the daily generation quota for one user",
	Long: `Prints the configured daily generation allowance for the given user.
Quota state is process-local, so outside a running server this reports the
full configured allowance.`,
	RunE: runQuota,
}

var quotaUser string

func init() {
	quotaCmd.Flags().StringVarP(&quotaUser, "user", "u", "", "User ID (UUID) to inspect (required)")
	_ = quotaCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(quotaCmd)
}

func runQuota(_ *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(quotaUser)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", quotaUser, err)
	}

	recCfg, err := config.NewRecommendationConfig()
	if err != nil {
		return fmt.Errorf("failed to load recommendation config: %w", err)
	}

	gate := quota.NewLimiter(recCfg.DailyLimit, 24*time.Hour)
	decision, err := gate.Status(userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to read quota status: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintQuotaStatus(decision)
	return nil
}
