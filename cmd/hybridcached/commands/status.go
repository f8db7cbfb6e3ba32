package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Wire the engine from config and print its tier/circuit status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		w, err := buildEngine(cfg)
		if err != nil {
			return fmt.Errorf("build engine: %w", err)
		}
		defer w.engine.Dispose(context.Background())

		fmt.Printf("storage.type:   %s\n", cfg.Storage.Type)
		fmt.Printf("cache.strategy: %s\n", cfg.Cache.Strategy)
		fmt.Printf("offline_mode:   %v\n", cfg.Features.OfflineMode)
		fmt.Println()

		fmt.Println("circuit breakers:")
		for _, snap := range w.engine.CircuitStatus() {
			fmt.Printf("  %-12s state=%-9s consecutive_failures=%d requests=%d\n",
				snap.Tier, snap.State, snap.ConsecutiveFailures, snap.Requests)
		}

		issues := w.engine.Notifications(time.Hour, time.Now())
		fmt.Printf("\nactive degradation issues (last hour): %d\n", len(issues))
		for _, issue := range issues {
			fmt.Printf("  [%s] %s tier=%s occurrences=%d: %s\n",
				issue.Severity, issue.Type, issue.Tier, issue.Occurrences, issue.Message)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
