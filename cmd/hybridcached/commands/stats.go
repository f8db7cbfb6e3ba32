package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Wire the engine from config and print tier size and dedup stats",
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

		s := w.engine.Stats(context.Background())

		fmt.Println("tiers:")
		for name, ts := range s.Tiers {
			fmt.Printf("  %-12s used=%d capacity=%d\n", name, ts.UsedBytes, ts.CapacityBytes)
		}

		fmt.Println("\ndedup:")
		fmt.Printf("  total=%d deduplicated=%d in_flight=%d rate=%.2f%%\n",
			s.Dedup.Total, s.Dedup.Deduplicated, s.Dedup.InFlight, s.Dedup.DeduplicationRate*100)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
