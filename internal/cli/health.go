package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hibiki-app/hibiki"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Record and inspect pillar health",
}

var healthRecordCmd = &cobra.Command{
	Use:   "record <pillar-id> <score>",
	Short: "Record a health snapshot for a pillar (score 0-100)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid score %q", args[1])
		}
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			if err := eng.RecordHealthSnapshot(ctx, args[0], score, time.Now()); err != nil {
				return err
			}
			fmt.Printf("Recorded health %.1f for %s\n", score, args[0])
			return nil
		})
	},
}

var healthStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show latest score and trend for every pillar",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			summary := eng.PillarHealthSummary()
			if len(summary) == 0 {
				fmt.Println("No pillars configured. Set HIBIKI_PILLARS.")
				return nil
			}
			for _, ph := range summary {
				if !ph.HasData {
					fmt.Printf("%-12s  no data\n", ph.PillarID)
					continue
				}
				fmt.Printf("%-12s  %5.1f  %s\n", ph.PillarID, ph.Score, ph.Trend)
			}
			fmt.Printf("\nOverall health: %.1f\n", eng.OverallHealth())
			return nil
		})
	},
}

func init() {
	healthCmd.AddCommand(healthRecordCmd)
	healthCmd.AddCommand(healthStatusCmd)
}
