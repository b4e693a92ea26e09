package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hibiki-app/hibiki"
)

var statusDate string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daily overview: allocation, health, and active suggestions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate(statusDate)
		if err != nil {
			return err
		}
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			fmt.Printf("Status for %s\n\n", date.Format("2006-01-02"))

			fmt.Println("Pillar allocation:")
			allocs := eng.PillarAllocation(date)
			if len(allocs) == 0 {
				fmt.Println("  no pillars configured")
			}
			for _, a := range allocs {
				fmt.Printf("  %-12s  planned %4.1fh  completed %4.1fh  target %4.1fh/day\n",
					a.Pillar.ID, a.PlannedHours, a.CompletedHours, a.TargetHours)
			}

			fmt.Println("\nPillar health:")
			for _, ph := range eng.PillarHealthSummary() {
				if !ph.HasData {
					fmt.Printf("  %-12s  no data\n", ph.PillarID)
					continue
				}
				fmt.Printf("  %-12s  %5.1f  %s\n", ph.PillarID, ph.Score, ph.Trend)
			}

			fmt.Println("\nActive suggestions:")
			active := eng.ActiveSuggestions()
			if len(active) == 0 {
				fmt.Println("  none")
			}
			for _, s := range active {
				fmt.Printf("  [%-16s %3.0f%%]  %s\n", s.Type, s.Confidence*100, s.Title)
			}
			return nil
		})
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusDate, "date", "", "day to show (YYYY-MM-DD, default today)")
}
