package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hibiki-app/hibiki"
)

var (
	scoreCreated      int
	scoreCompleted    int
	scoreFocus        int
	scoreDistractions int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute the 0-100 productivity score for a period's counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			m := eng.ScoreMetrics(hibiki.ProductivityMetric{
				TasksCreated:      scoreCreated,
				TasksCompleted:    scoreCompleted,
				FocusTimeMinutes:  scoreFocus,
				DistractionEvents: scoreDistractions,
			})
			fmt.Printf("Productivity score: %d/100\n", m.ProductivityScore)
			fmt.Printf("  tasks:        %d completed of %d created\n", m.TasksCompleted, m.TasksCreated)
			fmt.Printf("  focus:        %d minutes\n", m.FocusTimeMinutes)
			fmt.Printf("  distractions: %d\n", m.DistractionEvents)
			return nil
		})
	},
}

func init() {
	scoreCmd.Flags().IntVar(&scoreCreated, "created", 0, "tasks created in the period")
	scoreCmd.Flags().IntVar(&scoreCompleted, "completed", 0, "tasks completed in the period")
	scoreCmd.Flags().IntVar(&scoreFocus, "focus", 0, "focus time in minutes")
	scoreCmd.Flags().IntVar(&scoreDistractions, "distractions", 0, "distraction events")
}
