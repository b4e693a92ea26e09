package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hibiki-app/hibiki"
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Schedule and manage time blocks",
}

var (
	schedulePillar string
	scheduleTitle  string
	scheduleStart  string
	scheduleEnd    string
	scheduleEnergy string
)

var blockScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule a new time block",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := time.Parse(time.RFC3339, scheduleStart)
		if err != nil {
			return fmt.Errorf("invalid --start %q, want RFC3339 (e.g. 2026-08-25T09:00:00Z)", scheduleStart)
		}
		end, err := time.Parse(time.RFC3339, scheduleEnd)
		if err != nil {
			return fmt.Errorf("invalid --end %q, want RFC3339", scheduleEnd)
		}
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			block, err := eng.ScheduleBlock(ctx, hibiki.ScheduleRequest{
				PillarID: schedulePillar,
				Title:    scheduleTitle,
				Start:    start,
				End:      end,
				Energy:   hibiki.EnergyLevel(scheduleEnergy),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Scheduled %s (%s, %s energy) %s — %s\n",
				block.ID, block.Title, block.EnergyRequired,
				block.StartTime.Format(time.RFC3339), block.EndTime.Format(time.RFC3339))
			return nil
		})
	},
}

var blockStartCmd = &cobra.Command{
	Use:   "start <block-id>",
	Short: "Start a planned block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid block id %q", args[0])
		}
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			block, err := eng.StartBlock(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("Started %s (%s)\n", block.ID, block.Title)
			return nil
		})
	},
}

var completeNotes string

var blockCompleteCmd = &cobra.Command{
	Use:   "complete <block-id>",
	Short: "Complete a planned or active block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid block id %q", args[0])
		}
		var notes *string
		if completeNotes != "" {
			notes = &completeNotes
		}
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			block, err := eng.CompleteBlock(ctx, id, notes)
			if err != nil {
				return err
			}
			fmt.Printf("Completed %s (%s)\n", block.ID, block.Title)
			return nil
		})
	},
}

var blockMissCmd = &cobra.Command{
	Use:   "miss <block-id>",
	Short: "Mark a planned or active block as missed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid block id %q", args[0])
		}
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			block, err := eng.MarkBlockMissed(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("Marked %s (%s) as missed\n", block.ID, block.Title)
			return nil
		})
	},
}

var listDate string

var blockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the blocks for one day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate(listDate)
		if err != nil {
			return err
		}
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			blocks := eng.DailyBlocks(date)
			if len(blocks) == 0 {
				fmt.Printf("No blocks on %s.\n", date.Format("2006-01-02"))
				return nil
			}
			for _, b := range blocks {
				fmt.Printf("%s  %s — %s  [%-9s]  %-6s  %s (%s)\n",
					b.ID,
					b.StartTime.Format("15:04"), b.EndTime.Format("15:04"),
					b.Status, b.EnergyRequired, b.Title, b.PillarID)
			}
			return nil
		})
	},
}

func init() {
	blockScheduleCmd.Flags().StringVar(&schedulePillar, "pillar", "", "pillar ID (required)")
	blockScheduleCmd.Flags().StringVar(&scheduleTitle, "title", "", "block title (required)")
	blockScheduleCmd.Flags().StringVar(&scheduleStart, "start", "", "start time, RFC3339 (required)")
	blockScheduleCmd.Flags().StringVar(&scheduleEnd, "end", "", "end time, RFC3339 (required)")
	blockScheduleCmd.Flags().StringVar(&scheduleEnergy, "energy", "medium", "required energy: low, medium, or high")
	_ = blockScheduleCmd.MarkFlagRequired("pillar")
	_ = blockScheduleCmd.MarkFlagRequired("title")
	_ = blockScheduleCmd.MarkFlagRequired("start")
	_ = blockScheduleCmd.MarkFlagRequired("end")

	blockCompleteCmd.Flags().StringVar(&completeNotes, "notes", "", "completion notes")
	blockListCmd.Flags().StringVar(&listDate, "date", "", "day to list (YYYY-MM-DD, default today)")

	blockCmd.AddCommand(blockScheduleCmd)
	blockCmd.AddCommand(blockStartCmd)
	blockCmd.AddCommand(blockCompleteCmd)
	blockCmd.AddCommand(blockMissCmd)
	blockCmd.AddCommand(blockListCmd)
}
