package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hibiki-app/hibiki"
)

var suggestDate string

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Generate schedule suggestions for a day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate(suggestDate)
		if err != nil {
			return err
		}
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			suggestions := eng.GenerateSuggestions(ctx, date)
			if len(suggestions) == 0 {
				fmt.Println("Nothing to suggest — the schedule looks fine.")
				return nil
			}
			for _, s := range suggestions {
				fmt.Printf("%s  [%-16s %3.0f%%]  %s\n    %s\n",
					s.ID, s.Type, s.Confidence*100, s.Title, s.Description)
			}
			return nil
		})
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss <suggestion-id>",
	Short: "Dismiss a suggestion (suppresses it for the cooldown window)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid suggestion id %q", args[0])
		}
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			eng.DismissSuggestion(ctx, id)
			fmt.Printf("Dismissed %s\n", id)
			return nil
		})
	},
}

func init() {
	suggestCmd.Flags().StringVar(&suggestDate, "date", "", "day to evaluate (YYYY-MM-DD, default today)")
}
