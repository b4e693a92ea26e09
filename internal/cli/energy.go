package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hibiki-app/hibiki"
)

var energyCmd = &cobra.Command{
	Use:   "energy",
	Short: "Record and inspect the learned energy profile",
}

var energyRecordCmd = &cobra.Command{
	Use:   "record <hour> <day> <level>",
	Short: "Record an energy sample (hour 0-23, day 0-6 with Sunday=0, level 0-10)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		hour, day, level, err := parseSampleArgs(args)
		if err != nil {
			return err
		}
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			if err := eng.RecordEnergySample(ctx, hour, day, level); err != nil {
				return err
			}
			p := eng.EnergyProfileAt(hour, day)
			fmt.Printf("Recorded level %d for %s %02d:00 — average now %.2f over %d samples\n",
				level, dayName(day), hour, p.Average, p.SampleSize)
			return nil
		})
	},
}

var energyProfileCmd = &cobra.Command{
	Use:   "profile <hour> <day>",
	Short: "Show the learned profile for one (hour, day) bucket",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hour, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid hour %q", args[0])
		}
		day, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid day %q", args[1])
		}
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			p := eng.EnergyProfileAt(hour, day)
			if p.SampleSize == 0 {
				fmt.Printf("%s %02d:00: no samples yet (neutral average %.1f)\n", dayName(day), hour, p.Average)
				return nil
			}
			fmt.Printf("%s %02d:00: average %.2f over %d samples\n", dayName(day), hour, p.Average, p.SampleSize)
			return nil
		})
	},
}

var peaksTop int

var energyPeaksCmd = &cobra.Command{
	Use:   "peaks",
	Short: "Show the highest-energy sampled windows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, eng *hibiki.Engine) error {
			windows := eng.PeakWindows(peaksTop)
			if len(windows) == 0 {
				fmt.Println("No energy samples recorded yet.")
				return nil
			}
			for i, w := range windows {
				fmt.Printf("%2d. %-9s %02d:00  average %.2f  (%d samples)\n",
					i+1, dayName(w.Day), w.Hour, w.Average, w.SampleSize)
			}
			return nil
		})
	},
}

func parseSampleArgs(args []string) (hour, day, level int, err error) {
	if hour, err = strconv.Atoi(args[0]); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hour %q", args[0])
	}
	if day, err = strconv.Atoi(args[1]); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid day %q", args[1])
	}
	if level, err = strconv.Atoi(args[2]); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid level %q", args[2])
	}
	return hour, day, level, nil
}

func init() {
	energyPeaksCmd.Flags().IntVar(&peaksTop, "top", 5, "number of windows to show")
	energyCmd.AddCommand(energyRecordCmd)
	energyCmd.AddCommand(energyProfileCmd)
	energyCmd.AddCommand(energyPeaksCmd)
}
