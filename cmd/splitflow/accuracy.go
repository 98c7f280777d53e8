package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mfontaine/splitflow/internal/accuracy"
	"github.com/mfontaine/splitflow/internal/cli"
	"github.com/mfontaine/splitflow/internal/clock"
	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/service"
)

func accuracyCmd() *cobra.Command {
	var byStrategy, byUser bool

	cmd := &cobra.Command{
		Use:   "accuracy",
		Short: "Report prediction accuracy against user confirmations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tracker := accuracy.NewTracker(store, clock.New(),
				viper.GetDuration("accuracy.window"))

			switch {
			case byStrategy:
				grouped, err := tracker.ByStrategy(ctx, model.PredictionKindCategory)
				if err != nil {
					return err
				}
				fmt.Println(cli.TitleStyle.Render("Categorization accuracy by strategy"))
				printGrouped(grouped)

			case byUser:
				grouped, err := tracker.ByUser(ctx)
				if err != nil {
					return err
				}
				fmt.Println(cli.TitleStyle.Render("Split accuracy by household member"))
				printGrouped(grouped)

			default:
				metrics, err := tracker.GetAccuracy(ctx, service.PredictionLogFilter{})
				if err != nil {
					return err
				}
				fmt.Println(cli.TitleStyle.Render("Overall prediction accuracy"))
				printMetrics("all predictions", *metrics)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&byStrategy, "by-strategy", false, "group categorization accuracy by strategy")
	cmd.Flags().BoolVar(&byUser, "by-user", false, "group split accuracy by household member")
	return cmd
}

func printGrouped(grouped map[string]model.AccuracyMetrics) {
	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No confirmed predictions in the window."))
		return
	}
	for _, name := range names {
		printMetrics(name, grouped[name])
	}
}

func printMetrics(label string, m model.AccuracyMetrics) {
	line := fmt.Sprintf("  %-20s %3d/%3d correct (%.1f%%)",
		label, m.CorrectPredictions, m.TotalPredictions, m.AccuracyRate*100)
	if m.TotalPredictions == 0 {
		fmt.Println(cli.SubtleStyle.Render(line))
		return
	}
	fmt.Println(line)
}
