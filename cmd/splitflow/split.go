package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfontaine/splitflow/internal/cli"
	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/split"
)

func splitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <transaction-id>",
		Short: "Predict how a shared expense should be divided",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.GetTransactionByID(ctx, args[0])
			if err != nil {
				return err
			}

			members, err := store.GetHouseholdMembers(ctx)
			if err != nil {
				return err
			}

			history, err := store.GetSplitRecords(ctx, lookbackStart())
			if err != nil {
				return err
			}

			engine := split.NewEngine()
			suggestions, err := engine.PredictSplit(ctx, *txn, members, history)
			if err != nil {
				return err
			}

			if len(suggestions) == 0 {
				fmt.Println(cli.SubtleStyle.Render("Nothing to split for this household."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render(
				fmt.Sprintf("%s — %.2f", txn.Name, txn.AbsAmount())))
			for _, s := range suggestions {
				fmt.Printf("  %-12s %8.2f  (%.1f%%)\n",
					s.UserID, s.SuggestedAmount, s.SuggestedPercentage)

				if _, err := store.SavePredictionLog(ctx, &model.PredictionLog{
					Kind:           model.PredictionKindSplit,
					TransactionID:  txn.ID,
					UserID:         s.UserID,
					StrategyName:   s.StrategyName,
					PredictedValue: fmt.Sprintf("%.2f", s.SuggestedAmount),
					Confidence:     s.Confidence,
					PredictedAt:    time.Now(),
				}); err != nil {
					return err
				}
			}
			fmt.Println(cli.SubtleStyle.Render(suggestions[0].Reasoning))
			return nil
		},
	}
}
