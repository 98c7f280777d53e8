package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfontaine/splitflow/internal/categorize"
	"github.com/mfontaine/splitflow/internal/cli"
	"github.com/mfontaine/splitflow/internal/clock"
	"github.com/mfontaine/splitflow/internal/model"
)

func categorizeCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "categorize <transaction-id>",
		Short: "Predict a category for a transaction",
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

			history, err := store.GetClassifiedTransactions(ctx, lookbackStart())
			if err != nil {
				return err
			}

			engine := categorize.NewEngine(clock.New())

			var result *categorize.Result
			if apply {
				result, err = engine.AutoCategorize(ctx, *txn, history, store)
			} else {
				result, err = engine.Predict(ctx, *txn, history)
			}
			if err != nil {
				return err
			}

			if result == nil {
				fmt.Println(cli.SubtleStyle.Render("No confident prediction; categorize manually."))
				return nil
			}

			// Log the prediction so accuracy can be tracked once the user confirms.
			if _, err := store.SavePredictionLog(ctx, &model.PredictionLog{
				Kind:           model.PredictionKindCategory,
				TransactionID:  txn.ID,
				StrategyName:   result.StrategyName,
				PredictedValue: result.Category,
				Confidence:     result.Confidence,
				PredictedAt:    time.Now(),
			}); err != nil {
				return err
			}

			fmt.Println(cli.TitleStyle.Render(txn.Name))
			fmt.Printf("Predicted category: %s (%.0f%% via %s)\n",
				result.Category, result.Confidence*100, result.StrategyName)
			fmt.Println(cli.SubtleStyle.Render(result.Reasoning))
			if result.AutoApply {
				if apply {
					fmt.Println(cli.SuccessStyle.Render("✓ Category applied automatically"))
				} else {
					fmt.Println(cli.SuccessStyle.Render("Eligible for auto-apply (rerun with --apply)"))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "write the category when confidence allows auto-apply")
	return cmd
}
