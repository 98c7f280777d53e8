package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mfontaine/splitflow/internal/cli"
	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/ofx"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.ofx> [file2.qfx ...]",
		Short: "Import transactions from OFX/QFX files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return err
			}

			parser := ofx.NewParser()
			var all []model.Transaction

			bar := progressbar.NewOptions(len(args),
				progressbar.OptionSetDescription("Parsing files"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish())

			for _, path := range args {
				f, err := os.Open(path) // #nosec G304 -- user-supplied import path
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", path, err)
				}

				transactions, err := parser.ParseFile(ctx, f)
				_ = f.Close()
				if err != nil {
					return fmt.Errorf("failed to parse %s: %w", path, err)
				}

				all = append(all, transactions...)
				_ = bar.Add(1)
			}

			if err := store.SaveTransactions(ctx, all); err != nil {
				return fmt.Errorf("failed to save transactions: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("✓ Imported %d transactions from %d files", len(all), len(args))))
			return nil
		},
	}
}
