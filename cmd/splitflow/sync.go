package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mfontaine/splitflow/internal/cli"
	"github.com/mfontaine/splitflow/internal/clock"
	"github.com/mfontaine/splitflow/internal/common"
	"github.com/mfontaine/splitflow/internal/health"
	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/provider"
	"github.com/mfontaine/splitflow/internal/service"
)

// healthConfig builds circuit breaker thresholds from configuration,
// falling back to the deployment defaults.
func healthConfig() health.Config {
	cfg := health.DefaultConfig()
	if v := viper.GetInt("circuit.failure_threshold"); v > 0 {
		cfg.FailureThreshold = v
	}
	if v := viper.GetInt("circuit.success_threshold"); v > 0 {
		cfg.SuccessThreshold = v
	}
	if v := viper.GetDuration("circuit.timeout"); v > 0 {
		cfg.Timeout = v
	}
	if v := viper.GetDuration("circuit.monitoring_window"); v > 0 {
		cfg.MonitoringWindow = v
	}
	return cfg
}

func syncCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch transactions from the configured provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return err
			}

			plaidClient, err := provider.NewPlaidClient(provider.PlaidConfig{
				ClientID:    viper.GetString("plaid.client_id"),
				Secret:      viper.GetString("plaid.secret"),
				Environment: viper.GetString("plaid.environment"),
				AccessToken: viper.GetString("plaid.access_token"),
			})
			if err != nil {
				return common.NewUserError("provider is not configured", err)
			}

			tracker, err := health.NewTracker(healthConfig(), clock.New())
			if err != nil {
				return err
			}

			key := health.Key{Provider: "plaid", Region: viper.GetString("plaid.environment")}
			fetcher := provider.NewGuardedFetcher(plaidClient, tracker, key)

			end := time.Now()
			start := end.AddDate(0, 0, -days)

			var transactions []model.Transaction
			err = common.WithRetry(ctx, func() error {
				var fetchErr error
				transactions, fetchErr = fetcher.GetTransactions(ctx, start, end)
				return fetchErr
			}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Second})
			if err != nil {
				return fmt.Errorf("sync failed (circuit %s): %w", fetcher.State(), err)
			}

			if err := store.SaveTransactions(ctx, transactions); err != nil {
				return fmt.Errorf("failed to save transactions: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("✓ Synced %d transactions from the last %d days", len(transactions), days)))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "number of days of history to fetch")
	return cmd
}
