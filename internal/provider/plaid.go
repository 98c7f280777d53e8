// Package provider fetches transactions from upstream data providers and
// guards every call with the health tracker's circuit breaker.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"

	"github.com/mfontaine/splitflow/internal/common"
	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/service"
)

// PlaidConfig holds Plaid API configuration.
type PlaidConfig struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
}

// Validate ensures all required fields are present.
func (c *PlaidConfig) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: plaid access token is required", common.ErrMissingConfig)
	}
	switch c.Environment {
	case "sandbox", "production":
		return nil
	default:
		return fmt.Errorf("%w: plaid environment must be sandbox or production", common.ErrInvalidConfig)
	}
}

// PlaidClient implements service.TransactionFetcher against the Plaid API.
type PlaidClient struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	accessToken string
}

// NewPlaidClient creates a new Plaid client with the given configuration.
func NewPlaidClient(cfg PlaidConfig) (*PlaidClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return &PlaidClient{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		logger:      slog.Default().With("component", "plaid"),
	}, nil
}

// GetTransactions fetches transactions from Plaid within the date range,
// following pagination until exhausted.
func (c *PlaidClient) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	c.logger.Info("Fetching transactions from Plaid",
		"start_date", startDate.Format("2006-01-02"),
		"end_date", endDate.Format("2006-01-02"))

	var all []plaid.Transaction
	offset := int32(0)
	const pageSize = int32(500) // Plaid's max page size

	for {
		request := plaid.NewTransactionsGetRequest(
			c.accessToken,
			startDate.Format("2006-01-02"),
			endDate.Format("2006-01-02"),
		)
		options := plaid.TransactionsGetRequestOptions{
			Count:  plaid.PtrInt32(pageSize),
			Offset: plaid.PtrInt32(offset),
		}
		request.SetOptions(options)

		resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
		if err != nil {
			if plaidErr := extractPlaidError(err); plaidErr != nil {
				if plaidErr.ErrorCode == "RATE_LIMIT_EXCEEDED" {
					return nil, fmt.Errorf("%w: %s", common.ErrProviderRateLimit, plaidErr.ErrorMessage)
				}
				return nil, fmt.Errorf("%w: %s - %s", common.ErrProviderConnection,
					plaidErr.ErrorCode, plaidErr.ErrorMessage)
			}
			return nil, fmt.Errorf("failed to fetch transactions: %w", err)
		}

		page := resp.GetTransactions()
		all = append(all, page...)

		c.logger.Debug("Fetched transaction batch",
			"count", len(page),
			"offset", offset,
			"total", resp.GetTotalTransactions())

		if len(page) < int(pageSize) {
			break
		}
		offset += pageSize
	}

	transactions := make([]model.Transaction, 0, len(all))
	for _, pt := range all {
		transactions = append(transactions, c.mapPlaidTransaction(pt))
	}
	return transactions, nil
}

// mapPlaidTransaction converts a Plaid transaction to the internal model.
// Plaid reports debits as positive amounts; internally expenses are
// negative, so the sign flips.
func (c *PlaidClient) mapPlaidTransaction(pt plaid.Transaction) model.Transaction {
	date, err := time.Parse("2006-01-02", pt.GetDate())
	if err != nil {
		c.logger.Error("Failed to parse transaction date", "date", pt.GetDate(), "error", err)
		date = time.Now()
	}

	merchantName := pt.GetMerchantName()
	if merchantName == "" {
		merchantName = pt.GetName()
	}

	tx := model.Transaction{
		Date:         date,
		ID:           pt.GetTransactionId(),
		Name:         pt.GetName(),
		MerchantName: cleanMerchantName(merchantName),
		AccountID:    pt.GetAccountId(),
		Amount:       -pt.GetAmount(),
	}
	tx.Hash = tx.GenerateHash()
	return tx
}

// cleanMerchantName standardizes merchant names: collapsed whitespace,
// title case, common corporate suffixes stripped.
func cleanMerchantName(name string) string {
	words := strings.Fields(strings.ToLower(name))
	cleaned := make([]string, 0, len(words))
	for _, word := range words {
		switch word {
		case "inc", "inc.", "llc", "llc.", "ltd", "ltd.", "corp", "corp.":
			continue
		}
		cleaned = append(cleaned, strings.ToUpper(word[:1])+word[1:])
	}
	return strings.Join(cleaned, " ")
}

func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// compile-time interface check
var _ service.TransactionFetcher = (*PlaidClient)(nil)
