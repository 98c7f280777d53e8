package split

import (
	"context"
	"fmt"
	"strings"

	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/strategy"
)

// Input is the evaluation snapshot for one split prediction.
type Input struct {
	Transaction model.Transaction
	Members     []model.HouseholdMember // Active members only
	History     []model.SplitRecord
}

// ratios maps member IDs to un-normalized split ratios. The engine
// renormalizes before converting to currency amounts.
type ratios map[string]float64

// normalizeMerchant lowercases and collapses whitespace in a merchant name.
func normalizeMerchant(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// averageShares averages per-member ratios across the given records,
// restricted to the supplied members. Returns nil when the accumulated
// ratio mass is zero, which callers treat as abstain.
func averageShares(records []model.SplitRecord, members []model.HouseholdMember) ratios {
	ids := make(map[string]struct{}, len(members))
	for _, m := range members {
		ids[m.ID] = struct{}{}
	}

	sums := make(ratios, len(members))
	for _, rec := range records {
		for _, share := range rec.Shares {
			if _, ok := ids[share.UserID]; !ok {
				continue
			}
			sums[share.UserID] += share.Ratio
		}
	}

	total := 0.0
	for _, v := range sums {
		total += v
	}
	if total <= 0 {
		return nil
	}

	avg := make(ratios, len(sums))
	for id, sum := range sums {
		avg[id] = sum / float64(len(records))
	}
	return avg
}

// merchantPatternStrategy splits proportionally to the historical average
// per-member ratio for the same merchant. Requires at least 3 records.
type merchantPatternStrategy struct{}

const (
	merchantPatternMinEvidence = 3
	merchantPatternConfidence  = 0.90
)

func (merchantPatternStrategy) Name() string { return "merchant_pattern" }

func (merchantPatternStrategy) Evaluate(_ context.Context, in Input) (*strategy.Candidate[ratios], error) {
	merchant := normalizeMerchant(in.Transaction.MerchantName)
	if merchant == "" {
		merchant = normalizeMerchant(in.Transaction.Name)
	}
	if merchant == "" {
		return nil, nil
	}

	var records []model.SplitRecord
	for _, rec := range in.History {
		if normalizeMerchant(rec.MerchantName) == merchant {
			records = append(records, rec)
		}
	}
	if len(records) < merchantPatternMinEvidence {
		return nil, nil
	}

	shares := averageShares(records, in.Members)
	if shares == nil {
		return nil, nil
	}

	return &strategy.Candidate[ratios]{
		Payload:    shares,
		Confidence: merchantPatternConfidence,
		Reasoning: fmt.Sprintf("based on %d previous splits at this merchant",
			len(records)),
	}, nil
}

// categoryPatternStrategy splits by the historical average for the
// transaction's category. Requires at least 5 records.
type categoryPatternStrategy struct{}

const (
	categoryPatternMinEvidence = 5
	categoryPatternConfidence  = 0.75
)

func (categoryPatternStrategy) Name() string { return "category_pattern" }

func (categoryPatternStrategy) Evaluate(_ context.Context, in Input) (*strategy.Candidate[ratios], error) {
	category := in.Transaction.Category
	if category == "" {
		return nil, nil
	}

	var records []model.SplitRecord
	for _, rec := range in.History {
		if rec.Category == category {
			records = append(records, rec)
		}
	}
	if len(records) < categoryPatternMinEvidence {
		return nil, nil
	}

	shares := averageShares(records, in.Members)
	if shares == nil {
		return nil, nil
	}

	return &strategy.Candidate[ratios]{
		Payload:    shares,
		Confidence: categoryPatternConfidence,
		Reasoning: fmt.Sprintf("based on %d previous %s splits",
			len(records), category),
	}, nil
}

// householdPatternStrategy splits by the household's overall historical
// average irrespective of merchant or category. Requires at least 10
// records.
type householdPatternStrategy struct{}

const (
	householdPatternMinEvidence = 10
	householdPatternConfidence  = 0.60
)

func (householdPatternStrategy) Name() string { return "household_pattern" }

func (householdPatternStrategy) Evaluate(_ context.Context, in Input) (*strategy.Candidate[ratios], error) {
	if len(in.History) < householdPatternMinEvidence {
		return nil, nil
	}

	shares := averageShares(in.History, in.Members)
	if shares == nil {
		return nil, nil
	}

	return &strategy.Candidate[ratios]{
		Payload:    shares,
		Confidence: householdPatternConfidence,
		Reasoning: fmt.Sprintf("based on the household's %d previous splits",
			len(in.History)),
	}, nil
}

// equalSplitStrategy is the guaranteed fallback: divide evenly across all
// active members. A household of one has nothing to split, so the payload
// is empty.
type equalSplitStrategy struct{}

const equalSplitConfidence = 0.50

func (equalSplitStrategy) Name() string { return "equal_split" }

func (equalSplitStrategy) Evaluate(_ context.Context, in Input) (*strategy.Candidate[ratios], error) {
	shares := make(ratios, len(in.Members))
	if len(in.Members) > 1 {
		for _, m := range in.Members {
			shares[m.ID] = 1
		}
	}

	return &strategy.Candidate[ratios]{
		Payload:    shares,
		Confidence: equalSplitConfidence,
		Reasoning:  fmt.Sprintf("split evenly across %d household members", len(in.Members)),
	}, nil
}
