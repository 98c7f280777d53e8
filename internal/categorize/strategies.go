package categorize

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/strategy"
)

// Input is the evaluation snapshot for one prediction: the transaction to
// categorize plus the caller-supplied historical window. Only history rows
// with a confirmed category carry evidence.
type Input struct {
	Transaction model.Transaction
	History     []model.Transaction
}

// NormalizeMerchant produces the canonical merchant identifier used for
// exact matching: lowercased with collapsed whitespace. Falls back to the
// raw description when no cleaned merchant name is available.
func NormalizeMerchant(txn model.Transaction) string {
	name := txn.MerchantName
	if name == "" {
		name = txn.Name
	}
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// categoryTally tracks occurrences and recency for one candidate category.
type categoryTally struct {
	latest time.Time
	count  int
}

// bestCategory picks the most frequent category, breaking ties by most
// recent occurrence, then lexicographically for determinism.
func bestCategory(tallies map[string]*categoryTally) string {
	var best string
	var bestTally *categoryTally
	for category, tally := range tallies {
		switch {
		case bestTally == nil,
			tally.count > bestTally.count,
			tally.count == bestTally.count && tally.latest.After(bestTally.latest),
			tally.count == bestTally.count && tally.latest.Equal(bestTally.latest) && category < best:
			best = category
			bestTally = tally
		}
	}
	return best
}

// exactMerchantStrategy predicts the dominant category among history rows
// sharing the exact normalized merchant identifier and flow direction.
// Confidence grows with repetition: 3 occurrences yield 0.70, each further
// occurrence adds 0.05, capped at 0.95.
type exactMerchantStrategy struct{}

const (
	exactMerchantMinEvidence    = 3
	exactMerchantBaseConfidence = 0.70
	exactMerchantStepConfidence = 0.05
	exactMerchantMaxConfidence  = 0.95
)

func (exactMerchantStrategy) Name() string { return "exact_merchant" }

func (exactMerchantStrategy) Evaluate(_ context.Context, in Input) (*strategy.Candidate[string], error) {
	merchant := NormalizeMerchant(in.Transaction)
	if merchant == "" {
		return nil, nil
	}

	direction := in.Transaction.Direction()
	tallies := make(map[string]*categoryTally)
	matches := 0
	for i := range in.History {
		h := &in.History[i]
		if h.Category == "" || h.Direction() != direction {
			continue
		}
		if NormalizeMerchant(*h) != merchant {
			continue
		}
		matches++
		tally, ok := tallies[h.Category]
		if !ok {
			tally = &categoryTally{}
			tallies[h.Category] = tally
		}
		tally.count++
		if h.Date.After(tally.latest) {
			tally.latest = h.Date
		}
	}

	if matches < exactMerchantMinEvidence {
		return nil, nil
	}

	confidence := exactMerchantBaseConfidence +
		exactMerchantStepConfidence*float64(matches-exactMerchantMinEvidence)
	if confidence > exactMerchantMaxConfidence {
		confidence = exactMerchantMaxConfidence
	}

	category := bestCategory(tallies)
	return &strategy.Candidate[string]{
		Payload:    category,
		Confidence: confidence,
		Reasoning: fmt.Sprintf("%d previous transactions from this merchant were categorized as %s",
			tallies[category].count, category),
	}, nil
}

// fuzzyMerchantStrategy matches by substring containment between the
// transaction's merchant text and a known merchant name, in either
// direction. Fixed confidence 0.70.
type fuzzyMerchantStrategy struct{}

const fuzzyMerchantConfidence = 0.70

func (fuzzyMerchantStrategy) Name() string { return "fuzzy_merchant" }

func (fuzzyMerchantStrategy) Evaluate(_ context.Context, in Input) (*strategy.Candidate[string], error) {
	merchant := NormalizeMerchant(in.Transaction)
	if merchant == "" {
		return nil, nil
	}

	direction := in.Transaction.Direction()

	// Longest matching merchant name wins so the most specific known
	// merchant supplies the category.
	var matched string
	for i := range in.History {
		h := &in.History[i]
		if h.Category == "" || h.Direction() != direction {
			continue
		}
		known := NormalizeMerchant(*h)
		if known == "" {
			continue
		}
		if !strings.Contains(merchant, known) && !strings.Contains(known, merchant) {
			continue
		}
		if len(known) > len(matched) || (len(known) == len(matched) && known < matched) {
			matched = known
		}
	}

	if matched == "" {
		return nil, nil
	}

	tallies := make(map[string]*categoryTally)
	for i := range in.History {
		h := &in.History[i]
		if h.Category == "" || h.Direction() != direction {
			continue
		}
		if NormalizeMerchant(*h) != matched {
			continue
		}
		tally, ok := tallies[h.Category]
		if !ok {
			tally = &categoryTally{}
			tallies[h.Category] = tally
		}
		tally.count++
		if h.Date.After(tally.latest) {
			tally.latest = h.Date
		}
	}

	category := bestCategory(tallies)
	return &strategy.Candidate[string]{
		Payload:    category,
		Confidence: fuzzyMerchantConfidence,
		Reasoning: fmt.Sprintf("merchant resembles %q, usually categorized as %s",
			matched, category),
	}, nil
}

// keywordStrategy predicts from description keyword overlap with
// historical transactions. A history row qualifies when at least 30% of
// the current keyword set appears in its own keyword set; the
// highest-overlap row wins, ties broken by recency. Fixed confidence 0.70.
type keywordStrategy struct{}

const (
	keywordOverlapThreshold = 0.30
	keywordConfidence       = 0.70
)

func (keywordStrategy) Name() string { return "keyword_match" }

func (keywordStrategy) Evaluate(_ context.Context, in Input) (*strategy.Candidate[string], error) {
	current := ExtractKeywords(in.Transaction.Name)
	if len(current) == 0 {
		return nil, nil
	}

	var (
		bestOverlap float64
		bestDate    time.Time
		bestCat     string
	)
	for i := range in.History {
		h := &in.History[i]
		if h.Category == "" {
			continue
		}
		overlap := keywordOverlap(current, ExtractKeywords(h.Name))
		if overlap < keywordOverlapThreshold {
			continue
		}
		if overlap > bestOverlap || (overlap == bestOverlap && h.Date.After(bestDate)) {
			bestOverlap = overlap
			bestDate = h.Date
			bestCat = h.Category
		}
	}

	if bestCat == "" {
		return nil, nil
	}

	return &strategy.Candidate[string]{
		Payload:    bestCat,
		Confidence: keywordConfidence,
		Reasoning: fmt.Sprintf("description keywords %s overlap %.0f%% with past %s transactions",
			strings.Join(current, ", "), bestOverlap*100, bestCat),
	}, nil
}

// amountPatternStrategy predicts a category whose historical amount
// distribution the current amount fits. Categories need at least 5 history
// rows; a zero standard deviation short-circuits to abstain rather than
// producing a degenerate z-score. Fixed confidence 0.50.
type amountPatternStrategy struct{}

const (
	amountPatternMinEvidence = 5
	amountPatternMaxZ        = 1.0
	amountPatternConfidence  = 0.50
)

func (amountPatternStrategy) Name() string { return "amount_pattern" }

func (amountPatternStrategy) Evaluate(_ context.Context, in Input) (*strategy.Candidate[string], error) {
	direction := in.Transaction.Direction()
	amounts := make(map[string][]float64)
	for i := range in.History {
		h := &in.History[i]
		if h.Category == "" || h.Direction() != direction {
			continue
		}
		amounts[h.Category] = append(amounts[h.Category], h.AbsAmount())
	}

	amount := in.Transaction.AbsAmount()
	bestZ := math.Inf(1)
	var best string
	for category, values := range amounts {
		if len(values) < amountPatternMinEvidence {
			continue
		}

		mean := 0.0
		for _, v := range values {
			mean += v
		}
		mean /= float64(len(values))

		variance := 0.0
		for _, v := range values {
			variance += (v - mean) * (v - mean)
		}
		variance /= float64(len(values))

		stddev := math.Sqrt(variance)
		if stddev == 0 {
			continue
		}

		z := math.Abs((amount - mean) / stddev)
		if z >= amountPatternMaxZ {
			continue
		}
		if z < bestZ || (z == bestZ && category < best) {
			bestZ = z
			best = category
		}
	}

	if best == "" {
		return nil, nil
	}

	return &strategy.Candidate[string]{
		Payload:    best,
		Confidence: amountPatternConfidence,
		Reasoning: fmt.Sprintf("amount %.2f is typical for %s (z-score %.2f)",
			amount, best, bestZ),
	}, nil
}
