package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfontaine/splitflow/internal/model"
	"github.com/mfontaine/splitflow/internal/testutil"
)

func TestSaveHouseholdMember_Upsert(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	member := &model.HouseholdMember{ID: "alice", Name: "Alice", IsActive: true, JoinedAt: baseDate}
	require.NoError(t, store.SaveHouseholdMember(ctx, member))

	// Deactivating is an update, not a second row.
	member.IsActive = false
	require.NoError(t, store.SaveHouseholdMember(ctx, member))

	members, err := store.GetHouseholdMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].ID)
	assert.False(t, members[0].IsActive)
}

func TestGetHouseholdMembers_IncludesInactive(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.SaveHouseholdMember(ctx,
		&model.HouseholdMember{ID: "alice", Name: "Alice", IsActive: true, JoinedAt: baseDate.AddDate(0, 0, -2)}))
	require.NoError(t, store.SaveHouseholdMember(ctx,
		&model.HouseholdMember{ID: "bob", Name: "Bob", IsActive: false, JoinedAt: baseDate.AddDate(0, 0, -1)}))

	members, err := store.GetHouseholdMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].ID) // joined first
	assert.Equal(t, "bob", members[1].ID)
}

func TestSaveSplitRecord_RoundTripWithShares(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	record := &model.SplitRecord{
		ID:           "s1",
		Date:         baseDate.AddDate(0, 0, -3),
		MerchantName: "Whole Foods",
		Category:     "Groceries",
		TotalAmount:  90,
		Shares: []model.SplitShare{
			{UserID: "alice", Ratio: 0.6},
			{UserID: "bob", Ratio: 0.4},
		},
	}
	require.NoError(t, store.SaveSplitRecord(ctx, record))

	records, err := store.GetSplitRecords(ctx, baseDate.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, "Whole Foods", got.MerchantName)
	assert.InDelta(t, 90.0, got.TotalAmount, 1e-9)
	require.Len(t, got.Shares, 2)
	assert.Equal(t, "alice", got.Shares[0].UserID)
	assert.InDelta(t, 0.6, got.Shares[0].Ratio, 1e-9)
}

func TestSaveSplitRecord_ReplacesShares(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	record := &model.SplitRecord{
		ID:          "s1",
		Date:        baseDate.AddDate(0, 0, -3),
		TotalAmount: 60,
		Shares: []model.SplitShare{
			{UserID: "alice", Ratio: 0.5},
			{UserID: "bob", Ratio: 0.5},
		},
	}
	require.NoError(t, store.SaveSplitRecord(ctx, record))

	// Correcting a split rewrites the share set wholesale.
	record.Shares = []model.SplitShare{{UserID: "alice", Ratio: 1.0}}
	require.NoError(t, store.SaveSplitRecord(ctx, record))

	records, err := store.GetSplitRecords(ctx, baseDate.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Shares, 1)
	assert.Equal(t, "alice", records[0].Shares[0].UserID)
	assert.InDelta(t, 1.0, records[0].Shares[0].Ratio, 1e-9)
}

func TestGetSplitRecords_WindowExcludesOldRecords(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	recent := &model.SplitRecord{ID: "recent", Date: baseDate.AddDate(0, 0, -5), TotalAmount: 50,
		Shares: []model.SplitShare{{UserID: "alice", Ratio: 1}}}
	old := &model.SplitRecord{ID: "old", Date: baseDate.AddDate(0, 0, -45), TotalAmount: 70,
		Shares: []model.SplitShare{{UserID: "alice", Ratio: 1}}}
	require.NoError(t, store.SaveSplitRecord(ctx, recent))
	require.NoError(t, store.SaveSplitRecord(ctx, old))

	records, err := store.GetSplitRecords(ctx, baseDate.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "recent", records[0].ID)
}
