package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
)

func TestInsertOnchain_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testOnchain("oc-1")
	a.IsBoosted = true
	a.BoostTxIDs = []string{"boost-1", "boost-2"}
	a.ConfirmTimestamp = u64Ptr(1700000500)
	a.ChannelID = strPtr("chan-42")
	mustInsertOnchain(t, s, a)

	got, err := s.ActivityByID(ctx, "oc-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Onchain)
	assert.Nil(t, got.Lightning)

	oc := got.Onchain
	assert.Equal(t, "oc-1", oc.ID)
	assert.Equal(t, activity.PaymentSent, oc.TxType)
	assert.Equal(t, "tx-oc-1", oc.TxID)
	assert.Equal(t, uint64(100000), oc.Value)
	assert.Equal(t, uint64(500), oc.Fee)
	assert.Equal(t, uint64(8), oc.FeeRate)
	assert.True(t, oc.IsBoosted)
	assert.Equal(t, []string{"boost-1", "boost-2"}, oc.BoostTxIDs)
	require.NotNil(t, oc.ConfirmTimestamp)
	assert.Equal(t, uint64(1700000500), *oc.ConfirmTimestamp)
	require.NotNil(t, oc.ChannelID)
	assert.Equal(t, "chan-42", *oc.ChannelID)

	// Column defaults stamp both bookkeeping fields on insert.
	require.NotNil(t, oc.CreatedAt)
	require.NotNil(t, oc.UpdatedAt)
}

func TestInsertOnchain_EmptyID(t *testing.T) {
	s := newTestStore(t)

	err := s.InsertOnchain(context.Background(), testOnchain(""))
	require.Error(t, err)
	assert.Equal(t, activity.KindData, activity.ErrorKind(err))
}

func TestInsertOnchain_DuplicateID(t *testing.T) {
	s := newTestStore(t)

	mustInsertOnchain(t, s, testOnchain("oc-1"))
	err := s.InsertOnchain(context.Background(), testOnchain("oc-1"))
	require.Error(t, err)
	assert.Equal(t, activity.KindInsert, activity.ErrorKind(err))
}

func TestInsertLightning_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testLightning("ln-1")
	a.Fee = u64Ptr(12)
	a.Message = "split the bill"
	a.Preimage = strPtr("deadbeef")
	mustInsertLightning(t, s, a)

	got, err := s.ActivityByID(ctx, "ln-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Lightning)
	assert.Nil(t, got.Onchain)

	ln := got.Lightning
	assert.Equal(t, activity.PaymentReceived, ln.TxType)
	assert.Equal(t, activity.StateSucceeded, ln.Status)
	assert.Equal(t, uint64(25000), ln.Value)
	require.NotNil(t, ln.Fee)
	assert.Equal(t, uint64(12), *ln.Fee)
	assert.Equal(t, "split the bill", ln.Message)
	require.NotNil(t, ln.Preimage)
	assert.Equal(t, "deadbeef", *ln.Preimage)
}

func TestInsertOnchain_ConfirmBeforeTimestampRejected(t *testing.T) {
	s := newTestStore(t)

	a := testOnchain("oc-1")
	a.Timestamp = 1000
	a.ConfirmTimestamp = u64Ptr(900)
	err := s.InsertOnchain(context.Background(), a)
	require.Error(t, err)
	assert.Equal(t, activity.KindInsert, activity.ErrorKind(err))

	// The identity row must not survive the aborted child insert.
	got, err := s.ActivityByID(context.Background(), "oc-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Equal or later confirmation is fine.
	b := testOnchain("oc-2")
	b.Timestamp = 1000
	b.ConfirmTimestamp = u64Ptr(1100)
	mustInsertOnchain(t, s, b)
}

func TestUpdateOnchain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testOnchain("oc-1")
	mustInsertOnchain(t, s, a)

	a.Confirmed = true
	a.ConfirmTimestamp = u64Ptr(1700000900)
	a.Fee = 750
	require.NoError(t, s.UpdateOnchain(ctx, "oc-1", a))

	got, err := s.ActivityByID(ctx, "oc-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Onchain.Confirmed)
	assert.Equal(t, uint64(750), got.Onchain.Fee)
	require.NotNil(t, got.Onchain.ConfirmTimestamp)
	assert.Equal(t, uint64(1700000900), *got.Onchain.ConfirmTimestamp)
}

func TestUpdateOnchain_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateOnchain(context.Background(), "missing", testOnchain("missing"))
	require.Error(t, err)
	assert.True(t, activity.IsNotFound(err))
	assert.Equal(t, activity.KindData, activity.ErrorKind(err))
}

func TestUpdateLightning_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateLightning(context.Background(), "missing", testLightning("missing"))
	require.Error(t, err)
	assert.True(t, activity.IsNotFound(err))
}

func TestUpdate_WrongVariantNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsertOnchain(t, s, testOnchain("oc-1"))

	// An onchain id is invisible to the lightning update path.
	err := s.UpdateLightning(ctx, "oc-1", testLightning("oc-1"))
	require.Error(t, err)
	assert.True(t, activity.IsNotFound(err))
}

func TestUpsert_InsertsThenUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testOnchain("oc-1")
	require.NoError(t, s.Upsert(ctx, activity.Activity{Onchain: a}))

	a.Confirmed = true
	require.NoError(t, s.Upsert(ctx, activity.Activity{Onchain: a}))

	got, err := s.ActivityByID(ctx, "oc-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Onchain.Confirmed)

	// Still exactly one row.
	all, err := s.Activities(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsert_NoVariant(t *testing.T) {
	s := newTestStore(t)

	err := s.Upsert(context.Background(), activity.Activity{})
	require.Error(t, err)
	assert.Equal(t, activity.KindData, activity.ErrorKind(err))
}

func TestUpsertOnchainActivities_Batch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := []activity.OnchainActivity{*testOnchain("oc-1"), *testOnchain("oc-2"), *testOnchain("oc-3")}
	require.NoError(t, s.UpsertOnchainActivities(ctx, batch))

	all, err := s.Activities(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpsertOnchainActivities_EmptyIDAbortsBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := []activity.OnchainActivity{*testOnchain("oc-1"), *testOnchain("")}
	err := s.UpsertOnchainActivities(ctx, batch)
	require.Error(t, err)

	// Nothing from the batch landed.
	all, err := s.Activities(ctx, Query{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpsertOnchainActivities_ConflictKeepsTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsertOnchain(t, s, testOnchain("oc-1"))
	require.NoError(t, s.AddTags(ctx, "oc-1", []string{"coffee"}))

	updated := *testOnchain("oc-1")
	updated.Confirmed = true
	require.NoError(t, s.UpsertOnchainActivities(ctx, []activity.OnchainActivity{updated}))

	// The conflict path updates in place, so the tag attachment survives.
	tags, err := s.Tags(ctx, "oc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee"}, tags)

	got, err := s.ActivityByID(ctx, "oc-1")
	require.NoError(t, err)
	assert.True(t, got.Onchain.Confirmed)
}

func TestUpsertLightningActivities_Batch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := []activity.LightningActivity{*testLightning("ln-1"), *testLightning("ln-2")}
	require.NoError(t, s.UpsertLightningActivities(ctx, batch))

	batch[0].Status = activity.StateFailed
	require.NoError(t, s.UpsertLightningActivities(ctx, batch[:1]))

	got, err := s.ActivityByID(ctx, "ln-1")
	require.NoError(t, err)
	assert.Equal(t, activity.StateFailed, got.Lightning.Status)
}

func TestDeleteActivityByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsertOnchain(t, s, testOnchain("oc-1"))
	require.NoError(t, s.AddTags(ctx, "oc-1", []string{"coffee"}))

	deleted, err := s.DeleteActivityByID(ctx, "oc-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := s.ActivityByID(ctx, "oc-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Cascade removed the tag attachment too.
	tags, err := s.AllUniqueTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)

	// Second delete reports absence without error.
	deleted, err = s.DeleteActivityByID(ctx, "oc-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestHasOnchainReceived(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	recv := testOnchain("oc-recv")
	recv.TxType = activity.PaymentReceived
	recv.Address = "bc1qshared"
	mustInsertOnchain(t, s, recv)

	sent := testOnchain("oc-sent")
	sent.Address = "bc1qsent"
	mustInsertOnchain(t, s, sent)

	got, err := s.HasOnchainReceived(ctx, "bc1qshared")
	require.NoError(t, err)
	assert.True(t, got)

	// Sent-side usage of an address does not count.
	got, err = s.HasOnchainReceived(ctx, "bc1qsent")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestHasLightningPaid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	paid := testLightning("ln-paid")
	paid.TxType = activity.PaymentSent
	paid.Status = activity.StateSucceeded
	paid.Invoice = "lnbc-paid"
	mustInsertLightning(t, s, paid)

	pending := testLightning("ln-pending")
	pending.TxType = activity.PaymentSent
	pending.Status = activity.StatePending
	pending.Invoice = "lnbc-pending"
	mustInsertLightning(t, s, pending)

	got, err := s.HasLightningPaid(ctx, "lnbc-paid")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = s.HasLightningPaid(ctx, "lnbc-pending")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestInsert_SetsEqualCreatedAndUpdatedTimestamps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsertOnchain(t, s, testOnchain("oc-ts"))

	got, err := s.ActivityByID(ctx, "oc-ts")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Onchain.CreatedAt)
	require.NotNil(t, got.Onchain.UpdatedAt)
	assert.Equal(t, *got.Onchain.CreatedAt, *got.Onchain.UpdatedAt)
}

func TestUpsert_AdvancesUpdatedAtNotCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testOnchain("oc-ts")
	mustInsertOnchain(t, s, a)

	got, err := s.ActivityByID(ctx, "oc-ts")
	require.NoError(t, err)
	require.NotNil(t, got.Onchain.CreatedAt)
	createdAt := *got.Onchain.CreatedAt

	// Timestamps have second granularity; cross a second boundary so
	// the trigger's advance is observable.
	time.Sleep(1100 * time.Millisecond)

	a.Value = 200000
	require.NoError(t, s.Upsert(ctx, activity.Activity{Onchain: a}))

	got, err = s.ActivityByID(ctx, "oc-ts")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(200000), got.Onchain.Value)
	require.NotNil(t, got.Onchain.CreatedAt)
	require.NotNil(t, got.Onchain.UpdatedAt)
	assert.Equal(t, createdAt, *got.Onchain.CreatedAt)
	assert.Greater(t, *got.Onchain.UpdatedAt, createdAt)
}

func TestUpsertOnchainActivities_ConflictPreservesCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testOnchain("oc-ts")
	mustInsertOnchain(t, s, a)

	got, err := s.ActivityByID(ctx, "oc-ts")
	require.NoError(t, err)
	require.NotNil(t, got.Onchain.CreatedAt)
	createdAt := *got.Onchain.CreatedAt

	time.Sleep(1100 * time.Millisecond)

	a.Fee = 900
	require.NoError(t, s.UpsertOnchainActivities(ctx, []activity.OnchainActivity{*a}))

	got, err = s.ActivityByID(ctx, "oc-ts")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(900), got.Onchain.Fee)
	require.NotNil(t, got.Onchain.CreatedAt)
	require.NotNil(t, got.Onchain.UpdatedAt)
	assert.Equal(t, createdAt, *got.Onchain.CreatedAt)
	assert.Greater(t, *got.Onchain.UpdatedAt, createdAt)
}
