package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
)

func testClosedChannel(id string, closedAt uint64) activity.ClosedChannelDetails {
	return activity.ClosedChannelDetails{
		ChannelID:                           id,
		CounterpartyNodeID:                  "node-" + id,
		FundingTxoTxID:                      "funding-" + id,
		FundingTxoIndex:                     1,
		ChannelValueSats:                    500000,
		ClosedAt:                            closedAt,
		OutboundCapacityMsat:                200000000,
		InboundCapacityMsat:                 250000000,
		ForwardingFeeProportionalMillionths: 1000,
		ForwardingFeeBaseMsat:               1,
		ChannelName:                         "Channel " + id,
		ChannelClosureReason:                "cooperative close",
	}
}

func TestUpsertClosedChannel_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testClosedChannel("chan-1", 1700001000)
	require.NoError(t, s.UpsertClosedChannel(ctx, &c))

	got, err := s.ClosedChannelByID(ctx, "chan-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c, *got)

	// Replace in full under the same key.
	c.ChannelClosureReason = "force close"
	require.NoError(t, s.UpsertClosedChannel(ctx, &c))

	got, err = s.ClosedChannelByID(ctx, "chan-1")
	require.NoError(t, err)
	assert.Equal(t, "force close", got.ChannelClosureReason)
}

func TestUpsertClosedChannel_EmptyID(t *testing.T) {
	s := newTestStore(t)

	c := testClosedChannel("", 1700001000)
	err := s.UpsertClosedChannel(context.Background(), &c)
	require.Error(t, err)
	assert.Equal(t, activity.KindData, activity.ErrorKind(err))
}

func TestClosedChannelByID_Missing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.ClosedChannelByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAllClosedChannels_Ordering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := []activity.ClosedChannelDetails{
		testClosedChannel("chan-1", 1000),
		testClosedChannel("chan-2", 3000),
		testClosedChannel("chan-3", 2000),
	}
	require.NoError(t, s.UpsertClosedChannels(ctx, batch))

	newest, err := s.AllClosedChannels(ctx, activity.SortDescending)
	require.NoError(t, err)
	require.Len(t, newest, 3)
	assert.Equal(t, "chan-2", newest[0].ChannelID)
	assert.Equal(t, "chan-3", newest[1].ChannelID)
	assert.Equal(t, "chan-1", newest[2].ChannelID)

	oldest, err := s.AllClosedChannels(ctx, activity.SortAscending)
	require.NoError(t, err)
	assert.Equal(t, "chan-1", oldest[0].ChannelID)
}

func TestUpsertClosedChannels_EmptyIDAbortsBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := []activity.ClosedChannelDetails{
		testClosedChannel("chan-1", 1000),
		testClosedChannel("", 2000),
	}
	require.Error(t, s.UpsertClosedChannels(ctx, batch))

	all, err := s.AllClosedChannels(ctx, activity.SortDescending)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRemoveClosedChannelByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testClosedChannel("chan-1", 1000)
	require.NoError(t, s.UpsertClosedChannel(ctx, &c))

	removed, err := s.RemoveClosedChannelByID(ctx, "chan-1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.RemoveClosedChannelByID(ctx, "chan-1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestWipeClosedChannels(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertClosedChannels(ctx, []activity.ClosedChannelDetails{
		testClosedChannel("chan-1", 1000),
		testClosedChannel("chan-2", 2000),
	}))
	require.NoError(t, s.WipeClosedChannels(ctx))

	all, err := s.AllClosedChannels(ctx, activity.SortDescending)
	require.NoError(t, err)
	assert.Empty(t, all)
}
