package store

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
)

// seedQueryFixtures loads a small mixed ledger with known timestamps
// and tags.
func seedQueryFixtures(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	oc1 := testOnchain("oc-1") // sent, ts 1000
	oc1.Timestamp = 1000
	oc1.Address = "bc1qalpha"
	mustInsertOnchain(t, s, oc1)

	oc2 := testOnchain("oc-2") // received, ts 3000
	oc2.TxType = activity.PaymentReceived
	oc2.Timestamp = 3000
	oc2.Address = "bc1qbravo"
	mustInsertOnchain(t, s, oc2)

	ln1 := testLightning("ln-1") // received, ts 2000
	ln1.Timestamp = 2000
	ln1.Invoice = "lnbc-alpha"
	ln1.Message = "coffee money"
	mustInsertLightning(t, s, ln1)

	ln2 := testLightning("ln-2") // sent, ts 4000
	ln2.TxType = activity.PaymentSent
	ln2.Timestamp = 4000
	ln2.Invoice = "lnbc-bravo"
	mustInsertLightning(t, s, ln2)

	require.NoError(t, s.AddTags(ctx, "oc-1", []string{"coffee"}))
	require.NoError(t, s.AddTags(ctx, "ln-1", []string{"coffee", "friends"}))
	require.NoError(t, s.AddTags(ctx, "ln-2", []string{"rent"}))
}

func activityIDs(activities []activity.Activity) []string {
	ids := make([]string, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.ID())
	}
	return ids
}

func TestActivities_DefaultNewestFirst(t *testing.T) {
	s := newTestStore(t)
	seedQueryFixtures(t, s)

	got, err := s.Activities(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ln-2", "oc-2", "ln-1", "oc-1"}, activityIDs(got))
}

func TestActivities_Ascending(t *testing.T) {
	s := newTestStore(t)
	seedQueryFixtures(t, s)

	got, err := s.Activities(context.Background(), Query{Sort: activity.SortAscending})
	require.NoError(t, err)
	assert.Equal(t, []string{"oc-1", "ln-1", "oc-2", "ln-2"}, activityIDs(got))
}

func TestActivities_FilterVariant(t *testing.T) {
	s := newTestStore(t)
	seedQueryFixtures(t, s)
	ctx := context.Background()

	onchain, err := s.Activities(ctx, Query{Filter: activity.FilterOnchain})
	require.NoError(t, err)
	assert.Equal(t, []string{"oc-2", "oc-1"}, activityIDs(onchain))

	lightning, err := s.Activities(ctx, Query{Filter: activity.FilterLightning})
	require.NoError(t, err)
	assert.Equal(t, []string{"ln-2", "ln-1"}, activityIDs(lightning))
}

func TestActivities_FilterPaymentType(t *testing.T) {
	s := newTestStore(t)
	seedQueryFixtures(t, s)

	sent := activity.PaymentSent
	got, err := s.Activities(context.Background(), Query{PaymentType: &sent})
	require.NoError(t, err)
	assert.Equal(t, []string{"ln-2", "oc-1"}, activityIDs(got))
}

func TestActivities_FilterTags(t *testing.T) {
	s := newTestStore(t)
	seedQueryFixtures(t, s)
	ctx := context.Background()

	got, err := s.Activities(ctx, Query{Tags: []string{"coffee"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ln-1", "oc-1"}, activityIDs(got))

	// Multiple tags are an OR; an activity carrying both appears once.
	got, err = s.Activities(ctx, Query{Tags: []string{"coffee", "friends"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ln-1", "oc-1"}, activityIDs(got))
}

func TestActivities_Search(t *testing.T) {
	s := newTestStore(t)
	seedQueryFixtures(t, s)
	ctx := context.Background()

	// Matches address, invoice, or message.
	got, err := s.Activities(ctx, Query{Search: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ln-1", "oc-1"}, activityIDs(got))

	got, err = s.Activities(ctx, Query{Search: "coffee money"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ln-1"}, activityIDs(got))
}

func TestActivities_SearchWildcardsAreLiteral(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	discount := testLightning("ln-discount")
	discount.Invoice = "lnbc-discount"
	discount.Message = "100% refund"
	mustInsertLightning(t, s, discount)

	other := testLightning("ln-other")
	other.Invoice = "lnbc-other"
	other.Message = "100x refund"
	mustInsertLightning(t, s, other)

	// % and _ match themselves, not any character.
	got, err := s.Activities(ctx, Query{Search: "100%"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ln-discount"}, activityIDs(got))

	got, err = s.Activities(ctx, Query{Search: "100_"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestActivities_DateWindow(t *testing.T) {
	s := newTestStore(t)
	seedQueryFixtures(t, s)
	ctx := context.Background()

	// Bounds are inclusive.
	got, err := s.Activities(ctx, Query{MinDate: u64Ptr(2000), MaxDate: u64Ptr(3000)})
	require.NoError(t, err)
	assert.Equal(t, []string{"oc-2", "ln-1"}, activityIDs(got))

	// An inverted window matches nothing; not an error.
	got, err = s.Activities(ctx, Query{MinDate: u64Ptr(3000), MaxDate: u64Ptr(2000)})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestActivities_Limit(t *testing.T) {
	s := newTestStore(t)
	seedQueryFixtures(t, s)
	ctx := context.Background()

	limit := int64(2)
	got, err := s.Activities(ctx, Query{Limit: &limit})
	require.NoError(t, err)
	assert.Equal(t, []string{"ln-2", "oc-2"}, activityIDs(got))

	// Limit zero is an explicit "none", distinct from absent.
	zero := int64(0)
	got, err = s.Activities(ctx, Query{Limit: &zero})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestActivities_CombinedFilters(t *testing.T) {
	s := newTestStore(t)
	seedQueryFixtures(t, s)

	received := activity.PaymentReceived
	got, err := s.Activities(context.Background(), Query{
		Filter:      activity.FilterLightning,
		PaymentType: &received,
		Tags:        []string{"coffee", "rent"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ln-1"}, activityIDs(got))
}

func TestActivities_EmptyLedger(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Activities(context.Background(), Query{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestActivitiesByTag(t *testing.T) {
	s := newTestStore(t)
	seedQueryFixtures(t, s)

	limit := int64(1)
	got, err := s.ActivitiesByTag(context.Background(), "coffee", &limit, activity.SortAscending)
	require.NoError(t, err)
	assert.Equal(t, []string{"oc-1"}, activityIDs(got))
}

func TestQueryBuild_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	sent := activity.PaymentSent
	limit := int64(10)

	cases := []struct {
		name string
		q    Query
	}{
		{name: "query_default", q: Query{}},
		{name: "query_full", q: Query{
			Filter:      activity.FilterOnchain,
			PaymentType: &sent,
			Tags:        []string{"coffee", "lunch"},
			Search:      "bc1",
			MinDate:     u64Ptr(1700000000),
			MaxDate:     u64Ptr(1800000000),
			Limit:       &limit,
			Sort:        activity.SortAscending,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sqlText, args := tc.q.build()

			var buf bytes.Buffer
			buf.WriteString(sqlText)
			buf.WriteString("\n-- args --\n")
			for _, arg := range args {
				fmt.Fprintf(&buf, "%v\n", arg)
			}
			g.Assert(t, tc.name, buf.Bytes())
		})
	}
}
