package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
)

func TestAddTags_AndRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsertOnchain(t, s, testOnchain("oc-1"))

	require.NoError(t, s.AddTags(ctx, "oc-1", []string{"coffee", "friends"}))
	// Re-adding is idempotent.
	require.NoError(t, s.AddTags(ctx, "oc-1", []string{"coffee"}))

	tags, err := s.Tags(ctx, "oc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee", "friends"}, tags)
}

func TestAddTags_MissingActivity(t *testing.T) {
	s := newTestStore(t)

	err := s.AddTags(context.Background(), "missing", []string{"coffee"})
	require.Error(t, err)
	assert.Equal(t, activity.KindData, activity.ErrorKind(err))
}

func TestRemoveTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsertOnchain(t, s, testOnchain("oc-1"))
	require.NoError(t, s.AddTags(ctx, "oc-1", []string{"coffee", "friends"}))

	require.NoError(t, s.RemoveTags(ctx, "oc-1", []string{"coffee", "never-attached"}))

	tags, err := s.Tags(ctx, "oc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"friends"}, tags)

	// Removing from an unknown activity is a no-op, not an error.
	require.NoError(t, s.RemoveTags(ctx, "missing", []string{"coffee"}))
}

func TestTags_MissingActivityIsEmpty(t *testing.T) {
	s := newTestStore(t)

	// Reads don't distinguish "no activity" from "no tags".
	tags, err := s.Tags(context.Background(), "missing")
	require.NoError(t, err)
	require.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestAllUniqueTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsertOnchain(t, s, testOnchain("oc-1"))
	mustInsertLightning(t, s, testLightning("ln-1"))
	require.NoError(t, s.AddTags(ctx, "oc-1", []string{"rent", "coffee"}))
	require.NoError(t, s.AddTags(ctx, "ln-1", []string{"coffee"}))

	tags, err := s.AllUniqueTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee", "rent"}, tags)
}

func TestAllActivityTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsertOnchain(t, s, testOnchain("oc-1"))
	mustInsertLightning(t, s, testLightning("ln-1"))
	require.NoError(t, s.AddTags(ctx, "oc-1", []string{"rent"}))
	require.NoError(t, s.AddTags(ctx, "ln-1", []string{"coffee", "friends"}))

	got, err := s.AllActivityTags(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ln-1", got[0].ActivityID)
	assert.ElementsMatch(t, []string{"coffee", "friends"}, got[0].Tags)
	assert.Equal(t, "oc-1", got[1].ActivityID)
	assert.Equal(t, []string{"rent"}, got[1].Tags)
}

func TestUpsertTags_Batch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsertOnchain(t, s, testOnchain("oc-1"))
	mustInsertLightning(t, s, testLightning("ln-1"))

	batch := []activity.ActivityTags{
		{ActivityID: "oc-1", Tags: []string{"coffee", "", "rent"}},
		{ActivityID: "ln-1", Tags: []string{"coffee"}},
	}
	require.NoError(t, s.UpsertTags(ctx, batch))

	// Empty tag strings are skipped, not stored.
	tags, err := s.Tags(ctx, "oc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"coffee", "rent"}, tags)
}

func TestUpsertTags_EmptyActivityIDAborts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustInsertOnchain(t, s, testOnchain("oc-1"))

	batch := []activity.ActivityTags{
		{ActivityID: "oc-1", Tags: []string{"coffee"}},
		{ActivityID: "", Tags: []string{"rent"}},
	}
	require.Error(t, s.UpsertTags(ctx, batch))

	tags, err := s.Tags(ctx, "oc-1")
	require.NoError(t, err)
	assert.Empty(t, tags)
}
