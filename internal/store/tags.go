package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
)

// AddTags attaches labels to an existing activity. The activity must
// exist (KindData error otherwise); duplicate tags for the same activity
// are silent no-ops.
func (s *Store) AddTags(ctx context.Context, activityID string, tags []string) error {
	exists, err := s.activityExists(ctx, activityID)
	if err != nil {
		return err
	}
	if !exists {
		return activity.NewError(activity.KindData,
			fmt.Sprintf("activity %s does not exist", activityID), nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.NewError(activity.KindData, "add tags: begin tx", err)
	}
	defer tx.Rollback()

	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO activity_tags (activity_id, tag) VALUES (?, ?)`,
			activityID, tag,
		); err != nil {
			return activity.NewError(activity.KindData, "insert tag", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return activity.NewError(activity.KindData, "add tags: commit", err)
	}
	return nil
}

// RemoveTags detaches labels from an activity. Removing a tag that is
// not present is a no-op.
func (s *Store) RemoveTags(ctx context.Context, activityID string, tags []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.NewError(activity.KindData, "remove tags: begin tx", err)
	}
	defer tx.Rollback()

	for _, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM activity_tags WHERE activity_id = ? AND tag = ?`,
			activityID, tag,
		); err != nil {
			return activity.NewError(activity.KindData, "remove tag", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return activity.NewError(activity.KindData, "remove tags: commit", err)
	}
	return nil
}

// Tags returns the labels attached to an activity. Both an untagged
// activity and a missing activity yield an empty list - the latter is a
// deliberate asymmetry with AddTags, which errors instead.
func (s *Store) Tags(ctx context.Context, activityID string) ([]string, error) {
	exists, err := s.activityExists(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []string{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT tag FROM activity_tags WHERE activity_id = ? ORDER BY tag ASC`, activityID)
	if err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "query tags", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, activity.NewError(activity.KindData, "decode tag row", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "iterate tags", err)
	}
	return tags, nil
}

// AllUniqueTags returns the distinct tags across the whole ledger,
// sorted lexicographically.
func (s *Store) AllUniqueTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT tag FROM activity_tags ORDER BY tag ASC`)
	if err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "query unique tags", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, activity.NewError(activity.KindData, "decode tag row", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "iterate tags", err)
	}
	return tags, nil
}

// AllActivityTags returns every (activity, tags) pairing, grouped and
// sorted by activity id. Backup path.
func (s *Store) AllActivityTags(ctx context.Context) ([]activity.ActivityTags, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT activity_id, tag FROM activity_tags ORDER BY activity_id, tag`)
	if err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "query activity tags", err)
	}
	defer rows.Close()

	grouped := map[string][]string{}
	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, activity.NewError(activity.KindData, "decode tag row", err)
		}
		grouped[id] = append(grouped[id], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "iterate tags", err)
	}

	result := make([]activity.ActivityTags, 0, len(grouped))
	for id, tags := range grouped {
		result = append(result, activity.ActivityTags{ActivityID: id, Tags: tags})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ActivityID < result[j].ActivityID })
	return result, nil
}

// UpsertTags bulk-adds tags for multiple activities in one transaction.
// Adds are idempotent and never replace or clear existing tags. An empty
// activity id anywhere aborts the whole batch; empty individual tag
// strings are silently skipped.
func (s *Store) UpsertTags(ctx context.Context, batch []activity.ActivityTags) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.NewError(activity.KindData, "upsert tags: begin tx", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO activity_tags (activity_id, tag) VALUES (?, ?)`)
	if err != nil {
		return activity.NewError(activity.KindData, "prepare tag statement", err)
	}
	defer stmt.Close()

	for _, at := range batch {
		if at.ActivityID == "" {
			return activity.NewError(activity.KindData, "activity id cannot be empty", nil)
		}
		for _, tag := range at.Tags {
			if tag == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, at.ActivityID, tag); err != nil {
				return activity.NewError(activity.KindData, "insert tag", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return activity.NewError(activity.KindData, "upsert tags: commit", err)
	}
	return nil
}

func (s *Store) activityExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM activities WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, activity.NewError(activity.KindData, "check activity existence", err)
	}
	return true, nil
}
