package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
)

const upsertMetadataSQL = `
	INSERT OR REPLACE INTO pre_activity_metadata (
		payment_id, tags, payment_hash, tx_id, address, is_receive,
		fee_rate, is_transfer, channel_id, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectMetadataColumns = `
	payment_id, tags, payment_hash, tx_id, address, is_receive,
	fee_rate, is_transfer, channel_id, created_at`

// AddMetadata records provisional tags and routing hints for a payment
// identifier that does not yet have an activity.
//
// If the metadata carries a non-empty address, any other row currently
// holding that address is deleted first: at most one receive intent per
// address exists at a time, which models rotation of a reused receive
// address.
func (s *Store) AddMetadata(ctx context.Context, m *activity.PreActivityMetadata) error {
	if m.PaymentID == "" {
		return activity.NewError(activity.KindData, "payment id cannot be empty", nil)
	}

	tagsJSON, err := marshalTags(m.Tags)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.NewError(activity.KindData, "add metadata: begin tx", err)
	}
	defer tx.Rollback()

	if m.Address != nil && *m.Address != "" {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM pre_activity_metadata WHERE address = ?`, *m.Address,
		); err != nil {
			return activity.NewError(activity.KindData, "evict metadata holding address", err)
		}
	}

	if _, err := tx.ExecContext(ctx, upsertMetadataSQL,
		m.PaymentID, tagsJSON, m.PaymentHash, m.TxID, m.Address,
		m.IsReceive, int64(m.FeeRate), m.IsTransfer, m.ChannelID, int64(m.CreatedAt),
	); err != nil {
		return activity.NewError(activity.KindData, "insert pre-activity metadata", err)
	}

	if err := tx.Commit(); err != nil {
		return activity.NewError(activity.KindData, "add metadata: commit", err)
	}
	return nil
}

// Metadata looks a row up either by its primary key payment_id or, when
// byAddress is set, by its address hint. Returns nil when absent.
func (s *Store) Metadata(ctx context.Context, searchKey string, byAddress bool) (*activity.PreActivityMetadata, error) {
	column := "payment_id"
	if byAddress {
		column = "address"
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectMetadataColumns+` FROM pre_activity_metadata WHERE `+column+` = ?`,
		searchKey)

	m, err := scanMetadata(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "get pre-activity metadata", err)
	}
	return m, nil
}

// AddMetadataTags merges new tags into an existing metadata row,
// skipping duplicates. Errors if the row does not exist.
func (s *Store) AddMetadataTags(ctx context.Context, paymentID string, tagsToAdd []string) error {
	current, err := s.metadataTags(ctx, paymentID)
	if err != nil {
		return err
	}
	if current == nil {
		return activity.NewError(activity.KindData,
			fmt.Sprintf("pre-activity metadata not found for payment_id %s", paymentID), nil)
	}

	seen := map[string]bool{}
	for _, tag := range current {
		seen[tag] = true
	}
	merged := current
	for _, tag := range tagsToAdd {
		if !seen[tag] {
			merged = append(merged, tag)
			seen[tag] = true
		}
	}

	return s.writeMetadataTags(ctx, paymentID, merged)
}

// RemoveMetadataTags removes the given tags from a metadata row. A
// missing row is a no-op.
func (s *Store) RemoveMetadataTags(ctx context.Context, paymentID string, tagsToRemove []string) error {
	current, err := s.metadataTags(ctx, paymentID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}

	drop := map[string]bool{}
	for _, tag := range tagsToRemove {
		drop[tag] = true
	}
	kept := []string{}
	for _, tag := range current {
		if !drop[tag] {
			kept = append(kept, tag)
		}
	}

	return s.writeMetadataTags(ctx, paymentID, kept)
}

// ResetMetadataTags clears a metadata row's tags to empty. A missing row
// is a no-op.
func (s *Store) ResetMetadataTags(ctx context.Context, paymentID string) error {
	current, err := s.metadataTags(ctx, paymentID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	return s.writeMetadataTags(ctx, paymentID, []string{})
}

// DeleteMetadata removes a metadata row unconditionally; a missing row
// is a no-op.
func (s *Store) DeleteMetadata(ctx context.Context, paymentID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM pre_activity_metadata WHERE payment_id = ?`, paymentID,
	); err != nil {
		return activity.NewError(activity.KindData, "delete pre-activity metadata", err)
	}
	return nil
}

// UpsertMetadata bulk-writes metadata rows for backup/restore. Each row
// is a full replace of tags and hint fields; duplicate identifiers
// within one batch resolve last-write-wins.
func (s *Store) UpsertMetadata(ctx context.Context, batch []activity.PreActivityMetadata) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.NewError(activity.KindData, "upsert metadata: begin tx", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertMetadataSQL)
	if err != nil {
		return activity.NewError(activity.KindData, "prepare metadata statement", err)
	}
	defer stmt.Close()

	for i := range batch {
		m := &batch[i]
		tagsJSON, err := marshalTags(m.Tags)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			m.PaymentID, tagsJSON, m.PaymentHash, m.TxID, m.Address,
			m.IsReceive, int64(m.FeeRate), m.IsTransfer, m.ChannelID, int64(m.CreatedAt),
		); err != nil {
			return activity.NewError(activity.KindData, "insert pre-activity metadata", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return activity.NewError(activity.KindData, "upsert metadata: commit", err)
	}
	return nil
}

// AllMetadata returns every metadata row, sorted by payment_id. Backup
// path.
func (s *Store) AllMetadata(ctx context.Context) ([]activity.PreActivityMetadata, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectMetadataColumns+` FROM pre_activity_metadata ORDER BY payment_id`)
	if err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "query pre-activity metadata", err)
	}
	defer rows.Close()

	result := []activity.PreActivityMetadata{}
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, activity.NewError(activity.KindData, "decode metadata row", err)
		}
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "iterate metadata", err)
	}
	return result, nil
}

// transferMetadata moves tags and hint fields from a matching metadata
// row onto a freshly inserted activity, then deletes the consumed row.
// It returns the transferred tags for caller notification.
//
// Override rules: address and channel_id overwrite only when non-empty,
// fee_rate only when non-zero, is_transfer only when true. The flag is
// therefore only ever settable to true through this path.
//
// Deletion rules: looked up by address, only rows with that address AND
// is_receive=1 are deleted, so a sent-side tx_id lookup can't consume an
// unrelated receive intent. Looked up by payment_id, deletion is
// unconditional. The asymmetry mirrors long-standing tested behavior;
// confirm intent before changing it.
func (s *Store) transferMetadata(ctx context.Context, searchKey, activityID string, byAddress bool) ([]string, error) {
	metadata, err := s.Metadata(ctx, searchKey, byAddress)
	if err != nil {
		return nil, err
	}
	if metadata == nil {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, activity.NewError(activity.KindData, "transfer metadata: begin tx", err)
	}
	defer tx.Rollback()

	if metadata.Address != nil && *metadata.Address != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE onchain_activity SET address = ? WHERE id = ?`,
			*metadata.Address, activityID,
		); err != nil {
			return nil, activity.NewError(activity.KindData, "transfer address", err)
		}
	}

	if metadata.FeeRate > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE onchain_activity SET fee_rate = ? WHERE id = ?`,
			int64(metadata.FeeRate), activityID,
		); err != nil {
			return nil, activity.NewError(activity.KindData, "transfer fee_rate", err)
		}
	}

	if metadata.IsTransfer {
		if _, err := tx.ExecContext(ctx,
			`UPDATE onchain_activity SET is_transfer = 1 WHERE id = ?`, activityID,
		); err != nil {
			return nil, activity.NewError(activity.KindData, "transfer is_transfer", err)
		}
	}

	if metadata.ChannelID != nil && *metadata.ChannelID != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE onchain_activity SET channel_id = ? WHERE id = ?`,
			*metadata.ChannelID, activityID,
		); err != nil {
			return nil, activity.NewError(activity.KindData, "transfer channel_id", err)
		}
	}

	for _, tag := range metadata.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO activity_tags (activity_id, tag) VALUES (?, ?)`,
			activityID, tag,
		); err != nil {
			return nil, activity.NewError(activity.KindData, "transfer tag", err)
		}
	}

	if byAddress {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM pre_activity_metadata WHERE address = ? AND is_receive = 1`,
			searchKey,
		); err != nil {
			return nil, activity.NewError(activity.KindData, "delete consumed metadata", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM pre_activity_metadata WHERE payment_id = ?`, searchKey,
		); err != nil {
			return nil, activity.NewError(activity.KindData, "delete consumed metadata", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, activity.NewError(activity.KindData, "transfer metadata: commit", err)
	}

	return metadata.Tags, nil
}

// metadataTags returns the decoded tags column for a row, or nil (and no
// error) when the row is absent.
func (s *Store) metadataTags(ctx context.Context, paymentID string) ([]string, error) {
	var tagsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT tags FROM pre_activity_metadata WHERE payment_id = ?`, paymentID,
	).Scan(&tagsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "get current tags", err)
	}

	tags, err := unmarshalTags(tagsJSON)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func (s *Store) writeMetadataTags(ctx context.Context, paymentID string, tags []string) error {
	tagsJSON, err := marshalTags(tags)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE pre_activity_metadata SET tags = ? WHERE payment_id = ?`,
		tagsJSON, paymentID,
	); err != nil {
		return activity.NewError(activity.KindData, "update metadata tags", err)
	}
	return nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", activity.NewError(activity.KindData, "serialize tags", err)
	}
	return string(raw), nil
}

func unmarshalTags(raw string) ([]string, error) {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, activity.NewError(activity.KindData, "deserialize tags", err)
	}
	return tags, nil
}

func scanMetadata(row rowScanner) (*activity.PreActivityMetadata, error) {
	var (
		paymentID   string
		tagsJSON    string
		paymentHash sql.NullString
		txID        sql.NullString
		address     sql.NullString
		isReceive   bool
		feeRate     int64
		isTransfer  bool
		channelID   sql.NullString
		createdAt   int64
	)
	if err := row.Scan(
		&paymentID, &tagsJSON, &paymentHash, &txID, &address,
		&isReceive, &feeRate, &isTransfer, &channelID, &createdAt,
	); err != nil {
		return nil, err
	}

	tags, err := unmarshalTags(tagsJSON)
	if err != nil {
		return nil, err
	}

	return &activity.PreActivityMetadata{
		PaymentID:   paymentID,
		Tags:        tags,
		PaymentHash: nullableString(paymentHash),
		TxID:        nullableString(txID),
		Address:     nullableString(address),
		IsReceive:   isReceive,
		FeeRate:     uint64(feeRate),
		IsTransfer:  isTransfer,
		ChannelID:   nullableString(channelID),
		CreatedAt:   uint64(createdAt),
	}, nil
}
