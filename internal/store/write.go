package store

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
)

const insertIdentitySQL = `
	INSERT INTO activities (id, activity_type, tx_type, timestamp)
	VALUES (?, ?, ?, ?)`

const insertOnchainSQL = `
	INSERT INTO onchain_activity (
		id, tx_id, address, confirmed, value, fee, fee_rate, is_boosted,
		boost_tx_ids, is_transfer, does_exist, confirm_timestamp,
		channel_id, transfer_tx_id
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertLightningSQL = `
	INSERT INTO lightning_activity (id, invoice, value, status, fee, message, preimage)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// InsertOnchain inserts a new onchain activity: identity row plus child
// row in one transaction.
//
// After a successful commit any pre-activity metadata matching the
// activity's address (received) or tx_id (sent) is transferred onto it.
// That transfer is best-effort: its failure is logged and
// never returned, so a ledger write can't be failed by reconciliation
// being unavailable. Do not "fix" this by propagating the error.
func (s *Store) InsertOnchain(ctx context.Context, a *activity.OnchainActivity) error {
	if a.ID == "" {
		return activity.NewError(activity.KindData, "activity id cannot be empty", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.NewError(activity.KindData, "insert onchain: begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertIdentitySQL,
		a.ID, activity.TypeOnchain, a.TxType, a.Timestamp,
	); err != nil {
		return activity.NewError(activity.KindInsert, "insert into activities", err)
	}

	if _, err := tx.ExecContext(ctx, insertOnchainSQL,
		a.ID, a.TxID, a.Address, a.Confirmed, a.Value, a.Fee, a.FeeRate,
		a.IsBoosted, strings.Join(a.BoostTxIDs, ","), a.IsTransfer,
		a.DoesExist, a.ConfirmTimestamp, a.ChannelID, a.TransferTxID,
	); err != nil {
		return activity.NewError(activity.KindInsert, "insert into onchain_activity", err)
	}

	if err := tx.Commit(); err != nil {
		return activity.NewError(activity.KindData, "insert onchain: commit", err)
	}

	switch a.TxType {
	case activity.PaymentReceived:
		s.reconcile(ctx, a.Address, a.ID, true)
	case activity.PaymentSent:
		s.reconcile(ctx, a.TxID, a.ID, false)
	}

	return nil
}

// InsertLightning inserts a new lightning activity: identity row plus
// child row in one transaction. Pre-activity metadata keyed by the
// activity's own id is transferred afterwards, best-effort (see
// InsertOnchain).
func (s *Store) InsertLightning(ctx context.Context, a *activity.LightningActivity) error {
	if a.ID == "" {
		return activity.NewError(activity.KindData, "activity id cannot be empty", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.NewError(activity.KindData, "insert lightning: begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertIdentitySQL,
		a.ID, activity.TypeLightning, a.TxType, a.Timestamp,
	); err != nil {
		return activity.NewError(activity.KindInsert, "insert into activities", err)
	}

	if _, err := tx.ExecContext(ctx, insertLightningSQL,
		a.ID, a.Invoice, a.Value, a.Status, a.Fee, a.Message, a.Preimage,
	); err != nil {
		return activity.NewError(activity.KindInsert, "insert into lightning_activity", err)
	}

	if err := tx.Commit(); err != nil {
		return activity.NewError(activity.KindData, "insert lightning: commit", err)
	}

	s.reconcile(ctx, a.ID, a.ID, false)

	return nil
}

// reconcile runs the metadata transfer and absorbs its outcome. The
// primary write has already committed; reconciliation is an enhancement,
// not a correctness requirement of the insert.
func (s *Store) reconcile(ctx context.Context, searchKey, activityID string, byAddress bool) {
	tags, err := s.transferMetadata(ctx, searchKey, activityID, byAddress)
	if err != nil {
		s.logger.Warn("pre-activity metadata transfer failed",
			zap.String("activity_id", activityID),
			zap.Error(err))
		return
	}
	if len(tags) > 0 {
		s.logger.Debug("pre-activity metadata transferred",
			zap.String("activity_id", activityID),
			zap.Strings("tags", tags))
	}
}

// UpdateOnchain replaces an existing onchain activity's mutable fields.
// Both tables are updated in one transaction; updated_at advances via
// trigger and created_at is untouched. Returns a KindData error wrapping
// activity.ErrNotFound when no onchain row has the given id.
func (s *Store) UpdateOnchain(ctx context.Context, id string, a *activity.OnchainActivity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.NewError(activity.KindData, "update onchain: begin tx", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE activities SET tx_type = ?, timestamp = ?
		WHERE id = ? AND activity_type = 'onchain'`,
		a.TxType, a.Timestamp, id,
	)
	if err != nil {
		return activity.NewError(activity.KindData, "update activities", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return activity.NewError(activity.KindData, "update activities: rows affected", err)
	}
	if rows == 0 {
		return activity.NewError(activity.KindData, "update onchain", activity.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE onchain_activity SET
			tx_id = ?, address = ?, confirmed = ?, value = ?, fee = ?,
			fee_rate = ?, is_boosted = ?, boost_tx_ids = ?, is_transfer = ?,
			does_exist = ?, confirm_timestamp = ?, channel_id = ?, transfer_tx_id = ?
		WHERE id = ?`,
		a.TxID, a.Address, a.Confirmed, a.Value, a.Fee, a.FeeRate,
		a.IsBoosted, strings.Join(a.BoostTxIDs, ","), a.IsTransfer,
		a.DoesExist, a.ConfirmTimestamp, a.ChannelID, a.TransferTxID, id,
	); err != nil {
		return activity.NewError(activity.KindData, "update onchain_activity", err)
	}

	if err := tx.Commit(); err != nil {
		return activity.NewError(activity.KindData, "update onchain: commit", err)
	}
	return nil
}

// UpdateLightning replaces an existing lightning activity's mutable
// fields. Same contract as UpdateOnchain.
func (s *Store) UpdateLightning(ctx context.Context, id string, a *activity.LightningActivity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.NewError(activity.KindData, "update lightning: begin tx", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE activities SET tx_type = ?, timestamp = ?
		WHERE id = ? AND activity_type = 'lightning'`,
		a.TxType, a.Timestamp, id,
	)
	if err != nil {
		return activity.NewError(activity.KindData, "update activities", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return activity.NewError(activity.KindData, "update activities: rows affected", err)
	}
	if rows == 0 {
		return activity.NewError(activity.KindData, "update lightning", activity.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE lightning_activity SET
			invoice = ?, value = ?, status = ?, fee = ?, message = ?, preimage = ?
		WHERE id = ?`,
		a.Invoice, a.Value, a.Status, a.Fee, a.Message, a.Preimage, id,
	); err != nil {
		return activity.NewError(activity.KindData, "update lightning_activity", err)
	}

	if err := tx.Commit(); err != nil {
		return activity.NewError(activity.KindData, "update lightning: commit", err)
	}
	return nil
}

// Upsert is the primary public write path: update-if-exists-else-insert.
// Use it for every idempotent flow, e.g. reprocessing a blockchain
// re-scan.
func (s *Store) Upsert(ctx context.Context, a activity.Activity) error {
	switch {
	case a.Onchain != nil:
		err := s.UpdateOnchain(ctx, a.Onchain.ID, a.Onchain)
		if activity.IsNotFound(err) {
			return s.InsertOnchain(ctx, a.Onchain)
		}
		return err
	case a.Lightning != nil:
		err := s.UpdateLightning(ctx, a.Lightning.ID, a.Lightning)
		if activity.IsNotFound(err) {
			return s.InsertLightning(ctx, a.Lightning)
		}
		return err
	default:
		return activity.NewError(activity.KindData, "activity has no variant set", nil)
	}
}

// UpsertOnchainActivities writes a batch of onchain activities in a
// single transaction, reusing one prepared statement per table. An empty
// batch is a no-op success; any empty id aborts the whole batch with no
// partial commit.
//
// Conflicting rows are updated in place (ON CONFLICT DO UPDATE) rather
// than replaced, so created_at, attached tags, and the cascade relations
// of re-scanned activities survive the batch.
func (s *Store) UpsertOnchainActivities(ctx context.Context, activities []activity.OnchainActivity) error {
	if len(activities) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.NewError(activity.KindData, "upsert onchain batch: begin tx", err)
	}
	defer tx.Rollback()

	identStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO activities (id, activity_type, tx_type, timestamp)
		VALUES (?, 'onchain', ?, ?)
		ON CONFLICT(id) DO UPDATE SET tx_type = excluded.tx_type, timestamp = excluded.timestamp`)
	if err != nil {
		return activity.NewError(activity.KindData, "prepare activities statement", err)
	}
	defer identStmt.Close()

	childStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO onchain_activity (
			id, tx_id, address, confirmed, value, fee, fee_rate, is_boosted,
			boost_tx_ids, is_transfer, does_exist, confirm_timestamp,
			channel_id, transfer_tx_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tx_id = excluded.tx_id,
			address = excluded.address,
			confirmed = excluded.confirmed,
			value = excluded.value,
			fee = excluded.fee,
			fee_rate = excluded.fee_rate,
			is_boosted = excluded.is_boosted,
			boost_tx_ids = excluded.boost_tx_ids,
			is_transfer = excluded.is_transfer,
			does_exist = excluded.does_exist,
			confirm_timestamp = excluded.confirm_timestamp,
			channel_id = excluded.channel_id,
			transfer_tx_id = excluded.transfer_tx_id`)
	if err != nil {
		return activity.NewError(activity.KindData, "prepare onchain statement", err)
	}
	defer childStmt.Close()

	for i := range activities {
		a := &activities[i]
		if a.ID == "" {
			return activity.NewError(activity.KindData, "activity id cannot be empty", nil)
		}
		if _, err := identStmt.ExecContext(ctx, a.ID, a.TxType, a.Timestamp); err != nil {
			return activity.NewError(activity.KindInsert, "upsert activities row", err)
		}
		if _, err := childStmt.ExecContext(ctx,
			a.ID, a.TxID, a.Address, a.Confirmed, a.Value, a.Fee, a.FeeRate,
			a.IsBoosted, strings.Join(a.BoostTxIDs, ","), a.IsTransfer,
			a.DoesExist, a.ConfirmTimestamp, a.ChannelID, a.TransferTxID,
		); err != nil {
			return activity.NewError(activity.KindInsert, "upsert onchain_activity row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return activity.NewError(activity.KindData, "upsert onchain batch: commit", err)
	}
	return nil
}

// UpsertLightningActivities writes a batch of lightning activities in a
// single transaction. Same contract as UpsertOnchainActivities.
func (s *Store) UpsertLightningActivities(ctx context.Context, activities []activity.LightningActivity) error {
	if len(activities) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.NewError(activity.KindData, "upsert lightning batch: begin tx", err)
	}
	defer tx.Rollback()

	identStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO activities (id, activity_type, tx_type, timestamp)
		VALUES (?, 'lightning', ?, ?)
		ON CONFLICT(id) DO UPDATE SET tx_type = excluded.tx_type, timestamp = excluded.timestamp`)
	if err != nil {
		return activity.NewError(activity.KindData, "prepare activities statement", err)
	}
	defer identStmt.Close()

	childStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lightning_activity (id, invoice, value, status, fee, message, preimage)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			invoice = excluded.invoice,
			value = excluded.value,
			status = excluded.status,
			fee = excluded.fee,
			message = excluded.message,
			preimage = excluded.preimage`)
	if err != nil {
		return activity.NewError(activity.KindData, "prepare lightning statement", err)
	}
	defer childStmt.Close()

	for i := range activities {
		a := &activities[i]
		if a.ID == "" {
			return activity.NewError(activity.KindData, "activity id cannot be empty", nil)
		}
		if _, err := identStmt.ExecContext(ctx, a.ID, a.TxType, a.Timestamp); err != nil {
			return activity.NewError(activity.KindInsert, "upsert activities row", err)
		}
		if _, err := childStmt.ExecContext(ctx,
			a.ID, a.Invoice, a.Value, a.Status, a.Fee, a.Message, a.Preimage,
		); err != nil {
			return activity.NewError(activity.KindInsert, "upsert lightning_activity row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return activity.NewError(activity.KindData, "upsert lightning batch: commit", err)
	}
	return nil
}

// DeleteActivityByID removes an activity; the cascade removes its child
// row and tags. Reports whether a row existed.
func (s *Store) DeleteActivityByID(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return false, activity.NewError(activity.KindData, "delete activity", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, activity.NewError(activity.KindData, "delete activity: rows affected", err)
	}
	return rows > 0, nil
}
