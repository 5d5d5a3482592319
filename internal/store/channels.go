package store

import (
	"context"
	"database/sql"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
)

const upsertClosedChannelSQL = `
	INSERT OR REPLACE INTO closed_channels (
		channel_id, counterparty_node_id, funding_txo_txid, funding_txo_index,
		channel_value_sats, closed_at, outbound_capacity_msat, inbound_capacity_msat,
		counterparty_unspendable_punishment_reserve, unspendable_punishment_reserve,
		forwarding_fee_proportional_millionths, forwarding_fee_base_msat,
		channel_name, channel_closure_reason
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const closedChannelColumns = `
	channel_id, counterparty_node_id, funding_txo_txid, funding_txo_index,
	channel_value_sats, closed_at, outbound_capacity_msat, inbound_capacity_msat,
	counterparty_unspendable_punishment_reserve, unspendable_punishment_reserve,
	forwarding_fee_proportional_millionths, forwarding_fee_base_msat,
	channel_name, channel_closure_reason`

// UpsertClosedChannel records or fully replaces the snapshot of a closed
// lightning channel, keyed by channel id.
func (s *Store) UpsertClosedChannel(ctx context.Context, c *activity.ClosedChannelDetails) error {
	if c.ChannelID == "" {
		return activity.NewError(activity.KindData, "channel id cannot be empty", nil)
	}
	if _, err := s.db.ExecContext(ctx, upsertClosedChannelSQL, closedChannelArgs(c)...); err != nil {
		return activity.NewError(activity.KindData, "upsert closed channel", err)
	}
	return nil
}

// UpsertClosedChannels bulk-writes closed channel snapshots in one
// transaction. Any row with an empty channel id aborts the whole batch.
func (s *Store) UpsertClosedChannels(ctx context.Context, channels []activity.ClosedChannelDetails) error {
	if len(channels) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.NewError(activity.KindData, "upsert closed channels: begin tx", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertClosedChannelSQL)
	if err != nil {
		return activity.NewError(activity.KindData, "prepare closed channel statement", err)
	}
	defer stmt.Close()

	for i := range channels {
		c := &channels[i]
		if c.ChannelID == "" {
			return activity.NewError(activity.KindData, "channel id cannot be empty", nil)
		}
		if _, err := stmt.ExecContext(ctx, closedChannelArgs(c)...); err != nil {
			return activity.NewError(activity.KindData, "upsert closed channel", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return activity.NewError(activity.KindData, "upsert closed channels: commit", err)
	}
	return nil
}

// ClosedChannelByID returns a closed channel snapshot, or nil when no
// channel with that id was recorded.
func (s *Store) ClosedChannelByID(ctx context.Context, channelID string) (*activity.ClosedChannelDetails, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+closedChannelColumns+` FROM closed_channels WHERE channel_id = ?`, channelID)

	c, err := scanClosedChannel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "get closed channel", err)
	}
	return c, nil
}

// AllClosedChannels returns every recorded closed channel ordered by
// close time, newest first by default.
func (s *Store) AllClosedChannels(ctx context.Context, sort activity.SortDirection) ([]activity.ClosedChannelDetails, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+closedChannelColumns+` FROM closed_channels ORDER BY closed_at `+sort.SQL())
	if err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "query closed channels", err)
	}
	defer rows.Close()

	result := []activity.ClosedChannelDetails{}
	for rows.Next() {
		c, err := scanClosedChannel(rows)
		if err != nil {
			return nil, activity.NewError(activity.KindData, "decode closed channel row", err)
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "iterate closed channels", err)
	}
	return result, nil
}

// RemoveClosedChannelByID deletes a closed channel snapshot, reporting
// whether a row was actually removed.
func (s *Store) RemoveClosedChannelByID(ctx context.Context, channelID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM closed_channels WHERE channel_id = ?`, channelID)
	if err != nil {
		return false, activity.NewError(activity.KindData, "delete closed channel", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, activity.NewError(activity.KindData, "delete closed channel: rows affected", err)
	}
	return rows > 0, nil
}

// WipeClosedChannels removes every closed channel snapshot.
func (s *Store) WipeClosedChannels(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM closed_channels`); err != nil {
		return activity.NewError(activity.KindData, "wipe closed channels", err)
	}
	return nil
}

func closedChannelArgs(c *activity.ClosedChannelDetails) []any {
	return []any{
		c.ChannelID, c.CounterpartyNodeID, c.FundingTxoTxID, int64(c.FundingTxoIndex),
		int64(c.ChannelValueSats), int64(c.ClosedAt), int64(c.OutboundCapacityMsat),
		int64(c.InboundCapacityMsat), int64(c.CounterpartyUnspendablePunishmentReserve),
		int64(c.UnspendablePunishmentReserve), int64(c.ForwardingFeeProportionalMillionths),
		int64(c.ForwardingFeeBaseMsat), c.ChannelName, c.ChannelClosureReason,
	}
}

func scanClosedChannel(row rowScanner) (*activity.ClosedChannelDetails, error) {
	var (
		c                 activity.ClosedChannelDetails
		fundingTxoIndex   int64
		channelValueSats  int64
		closedAt          int64
		outboundMsat      int64
		inboundMsat       int64
		counterpartyRes   int64
		punishmentReserve int64
		feeProportional   int64
		feeBaseMsat       int64
	)
	if err := row.Scan(
		&c.ChannelID, &c.CounterpartyNodeID, &c.FundingTxoTxID, &fundingTxoIndex,
		&channelValueSats, &closedAt, &outboundMsat, &inboundMsat,
		&counterpartyRes, &punishmentReserve, &feeProportional, &feeBaseMsat,
		&c.ChannelName, &c.ChannelClosureReason,
	); err != nil {
		return nil, err
	}

	c.FundingTxoIndex = uint32(fundingTxoIndex)
	c.ChannelValueSats = uint64(channelValueSats)
	c.ClosedAt = uint64(closedAt)
	c.OutboundCapacityMsat = uint64(outboundMsat)
	c.InboundCapacityMsat = uint64(inboundMsat)
	c.CounterpartyUnspendablePunishmentReserve = uint64(counterpartyRes)
	c.UnspendablePunishmentReserve = uint64(punishmentReserve)
	c.ForwardingFeeProportionalMillionths = uint32(feeProportional)
	c.ForwardingFeeBaseMsat = uint32(feeBaseMsat)

	return &c, nil
}
