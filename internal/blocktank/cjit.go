package blocktank

import (
	"context"
	"database/sql"
	"strings"
)

const upsertCJitSQL = `
	INSERT OR REPLACE INTO cjit_entries (
		id, state, fee_sat, network_fee_sat, service_fee_sat,
		channel_size_sat, channel_expiry_weeks, channel_open_error,
		node_id, coupon_code, source, expires_at, invoice_data,
		channel_data, lsp_node_data, discount_data, updated_at, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const cjitColumns = `
	id, state, fee_sat, network_fee_sat, service_fee_sat,
	channel_size_sat, channel_expiry_weeks, channel_open_error,
	node_id, coupon_code, source, expires_at, invoice_data,
	channel_data, lsp_node_data, discount_data, updated_at, created_at`

// UpsertCJitEntry records or fully replaces one CJIT entry.
func (s *Store) UpsertCJitEntry(ctx context.Context, e *CJitEntry) error {
	if e.ID == "" {
		return newError(KindData, "cjit entry id cannot be empty", nil)
	}
	if _, err := s.db.ExecContext(ctx, upsertCJitSQL, cjitArgs(e)...); err != nil {
		return newError(KindInsert, "upsert cjit entry", err)
	}
	return nil
}

// UpsertCJitEntries replaces a batch of CJIT entries in one transaction.
func (s *Store) UpsertCJitEntries(ctx context.Context, entries []CJitEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newError(KindData, "upsert cjit entries: begin tx", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertCJitSQL)
	if err != nil {
		return newError(KindData, "prepare cjit statement", err)
	}
	defer stmt.Close()

	for i := range entries {
		e := &entries[i]
		if e.ID == "" {
			return newError(KindData, "cjit entry id cannot be empty", nil)
		}
		if _, err := stmt.ExecContext(ctx, cjitArgs(e)...); err != nil {
			return newError(KindInsert, "upsert cjit entry "+e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return newError(KindData, "upsert cjit entries: commit", err)
	}
	return nil
}

// CJitEntries returns cached CJIT entries, newest first, with the same
// optional id and state narrowing as Orders.
func (s *Store) CJitEntries(ctx context.Context, ids []string, state *CJitState) ([]CJitEntry, error) {
	var b strings.Builder
	var args []any

	b.WriteString(`SELECT ` + cjitColumns + ` FROM cjit_entries WHERE 1=1`)

	if len(ids) > 0 {
		b.WriteString(" AND id IN (?")
		b.WriteString(strings.Repeat(",?", len(ids)-1))
		b.WriteString(")")
		for _, id := range ids {
			args = append(args, id)
		}
	}
	if state != nil {
		b.WriteString(" AND state = ?")
		args = append(args, string(*state))
	}
	b.WriteString(" ORDER BY created_at DESC")

	return s.queryCJitEntries(ctx, b.String(), args...)
}

// ActiveCJitEntries returns entries that can still lead to a channel
// open, including failed ones eligible for retry.
func (s *Store) ActiveCJitEntries(ctx context.Context) ([]CJitEntry, error) {
	return s.queryCJitEntries(ctx,
		`SELECT `+cjitColumns+` FROM cjit_entries
		WHERE state IN ('Created', 'Failed')
		ORDER BY created_at DESC`)
}

// RemoveAllCJitEntries empties the CJIT cache.
func (s *Store) RemoveAllCJitEntries(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cjit_entries`); err != nil {
		return newError(KindData, "delete all cjit entries", err)
	}
	return nil
}

func (s *Store) queryCJitEntries(ctx context.Context, query string, args ...any) ([]CJitEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newError(KindRetrieval, "query cjit entries", err)
	}
	defer rows.Close()

	entries := []CJitEntry{}
	for rows.Next() {
		e, err := scanCJitEntry(rows)
		if err != nil {
			return nil, newError(KindData, "decode cjit row", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(KindRetrieval, "iterate cjit entries", err)
	}
	return entries, nil
}

func cjitArgs(e *CJitEntry) []any {
	return []any{
		e.ID, string(e.State), int64(e.FeeSat), int64(e.NetworkFeeSat),
		int64(e.ServiceFeeSat), int64(e.ChannelSizeSat),
		int64(e.ChannelExpiryWeeks), e.ChannelOpenError, e.NodeID,
		e.CouponCode, e.Source, e.ExpiresAt,
		rawJSONArg(e.Invoice), rawJSONArg(e.Channel),
		rawJSONArg(e.LSPNode), rawJSONArg(e.Discount),
		e.UpdatedAt, e.CreatedAt,
	}
}

func scanCJitEntry(rows *sql.Rows) (*CJitEntry, error) {
	var (
		e                  CJitEntry
		state              string
		feeSat             int64
		networkFeeSat      int64
		serviceFeeSat      int64
		channelSizeSat     int64
		channelExpiryWeeks int64
		channelOpenError   sql.NullString
		source             sql.NullString
		invoiceData        sql.NullString
		channelData        sql.NullString
		lspNodeData        sql.NullString
		discountData       sql.NullString
	)
	if err := rows.Scan(
		&e.ID, &state, &feeSat, &networkFeeSat, &serviceFeeSat,
		&channelSizeSat, &channelExpiryWeeks, &channelOpenError,
		&e.NodeID, &e.CouponCode, &source, &e.ExpiresAt, &invoiceData,
		&channelData, &lspNodeData, &discountData, &e.UpdatedAt, &e.CreatedAt,
	); err != nil {
		return nil, err
	}

	e.State = CJitState(state)
	e.FeeSat = uint64(feeSat)
	e.NetworkFeeSat = uint64(networkFeeSat)
	e.ServiceFeeSat = uint64(serviceFeeSat)
	e.ChannelSizeSat = uint64(channelSizeSat)
	e.ChannelExpiryWeeks = uint32(channelExpiryWeeks)
	e.ChannelOpenError = nullableString(channelOpenError)
	e.Source = nullableString(source)
	e.Invoice = rawJSON(invoiceData)
	e.Channel = rawJSON(channelData)
	e.LSPNode = rawJSON(lspNodeData)
	e.Discount = rawJSON(discountData)

	return &e, nil
}
