package blocktank

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
)

const upsertOrderSQL = `
	INSERT OR REPLACE INTO orders (
		id, state, state2, fee_sat, network_fee_sat, service_fee_sat,
		lsp_balance_sat, client_balance_sat, zero_conf, zero_reserve,
		client_node_id, channel_expiry_weeks, channel_expires_at,
		order_expires_at, lnurl, coupon_code, source, channel_data,
		lsp_node_data, payment_data, discount_data, updated_at, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const orderColumns = `
	id, state, state2, fee_sat, network_fee_sat, service_fee_sat,
	lsp_balance_sat, client_balance_sat, zero_conf, zero_reserve,
	client_node_id, channel_expiry_weeks, channel_expires_at,
	order_expires_at, lnurl, coupon_code, source, channel_data,
	lsp_node_data, payment_data, discount_data, updated_at, created_at`

// UpsertOrder records or fully replaces one channel order.
func (s *Store) UpsertOrder(ctx context.Context, o *Order) error {
	if o.ID == "" {
		return newError(KindData, "order id cannot be empty", nil)
	}
	if _, err := s.db.ExecContext(ctx, upsertOrderSQL, orderArgs(o)...); err != nil {
		return newError(KindInsert, "upsert order", err)
	}
	return nil
}

// UpsertOrders replaces a batch of orders in one transaction.
func (s *Store) UpsertOrders(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newError(KindData, "upsert orders: begin tx", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertOrderSQL)
	if err != nil {
		return newError(KindData, "prepare order statement", err)
	}
	defer stmt.Close()

	for i := range orders {
		o := &orders[i]
		if o.ID == "" {
			return newError(KindData, "order id cannot be empty", nil)
		}
		if _, err := stmt.ExecContext(ctx, orderArgs(o)...); err != nil {
			return newError(KindInsert, "upsert order "+o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return newError(KindData, "upsert orders: commit", err)
	}
	return nil
}

// Orders returns cached orders, newest first. A nil ids slice means all
// orders; a non-nil state narrows to that fine-grained state.
func (s *Store) Orders(ctx context.Context, ids []string, state *OrderState2) ([]Order, error) {
	var b strings.Builder
	var args []any

	b.WriteString(`SELECT ` + orderColumns + ` FROM orders WHERE 1=1`)

	if len(ids) > 0 {
		b.WriteString(" AND id IN (?")
		b.WriteString(strings.Repeat(",?", len(ids)-1))
		b.WriteString(")")
		for _, id := range ids {
			args = append(args, id)
		}
	}
	if state != nil {
		b.WriteString(" AND state2 = ?")
		args = append(args, string(*state))
	}
	b.WriteString(" ORDER BY created_at DESC")

	return s.queryOrders(ctx, b.String(), args...)
}

// ActiveOrders returns orders still awaiting payment or channel open.
func (s *Store) ActiveOrders(ctx context.Context) ([]Order, error) {
	return s.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE state2 IN ('Created', 'Paid')
		ORDER BY created_at DESC`)
}

// RemoveAllOrders empties the order cache.
func (s *Store) RemoveAllOrders(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return newError(KindData, "delete all orders", err)
	}
	return nil
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newError(KindRetrieval, "query orders", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, newError(KindData, "decode order row", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(KindRetrieval, "iterate orders", err)
	}
	return orders, nil
}

func orderArgs(o *Order) []any {
	return []any{
		o.ID, string(o.State), string(o.State2), int64(o.FeeSat),
		int64(o.NetworkFeeSat), int64(o.ServiceFeeSat), int64(o.LSPBalanceSat),
		int64(o.ClientBalanceSat), o.ZeroConf, o.ZeroReserve, o.ClientNodeID,
		int64(o.ChannelExpiryWeeks), o.ChannelExpiresAt, o.OrderExpiresAt,
		o.LNURL, o.CouponCode, o.Source,
		rawJSONArg(o.Channel), rawJSONArg(o.LSPNode),
		rawJSONArg(o.Payment), rawJSONArg(o.Discount),
		o.UpdatedAt, o.CreatedAt,
	}
}

func scanOrder(rows *sql.Rows) (*Order, error) {
	var (
		o                  Order
		state, state2      string
		feeSat             int64
		networkFeeSat      int64
		serviceFeeSat      int64
		lspBalanceSat      int64
		clientBalanceSat   int64
		clientNodeID       sql.NullString
		channelExpiryWeeks int64
		lnurl              sql.NullString
		couponCode         sql.NullString
		source             sql.NullString
		channelData        sql.NullString
		lspNodeData        sql.NullString
		paymentData        sql.NullString
		discountData       sql.NullString
	)
	if err := rows.Scan(
		&o.ID, &state, &state2, &feeSat, &networkFeeSat, &serviceFeeSat,
		&lspBalanceSat, &clientBalanceSat, &o.ZeroConf, &o.ZeroReserve,
		&clientNodeID, &channelExpiryWeeks, &o.ChannelExpiresAt,
		&o.OrderExpiresAt, &lnurl, &couponCode, &source, &channelData,
		&lspNodeData, &paymentData, &discountData, &o.UpdatedAt, &o.CreatedAt,
	); err != nil {
		return nil, err
	}

	o.State = OrderState(state)
	o.State2 = OrderState2(state2)
	o.FeeSat = uint64(feeSat)
	o.NetworkFeeSat = uint64(networkFeeSat)
	o.ServiceFeeSat = uint64(serviceFeeSat)
	o.LSPBalanceSat = uint64(lspBalanceSat)
	o.ClientBalanceSat = uint64(clientBalanceSat)
	o.ChannelExpiryWeeks = uint32(channelExpiryWeeks)
	o.ClientNodeID = nullableString(clientNodeID)
	o.LNURL = nullableString(lnurl)
	o.CouponCode = nullableString(couponCode)
	o.Source = nullableString(source)
	o.Channel = rawJSON(channelData)
	o.LSPNode = rawJSON(lspNodeData)
	o.Payment = rawJSON(paymentData)
	o.Discount = rawJSON(discountData)

	return &o, nil
}

// rawJSONArg binds an optional JSON document, mapping absent to NULL.
func rawJSONArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func rawJSON(v sql.NullString) json.RawMessage {
	if !v.Valid {
		return nil
	}
	return json.RawMessage(v.String)
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
