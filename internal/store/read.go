package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
)

// activityColumns is the shared projection for decoding either variant
// in one pass: identity columns first, then the onchain child, then the
// lightning child.
const activityColumns = `
	a.id, a.activity_type, a.tx_type, a.timestamp, a.created_at, a.updated_at,
	o.tx_id, o.value, o.fee, o.fee_rate, o.address, o.confirmed,
	o.is_boosted, o.boost_tx_ids, o.is_transfer, o.does_exist,
	o.confirm_timestamp, o.channel_id, o.transfer_tx_id,
	l.invoice, l.value, l.status, l.fee, l.message, l.preimage`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanActivity decodes one joined row into whichever variant the type
// column names. Used by both the single lookup and the filtered query.
func scanActivity(row rowScanner) (activity.Activity, error) {
	var (
		id           string
		activityType string
		txType       string
		timestamp    int64
		createdAt    sql.NullInt64
		updatedAt    sql.NullInt64

		ocTxID             sql.NullString
		ocValue            sql.NullInt64
		ocFee              sql.NullInt64
		ocFeeRate          sql.NullInt64
		ocAddress          sql.NullString
		ocConfirmed        sql.NullBool
		ocIsBoosted        sql.NullBool
		ocBoostTxIDs       sql.NullString
		ocIsTransfer       sql.NullBool
		ocDoesExist        sql.NullBool
		ocConfirmTimestamp sql.NullInt64
		ocChannelID        sql.NullString
		ocTransferTxID     sql.NullString

		lnInvoice  sql.NullString
		lnValue    sql.NullInt64
		lnStatus   sql.NullString
		lnFee      sql.NullInt64
		lnMessage  sql.NullString
		lnPreimage sql.NullString
	)

	if err := row.Scan(
		&id, &activityType, &txType, &timestamp, &createdAt, &updatedAt,
		&ocTxID, &ocValue, &ocFee, &ocFeeRate, &ocAddress, &ocConfirmed,
		&ocIsBoosted, &ocBoostTxIDs, &ocIsTransfer, &ocDoesExist,
		&ocConfirmTimestamp, &ocChannelID, &ocTransferTxID,
		&lnInvoice, &lnValue, &lnStatus, &lnFee, &lnMessage, &lnPreimage,
	); err != nil {
		return activity.Activity{}, err
	}

	paymentType, err := activity.ParsePaymentType(txType)
	if err != nil {
		return activity.Activity{}, err
	}

	switch activityType {
	case string(activity.TypeOnchain):
		return activity.Activity{Onchain: &activity.OnchainActivity{
			ID:               id,
			TxType:           paymentType,
			TxID:             ocTxID.String,
			Value:            uint64(ocValue.Int64),
			Fee:              uint64(ocFee.Int64),
			FeeRate:          uint64(ocFeeRate.Int64),
			Address:          ocAddress.String,
			Confirmed:        ocConfirmed.Bool,
			Timestamp:        uint64(timestamp),
			IsBoosted:        ocIsBoosted.Bool,
			BoostTxIDs:       splitBoostTxIDs(ocBoostTxIDs.String),
			IsTransfer:       ocIsTransfer.Bool,
			DoesExist:        ocDoesExist.Bool,
			ConfirmTimestamp: nullableUint64(ocConfirmTimestamp),
			ChannelID:        nullableString(ocChannelID),
			TransferTxID:     nullableString(ocTransferTxID),
			CreatedAt:        nullableUint64(createdAt),
			UpdatedAt:        nullableUint64(updatedAt),
		}}, nil

	case string(activity.TypeLightning):
		state, err := activity.ParsePaymentState(lnStatus.String)
		if err != nil {
			return activity.Activity{}, err
		}
		return activity.Activity{Lightning: &activity.LightningActivity{
			ID:        id,
			TxType:    paymentType,
			Status:    state,
			Value:     uint64(lnValue.Int64),
			Fee:       nullableUint64(lnFee),
			Invoice:   lnInvoice.String,
			Message:   lnMessage.String,
			Timestamp: uint64(timestamp),
			Preimage:  nullableString(lnPreimage),
			CreatedAt: nullableUint64(createdAt),
			UpdatedAt: nullableUint64(updatedAt),
		}}, nil

	default:
		return activity.Activity{}, fmt.Errorf("unknown activity type %q", activityType)
	}
}

func splitBoostTxIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func nullableUint64(v sql.NullInt64) *uint64 {
	if !v.Valid {
		return nil
	}
	u := uint64(v.Int64)
	return &u
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// ActivityByID retrieves one activity of either variant with a single
// query joining both child tables, discriminated on the type column.
// Returns nil (and no error) when no row exists.
func (s *Store) ActivityByID(ctx context.Context, id string) (*activity.Activity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities a
		LEFT JOIN onchain_activity o ON a.id = o.id AND a.activity_type = 'onchain'
		LEFT JOIN lightning_activity l ON a.id = l.id AND a.activity_type = 'lightning'
		WHERE a.id = ?`, id)

	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, activity.NewError(activity.KindRetrieval, "get activity by id", err)
	}
	return &a, nil
}

// HasOnchainReceived reports whether the address has ever received an
// onchain payment. Used by the payment-discovery client to decide
// whether a published address must be rotated.
func (s *Store) HasOnchainReceived(ctx context.Context, address string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1
		FROM activities a
		JOIN onchain_activity o ON a.id = o.id
		WHERE o.address = ? AND a.tx_type = 'received'
		LIMIT 1`, address).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, activity.NewError(activity.KindRetrieval, "check onchain usage", err)
	}
	return true, nil
}

// HasLightningPaid reports whether the invoice has ever been paid
// (status succeeded).
func (s *Store) HasLightningPaid(ctx context.Context, invoice string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1
		FROM lightning_activity
		WHERE invoice = ? AND status = 'succeeded'
		LIMIT 1`, invoice).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, activity.NewError(activity.KindRetrieval, "check lightning usage", err)
	}
	return true, nil
}
