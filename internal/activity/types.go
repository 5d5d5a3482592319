package activity

import "fmt"

// Type discriminates the two activity variants persisted in the ledger.
type Type string

const (
	TypeOnchain   Type = "onchain"
	TypeLightning Type = "lightning"
)

// ParseType converts a stored discriminator column back to a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeOnchain, TypeLightning:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown activity type %q", s)
	}
}

// PaymentType is the direction of a payment relative to the wallet.
type PaymentType string

const (
	PaymentSent     PaymentType = "sent"
	PaymentReceived PaymentType = "received"
)

// ParsePaymentType converts a stored tx_type column back to a PaymentType.
func ParsePaymentType(s string) (PaymentType, error) {
	switch PaymentType(s) {
	case PaymentSent, PaymentReceived:
		return PaymentType(s), nil
	default:
		return "", fmt.Errorf("unknown payment type %q", s)
	}
}

// PaymentState is the lifecycle state of a lightning payment.
type PaymentState string

const (
	StatePending   PaymentState = "pending"
	StateSucceeded PaymentState = "succeeded"
	StateFailed    PaymentState = "failed"
)

// ParsePaymentState converts a stored status column back to a PaymentState.
func ParsePaymentState(s string) (PaymentState, error) {
	switch PaymentState(s) {
	case StatePending, StateSucceeded, StateFailed:
		return PaymentState(s), nil
	default:
		return "", fmt.Errorf("unknown payment state %q", s)
	}
}

// Filter selects which activity variants a query returns.
type Filter int

const (
	FilterAll Filter = iota
	FilterOnchain
	FilterLightning
)

// SortDirection orders query results by timestamp.
// The zero value sorts descending (newest first), which is the default
// everywhere a direction is optional.
type SortDirection int

const (
	SortDescending SortDirection = iota
	SortAscending
)

// SQL returns the ORDER BY keyword for the direction.
func (d SortDirection) SQL() string {
	if d == SortAscending {
		return "ASC"
	}
	return "DESC"
}

// OnchainActivity is a confirmed or pending on-chain payment record.
//
// CreatedAt and UpdatedAt are server-assigned: both are set on first
// insert and UpdatedAt advances on every mutation. They are nil on values
// that have not yet been persisted.
type OnchainActivity struct {
	ID               string      `json:"id" yaml:"id"`
	TxType           PaymentType `json:"tx_type" yaml:"tx_type"`
	TxID             string      `json:"tx_id" yaml:"tx_id"`
	Value            uint64      `json:"value" yaml:"value"`
	Fee              uint64      `json:"fee" yaml:"fee"`
	FeeRate          uint64      `json:"fee_rate" yaml:"fee_rate"`
	Address          string      `json:"address" yaml:"address"`
	Confirmed        bool        `json:"confirmed" yaml:"confirmed"`
	Timestamp        uint64      `json:"timestamp" yaml:"timestamp"`
	IsBoosted        bool        `json:"is_boosted" yaml:"is_boosted"`
	BoostTxIDs       []string    `json:"boost_tx_ids" yaml:"boost_tx_ids"`
	IsTransfer       bool        `json:"is_transfer" yaml:"is_transfer"`
	DoesExist        bool        `json:"does_exist" yaml:"does_exist"`
	ConfirmTimestamp *uint64     `json:"confirm_timestamp,omitempty" yaml:"confirm_timestamp,omitempty"`
	ChannelID        *string     `json:"channel_id,omitempty" yaml:"channel_id,omitempty"`
	TransferTxID     *string     `json:"transfer_tx_id,omitempty" yaml:"transfer_tx_id,omitempty"`
	CreatedAt        *uint64     `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt        *uint64     `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// LightningActivity is a lightning payment record keyed by the same
// identity table as onchain activities.
type LightningActivity struct {
	ID        string       `json:"id" yaml:"id"`
	TxType    PaymentType  `json:"tx_type" yaml:"tx_type"`
	Status    PaymentState `json:"status" yaml:"status"`
	Value     uint64       `json:"value" yaml:"value"`
	Fee       *uint64      `json:"fee,omitempty" yaml:"fee,omitempty"`
	Invoice   string       `json:"invoice" yaml:"invoice"`
	Message   string       `json:"message" yaml:"message"`
	Timestamp uint64       `json:"timestamp" yaml:"timestamp"`
	Preimage  *string      `json:"preimage,omitempty" yaml:"preimage,omitempty"`
	CreatedAt *uint64      `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt *uint64      `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Activity is the closed union of the two variants. Exactly one of the
// fields is non-nil on any value produced by the store.
type Activity struct {
	Onchain   *OnchainActivity   `json:"onchain,omitempty" yaml:"onchain,omitempty"`
	Lightning *LightningActivity `json:"lightning,omitempty" yaml:"lightning,omitempty"`
}

// ID returns the identity shared by both variants.
func (a Activity) ID() string {
	if a.Onchain != nil {
		return a.Onchain.ID
	}
	if a.Lightning != nil {
		return a.Lightning.ID
	}
	return ""
}

// Type returns the variant discriminator.
func (a Activity) Type() Type {
	if a.Onchain != nil {
		return TypeOnchain
	}
	return TypeLightning
}

// Timestamp returns the payment timestamp of whichever variant is set.
func (a Activity) Timestamp() uint64 {
	if a.Onchain != nil {
		return a.Onchain.Timestamp
	}
	if a.Lightning != nil {
		return a.Lightning.Timestamp
	}
	return 0
}

// CreatedAt returns the server-assigned creation time, if persisted.
func (a Activity) CreatedAt() *uint64 {
	if a.Onchain != nil {
		return a.Onchain.CreatedAt
	}
	if a.Lightning != nil {
		return a.Lightning.CreatedAt
	}
	return nil
}

// UpdatedAt returns the server-assigned last mutation time, if persisted.
func (a Activity) UpdatedAt() *uint64 {
	if a.Onchain != nil {
		return a.Onchain.UpdatedAt
	}
	if a.Lightning != nil {
		return a.Lightning.UpdatedAt
	}
	return nil
}

// ActivityTags pairs an activity with its labels, used by the bulk tag
// upsert and backup paths.
type ActivityTags struct {
	ActivityID string   `json:"activity_id" yaml:"activity_id"`
	Tags       []string `json:"tags" yaml:"tags"`
}

// PreActivityMetadata holds tags and routing hints recorded against a
// payment identifier (address, invoice, or payment hash) before the
// matching activity exists. It is consumed exactly once when that
// activity is inserted.
//
// A FeeRate of zero means "no override"; IsTransfer false likewise. At
// most one row may carry a given non-empty Address at a time.
type PreActivityMetadata struct {
	PaymentID   string   `json:"payment_id" yaml:"payment_id"`
	Tags        []string `json:"tags" yaml:"tags"`
	PaymentHash *string  `json:"payment_hash,omitempty" yaml:"payment_hash,omitempty"`
	TxID        *string  `json:"tx_id,omitempty" yaml:"tx_id,omitempty"`
	Address     *string  `json:"address,omitempty" yaml:"address,omitempty"`
	IsReceive   bool     `json:"is_receive" yaml:"is_receive"`
	FeeRate     uint64   `json:"fee_rate" yaml:"fee_rate"`
	IsTransfer  bool     `json:"is_transfer" yaml:"is_transfer"`
	ChannelID   *string  `json:"channel_id,omitempty" yaml:"channel_id,omitempty"`
	CreatedAt   uint64   `json:"created_at" yaml:"created_at"`
}

// ClosedChannelDetails is the final record of a terminated payment
// channel. It has no relationship to the activity tables.
type ClosedChannelDetails struct {
	ChannelID                                string `json:"channel_id" yaml:"channel_id"`
	CounterpartyNodeID                       string `json:"counterparty_node_id" yaml:"counterparty_node_id"`
	FundingTxoTxID                           string `json:"funding_txo_txid" yaml:"funding_txo_txid"`
	FundingTxoIndex                          uint32 `json:"funding_txo_index" yaml:"funding_txo_index"`
	ChannelValueSats                         uint64 `json:"channel_value_sats" yaml:"channel_value_sats"`
	ClosedAt                                 uint64 `json:"closed_at" yaml:"closed_at"`
	OutboundCapacityMsat                     uint64 `json:"outbound_capacity_msat" yaml:"outbound_capacity_msat"`
	InboundCapacityMsat                      uint64 `json:"inbound_capacity_msat" yaml:"inbound_capacity_msat"`
	CounterpartyUnspendablePunishmentReserve uint64 `json:"counterparty_unspendable_punishment_reserve" yaml:"counterparty_unspendable_punishment_reserve"`
	UnspendablePunishmentReserve             uint64 `json:"unspendable_punishment_reserve" yaml:"unspendable_punishment_reserve"`
	ForwardingFeeProportionalMillionths      uint32 `json:"forwarding_fee_proportional_millionths" yaml:"forwarding_fee_proportional_millionths"`
	ForwardingFeeBaseMsat                    uint32 `json:"forwarding_fee_base_msat" yaml:"forwarding_fee_base_msat"`
	ChannelName                              string `json:"channel_name" yaml:"channel_name"`
	ChannelClosureReason                     string `json:"channel_closure_reason" yaml:"channel_closure_reason"`
}
