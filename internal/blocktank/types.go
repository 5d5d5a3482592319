package blocktank

import "encoding/json"

// DefaultAPIURL is the production LSP endpoint.
const DefaultAPIURL = "https://api1.blocktank.to/api"

// OrderState is the coarse lifecycle of a channel order.
type OrderState string

const (
	OrderCreated OrderState = "Created"
	OrderExpired OrderState = "Expired"
	OrderOpen    OrderState = "Open"
	OrderClosed  OrderState = "Closed"
)

// OrderState2 is the finer-grained order state reported by the service.
// Empty means the service did not report one.
type OrderState2 string

const (
	Order2Created  OrderState2 = "Created"
	Order2Paid     OrderState2 = "Paid"
	Order2Executed OrderState2 = "Executed"
	Order2Expired  OrderState2 = "Expired"
)

// CJitState is the lifecycle of a channel-just-in-time entry.
type CJitState string

const (
	CJitCreated   CJitState = "Created"
	CJitCompleted CJitState = "Completed"
	CJitExpired   CJitState = "Expired"
	CJitFailed    CJitState = "Failed"
)

// Order is a channel order as returned by the LSP. Timestamps are the
// service's ISO 8601 strings, stored verbatim; their lexicographic order
// is their chronological order.
type Order struct {
	ID                 string          `json:"id" yaml:"id"`
	State              OrderState      `json:"state" yaml:"state"`
	State2             OrderState2     `json:"state2,omitempty" yaml:"state2,omitempty"`
	FeeSat             uint64          `json:"fee_sat" yaml:"fee_sat"`
	NetworkFeeSat      uint64          `json:"network_fee_sat" yaml:"network_fee_sat"`
	ServiceFeeSat      uint64          `json:"service_fee_sat" yaml:"service_fee_sat"`
	LSPBalanceSat      uint64          `json:"lsp_balance_sat" yaml:"lsp_balance_sat"`
	ClientBalanceSat   uint64          `json:"client_balance_sat" yaml:"client_balance_sat"`
	ZeroConf           bool            `json:"zero_conf" yaml:"zero_conf"`
	ZeroReserve        bool            `json:"zero_reserve" yaml:"zero_reserve"`
	ClientNodeID       *string         `json:"client_node_id,omitempty" yaml:"client_node_id,omitempty"`
	ChannelExpiryWeeks uint32          `json:"channel_expiry_weeks" yaml:"channel_expiry_weeks"`
	ChannelExpiresAt   string          `json:"channel_expires_at" yaml:"channel_expires_at"`
	OrderExpiresAt     string          `json:"order_expires_at" yaml:"order_expires_at"`
	LNURL              *string         `json:"lnurl,omitempty" yaml:"lnurl,omitempty"`
	CouponCode         *string         `json:"coupon_code,omitempty" yaml:"coupon_code,omitempty"`
	Source             *string         `json:"source,omitempty" yaml:"source,omitempty"`
	Channel            json.RawMessage `json:"channel,omitempty" yaml:"channel,omitempty"`
	LSPNode            json.RawMessage `json:"lsp_node,omitempty" yaml:"lsp_node,omitempty"`
	Payment            json.RawMessage `json:"payment,omitempty" yaml:"payment,omitempty"`
	Discount           json.RawMessage `json:"discount,omitempty" yaml:"discount,omitempty"`
	UpdatedAt          string          `json:"updated_at" yaml:"updated_at"`
	CreatedAt          string          `json:"created_at" yaml:"created_at"`
}

// CJitEntry is a channel-just-in-time reservation as returned by the
// LSP.
type CJitEntry struct {
	ID                 string          `json:"id" yaml:"id"`
	State              CJitState       `json:"state" yaml:"state"`
	FeeSat             uint64          `json:"fee_sat" yaml:"fee_sat"`
	NetworkFeeSat      uint64          `json:"network_fee_sat" yaml:"network_fee_sat"`
	ServiceFeeSat      uint64          `json:"service_fee_sat" yaml:"service_fee_sat"`
	ChannelSizeSat     uint64          `json:"channel_size_sat" yaml:"channel_size_sat"`
	ChannelExpiryWeeks uint32          `json:"channel_expiry_weeks" yaml:"channel_expiry_weeks"`
	ChannelOpenError   *string         `json:"channel_open_error,omitempty" yaml:"channel_open_error,omitempty"`
	NodeID             string          `json:"node_id" yaml:"node_id"`
	CouponCode         string          `json:"coupon_code" yaml:"coupon_code"`
	Source             *string         `json:"source,omitempty" yaml:"source,omitempty"`
	ExpiresAt          string          `json:"expires_at" yaml:"expires_at"`
	Invoice            json.RawMessage `json:"invoice,omitempty" yaml:"invoice,omitempty"`
	Channel            json.RawMessage `json:"channel,omitempty" yaml:"channel,omitempty"`
	LSPNode            json.RawMessage `json:"lsp_node,omitempty" yaml:"lsp_node,omitempty"`
	Discount           json.RawMessage `json:"discount,omitempty" yaml:"discount,omitempty"`
	UpdatedAt          string          `json:"updated_at" yaml:"updated_at"`
	CreatedAt          string          `json:"created_at" yaml:"created_at"`
}

// Info is the LSP service information document. Exactly one row is
// current at a time; upserting replaces the current one.
type Info struct {
	Version  uint32          `json:"version" yaml:"version"`
	Nodes    json.RawMessage `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Options  json.RawMessage `json:"options,omitempty" yaml:"options,omitempty"`
	Versions json.RawMessage `json:"versions,omitempty" yaml:"versions,omitempty"`
	Onchain  json.RawMessage `json:"onchain,omitempty" yaml:"onchain,omitempty"`
}
