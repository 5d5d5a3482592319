// Package liquidity computes suggested LSP channel balances from the
// wallet's fiat-denominated sizing thresholds.
package liquidity

// Fiat thresholds for channel sizing, in EUR.
const (
	threshold1EUR       uint64 = 225
	threshold2EUR       uint64 = 495
	defaultLSPTargetEUR uint64 = 450
)

const (
	// LSP limits fluctuate with network fees; leave 2% headroom.
	maxChannelSizeBufferPercent = 0.98
	// LDK requires a 2.5% remote reserve.
	ldkReservePercent = 0.025
)

// ChannelOptions are the suggested balance bounds for a new channel.
type ChannelOptions struct {
	DefaultLSPBalanceSat uint64 `json:"default_lsp_balance_sat"`
	MinLSPBalanceSat     uint64 `json:"min_lsp_balance_sat"`
	MaxLSPBalanceSat     uint64 `json:"max_lsp_balance_sat"`
	MaxClientBalanceSat  uint64 `json:"max_client_balance_sat"`
}

// ChannelParams are the inputs for a normal channel-open suggestion.
type ChannelParams struct {
	ClientBalanceSat         uint64 `json:"client_balance_sat"`
	ExistingChannelsTotalSat uint64 `json:"existing_channels_total_sat"`
	MinChannelSizeSat        uint64 `json:"min_channel_size_sat"`
	MaxChannelSizeSat        uint64 `json:"max_channel_size_sat"`
	SatsPerEUR               uint64 `json:"sats_per_eur"`
}

// DefaultBalanceParams are the inputs for the simpler CJIT suggestion,
// which has no existing-channel deduction or fee buffer.
type DefaultBalanceParams struct {
	ClientBalanceSat  uint64 `json:"client_balance_sat"`
	MaxChannelSizeSat uint64 `json:"max_channel_size_sat"`
	SatsPerEUR        uint64 `json:"sats_per_eur"`
}

// CalculateChannelOptions computes default, min, and max LSP balance for
// a normal channel open. Existing channel capacity counts against the
// user's total liquidity cap.
func CalculateChannelOptions(params ChannelParams) ChannelOptions {
	threshold1Sat := threshold1EUR * params.SatsPerEUR
	threshold2Sat := threshold2EUR * params.SatsPerEUR
	defaultLSPTargetSat := defaultLSPTargetEUR * params.SatsPerEUR

	maxChannelSizeBuffered := uint64(float64(params.MaxChannelSizeSat) * maxChannelSizeBufferPercent)
	maxChannelSize := saturatingSub(maxChannelSizeBuffered, params.ExistingChannelsTotalSat)

	minLSPBalance := calcMinLSPBalance(params.ClientBalanceSat, params.MinChannelSizeSat)
	maxLSPBalance := saturatingSub(maxChannelSize, params.ClientBalanceSat)
	defaultLSPBalance := calcDefaultLSPBalance(
		params.ClientBalanceSat, maxLSPBalance,
		threshold1Sat, threshold2Sat, defaultLSPTargetSat,
	)

	return ChannelOptions{
		DefaultLSPBalanceSat: defaultLSPBalance,
		MinLSPBalanceSat:     minLSPBalance,
		MaxLSPBalanceSat:     maxLSPBalance,
		MaxClientBalanceSat:  calcMaxClientBalance(maxChannelSize),
	}
}

// DefaultLSPBalance computes just the suggested LSP balance for a CJIT
// channel.
func DefaultLSPBalance(params DefaultBalanceParams) uint64 {
	threshold1Sat := threshold1EUR * params.SatsPerEUR
	threshold2Sat := threshold2EUR * params.SatsPerEUR
	defaultLSPTargetSat := defaultLSPTargetEUR * params.SatsPerEUR

	var lspBalance uint64
	switch {
	case params.ClientBalanceSat > threshold2Sat:
		lspBalance = params.MaxChannelSizeSat
	case params.ClientBalanceSat > threshold1Sat:
		lspBalance = params.ClientBalanceSat
	default:
		lspBalance = saturatingSub(defaultLSPTargetSat, params.ClientBalanceSat)
	}

	return min(lspBalance, params.MaxChannelSizeSat)
}

func calcDefaultLSPBalance(clientBalanceSat, maxLSPBalance, threshold1Sat, threshold2Sat, defaultLSPTargetSat uint64) uint64 {
	var lspBalance uint64
	switch {
	case clientBalanceSat > threshold2Sat:
		lspBalance = maxLSPBalance
	case clientBalanceSat > threshold1Sat:
		lspBalance = clientBalanceSat
	default:
		lspBalance = saturatingSub(defaultLSPTargetSat, clientBalanceSat)
	}
	return min(lspBalance, maxLSPBalance)
}

func calcMinLSPBalance(clientBalanceSat, minChannelSizeSat uint64) uint64 {
	ldkMinimum := uint64(float64(clientBalanceSat) * ldkReservePercent)
	channelMinimum := saturatingSub(minChannelSizeSat, clientBalanceSat)
	return max(ldkMinimum, channelMinimum)
}

func calcMaxClientBalance(maxChannelSize uint64) uint64 {
	minRemoteBalance := uint64(float64(maxChannelSize) * ldkReservePercent)
	return saturatingSub(maxChannelSize, minRemoteBalance)
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
