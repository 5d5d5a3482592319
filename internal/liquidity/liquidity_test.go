package liquidity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLSPBalance_LowClient(t *testing.T) {
	result := DefaultLSPBalance(DefaultBalanceParams{
		ClientBalanceSat:  10_000,
		MaxChannelSizeSat: 1_000_000,
		SatsPerEUR:        1000,
	})

	// Low client balance gets the default target minus the client share,
	// capped at the channel size: 450 EUR * 1000 - 10k, capped to 1M.
	assert.Equal(t, uint64(440_000), result)
}

func TestDefaultLSPBalance_MidClient(t *testing.T) {
	// Between the two thresholds the suggestion matches the client
	// balance for a roughly balanced channel.
	result := DefaultLSPBalance(DefaultBalanceParams{
		ClientBalanceSat:  300_000,
		MaxChannelSizeSat: 1_000_000,
		SatsPerEUR:        1000,
	})
	assert.Equal(t, uint64(300_000), result)
}

func TestDefaultLSPBalance_HighClient(t *testing.T) {
	// Above the upper threshold the suggestion is the maximum size.
	result := DefaultLSPBalance(DefaultBalanceParams{
		ClientBalanceSat:  500_000,
		MaxChannelSizeSat: 1_000_000,
		SatsPerEUR:        1000,
	})
	assert.Equal(t, uint64(1_000_000), result)
}

func TestCalculateChannelOptions(t *testing.T) {
	result := CalculateChannelOptions(ChannelParams{
		ClientBalanceSat:         50_000,
		ExistingChannelsTotalSat: 0,
		MinChannelSizeSat:        25_000,
		MaxChannelSizeSat:        1_000_000,
		SatsPerEUR:               1000,
	})

	assert.Greater(t, result.MinLSPBalanceSat, uint64(0))
	assert.Greater(t, result.MaxLSPBalanceSat, result.MinLSPBalanceSat)
	assert.Greater(t, result.MaxClientBalanceSat, uint64(0))

	// 2% fee buffer: max channel 980k, minus the client's 50k.
	assert.Equal(t, uint64(930_000), result.MaxLSPBalanceSat)
	// Min is the LDK reserve, 2.5% of the client balance, since the
	// channel minimum is already covered by the client's own funds.
	assert.Equal(t, uint64(1_250), result.MinLSPBalanceSat)
	// Default target 450 EUR minus client share.
	assert.Equal(t, uint64(400_000), result.DefaultLSPBalanceSat)
	assert.Equal(t, uint64(955_500), result.MaxClientBalanceSat)
}

func TestCalculateChannelOptions_ExistingChannelsDeducted(t *testing.T) {
	result := CalculateChannelOptions(ChannelParams{
		ClientBalanceSat:         0,
		ExistingChannelsTotalSat: 900_000,
		MinChannelSizeSat:        25_000,
		MaxChannelSizeSat:        1_000_000,
		SatsPerEUR:               1000,
	})

	// 980k buffered cap minus 900k existing leaves 80k.
	assert.Equal(t, uint64(80_000), result.MaxLSPBalanceSat)
	// Default is clamped to what remains.
	assert.Equal(t, uint64(80_000), result.DefaultLSPBalanceSat)
}

func TestSaturatingSub(t *testing.T) {
	assert.Equal(t, uint64(0), saturatingSub(1, 2))
	assert.Equal(t, uint64(3), saturatingSub(5, 2))
}
