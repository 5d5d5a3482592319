package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BitcoinErrorLog/bitkit-core/internal/liquidity"
)

// NewLiquidityCommand creates the liquidity command group. These
// commands are pure calculations and never touch the database.
func NewLiquidityCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liquidity",
		Short: "Suggest LSP channel balances",
	}

	cmd.AddCommand(newLiquidityOptionsCommand(rootOpts))
	cmd.AddCommand(newLiquidityDefaultCommand(rootOpts))

	return cmd
}

func newLiquidityOptionsCommand(rootOpts *RootOptions) *cobra.Command {
	params := liquidity.ChannelParams{}

	cmd := &cobra.Command{
		Use:           "options",
		Short:         "Compute default, min, and max LSP balance for a channel open",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if params.SatsPerEUR == 0 {
				return NewExitError(ExitCommandError, "--sats-per-eur must be positive")
			}
			opts := liquidity.CalculateChannelOptions(params)

			f := rootOpts.formatter(cmd)
			if f.JSON() {
				return f.Success(opts)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Default LSP balance:  %s\n", FormatSats(opts.DefaultLSPBalanceSat))
			fmt.Fprintf(out, "Min LSP balance:      %s\n", FormatSats(opts.MinLSPBalanceSat))
			fmt.Fprintf(out, "Max LSP balance:      %s\n", FormatSats(opts.MaxLSPBalanceSat))
			fmt.Fprintf(out, "Max client balance:   %s\n", FormatSats(opts.MaxClientBalanceSat))
			return nil
		},
	}

	cmd.Flags().Uint64Var(&params.ClientBalanceSat, "client-balance", 0, "client-side balance in sats")
	cmd.Flags().Uint64Var(&params.ExistingChannelsTotalSat, "existing-channels", 0, "total capacity of existing channels in sats")
	cmd.Flags().Uint64Var(&params.MinChannelSizeSat, "min-channel-size", 0, "LSP minimum channel size in sats")
	cmd.Flags().Uint64Var(&params.MaxChannelSizeSat, "max-channel-size", 0, "LSP maximum channel size in sats")
	cmd.Flags().Uint64Var(&params.SatsPerEUR, "sats-per-eur", 0, "current sats per EUR rate")

	return cmd
}

func newLiquidityDefaultCommand(rootOpts *RootOptions) *cobra.Command {
	params := liquidity.DefaultBalanceParams{}

	cmd := &cobra.Command{
		Use:           "default",
		Short:         "Compute the default LSP balance for a just-in-time channel",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if params.SatsPerEUR == 0 {
				return NewExitError(ExitCommandError, "--sats-per-eur must be positive")
			}
			balance := liquidity.DefaultLSPBalance(params)

			f := rootOpts.formatter(cmd)
			if f.JSON() {
				return f.Success(map[string]uint64{"default_lsp_balance_sat": balance})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default LSP balance:  %s\n", FormatSats(balance))
			return nil
		},
	}

	cmd.Flags().Uint64Var(&params.ClientBalanceSat, "client-balance", 0, "client-side balance in sats")
	cmd.Flags().Uint64Var(&params.MaxChannelSizeSat, "max-channel-size", 0, "LSP maximum channel size in sats")
	cmd.Flags().Uint64Var(&params.SatsPerEUR, "sats-per-eur", 0, "current sats per EUR rate")

	return cmd
}
