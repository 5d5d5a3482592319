package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BitcoinErrorLog/bitkit-core/internal/blocktank"
	"github.com/BitcoinErrorLog/bitkit-core/internal/logging"
)

// NewLSPCommand creates the lsp command group for the cached Blocktank
// service state. The cache lives in its own database file.
func NewLSPCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Inspect cached LSP orders, CJIT entries, and service info",
	}

	cmd.AddCommand(newLSPOrdersCommand(rootOpts))
	cmd.AddCommand(newLSPCJitCommand(rootOpts))
	cmd.AddCommand(newLSPInfoCommand(rootOpts))
	cmd.AddCommand(newLSPWipeCommand(rootOpts))

	return cmd
}

// withLSPStore opens the LSP cache for one command invocation and
// closes it afterwards.
func withLSPStore(o *RootOptions, fn func(*blocktank.Store) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "initialize logging", err)
	}
	defer logger.Sync()

	s, err := blocktank.Open(cfg.LSPCacheDir, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "open LSP cache", err)
	}
	defer s.Close()

	return fn(s)
}

func newLSPOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		active bool
		state  string
	)

	cmd := &cobra.Command{
		Use:           "orders [order-id]...",
		Short:         "List cached channel orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if active && state != "" {
				return NewExitError(ExitCommandError, "--active and --state are mutually exclusive")
			}
			return withLSPStore(rootOpts, func(s *blocktank.Store) error {
				var (
					orders []blocktank.Order
					err    error
				)
				switch {
				case active:
					orders, err = s.ActiveOrders(cmd.Context())
				case state != "":
					st := blocktank.OrderState2(state)
					orders, err = s.Orders(cmd.Context(), args, &st)
				default:
					orders, err = s.Orders(cmd.Context(), args, nil)
				}
				if err != nil {
					return WrapExitError(ExitFailure, "list orders", err)
				}

				f := rootOpts.formatter(cmd)
				if f.JSON() {
					return f.Success(orders)
				}
				for i := range orders {
					o := &orders[i]
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s  lsp=%s client=%s  created %s\n",
						o.ID, orderStateLabel(o), FormatSats(o.LSPBalanceSat),
						FormatSats(o.ClientBalanceSat), o.CreatedAt)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&active, "active", false, "only orders still awaiting payment or execution")
	cmd.Flags().StringVar(&state, "state", "", "filter by state (Created|Paid|Executed|Expired)")

	return cmd
}

func newLSPCJitCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		active bool
		state  string
	)

	cmd := &cobra.Command{
		Use:           "cjit [entry-id]...",
		Short:         "List cached just-in-time channel entries",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if active && state != "" {
				return NewExitError(ExitCommandError, "--active and --state are mutually exclusive")
			}
			return withLSPStore(rootOpts, func(s *blocktank.Store) error {
				var (
					entries []blocktank.CJitEntry
					err     error
				)
				switch {
				case active:
					entries, err = s.ActiveCJitEntries(cmd.Context())
				case state != "":
					st := blocktank.CJitState(state)
					entries, err = s.CJitEntries(cmd.Context(), args, &st)
				default:
					entries, err = s.CJitEntries(cmd.Context(), args, nil)
				}
				if err != nil {
					return WrapExitError(ExitFailure, "list CJIT entries", err)
				}

				f := rootOpts.formatter(cmd)
				if f.JSON() {
					return f.Success(entries)
				}
				for i := range entries {
					e := &entries[i]
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s  size=%s  expires %s\n",
						e.ID, string(e.State), FormatSats(e.ChannelSizeSat), e.ExpiresAt)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&active, "active", false, "only entries that can still open a channel")
	cmd.Flags().StringVar(&state, "state", "", "filter by state (Created|Completed|Expired|Failed)")

	return cmd
}

func newLSPInfoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "info",
		Short:         "Show the cached LSP service information document",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLSPStore(rootOpts, func(s *blocktank.Store) error {
				info, err := s.Info(cmd.Context())
				if err != nil {
					return WrapExitError(ExitFailure, "read LSP info", err)
				}
				if info == nil {
					return NewExitError(ExitFailure, "no LSP info cached")
				}

				f := rootOpts.formatter(cmd)
				if f.JSON() {
					return f.Success(info)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Version:  %d\n", info.Version)
				fmt.Fprintf(out, "API URL:  %s\n", s.APIURL())
				return nil
			})
		},
	}
}

func newLSPWipeCommand(rootOpts *RootOptions) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:           "wipe",
		Short:         "Clear all cached orders, CJIT entries, and service info",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return NewExitError(ExitCommandError, "refusing to wipe without --yes")
			}
			return withLSPStore(rootOpts, func(s *blocktank.Store) error {
				if err := s.WipeAll(cmd.Context()); err != nil {
					return WrapExitError(ExitFailure, "wipe LSP cache", err)
				}
				return rootOpts.formatter(cmd).Success("LSP cache wiped")
			})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the wipe")

	return cmd
}

// orderStateLabel prefers the finer-grained state when the service
// reported one.
func orderStateLabel(o *blocktank.Order) string {
	if o.State2 != "" {
		return string(o.State2)
	}
	return string(o.State)
}
