package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
	"github.com/BitcoinErrorLog/bitkit-core/internal/store"
)

// NewChannelsCommand creates the channels command group for closed
// channel records.
func NewChannelsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Inspect closed payment channel records",
	}

	var ascending bool
	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List closed channels, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sort := activity.SortDescending
			if ascending {
				sort = activity.SortAscending
			}
			return withStore(rootOpts, func(s *store.Store) error {
				channels, err := s.AllClosedChannels(cmd.Context(), sort)
				if err != nil {
					return WrapExitError(ExitFailure, "list closed channels", err)
				}

				f := rootOpts.formatter(cmd)
				if f.JSON() {
					return f.Success(channels)
				}
				for i := range channels {
					c := &channels[i]
					fmt.Fprintf(cmd.OutOrStdout(), "%s  closed %s  %s\n",
						c.ChannelID, formatUnix(c.ClosedAt), FormatSats(c.ChannelValueSats))
				}
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&ascending, "asc", false, "oldest first")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:           "show <channel-id>",
		Short:         "Show one closed channel record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(s *store.Store) error {
				c, err := s.ClosedChannelByID(cmd.Context(), args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "read closed channel", err)
				}
				if c == nil {
					return NewExitError(ExitFailure, fmt.Sprintf("no closed channel %q", args[0]))
				}

				f := rootOpts.formatter(cmd)
				if f.JSON() {
					return f.Success(c)
				}
				printClosedChannel(cmd.OutOrStdout(), c)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "remove <channel-id>",
		Short:         "Remove one closed channel record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(s *store.Store) error {
				removed, err := s.RemoveClosedChannelByID(cmd.Context(), args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "remove closed channel", err)
				}
				if !removed {
					return NewExitError(ExitFailure, fmt.Sprintf("no closed channel %q", args[0]))
				}
				return rootOpts.formatter(cmd).Success(fmt.Sprintf("removed %s", args[0]))
			})
		},
	})

	return cmd
}

func printClosedChannel(out io.Writer, c *activity.ClosedChannelDetails) {
	fmt.Fprintf(out, "Channel:          %s\n", c.ChannelID)
	if c.ChannelName != "" {
		fmt.Fprintf(out, "Name:             %s\n", c.ChannelName)
	}
	fmt.Fprintf(out, "Counterparty:     %s\n", c.CounterpartyNodeID)
	fmt.Fprintf(out, "Funding:          %s:%d\n", c.FundingTxoTxID, c.FundingTxoIndex)
	fmt.Fprintf(out, "Value:            %s\n", FormatSats(c.ChannelValueSats))
	fmt.Fprintf(out, "Closed:           %s\n", formatUnix(c.ClosedAt))
	fmt.Fprintf(out, "Outbound (msat):  %d\n", c.OutboundCapacityMsat)
	fmt.Fprintf(out, "Inbound (msat):   %d\n", c.InboundCapacityMsat)
	if c.ChannelClosureReason != "" {
		fmt.Fprintf(out, "Closure reason:   %s\n", c.ChannelClosureReason)
	}
}
