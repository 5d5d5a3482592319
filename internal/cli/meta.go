package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
	"github.com/BitcoinErrorLog/bitkit-core/internal/store"
)

// MetaAddOptions holds the flags for "meta add".
type MetaAddOptions struct {
	Tags        []string
	PaymentHash string
	TxID        string
	Address     string
	ChannelID   string
	FeeRate     uint64
	IsReceive   bool
	IsTransfer  bool
}

// NewMetaCommand creates the meta command group for pending payment
// metadata.
func NewMetaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Manage metadata recorded before a payment appears in the ledger",
	}

	cmd.AddCommand(newMetaAddCommand(rootOpts))
	cmd.AddCommand(newMetaShowCommand(rootOpts))
	cmd.AddCommand(newMetaListCommand(rootOpts))
	cmd.AddCommand(newMetaDeleteCommand(rootOpts))
	cmd.AddCommand(newMetaTagCommand(rootOpts))

	return cmd
}

func newMetaAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MetaAddOptions{}

	cmd := &cobra.Command{
		Use:           "add <payment-id>",
		Short:         "Record metadata for a payment that has not reached the ledger yet",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := &activity.PreActivityMetadata{
				PaymentID:  args[0],
				Tags:       opts.Tags,
				IsReceive:  opts.IsReceive,
				FeeRate:    opts.FeeRate,
				IsTransfer: opts.IsTransfer,
				CreatedAt:  uint64(time.Now().Unix()),
			}
			if opts.PaymentHash != "" {
				m.PaymentHash = &opts.PaymentHash
			}
			if opts.TxID != "" {
				m.TxID = &opts.TxID
			}
			if opts.Address != "" {
				m.Address = &opts.Address
			}
			if opts.ChannelID != "" {
				m.ChannelID = &opts.ChannelID
			}

			return withStore(rootOpts, func(s *store.Store) error {
				if err := s.AddMetadata(cmd.Context(), m); err != nil {
					return WrapExitError(ExitFailure, "add metadata", err)
				}
				return rootOpts.formatter(cmd).Success(fmt.Sprintf("recorded metadata for %s", args[0]))
			})
		},
	}

	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "tag to carry onto the activity (repeatable)")
	cmd.Flags().StringVar(&opts.PaymentHash, "payment-hash", "", "lightning payment hash")
	cmd.Flags().StringVar(&opts.TxID, "tx-id", "", "onchain transaction id")
	cmd.Flags().StringVar(&opts.Address, "address", "", "onchain receive address")
	cmd.Flags().StringVar(&opts.ChannelID, "channel-id", "", "channel funded by the payment")
	cmd.Flags().Uint64Var(&opts.FeeRate, "fee-rate", 0, "intended fee rate in sat/vB")
	cmd.Flags().BoolVar(&opts.IsReceive, "receive", false, "payment is incoming")
	cmd.Flags().BoolVar(&opts.IsTransfer, "transfer", false, "payment moves funds between the wallet's own layers")

	return cmd
}

func newMetaShowCommand(rootOpts *RootOptions) *cobra.Command {
	var byAddress bool

	cmd := &cobra.Command{
		Use:           "show <payment-id|address>",
		Short:         "Show metadata by payment id, or by address with --by-address",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(s *store.Store) error {
				m, err := s.Metadata(cmd.Context(), args[0], byAddress)
				if err != nil {
					return WrapExitError(ExitFailure, "read metadata", err)
				}
				if m == nil {
					return NewExitError(ExitFailure, fmt.Sprintf("no metadata for %q", args[0]))
				}

				f := rootOpts.formatter(cmd)
				if f.JSON() {
					return f.Success(m)
				}
				printMetadata(cmd.OutOrStdout(), m)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&byAddress, "by-address", false, "look up by receive address instead of payment id")

	return cmd
}

func newMetaListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all pending payment metadata",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(s *store.Store) error {
				all, err := s.AllMetadata(cmd.Context())
				if err != nil {
					return WrapExitError(ExitFailure, "list metadata", err)
				}

				f := rootOpts.formatter(cmd)
				if f.JSON() {
					return f.Success(all)
				}
				for i := range all {
					m := &all[i]
					fmt.Fprintf(cmd.OutOrStdout(), "%s  tags=[%s]\n", m.PaymentID, strings.Join(m.Tags, ", "))
				}
				return nil
			})
		},
	}
}

func newMetaDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <payment-id>",
		Short:         "Delete metadata for a payment id",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(s *store.Store) error {
				if err := s.DeleteMetadata(cmd.Context(), args[0]); err != nil {
					return WrapExitError(ExitFailure, "delete metadata", err)
				}
				return rootOpts.formatter(cmd).Success(fmt.Sprintf("deleted metadata for %s", args[0]))
			})
		},
	}
}

func printMetadata(out io.Writer, m *activity.PreActivityMetadata) {
	fmt.Fprintf(out, "Payment ID:  %s\n", m.PaymentID)
	fmt.Fprintf(out, "Tags:        %s\n", strings.Join(m.Tags, ", "))
	if m.PaymentHash != nil {
		fmt.Fprintf(out, "Hash:        %s\n", *m.PaymentHash)
	}
	if m.TxID != nil {
		fmt.Fprintf(out, "TxID:        %s\n", *m.TxID)
	}
	if m.Address != nil {
		fmt.Fprintf(out, "Address:     %s\n", *m.Address)
	}
	if m.ChannelID != nil {
		fmt.Fprintf(out, "Channel:     %s\n", *m.ChannelID)
	}
	fmt.Fprintf(out, "Receive:     %t\n", m.IsReceive)
	fmt.Fprintf(out, "Transfer:    %t\n", m.IsTransfer)
	if m.FeeRate > 0 {
		fmt.Fprintf(out, "Fee rate:    %d sat/vB\n", m.FeeRate)
	}
	fmt.Fprintf(out, "Created:     %s\n", formatUnix(m.CreatedAt))
}

func newMetaTagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags on pending payment metadata",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "add <payment-id> <tag>...",
		Short:         "Append tags to existing metadata",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(s *store.Store) error {
				if err := s.AddMetadataTags(cmd.Context(), args[0], args[1:]); err != nil {
					return WrapExitError(ExitFailure, "add metadata tags", err)
				}
				return rootOpts.formatter(cmd).Success(
					fmt.Sprintf("tagged %s: %s", args[0], strings.Join(args[1:], ", ")))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "remove <payment-id> <tag>...",
		Short:         "Remove tags from metadata",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(s *store.Store) error {
				if err := s.RemoveMetadataTags(cmd.Context(), args[0], args[1:]); err != nil {
					return WrapExitError(ExitFailure, "remove metadata tags", err)
				}
				return rootOpts.formatter(cmd).Success(
					fmt.Sprintf("untagged %s: %s", args[0], strings.Join(args[1:], ", ")))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "reset <payment-id>",
		Short:         "Clear all tags on metadata",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(s *store.Store) error {
				if err := s.ResetMetadataTags(cmd.Context(), args[0]); err != nil {
					return WrapExitError(ExitFailure, "reset metadata tags", err)
				}
				return rootOpts.formatter(cmd).Success(fmt.Sprintf("cleared tags for %s", args[0]))
			})
		},
	})

	return cmd
}
