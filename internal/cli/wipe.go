package cli

import (
	"github.com/spf13/cobra"

	"github.com/BitcoinErrorLog/bitkit-core/internal/store"
)

// NewWipeCommand creates the wipe command. It refuses to run without
// the --yes flag.
func NewWipeCommand(rootOpts *RootOptions) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:           "wipe",
		Short:         "Delete every activity, tag, metadata row, and closed channel record",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return NewExitError(ExitCommandError, "refusing to wipe without --yes")
			}
			return withStore(rootOpts, func(s *store.Store) error {
				if err := s.WipeAll(cmd.Context()); err != nil {
					return WrapExitError(ExitFailure, "wipe ledger", err)
				}
				return rootOpts.formatter(cmd).Success("ledger wiped")
			})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the wipe")

	return cmd
}
