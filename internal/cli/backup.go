package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BitcoinErrorLog/bitkit-core/internal/backup"
	"github.com/BitcoinErrorLog/bitkit-core/internal/store"
)

// NewBackupCommand creates the backup command group.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and import ledger snapshots",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "export <path>",
		Short:         "Write a full snapshot of the ledger to a YAML file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(s *store.Store) error {
				if err := backup.WriteFile(cmd.Context(), s, args[0]); err != nil {
					return WrapExitError(ExitFailure, "export snapshot", err)
				}
				return rootOpts.formatter(cmd).Success(fmt.Sprintf("exported snapshot to %s", args[0]))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "import <path>",
		Short:         "Merge a snapshot file into the ledger",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(s *store.Store) error {
				if err := backup.ReadFile(cmd.Context(), s, args[0]); err != nil {
					return WrapExitError(ExitFailure, "import snapshot", err)
				}
				return rootOpts.formatter(cmd).Success(fmt.Sprintf("imported snapshot from %s", args[0]))
			})
		},
	})

	return cmd
}
