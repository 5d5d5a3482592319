package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BitcoinErrorLog/bitkit-core/internal/store"
)

// NewTagCommand creates the tag command group.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage activity tags",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "add <activity-id> <tag>...",
		Short:         "Attach tags to an activity",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(s *store.Store) error {
				if err := s.AddTags(cmd.Context(), args[0], args[1:]); err != nil {
					return WrapExitError(ExitFailure, "add tags", err)
				}
				return rootOpts.formatter(cmd).Success(
					fmt.Sprintf("tagged %s: %s", args[0], strings.Join(args[1:], ", ")))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "remove <activity-id> <tag>...",
		Short:         "Detach tags from an activity",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(s *store.Store) error {
				if err := s.RemoveTags(cmd.Context(), args[0], args[1:]); err != nil {
					return WrapExitError(ExitFailure, "remove tags", err)
				}
				return rootOpts.formatter(cmd).Success(
					fmt.Sprintf("untagged %s: %s", args[0], strings.Join(args[1:], ", ")))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "list [activity-id]",
		Short:         "List tags for one activity, or every distinct tag",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(s *store.Store) error {
				var tags []string
				var err error
				if len(args) == 1 {
					tags, err = s.Tags(cmd.Context(), args[0])
				} else {
					tags, err = s.AllUniqueTags(cmd.Context())
				}
				if err != nil {
					return WrapExitError(ExitFailure, "list tags", err)
				}

				f := rootOpts.formatter(cmd)
				if f.JSON() {
					return f.Success(tags)
				}
				for _, tag := range tags {
					fmt.Fprintln(cmd.OutOrStdout(), tag)
				}
				return nil
			})
		},
	})

	return cmd
}
