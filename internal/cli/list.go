package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
	"github.com/BitcoinErrorLog/bitkit-core/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Filter    string
	TxType    string
	Tags      []string
	Search    string
	MinDate   uint64
	MaxDate   uint64
	Limit     int64
	Ascending bool
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts, Limit: -1}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities matching the given filters",
		Long: `List activities matching the conjunction of all given filters,
ordered by payment timestamp.

Example:
  bitkit-ledger list --filter onchain --tag coffee --limit 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "all", "variant filter (all|onchain|lightning)")
	cmd.Flags().StringVar(&opts.TxType, "type", "", "direction filter (sent|received)")
	cmd.Flags().StringArrayVar(&opts.Tags, "tag", nil, "tag filter, repeatable (matches any)")
	cmd.Flags().StringVar(&opts.Search, "search", "", "substring match on address, invoice, or message")
	cmd.Flags().Uint64Var(&opts.MinDate, "min-date", 0, "inclusive lower timestamp bound (unix seconds)")
	cmd.Flags().Uint64Var(&opts.MaxDate, "max-date", 0, "inclusive upper timestamp bound (unix seconds)")
	cmd.Flags().Int64Var(&opts.Limit, "limit", -1, "maximum number of results (-1 for all)")
	cmd.Flags().BoolVar(&opts.Ascending, "asc", false, "oldest first")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	q, err := buildQuery(opts)
	if err != nil {
		return err
	}

	s, logger, err := opts.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	defer logger.Sync()

	activities, err := s.Activities(cmd.Context(), q)
	if err != nil {
		return WrapExitError(ExitFailure, "query activities", err)
	}

	f := opts.formatter(cmd)
	if f.JSON() {
		return f.Success(activities)
	}

	if len(activities) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no activities")
		return nil
	}
	for _, a := range activities {
		fmt.Fprintln(cmd.OutOrStdout(), formatActivityLine(a))
	}
	return nil
}

func buildQuery(opts *ListOptions) (store.Query, error) {
	var q store.Query

	switch opts.Filter {
	case "all", "":
		q.Filter = activity.FilterAll
	case "onchain":
		q.Filter = activity.FilterOnchain
	case "lightning":
		q.Filter = activity.FilterLightning
	default:
		return q, NewExitError(ExitCommandError,
			fmt.Sprintf("invalid --filter %q: must be all, onchain, or lightning", opts.Filter))
	}

	if opts.TxType != "" {
		pt, err := activity.ParsePaymentType(opts.TxType)
		if err != nil {
			return q, WrapExitError(ExitCommandError, "invalid --type", err)
		}
		q.PaymentType = &pt
	}

	q.Tags = opts.Tags
	q.Search = opts.Search
	if opts.MinDate > 0 {
		min := opts.MinDate
		q.MinDate = &min
	}
	if opts.MaxDate > 0 {
		max := opts.MaxDate
		q.MaxDate = &max
	}
	if opts.Limit >= 0 {
		limit := opts.Limit
		q.Limit = &limit
	}
	if opts.Ascending {
		q.Sort = activity.SortAscending
	}

	return q, nil
}

func formatActivityLine(a activity.Activity) string {
	ts := time.Unix(int64(a.Timestamp()), 0).UTC().Format("2006-01-02 15:04")

	switch {
	case a.Onchain != nil:
		oc := a.Onchain
		status := "unconfirmed"
		if oc.Confirmed {
			status = "confirmed"
		}
		return fmt.Sprintf("%s  %-9s  onchain    %-8s  %14s  %s",
			ts, oc.TxType, status, FormatSats(oc.Value), oc.ID)
	case a.Lightning != nil:
		ln := a.Lightning
		return fmt.Sprintf("%s  %-9s  lightning  %-8s  %14s  %s",
			ts, ln.TxType, ln.Status, FormatSats(ln.Value), ln.ID)
	}
	return a.ID()
}
