package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BitcoinErrorLog/bitkit-core/internal/activity"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <activity-id>",
		Short:         "Show one activity with its tags",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runShow(opts *RootOptions, id string, cmd *cobra.Command) error {
	s, logger, err := opts.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	defer logger.Sync()

	ctx := cmd.Context()
	a, err := s.ActivityByID(ctx, id)
	if err != nil {
		return WrapExitError(ExitFailure, "get activity", err)
	}
	if a == nil {
		return NewExitError(ExitFailure, fmt.Sprintf("no activity with id %q", id))
	}

	tags, err := s.Tags(ctx, id)
	if err != nil {
		return WrapExitError(ExitFailure, "get tags", err)
	}

	f := opts.formatter(cmd)
	if f.JSON() {
		return f.Success(map[string]any{"activity": a, "tags": tags})
	}

	out := cmd.OutOrStdout()
	switch {
	case a.Onchain != nil:
		printOnchain(out, a.Onchain)
	case a.Lightning != nil:
		printLightning(out, a.Lightning)
	}
	if len(tags) > 0 {
		fmt.Fprintf(out, "tags:              %s\n", strings.Join(tags, ", "))
	}
	return nil
}

func printOnchain(out io.Writer, oc *activity.OnchainActivity) {
	fmt.Fprintf(out, "id:                %s\n", oc.ID)
	fmt.Fprintf(out, "type:              onchain %s\n", oc.TxType)
	fmt.Fprintf(out, "tx id:             %s\n", oc.TxID)
	fmt.Fprintf(out, "address:           %s\n", oc.Address)
	fmt.Fprintf(out, "value:             %s\n", FormatSats(oc.Value))
	fmt.Fprintf(out, "fee:               %s (%d sat/vB)\n", FormatSats(oc.Fee), oc.FeeRate)
	fmt.Fprintf(out, "timestamp:         %s\n", formatUnix(oc.Timestamp))
	fmt.Fprintf(out, "confirmed:         %t\n", oc.Confirmed)
	if oc.ConfirmTimestamp != nil {
		fmt.Fprintf(out, "confirmed at:      %s\n", formatUnix(*oc.ConfirmTimestamp))
	}
	if oc.IsBoosted {
		fmt.Fprintf(out, "boosted by:        %s\n", strings.Join(oc.BoostTxIDs, ", "))
	}
	if oc.IsTransfer {
		fmt.Fprintf(out, "transfer:          true\n")
		if oc.ChannelID != nil {
			fmt.Fprintf(out, "channel:           %s\n", *oc.ChannelID)
		}
		if oc.TransferTxID != nil {
			fmt.Fprintf(out, "transfer tx:       %s\n", *oc.TransferTxID)
		}
	}
	if !oc.DoesExist {
		fmt.Fprintf(out, "dropped:           true (no longer in mempool or chain)\n")
	}
}

func printLightning(out io.Writer, ln *activity.LightningActivity) {
	fmt.Fprintf(out, "id:                %s\n", ln.ID)
	fmt.Fprintf(out, "type:              lightning %s\n", ln.TxType)
	fmt.Fprintf(out, "status:            %s\n", ln.Status)
	fmt.Fprintf(out, "value:             %s\n", FormatSats(ln.Value))
	if ln.Fee != nil {
		fmt.Fprintf(out, "fee:               %s\n", FormatSats(*ln.Fee))
	}
	fmt.Fprintf(out, "invoice:           %s\n", ln.Invoice)
	if ln.Message != "" {
		fmt.Fprintf(out, "message:           %s\n", ln.Message)
	}
	fmt.Fprintf(out, "timestamp:         %s\n", formatUnix(ln.Timestamp))
	if ln.Preimage != nil {
		fmt.Fprintf(out, "preimage:          %s\n", *ln.Preimage)
	}
}

func formatUnix(ts uint64) string {
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}
