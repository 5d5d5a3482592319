// Package cli implements the bitkit-ledger command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BitcoinErrorLog/bitkit-core/internal/config"
	"github.com/BitcoinErrorLog/bitkit-core/internal/logging"
	"github.com/BitcoinErrorLog/bitkit-core/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DataDir string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bitkit-ledger",
		Short: "Inspect and maintain the wallet activity ledger",
		Long: `bitkit-ledger reads and writes the wallet's local payment activity
database: onchain and lightning activities, their tags, pending payment
metadata, closed channel records, and LSP order state.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "database directory (default from BITKIT_DATA_DIR)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewTagCommand(opts))
	cmd.AddCommand(NewMetaCommand(opts))
	cmd.AddCommand(NewChannelsCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewWipeCommand(opts))
	cmd.AddCommand(NewLiquidityCommand(opts))
	cmd.AddCommand(NewLSPCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig resolves runtime configuration, letting the --data-dir
// flag win over the environment.
func (o *RootOptions) loadConfig() (config.AppConfig, error) {
	cfg, err := config.Load(config.NewViper())
	if err != nil {
		return config.AppConfig{}, WrapExitError(ExitCommandError, "load configuration", err)
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
		cfg.LSPCacheDir = o.DataDir
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// openStore opens the activity database for a command invocation. The
// caller closes both the store and the logger's buffered output.
func (o *RootOptions) openStore() (*store.Store, *zap.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "initialize logging", err)
	}

	s, err := store.Open(cfg.DataDir, logger)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "open activity database", err)
	}
	return s, logger, nil
}

// withStore opens the store for one command invocation and closes it
// afterwards.
func withStore(o *RootOptions, fn func(*store.Store) error) error {
	s, logger, err := o.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	defer logger.Sync()
	return fn(s)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
