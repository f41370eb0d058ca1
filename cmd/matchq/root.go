package main

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// RootOptions holds the persistent flags shared by every command.
type RootOptions struct {
	Verbose bool
	Format  string
	Config  string

	settings Config
	logger   *slog.Logger
}

// ValidFormats lists the supported output formats.
var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "matchq",
		Short: "Evaluate MongoDB-style queries against records",
		Long: `matchq evaluates declarative queries against YAML or JSON records.

A query is a mapping of field names to conditions. Conditions are plain values,
operator clauses such as {$gte: 10}, nested queries, or the logical keys
$and, $or, $not and $where. When a record does not match, matchq reports the
first condition that failed.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (yaml, json or toml)")

	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewFilterCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// setup loads the configuration and the run logger. Subcommands executed on
// their own call it lazily.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if o.logger != nil {
		return nil
	}
	settings, err := LoadConfig(o.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "unable to load configuration", err)
	}
	if o.Verbose {
		settings.Log.Level = "DEBUG"
	}
	o.settings = settings
	o.logger = NewLogger(cmd.ErrOrStderr(), settings.Log).With("run_id", uuid.NewString())
	return nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
