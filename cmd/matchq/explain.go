package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/domain/query"
	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/infrastructure/celpredicate"
)

// ExplainOutput is the JSON output of the explain command.
type ExplainOutput struct {
	Matched bool         `json:"matched"`
	Failure *FailureView `json:"failure,omitempty"`
}

func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <query-file> <record-file>",
		Short: "Explain why a record does or does not match a query",
		Long: `Evaluate a query against a single record and print the first failing
condition. Both files may be YAML or JSON.

Exits with code 1 when the record does not match.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.setup(cmd); err != nil {
				return err
			}
			return runExplain(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runExplain(opts *RootOptions, queryPath, recordPath string, cmd *cobra.Command) error {
	q, err := loadQuery(queryPath)
	if err != nil {
		return err
	}
	opts.warnIfEmpty(q, queryPath)

	data, err := os.ReadFile(recordPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "unable to read record", err)
	}
	record, err := query.DecodeDocument(data)
	if err != nil {
		return WrapExitError(ExitCommandError, "unable to decode record", err)
	}

	result, err := query.Explain(q, record)
	if err != nil {
		return WrapExitError(ExitFailure, "evaluation failed", err)
	}
	opts.logger.Debug("record evaluated", "query", queryPath, "record", recordPath, "matched", result.Matched)

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		if err := writeJSON(out, ExplainOutput{Matched: result.Matched, Failure: newFailureView(result.Failure)}); err != nil {
			return err
		}
	} else if result.Matched {
		fmt.Fprintln(out, "matched")
	} else {
		fmt.Fprintln(out, result.Failure.Message)
	}

	if !result.Matched {
		return NewExitError(ExitFailure, "record does not match")
	}
	return nil
}

func (o *RootOptions) warnIfEmpty(q query.Query, path string) {
	if q.IsEmpty() {
		o.logger.Warn("query has no conditions, every record matches", "query", path)
	}
}

// loadQuery parses a query file with CEL predicates enabled for $where and
// $fn strings.
func loadQuery(path string) (query.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return query.Query{}, WrapExitError(ExitCommandError, "unable to read query", err)
	}
	compiler, err := celpredicate.NewCompiler()
	if err != nil {
		return query.Query{}, WrapExitError(ExitCommandError, "unable to create predicate compiler", err)
	}
	q, err := query.NewQueryParser(query.WithPredicateCompiler(compiler)).ParseDocument(data)
	if err != nil {
		return query.Query{}, WrapExitError(ExitFailure, "invalid query", err)
	}
	return q, nil
}
