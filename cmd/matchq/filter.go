package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/domain/query"
	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/infrastructure/metrics"
)

var errEvaluationAborted = errors.New("evaluation aborted")

// FilterOptions holds the filter command flags.
type FilterOptions struct {
	*RootOptions
	Workers int
	Explain bool
}

// FilterEntry is one record in the JSON output of the filter command.
type FilterEntry struct {
	Index   int          `json:"index"`
	Matched bool         `json:"matched"`
	Record  any          `json:"record,omitempty"`
	Failure *FailureView `json:"failure,omitempty"`
}

type outcome struct {
	result query.ExplainResult
	err    error
}

func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "filter <query-file> <records-file>",
		Short: "Print the records that match a query",
		Long: `Evaluate a query against every record of a file and print the matching
records as JSON lines.

Records are read as a YAML stream of "---" separated documents, or as JSON
lines when the file ends in .jsonl or .ndjson. With --explain every record is
listed together with its first failing condition.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.setup(cmd); err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				opts.Workers = rootOpts.settings.Workers
			}
			return runFilter(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "number of concurrent evaluations (default from config)")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "list every record with its first failure")

	return cmd
}

func runFilter(opts *FilterOptions, queryPath, recordsPath string, cmd *cobra.Command) error {
	if opts.Workers < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("workers must be positive, got %d", opts.Workers))
	}

	q, err := loadQuery(queryPath)
	if err != nil {
		return err
	}
	opts.warnIfEmpty(q, queryPath)
	records, err := loadRecords(recordsPath)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	matcher := metrics.NewInstrumentedMatcher(query.BuildMatcher(q), metrics.NewMetrics(registry))

	outcomes, err := evaluateAll(matcher, records, opts)
	if err != nil {
		return err
	}

	entries := make([]FilterEntry, 0, len(records))
	matched := 0
	for i, o := range outcomes {
		if o.err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("record %d", i+1), o.err)
		}
		if o.result.Matched {
			matched++
		}
		if !o.result.Matched && !opts.Explain {
			continue
		}
		entry := FilterEntry{Index: i + 1, Matched: o.result.Matched, Failure: newFailureView(o.result.Failure)}
		if o.result.Matched {
			entry.Record = records[i]
		}
		entries = append(entries, entry)
	}

	if err := printFilter(opts, entries, cmd); err != nil {
		return err
	}

	counts, err := metrics.FailureCounts(registry)
	if err != nil {
		opts.logger.Warn("unable to gather failure counts", "error", err)
	}
	opts.logger.Info("filter finished",
		"records", len(records),
		"matched", matched,
		"workers", opts.Workers,
		"failures", counts,
	)
	return nil
}

// evaluateAll evaluates records on a worker pool. Outcomes keep the input
// order.
func evaluateAll(matcher *metrics.InstrumentedMatcher, records []any, opts *FilterOptions) ([]outcome, error) {
	pool, err := ants.NewPool(opts.Workers, ants.WithPanicHandler(func(v any) {
		opts.logger.Error("evaluation panicked", "panic", v)
	}))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "unable to create worker pool", err)
	}
	defer pool.Release()

	outcomes := make([]outcome, len(records))
	var wg sync.WaitGroup
	for i := range records {
		i := i
		outcomes[i].err = errEvaluationAborted
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			result, err := matcher.Explain(records[i])
			outcomes[i] = outcome{result: result, err: err}
		}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, WrapExitError(ExitCommandError, "unable to submit evaluation", err)
		}
	}
	wg.Wait()
	return outcomes, nil
}

func loadRecords(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "unable to read records", err)
	}
	var records []any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		records, err = query.DecodeLines(data)
	default:
		records, err = query.DecodeDocuments(bytes.NewReader(data))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "unable to decode records", err)
	}
	return records, nil
}

func printFilter(opts *FilterOptions, entries []FilterEntry, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(out, entries)
	}
	for _, e := range entries {
		if !e.Matched {
			fmt.Fprintf(out, "#%d %s\n", e.Index, e.Failure.Message)
			continue
		}
		line, err := json.Marshal(e.Record)
		if err != nil {
			return errors.Wrapf(err, "unable to encode record %d", e.Index)
		}
		if opts.Explain {
			fmt.Fprintf(out, "#%d matched %s\n", e.Index, line)
		} else {
			fmt.Fprintf(out, "%s\n", line)
		}
	}
	return nil
}
