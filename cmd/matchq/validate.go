package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/domain/validation"
	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/infrastructure/jsonschema"
)

// ValidateOptions holds the validate command flags.
type ValidateOptions struct {
	*RootOptions
	Schema string
}

// ValidateOutput is the JSON output of the validate command.
type ValidateOutput struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <query-file>",
		Short: "Check a query document without evaluating it",
		Long: `Check that a query document is well formed: operands have the right
shape, logical keys hold lists or mappings, and patterns are valid.

With --schema the query is also checked against declared field types, e.g.
$gt on a string field or $size on a number field is reported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.setup(cmd); err != nil {
				return err
			}
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "field type schema (yaml)")

	return cmd
}

func runValidate(opts *ValidateOptions, queryPath string, cmd *cobra.Command) error {
	data, err := os.ReadFile(queryPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "unable to read query", err)
	}

	var schema *validation.Schema
	if opts.Schema != "" {
		if schema, err = loadSchema(opts.Schema); err != nil {
			return err
		}
	}

	validator, err := jsonschema.NewDocumentValidator()
	if err != nil {
		return WrapExitError(ExitCommandError, "unable to load query schema", err)
	}

	var result *multierror.Error
	if err := validator.ValidateDocument(data); err != nil {
		result = multierror.Append(result, err)
	}

	if schema != nil && result.ErrorOrNil() == nil {
		q, err := loadQuery(queryPath)
		if err == nil {
			err = validation.Validate(q, *schema)
		}
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	var findings []string
	if result != nil {
		for _, e := range result.Errors {
			findings = append(findings, e.Error())
		}
	}
	opts.logger.Debug("query validated", "query", queryPath, "schema", opts.Schema, "findings", len(findings))

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		if err := writeJSON(out, ValidateOutput{Valid: len(findings) == 0, Errors: findings}); err != nil {
			return err
		}
	} else if len(findings) == 0 {
		fmt.Fprintln(out, "valid")
	} else {
		for _, f := range findings {
			fmt.Fprintln(out, f)
		}
	}

	if len(findings) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("query has %d problem(s)", len(findings)))
	}
	return nil
}

func loadSchema(path string) (*validation.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "unable to read schema", err)
	}
	schema, err := validation.ParseSchema(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid schema", err)
	}
	return &schema, nil
}
