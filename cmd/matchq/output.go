package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/domain/query"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // record did not match, query is invalid
	ExitCommandError = 2 // unreadable files, bad flags, bad configuration
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns ExitFailure for errors that are not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// FailureView is the JSON shape of a query.Failure. Expected and actual
// values are rendered the same way as in the message.
type FailureView struct {
	Path     string `json:"path"`
	Operator string `json:"operator"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Message  string `json:"message"`
}

func newFailureView(f *query.Failure) *FailureView {
	if f == nil {
		return nil
	}
	return &FailureView{
		Path:     f.Path,
		Operator: f.Operator,
		Expected: query.RenderValue(f.Expected),
		Actual:   query.RenderValue(f.Actual),
		Message:  f.Error(),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
