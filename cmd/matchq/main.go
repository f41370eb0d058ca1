// Command matchq evaluates record queries from the command line.
//
// Usage:
//
//	matchq explain query.yaml record.yaml
//	matchq filter --workers 8 query.yaml records.jsonl
//	matchq validate --schema fields.yaml query.yaml
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(GetExitCode(err))
	}
}
