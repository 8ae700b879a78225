// Command qdb is the query engine's command-line front end: one-shot
// query execution, EXPLAIN comparison, an interactive REPL, and bulk
// .surql script import. Grounded on demo/cmd/main.go's cobra root command
// + subcommand wiring (rootCmd.AddCommand, one *cobra.Command per verb);
// qdb skips the demo's color output since fatih/color never made it into
// this module's dependency set (see DESIGN.md).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// A missing .env is not an error — it's the common case outside
	// local development — so its error is deliberately discarded, the
	// same way the teacher's own env loading treats it as best-effort.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "qdb",
		Short: "A SurrealQL-flavored query engine",
		Long:  "qdb runs queries through a value model, logical planner, and physical executor over a pluggable KV store.",
	}

	root.AddCommand(
		newQueryCmd(),
		newExplainCmd(),
		newReplCmd(),
		newImportCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
