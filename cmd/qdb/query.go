package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oxhq/qdb/internal/qcli"
	"github.com/oxhq/qdb/internal/session"
)

func newQueryCmd() *cobra.Command {
	var stats bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "query [script.surql | -e \"QUERY;\"]",
		Short: "Run one or more statements and print their results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, _ := cmd.Flags().GetString("eval")
			text, err := queryText(expr, args)
			if err != nil {
				return err
			}

			sess, closeStore, err := openSession(verbose)
			if err != nil {
				return err
			}
			defer closeStore()

			q := sess.Query(text)
			if stats {
				q = q.WithStats()
			}
			results, err := q.Await(context.Background())
			if err != nil {
				return err
			}
			printResults(cmd, results)
			return nil
		},
	}

	cmd.Flags().StringP("eval", "e", "", "inline query text instead of a script file")
	cmd.Flags().BoolVar(&stats, "stats", false, "include per-statement execution time")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

// queryText resolves a query/script command's one positional argument plus
// its --eval flag into the text to run: --eval wins if both are given a
// script path is also present, mirroring how most of the teacher's
// file-or-inline CLI flags disambiguate.
func queryText(eval string, args []string) (string, error) {
	if eval != "" {
		return eval, nil
	}
	if len(args) == 0 {
		return "", fmt.Errorf("provide a script path or -e \"QUERY;\"")
	}
	return qcli.LoadScript(args[0])
}

func printResults(cmd *cobra.Command, results *session.QueryResults) {
	out := cmd.OutOrStdout()
	for i := 0; i < results.Len(); i++ {
		sr := results.At(i)
		if sr == nil {
			continue
		}
		fmt.Fprintf(out, "-- statement %d (%s)\n", i, sr.Stats)
		if sr.Err != nil {
			fmt.Fprintf(out, "ERROR: %v\n", sr.Err)
			continue
		}
		if len(sr.Rows) == 0 {
			fmt.Fprintln(out, "(no rows)")
			continue
		}
		var lines []string
		for _, row := range sr.Rows {
			lines = append(lines, row.String())
		}
		fmt.Fprintln(out, strings.Join(lines, "\n"))
	}
}
