package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oxhq/qdb/internal/qcli"
	"github.com/oxhq/qdb/internal/session"
	"github.com/oxhq/qdb/internal/value"
)

func newExplainCmd() *cobra.Command {
	var diffAgainst string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "explain [script.surql | -e \"SELECT ...;\"]",
		Short: "Print a SELECT's access plan, or diff it against another script's plan",
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

			plan, err := explainOne(sess, text)
			if err != nil {
				return err
			}

			if diffAgainst == "" {
				fmt.Fprintln(cmd.OutOrStdout(), plan)
				return nil
			}

			otherText, err := qcli.LoadScript(diffAgainst)
			if err != nil {
				return err
			}
			otherPlan, err := explainOne(sess, otherText)
			if err != nil {
				return err
			}
			diff, err := qcli.DiffPlans(otherPlan, plan)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), diff)
			return nil
		},
	}

	cmd.Flags().StringP("eval", "e", "", "inline query text instead of a script file")
	cmd.Flags().StringVar(&diffAgainst, "diff", "", "script to EXPLAIN first, diffed against this one's plan")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

// explainOne forces EXPLAIN on text's final statement if it isn't already
// present, then runs it and pulls the "plan" field out of its single
// result row (internal/exec.ExecuteSelect's EXPLAIN shape).
func explainOne(sess *session.Session, text string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(text), ";")
	if !strings.Contains(strings.ToUpper(trimmed), "EXPLAIN") {
		trimmed += " EXPLAIN"
	}

	results, err := sess.Query(trimmed).Await(context.Background())
	if err != nil {
		return "", err
	}
	if err := results.Check(); err != nil {
		return "", err
	}
	rows, err := session.Take(results, session.At(results.Len()-1))
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("EXPLAIN produced no output")
	}
	v, ok := rows[0].Get("plan")
	if !ok || v.Tag() != value.TagString {
		return "", fmt.Errorf("EXPLAIN result missing a plan field")
	}
	return v.Str(), nil
}
