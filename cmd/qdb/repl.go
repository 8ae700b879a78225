package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newReplCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive query session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, closeStore, err := openSession(verbose)
			if err != nil {
				return err
			}
			defer closeStore()

			in := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			var pending strings.Builder

			prompt := func() {
				if pending.Len() == 0 {
					fmt.Fprintf(out, "%s/%s> ", sess.NS, sess.DB)
				} else {
					fmt.Fprint(out, "  ... ")
				}
			}

			prompt()
			for in.Scan() {
				line := in.Text()
				pending.WriteString(line)
				pending.WriteByte('\n')

				if !strings.HasSuffix(strings.TrimSpace(line), ";") {
					prompt()
					continue
				}

				text := pending.String()
				pending.Reset()

				results, err := sess.Query(text).WithStats().Await(context.Background())
				if err != nil {
					fmt.Fprintf(out, "ERROR: %v\n", err)
				} else {
					printResults(cmd, results)
				}
				prompt()
			}
			fmt.Fprintln(out)
			if err := in.Err(); err != nil && err != io.EOF {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}
