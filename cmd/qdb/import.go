package main

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/spf13/cobra"

	"github.com/oxhq/qdb/internal/qcli"
	"github.com/oxhq/qdb/internal/session"
)

// importResult is one script's outcome, collected the way the teacher's
// Runner.run gathers one model.Result per job off its worker pool.
type importResult struct {
	Path string
	Err  error
}

func newImportCmd() *cobra.Command {
	var workers int
	var verbose bool
	var failFast bool

	cmd := &cobra.Command{
		Use:   "import <glob...>",
		Short: "Load one or more .surql scripts into the configured store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := qcli.ExpandGlobs(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no files matched %v", args)
			}

			sess, closeStore, err := openSession(verbose)
			if err != nil {
				return err
			}
			defer closeStore()

			results := runImport(sess, files, workers, failFast)

			hadError := false
			for _, r := range results {
				if r.Err != nil {
					hadError = true
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", r.Path, r.Err)
				} else if verbose {
					fmt.Fprintf(cmd.OutOrStdout(), "OK %s\n", r.Path)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d/%d scripts\n", len(files)-countErrs(results), len(files))
			if hadError {
				return fmt.Errorf("%d script(s) failed", countErrs(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "parallel readers (0 = runtime.NumCPU)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every successfully imported file")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop scheduling new scripts after the first failure")
	return cmd
}

// runImport reads every file concurrently (a worker-pool-over-job-channel
// shape, same as the teacher's Runner.run) but executes each script's
// statements one at a time against sess: Session.run opens its own
// transaction per call and isn't meant to be driven from two goroutines at
// once, so execution is serialized behind execMu while file I/O still
// overlaps across workers. Parsing happens inside Session.run, so it runs
// under execMu too.
func runImport(sess *session.Session, files []string, workers int, failFast bool) []importResult {
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan string)
	out := make([]importResult, len(files))

	var execMu sync.Mutex
	var stopped bool
	var stopMu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				stopMu.Lock()
				skip := stopped
				stopMu.Unlock()
				if skip {
					continue
				}

				text, err := qcli.LoadScript(path)
				if err == nil {
					execMu.Lock()
					var results *session.QueryResults
					results, err = sess.Query(text).Await(context.Background())
					if err == nil {
						err = results.Check()
					}
					execMu.Unlock()
				}

				idx := indexOf(files, path)
				out[idx] = importResult{Path: path, Err: err}
				if err != nil && failFast {
					stopMu.Lock()
					stopped = true
					stopMu.Unlock()
				}
			}
		}()
	}

	for _, f := range files {
		jobs <- f
	}
	close(jobs)
	wg.Wait()
	return out
}

func indexOf(files []string, path string) int {
	for i, f := range files {
		if f == path {
			return i
		}
	}
	return -1
}

func countErrs(results []importResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
