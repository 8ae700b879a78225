// Package qcli holds the small bits cmd/qdb's subcommands share: glob
// expansion for loading many .surql scripts at once, and diffing two
// EXPLAIN plans. Grounded on the teacher's internal/util.ExpandGlobs
// (filepath.Glob-based) and internal/cli/runner.go's job-batch shape,
// generalized from file-manipulation jobs to running parsed scripts.
package qcli

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandGlobs expands each pattern in patterns (plain paths pass through
// unchanged; `**` and other doublestar patterns expand against the
// filesystem), deduplicating and sorting the result so `import`'s run
// order is deterministic across platforms.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("expanding glob %q: %w", p, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(p); err == nil {
				matches = []string{p}
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// LoadScript reads one .surql file's contents.
func LoadScript(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}
