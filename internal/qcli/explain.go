package qcli

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffPlans renders a unified diff between two EXPLAIN outputs (before/
// after a schema or data change), the way `explain --diff` compares a
// query's access path across two runs. Grounded on
// internal/exec/changefeed.go's unifiedDiff, the same go-difflib call
// applied to plan text instead of row JSON.
func DiffPlans(before, after string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diffing plans: %w", err)
	}
	return text, nil
}
