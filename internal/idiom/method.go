package idiom

import (
	"github.com/oxhq/qdb/internal/functions"
	"github.com/oxhq/qdb/internal/value"
)

// callBuiltin prepends recv as the receiver argument (spec.md §9 "method-
// style dispatch... reuses the same table with the receiver prepended") and
// calls into the shared builtin registry.
func callBuiltin(path string, recv value.Value, args []value.Value) (value.Value, error) {
	full := make([]value.Value, 0, len(args)+1)
	full = append(full, recv)
	full = append(full, args...)
	return functions.Call(path, full)
}
