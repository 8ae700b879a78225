package functions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/qdb/internal/value"
)

func TestCallStringLen(t *testing.T) {
	got, err := Call("string::len", []value.Value{value.NewString("hello")})
	require.NoError(t, err)
	assert.Equal(t, int64(5), mustInt(t, got))
}

func TestCallUnknownPathSuggestsClosest(t *testing.T) {
	_, err := Call("string::lenn", []value.Value{value.NewString("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean")
}

func TestCallArityMismatch(t *testing.T) {
	_, err := Call("string::len", nil)
	require.Error(t, err)
}

func TestArraySortAscendingByDefault(t *testing.T) {
	arr := value.NewArray([]value.Value{value.NewInt(3), value.NewInt(1), value.NewInt(2)})
	got, err := Call("array::sort", []value.Value{arr})
	require.NoError(t, err)
	elems := got.Array()
	assert.Equal(t, int64(1), mustInt(t, elems[0]))
	assert.Equal(t, int64(2), mustInt(t, elems[1]))
	assert.Equal(t, int64(3), mustInt(t, elems[2]))
}

func TestArrayDistinctPreservesOrder(t *testing.T) {
	arr := value.NewArray([]value.Value{value.NewInt(1), value.NewInt(1), value.NewInt(2)})
	got, err := Call("array::distinct", []value.Value{arr})
	require.NoError(t, err)
	elems := got.Array()
	require.Len(t, elems, 2)
	assert.Equal(t, int64(1), mustInt(t, elems[0]))
	assert.Equal(t, int64(2), mustInt(t, elems[1]))
}

func TestMathMaxAcrossVarargs(t *testing.T) {
	got, err := Call("math::max", []value.Value{value.NewInt(1), value.NewInt(9), value.NewInt(4)})
	require.NoError(t, err)
	assert.Equal(t, int64(9), mustInt(t, got))
}

func TestCountWithNoArgsCountsOne(t *testing.T) {
	got, err := Call("count", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), mustInt(t, got))
}

func mustInt(t *testing.T, v value.Value) int64 {
	t.Helper()
	i, err := v.NumberVal().AsInt64()
	require.NoError(t, err)
	return i
}
