package exec

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/oxhq/qdb/internal/value"
)

// Key layout mirrors the "prefix-ordered byte keys" contract spec.md §6
// leaves to the backend: a handful of NUL-joined segments so lexicographic
// byte order matches the nesting order (ns, then db, then table, then row).
const keySep = "\x00"

func rowPrefix(ns, db, table string) []byte {
	return []byte(strings.Join([]string{"row", ns, db, table, ""}, keySep))
}

// changePrefix is the byte range root for one table's change feed
// (SHOW CHANGES FOR TABLE, spec.md §6). Versions are big-endian so a
// ScanRange over the prefix yields entries oldest-first.
func changePrefix(ns, db, table string) []byte {
	return []byte(strings.Join([]string{"cf", ns, db, table, ""}, keySep))
}

func changeKey(ns, db, table string, version uint64) []byte {
	b := changePrefix(ns, db, table)
	return append(b, encodeOrderedInt(int64(version))...)
}

// rowKey encodes the KV key for one table row.
func rowKey(ns, db, table string, k value.RecordIDKey) []byte {
	return append(rowPrefix(ns, db, table), encodeKeyPart(k)...)
}

// indexPrefix is the byte range root for one index's entries.
func indexPrefix(ns, db, table, index string) []byte {
	return []byte(strings.Join([]string{"idx", ns, db, table, index, ""}, keySep))
}

// indexEntryKey encodes an index row: prefix + each indexed column's
// encoded value (in column order) + the owning record's encoded key, so
// scanning the prefix yields rows in column order and the record key
// disambiguates duplicates on a non-unique index.
func indexEntryKey(ns, db, table, index string, cols []value.Value, rowKeyPart value.RecordIDKey) []byte {
	b := indexPrefix(ns, db, table, index)
	for _, c := range cols {
		b = append(b, encodeValueOrdered(c)...)
		b = append(b, keySep...)
	}
	b = append(b, encodeKeyPart(rowKeyPart)...)
	return b
}

// indexValuePrefix builds the byte prefix for one equality-prefix of
// indexed column values, used to seek a compound index's cartesian
// product (spec.md §4.4 "contiguous equality prefix columns").
func indexValuePrefix(ns, db, table, index string, cols []value.Value) []byte {
	b := indexPrefix(ns, db, table, index)
	for _, c := range cols {
		b = append(b, encodeValueOrdered(c)...)
		b = append(b, keySep...)
	}
	return b
}

// encodeKeyPart renders a RecordIDKey to bytes preserving total order for
// the Int case (sign-flipped big-endian) and lexicographic order for
// String; Array/Object/Range/Uuid keys fall back to their display string,
// since compound RecordId range queries are out of this executor's scope.
func encodeKeyPart(k value.RecordIDKey) []byte {
	switch k.Kind {
	case value.KeyInt:
		return encodeOrderedInt(k.Int)
	case value.KeyString:
		return []byte(k.Str)
	default:
		return []byte(k.String())
	}
}

// encodeValueOrdered renders a Value to an order-preserving byte string for
// index keys: integral numbers sign-flip to an unsigned big-endian form,
// strings pass through. Other kinds, and numbers with a fractional part,
// use their display string, which is enough for equality lookups though not
// for range comparisons.
func encodeValueOrdered(v value.Value) []byte {
	switch v.Tag() {
	case value.TagNumber:
		n, err := v.NumberVal().AsInt64()
		if err == nil {
			return encodeOrderedInt(n)
		}
		return []byte(v.String())
	case value.TagString:
		return []byte(v.Str())
	default:
		return []byte(v.String())
	}
}

func encodeOrderedInt(i int64) []byte {
	u := uint64(i) ^ (1 << 63)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, u)
	return []byte(hex.EncodeToString(buf))
}
