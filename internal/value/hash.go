package value

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// HashKey returns a string usable as a Go map key that mirrors Equal
// wherever practical. The documented exception (spec.md §3): NaN hashes to
// its bit pattern rather than a canonical NaN representative, so two
// differently-bit-patterned NaNs that compare Equal may still hash
// differently — acceptable because Value equality, not HashKey, is the
// authoritative identity check; HashKey is a fast-path bucketing aid only
// (used by dedup in idiom recursion and UnionIndexScan's RecordID dedup).
func (v Value) HashKey() string {
	h := fnv.New64a()
	v.hashInto(h)
	return string(h.Sum(nil))
}

func (v Value) hashInto(h interface{ Write([]byte) (int, error) }) {
	var buf [9]byte
	buf[0] = byte(v.tag)
	h.Write(buf[:1])
	switch v.tag {
	case TagBool:
		if v.b {
			buf[0] = 1
		} else {
			buf[0] = 0
		}
		h.Write(buf[:1])
	case TagNumber:
		hashNumber(h, v.num)
	case TagString:
		h.Write([]byte(v.str))
	case TagBytes:
		h.Write(v.byts)
	case TagDuration:
		binary.BigEndian.PutUint64(buf[:8], uint64(v.dur.D))
		h.Write(buf[:8])
	case TagDatetime:
		binary.BigEndian.PutUint64(buf[:8], uint64(v.dt.T.UnixNano()))
		h.Write(buf[:8])
	case TagUuid:
		h.Write(v.uid[:])
	case TagArray, TagSet:
		elems := v.arr
		if v.tag == TagSet {
			elems = v.set
		}
		for _, e := range elems {
			e.hashInto(h)
		}
	case TagObject:
		for _, k := range v.obj.Keys() {
			h.Write([]byte(k))
			val, _ := v.obj.Get(k)
			val.hashInto(h)
		}
	case TagRecordID:
		h.Write([]byte(v.rid.String()))
	case TagTable:
		h.Write([]byte(v.tbl.Name))
	default:
		h.Write([]byte(v.String()))
	}
}

func hashNumber(h interface{ Write([]byte) (int, error) }, n Number) {
	var buf [8]byte
	switch n.kind {
	case NumInt:
		binary.BigEndian.PutUint64(buf[:], uint64(n.i))
	case NumFloat:
		if n.f == 0 {
			// -0 == +0 per spec.md §3; hash the canonical +0 bit pattern.
			binary.BigEndian.PutUint64(buf[:], 0)
		} else {
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(n.f))
		}
	case NumDecimal:
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(n.ToFloat()))
	}
	h.Write(buf[:])
}
