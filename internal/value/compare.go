package value

import "bytes"

// tagOrder gives every Tag a stable ordinal so Values of different tags
// still compare deterministically (needed for the total order in spec.md
// §8: "exactly one of a<b, a==b, b<a holds").
func tagOrder(t Tag) int { return int(t) }

// Equal implements total equality: NaN==NaN and -0==+0 for Number, and
// structural equality for containers — see spec.md §3.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

// Compare implements the total order required by spec.md §3/§8. Values of
// different tags order by Tag ordinal; same-tag Values compare structurally.
func Compare(a, b Value) int {
	if a.tag != b.tag {
		return cmpInt(tagOrder(a.tag), tagOrder(b.tag))
	}
	switch a.tag {
	case TagNone, TagNull:
		return 0
	case TagBool:
		return cmpBool(a.b, b.b)
	case TagNumber:
		return CompareNumber(a.num, b.num)
	case TagString:
		return cmpString(a.str, b.str)
	case TagBytes:
		return bytes.Compare(a.byts, b.byts)
	case TagDuration:
		return cmpInt64(int64(a.dur.D), int64(b.dur.D))
	case TagDatetime:
		return cmpInt64(a.dt.T.UnixNano(), b.dt.T.UnixNano())
	case TagUuid:
		return bytes.Compare(a.uid[:], b.uid[:])
	case TagRegex:
		return cmpString(a.re.Source, b.re.Source)
	case TagArray:
		return compareValueSlices(a.arr, b.arr)
	case TagSet:
		return compareValueSlices(a.set, b.set)
	case TagObject:
		return compareObjects(a.obj, b.obj)
	case TagGeometry:
		if a.geo.Equal(b.geo) {
			return 0
		}
		return cmpString(a.geo.String(), b.geo.String())
	case TagRecordID:
		if a.rid.Table != b.rid.Table {
			return cmpString(a.rid.Table, b.rid.Table)
		}
		return CompareRecordIDKey(a.rid.Key, b.rid.Key)
	case TagTable:
		return cmpString(a.tbl.Name, b.tbl.Name)
	case TagFile:
		if c := cmpString(a.fil.Bucket, b.fil.Bucket); c != 0 {
			return c
		}
		return cmpString(a.fil.Key, b.fil.Key)
	case TagRange:
		return compareRanges(a.rng, b.rng)
	case TagClosure:
		return 0 // closures are only equal to themselves by identity; approximate as equal here
	}
	return 0
}

func compareValueSlices(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}

func compareObjects(a, b *Object) int {
	ak, bk := a.Keys(), b.Keys()
	sortedA := append([]string(nil), ak...)
	sortedB := append([]string(nil), bk...)
	sortStrings(sortedA)
	sortStrings(sortedB)
	n := len(sortedA)
	if len(sortedB) < n {
		n = len(sortedB)
	}
	for i := 0; i < n; i++ {
		if c := cmpString(sortedA[i], sortedB[i]); c != 0 {
			return c
		}
		av, _ := a.Get(sortedA[i])
		bv, _ := b.Get(sortedB[i])
		if c := Compare(av, bv); c != 0 {
			return c
		}
	}
	return cmpInt(len(sortedA), len(sortedB))
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func cmpBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
