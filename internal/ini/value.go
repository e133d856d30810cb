package ini

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// MaxIndex is the largest Key[N] index a store accepts. Densify allocates up
// to the highest index, so anything larger is refused at parse and decode time.
const MaxIndex = 4096

// ErrIndexRange marks an indexed key outside 0..MaxIndex.
var ErrIndexRange = errors.New("index out of range")

// checkIndex rejects all-digit keys above MaxIndex. Keys that are not plain
// digits are left alone; Densify falls back to insertion order for them.
func checkIndex(key string) error {
	if key == "" {
		return nil
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return nil
		}
	}
	if n, err := strconv.Atoi(key); err != nil || n > MaxIndex {
		return fmt.Errorf("%w: %s > %d", ErrIndexRange, key, MaxIndex)
	}
	return nil
}

// Kind tells how a key was written in the store.
type Kind int

const (
	// KindSequence is a repeated plain key: Key=A, Key=B.
	KindSequence Kind = iota
	// KindIndexed is a sparse array key: Key[0]=A, Key[2]=C.
	KindIndexed
)

// IndexEntry is one Key[i]=V line. Key is kept as text because payloads coming
// back from the editor are not guaranteed to carry integer indices.
type IndexEntry struct {
	Key   string
	Value string
}

// Value is the tagged union stored per key.
type Value struct {
	Kind    Kind
	Items   []string     // KindSequence
	Entries []IndexEntry // KindIndexed, insertion order
}

// Sequence builds a KindSequence value.
func Sequence(items ...string) Value {
	return Value{Kind: KindSequence, Items: append([]string(nil), items...)}
}

// Indexed builds a KindIndexed value from integer positions.
func Indexed(m map[int]string) Value {
	v := Value{Kind: KindIndexed}
	for _, i := range sortedInts(m) {
		v.set(strconv.Itoa(i), m[i])
	}
	return v
}

// set overwrites an existing index in place or appends a new one.
func (v *Value) set(key, val string) {
	for i := range v.Entries {
		if v.Entries[i].Key == key {
			v.Entries[i].Value = val
			return
		}
	}
	v.Entries = append(v.Entries, IndexEntry{Key: key, Value: val})
}

// Densify is the single conversion from either shape to an ordered list.
// Indexed values become 0..max with "" in the gaps; when any index is not a
// non-negative integer (or there are none) the raw values are returned in
// insertion order instead.
func Densify(v Value) []string {
	if v.Kind == KindSequence {
		return append([]string(nil), v.Items...)
	}
	idx := make([]int, len(v.Entries))
	maxIdx := -1
	for i, e := range v.Entries {
		n, err := strconv.Atoi(e.Key)
		if err != nil || n < 0 {
			return rawValues(v.Entries)
		}
		idx[i] = n
		if n > maxIdx {
			maxIdx = n
		}
	}
	if maxIdx < 0 {
		return rawValues(v.Entries)
	}
	out := make([]string, maxIdx+1)
	for i, e := range v.Entries {
		out[idx[i]] = e.Value
	}
	return out
}

func rawValues(es []IndexEntry) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.Value)
	}
	return out
}

func sortedInts(m map[int]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
