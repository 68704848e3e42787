package dag

import "math/bits"

// Flags is a fixed-size bit vector indexed by node index.
//
// Flags is scratch space for traversals (visited sets) and longer-lived
// masks such as branch visibility. It performs no bounds checking: an index
// outside [0, Size()) is a caller bug and panics on the underlying slice.
//
// Callers that reuse a Flags value across traversals must reset it with
// SetAll(false) first. Flags is not safe for concurrent use.
type Flags struct {
	words []uint64
	size  int
}

// NewFlags returns a Flags of the given size with every bit cleared.
func NewFlags(size int) *Flags {
	return &Flags{
		words: make([]uint64, (size+63)/64),
		size:  size,
	}
}

// Size returns the number of bits.
func (f *Flags) Size() int { return f.size }

// Get reports whether bit i is set.
func (f *Flags) Get(i int) bool {
	return f.words[i>>6]&(uint64(1)<<(uint(i)&63)) != 0
}

// Set sets bit i to v.
func (f *Flags) Set(i int, v bool) {
	mask := uint64(1) << (uint(i) & 63)
	if v {
		f.words[i>>6] |= mask
	} else {
		f.words[i>>6] &^= mask
	}
}

// SetAll sets every bit to v in O(size/64).
func (f *Flags) SetAll(v bool) {
	var fill uint64
	if v {
		fill = ^uint64(0)
	}
	for i := range f.words {
		f.words[i] = fill
	}
	if v {
		f.clearTail()
	}
}

// Count returns the number of set bits.
func (f *Flags) Count() int {
	n := 0
	for _, w := range f.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// clearTail zeroes the unused high bits of the last word so Count stays exact.
func (f *Flags) clearTail() {
	if rem := f.size & 63; rem != 0 {
		f.words[len(f.words)-1] &= (uint64(1) << uint(rem)) - 1
	}
}
