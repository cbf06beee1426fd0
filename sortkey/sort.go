// Package sortkey implements the sort primitive (spec 4.G): an LSD
// radix sort over the column-major, fixed-width keys produced by the
// level-2 extractor, driven through a companion permutation array
// rather than physically reordering the substring buffer. Grounded on
// lv2_sort in cx1_seq2sdbg.cpp, which likewise sorts a permutation of
// substring pointers rather than the substrings themselves.
package sortkey

import "sdbgcx1/cx1"

// NewPermutation returns the identity permutation 0..n-1, the required
// starting state for Sort.
func NewPermutation(n int) []int32 {
	p := make([]int32, n)
	for i := range p {
		p[i] = int32(i)
	}
	return p
}

// Sort reorders perm in place so that reading buf's items through it
// yields non-decreasing order over the first KeyBits of each item.
// Implemented as an 8-bit-digit LSD radix sort: least significant byte
// of the least significant key word first, most significant byte of
// the most significant key word last. Stability is not required by the
// contract but this implementation happens to be stable.
func Sort(buf *cx1.Lv2Buffer, perm []int32) {
	n := buf.N
	if n <= 1 {
		return
	}
	keyWords := (buf.KeyBits() + 31) / 32
	temp := make([]int32, n)
	var count [257]int

	for wordIdx := keyWords - 1; wordIdx >= 0; wordIdx-- {
		base := wordIdx * n
		for shift := uint(0); shift < 32; shift += 8 {
			for i := range count {
				count[i] = 0
			}
			for i := 0; i < n; i++ {
				d := (buf.Words[base+int(perm[i])] >> shift) & 0xFF
				count[d+1]++
			}
			for i := 1; i < 257; i++ {
				count[i] += count[i-1]
			}
			for i := 0; i < n; i++ {
				d := (buf.Words[base+int(perm[i])] >> shift) & 0xFF
				temp[count[d]] = perm[i]
				count[d]++
			}
			copy(perm, temp)
		}
	}
}
