// Package kmerpac implements the fixed-width k-mer value type (spec 4.B):
// shift-append/preappend, reverse-complement, and lexicographic compare
// over a word-packed, MSB-first 2-bit encoding. Grounded on the same
// packing convention as seqpkg.Store and on the Kmer<N,word_t> template
// of the original cx1_seq2sdbg.cpp/cx1_read2sdbg_s2.cpp (kmer.h is not in
// the retrieved sources, so the shift/compare contract is reconstructed
// from spec 4.B and from how EncodeEdgeOffset/ShiftAppend/ShiftPreappend
// are called at the cx1 call sites).
package kmerpac

const basesPerWord = 32
const bitsPerBase = 2

// NumWords returns how many 64-bit words are needed to hold k bases.
func NumWords(k int) int { return (k + basesPerWord - 1) / basesPerWord }

// Kmer is a fixed-width, MSB-first, word-packed k-mer. The zero value is
// not usable; construct with New or Init.
type Kmer struct {
	data []uint64
	k    int
}

// New allocates a zeroed k-mer of width k.
func New(k int) Kmer {
	return Kmer{data: make([]uint64, NumWords(k)), k: k}
}

// K returns the k-mer's configured width.
func (km Kmer) K() int { return km.k }

// Data exposes the backing words, read-only by convention; the sort
// primitive and the level-2 extractor compare/copy through this.
func (km Kmer) Data() []uint64 { return km.data }

// Init loads k bases starting at an arbitrary bit offset inside a packed
// source word array (typically seqpkg.Store.Words()).
func (km *Kmer) Init(src []uint64, bitOffset int64, k int) {
	if n := NumWords(k); len(km.data) != n {
		km.data = make([]uint64, n)
	} else {
		for i := range km.data {
			km.data[i] = 0
		}
	}
	km.k = k
	for i := 0; i < k; i++ {
		km.SetBase(i, extractBase(src, bitOffset+int64(i)*bitsPerBase))
	}
}

func extractBase(src []uint64, bitOffset int64) byte {
	word := bitOffset / (basesPerWord * bitsPerBase)
	within := int(bitOffset % (basesPerWord * bitsPerBase))
	shift := uint(basesPerWord*bitsPerBase - bitsPerBase - within)
	return byte((src[word] >> shift) & 0x3)
}

// SetBase sets base index i (0 == leftmost/most-significant) to c (0..3).
func (km *Kmer) SetBase(i int, c byte) {
	word := i / basesPerWord
	shift := uint((basesPerWord - 1 - i%basesPerWord) * bitsPerBase)
	km.data[word] = km.data[word]&^(uint64(0x3)<<shift) | (uint64(c&0x3) << shift)
}

// Base returns base index i.
func (km Kmer) Base(i int) byte {
	word := i / basesPerWord
	shift := uint((basesPerWord - 1 - i%basesPerWord) * bitsPerBase)
	return byte((km.data[word] >> shift) & 0x3)
}

// ShiftAppend drops the leftmost base and appends c on the right,
// keeping the k-mer at width k.
func (km *Kmer) ShiftAppend(c byte, k int) {
	for i := 0; i < k-1; i++ {
		km.SetBase(i, km.Base(i+1))
	}
	km.SetBase(k-1, c)
}

// ShiftPreappend drops the rightmost base and prepends c on the left.
func (km *Kmer) ShiftPreappend(c byte, k int) {
	for i := k - 1; i > 0; i-- {
		km.SetBase(i, km.Base(i-1))
	}
	km.SetBase(0, c)
}

// ReverseComplement complements (0<->3, 1<->2) and reverses the k bases
// in place.
func (km *Kmer) ReverseComplement(k int) {
	for i, j := 0, k-1; i < j; i, j = i+1, j-1 {
		bi, bj := km.Base(i), km.Base(j)
		km.SetBase(i, 3-bj)
		km.SetBase(j, 3-bi)
	}
	if k%2 == 1 {
		mid := k / 2
		km.SetBase(mid, 3-km.Base(mid))
	}
}

// Cmp lexicographically compares km to other over exactly k bases.
// Because both are MSB-first and unused tail bits are required to be
// zero, this reduces to a plain big-endian word compare.
func (km Kmer) Cmp(other Kmer, k int) int {
	n := NumWords(k)
	for i := 0; i < n; i++ {
		if km.data[i] != other.data[i] {
			if km.data[i] < other.data[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Clone returns an independent copy.
func (km Kmer) Clone() Kmer {
	data := make([]uint64, len(km.data))
	copy(data, km.data)
	return Kmer{data: data, k: km.k}
}
