// Package seqpkg holds the packed sequence store: a 2-bit-per-base
// representation of every input sequence (edge, contig, or mercy read)
// backed by a single shared []uint64 word array, with per-sequence
// start-offset/length side arrays.
//
// The packing convention (32 bases per uint64 word, MSB-first) follows the bit layout the teacher uses for k-mer words in
// constructcf.go's GetReadBntKmer/ExtendKmerBnt2Byte, generalized from a
// single k-mer to an append-only multi-sequence store.
package seqpkg

import (
	"fmt"
	"sort"
)

// BasesPerWord is the number of 2-bit bases packed into one uint64 word.
const BasesPerWord = 32

// BitsPerBase is the width of one packed base.
const BitsPerBase = 2

// Store is an append-only, bit-packed sequence collection. Append
// operations are valid until BuildLookup freezes the store; after that,
// only read operations are valid.
type Store struct {
	words  []uint64
	start  []int64 // start bit offset of sequence i, monotonically non-decreasing
	length []int32 // length in bases of sequence i
	frozen bool
}

// NewStore returns an empty store. reserveBases/reserveSeqs are hints
// used to size the backing arrays up front, mirroring
// SequencePackage::reserve_bases/reserve_num_seq in read_seq_and_prepare.
func NewStore(reserveBases, reserveSeqs int64) *Store {
	s := &Store{
		words:  make([]uint64, 0, (reserveBases+BasesPerWord-1)/BasesPerWord),
		start:  make([]int64, 0, reserveSeqs),
		length: make([]int32, 0, reserveSeqs),
	}
	return s
}

func (s *Store) mustNotBeFrozen(who string) {
	if s.frozen {
		panic(fmt.Sprintf("[seqpkg.Store] %s called after BuildLookup froze the store", who))
	}
}

// AppendFixedLenSeq appends a sequence of exactly len(bases) 2-bit codes
// (values 0..3) and returns its new sequence id.
func (s *Store) AppendFixedLenSeq(bases []byte) int64 {
	s.mustNotBeFrozen("AppendFixedLenSeq")
	return s.appendBases(bases)
}

// AppendVarLenSeq is the variable-length counterpart; the two differ only
// in caller intent (the fixed-length entry point is what the edge reader
// uses since every edge is k+1 bases, the variable one is what the contig
// reader uses).
func (s *Store) AppendVarLenSeq(bases []byte) int64 {
	s.mustNotBeFrozen("AppendVarLenSeq")
	return s.appendBases(bases)
}

func (s *Store) appendBases(bases []byte) int64 {
	id := int64(len(s.start))
	startBit := int64(len(s.words)) * BasesPerWord * BitsPerBase
	// start offsets are expressed in bits, but since sequences always
	// start on a word boundary here (each append starts a fresh word) the
	// byte/word arithmetic below stays simple and still satisfies the
	// "monotonically non-decreasing" invariant against id_of's search.
	s.start = append(s.start, startBit)
	s.length = append(s.length, int32(len(bases)))

	nWords := (len(bases) + BasesPerWord - 1) / BasesPerWord
	base := len(s.words)
	s.words = append(s.words, make([]uint64, nWords)...)
	for i, b := range bases {
		word := base + i/BasesPerWord
		shift := uint((BasesPerWord - 1 - i%BasesPerWord) * BitsPerBase)
		s.words[word] |= uint64(b&0x3) << shift
	}
	return id
}

// BuildLookup freezes the store. After this call Append* may not be used;
// IDOf becomes valid. The teacher's append-then-freeze-then-index pattern
// is SequencePackage::BuildLookup in the original; here the "lookup" is
// simply the already-monotonic start array, searched with sort.Search,
// since start offsets are appended in strictly increasing id order.
func (s *Store) BuildLookup() {
	s.frozen = true
}

// Size returns the number of sequences held.
func (s *Store) Size() int64 { return int64(len(s.start)) }

// SizeInByte is the packed footprint of the store, used by the CX1
// planner's memory-budget accounting.
func (s *Store) SizeInByte() int64 { return int64(len(s.words)) * 8 }

// Length returns the length in bases of sequence id.
func (s *Store) Length(id int64) int { return int(s.length[id]) }

// StartBit returns the bit offset of sequence id's first base.
func (s *Store) StartBit(id int64) int64 { return s.start[id] }

// Base returns the base (0..3) at position pos of sequence id. Behavior
// is unspecified for pos outside [0, Length(id)), matching spec 4.A.
func (s *Store) Base(id int64, pos int) byte {
	bitOff := s.start[id] + int64(pos)*BitsPerBase
	word := bitOff / (BasesPerWord * BitsPerBase)
	within := int(bitOff % (BasesPerWord * BitsPerBase))
	shift := uint(BasesPerWord*BitsPerBase - BitsPerBase - within)
	return byte((s.words[word] >> shift) & 0x3)
}

// IDOf maps an absolute bit offset back to the sequence id that owns it.
// Requires BuildLookup to have run. O(log N) via binary search over the
// monotone start array, matching spec 4.A's lookup invariant.
func (s *Store) IDOf(absBit int64) int64 {
	if !s.frozen {
		panic("[seqpkg.Store] IDOf called before BuildLookup")
	}
	i := sort.Search(len(s.start), func(i int) bool { return s.start[i] > absBit })
	return int64(i - 1)
}

// Words exposes the raw backing array for use by kmerpac.Kmer.Init and
// the level-2 substring copiers, which need direct word-level access for
// performance; all other access should go through Base/Length/StartBit.
func (s *Store) Words() []uint64 { return s.words }
