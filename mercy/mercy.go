// Package mercy implements the mercy-edge augmenter (spec 4.I): for
// each candidate read, find positions with an incoming-only or
// outgoing-only k-mer neighbor and synthesise bridging (k+1)-mer edges
// across the gap. Two acceleration mechanisms are provided, grounded on
// the two pipelines' distinct approaches (spec 11, SUPPLEMENTED
// FEATURES):
//   - SortedEdgeIndex + GenMercyEdges: the seq2sdbg pipeline's
//     binary-search-over-sorted-edges approach (GenMercyEdges/
//     InitLookupTable/BinarySearchKmer in cx1_seq2sdbg.cpp), accelerated
//     by a 16-base-prefix lookup table.
//   - ReplayCandidates: the read2sdbg pipeline's sorted-candidate-replay
//     approach (s2_read_mercy_prepare in cx1_read2sdbg_s2.cpp), which
//     consumes pre-scanned no-in/no-out candidate records instead of
//     querying a live edge index per base.
package mercy

import (
	"sort"
	"sync"

	"sdbgcx1/kmerpac"
	"sdbgcx1/seqpkg"
)

// lookupPrefixLen is the number of bases the acceleration table keys
// on (spec 11: "a 2^(2*16)-entry lookup table mapping a 16-base
// prefix"); capped to k+1 when the edge is shorter.
const lookupPrefixLen = 16

// SortedEdgeIndex holds the existing edge set sorted by k-mer order,
// plus a prefix lookup table narrowing binary search to the matching
// range before the O(log n) search runs.
type SortedEdgeIndex struct {
	edges       []kmerpac.Kmer
	k           int // edge width, i.e. k+1 bases
	prefixLen   int
	lookupTable [][2]int32 // [lo,hi) into edges, indexed by prefix value
	filter      *cuckooFilter
}

// BuildSortedEdgeIndex sorts edges (each k bases wide), builds the
// prefix lookup table, and populates a cuckoo fast-reject prefilter
// (mercy/cuckoofilter.go) ahead of the binary search: most Contains
// probes on real read data miss, and a filter hit is a single hashed
// slice lookup against a ~8KB-per-4096-entries table versus a
// cache-unfriendly O(log n) search over edges.
func BuildSortedEdgeIndex(edges []kmerpac.Kmer, k int) *SortedEdgeIndex {
	sorted := make([]kmerpac.Kmer, len(edges))
	copy(sorted, edges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cmp(sorted[j], k) < 0 })

	idx := &SortedEdgeIndex{edges: sorted, k: k}
	idx.prefixLen = lookupPrefixLen
	if idx.prefixLen > k {
		idx.prefixLen = k
	}
	numEntries := 1 << uint(2*idx.prefixLen)
	idx.lookupTable = make([][2]int32, numEntries)
	lo := 0
	for p := 0; p < numEntries; p++ {
		hi := lo
		for hi < len(sorted) && prefixValue(sorted[hi], idx.prefixLen) == p {
			hi++
		}
		idx.lookupTable[p] = [2]int32{int32(lo), int32(hi)}
		lo = hi
	}

	idx.filter = newCuckooFilter(uint64(len(sorted)))
	for _, km := range sorted {
		idx.filter.insert(kmerHash(km, k))
	}
	return idx
}

func prefixValue(km kmerpac.Kmer, prefixLen int) int {
	v := 0
	for i := 0; i < prefixLen; i++ {
		v = v<<2 | int(km.Base(i))
	}
	return v
}

// Contains reports whether km (exactly idx.k bases) is an existing edge.
func (idx *SortedEdgeIndex) Contains(km kmerpac.Kmer) bool {
	if !idx.filter.mayContain(kmerHash(km, idx.k)) {
		return false
	}
	p := prefixValue(km, idx.prefixLen)
	rng := idx.lookupTable[p]
	lo, hi := int(rng[0]), int(rng[1])
	i := sort.Search(hi-lo, func(i int) bool {
		return idx.edges[lo+i].Cmp(km, idx.k) >= 0
	})
	return lo+i < hi && idx.edges[lo+i].Cmp(km, idx.k) == 0
}

// MercyEdge is one synthesised bridging edge: k+1 bases starting at
// position in readID.
type MercyEdge struct {
	ReadID   int64
	Position int
	Bases    []byte
}

// GenMercyEdges scans reads[loRead:hiRead) against idx and appends
// every bridging mercy edge it finds to out, guarded by mu. Intended to
// run concurrently over disjoint read ranges (spec 4.I: "per-read
// parallel; the shared mercy_edges vector is appended under a mutex").
//
// edgeWidth must equal idx.k (the (k+1)-mer width idx was built with):
// the sliding window checked against idx and the window emitted for a
// bridged gap are the same window, so there is only one width in play.
func GenMercyEdges(reads *seqpkg.Store, loRead, hiRead int64, idx *SortedEdgeIndex, edgeWidth int, out *[]MercyEdge, mu *sync.Mutex) {
	for id := loRead; id < hiRead; id++ {
		length := reads.Length(id)
		if length < edgeWidth {
			continue
		}
		hasIn := make([]bool, length)
		hasOut := make([]bool, length)
		km := kmerpac.New(edgeWidth)
		for pos := 0; pos+edgeWidth <= length; pos++ {
			for i := 0; i < edgeWidth; i++ {
				km.SetBase(i, reads.Base(id, pos+i))
			}
			exists := idx.Contains(km)
			if pos > 0 {
				hasIn[pos] = exists
			}
			if pos+edgeWidth < length {
				hasOut[pos] = exists
			}
		}
		walkGaps(hasIn, hasOut, func(gapPos int) {
			if gapPos+edgeWidth > length {
				return
			}
			bases := make([]byte, edgeWidth)
			for i := 0; i < edgeWidth; i++ {
				bases[i] = reads.Base(id, gapPos+i)
			}
			mu.Lock()
			*out = append(*out, MercyEdge{ReadID: id, Position: gapPos, Bases: bases})
			mu.Unlock()
		})
	}
}

// walkGaps implements the last_no_out state machine of spec 4.I. The
// fourth case (neither has_in nor has_out at a position) is left
// undecided by the spec; this implementation leaves last_no_out
// unchanged, treating such a position as uninformative rather than as
// evidence the gap has closed.
func walkGaps(hasIn, hasOut []bool, emit func(pos int)) {
	lastNoOut := -1
	for i := range hasIn {
		in, out := hasIn[i], hasOut[i]
		switch {
		case in && !out:
			lastNoOut = i
		case !in && out:
			if lastNoOut >= 0 {
				for j := lastNoOut; j < i; j++ {
					emit(j)
				}
				lastNoOut = -1
			}
		case in && out:
			lastNoOut = -1
		}
	}
}

// CandidateKind mirrors the two kinds a .mercy_cand.<fid> record can
// carry (spec 6, External Interfaces).
type CandidateKind int

const (
	KindNoIn  CandidateKind = 1
	KindNoOut CandidateKind = 2
)

// Candidate is one decoded mercy_cand record.
type Candidate struct {
	ReadID int64
	Offset int
	Kind   CandidateKind
}

// ReplayCandidates implements s2_read_mercy_prepare: candidates for a
// single read, already sorted by Offset, are replayed to build the
// has_in/has_out bitmaps directly (no live edge-index lookups), then
// fed through the same walkGaps state machine.
func ReplayCandidates(readID int64, readLen int, candidates []Candidate, reads *seqpkg.Store, k int, out *[]MercyEdge, mu *sync.Mutex) {
	hasIn := make([]bool, readLen)
	hasOut := make([]bool, readLen)
	for _, c := range candidates {
		switch c.Kind {
		case KindNoIn:
			hasIn[c.Offset] = false
			hasOut[c.Offset] = true
		case KindNoOut:
			hasIn[c.Offset] = true
			hasOut[c.Offset] = false
		}
	}
	walkGaps(hasIn, hasOut, func(gapPos int) {
		if gapPos+k+1 > readLen {
			return
		}
		bases := make([]byte, k+1)
		for i := 0; i <= k; i++ {
			bases[i] = reads.Base(readID, gapPos+i)
		}
		mu.Lock()
		*out = append(*out, MercyEdge{ReadID: readID, Position: gapPos, Bases: bases})
		mu.Unlock()
	})
}
