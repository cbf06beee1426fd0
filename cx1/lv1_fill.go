package cx1

import (
	"sync"

	"sdbgcx1/bucket"
	"sdbgcx1/seqpkg"
)

// DiffLimit is the largest differential that fits the 31-bit positive
// range a level-1 slot can carry before the filler must fall back to
// the side table (spec 3, "Level-1 offset record").
const DiffLimit int64 = 1<<31 - 1

// Lv1Buffer holds one level-1 window's differential-offset slots plus
// the shared side table for occurrences whose differential didn't fit.
// Grounded on the globals.lv1_items / globals.lv1_special_offsets pair
// in cx1_seq2sdbg.cpp.
type Lv1Buffer struct {
	Slots       []int32
	BucketStart []int64 // length nb+1, relative to window.BucketLo
	SideTable   []uint64
	// WorkerOffset[w][b] / WorkerCount[w][b] give the sub-range inside
	// bucket b's slots that worker w filled, so the level-2 extractor
	// can replay each worker's differential chain independently.
	WorkerOffset [][]int64
	WorkerCount  [][]int64
	mu           sync.Mutex
}

// bucketRange returns [lo,hi) slot indices for the bucket at relative
// index relB inside the window.
func (b *Lv1Buffer) bucketRange(relB int) (int64, int64) {
	return b.BucketStart[relB], b.BucketStart[relB+1]
}

func (b *Lv1Buffer) pushSideTable(abs uint64) int64 {
	b.mu.Lock()
	idx := int64(len(b.SideTable))
	b.SideTable = append(b.SideTable, abs)
	b.mu.Unlock()
	return idx
}

// EdgeClassifier lets a pipeline attach its own edge_type to an
// occurrence; seq2sdbg has none and passes nil (EdgeSolid is used).
type EdgeClassifier func(seqID int64, kmerStart, strand int) EdgeType

// FillWindow runs the level-1 filler (spec 4.E) for one planner window.
// sizes is the same global bucket-size array the planner was given.
// numWorkers sets the static read partitioning; the per-worker
// sub-ranges it records are what ExtractBatch replays, so ExtractBatch
// must be called with the same worker count.
func FillWindow(store *seqpkg.Store, cfg bucket.Config, window Lv1Window, sizes bucket.Sizes, codec OffsetCodec, classify EdgeClassifier, numWorkers int) *Lv1Buffer {
	if classify == nil {
		classify = func(int64, int, int) EdgeType { return EdgeSolid }
	}
	lo, hi := window.BucketLo, window.BucketHi
	nb := hi - lo + 1

	buf := &Lv1Buffer{BucketStart: make([]int64, nb+1)}
	var cum int64
	for i := 0; i < nb; i++ {
		buf.BucketStart[i] = cum
		cum += sizes[lo+i]
	}
	buf.BucketStart[nb] = cum
	buf.Slots = make([]int32, cum)

	n := store.Size()
	ranges := bucket.Partition(n, numWorkers)

	// Pass 1: each worker counts its own occurrences per bucket inside
	// the window, so the second pass can compute contiguous per-worker
	// sub-ranges within each bucket's slot range.
	localSizes := make([][]int64, numWorkers)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		lsz := make([]int64, nb)
		localSizes[w] = lsz
		wlo, whi := ranges[w][0], ranges[w][1]
		if wlo >= whi {
			continue
		}
		wg.Add(1)
		go func(wlo, whi int64, lsz []int64) {
			defer wg.Done()
			for id := wlo; id < whi; id++ {
				bucket.Walk(store, id, cfg, func(kmerStart, strand, bucketIdx int) {
					if bucketIdx >= lo && bucketIdx <= hi {
						lsz[bucketIdx-lo]++
					}
				})
			}
		}(wlo, whi, lsz)
	}
	wg.Wait()

	// workerOffset[w][b] = start of worker w's sub-range within bucket b.
	workerOffset := make([][]int64, numWorkers)
	for b := 0; b < nb; b++ {
		running := buf.BucketStart[b]
		for w := 0; w < numWorkers; w++ {
			if workerOffset[w] == nil {
				workerOffset[w] = make([]int64, nb)
			}
			workerOffset[w][b] = running
			running += localSizes[w][b]
		}
	}

	// Pass 2: fill, with a per-worker, per-bucket cursor and prev-offset.
	for w := 0; w < numWorkers; w++ {
		wlo, whi := ranges[w][0], ranges[w][1]
		if wlo >= whi {
			continue
		}
		wg.Add(1)
		go func(w int, wlo, whi int64) {
			defer wg.Done()
			cursor := make([]int64, nb)
			copy(cursor, workerOffset[w])
			prevOffset := make([]int64, nb)
			for id := wlo; id < whi; id++ {
				bucket.Walk(store, id, cfg, func(kmerStart, strand, bucketIdx int) {
					if bucketIdx < lo || bucketIdx > hi {
						return
					}
					relB := bucketIdx - lo
					edgeType := classify(id, kmerStart, strand)
					abs := codec.Encode(id, kmerStart, strand, edgeType)

					diff := int64(abs) - prevOffset[relB]
					slot := cursor[relB]
					cursor[relB]++
					if diff >= 0 && diff <= DiffLimit {
						buf.Slots[slot] = int32(diff)
					} else {
						idx := buf.pushSideTable(abs)
						buf.Slots[slot] = int32(-(idx + 1))
					}
					prevOffset[relB] = int64(abs)
				})
			}
		}(w, wlo, whi)
	}
	wg.Wait()

	buf.WorkerOffset = workerOffset
	buf.WorkerCount = localSizes
	return buf
}

// Decode replays the differential chain for bucket relB, reconstructing
// the original monotonic sequence of absolute offsets (spec 8, property
// 7). Worker sub-ranges are replayed back to back in worker order, with
// prev reset to 0 at the start of each, as the filler wrote them.
func (b *Lv1Buffer) Decode(relB int) []uint64 {
	lo, hi := b.bucketRange(relB)
	if b.WorkerOffset == nil {
		return b.DecodeRange(lo, hi)
	}
	out := make([]uint64, 0, hi-lo)
	for w := range b.WorkerOffset {
		wlo := b.WorkerOffset[w][relB]
		out = append(out, b.DecodeRange(wlo, wlo+b.WorkerCount[w][relB])...)
	}
	return out
}

// DecodeRange replays the differential chain for slots [lo,hi), with
// prev reset to 0 at lo; this is the correct call when lo is the start
// of a single worker's sub-range inside a bucket.
func (b *Lv1Buffer) DecodeRange(lo, hi int64) []uint64 {
	out := make([]uint64, 0, hi-lo)
	var prev int64
	for i := lo; i < hi; i++ {
		v := b.Slots[i]
		if v >= 0 {
			prev += int64(v)
		} else {
			prev = int64(b.SideTable[-int64(v)-1])
		}
		out = append(out, uint64(prev))
	}
	return out
}
