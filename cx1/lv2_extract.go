package cx1

import (
	"sdbgcx1/bucket"
	"sdbgcx1/seqpkg"
)

// ExtractBatch materialises one level-2 batch (spec 4.F): for every
// bucket in batch, for every worker's slot sub-range inside that
// bucket, replay the differential chain to recover absolute offsets,
// decode each into (seqID, kmerStart, strand), look up the occurrence's
// bases/flags/multiplicity, and pack it into column position
// substrCursor of the returned buffer. Item order therefore groups by
// bucket (ascending), and within a bucket by worker (ascending) then by
// write order within the worker — sort (component G) imposes the final
// lexicographic order on top of this.
func ExtractBatch(store *seqpkg.Store, cfg bucket.Config, lv1 *Lv1Buffer, window Lv1Window, batch Lv2Batch, codec OffsetCodec, multi seqpkg.MultiplicityVector, numWorkers int) *Lv2Buffer {
	buf := NewLv2Buffer(cfg.K, int(batch.NumItems))
	item := 0
	for bucketIdx := batch.BucketLo; bucketIdx <= batch.BucketHi; bucketIdx++ {
		relB := bucketIdx - window.BucketLo
		for w := 0; w < numWorkers; w++ {
			if lv1.WorkerOffset == nil || w >= len(lv1.WorkerOffset) {
				continue
			}
			lo := lv1.WorkerOffset[w][relB]
			hi := lo + lv1.WorkerCount[w][relB]
			if lo >= hi {
				continue
			}
			for _, abs := range lv1.DecodeRange(lo, hi) {
				seqID, kmerStart, strand, _ := codec.Decode(abs)
				packItem(buf, item, store, cfg, seqID, kmerStart, strand, multi)
				item++
			}
		}
	}
	return buf
}

func packItem(buf *Lv2Buffer, item int, store *seqpkg.Store, cfg bucket.Config, seqID int64, kmerStart, strand int, multi seqpkg.MultiplicityVector) {
	suffix, aReal, aChar, bReal, bChar := bucket.NodeFields(store, seqID, cfg, kmerStart, strand)
	bases := make([]byte, cfg.K)
	copy(bases, suffix)
	if aReal {
		bases[cfg.K-1] = aChar
	}
	count := int64(1)
	if int(seqID) < len(multi) {
		count = int64(multi[seqID])
	}
	if count > seqpkg.MaxMulti {
		count = seqpkg.MaxMulti
	}
	inverted := uint16(seqpkg.MaxMulti - count)

	var bField byte
	if bReal {
		bField = bChar
	}
	buf.SetItem(item, bases, aReal, bReal, bField, inverted)
}
