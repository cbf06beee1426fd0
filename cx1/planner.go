// Package cx1 implements the external-memory bucketed sort/merge
// skeleton shared by both pipelines (spec 4.D/4.E/4.F): the memory
// planner, the level-1 differential-offset filler, and the level-2
// substring extractor. Grounded on init_global_and_set_cx1/
// lv1_fill_offset/lv2_extract_substr in cx1_seq2sdbg.cpp and their
// s2_ counterparts in cx1_read2sdbg_s2.cpp.
package cx1

import (
	"sdbgcx1/bucket"
	"sdbgcx1/sdbgerr"
)

// MemPolicy selects how aggressively the planner uses the level-1
// buffer, mirroring the three mem_flag values of init_global_and_set_cx1.
type MemPolicy int

const (
	// MemMin sizes the level-1 buffer to roughly one level-2 batch,
	// maximising the number of level-1 passes (minimum peak memory).
	MemMin MemPolicy = iota
	// MemAuto targets DefaultLv1ScanTime level-1 passes over the data.
	MemAuto
	// MemMax uses all memory left over after reserving the level-2
	// buffer, minimising the number of level-1 passes.
	MemMax
)

// DefaultLv1ScanTime is the auto policy's target number of level-1
// passes (kDefaultLv1ScanTime in the original).
const DefaultLv1ScanTime = 64

// MaxLv1ScanTime bounds how many level-1 passes the auto policy will
// tolerate before it would rather grow the level-1 buffer further
// (kMaxLv1ScanTime in the original).
const MaxLv1ScanTime = 128

// BytesPerLv1Item is the fixed per-occurrence footprint of a level-1
// slot: one 32-bit differential-or-side-table-index word.
const BytesPerLv1Item int64 = 4

// BytesPerLv2Item returns the per-item footprint of the level-2 buffer:
// wordsPerItem 32-bit substring words, plus a 32-bit permutation slot
// and an 8-byte sort scratch key.
func BytesPerLv2Item(wordsPerItem int) int64 {
	return int64(wordsPerItem)*4 + 4 + 8
}

// MinLv2BatchSize floors the level-2 item capacity, mirroring
// kMinLv2BatchSize's role in init_global_and_set_cx1
// (cx1_seq2sdbg.cpp: "max_lv2_items_ = max(max_bucket_size,
// kMinLv2BatchSize)"). The header defining its exact original value
// isn't part of the retrieved source, so this floors at 1 — a batch
// must hold at least one item — rather than guessing a magic constant.
const MinLv2BatchSize int64 = 1

// Lv2Batch is a contiguous sub-range of bucket indices whose combined
// occurrence count fits in MaxLv2Items.
type Lv2Batch struct {
	BucketLo, BucketHi int // inclusive
	NumItems            int64
}

// Lv1Window is a contiguous range of bucket indices that fits in
// MaxLv1Items; it is subdivided into one or more Lv2Batch ranges.
type Lv1Window struct {
	BucketLo, BucketHi int // inclusive
	Batches            []Lv2Batch
}

// Plan is the planner's output (spec 4.D).
type Plan struct {
	MaxLv1Items int64
	MaxLv2Items int64
	Windows     []Lv1Window
}

// BuildPlan partitions sizes into level-1 windows and level-2 batches
// given a host memory budget in bytes and the level-2 item width in
// 32-bit words. Policy selects how the level-1 buffer is sized.
//
// Sizing follows init_global_and_set_cx1: max_lv2_items_ is sized off
// the single largest bucket (not a fixed fraction of the budget), since
// one batch must be able to hold that bucket whole; max_lv1_items_ is
// then sized from whatever memory the level-2 allocation leaves behind
// ("mem_remained"), scaled per policy.
func BuildPlan(sizes bucket.Sizes, memBudgetBytes int64, wordsPerLv2Item int, policy MemPolicy) (*Plan, error) {
	if memBudgetBytes <= 0 {
		return nil, sdbgerr.New(sdbgerr.BudgetInsufficient, "cx1.Plan", "memory budget must be positive")
	}
	bytesPerLv2 := BytesPerLv2Item(wordsPerLv2Item)

	var total, maxBucketSize int64
	for _, sz := range sizes {
		total += sz
		if sz > maxBucketSize {
			maxBucketSize = sz
		}
	}

	maxLv2Items := maxBucketSize
	if maxLv2Items < MinLv2BatchSize {
		maxLv2Items = MinLv2BatchSize
	}
	if maxLv2Items*bytesPerLv2 > memBudgetBytes {
		// the naive sizing above doesn't fit; shrink to whatever the
		// budget allows (adjust_mem's clamping role in the original).
		maxLv2Items = memBudgetBytes / bytesPerLv2
	}
	if maxLv2Items <= 0 {
		return nil, sdbgerr.New(sdbgerr.BudgetInsufficient, "cx1.Plan", "level-2 budget too small for even one item")
	}
	if maxBucketSize > maxLv2Items {
		return nil, sdbgerr.New(sdbgerr.BudgetInsufficient, "cx1.Plan",
			"a single bucket exceeds max_lv2_items; raise the memory budget")
	}

	memRemained := memBudgetBytes - maxLv2Items*bytesPerLv2
	maxByMemory := memRemained / BytesPerLv1Item

	var maxLv1Items int64
	switch policy {
	case MemMin:
		maxLv1Items = maxLv2Items
	case MemMax:
		// "use all remaining memory" (spec 4.D) — everything left after
		// the level-2 buffer's own allocation.
		maxLv1Items = maxByMemory
	default: // MemAuto
		target := total / DefaultLv1ScanTime
		floor := total / MaxLv1ScanTime
		maxLv1Items = target
		if maxLv1Items < floor {
			maxLv1Items = floor
		}
		if maxLv1Items < maxLv2Items {
			maxLv1Items = maxLv2Items
		}
		if maxLv1Items > maxByMemory {
			maxLv1Items = maxByMemory
		}
	}
	if maxLv1Items < maxLv2Items {
		maxLv1Items = maxLv2Items // a window must hold at least one full batch
	}
	if maxLv1Items <= 0 {
		return nil, sdbgerr.New(sdbgerr.BudgetInsufficient, "cx1.Plan", "level-1 budget too small")
	}

	plan := &Plan{MaxLv1Items: maxLv1Items, MaxLv2Items: maxLv2Items}
	plan.Windows = buildWindows(sizes, maxLv1Items, maxLv2Items)
	return plan, nil
}

func buildWindows(sizes bucket.Sizes, maxLv1Items, maxLv2Items int64) []Lv1Window {
	var windows []Lv1Window
	nb := len(sizes)
	winLo := 0
	var winSum int64
	for winLo < nb {
		winHi := winLo
		winSum = 0
		for winHi < nb && winSum+sizes[winHi] <= maxLv1Items {
			winSum += sizes[winHi]
			winHi++
		}
		if winHi == winLo {
			// a single bucket's size exceeds maxLv1Items but, by the
			// earlier check, not maxLv2Items; admit it alone.
			winHi = winLo + 1
			winSum = sizes[winLo]
		}
		windows = append(windows, Lv1Window{
			BucketLo: winLo,
			BucketHi: winHi - 1,
			Batches:  buildBatches(sizes, winLo, winHi, maxLv2Items),
		})
		winLo = winHi
	}
	return windows
}

func buildBatches(sizes bucket.Sizes, lo, hi int, maxLv2Items int64) []Lv2Batch {
	var batches []Lv2Batch
	batchLo := lo
	var batchSum int64
	for b := lo; b < hi; b++ {
		if batchSum+sizes[b] > maxLv2Items && b > batchLo {
			batches = append(batches, Lv2Batch{BucketLo: batchLo, BucketHi: b - 1, NumItems: batchSum})
			batchLo = b
			batchSum = 0
		}
		batchSum += sizes[b]
	}
	batches = append(batches, Lv2Batch{BucketLo: batchLo, BucketHi: hi - 1, NumItems: batchSum})
	return batches
}
