package cx1

import (
	"testing"

	"sdbgcx1/bucket"
)

func TestBuildPlanCoversAllBuckets(t *testing.T) {
	sizes := bucket.Sizes{10, 20, 5, 0, 30, 1, 1, 1}
	plan, err := BuildPlan(sizes, 1<<20, 2, MemAuto)
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	var total int64
	nextBucket := 0
	for _, w := range plan.Windows {
		if w.BucketLo != nextBucket {
			t.Fatalf("window gap: expected BucketLo=%d, got %d", nextBucket, w.BucketLo)
		}
		bLo := w.BucketLo
		for _, b := range w.Batches {
			if b.BucketLo != bLo {
				t.Fatalf("batch gap inside window: expected %d, got %d", bLo, b.BucketLo)
			}
			var sum int64
			for i := b.BucketLo; i <= b.BucketHi; i++ {
				sum += sizes[i]
			}
			if sum != b.NumItems {
				t.Errorf("batch [%d,%d] NumItems=%d, want %d", b.BucketLo, b.BucketHi, b.NumItems, sum)
			}
			if b.NumItems > plan.MaxLv2Items {
				t.Errorf("batch [%d,%d] exceeds MaxLv2Items: %d > %d", b.BucketLo, b.BucketHi, b.NumItems, plan.MaxLv2Items)
			}
			total += sum
			bLo = b.BucketHi + 1
		}
		if bLo != w.BucketHi+1 {
			t.Fatalf("window [%d,%d] batches don't cover the whole window (stopped at %d)", w.BucketLo, w.BucketHi, bLo)
		}
		nextBucket = w.BucketHi + 1
	}
	if nextBucket != len(sizes) {
		t.Fatalf("windows don't cover all buckets: stopped at %d, want %d", nextBucket, len(sizes))
	}
	var want int64
	for _, s := range sizes {
		want += s
	}
	if total != want {
		t.Fatalf("total items across batches = %d, want %d", total, want)
	}
}

func TestBuildPlanBudgetSqueeze(t *testing.T) {
	// Scenario S6: max_lv2_items pinned to the largest bucket exactly
	// should still produce one batch per bucket, never failing.
	sizes := bucket.Sizes{5, 8, 3, 8, 1}
	bytesPerItem := BytesPerLv2Item(2)
	budget := 8 * bytesPerItem * 2 // *2 leaves level-1 headroom beyond the level-2 allocation
	plan, err := BuildPlan(sizes, budget, 2, MemMin)
	if err != nil {
		t.Fatalf("BuildPlan failed: %v", err)
	}
	var numBatches int
	for _, w := range plan.Windows {
		numBatches += len(w.Batches)
	}
	if numBatches < len(sizes) {
		t.Errorf("expected at least one batch per bucket under a tight budget, got %d batches for %d buckets", numBatches, len(sizes))
	}
}

func TestBuildPlanInsufficientBudget(t *testing.T) {
	sizes := bucket.Sizes{1 << 30}
	_, err := BuildPlan(sizes, 1024, 2, MemAuto)
	if err == nil {
		t.Fatal("expected BudgetInsufficient error for a bucket far exceeding the budget")
	}
}

func TestBuildPlanRejectsNonPositiveBudget(t *testing.T) {
	if _, err := BuildPlan(bucket.Sizes{1}, 0, 1, MemAuto); err == nil {
		t.Fatal("expected error for zero memory budget")
	}
	if _, err := BuildPlan(bucket.Sizes{1}, -1, 1, MemAuto); err == nil {
		t.Fatal("expected error for negative memory budget")
	}
}
