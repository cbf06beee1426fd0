package main

import (
	"fmt"
	"log"

	"sdbgcx1/bucket"
	"sdbgcx1/cx1"
	"sdbgcx1/diagnostics"
	"sdbgcx1/seqpkg"
	"sdbgcx1/sdbgio"
	"sdbgcx1/sortkey"
	"sdbgcx1/stats"
)

// RunCX1 drives the full CX1 skeleton (spec 4.D-4.H) for one pipeline:
// compute bucket sizes, build the plan, and for every level-1 window
// fill then, for every level-2 batch inside it, extract/sort/absorb.
// This is the one place both the seq2sdbg and read2sdbg subcommands
// meet; the only difference between the two pipelines is what cfg/codec/
// classify/store/multi look like going in.
func RunCX1(tag string, store *seqpkg.Store, multi seqpkg.MultiplicityVector, cfg bucket.Config, codec cx1.OffsetCodec, classify cx1.EdgeClassifier, outPrefix string, numWorkers int, memBudget int64, policy cx1.MemPolicy, dotPath string, pipeline sdbgio.Pipeline) {
	t := stats.NewTimer(tag, "bucket size scan")
	sizes := bucket.Compute(store, cfg, numWorkers)
	t.Lap("plan")

	wordsPerItem := cx1.WordsPerItem(cfg.K)
	plan, err := cx1.BuildPlan(sizes, memBudget, wordsPerItem, policy)
	if err != nil {
		log.Fatalf("[%s] planning failed: %v\n", tag, err)
	}
	fmt.Printf("[%s] plan: %d windows, max_lv1=%d max_lv2=%d\n", tag, len(plan.Windows), plan.MaxLv1Items, plan.MaxLv2Items)
	t.Lap("emit")

	emitter, err := sdbgio.New(outPrefix, cfg.K, pipeline)
	if err != nil {
		log.Fatalf("[%s] opening output streams failed: %v\n", tag, err)
	}

	dumped := false
	for wi, window := range plan.Windows {
		lv1 := cx1.FillWindow(store, cfg, window, sizes, codec, classify, numWorkers)
		for bi, batch := range window.Batches {
			lv2 := cx1.ExtractBatch(store, cfg, lv1, window, batch, codec, multi, numWorkers)
			perm := sortkey.NewPermutation(lv2.N)
			sortkey.Sort(lv2, perm)
			if dotPath != "" && !dumped {
				if err := diagnostics.DumpLv2Batch(lv2, perm, dotPath); err != nil {
					log.Fatalf("[%s] dumping first batch to %s failed: %v\n", tag, dotPath, err)
				}
				dumped = true
			}
			if err := emitter.Absorb(lv2, perm); err != nil {
				log.Fatalf("[%s] window %d batch %d: absorb failed: %v\n", tag, wi, bi, err)
			}
		}
	}

	if err := emitter.Close(); err != nil {
		log.Fatalf("[%s] closing output streams failed: %v\n", tag, err)
	}
	t.Done()

	totalEdges, numDollarNodes, numOnesInLast, numDummyEdges, numCharsInW := emitter.Stats()
	fmt.Printf("[%s] total_edges=%d num_dollar_nodes=%d num_ones_in_last=%d num_dummy_edges=%d w_hist=%v\n",
		tag, totalEdges, numDollarNodes, numOnesInLast, numDummyEdges, numCharsInW)
}
