package main

import (
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/jwaldrip/odin/cli"

	"sdbgcx1/bucket"
	"sdbgcx1/cx1"
	"sdbgcx1/ioformat"
	"sdbgcx1/mercy"
	"sdbgcx1/sdbgio"
	"sdbgcx1/seqpkg"
)

// Read2Sdbg is the read2sdbg pipeline entry point (spec 1's second
// pipeline): it ingests raw reads directly (sliding-window occurrences,
// spec 4.C's ModeSlidingContig), augmenting with mercy edges replayed
// from pre-scanned candidate files rather than a live edge-index lookup
// (the read2sdbg stage-2 mechanism, s2_read_mercy_prepare).
func Read2Sdbg(c cli.Command) {
	gOpt, ok := CheckGlobalArgs(c.Parent())
	if !ok {
		log.Fatalf("[Read2Sdbg] check global arguments failed\n")
	}
	runtime.GOMAXPROCS(gOpt.NumCPU)

	readsFn := c.Flag("reads").String()
	if readsFn == "" {
		log.Fatalf("[Read2Sdbg] 'reads' not set\n")
	}
	mercyCandPrefix := c.Flag("mercyCandPrefix").String()

	store, multi, _, err := ioformat.ReadContigs(readsFn, false)
	if err != nil {
		log.Fatalf("[Read2Sdbg] reading reads: %v\n", err)
	}

	maxLen := 0
	for id := int64(0); id < store.Size(); id++ {
		if l := store.Length(id); l > maxLen {
			maxLen = l
		}
	}
	readCodec := cx1.NewReadOffsetCodec(maxLen)

	if mercyCandPrefix != "" {
		applyMercyCandidates(store, &multi, mercyCandPrefix, readCodec.L, gOpt.Kmer, gOpt.NumCPU)
	}
	store.BuildLookup()

	cfg := bucket.Config{K: gOpt.Kmer, B: gOpt.BucketBits, Mode: bucket.ModeSlidingContig}
	classify := func(int64, int, int) cx1.EdgeType { return cx1.EdgeSolid }

	RunCX1("Read2Sdbg", store, multi, cfg, readCodec, classify, gOpt.Prefix, gOpt.NumCPU, gOpt.MemBudget, gOpt.MemPolicy, gOpt.DotPath, sdbgio.PipelineRead2sdbg)
}

// applyMercyCandidates reads every "<prefix>.mercy_cand.<fid>" file,
// replays each read's candidates independently, and appends the
// resulting bridging edges as new fixed-length sequences in store
// (multiplicity 1), matching seq2sdbg's own mercy-append convention.
func applyMercyCandidates(store *seqpkg.Store, multi *seqpkg.MultiplicityVector, prefix string, l, k, numWorkers int) {
	fns, err := filepath.Glob(prefix + ".mercy_cand.*")
	if err != nil {
		log.Fatalf("[applyMercyCandidates] listing %s: %v\n", prefix, err)
	}
	sort.Strings(fns)

	byRead := map[int64][]mercy.Candidate{}
	for _, fn := range fns {
		cands, err := ioformat.ReadMercyCandidates(fn, l)
		if err != nil {
			log.Fatalf("[applyMercyCandidates] reading %s: %v\n", fn, err)
		}
		for _, c := range cands {
			byRead[c.ReadID] = append(byRead[c.ReadID], c)
		}
	}

	var mu sync.Mutex
	var found []mercy.MercyEdge
	var wg sync.WaitGroup
	sem := make(chan struct{}, numWorkers)
	for readID, cands := range byRead {
		sort.Slice(cands, func(i, j int) bool { return cands[i].Offset < cands[j].Offset })
		wg.Add(1)
		sem <- struct{}{}
		go func(readID int64, cands []mercy.Candidate) {
			defer wg.Done()
			defer func() { <-sem }()
			mercy.ReplayCandidates(readID, store.Length(readID), cands, store, k, &found, &mu)
		}(readID, cands)
	}
	wg.Wait()

	for _, e := range found {
		store.AppendFixedLenSeq(e.Bases)
		multi.Append(1)
	}
	fmt.Printf("[applyMercyCandidates] appended %d mercy edges from %d candidate files\n", len(found), len(fns))
}
