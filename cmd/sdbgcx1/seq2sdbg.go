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
	"sdbgcx1/kmerpac"
	"sdbgcx1/mercy"
	"sdbgcx1/sdbgio"
	"sdbgcx1/seqpkg"
)

// Seq2Sdbg is the seq2sdbg pipeline entry point (spec 1's first
// pipeline): it ingests pre-extracted (k+1)-mer edges (or, alternatively,
// contigs to be re-sliced into sliding-window occurrences), optionally
// augments them with mercy edges, then runs the shared CX1 skeleton.
func Seq2Sdbg(c cli.Command) {
	gOpt, ok := CheckGlobalArgs(c.Parent())
	if !ok {
		log.Fatalf("[Seq2Sdbg] check global arguments failed\n")
	}
	runtime.GOMAXPROCS(gOpt.NumCPU)

	edgesPrefix := c.Flag("edges").String()
	contigsFn := c.Flag("contigs").String()
	mercyReadsFn := c.Flag("mercyReads").String()
	if edgesPrefix == "" && contigsFn == "" {
		log.Fatalf("[Seq2Sdbg] one of 'edges' or 'contigs' must be set\n")
	}
	if edgesPrefix != "" && contigsFn != "" {
		log.Fatalf("[Seq2Sdbg] 'edges' and 'contigs' are mutually exclusive in one run\n")
	}

	var store *seqpkg.Store
	var multi seqpkg.MultiplicityVector
	var mode bucket.Mode

	if edgesPrefix != "" {
		mode = bucket.ModeFixedEdge
		info, err := ioformat.ReadEdgesInfo(edgesPrefix + ".edges.info")
		if err != nil {
			log.Fatalf("[Seq2Sdbg] reading edges.info: %v\n", err)
		}
		if info.K != gOpt.Kmer {
			log.Fatalf("[Seq2Sdbg] edges.info k=%d does not match -K %d\n", info.K, gOpt.Kmer)
		}
		fns, err := edgeDataFiles(edgesPrefix)
		if err != nil {
			log.Fatalf("[Seq2Sdbg] listing edge files: %v\n", err)
		}
		store = seqpkg.NewStore(int64(info.K+1)*info.NumEdges, info.NumEdges)
		for _, fn := range fns {
			fStore, fMulti, err := ioformat.ReadEdges(fn, info)
			if err != nil {
				log.Fatalf("[Seq2Sdbg] reading %s: %v\n", fn, err)
			}
			appendStore(store, fStore)
			multi = append(multi, fMulti...)
		}
	} else {
		mode = bucket.ModeSlidingContig
		var err error
		store, multi, _, err = ioformat.ReadContigs(contigsFn, false)
		if err != nil {
			log.Fatalf("[Seq2Sdbg] reading contigs: %v\n", err)
		}
	}

	if mercyReadsFn != "" {
		if mode != bucket.ModeFixedEdge {
			log.Fatalf("[Seq2Sdbg] 'mercyReads' requires 'edges' mode\n")
		}
		genMercyEdges(store, &multi, mercyReadsFn, gOpt.Kmer, gOpt.NumCPU)
	}
	store.BuildLookup()

	cfg := bucket.Config{K: gOpt.Kmer, B: gOpt.BucketBits, Mode: mode}
	codec := cx1.SeqOffsetCodec{
		StartIndex: func(id int64) int64 { return store.StartBit(id) / 2 },
		IndexToSeq: func(absBaseIndex int64) (int64, int) {
			id := store.IDOf(absBaseIndex * 2)
			offset := int(absBaseIndex - store.StartBit(id)/2)
			return id, offset
		},
	}

	RunCX1("Seq2Sdbg", store, multi, cfg, codec, nil, gOpt.Prefix, gOpt.NumCPU, gOpt.MemBudget, gOpt.MemPolicy, gOpt.DotPath, sdbgio.PipelineSeq2sdbg)
}

// edgeDataFiles lists "<prefix>.edges.*" files, excluding the info file,
// in a stable order.
func edgeDataFiles(prefix string) ([]string, error) {
	matches, err := filepath.Glob(prefix + ".edges.*")
	if err != nil {
		return nil, err
	}
	var out []string
	info := prefix + ".edges.info"
	for _, m := range matches {
		if m != info {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	if len(out) == 0 {
		out = []string{prefix + ".edges"}
	}
	return out, nil
}

// appendStore copies every sequence of src into dst, preserving order.
func appendStore(dst, src *seqpkg.Store) {
	bases := make([]byte, 0, 256)
	for id := int64(0); id < src.Size(); id++ {
		n := src.Length(id)
		bases = bases[:0]
		for i := 0; i < n; i++ {
			bases = append(bases, src.Base(id, i))
		}
		dst.AppendFixedLenSeq(append([]byte(nil), bases...))
	}
}

// genMercyEdges builds a sorted edge index over store's existing (k+1)-
// mer edges, scans mercyReadsFn for bridging gaps, and appends every
// mercy edge found directly to store/multi at multiplicity 1.
func genMercyEdges(store *seqpkg.Store, multi *seqpkg.MultiplicityVector, mercyReadsFn string, k, numWorkers int) {
	width := k + 1
	edges := make([]kmerpac.Kmer, store.Size())
	for id := int64(0); id < store.Size(); id++ {
		km := kmerpac.New(width)
		for i := 0; i < width; i++ {
			km.SetBase(i, store.Base(id, i))
		}
		edges[id] = km
	}
	idx := mercy.BuildSortedEdgeIndex(edges, width)

	reads, _, _, err := ioformat.ReadContigs(mercyReadsFn, false)
	if err != nil {
		log.Fatalf("[genMercyEdges] reading %s: %v\n", mercyReadsFn, err)
	}
	reads.BuildLookup()

	var mu sync.Mutex
	var found []mercy.MercyEdge
	n := reads.Size()
	ranges := bucket.Partition(n, numWorkers)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		lo, hi := ranges[w][0], ranges[w][1]
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int64) {
			defer wg.Done()
			mercy.GenMercyEdges(reads, lo, hi, idx, width, &found, &mu)
		}(lo, hi)
	}
	wg.Wait()

	for _, e := range found {
		store.AppendFixedLenSeq(e.Bases)
		multi.Append(1)
	}
	fmt.Printf("[genMercyEdges] appended %d mercy edges\n", len(found))
}
