// Command sdbgcx1 is the CLI entry point wiring ioformat -> mercy ->
// bucket -> cx1 -> sortkey -> sdbgio into the two runnable pipelines
// (spec 1): seq2sdbg and read2sdbg. Grounded on ga.go's odin/cli
// subcommand wiring (app := cli.New(...), app.DefineSubCommand(...)).
package main

import (
	"github.com/jwaldrip/odin/cli"
)

const defaultKmer = 21

var app = cli.New("1.0.0", "Succinct de Bruijn graph builder (CX1 external-memory pipeline)", func(c cli.Command) {})

func init() {
	app.DefineStringFlag("p", "", "output prefix")
	app.DefineIntFlag("K", defaultKmer, "node k-mer length (must be odd)")
	app.DefineIntFlag("t", 0, "number of CPU threads (0 = runtime.NumCPU())")
	app.DefineInt64Flag("mem", 4<<30, "host memory budget in bytes")
	app.DefineIntFlag("B", 6, "bucket-prefix length B (NumBuckets = 4^B)")
	app.DefineStringFlag("dot", "", "dump the first level-2 batch as a Graphviz digraph to this path (debugging aid)")
	app.DefineStringFlag("mem-policy", "auto", "level-1 buffer sizing policy: min, auto, or max")

	s2s := app.DefineSubCommand("seq2sdbg", "build an SdBG from pre-extracted edges or contigs", Seq2Sdbg)
	{
		s2s.DefineStringFlag("edges", "", "<prefix> of <prefix>.edges.* + <prefix>.edges.info")
		s2s.DefineStringFlag("contigs", "", "contig multi-FASTA file (mutually exclusive with 'edges')")
		s2s.DefineStringFlag("mercyReads", "", "FASTA of reads to scan for mercy edges (requires 'edges')")
	}

	r2s := app.DefineSubCommand("read2sdbg", "build an SdBG directly from reads", Read2Sdbg)
	{
		r2s.DefineStringFlag("reads", "", "read multi-FASTA file")
		r2s.DefineStringFlag("mercyCandPrefix", "", "<prefix> of <prefix>.mercy_cand.<fid> candidate files")
	}
}

func main() {
	app.Start()
}
