package main

import (
	"log"
	"runtime"

	"github.com/jwaldrip/odin/cli"

	"sdbgcx1/cx1"
)

// GlobalArgs mirrors CheckGlobalArgs's ArgsOpt in utils.go: the flags
// every subcommand shares, validated once and threaded through.
type GlobalArgs struct {
	Prefix     string
	Kmer       int
	NumCPU     int
	MemBudget  int64
	BucketBits int
	DotPath    string
	MemPolicy  cx1.MemPolicy
}

// parseMemPolicy maps the -mem-policy flag's string value to a
// cx1.MemPolicy, matching init_global_and_set_cx1's mem_flag values
// (0=min, 1=auto, 2=max).
func parseMemPolicy(s string) (cx1.MemPolicy, bool) {
	switch s {
	case "min":
		return cx1.MemMin, true
	case "auto":
		return cx1.MemAuto, true
	case "max":
		return cx1.MemMax, true
	default:
		return cx1.MemAuto, false
	}
}

// CheckGlobalArgs validates the global flags, fatal on error exactly
// like the teacher's CheckGlobalArgs (log.Fatalf calls are confined to
// this cmd/sdbgcx1 package).
func CheckGlobalArgs(c cli.Command) (opt GlobalArgs, succ bool) {
	opt.Prefix = c.Flag("p").String()
	if opt.Prefix == "" {
		log.Fatalf("[CheckGlobalArgs] args 'p' not set\n")
	}
	var ok bool
	opt.Kmer, ok = c.Flag("K").Get().(int)
	if !ok {
		log.Fatalf("[CheckGlobalArgs] args 'K': %v set error\n", c.Flag("K").String())
	}
	if opt.Kmer < 1 || opt.Kmer%2 != 1 {
		log.Fatalf("[CheckGlobalArgs] the argument 'K':%d must be an odd positive number\n", opt.Kmer)
	}
	opt.NumCPU, ok = c.Flag("t").Get().(int)
	if !ok || opt.NumCPU < 1 {
		opt.NumCPU = runtime.NumCPU()
	}
	opt.MemBudget, ok = c.Flag("mem").Get().(int64)
	if !ok || opt.MemBudget <= 0 {
		log.Fatalf("[CheckGlobalArgs] args 'mem': %v set error\n", c.Flag("mem").String())
	}
	opt.BucketBits, ok = c.Flag("B").Get().(int)
	if !ok || opt.BucketBits < 1 {
		log.Fatalf("[CheckGlobalArgs] args 'B': %v set error\n", c.Flag("B").String())
	}
	opt.DotPath = c.Flag("dot").String()
	memPolicy, ok := parseMemPolicy(c.Flag("mem-policy").String())
	if !ok {
		log.Fatalf("[CheckGlobalArgs] args 'mem-policy': %v must be one of min/auto/max\n", c.Flag("mem-policy").String())
	}
	opt.MemPolicy = memPolicy
	return opt, true
}
