// Package sdbgio implements the SdBG emitter (spec 4.H): it walks a
// sorted level-2 batch, groups by (k-1)-mer suffix, sub-groups by the
// (a,b) predecessor/successor pair, and writes the seven output streams
// (.w/.last/.isd/.dn/.f/.mul/.mul2). Grounded on lv2_output/post_proc in
// cx1_seq2sdbg.cpp and s2_lv2_output/s2_post_proc in
// cx1_read2sdbg_s2.cpp; the emitter is modelled as a single stateful
// object per spec 9's "model the emitter as a state object with method
// absorb(sorted_batch)".
package sdbgio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"sdbgcx1/alphabet"
	"sdbgcx1/cx1"
	"sdbgcx1/kmerpac"
	"sdbgcx1/sdbgerr"
	"sdbgcx1/seqpkg"
)

// M2 is the multiplicity-spill threshold and, simultaneously, the
// sentinel value written to .mul when a count reaches it (spec 3,
// "Multiplicity vector"; spec 6, ".mul").
const M2 = 254

// MaxDummyEdges bounds num_dollar_nodes; crossing it aborts the run
// with GraphTooDense (kMaxDummyEdges in the original).
const MaxDummyEdges = 1 << 30

// Pipeline selects how emitSub derives a sub-group's multiplicity.
// The two pipelines disagree on what an (a,b) sub-group's duplicate
// items even mean: read2sdbg counts occurrences (cx1_read2sdbg_s2.cpp:
// "count = std::min(j - i, kMaxMulti_t)", one item per occurrence of a
// node in the read set), while seq2sdbg's items already carry a
// pre-computed multiplicity per edge (cx1_seq2sdbg.cpp's
// ExtractCounting, decoded from the packed inverted-multiplicity field
// rather than counted).
type Pipeline int

const (
	// PipelineRead2sdbg counts sub-group occurrences (j - i).
	PipelineRead2sdbg Pipeline = iota
	// PipelineSeq2sdbg decodes the representative item's stored
	// inverted multiplicity instead of counting occurrences.
	PipelineSeq2sdbg
)

// Emitter is the stateful SdBG output writer. One Emitter handles one
// full build (all batches, across all level-1 windows); Absorb is
// called once per sorted level-2 batch in ascending bucket order.
type Emitter struct {
	k         int
	outPrefix string
	pipeline  Pipeline

	wf, lastf, isdf, dnf, mulf, mul2f *os.File
	wbuf             *bufio.Writer
	wNib             *nibbleWriter
	lastBuf, isdBuf  *bufio.Writer
	lastBit, isdBit  *bitWriter
	mulBuf           *bufio.Writer
	mul2Buf          *bufio.Writer
	dnBuf            *bufio.Writer

	curFirstChar   int
	haveFirstChar  bool
	fClasses       []int64
	totalEdges     int64
	numDollarNodes int64
	numOnesInLast  int64
	numCharsInW    [9]int64
	numDummyEdges  int64
}

// New opens the seven output streams under outPrefix. pipeline selects
// which pipeline's multiplicity convention emitSub applies.
func New(outPrefix string, k int, pipeline Pipeline) (*Emitter, error) {
	open := func(suffix string) (*os.File, error) {
		f, err := os.Create(outPrefix + suffix)
		if err != nil {
			return nil, sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.New", "create "+suffix, err)
		}
		return f, nil
	}
	e := &Emitter{k: k, curFirstChar: -1, outPrefix: outPrefix, pipeline: pipeline}
	var err error
	if e.wf, err = open(".w"); err != nil {
		return nil, err
	}
	if e.lastf, err = open(".last"); err != nil {
		return nil, err
	}
	if e.isdf, err = open(".isd"); err != nil {
		return nil, err
	}
	if e.dnf, err = open(".dn"); err != nil {
		return nil, err
	}
	if e.mulf, err = open(".mul"); err != nil {
		return nil, err
	}
	if e.mul2f, err = open(".mul2"); err != nil {
		return nil, err
	}

	e.wbuf = bufio.NewWriter(e.wf)
	e.wNib = newNibbleWriter(e.wbuf)
	e.lastBuf = bufio.NewWriter(e.lastf)
	e.lastBit = newBitWriter(e.lastBuf)
	e.isdBuf = bufio.NewWriter(e.isdf)
	e.isdBit = newBitWriter(e.isdBuf)
	e.mulBuf = bufio.NewWriter(e.mulf)
	e.mul2Buf = bufio.NewWriter(e.mul2f)
	e.dnBuf = bufio.NewWriter(e.dnf)

	wordsPerNode := kmerpac.NumWords(k)
	if err := binary.Write(e.dnBuf, binary.LittleEndian, uint32(wordsPerNode)); err != nil {
		return nil, sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.New", "write .dn header", err)
	}
	return e, nil
}

// subItem is one (a,b) sub-group's state inside a suffix-group.
type subItem struct {
	aKey, bKey int // 0..3 real base, 4 = $
	items      []int32
}

// Absorb processes one sorted batch: buf holds the level-2 items, perm
// the sort order to read them through. Items must already be globally
// ordered relative to prior/future batches (the caller feeds batches in
// ascending bucket order) so suffix groups never straddle a call.
func (e *Emitter) Absorb(buf *cx1.Lv2Buffer, perm []int32) error {
	n := len(perm)
	i := 0
	for i < n {
		j := i + 1
		for j < n && sameSuffix(buf, perm[i], perm[j], e.k) {
			j++
		}
		if err := e.emitSuffixGroup(buf, perm[i:j]); err != nil {
			return err
		}
		i = j
	}
	return nil
}

func sameSuffix(buf *cx1.Lv2Buffer, a, b int32, k int) bool {
	for i := 0; i < k-1; i++ {
		if buf.Base(int(a), i) != buf.Base(int(b), i) {
			return false
		}
	}
	return true
}

func (e *Emitter) emitSuffixGroup(buf *cx1.Lv2Buffer, group []int32) error {
	k := e.k
	firstChar := int(buf.Base(int(group[0]), 0))
	if !e.haveFirstChar || firstChar != e.curFirstChar {
		e.fClasses = append(e.fClasses, e.totalEdges)
		e.curFirstChar = firstChar
		e.haveFirstChar = true
	}

	// bucket items by (a,b); a=4/b=4 denotes $.
	subs := map[[2]int]*subItem{}
	var order [][2]int
	for _, it := range group {
		aReal, bReal := buf.Flags(int(it))
		aKey, bKey := int(alphabet.Sentinel), int(alphabet.Sentinel)
		if aReal {
			aKey = int(buf.Base(int(it), k-1))
		}
		if bReal {
			bKey = int(buf.BwtChar(int(it)))
		}
		key := [2]int{aKey, bKey}
		s, ok := subs[key]
		if !ok {
			s = &subItem{aKey: aKey, bKey: bKey}
			subs[key] = s
			order = append(order, key)
		}
		s.items = append(s.items, it)
	}

	hasSolidA := [4]bool{}
	hasSolidB := [4]bool{}
	for _, key := range order {
		a, b := key[0], key[1]
		if a < 4 && b < 4 {
			hasSolidA[a] = true
			hasSolidB[b] = true
		}
	}

	// canonical per-a ordering: real b 0..3 ascending, then b=$.
	byA := map[int][][2]int{}
	for _, key := range order {
		byA[key[0]] = append(byA[key[0]], key)
	}
	for a := range byA {
		keys := byA[a]
		sortKeysByB(keys)
		byA[a] = keys
	}

	lastKey := map[[2]int]bool{}
	for a := 0; a < 4; a++ {
		keys := byA[a]
		if len(keys) == 0 {
			continue
		}
		if hasSolidA[a] {
			for idx := len(keys) - 1; idx >= 0; idx-- {
				if keys[idx][1] < 4 {
					lastKey[keys[idx]] = true
					break
				}
			}
		} else {
			lastKey[keys[len(keys)-1]] = true
		}
	}

	var seenB [4]bool
	// emit in canonical order: a=0..3 then a=$.
	for a := 0; a <= 4; a++ {
		var keys [][2]int
		if a < 4 {
			keys = byA[a]
		} else {
			keys = byA[4]
		}
		for _, key := range keys {
			s := subs[key]
			if err := e.emitSub(buf, s, lastKey[key], hasSolidA, hasSolidB, &seenB, k); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortKeysByB(keys [][2]int) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && rank(keys[j][1]) < rank(keys[j-1][1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
}

func rank(b int) int {
	if b == 4 {
		return 100
	}
	return b
}

func (e *Emitter) emitSub(buf *cx1.Lv2Buffer, s *subItem, isLast bool, hasSolidA, hasSolidB [4]bool, seenB *[4]bool, k int) error {
	a, b := s.aKey, s.bKey
	if a == 4 && b < 4 && hasSolidB[b] {
		return nil // suppressed: the solid aSb record already carries this
	}
	if b == 4 && a < 4 && hasSolidA[a] {
		return nil
	}

	var w byte
	if b == 4 {
		w = 0
	} else if !seenB[b] {
		w = byte(b + 1)
		seenB[b] = true
	} else {
		w = byte(b + 5)
	}

	last := byte(0)
	if isLast && a != 4 {
		last = 1
	}
	isDollar := byte(0)
	if a == 4 {
		isDollar = 1
	}

	count := int64(0)
	if a != 4 && b != 4 {
		switch e.pipeline {
		case PipelineSeq2sdbg:
			// the representative item's inverted multiplicity was set
			// once at extraction time from the stored per-edge count
			// (cx1.packItem); every item in this sub-group shares it.
			count = int64(seqpkg.MaxMulti) - int64(buf.InvertedMulti(int(s.items[0])))
		default:
			count = int64(len(s.items))
		}
	}
	if count > seqpkg.MaxMulti {
		count = seqpkg.MaxMulti
	}

	if err := e.wNib.WriteNibble(w); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.emitSub", "write .w", err)
	}
	if err := e.lastBit.WriteBit(last); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.emitSub", "write .last", err)
	}
	if err := e.isdBit.WriteBit(isDollar); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.emitSub", "write .isd", err)
	}
	if err := e.writeMultiplicity(count); err != nil {
		return err
	}
	if isDollar == 1 {
		if err := e.writeDummyNode(buf, s.items[0], k); err != nil {
			return err
		}
		e.numDollarNodes++
		if e.numDollarNodes >= MaxDummyEdges {
			return sdbgerr.New(sdbgerr.GraphTooDense, "sdbgio.emitSub", "too many tips")
		}
	}

	if last == 1 {
		e.numOnesInLast++
	}
	e.numCharsInW[w]++
	e.totalEdges++
	return nil
}

func (e *Emitter) writeMultiplicity(count int64) error {
	if count < M2 {
		if err := binary.Write(e.mulBuf, binary.LittleEndian, uint16(count)); err != nil {
			return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.writeMultiplicity", "write .mul", err)
		}
		return nil
	}
	if err := binary.Write(e.mulBuf, binary.LittleEndian, uint16(M2)); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.writeMultiplicity", "write .mul sentinel", err)
	}
	record := uint64(e.totalEdges)<<16 | uint64(count&0xFFFF)
	if err := binary.Write(e.mul2Buf, binary.LittleEndian, record); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.writeMultiplicity", "write .mul2", err)
	}
	return nil
}

func (e *Emitter) writeDummyNode(buf *cx1.Lv2Buffer, item int32, k int) error {
	words := kmerpac.NumWords(k)
	km := kmerpac.New(k)
	for i := 0; i < k; i++ {
		km.SetBase(i, buf.Base(int(item), i))
	}
	data := km.Data()
	for w := 0; w < words; w++ {
		if err := binary.Write(e.dnBuf, binary.LittleEndian, data[w]); err != nil {
			return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.writeDummyNode", "write .dn", err)
		}
	}
	e.numDummyEdges++
	return nil
}

// Close flushes every stream and writes the .f trailer: a leading -1,
// one cumulative count per first-character class, and a trailing
// (total_edges, k, num_dollar_nodes) block (spec 6).
func (e *Emitter) Close() error {
	if err := e.wNib.Flush(); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.Close", "flush .w", err)
	}
	if err := e.wbuf.Flush(); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.Close", "flush .w file", err)
	}
	if err := e.lastBit.Flush(); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.Close", "flush .last", err)
	}
	if err := e.lastBuf.Flush(); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.Close", "flush .last file", err)
	}
	if err := e.isdBit.Flush(); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.Close", "flush .isd", err)
	}
	if err := e.isdBuf.Flush(); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.Close", "flush .isd file", err)
	}
	if err := e.mulBuf.Flush(); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.Close", "flush .mul", err)
	}
	if err := e.mul2Buf.Flush(); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.Close", "flush .mul2", err)
	}
	if err := e.dnBuf.Flush(); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.Close", "flush .dn", err)
	}

	ff, err := os.Create(e.outPrefix + ".f")
	if err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.Close", "create .f", err)
	}
	fbuf := bufio.NewWriter(ff)
	fmt.Fprintln(fbuf, -1)
	for _, c := range e.fClasses {
		fmt.Fprintln(fbuf, c)
	}
	fmt.Fprintln(fbuf, e.totalEdges)
	fmt.Fprintln(fbuf, e.k)
	fmt.Fprintln(fbuf, e.numDollarNodes)
	if err := fbuf.Flush(); err != nil {
		ff.Close()
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.Close", "flush .f", err)
	}
	if err := ff.Close(); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "sdbgio.Close", "close .f", err)
	}

	for _, fl := range []*os.File{e.wf, e.lastf, e.isdf, e.dnf, e.mulf, e.mul2f} {
		fl.Close()
	}
	return nil
}

// Stats exposes the emitter's final counters, used by tests and by the
// CLI's summary log line.
func (e *Emitter) Stats() (totalEdges, numDollarNodes, numOnesInLast, numDummyEdges int64, numCharsInW [9]int64) {
	return e.totalEdges, e.numDollarNodes, e.numOnesInLast, e.numDummyEdges, e.numCharsInW
}
