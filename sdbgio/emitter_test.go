package sdbgio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"sdbgcx1/cx1"
	"sdbgcx1/seqpkg"
)

// itemSpec is one Lv2Buffer row, expressed the way cx1.packItem would
// build it: k base slots (last one is the successor 'a' when aReal),
// the BWT-predecessor 'b', and the packed inverted multiplicity.
type itemSpec struct {
	bases    []byte
	aReal    bool
	bReal    bool
	bwtChar  byte
	multi    int64 // real multiplicity; packed as MaxMulti-multi
}

func buildBuffer(k int, specs []itemSpec) (*cx1.Lv2Buffer, []int32) {
	buf := cx1.NewLv2Buffer(k, len(specs))
	perm := make([]int32, len(specs))
	for i, s := range specs {
		inverted := uint16(seqpkg.MaxMulti - s.multi)
		buf.SetItem(i, s.bases, s.aReal, s.bReal, s.bwtChar, inverted)
		perm[i] = int32(i)
	}
	return buf, perm
}

func decodeNibbles(data []byte, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b := data[i/2]
		if i%2 == 0 {
			out[i] = b & 0xF
		} else {
			out[i] = b >> 4
		}
	}
	return out
}

func decodeBits(data []byte, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b := data[i/8]
		shift := uint(7 - i%8)
		out[i] = (b >> shift) & 1
	}
	return out
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

// TestAbsorbSingleEdgeUsesStoredMultiplicity is Scenario S1's core
// testable property once the "left-$" synthesis question (an open
// question the bucket walker resolves separately) is set aside: a
// lone non-dollar sub-group in the seq2sdbg pipeline must write its
// stored multiplicity to .mul, not the number of items in the batch.
func TestAbsorbSingleEdgeUsesStoredMultiplicity(t *testing.T) {
	k := 3
	prefix := filepath.Join(t.TempDir(), "out")
	e, err := New(prefix, k, PipelineSeq2sdbg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// edge ACGT: node suffix "CG", a='T'(3), b='A'(0), multiplicity 5.
	buf, perm := buildBuffer(k, []itemSpec{
		{bases: []byte{1, 2, 3}, aReal: true, bReal: true, bwtChar: 0, multi: 5},
	})
	if err := e.Absorb(buf, perm); err != nil {
		t.Fatalf("Absorb: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	mul := readFile(t, prefix+".mul")
	if len(mul) < 2 {
		t.Fatalf(".mul too short: %d bytes", len(mul))
	}
	got := binary.LittleEndian.Uint16(mul[:2])
	if got != 5 {
		t.Errorf(".mul[0] = %d, want 5 (the stored edge multiplicity, not the 1-item occurrence count)", got)
	}

	totalEdges, numDollarNodes, _, _, _ := e.Stats()
	if totalEdges != 1 {
		t.Errorf("totalEdges = %d, want 1", totalEdges)
	}
	if numDollarNodes != 0 {
		t.Errorf("numDollarNodes = %d, want 0", numDollarNodes)
	}
}

// TestAbsorbDuplicateBEmitsPlusFiveRule is Scenario S2: two edges
// (ACGA x7, ACGT x3) sharing node suffix "CG" but differing on 'a'
// both have predecessor 'b'=A; the second sub-group processed (in
// canonical a=0..3 order) must emit W=b+5 instead of W=b+1, and each
// sub-group's own multiplicity must survive independently.
func TestAbsorbDuplicateBEmitsPlusFiveRule(t *testing.T) {
	k := 3
	prefix := filepath.Join(t.TempDir(), "out")
	e, err := New(prefix, k, PipelineSeq2sdbg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// ACGA: suffix "CG", a='A'(0), b='A'(0), multiplicity 7.
	// ACGT: suffix "CG", a='T'(3), b='A'(0), multiplicity 3.
	buf, perm := buildBuffer(k, []itemSpec{
		{bases: []byte{1, 2, 0}, aReal: true, bReal: true, bwtChar: 0, multi: 7},
		{bases: []byte{1, 2, 3}, aReal: true, bReal: true, bwtChar: 0, multi: 3},
	})
	if err := e.Absorb(buf, perm); err != nil {
		t.Fatalf("Absorb: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	w := decodeNibbles(readFile(t, prefix+".w"), 2)
	if w[0] != 1 {
		t.Errorf("w[0] = %d, want 1 (first occurrence of b=A gets W=b+1)", w[0])
	}
	if w[1] != 5 {
		t.Errorf("w[1] = %d, want 5 (duplicate b=A gets W=b+5)", w[1])
	}

	mulData := readFile(t, prefix+".mul")
	if len(mulData) < 4 {
		t.Fatalf(".mul too short: %d bytes", len(mulData))
	}
	m0 := binary.LittleEndian.Uint16(mulData[0:2])
	m1 := binary.LittleEndian.Uint16(mulData[2:4])
	if m0 != 7 {
		t.Errorf(".mul[0] = %d, want 7", m0)
	}
	if m1 != 3 {
		t.Errorf(".mul[1] = %d, want 3", m1)
	}
}

// TestAbsorbPalindromeSingleOccurrence is Scenario S3's emitter-side
// property: a palindromic edge contributes exactly one item to the
// sorted batch (bucket.walkFixedEdge's job), and Absorb must turn that
// single item into exactly one edge record, not one per strand.
func TestAbsorbPalindromeSingleOccurrence(t *testing.T) {
	k := 3
	prefix := filepath.Join(t.TempDir(), "out")
	e, err := New(prefix, k, PipelineSeq2sdbg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	buf, perm := buildBuffer(k, []itemSpec{
		{bases: []byte{1, 2, 3}, aReal: true, bReal: true, bwtChar: 0, multi: 1},
	})
	if err := e.Absorb(buf, perm); err != nil {
		t.Fatalf("Absorb: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	totalEdges, _, _, _, _ := e.Stats()
	if totalEdges != 1 {
		t.Errorf("totalEdges = %d, want exactly 1 for a single-occurrence palindromic edge", totalEdges)
	}
}

// TestAbsorbMultiplicitySpill is Scenario S5: a count above M2 (254)
// writes the spill sentinel to .mul and a full record to .mul2 whose
// high 48 bits carry the edge's index.
func TestAbsorbMultiplicitySpill(t *testing.T) {
	k := 3
	prefix := filepath.Join(t.TempDir(), "out")
	e, err := New(prefix, k, PipelineSeq2sdbg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	buf, perm := buildBuffer(k, []itemSpec{
		{bases: []byte{1, 2, 3}, aReal: true, bReal: true, bwtChar: 0, multi: 300},
	})
	if err := e.Absorb(buf, perm); err != nil {
		t.Fatalf("Absorb: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	mul := readFile(t, prefix+".mul")
	got := binary.LittleEndian.Uint16(mul[:2])
	if got != M2 {
		t.Errorf(".mul[0] = %d, want the spill sentinel %d", got, M2)
	}

	mul2 := readFile(t, prefix+".mul2")
	if len(mul2) != 8 {
		t.Fatalf(".mul2 length = %d, want 8 (one record)", len(mul2))
	}
	record := binary.LittleEndian.Uint64(mul2)
	edgeIdx := record >> 16
	count := record & 0xFFFF
	if edgeIdx != 0 {
		t.Errorf(".mul2 edge index = %d, want 0 (the first edge emitted)", edgeIdx)
	}
	if count != 300 {
		t.Errorf(".mul2 count = %d, want 300", count)
	}
}

// TestAbsorbMixedRealAndDollarGroupCanonicalOrder pins down the
// canonical emission order emitSuffixGroup applies when a suffix group
// contains both a real-a sub-group and an a=$ sub-group: real a's are
// emitted first (ascending), the dollar sub-group last, and only the
// dollar record gets isDollar/dummy-node treatment while the real
// record keeps its own last/count/W independently.
func TestAbsorbMixedRealAndDollarGroupCanonicalOrder(t *testing.T) {
	k := 3
	prefix := filepath.Join(t.TempDir(), "out")
	e, err := New(prefix, k, PipelineSeq2sdbg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// both share node suffix "CG" (bases[0..1] = C,G).
	// item0: a='A'(0) real, b='A'(0), multiplicity 4.
	// item1: a=$ (no successor), b='G'(2).
	buf, perm := buildBuffer(k, []itemSpec{
		{bases: []byte{1, 2, 0}, aReal: true, bReal: true, bwtChar: 0, multi: 4},
		{bases: []byte{1, 2, 0}, aReal: false, bReal: true, bwtChar: 2, multi: 1},
	})
	if err := e.Absorb(buf, perm); err != nil {
		t.Fatalf("Absorb: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	w := decodeNibbles(readFile(t, prefix+".w"), 2)
	if w[0] != 1 {
		t.Errorf("w[0] = %d, want 1 (real a=A record, first occurrence of b=A)", w[0])
	}
	if w[1] != 3 {
		t.Errorf("w[1] = %d, want 3 (dollar record's own b=G, first occurrence of b=G)", w[1])
	}

	last := decodeBits(readFile(t, prefix+".last"), 2)
	if last[0] != 1 {
		t.Errorf("last[0] = %d, want 1 (the real record is the last, and only, entry for a=A)", last[0])
	}
	if last[1] != 0 {
		t.Errorf("last[1] = %d, want 0 (dollar records never set .last)", last[1])
	}

	isd := decodeBits(readFile(t, prefix+".isd"), 2)
	if isd[0] != 0 {
		t.Errorf("isd[0] = %d, want 0 (real record)", isd[0])
	}
	if isd[1] != 1 {
		t.Errorf("isd[1] = %d, want 1 (dollar record emitted after the real one)", isd[1])
	}

	mul := readFile(t, prefix+".mul")
	if len(mul) < 4 {
		t.Fatalf(".mul too short: %d bytes", len(mul))
	}
	if got := binary.LittleEndian.Uint16(mul[0:2]); got != 4 {
		t.Errorf(".mul[0] = %d, want 4 (the real record's stored multiplicity)", got)
	}
	if got := binary.LittleEndian.Uint16(mul[2:4]); got != 0 {
		t.Errorf(".mul[1] = %d, want 0 (dollar records carry no multiplicity)", got)
	}

	totalEdges, numDollarNodes, _, numDummyEdges, _ := e.Stats()
	if totalEdges != 2 {
		t.Errorf("totalEdges = %d, want 2", totalEdges)
	}
	if numDollarNodes != 1 {
		t.Errorf("numDollarNodes = %d, want 1", numDollarNodes)
	}
	if numDummyEdges != 1 {
		t.Errorf("numDummyEdges = %d, want 1", numDummyEdges)
	}
}

// TestAbsorbDollarSubGroupWritesDummyNode exercises the a=$ path: a
// sub-group with no real successor must set .isd, skip .last, and
// append one dummy-node record.
func TestAbsorbDollarSubGroupWritesDummyNode(t *testing.T) {
	k := 3
	prefix := filepath.Join(t.TempDir(), "out")
	e, err := New(prefix, k, PipelineSeq2sdbg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	buf, perm := buildBuffer(k, []itemSpec{
		{bases: []byte{1, 2, 0}, aReal: false, bReal: true, bwtChar: 0, multi: 1},
	})
	if err := e.Absorb(buf, perm); err != nil {
		t.Fatalf("Absorb: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	isd := decodeBits(readFile(t, prefix+".isd"), 1)
	if isd[0] != 1 {
		t.Errorf("isd[0] = %d, want 1 for an a=$ record", isd[0])
	}

	_, numDollarNodes, _, numDummyEdges, _ := e.Stats()
	if numDollarNodes != 1 {
		t.Errorf("numDollarNodes = %d, want 1", numDollarNodes)
	}
	if numDummyEdges != 1 {
		t.Errorf("numDummyEdges = %d, want 1", numDummyEdges)
	}
}
