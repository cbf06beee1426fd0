package kmerpac

import "testing"

func fromString(s string) Kmer {
	km := New(len(s))
	for i, c := range s {
		var b byte
		switch c {
		case 'A':
			b = 0
		case 'C':
			b = 1
		case 'G':
			b = 2
		case 'T':
			b = 3
		}
		km.SetBase(i, b)
	}
	return km
}

func TestSetBaseBase(t *testing.T) {
	km := fromString("ACGT")
	want := []byte{0, 1, 2, 3}
	for i, w := range want {
		if got := km.Base(i); got != w {
			t.Errorf("Base(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestCmpOrdering(t *testing.T) {
	a := fromString("AACG")
	b := fromString("AACT")
	if a.Cmp(b, 4) >= 0 {
		t.Errorf("expected AACG < AACT")
	}
	if b.Cmp(a, 4) <= 0 {
		t.Errorf("expected AACT > AACG")
	}
	if a.Cmp(a.Clone(), 4) != 0 {
		t.Errorf("expected equal k-mers to compare 0")
	}
}

func TestShiftAppend(t *testing.T) {
	km := fromString("ACGT")
	km.ShiftAppend(1, 4) // drop A, append C -> CGTC
	want := fromString("CGTC")
	if km.Cmp(want, 4) != 0 {
		t.Errorf("ShiftAppend: got %v, want CGTC", []byte{km.Base(0), km.Base(1), km.Base(2), km.Base(3)})
	}
}

func TestShiftPreappend(t *testing.T) {
	km := fromString("ACGT")
	km.ShiftPreappend(3, 4) // drop T, prepend T -> TACG
	want := fromString("TACG")
	if km.Cmp(want, 4) != 0 {
		t.Errorf("ShiftPreappend: got %v, want TACG", []byte{km.Base(0), km.Base(1), km.Base(2), km.Base(3)})
	}
}

func TestReverseComplement(t *testing.T) {
	km := fromString("ACGT")
	km.ReverseComplement(4)
	// revcomp(ACGT) = ACGT (palindrome)
	want := fromString("ACGT")
	if km.Cmp(want, 4) != 0 {
		t.Errorf("ReverseComplement(ACGT) should be palindromic, got %v", []byte{km.Base(0), km.Base(1), km.Base(2), km.Base(3)})
	}

	km2 := fromString("AACC")
	km2.ReverseComplement(4)
	// revcomp(AACC) = GGTT
	want2 := fromString("GGTT")
	if km2.Cmp(want2, 4) != 0 {
		t.Errorf("ReverseComplement(AACC) = %v, want GGTT", []byte{km2.Base(0), km2.Base(1), km2.Base(2), km2.Base(3)})
	}
}

func TestNumWordsSpanning(t *testing.T) {
	if NumWords(32) != 1 {
		t.Errorf("NumWords(32) = %d, want 1", NumWords(32))
	}
	if NumWords(33) != 2 {
		t.Errorf("NumWords(33) = %d, want 2", NumWords(33))
	}
}

func TestInitFromPackedWords(t *testing.T) {
	src := fromString("ACGTACGT").Data()
	km := New(4)
	km.Init(src, 4*2, 4) // bit offset 8, skip the first 4 bases
	want := fromString("ACGT")
	if km.Cmp(want, 4) != 0 {
		t.Errorf("Init: got %v, want ACGT", []byte{km.Base(0), km.Base(1), km.Base(2), km.Base(3)})
	}
}
