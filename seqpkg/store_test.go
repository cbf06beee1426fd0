package seqpkg

import "testing"

func TestAppendAndBaseRoundTrip(t *testing.T) {
	s := NewStore(0, 0)
	id0 := s.AppendFixedLenSeq([]byte{0, 1, 2, 3})
	id1 := s.AppendVarLenSeq([]byte{2, 2, 2})
	id2 := s.AppendFixedLenSeq([]byte{3, 1, 0, 2, 1})
	s.BuildLookup()

	if s.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", s.Size())
	}
	cases := []struct {
		id    int64
		bases []byte
	}{
		{id0, []byte{0, 1, 2, 3}},
		{id1, []byte{2, 2, 2}},
		{id2, []byte{3, 1, 0, 2, 1}},
	}
	for _, c := range cases {
		if got := s.Length(c.id); got != len(c.bases) {
			t.Errorf("Length(%d) = %d, want %d", c.id, got, len(c.bases))
		}
		for pos, want := range c.bases {
			if got := s.Base(c.id, pos); got != want {
				t.Errorf("Base(%d, %d) = %d, want %d", c.id, pos, got, want)
			}
		}
	}
}

func TestIDOfResolvesStartBits(t *testing.T) {
	s := NewStore(0, 0)
	s.AppendFixedLenSeq([]byte{0, 1, 2, 3})
	s.AppendFixedLenSeq([]byte{1, 1})
	s.AppendFixedLenSeq([]byte{2, 2, 2, 2, 2})
	s.BuildLookup()

	for id := int64(0); id < s.Size(); id++ {
		start := s.StartBit(id)
		if got := s.IDOf(start); got != id {
			t.Errorf("IDOf(start of %d) = %d, want %d", id, got, id)
		}
		if s.Length(id) > 0 {
			mid := start + int64(s.Length(id)-1)*BitsPerBase
			if got := s.IDOf(mid); got != id {
				t.Errorf("IDOf(mid of %d) = %d, want %d", id, got, id)
			}
		}
	}
}

func TestAppendAfterBuildLookupPanics(t *testing.T) {
	s := NewStore(0, 0)
	s.AppendFixedLenSeq([]byte{0, 1})
	s.BuildLookup()
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic appending after BuildLookup")
		}
	}()
	s.AppendFixedLenSeq([]byte{2, 3})
}

func TestMultiplicityVectorClamps(t *testing.T) {
	var m MultiplicityVector
	m.Append(100)
	m.Append(int64(MaxMulti) + 500)
	m.AppendN(3, 2)

	want := []uint16{100, MaxMulti, 3, 3}
	if len(m) != len(want) {
		t.Fatalf("len(m) = %d, want %d", len(m), len(want))
	}
	for i, w := range want {
		if m[i] != w {
			t.Errorf("m[%d] = %d, want %d", i, m[i], w)
		}
	}
}
