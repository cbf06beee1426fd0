package ioformat

import (
	"path/filepath"
	"testing"

	"sdbgcx1/mercy"
)

func TestMercyCandidatesRoundTrip(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "reads.mercy_cand.0")
	l := 20
	want := []mercy.Candidate{
		{ReadID: 0, Offset: 3, Kind: mercy.KindNoOut},
		{ReadID: 1, Offset: 0, Kind: mercy.KindNoIn},
		{ReadID: 12345, Offset: (1 << 20) - 1, Kind: mercy.KindNoOut},
	}

	if err := WriteMercyCandidates(fn, l, want); err != nil {
		t.Fatalf("WriteMercyCandidates: %v", err)
	}
	got, err := ReadMercyCandidates(fn, l)
	if err != nil {
		t.Fatalf("ReadMercyCandidates: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("record %d = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestMercyCandidatesEmptyFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "reads.mercy_cand.0")
	if err := WriteMercyCandidates(fn, 20, nil); err != nil {
		t.Fatalf("WriteMercyCandidates: %v", err)
	}
	got, err := ReadMercyCandidates(fn, 20)
	if err != nil {
		t.Fatalf("ReadMercyCandidates: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %v", got)
	}
}
