package alphabet

import "testing"

func TestComplement(t *testing.T) {
	cases := map[byte]byte{0: 3, 3: 0, 1: 2, 2: 1}
	for b, want := range cases {
		if got := Complement(b); got != want {
			t.Errorf("Complement(%d) = %d, want %d", b, got, want)
		}
	}
}

func TestIsSentinel(t *testing.T) {
	if !IsSentinel(Sentinel) {
		t.Errorf("IsSentinel(Sentinel) should be true")
	}
	if IsSentinel(0) {
		t.Errorf("IsSentinel(0) should be false")
	}
}

func TestCharToBaseRoundTrip(t *testing.T) {
	for i, c := range BaseToChar {
		if got := CharToBase[c]; got != byte(i) {
			t.Errorf("CharToBase[%c] = %d, want %d", c, got, i)
		}
		lower := c + ('a' - 'A')
		if got := CharToBase[lower]; got != byte(i) {
			t.Errorf("CharToBase[%c] (lowercase) = %d, want %d", lower, got, i)
		}
	}
}

func TestCharToBaseAmbiguousDefaultsToA(t *testing.T) {
	if got := CharToBase['N']; got != 0 {
		t.Errorf("CharToBase['N'] = %d, want 0", got)
	}
}
