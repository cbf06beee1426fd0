package sdbgio

import (
	"bytes"
	"testing"
)

func TestBitWriterPacksMSBFirst(t *testing.T) {
	var buf bytes.Buffer
	bw := newBitWriter(&buf)
	bits := []byte{1, 0, 1, 1, 0, 0, 0, 1, 1}
	for _, b := range bits {
		if err := bw.WriteBit(b); err != nil {
			t.Fatalf("WriteBit: %v", err)
		}
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	got := buf.Bytes()
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	// first byte: 10110001
	if got[0] != 0xB1 {
		t.Errorf("first byte = %08b, want %08b", got[0], byte(0xB1))
	}
	// second byte: 1 followed by 7 zero-padding bits = 10000000
	if got[1] != 0x80 {
		t.Errorf("second byte = %08b, want %08b", got[1], byte(0x80))
	}
}

func TestBitWriterFlushNoOpWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	bw := newBitWriter(&buf)
	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no bytes written on empty flush, got %d", buf.Len())
	}
}

func TestNibbleWriterPacksTwoPerByte(t *testing.T) {
	var buf bytes.Buffer
	nw := newNibbleWriter(&buf)
	vals := []byte{0x3, 0xA, 0xF, 0x0, 0x7}
	for _, v := range vals {
		if err := nw.WriteNibble(v); err != nil {
			t.Fatalf("WriteNibble: %v", err)
		}
	}
	if err := nw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	got := buf.Bytes()
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	// low nibble first: byte0 = 0x3 | (0xA<<4) = 0xA3
	if got[0] != 0xA3 {
		t.Errorf("byte0 = %#x, want %#x", got[0], 0xA3)
	}
	// byte1 = 0xF | (0x0<<4) = 0x0F
	if got[1] != 0x0F {
		t.Errorf("byte1 = %#x, want %#x", got[1], 0x0F)
	}
	// byte2 = only 0x7 written before flush, high nibble padded with 0
	if got[2] != 0x07 {
		t.Errorf("byte2 = %#x, want %#x", got[2], 0x07)
	}
}
