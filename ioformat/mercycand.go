package ioformat

import (
	"encoding/binary"
	"io"
	"os"

	"sdbgcx1/mercy"
	"sdbgcx1/sdbgerr"
)

// ReadMercyCandidates reads a <prefix>.mercy_cand.<fid> file of 64-bit
// records packed as (read_id << (l+2)) | (offset << 2) | kind, grounded
// on cx1_read2sdbg_s2.cpp:s2_read_mercy_prepare. l is the bit width
// reserved for the offset field (the same L the read2sdbg offset codec
// uses, spec §3).
func ReadMercyCandidates(fn string, l int) ([]mercy.Candidate, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return nil, sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.ReadMercyCandidates", "open "+fn, err)
	}
	defer fp.Close()

	br := bufferedReader(fp)
	offsetMask := uint64(1)<<uint(l) - 1
	var out []mercy.Candidate
	var rec [8]byte
	for {
		if _, err := io.ReadFull(br, rec[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, sdbgerr.Wrap(sdbgerr.MalformedInput, "ioformat.ReadMercyCandidates", "truncated record in "+fn, err)
		}
		v := binary.LittleEndian.Uint64(rec[:])
		kind := mercy.CandidateKind(v & 0x3)
		offset := int((v >> 2) & offsetMask)
		readID := int64(v >> uint(l+2))
		out = append(out, mercy.Candidate{ReadID: readID, Offset: offset, Kind: kind})
	}
	return out, nil
}

// WriteMercyCandidates is the encoder counterpart of
// ReadMercyCandidates.
func WriteMercyCandidates(fn string, l int, candidates []mercy.Candidate) error {
	fp, err := os.Create(fn)
	if err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.WriteMercyCandidates", "create "+fn, err)
	}
	defer fp.Close()

	w := bufferedWriter(fp)
	var rec [8]byte
	for _, c := range candidates {
		v := uint64(c.ReadID)<<uint(l+2) | uint64(c.Offset)<<2 | uint64(c.Kind)
		binary.LittleEndian.PutUint64(rec[:], v)
		if _, err := w.Write(rec[:]); err != nil {
			return sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.WriteMercyCandidates", "write record", err)
		}
	}
	return flushWriter(w, "ioformat.WriteMercyCandidates")
}
