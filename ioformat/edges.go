package ioformat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"sdbgcx1/sdbgerr"
	"sdbgcx1/seqpkg"
)

// EdgeInfo is the decoded contents of a <prefix>.edges.info file.
type EdgeInfo struct {
	K        int
	NumEdges int64
}

// ReadEdgesInfo parses "<k> <num_edges>" from fn, grounded on
// read_seq_and_prepare's info-file handling in cx1_seq2sdbg.cpp.
func ReadEdgesInfo(fn string) (EdgeInfo, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return EdgeInfo{}, sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.ReadEdgesInfo", "open "+fn, err)
	}
	defer fp.Close()

	var info EdgeInfo
	if _, err := fmt.Fscan(fp, &info.K, &info.NumEdges); err != nil {
		return EdgeInfo{}, sdbgerr.Wrap(sdbgerr.MalformedInput, "ioformat.ReadEdgesInfo", "parse "+fn, err)
	}
	return info, nil
}

// ReadEdges reads info.NumEdges fixed-width records from fn (a
// 2-bit-packed (k+1)-mer followed by a little-endian uint16
// multiplicity each) into a fresh seqpkg.Store and multiplicity vector,
// grounded on read_seq_and_prepare's edge-ingestion loop in
// cx1_seq2sdbg.cpp.
func ReadEdges(fn string, info EdgeInfo) (*seqpkg.Store, seqpkg.MultiplicityVector, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return nil, nil, sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.ReadEdges", "open "+fn, err)
	}
	defer fp.Close()

	width := info.K + 1
	store := seqpkg.NewStore(int64(width)*info.NumEdges, info.NumEdges)
	multi := make(seqpkg.MultiplicityVector, 0, info.NumEdges)

	br := bufferedReader(fp)
	packedBytes := (width + 3) / 4 // 4 bases/byte at 2 bits each
	rec := make([]byte, packedBytes+2)
	bases := make([]byte, width)
	for i := int64(0); i < info.NumEdges; i++ {
		if _, err := io.ReadFull(br, rec); err != nil {
			return nil, nil, sdbgerr.Wrap(sdbgerr.MalformedInput, "ioformat.ReadEdges", fmt.Sprintf("record %d truncated in %s", i, fn), err)
		}
		unpackBases(rec[:packedBytes], bases)
		store.AppendFixedLenSeq(bases)
		count := binary.LittleEndian.Uint16(rec[packedBytes:])
		multi.Append(int64(count))
	}
	store.BuildLookup()
	return store, multi, nil
}

func unpackBases(packed, bases []byte) {
	for i := range bases {
		byteIdx := i / 4
		shift := uint(6 - 2*(i%4))
		bases[i] = (packed[byteIdx] >> shift) & 0x3
	}
}

// packBases is the encoder counterpart, used by tests and by any writer
// that round-trips .edges.* files.
func packBases(bases []byte) []byte {
	packed := make([]byte, (len(bases)+3)/4)
	for i, b := range bases {
		byteIdx := i / 4
		shift := uint(6 - 2*(i%4))
		packed[byteIdx] |= (b & 0x3) << shift
	}
	return packed
}

// WriteEdges is the encoder counterpart of ReadEdges.
func WriteEdges(fn string, store *seqpkg.Store, multi seqpkg.MultiplicityVector, k int) error {
	fp, err := os.Create(fn)
	if err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.WriteEdges", "create "+fn, err)
	}
	defer fp.Close()
	w := bufio.NewWriterSize(fp, 1<<20)

	width := k + 1
	bases := make([]byte, width)
	var countBuf [2]byte
	for id := int64(0); id < store.Size(); id++ {
		for i := 0; i < width; i++ {
			bases[i] = store.Base(id, i)
		}
		if _, err := w.Write(packBases(bases)); err != nil {
			return sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.WriteEdges", "write record", err)
		}
		binary.LittleEndian.PutUint16(countBuf[:], multi[id])
		if _, err := w.Write(countBuf[:]); err != nil {
			return sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.WriteEdges", "write multiplicity", err)
		}
	}
	if err := w.Flush(); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.WriteEdges", "flush", err)
	}
	return nil
}

// WriteEdgesInfo is the encoder counterpart of ReadEdgesInfo.
func WriteEdgesInfo(fn string, k int, numEdges int64) error {
	fp, err := os.Create(fn)
	if err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.WriteEdgesInfo", "create "+fn, err)
	}
	defer fp.Close()
	if _, err := fmt.Fprintf(fp, "%d %d\n", k, numEdges); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.WriteEdgesInfo", "write", err)
	}
	return nil
}
