// Package ioformat implements the edge/contig/mercy-candidate file
// readers that supplement the CX1 core's "external collaborator"
// boundary (spec 6, component J), plus the zstd/brotli codec wrappers
// the teacher uses for its own packed intermediate files
// (constructcf.go:WriteZstd/ReadZstdFile, ReadBrFile2).
package ioformat

import (
	"bufio"
	"io"
	"os"

	"github.com/google/brotli/go/cbrotli"
	"github.com/klauspost/compress/zstd"

	"sdbgcx1/sdbgerr"
)

// OpenZstd opens fn and wraps it in a zstd reader, mirroring
// ReadZstdFile's single-threaded decoder configuration.
func OpenZstd(fn string) (io.ReadCloser, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return nil, sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.OpenZstd", "open "+fn, err)
	}
	zr, err := zstd.NewReader(fp, zstd.WithDecoderConcurrency(1))
	if err != nil {
		fp.Close()
		return nil, sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.OpenZstd", "init zstd reader for "+fn, err)
	}
	return &zstdReadCloser{zr: zr, fp: fp}, nil
}

type zstdReadCloser struct {
	zr *zstd.Decoder
	fp *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.zr.Read(p) }
func (z *zstdReadCloser) Close() error {
	z.zr.Close()
	return z.fp.Close()
}

// CreateZstd creates fn and wraps it in a single-threaded, low-level
// zstd encoder, mirroring WriteZstd's encoder options.
func CreateZstd(fn string) (io.WriteCloser, error) {
	fp, err := os.Create(fn)
	if err != nil {
		return nil, sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.CreateZstd", "create "+fn, err)
	}
	zw, err := zstd.NewWriter(fp, zstd.WithEncoderCRC(false), zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		fp.Close()
		return nil, sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.CreateZstd", "init zstd writer for "+fn, err)
	}
	return &zstdWriteCloser{zw: zw, fp: fp}, nil
}

type zstdWriteCloser struct {
	zw *zstd.Encoder
	fp *os.File
}

func (z *zstdWriteCloser) Write(p []byte) (int, error) { return z.zw.Write(p) }
func (z *zstdWriteCloser) Close() error {
	if err := z.zw.Close(); err != nil {
		z.fp.Close()
		return err
	}
	return z.fp.Close()
}

// OpenBrotli opens fn and wraps it in a brotli reader, mirroring
// ReadBrFile2's decoder.
func OpenBrotli(fn string) (io.ReadCloser, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return nil, sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.OpenBrotli", "open "+fn, err)
	}
	br := cbrotli.NewReader(fp)
	return &brotliReadCloser{br: br, fp: fp}, nil
}

type brotliReadCloser struct {
	br *cbrotli.Reader
	fp *os.File
}

func (b *brotliReadCloser) Read(p []byte) (int, error) { return b.br.Read(p) }
func (b *brotliReadCloser) Close() error {
	b.br.Close()
	return b.fp.Close()
}

// CreateBrotli creates fn and wraps it in a quality-1 brotli writer,
// mirroring the quality/window settings constructcf.go uses for its
// packed contig output.
func CreateBrotli(fn string) (io.WriteCloser, error) {
	fp, err := os.Create(fn)
	if err != nil {
		return nil, sdbgerr.Wrap(sdbgerr.IOFailure, "ioformat.CreateBrotli", "create "+fn, err)
	}
	bw := cbrotli.NewWriter(fp, cbrotli.WriterOptions{Quality: 1, LGWin: 21})
	return &brotliWriteCloser{bw: bw, fp: fp}, nil
}

type brotliWriteCloser struct {
	bw *cbrotli.Writer
	fp *os.File
}

func (b *brotliWriteCloser) Write(p []byte) (int, error) { return b.bw.Write(p) }
func (b *brotliWriteCloser) Close() error {
	if err := b.bw.Close(); err != nil {
		b.fp.Close()
		return err
	}
	return b.fp.Close()
}

// bufferedReader wraps any io.ReadCloser with a bufio.Reader for the
// binary-record readers below, which read many small fixed-size chunks.
func bufferedReader(r io.Reader) *bufio.Reader { return bufio.NewReaderSize(r, 1<<20) }

// bufferedWriter is the write-side counterpart of bufferedReader.
func bufferedWriter(w io.Writer) *bufio.Writer { return bufio.NewWriterSize(w, 1<<20) }

// flushWriter flushes w, wrapping any error in the IOFailure kind under op.
func flushWriter(w *bufio.Writer, op string) error {
	if err := w.Flush(); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, op, "flush", err)
	}
	return nil
}
