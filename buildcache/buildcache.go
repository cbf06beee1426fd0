// Package buildcache fingerprints the inputs to a bucket-size scan
// (spec 4.C) so a rerun over unchanged inputs can skip recomputing
// bucket.Sizes outright. Grounded on the teacher's use of
// github.com/cespare/xxhash for content hashing in cuckoofilter.go
// (xxhash.Sum64), the one non-cryptographic hash already in the
// teacher's dependency stack.
package buildcache

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/cespare/xxhash"

	"sdbgcx1/bucket"
	"sdbgcx1/sdbgerr"
)

// Fingerprint identifies one bucket-size computation: the hash of the
// input files plus the parameters that influence bucket assignment.
type Fingerprint struct {
	InputHash uint64
	K         int
	B         int
	Mode      bucket.Mode
}

// HashFiles returns the combined xxhash of fns' contents, read in the
// order given; any IO error short-circuits with a zero hash and the
// error, which callers should treat as a cache miss rather than fatal.
func HashFiles(fns []string) (uint64, error) {
	h := xxhash.New()
	buf := make([]byte, 1<<20)
	for _, fn := range fns {
		fp, err := os.Open(fn)
		if err != nil {
			return 0, sdbgerr.Wrap(sdbgerr.IOFailure, "buildcache.HashFiles", "open "+fn, err)
		}
		for {
			n, rerr := fp.Read(buf)
			if n > 0 {
				h.Write(buf[:n])
			}
			if rerr != nil {
				fp.Close()
				if rerr != io.EOF {
					return 0, sdbgerr.Wrap(sdbgerr.IOFailure, "buildcache.HashFiles", "read "+fn, rerr)
				}
				break
			}
		}
	}
	return h.Sum64(), nil
}

// Entry is one cached bucket-size scan: the fingerprint it was computed
// for and the resulting sizes.
type Entry struct {
	Fingerprint Fingerprint
	Sizes       bucket.Sizes
}

// Cache is a tiny single-entry cache keyed by Fingerprint, persisted to
// one flat file. A real multi-run cache would key by a directory of
// entries; CX1 runs are one-shot per prefix, so one slot suffices.
type Cache struct {
	path string
}

// Open returns a Cache rooted at path; the file need not exist yet.
func Open(path string) *Cache { return &Cache{path: path} }

// Load returns the cached sizes if present and fp matches what was
// last stored, or (nil, false) on any miss (missing file, mismatched
// fingerprint, truncated/corrupt record) — a cache miss is never
// treated as fatal, since recomputation is always correct, just slower.
func (c *Cache) Load(fp Fingerprint) (bucket.Sizes, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil || len(data) < 24 {
		return nil, false
	}
	storedHash := binary.LittleEndian.Uint64(data[0:8])
	storedK := int(binary.LittleEndian.Uint32(data[8:12]))
	storedB := int(binary.LittleEndian.Uint32(data[12:16]))
	storedMode := bucket.Mode(binary.LittleEndian.Uint32(data[16:20]))
	n := binary.LittleEndian.Uint32(data[20:24])
	if storedHash != fp.InputHash || storedK != fp.K || storedB != fp.B || storedMode != fp.Mode {
		return nil, false
	}
	if len(data) < 24+8*int(n) {
		return nil, false
	}
	sizes := make(bucket.Sizes, n)
	for i := range sizes {
		sizes[i] = int64(binary.LittleEndian.Uint64(data[24+8*i:]))
	}
	return sizes, true
}

// Store persists sizes under fp, overwriting any prior entry.
func (c *Cache) Store(fp Fingerprint, sizes bucket.Sizes) error {
	buf := make([]byte, 24+8*len(sizes))
	binary.LittleEndian.PutUint64(buf[0:8], fp.InputHash)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(fp.K))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(fp.B))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(fp.Mode))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(len(sizes)))
	for i, v := range sizes {
		binary.LittleEndian.PutUint64(buf[24+8*i:], uint64(v))
	}
	if err := os.WriteFile(c.path, buf, 0644); err != nil {
		return sdbgerr.Wrap(sdbgerr.IOFailure, "buildcache.Store", "write "+c.path, err)
	}
	return nil
}
