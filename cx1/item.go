package cx1

// Lv2FlagBits/Lv2BwtBits/Lv2MultiBits describe the packed tail that
// follows the k base slots in every level-2 item (spec 3, "Level-2
// substring record"). The spec's own Design Notes (§9) flag an
// unresolved asymmetry in where the "has successor" bit lives across
// the two pipelines; rather than rely on positional inference this
// implementation carries both boundary conditions as explicit bits
// (AIsReal, BIsReal) instead of the spec's single ambiguous flag. This
// widens the tail from 19 to 20 bits and is recorded as a deliberate
// Open Question resolution, not a transcription of the original.
const (
	Lv2FlagBits  = 2 // AIsReal, BIsReal
	Lv2BwtBits   = 2
	Lv2MultiBits = 16
	lv2TailBits  = Lv2FlagBits + Lv2BwtBits + Lv2MultiBits
)

// WordsPerItem returns W, the number of 32-bit words one level-2 item
// occupies: k base slots (the last one doubling as the successor
// character 'a' when AIsReal is set) plus the flag/bwt/multiplicity
// tail.
func WordsPerItem(k int) int {
	totalBits := k*2 + lv2TailBits
	return (totalBits + 31) / 32
}

// Lv2Buffer is a column-major block of level-2 items: word j of item i
// lives at Words[j*N+i]. This layout lets the sort primitive treat each
// item as a single pointer-strided key (spec 3).
type Lv2Buffer struct {
	Words        []uint32
	WordsPerItem int
	N            int
	K            int
}

// NewLv2Buffer allocates a zeroed buffer for n items of width k.
func NewLv2Buffer(k, n int) *Lv2Buffer {
	w := WordsPerItem(k)
	return &Lv2Buffer{Words: make([]uint32, w*n), WordsPerItem: w, N: n, K: k}
}

func (b *Lv2Buffer) wordAt(item, word int) uint32 { return b.Words[word*b.N+item] }
func (b *Lv2Buffer) setWordAt(item, word int, v uint32) { b.Words[word*b.N+item] = v }

// packBitsInto writes the nbits low bits of value, MSB-first, starting
// at absolute bit position bitPos of item's packed row, across the
// item's W words (scattered column-major into buf).
func (b *Lv2Buffer) packBitsInto(item, bitPos int, value uint32, nbits int) {
	for i := 0; i < nbits; i++ {
		bit := (value >> uint(nbits-1-i)) & 1
		pos := bitPos + i
		word := pos / 32
		shift := uint(31 - pos%32)
		if bit != 0 {
			b.setWordAt(item, word, b.wordAt(item, word)|(uint32(1)<<shift))
		}
	}
}

func (b *Lv2Buffer) readBitsFrom(item, bitPos, nbits int) uint32 {
	var v uint32
	for i := 0; i < nbits; i++ {
		pos := bitPos + i
		word := pos / 32
		shift := uint(31 - pos%32)
		bit := (b.wordAt(item, word) >> shift) & 1
		v = v<<1 | bit
	}
	return v
}

// SetItem packs one item's fields into the buffer. bases must have
// length k; base[k-1] is interpreted as the successor 'a' when aIsReal,
// and is otherwise ignored by readers.
func (b *Lv2Buffer) SetItem(item int, bases []byte, aIsReal, bIsReal bool, bwtChar byte, invertedMulti uint16) {
	bitPos := 0
	for i := 0; i < b.K; i++ {
		b.packBitsInto(item, bitPos, uint32(bases[i]&0x3), 2)
		bitPos += 2
	}
	flags := uint32(0)
	if aIsReal {
		flags |= 0x2
	}
	if bIsReal {
		flags |= 0x1
	}
	b.packBitsInto(item, bitPos, flags, Lv2FlagBits)
	bitPos += Lv2FlagBits
	b.packBitsInto(item, bitPos, uint32(bwtChar&0x3), Lv2BwtBits)
	bitPos += Lv2BwtBits
	b.packBitsInto(item, bitPos, uint32(invertedMulti), Lv2MultiBits)
}

// Base returns base slot i (0..k-1) of item.
func (b *Lv2Buffer) Base(item, i int) byte {
	return byte(b.readBitsFrom(item, i*2, 2))
}

// Flags returns (aIsReal, bIsReal) for item.
func (b *Lv2Buffer) Flags(item int) (bool, bool) {
	v := b.readBitsFrom(item, b.K*2, Lv2FlagBits)
	return v&0x2 != 0, v&0x1 != 0
}

// BwtChar returns the 2-bit BWT-predecessor field for item.
func (b *Lv2Buffer) BwtChar(item int) byte {
	return byte(b.readBitsFrom(item, b.K*2+Lv2FlagBits, Lv2BwtBits))
}

// InvertedMulti returns the capped-inverted multiplicity for item.
func (b *Lv2Buffer) InvertedMulti(item int) uint16 {
	return uint16(b.readBitsFrom(item, b.K*2+Lv2FlagBits+Lv2BwtBits, Lv2MultiBits))
}

// KeyBits returns the number of leading bits the sort primitive must
// compare: the whole base region (the k-1 suffix bases plus 'a')
// followed by the flag, BWT and inverted-multiplicity tail, so items
// with equal bases order by their tail.
func (b *Lv2Buffer) KeyBits() int { return b.K*2 + Lv2FlagBits + Lv2BwtBits + Lv2MultiBits }

// CompareItems lexicographically compares items i and j over KeyBits,
// used by the sort primitive's correctness tests and by any fallback
// comparison sort.
func (b *Lv2Buffer) CompareItems(i, j int) int {
	nb := b.KeyBits()
	for bitPos := 0; bitPos < nb; bitPos += 32 {
		width := 32
		if nb-bitPos < 32 {
			width = nb - bitPos
		}
		vi := b.readBitsFrom(i, bitPos, width)
		vj := b.readBitsFrom(j, bitPos, width)
		if vi != vj {
			if vi < vj {
				return -1
			}
			return 1
		}
	}
	return 0
}
