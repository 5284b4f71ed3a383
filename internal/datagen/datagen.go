// Package datagen fills join relations with synthetic workloads: dense
// shuffled primary keys for the build side, and uniform or Zipf-distributed
// foreign keys for the probe side. Generation is deterministic under a
// relation's seed, so runs are reproducible bit-for-bit.
package datagen

import (
	"math"
	"math/rand"

	polyhj "github.com/cmuq-ccl/polyhj"
)

// xorshift128 is the engine's historical PRNG. It is kept over a library
// generator because relation contents (and therefore checksums) are part of
// the engine's reproducibility contract across implementations.
type xorshift128 struct {
	w, x, y, z uint32
}

func newXorshift128(seed uint32) *xorshift128 {
	return &xorshift128{
		w: 67819 + seed,
		x: 2 + seed,
		y: 138 + seed,
		z: 9127 + seed,
	}
}

func (g *xorshift128) next() uint32 {
	t := g.x
	t ^= t << 11
	t ^= t >> 8
	g.x, g.y, g.z = g.y, g.z, g.w
	g.w ^= g.w >> 19
	g.w ^= t
	return g.w
}

// uint32n returns an unbiased value in [0, max) via threshold rejection.
func (g *xorshift128) uint32n(max uint32) uint32 {
	threshold := -max % max
	r := g.next()
	for r < threshold {
		r = g.next()
	}
	return r % max
}

// permutation fills tuples with a random permutation of the keys [1, n].
func permutation(g *xorshift128, tuples []polyhj.Tuple) {
	n := len(tuples)
	if n == 0 {
		return
	}
	for i := range tuples {
		tuples[i].Key = uint32(i) + 1
	}
	for i := n - 1; i > 0; i-- {
		j := g.uint32n(uint32(i))
		tuples[i].Key, tuples[j].Key = tuples[j].Key, tuples[i].Key
	}
}

// FillPrimaryKeys fills relR with a shuffled permutation of [1, |R|].
func FillPrimaryKeys(relR *polyhj.Relation) {
	g := newXorshift128(relR.Seed)
	permutation(g, relR.Tuples)
}

// FillForeignKeys fills relS with uniform foreign keys into relR's key
// space: repeated permutations of [1, |R|], so every primary key appears
// ⌊|S|/|R|⌋ or ⌈|S|/|R|⌉ times.
func FillForeignKeys(relR, relS *polyhj.Relation) {
	g := newXorshift128(relS.Seed)

	sizeR := relR.Size()
	ratio := relS.Size() / sizeR
	for i := 0; i < ratio; i++ {
		permutation(g, relS.Tuples[i*sizeR:(i+1)*sizeR])
	}
	permutation(g, relS.Tuples[ratio*sizeR:])
}

// FillSkewedKeys fills relS with foreign keys following a Zipfian
// distribution with exponent relS.Skew over a shuffled copy of relR's key
// space, via inverse-CDF lookup with binary search. Based on the generator
// used by Balkesen et al.'s parallel join studies.
func FillSkewedKeys(relR, relS *polyhj.Relation) {
	g := newXorshift128(relS.Seed)
	uniform := rand.New(rand.NewSource(int64(relS.Seed)))
	z := relS.Skew
	sizeR := relR.Size()

	// random permutation of all keys, so the hot keys are not the small ones
	keys := make([]uint32, sizeR)
	for i := range keys {
		keys[i] = uint32(i) + 1
	}
	for i := sizeR - 1; i > 0; i-- {
		j := g.uint32n(uint32(i))
		keys[i], keys[j] = keys[j], keys[i]
	}

	// Zipf CDF lookup table
	table := make([]float64, sizeR)
	var d, s float64
	for i := 0; i < sizeR; i++ {
		d += 1.0 / math.Pow(float64(i)+1, z)
	}
	for i := 0; i < sizeR; i++ {
		s += 1.0 / math.Pow(float64(i)+1, z)
		table[i] = s / d
	}

	for i := range relS.Tuples {
		x := uniform.Float64()
		l, r := 0, sizeR-1
		if table[0] >= x {
			r = 0
		}
		for r-l > 1 {
			m := l + (r-l)/2
			if table[m] < x {
				l = m
			} else {
				r = m
			}
		}
		relS.Tuples[i].Key = keys[r]
	}
}

// SeedPayloads sets every tuple's payload to its key. The default generator
// leaves payloads unset, which makes checksums depend on allocator residue;
// seeded payloads give checksums a closed form tests can assert on.
func SeedPayloads(rel *polyhj.Relation) {
	for i := range rel.Tuples {
		rel.Tuples[i].Payload = rel.Tuples[i].Key
	}
}

// Generate allocates and fills both relations from opts: R with shuffled
// primary keys, S with uniform or skewed foreign keys, payloads seeded to
// keys on both sides.
func Generate(opts *polyhj.Options) (relR, relS *polyhj.Relation) {
	relR = &polyhj.Relation{
		ID:     polyhj.RelationR,
		Tuples: make([]polyhj.Tuple, opts.SizeR),
		Seed:   opts.SeedR,
	}
	relS = &polyhj.Relation{
		ID:     polyhj.RelationS,
		Tuples: make([]polyhj.Tuple, opts.SizeS),
		Seed:   opts.SeedS,
		Skew:   opts.Skew,
	}

	FillPrimaryKeys(relR)
	if relS.Skew > 0 {
		FillSkewedKeys(relR, relS)
	} else {
		FillForeignKeys(relR, relS)
	}
	SeedPayloads(relR)
	SeedPayloads(relS)
	return relR, relS
}
