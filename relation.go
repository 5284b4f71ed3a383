package polyhj

import (
	"encoding/binary"

	xxhash "github.com/cespare/xxhash/v2"
)

// RelationID identifies which side of the join a relation belongs to.
type RelationID byte

const (
	// RelationR is the build side: dense primary keys.
	RelationR RelationID = 'R'
	// RelationS is the probe side: foreign keys, possibly skewed.
	RelationS RelationID = 'S'
)

// Relation is a fixed-width tuple array belonging to one side of the join.
type Relation struct {
	ID     RelationID
	Tuples []Tuple
	Seed   uint32  // seed used to generate the relation, for reproducibility
	Skew   float64 // Zipf exponent used for S; informational only
}

// Size returns the number of tuples in this Relation.
func (r *Relation) Size() int {
	return len(r.Tuples)
}

// Fingerprint returns a 64-bit content hash of this Relation, used to tie
// log output and test expectations to exact generated inputs.
func (r *Relation) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [TupleSize]byte
	for i := range r.Tuples {
		binary.LittleEndian.PutUint32(buf[0:4], r.Tuples[i].Key)
		binary.LittleEndian.PutUint32(buf[4:8], r.Tuples[i].Payload)
		d.Write(buf[:])
	}
	return d.Sum64()
}

// SubRelation is one thread's contiguous share of a Relation. Sub-relations
// partition their parent disjointly across threads. Tuples aliases the
// parent's array until Localize is called.
type SubRelation struct {
	ID     RelationID
	Tuples []Tuple
	Offset int // within the parent relation
}

// Size returns the number of tuples in this SubRelation.
func (s *SubRelation) Size() int {
	return len(s.Tuples)
}

// Localize replaces this SubRelation's alias into the parent array with a
// private copy. Called by the owning worker after it is pinned, so the copy
// is first-touched on the worker's NUMA node.
func (s *SubRelation) Localize() {
	local := make([]Tuple, len(s.Tuples))
	copy(local, s.Tuples)
	s.Tuples = local
}

// Split divides a Relation into n sub-relations of size ⌊size/n⌋, with the
// remainder distributed one tuple each to the first size%n sub-relations.
func Split(rel *Relation, n int) []SubRelation {
	section := rel.Size() / n
	remainder := rel.Size() % n
	leftover := remainder

	subs := make([]SubRelation, n)
	for t := 0; t < n; t++ {
		offset := t*section + (remainder - leftover)
		size := section
		if leftover > 0 {
			size++
			leftover--
		}
		subs[t] = SubRelation{
			ID:     rel.ID,
			Tuples: rel.Tuples[offset : offset+size],
			Offset: offset,
		}
	}
	return subs
}
