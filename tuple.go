package polyhj

// Key is a join key. Keys in relation R are a permutation of [1..|R|];
// keys in relation S are drawn from that range.
type Key = uint32

// Payload is the fixed-width payload carried alongside a Key.
type Payload = uint32

// Bucket is a single cell of an array-based hash table. Tables are arrays
// of Buckets, not chains: R's keys are dense primary keys, so a direct
// array lookup is a perfect hash and no collision handling is required.
type Bucket = Payload

// Tuple is a fixed-width (key, payload) record.
type Tuple struct {
	Key     Key
	Payload Payload
}

// TupleSize is the width of a Tuple in bytes.
const TupleSize = 8

// BucketSize is the width of a Bucket in bytes.
const BucketSize = 4

// ChunkSize bounds the number of tuples per ICP block. It is kept slightly
// under 1<<15 so a block's histogram counters fit in uint16.
const ChunkSize = (1 << 15) - 10

// Hash maps a key to its radix partition.
func Hash(k Key, mask uint32) uint32 { return k & mask }

// HashShifted maps a key to its radix partition, hashing on the bits above
// shift. Used by Model III, which partitions R on the high bits of the key.
func HashShifted(k Key, mask, shift uint32) uint32 { return (k >> shift) & mask }
