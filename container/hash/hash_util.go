package hash

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// hashKey returns a 64-bit hash of key, used to compute a slot's address
// as hash(key) % capacity. Grounded on the teacher's
// container/hash/linear_probe_hash_table.go, which hashes through
// murmur3.New128() the same way.
func hashKey(key uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	h1, _ := murmur3.Sum128(buf[:])
	return h1
}
