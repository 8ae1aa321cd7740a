package optimize

import (
	"hash/fnv"
	"math/rand"
)

// InstanceSeed derives the seed of a named instance: the master seed XOR the
// 64-bit FNV-1a hash of the name.
func InstanceSeed(master int64, name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return master ^ int64(h.Sum64())
}

// NewRand returns the random source of a named instance.
func NewRand(master int64, name string) *rand.Rand {
	return rand.New(rand.NewSource(InstanceSeed(master, name)))
}
