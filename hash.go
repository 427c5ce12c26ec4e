package kes

import (
	gohash "hash"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Hash function used to combine verification keys and expand seeds.
type HashAlgorithm interface {
	Name() string

	// Size of the digest in bytes.
	Size() int

	// Returns the digest of the concatenation of the given byte strings.
	Hash(data ...[]byte) []byte

	// Returns a running hash state.
	New() gohash.Hash
}

type hashImpl struct {
	name string
	size int
	new  func() gohash.Hash
}

func (h *hashImpl) Name() string     { return h.name }
func (h *hashImpl) Size() int        { return h.size }
func (h *hashImpl) New() gohash.Hash { return h.new() }

func (h *hashImpl) Hash(data ...[]byte) []byte {
	state := h.new()
	for _, d := range data {
		state.Write(d)
	}
	return state.Sum(nil)
}

func newBlake2b(size int) func() gohash.Hash {
	return func() gohash.Hash {
		ret, err := blake2b.New(size, nil)
		if err != nil {
			// only fails for sizes outside [1,64] or oversized keys
			panic(err)
		}
		return ret
	}
}

var (
	// Blake2b with 224 bit output.
	Blake2b224 HashAlgorithm = &hashImpl{"Blake2b-224", 28, newBlake2b(28)}

	// Blake2b with 256 bit output.  This is the hash Cardano uses.
	Blake2b256 HashAlgorithm = &hashImpl{"Blake2b-256", 32, newBlake2b(32)}

	// Blake2b with 512 bit output.
	Blake2b512 HashAlgorithm = &hashImpl{"Blake2b-512", 64, newBlake2b(64)}

	// SHA3-256.
	SHA3_256 HashAlgorithm = &hashImpl{"SHA3-256", 32, sha3.New256}

	// BLAKE3 with 256 bit output.
	Blake3_256 HashAlgorithm = &hashImpl{"BLAKE3-256", 32,
		func() gohash.Hash { return blake3.New() }}
)

// Splits seed into two child seeds of childSeedSize bytes:
//
//	r0 = H(0x01 || seed)[:childSeedSize]
//	r1 = H(0x02 || seed)[:childSeedSize]
//
// The child seeds are returned in secure memory.
func ExpandSeed(h HashAlgorithm, seed []byte, childSeedSize int) (
	r0, r1 *SecureBuffer, err Error) {
	if childSeedSize > h.Size() {
		return nil, nil, errorf(ErrInvalidParams,
			"%s output (%d bytes) too short for seed of %d bytes",
			h.Name(), h.Size(), childSeedSize)
	}
	r0, err = expandSeedHalf(h, 1, seed, childSeedSize)
	if err != nil {
		return nil, nil, err
	}
	r1, err = expandSeedHalf(h, 2, seed, childSeedSize)
	if err != nil {
		r0.Finalize()
		return nil, nil, err
	}
	return
}

func expandSeedHalf(h HashAlgorithm, prefix byte, seed []byte,
	n int) (*SecureBuffer, Error) {
	ret, err := NewSecureBuffer(n)
	if err != nil {
		return nil, err
	}
	state := h.New()
	state.Write([]byte{prefix})
	state.Write(seed)
	digest := state.Sum(nil)
	copy(ret.Bytes(), digest)
	zeroBytes(digest)
	state.Reset()
	return ret, nil
}
