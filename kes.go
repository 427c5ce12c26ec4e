package kes

// Period of a key-evolving signature scheme.  Valid periods of an algorithm
// are 0, ..., TotalPeriods()-1.
type Period uint64

// A key-evolving signature algorithm.
//
// Every level of a Sum or CompactSum composition, as well as the single
// period leaves, implements this interface.  Implementations are stateless
// and safe for concurrent use; all state lives in the SigningKey.
type Algorithm interface {
	// Name of the algorithm, eg. "SumKES(SingleKES(Ed25519),Blake2b-256)".
	Name() string

	// Number of periods the keys of this algorithm can sign for.
	TotalPeriods() Period

	// Sizes of the raw encodings.
	SeedSize() int
	SigningKeySize() int
	VerificationKeySize() int
	SignatureSize() int

	// Deterministically derives a signing key for period 0 from a seed
	// of SeedSize() bytes.
	GenerateKey(seed []byte) (SigningKey, Error)

	// Returns the verification key that belongs to sk.
	DeriveVerificationKey(sk SigningKey) (VerificationKey, Error)

	// Signs msg for the given period.  sk must have been evolved to period.
	Sign(period Period, msg []byte, sk SigningKey) (Signature, Error)

	// Checks sig on msg for the given period against vk.  Returns nil if
	// the signature is valid.
	Verify(vk VerificationKey, period Period, msg []byte, sig Signature) Error

	// Evolves sk, which is at the given period, to the next period.
	//
	// sk is consumed: whatever the outcome, it cannot be used again.
	// Returns nil without error if the key has expired.
	Update(sk SigningKey, period Period) (SigningKey, Error)

	// Zeroes and releases the secret memory held by sk and consumes it.
	Forget(sk SigningKey) Error

	// Parses a verification key or signature.  Returns nil if buf does not
	// have exactly the right length or is otherwise malformed.
	VerificationKeyFromBytes(buf []byte) VerificationKey
	SignatureFromBytes(buf []byte) Signature

	// Raw encoding of signing keys.  This copies secret material out of
	// secure memory: only use it for tests and key storage.
	SigningKeyToBytes(sk SigningKey) ([]byte, Error)
	SigningKeyFromBytes(buf []byte) (SigningKey, Error)
}

// Verification key of a KES algorithm: an opaque fixed-length byte string.
type VerificationKey []byte

// Signature of a KES algorithm.
type Signature interface {
	// Raw encoding of the signature.
	Bytes() []byte
}

// Evolving secret key of a KES algorithm.
//
// Signing keys are handles: Update and Forget consume them, after which any
// use returns an ErrKeyConsumed error.
type SigningKey interface {
	// Reports whether the key has been consumed by Update or Forget.
	Consumed() bool
}

// Embedded in the signing keys to track consumption.
type keyHandle struct {
	consumed bool
}

func (h *keyHandle) Consumed() bool { return h.consumed }

// Hashes a verification key with h, eg. to obtain a pool key hash.
func HashVerificationKey(h HashAlgorithm, vk VerificationKey) []byte {
	return h.Hash(vk)
}
