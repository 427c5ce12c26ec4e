package kes

import (
	"crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const (
	secpScalarSize = 32
	secpPubKeySize = 33 // compressed
	secpSigSize    = 64 // r || s
)

// ECDSA over secp256k1 with RFC 6979 nonces and low-S signatures.  The seed
// is used as the secret scalar and must lie in [1, n).  Verification keys
// are compressed points and signatures are r || s.  Messages are hashed
// with SHA-256, except 32 byte messages which are taken to be digests.
var ECDSASecp256k1 BaseAlgorithm = secpAlg{}

type secpAlg struct{}

func (secpAlg) Name() string             { return "ECDSA-secp256k1" }
func (secpAlg) SeedSize() int            { return secpScalarSize }
func (secpAlg) SigningKeySize() int      { return secpScalarSize }
func (secpAlg) VerificationKeySize() int { return secpPubKeySize }
func (secpAlg) SignatureSize() int       { return secpSigSize }

func secpDigest(msg []byte) []byte {
	if len(msg) == 32 {
		return msg
	}
	ret := sha256.Sum256(msg)
	return ret[:]
}

func (alg secpAlg) GenerateKey(seed []byte) (*SecureBuffer, Error) {
	if len(seed) != secpScalarSize {
		return nil, wrongLength("secp256k1 seed", secpScalarSize, len(seed))
	}
	var k secp256k1.ModNScalar
	overflow := k.SetByteSlice(seed)
	zero := k.IsZero()
	k.Zero()
	if overflow || zero {
		return nil, errorf(ErrBase, "seed is not a valid secp256k1 scalar")
	}
	return NewSecureBufferFrom(seed)
}

// Loads the private key.  Caller must call Zero() on it.
func (alg secpAlg) privKey(sk *SecureBuffer) (*secp256k1.PrivateKey, Error) {
	if sk.Len() != secpScalarSize {
		return nil, wrongLength("secp256k1 signing key", secpScalarSize, sk.Len())
	}
	return secp256k1.PrivKeyFromBytes(sk.Bytes()), nil
}

func (alg secpAlg) VerificationKey(sk *SecureBuffer) ([]byte, Error) {
	priv, err := alg.privKey(sk)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()
	return priv.PubKey().SerializeCompressed(), nil
}

func (alg secpAlg) Sign(sk *SecureBuffer, msg []byte) ([]byte, Error) {
	priv, err := alg.privKey(sk)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	// SignCompact prefixes r || s with a public key recovery code.
	compact := ecdsa.SignCompact(priv, secpDigest(msg), true)
	return compact[1:], nil
}

func (alg secpAlg) Verify(vk, msg, sig []byte) bool {
	if len(vk) != secpPubKeySize || len(sig) != secpSigSize {
		return false
	}
	pub, err := secp256k1.ParsePubKey(vk)
	if err != nil {
		return false
	}
	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(sig[:32]) || s.SetByteSlice(sig[32:]) {
		return false
	}
	if r.IsZero() || s.IsZero() || s.IsOverHalfOrder() {
		return false
	}
	return ecdsa.NewSignature(&r, &s).Verify(secpDigest(msg), pub)
}

func (alg secpAlg) SigningKeyToBytes(sk *SecureBuffer) []byte {
	return cloneBytes(sk.Bytes())
}

func (alg secpAlg) SigningKeyFromBytes(buf []byte) (*SecureBuffer, Error) {
	return alg.GenerateKey(buf)
}
