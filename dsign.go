package kes

import (
	"crypto/subtle"

	"golang.org/x/crypto/ed25519"
)

// Ordinary (non-evolving) signature scheme used at the leaves of a KES
// composition.
//
// Signing keys live in SecureBuffers in an implementation-specific
// expanded form; SigningKeyToBytes and SigningKeyFromBytes convert between
// that form and the raw SigningKeySize() encoding.
type BaseAlgorithm interface {
	Name() string

	SeedSize() int
	SigningKeySize() int
	VerificationKeySize() int
	SignatureSize() int

	// Derives a signing key from a seed of SeedSize() bytes.
	GenerateKey(seed []byte) (*SecureBuffer, Error)

	// Returns the verification key of sk.
	VerificationKey(sk *SecureBuffer) ([]byte, Error)

	Sign(sk *SecureBuffer, msg []byte) ([]byte, Error)

	// Reports whether sig is a valid signature on msg under vk.  Must not
	// panic on malformed vk or sig.
	Verify(vk, msg, sig []byte) bool

	SigningKeyToBytes(sk *SecureBuffer) []byte
	SigningKeyFromBytes(buf []byte) (*SecureBuffer, Error)
}

// Ed25519 as specified in RFC 8032.  The raw signing key is the 32 byte
// seed; in memory the key is kept as seed || public key.
var Ed25519 BaseAlgorithm = ed25519Alg{}

type ed25519Alg struct{}

func (ed25519Alg) Name() string             { return "Ed25519" }
func (ed25519Alg) SeedSize() int            { return ed25519.SeedSize }
func (ed25519Alg) SigningKeySize() int      { return ed25519.SeedSize }
func (ed25519Alg) VerificationKeySize() int { return ed25519.PublicKeySize }
func (ed25519Alg) SignatureSize() int       { return ed25519.SignatureSize }

func (alg ed25519Alg) GenerateKey(seed []byte) (*SecureBuffer, Error) {
	if len(seed) != ed25519.SeedSize {
		return nil, wrongLength("Ed25519 seed", ed25519.SeedSize, len(seed))
	}
	ret, err := NewSecureBuffer(ed25519.PrivateKeySize)
	if err != nil {
		return nil, err
	}
	expanded := ed25519.NewKeyFromSeed(seed)
	copy(ret.Bytes(), expanded)
	zeroBytes(expanded)
	return ret, nil
}

func (alg ed25519Alg) checkKey(sk *SecureBuffer) Error {
	if sk.Len() != ed25519.PrivateKeySize {
		return wrongLength("Ed25519 signing key", ed25519.PrivateKeySize, sk.Len())
	}
	return nil
}

func (alg ed25519Alg) VerificationKey(sk *SecureBuffer) ([]byte, Error) {
	if err := alg.checkKey(sk); err != nil {
		return nil, err
	}
	return cloneBytes(sk.Bytes()[ed25519.SeedSize:]), nil
}

func (alg ed25519Alg) Sign(sk *SecureBuffer, msg []byte) ([]byte, Error) {
	if err := alg.checkKey(sk); err != nil {
		return nil, err
	}
	return ed25519.Sign(ed25519.PrivateKey(sk.Bytes()), msg), nil
}

func (alg ed25519Alg) Verify(vk, msg, sig []byte) bool {
	if len(vk) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(vk), msg, sig)
}

func (alg ed25519Alg) SigningKeyToBytes(sk *SecureBuffer) []byte {
	return cloneBytes(sk.Bytes()[:ed25519.SeedSize])
}

func (alg ed25519Alg) SigningKeyFromBytes(buf []byte) (*SecureBuffer, Error) {
	return alg.GenerateKey(buf)
}

// Constant-time comparison of verification keys.
func equalKeys(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
