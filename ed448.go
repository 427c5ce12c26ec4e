package kes

import (
	"github.com/cloudflare/circl/sign/ed448"
)

// Ed448 as specified in RFC 8032 with an empty context string.  Its 57 byte
// seeds need a hash of at least that size, eg. Blake2b512, to be used in a
// Sum composition.
var Ed448 BaseAlgorithm = ed448Alg{}

type ed448Alg struct{}

func (ed448Alg) Name() string             { return "Ed448" }
func (ed448Alg) SeedSize() int            { return ed448.SeedSize }
func (ed448Alg) SigningKeySize() int      { return ed448.SeedSize }
func (ed448Alg) VerificationKeySize() int { return ed448.PublicKeySize }
func (ed448Alg) SignatureSize() int       { return ed448.SignatureSize }

func (alg ed448Alg) GenerateKey(seed []byte) (*SecureBuffer, Error) {
	if len(seed) != ed448.SeedSize {
		return nil, wrongLength("Ed448 seed", ed448.SeedSize, len(seed))
	}
	ret, err := NewSecureBuffer(ed448.PrivateKeySize)
	if err != nil {
		return nil, err
	}
	expanded := ed448.NewKeyFromSeed(seed)
	copy(ret.Bytes(), expanded)
	zeroBytes(expanded)
	return ret, nil
}

func (alg ed448Alg) checkKey(sk *SecureBuffer) Error {
	if sk.Len() != ed448.PrivateKeySize {
		return wrongLength("Ed448 signing key", ed448.PrivateKeySize, sk.Len())
	}
	return nil
}

func (alg ed448Alg) VerificationKey(sk *SecureBuffer) ([]byte, Error) {
	if err := alg.checkKey(sk); err != nil {
		return nil, err
	}
	return cloneBytes(sk.Bytes()[ed448.SeedSize:]), nil
}

func (alg ed448Alg) Sign(sk *SecureBuffer, msg []byte) ([]byte, Error) {
	if err := alg.checkKey(sk); err != nil {
		return nil, err
	}
	return ed448.Sign(ed448.PrivateKey(sk.Bytes()), msg, ""), nil
}

func (alg ed448Alg) Verify(vk, msg, sig []byte) bool {
	if len(vk) != ed448.PublicKeySize || len(sig) != ed448.SignatureSize {
		return false
	}
	return ed448.Verify(ed448.PublicKey(vk), msg, sig, "")
}

func (alg ed448Alg) SigningKeyToBytes(sk *SecureBuffer) []byte {
	return cloneBytes(sk.Bytes()[:ed448.SeedSize])
}

func (alg ed448Alg) SigningKeyFromBytes(buf []byte) (*SecureBuffer, Error) {
	return alg.GenerateKey(buf)
}
