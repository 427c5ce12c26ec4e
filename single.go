package kes

import (
	"fmt"
)

// SingleKES turns a base signature algorithm into a KES algorithm with a
// single period.
type SingleKES struct {
	base BaseAlgorithm
}

// CompactSingleKES is SingleKES with the verification key embedded in the
// signature, so that CompactSumKES can recover it from the signature alone.
type CompactSingleKES struct {
	SingleKES
}

// Signing key of SingleKES and CompactSingleKES.
type singleSigningKey struct {
	keyHandle
	owner *SingleKES
	sk    *SecureBuffer
}

type singleSignature struct {
	sig []byte
}

type compactSingleSignature struct {
	sig []byte
	vk  VerificationKey
}

func (s *singleSignature) Bytes() []byte { return cloneBytes(s.sig) }

func (s *compactSingleSignature) Bytes() []byte {
	ret := make([]byte, 0, len(s.sig)+len(s.vk))
	return append(append(ret, s.sig...), s.vk...)
}

// Returns a one-period KES algorithm over base.
func NewSingle(base BaseAlgorithm) *SingleKES {
	return &SingleKES{base: base}
}

// Returns a one-period KES algorithm over base whose signatures carry the
// verification key.
func NewCompactSingle(base BaseAlgorithm) *CompactSingleKES {
	return &CompactSingleKES{SingleKES{base: base}}
}

func (a *SingleKES) Name() string {
	return fmt.Sprintf("SingleKES(%s)", a.base.Name())
}

func (a *SingleKES) Base() BaseAlgorithm      { return a.base }
func (a *SingleKES) TotalPeriods() Period     { return 1 }
func (a *SingleKES) SeedSize() int            { return a.base.SeedSize() }
func (a *SingleKES) SigningKeySize() int      { return a.base.SigningKeySize() }
func (a *SingleKES) VerificationKeySize() int { return a.base.VerificationKeySize() }
func (a *SingleKES) SignatureSize() int       { return a.base.SignatureSize() }

// Type-asserts sk and checks it was not consumed.
func (a *SingleKES) key(sk SigningKey) (*singleSigningKey, Error) {
	key, ok := sk.(*singleSigningKey)
	if !ok || key == nil || key.owner != a {
		return nil, errorf(ErrGeneric, "not a signing key of this %s algorithm", a.base.Name())
	}
	if key.consumed {
		return nil, errConsumed
	}
	return key, nil
}

func (a *SingleKES) GenerateKey(seed []byte) (SigningKey, Error) {
	if len(seed) != a.SeedSize() {
		return nil, wrongLength("seed", a.SeedSize(), len(seed))
	}
	sk, err := a.base.GenerateKey(seed)
	if err != nil {
		return nil, wrapErrorf(err, ErrBase, "%s key generation", a.base.Name())
	}
	return &singleSigningKey{owner: a, sk: sk}, nil
}

func (a *SingleKES) DeriveVerificationKey(sk SigningKey) (VerificationKey, Error) {
	key, err := a.key(sk)
	if err != nil {
		return nil, err
	}
	vk, err := a.base.VerificationKey(key.sk)
	if err != nil {
		return nil, wrapErrorf(err, ErrBase, "%s verification key", a.base.Name())
	}
	return vk, nil
}

func (a *SingleKES) sign(period Period, msg []byte, sk SigningKey) (
	[]byte, Error) {
	if period != 0 {
		return nil, periodOutOfRange(period, 1)
	}
	key, err := a.key(sk)
	if err != nil {
		return nil, err
	}
	sig, err := a.base.Sign(key.sk, msg)
	if err != nil {
		return nil, wrapErrorf(err, ErrBase, "%s signing", a.base.Name())
	}
	return sig, nil
}

func (a *SingleKES) Sign(period Period, msg []byte, sk SigningKey) (
	Signature, Error) {
	sig, err := a.sign(period, msg, sk)
	if err != nil {
		return nil, err
	}
	return &singleSignature{sig: sig}, nil
}

func (a *SingleKES) Verify(vk VerificationKey, period Period, msg []byte,
	sig Signature) Error {
	if period != 0 {
		return periodOutOfRange(period, 1)
	}
	s, ok := sig.(*singleSignature)
	if !ok || s == nil {
		return errorf(ErrVerificationFailed, "%T is not a %s signature", sig, a.Name())
	}
	if !a.base.Verify(vk, msg, s.sig) {
		return errorf(ErrVerificationFailed, "%s signature invalid", a.base.Name())
	}
	return nil
}

// A single-period key expires on its first update.
func (a *SingleKES) Update(sk SigningKey, period Period) (SigningKey, Error) {
	key, err := a.key(sk)
	if err != nil {
		return nil, err
	}
	if err := a.forget(key); err != nil {
		return nil, err
	}
	if period != 0 {
		return nil, periodOutOfRange(period, 1)
	}
	return nil, nil
}

func (a *SingleKES) forget(key *singleSigningKey) Error {
	key.consumed = true
	err := key.sk.Finalize()
	key.sk = nil
	return err
}

func (a *SingleKES) Forget(sk SigningKey) Error {
	key, err := a.key(sk)
	if err != nil {
		return err
	}
	return a.forget(key)
}

func (a *SingleKES) VerificationKeyFromBytes(buf []byte) VerificationKey {
	if len(buf) != a.VerificationKeySize() {
		return nil
	}
	return cloneBytes(buf)
}

func (a *SingleKES) SignatureFromBytes(buf []byte) Signature {
	if len(buf) != a.SignatureSize() {
		return nil
	}
	return &singleSignature{sig: cloneBytes(buf)}
}

func (a *SingleKES) SigningKeyToBytes(sk SigningKey) ([]byte, Error) {
	key, err := a.key(sk)
	if err != nil {
		return nil, err
	}
	return a.base.SigningKeyToBytes(key.sk), nil
}

func (a *SingleKES) SigningKeyFromBytes(buf []byte) (SigningKey, Error) {
	if len(buf) != a.SigningKeySize() {
		return nil, wrongLength("signing key", a.SigningKeySize(), len(buf))
	}
	sk, err := a.base.SigningKeyFromBytes(buf)
	if err != nil {
		return nil, wrapErrorf(err, ErrBase, "%s signing key", a.base.Name())
	}
	return &singleSigningKey{owner: a, sk: sk}, nil
}

func (a *CompactSingleKES) Name() string {
	return fmt.Sprintf("CompactSingleKES(%s)", a.base.Name())
}

func (a *CompactSingleKES) SignatureSize() int {
	return a.base.SignatureSize() + a.base.VerificationKeySize()
}

func (a *CompactSingleKES) Sign(period Period, msg []byte, sk SigningKey) (
	Signature, Error) {
	sig, err := a.sign(period, msg, sk)
	if err != nil {
		return nil, err
	}
	vk, err := a.DeriveVerificationKey(sk)
	if err != nil {
		return nil, err
	}
	return &compactSingleSignature{sig: sig, vk: vk}, nil
}

// The cryptographic check uses the verification key embedded in the
// signature, which must equal vk.
func (a *CompactSingleKES) Verify(vk VerificationKey, period Period,
	msg []byte, sig Signature) Error {
	if period != 0 {
		return periodOutOfRange(period, 1)
	}
	s, ok := sig.(*compactSingleSignature)
	if !ok || s == nil {
		return errorf(ErrVerificationFailed, "%T is not a %s signature", sig, a.Name())
	}
	if !equalKeys(vk, s.vk) {
		return errorf(ErrVerificationFailed, "embedded verification key mismatch")
	}
	if !a.base.Verify(s.vk, msg, s.sig) {
		return errorf(ErrVerificationFailed, "%s signature invalid", a.base.Name())
	}
	return nil
}

func (a *CompactSingleKES) SignatureFromBytes(buf []byte) Signature {
	if len(buf) != a.SignatureSize() {
		return nil
	}
	n := a.base.SignatureSize()
	return &compactSingleSignature{
		sig: cloneBytes(buf[:n]),
		vk:  cloneBytes(buf[n:]),
	}
}

// Returns the verification key embedded in the signature.
func (a *CompactSingleKES) activeVerificationKey(sig Signature, period Period) (
	VerificationKey, Error) {
	s, ok := sig.(*compactSingleSignature)
	if !ok || s == nil {
		return nil, errorf(ErrVerificationFailed, "%T is not a %s signature", sig, a.Name())
	}
	return s.vk, nil
}
