package kes

import (
	"fmt"

	"github.com/bwesterb/byteswriter"
	"github.com/hashicorp/go-multierror"
)

// SumKES doubles the number of periods of a child KES algorithm.
//
// The signing key covers a binary tree of two child keys derived from one
// seed.  While in the left half, the seed of the right child is kept in
// secure memory; it is consumed when the key crosses the midpoint.  The
// verification key is H(vk0 || vk1) and signatures carry both vk0 and vk1.
type SumKES struct {
	child Algorithm
	hash  HashAlgorithm
	t     Period // periods of the child
}

type sumSigningKey struct {
	keyHandle
	owner *SumKES
	sk    SigningKey    // key of the active child
	seed  *SecureBuffer // seed of the right child; nil once consumed
	vk0   VerificationKey
	vk1   VerificationKey
}

type sumSignature struct {
	sig Signature // signature of the active child
	vk0 VerificationKey
	vk1 VerificationKey
}

func (s *sumSignature) Bytes() []byte {
	return concat(s.sig.Bytes(), s.vk0, s.vk1)
}

// Concatenates the given byte strings into a fresh buffer.
func concat(parts ...[]byte) []byte {
	n := 0
	for _, part := range parts {
		n += len(part)
	}
	buf := make([]byte, n)
	w := byteswriter.NewWriter(buf)
	for _, part := range parts {
		w.Write(part)
	}
	return buf
}

func checkComposition(child Algorithm, h HashAlgorithm) Error {
	if h.Size() < child.SeedSize() {
		return errorf(ErrInvalidParams,
			"%s output of %d bytes is shorter than the %d byte seed of %s",
			h.Name(), h.Size(), child.SeedSize(), child.Name())
	}
	if child.TotalPeriods() > 1<<62 {
		return errorf(ErrInvalidParams, "composition too deep")
	}
	return nil
}

// Returns the Sum composition of child using h to expand seeds and
// combine verification keys.
func NewSum(child Algorithm, h HashAlgorithm) (*SumKES, Error) {
	if err := checkComposition(child, h); err != nil {
		return nil, err
	}
	return &SumKES{child: child, hash: h, t: child.TotalPeriods()}, nil
}

func (a *SumKES) Name() string {
	return fmt.Sprintf("SumKES(%s,%s)", a.child.Name(), a.hash.Name())
}

func (a *SumKES) Child() Algorithm         { return a.child }
func (a *SumKES) Hash() HashAlgorithm      { return a.hash }
func (a *SumKES) TotalPeriods() Period     { return 2 * a.t }
func (a *SumKES) SeedSize() int            { return a.child.SeedSize() }
func (a *SumKES) VerificationKeySize() int { return a.hash.Size() }

func (a *SumKES) SigningKeySize() int {
	return a.child.SigningKeySize() + a.child.SeedSize() +
		2*a.child.VerificationKeySize()
}

func (a *SumKES) SignatureSize() int {
	return a.child.SignatureSize() + 2*a.child.VerificationKeySize()
}

// Type-asserts sk and checks it was not consumed.
func (a *SumKES) key(sk SigningKey) (*sumSigningKey, Error) {
	key, ok := sk.(*sumSigningKey)
	if !ok || key == nil || key.owner != a {
		return nil, errorf(ErrGeneric, "not a signing key of this algorithm")
	}
	if key.consumed {
		return nil, errConsumed
	}
	return key, nil
}

func (a *SumKES) GenerateKey(seed []byte) (ret SigningKey, err Error) {
	if len(seed) != a.SeedSize() {
		return nil, wrongLength("seed", a.SeedSize(), len(seed))
	}

	r0, r1, err := ExpandSeed(a.hash, seed, a.child.SeedSize())
	if err != nil {
		return nil, err
	}
	defer r0.Finalize()

	var sk0 SigningKey
	defer func() {
		if err != nil {
			r1.Finalize()
			if sk0 != nil {
				a.child.Forget(sk0)
			}
		}
	}()

	sk0, err = a.child.GenerateKey(r0.Bytes())
	if err != nil {
		return nil, err
	}
	vk0, err := a.child.DeriveVerificationKey(sk0)
	if err != nil {
		return nil, err
	}

	// The right key is only needed for its verification key.
	sk1, err := a.child.GenerateKey(r1.Bytes())
	if err != nil {
		return nil, err
	}
	vk1, err := a.child.DeriveVerificationKey(sk1)
	if ferr := a.child.Forget(sk1); err == nil {
		err = ferr
	}
	if err != nil {
		return nil, err
	}

	return &sumSigningKey{
		owner: a,
		sk:    sk0,
		seed:  r1,
		vk0:   vk0,
		vk1:   vk1,
	}, nil
}

func (a *SumKES) DeriveVerificationKey(sk SigningKey) (VerificationKey, Error) {
	key, err := a.key(sk)
	if err != nil {
		return nil, err
	}
	return a.hash.Hash(key.vk0, key.vk1), nil
}

// Signs with the active child at the period relative to its subtree.
func (a *SumKES) childSign(period Period, msg []byte, sk SigningKey) (
	Signature, *sumSigningKey, Error) {
	if period >= a.TotalPeriods() {
		return nil, nil, periodOutOfRange(period, a.TotalPeriods())
	}
	key, err := a.key(sk)
	if err != nil {
		return nil, nil, err
	}
	if period >= a.t {
		period -= a.t
	}
	sig, err := a.child.Sign(period, msg, key.sk)
	if err != nil {
		return nil, nil, err
	}
	return sig, key, nil
}

func (a *SumKES) Sign(period Period, msg []byte, sk SigningKey) (
	Signature, Error) {
	sig, key, err := a.childSign(period, msg, sk)
	if err != nil {
		return nil, err
	}
	return &sumSignature{sig: sig, vk0: key.vk0, vk1: key.vk1}, nil
}

func (a *SumKES) Verify(vk VerificationKey, period Period, msg []byte,
	sig Signature) Error {
	if period >= a.TotalPeriods() {
		return periodOutOfRange(period, a.TotalPeriods())
	}
	s, ok := sig.(*sumSignature)
	if !ok || s == nil {
		return errorf(ErrVerificationFailed, "not a %s signature", a.Name())
	}
	if !equalKeys(a.hash.Hash(s.vk0, s.vk1), vk) {
		return errorf(ErrVerificationFailed, "verification key mismatch")
	}
	if period < a.t {
		return a.child.Verify(s.vk0, period, msg, s.sig)
	}
	return a.child.Verify(s.vk1, period-a.t, msg, s.sig)
}

func (a *SumKES) Update(sk SigningKey, period Period) (SigningKey, Error) {
	key, err := a.key(sk)
	if err != nil {
		return nil, err
	}

	// Take ownership of the contents and invalidate the old handle.
	child, seed := key.sk, key.seed
	key.consumed = true
	key.sk, key.seed = nil, nil
	next := &sumSigningKey{owner: a, vk0: key.vk0, vk1: key.vk1}

	switch {
	case period >= 2*a.t-1:
		// expired
		return nil, a.release(child, seed)

	case period == a.t-1:
		if seed == nil {
			a.release(child, nil)
			return nil, errorf(ErrKeyExpired,
				"seed of the right subtree was already used")
		}
		log.Logf("kes: moving to right subtree at period %d of %d",
			period+1, a.TotalPeriods())
		next.sk, err = a.child.GenerateKey(seed.Bytes())
		if rerr := a.release(child, seed); err == nil && rerr != nil {
			err = rerr
		}
		if err != nil {
			if next.sk != nil {
				a.child.Forget(next.sk)
			}
			return nil, err
		}
		return next, nil

	case period < a.t:
		next.sk, err = a.child.Update(child, period)
		next.seed = seed

	default:
		next.sk, err = a.child.Update(child, period-a.t)
		if seed != nil {
			seed.Finalize()
		}
	}

	if err != nil || next.sk == nil {
		next.seed.Finalize()
		return nil, err
	}
	return next, nil
}

// Forgets child (if not nil) and finalizes seed.
func (a *SumKES) release(child SigningKey, seed *SecureBuffer) Error {
	var result *multierror.Error
	if child != nil && !child.Consumed() {
		if err := a.child.Forget(child); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := seed.Finalize(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return wrapErrorf(err, ErrGeneric, "releasing signing key")
	}
	return nil
}

func (a *SumKES) Forget(sk SigningKey) Error {
	key, err := a.key(sk)
	if err != nil {
		return err
	}
	key.consumed = true
	child, seed := key.sk, key.seed
	key.sk, key.seed = nil, nil
	return a.release(child, seed)
}

func (a *SumKES) VerificationKeyFromBytes(buf []byte) VerificationKey {
	if len(buf) != a.VerificationKeySize() {
		return nil
	}
	return cloneBytes(buf)
}

// Splits buf into a child signature and n child verification keys.
func (a *SumKES) splitSignature(buf []byte, n int) (Signature,
	[]VerificationKey) {
	sigSize := a.child.SignatureSize()
	vkSize := a.child.VerificationKeySize()
	if len(buf) != sigSize+n*vkSize {
		return nil, nil
	}
	sig := a.child.SignatureFromBytes(buf[:sigSize])
	if sig == nil {
		return nil, nil
	}
	vks := make([]VerificationKey, n)
	for i := 0; i < n; i++ {
		off := sigSize + i*vkSize
		vks[i] = a.child.VerificationKeyFromBytes(buf[off : off+vkSize])
		if vks[i] == nil {
			return nil, nil
		}
	}
	return sig, vks
}

func (a *SumKES) SignatureFromBytes(buf []byte) Signature {
	sig, vks := a.splitSignature(buf, 2)
	if sig == nil {
		return nil
	}
	return &sumSignature{sig: sig, vk0: vks[0], vk1: vks[1]}
}

// Encodes as child key || right seed || vk0 || vk1.  The seed is all zero
// once the key has moved to the right subtree.
func (a *SumKES) SigningKeyToBytes(sk SigningKey) ([]byte, Error) {
	key, err := a.key(sk)
	if err != nil {
		return nil, err
	}
	child, err := a.child.SigningKeyToBytes(key.sk)
	if err != nil {
		return nil, err
	}
	seed := make([]byte, a.child.SeedSize())
	if key.seed != nil {
		copy(seed, key.seed.Bytes())
	}
	ret := concat(child, seed, key.vk0, key.vk1)
	zeroBytes(child)
	zeroBytes(seed)
	return ret, nil
}

func (a *SumKES) SigningKeyFromBytes(buf []byte) (SigningKey, Error) {
	if len(buf) != a.SigningKeySize() {
		return nil, wrongLength("signing key", a.SigningKeySize(), len(buf))
	}
	skSize := a.child.SigningKeySize()
	seedSize := a.child.SeedSize()
	vkSize := a.child.VerificationKeySize()

	off := skSize + seedSize
	vk0 := a.child.VerificationKeyFromBytes(buf[off : off+vkSize])
	vk1 := a.child.VerificationKeyFromBytes(buf[off+vkSize:])
	if vk0 == nil || vk1 == nil {
		return nil, errorf(ErrWrongLength, "malformed verification keys")
	}

	var seed *SecureBuffer
	if seedBytes := buf[skSize:off]; !isZero(seedBytes) {
		var err Error
		seed, err = NewSecureBufferFrom(seedBytes)
		if err != nil {
			return nil, err
		}
	}

	child, err := a.child.SigningKeyFromBytes(buf[:skSize])
	if err != nil {
		seed.Finalize()
		return nil, err
	}
	return &sumSigningKey{
		owner: a,
		sk:    child,
		seed:  seed,
		vk0:   vk0,
		vk1:   vk1,
	}, nil
}
