// Go implementation of forward-secure key-evolving signatures (KES) using
// the binary Sum and CompactSum compositions of Malkin, Micciancio and Miner
// as used by Cardano.
//
// A signing key evolves through a fixed number of periods.  Signatures made
// in any period verify under one fixed verification key, while a key that
// has evolved past a period can no longer sign for it.  Secret material is
// kept in locked memory that is zeroed when released.
package kes

// Contains the high-level API

import (
	"sync"
)

// KES private key that keeps track of its current period.
// Safe for concurrent use.
type PrivateKey struct {
	mux    sync.Mutex
	ctx    *Context
	sk     SigningKey // nil when expired or closed
	period Period     // current period
	vk     VerificationKey
	closed bool
}

// KES public key
type PublicKey struct {
	ctx *Context
	vk  VerificationKey
}

// Signature together with the period it was made in.
type SignedKES struct {
	ctx    *Context
	Period Period
	Sig    Signature
}

// Generates a new key pair from a random seed.
func (ctx *Context) GenerateKeyPair() (*PrivateKey, *PublicKey, Error) {
	seed, err := NewRandomSecureBuffer(ctx.SeedSize())
	if err != nil {
		return nil, nil, err
	}
	defer seed.Finalize()
	return ctx.Derive(seed.Bytes())
}

// Derives a key pair at period 0 from the given seed, which must be
// SeedSize() bytes.
func (ctx *Context) Derive(seed []byte) (*PrivateKey, *PublicKey, Error) {
	sk, err := ctx.alg.GenerateKey(seed)
	if err != nil {
		return nil, nil, err
	}
	metricSigningKeys.WithLabelValues(ctx.String()).Inc()
	metricSigningKeyBytes.WithLabelValues(ctx.String()).Add(
		float64(ctx.SigningKeySize()))
	return ctx.newPrivateKey(sk, 0)
}

func (ctx *Context) newPrivateKey(sk SigningKey, period Period) (
	*PrivateKey, *PublicKey, Error) {
	vk, err := ctx.alg.DeriveVerificationKey(sk)
	if err != nil {
		ctx.alg.Forget(sk)
		return nil, nil, err
	}
	log.Logf("kes: %s key %s at period %d", ctx, fingerprint(vk), period)
	return &PrivateKey{ctx: ctx, sk: sk, period: period, vk: vk},
		&PublicKey{ctx: ctx, vk: vk}, nil
}

// Returns the context of the key.
func (sk *PrivateKey) Context() *Context { return sk.ctx }

// Returns the public key belonging to sk.
func (sk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{ctx: sk.ctx, vk: sk.vk}
}

// Returns the current period of the key.  Once the key has expired this
// is TotalPeriods().
func (sk *PrivateKey) Period() Period {
	sk.mux.Lock()
	defer sk.mux.Unlock()
	return sk.period
}

// Reports whether the key has evolved past its last period.
func (sk *PrivateKey) Expired() bool {
	sk.mux.Lock()
	defer sk.mux.Unlock()
	return !sk.closed && sk.sk == nil
}

// Returns an error if the key cannot be used.  Caller holds sk.mux.
func (sk *PrivateKey) usable() Error {
	if sk.closed {
		return errorf(ErrKeyConsumed, "private key is closed")
	}
	if sk.sk == nil {
		return errorf(ErrKeyExpired, "private key expired after %d periods",
			sk.ctx.TotalPeriods())
	}
	return nil
}

// Signs msg in the current period.
func (sk *PrivateKey) Sign(msg []byte) (*SignedKES, Error) {
	sk.mux.Lock()
	defer sk.mux.Unlock()
	if err := sk.usable(); err != nil {
		return nil, err
	}
	sig, err := sk.ctx.alg.Sign(sk.period, msg, sk.sk)
	if err != nil {
		return nil, err
	}
	metricSignatures.WithLabelValues(sk.ctx.String()).Inc()
	metricSignatureBytes.WithLabelValues(sk.ctx.String()).Add(
		float64(sk.ctx.SignatureSize()))
	return &SignedKES{ctx: sk.ctx, Period: sk.period, Sig: sig}, nil
}

// Evolves the key to the next period.  Evolving from the last period
// expires the key.
func (sk *PrivateKey) Evolve() Error {
	sk.mux.Lock()
	defer sk.mux.Unlock()
	return sk.evolve()
}

// Caller holds sk.mux.
func (sk *PrivateKey) evolve() Error {
	if err := sk.usable(); err != nil {
		return err
	}
	next, err := sk.ctx.alg.Update(sk.sk, sk.period)
	sk.sk = next
	if err != nil {
		return err
	}
	sk.period++
	metricUpdates.WithLabelValues(sk.ctx.String()).Inc()
	if next == nil {
		log.Logf("kes: %s key %s expired", sk.ctx, fingerprint(sk.vk))
	} else {
		log.Logf("kes: %s key %s evolved to period %d",
			sk.ctx, fingerprint(sk.vk), sk.period)
	}
	return nil
}

// Evolves the key until it reaches the given period.  Keys never move
// backwards.
func (sk *PrivateKey) EvolveTo(period Period) Error {
	sk.mux.Lock()
	defer sk.mux.Unlock()
	if period < sk.period {
		return errorf(ErrGeneric, "cannot evolve key from period %d back to %d",
			sk.period, period)
	}
	if period > sk.ctx.TotalPeriods() {
		return periodOutOfRange(period, sk.ctx.TotalPeriods())
	}
	for sk.period < period {
		if err := sk.evolve(); err != nil {
			return err
		}
	}
	return nil
}

// Forgets the key, zeroing its secret memory.
func (sk *PrivateKey) Close() Error {
	sk.mux.Lock()
	defer sk.mux.Unlock()
	if sk.closed {
		return nil
	}
	sk.closed = true
	if sk.sk == nil {
		return nil
	}
	err := sk.ctx.alg.Forget(sk.sk)
	sk.sk = nil
	return err
}

// Encodes the key as an 8 byte big endian period followed by the raw
// signing key.  The result contains secret key material.
func (sk *PrivateKey) MarshalBinary() ([]byte, error) {
	sk.mux.Lock()
	defer sk.mux.Unlock()
	if err := sk.usable(); err != nil {
		return nil, err
	}
	raw, err := sk.ctx.alg.SigningKeyToBytes(sk.sk)
	if err != nil {
		return nil, err
	}
	ret := make([]byte, 8+len(raw))
	encodeUint64Into(uint64(sk.period), ret[:8])
	copy(ret[8:], raw)
	zeroBytes(raw)
	return ret, nil
}

// Decodes a private key encoded with PrivateKey.MarshalBinary.
func (ctx *Context) PrivateKeyFromBytes(buf []byte) (*PrivateKey, Error) {
	if len(buf) != 8+ctx.SigningKeySize() {
		return nil, wrongLength("private key", 8+ctx.SigningKeySize(), len(buf))
	}
	period := Period(decodeUint64(buf[:8]))
	if period >= ctx.TotalPeriods() {
		return nil, periodOutOfRange(period, ctx.TotalPeriods())
	}
	sk, err := ctx.alg.SigningKeyFromBytes(buf[8:])
	if err != nil {
		return nil, err
	}
	ret, _, err := ctx.newPrivateKey(sk, period)
	return ret, err
}

// Returns the context of the key.
func (pk *PublicKey) Context() *Context { return pk.ctx }

// Returns the verification key.
func (pk *PublicKey) VerificationKey() VerificationKey { return pk.vk }

// Short hexadecimal fingerprint of the verification key.
func (pk *PublicKey) Fingerprint() string { return fingerprint(pk.vk) }

// Checks whether sig is a valid signature on msg.  An invalid signature
// yields false and no error; errors are returned for malformed input such
// as signatures from another instance or periods out of range.
func (pk *PublicKey) Verify(sig *SignedKES, msg []byte) (bool, Error) {
	if sig == nil {
		return false, errorf(ErrGeneric, "no signature given")
	}
	if sig.ctx != nil && sig.ctx.p != pk.ctx.p {
		return false, errorf(ErrGeneric, "signature is for %s, key is for %s",
			sig.ctx, pk.ctx)
	}
	err := pk.ctx.alg.Verify(pk.vk, sig.Period, msg, sig.Sig)
	if err == nil {
		return true, nil
	}
	if err.Kind() == ErrVerificationFailed {
		log.Logf("kes: signature for period %d rejected by %s: %v",
			sig.Period, fingerprint(pk.vk), err)
		return false, nil
	}
	return false, err
}

// Returns the raw verification key.
func (pk *PublicKey) MarshalBinary() ([]byte, error) {
	return cloneBytes(pk.vk), nil
}

// Decodes a raw verification key.
func (ctx *Context) PublicKeyFromBytes(buf []byte) (*PublicKey, Error) {
	vk := ctx.alg.VerificationKeyFromBytes(buf)
	if vk == nil {
		return nil, wrongLength("verification key", ctx.VerificationKeySize(), len(buf))
	}
	return &PublicKey{ctx: ctx, vk: vk}, nil
}

// Encodes the signature as an 8 byte big endian period followed by the
// raw signature.
func (sig *SignedKES) MarshalBinary() ([]byte, error) {
	raw := sig.Sig.Bytes()
	ret := make([]byte, 8+len(raw))
	encodeUint64Into(uint64(sig.Period), ret[:8])
	copy(ret[8:], raw)
	return ret, nil
}

// Decodes a signature encoded with SignedKES.MarshalBinary.
func (ctx *Context) SignedKESFromBytes(buf []byte) (*SignedKES, Error) {
	if len(buf) != 8+ctx.SignatureSize() {
		return nil, wrongLength("signature", 8+ctx.SignatureSize(), len(buf))
	}
	sig := ctx.alg.SignatureFromBytes(buf[8:])
	if sig == nil {
		return nil, errorf(ErrGeneric, "malformed signature")
	}
	return &SignedKES{
		ctx:    ctx,
		Period: Period(decodeUint64(buf[:8])),
		Sig:    sig,
	}, nil
}

// Returns the context of the signature.
func (sig *SignedKES) Context() *Context { return sig.ctx }
