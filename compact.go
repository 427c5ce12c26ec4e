package kes

import (
	"fmt"
)

// Algorithms whose signatures determine the verification key of the
// subtree that produced them: CompactSingleKES and CompactSumKES.
type compactAlgorithm interface {
	Algorithm

	// Recovers the verification key of the active subtree from sig.
	activeVerificationKey(sig Signature, period Period) (VerificationKey, Error)
}

// CompactSumKES is SumKES with smaller signatures: instead of both child
// verification keys, a signature carries only the key of the subtree that
// did not sign.  The other one is recovered from the child signature,
// bottoming out at the key embedded in a CompactSingleKES signature.
//
// Signing keys are laid out exactly as those of SumKES.
type CompactSumKES struct {
	SumKES
	cchild compactAlgorithm
}

type compactSumSignature struct {
	sig     Signature
	vkOther VerificationKey
}

func (s *compactSumSignature) Bytes() []byte {
	return concat(s.sig.Bytes(), s.vkOther)
}

// Returns the CompactSum composition of child, which must be a
// CompactSingleKES or CompactSumKES.
func NewCompactSum(child Algorithm, h HashAlgorithm) (*CompactSumKES, Error) {
	cchild, ok := child.(compactAlgorithm)
	if !ok {
		return nil, errorf(ErrInvalidParams,
			"%s cannot be the child of CompactSumKES", child.Name())
	}
	if err := checkComposition(child, h); err != nil {
		return nil, err
	}
	return &CompactSumKES{
		SumKES: SumKES{child: child, hash: h, t: child.TotalPeriods()},
		cchild: cchild,
	}, nil
}

func (a *CompactSumKES) Name() string {
	return fmt.Sprintf("CompactSumKES(%s,%s)", a.child.Name(), a.hash.Name())
}

func (a *CompactSumKES) SignatureSize() int {
	return a.child.SignatureSize() + a.child.VerificationKeySize()
}

func (a *CompactSumKES) Sign(period Period, msg []byte, sk SigningKey) (
	Signature, Error) {
	sig, key, err := a.childSign(period, msg, sk)
	if err != nil {
		return nil, err
	}
	vkOther := key.vk1
	if period >= a.t {
		vkOther = key.vk0
	}
	return &compactSumSignature{sig: sig, vkOther: vkOther}, nil
}

// Combines the active and inactive child verification keys in tree order.
func (a *CompactSumKES) combine(period Period, active,
	other VerificationKey) VerificationKey {
	if period < a.t {
		return a.hash.Hash(active, other)
	}
	return a.hash.Hash(other, active)
}

func (a *CompactSumKES) activeVerificationKey(sig Signature, period Period) (
	VerificationKey, Error) {
	s, ok := sig.(*compactSumSignature)
	if !ok || s == nil {
		return nil, errorf(ErrVerificationFailed, "not a %s signature", a.Name())
	}
	sub := period
	if sub >= a.t {
		sub -= a.t
	}
	active, err := a.cchild.activeVerificationKey(s.sig, sub)
	if err != nil {
		return nil, err
	}
	return a.combine(period, active, s.vkOther), nil
}

func (a *CompactSumKES) Verify(vk VerificationKey, period Period, msg []byte,
	sig Signature) Error {
	if period >= a.TotalPeriods() {
		return periodOutOfRange(period, a.TotalPeriods())
	}
	s, ok := sig.(*compactSumSignature)
	if !ok || s == nil {
		return errorf(ErrVerificationFailed, "not a %s signature", a.Name())
	}
	sub := period
	if sub >= a.t {
		sub -= a.t
	}
	active, err := a.cchild.activeVerificationKey(s.sig, sub)
	if err != nil {
		return err
	}
	if !equalKeys(a.combine(period, active, s.vkOther), vk) {
		return errorf(ErrVerificationFailed, "verification key mismatch")
	}
	return a.child.Verify(active, sub, msg, s.sig)
}

func (a *CompactSumKES) SignatureFromBytes(buf []byte) Signature {
	sig, vks := a.splitSignature(buf, 1)
	if sig == nil {
		return nil
	}
	return &compactSumSignature{sig: sig, vkOther: vks[0]}
}
