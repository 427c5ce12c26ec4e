package kes

import (
	"bytes"
	"testing"
)

func TestCompactSumSizes(t *testing.T) {
	prev := testTower(0, true, t)
	for depth := 1; depth <= 7; depth++ {
		alg := testTower(depth, true, t)
		sum := testTower(depth, false, t)
		if alg.SignatureSize() != prev.SignatureSize()+prev.VerificationKeySize() {
			t.Fatalf("CompactSum%d: signature size %d does not follow recursion",
				depth, alg.SignatureSize())
		}
		// The compact leaf carries its vk, cancelling the first level's saving.
		if depth == 1 && alg.SignatureSize() != sum.SignatureSize() {
			t.Fatalf("CompactSum1 and Sum1 signatures differ in size")
		}
		if depth > 1 && alg.SignatureSize() >= sum.SignatureSize() {
			t.Fatalf("CompactSum%d signature is not smaller than Sum%d", depth, depth)
		}
		if alg.VerificationKeySize() != sum.VerificationKeySize() ||
			alg.SigningKeySize() != sum.SigningKeySize() ||
			alg.TotalPeriods() != sum.TotalPeriods() {
			t.Fatalf("CompactSum%d and Sum%d differ in key sizes or periods",
				depth, depth)
		}
		prev = alg
	}
	if testTower(6, true, t).SignatureSize() != 288 {
		t.Fatalf("CompactSum6 signature is not 288 bytes")
	}
}

func TestNewCompactSumInvalidChild(t *testing.T) {
	if _, err := NewCompactSum(NewSingle(Ed25519), Blake2b256); !IsKind(err, ErrInvalidParams) {
		t.Fatalf("CompactSum over SingleKES: expected ErrInvalidParams, got %v", err)
	}
	sum, _ := NewSum(NewSingle(Ed25519), Blake2b256)
	if _, err := NewCompactSum(sum, Blake2b256); !IsKind(err, ErrInvalidParams) {
		t.Fatalf("CompactSum over SumKES: expected ErrInvalidParams, got %v", err)
	}
}

func TestCompactSumSignVerify(t *testing.T) {
	for depth := 1; depth <= 3; depth++ {
		testSignVerifyAllPeriods(testTower(depth, true, t), t)
	}
	ed448, err := NewCompactSum(NewCompactSingle(Ed448), Blake2b512)
	if err != nil {
		t.Fatalf("NewCompactSum: %v", err)
	}
	testSignVerifyAllPeriods(ed448, t)
}

func TestCompactSumSerialization(t *testing.T) {
	for depth := 0; depth <= 3; depth++ {
		testSerialization(testTower(depth, true, t), t)
	}
}

// Compact and plain towers from the same seed share keys and verification
// keys; only the signature layout differs.
func TestCompactSumMatchesSum(t *testing.T) {
	seed := testSeed(0x21, 32)
	sum := testTower(3, false, t)
	compact := testTower(3, true, t)

	skSum, _ := sum.GenerateKey(seed)
	defer sum.Forget(skSum)
	skCompact, _ := compact.GenerateKey(seed)
	defer compact.Forget(skCompact)

	vkSum, _ := sum.DeriveVerificationKey(skSum)
	vkCompact, _ := compact.DeriveVerificationKey(skCompact)
	if !bytes.Equal(vkSum, vkCompact) {
		t.Fatalf("Sum3 and CompactSum3 verification keys differ")
	}
	rawSum, _ := sum.SigningKeyToBytes(skSum)
	rawCompact, _ := compact.SigningKeyToBytes(skCompact)
	if !bytes.Equal(rawSum, rawCompact) {
		t.Fatalf("Sum3 and CompactSum3 signing keys differ")
	}

	msg := []byte("msg")
	sigSum, _ := sum.Sign(5, msg, skSum)
	sigCompact, _ := compact.Sign(5, msg, skCompact)
	if !bytes.Equal(sigSum.Bytes()[:64], sigCompact.Bytes()[:64]) {
		t.Fatalf("leaf signatures differ")
	}
}

func TestCompactSumTampering(t *testing.T) {
	alg := testTower(3, true, t)
	sk, _ := alg.GenerateKey(testSeed(0x22, 32))
	defer alg.Forget(sk)
	vk, _ := alg.DeriveVerificationKey(sk)
	msg := []byte("msg")
	sig, _ := alg.Sign(6, msg, sk)
	raw := sig.Bytes()

	for off := 0; off < len(raw); off += 17 {
		bad := cloneBytes(raw)
		bad[off] ^= 0x80
		tampered := alg.SignatureFromBytes(bad)
		if tampered == nil {
			t.Fatalf("SignatureFromBytes rejected well-sized buffer")
		}
		if err := alg.Verify(vk, 6, msg, tampered); !IsKind(err, ErrVerificationFailed) {
			t.Fatalf("tampered byte %d: expected ErrVerificationFailed, got %v", off, err)
		}
	}
	if err := alg.Verify(vk, 2, msg, sig); !IsKind(err, ErrVerificationFailed) {
		t.Fatalf("signature for period 6 accepted at period 2: %v", err)
	}
}
