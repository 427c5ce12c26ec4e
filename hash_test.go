package kes

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func testHashEmpty(h HashAlgorithm, expect string, t *testing.T) {
	val := hex.EncodeToString(h.Hash())
	if val != expect {
		t.Fatalf("%s(\"\") is %s instead of %s", h.Name(), val, expect)
	}
	if len(h.Hash()) != h.Size() {
		t.Fatalf("%s: digest has %d bytes, Size() is %d",
			h.Name(), len(h.Hash()), h.Size())
	}
}

func TestHashKnownAnswers(t *testing.T) {
	testHashEmpty(Blake2b224, "836cc68931c2e4e3e838602eca1902591d216837bafddfe6f0c8cb07", t)
	testHashEmpty(Blake2b256, "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8", t)
	testHashEmpty(Blake2b512, "786a02f742015903c6c6fd852552d272912f4740e15847618a86e217f71f5419d25e1031afee585313896444934eb04b903a685b1448b755d56f701afe9be2ce", t)
	testHashEmpty(SHA3_256, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", t)
	testHashEmpty(Blake3_256, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", t)
}

func TestHashConcat(t *testing.T) {
	for _, h := range []HashAlgorithm{Blake2b224, Blake2b256, Blake2b512,
		SHA3_256, Blake3_256} {
		a := h.Hash([]byte("verification"), []byte(" "), []byte("key"))
		b := h.Hash([]byte("verification key"))
		if !bytes.Equal(a, b) {
			t.Fatalf("%s: Hash of parts differs from hash of concatenation", h.Name())
		}
	}
}

func TestExpandSeed(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 32)
	r0, r1, err := ExpandSeed(Blake2b256, seed, 32)
	if err != nil {
		t.Fatalf("ExpandSeed: %v", err)
	}
	defer r0.Finalize()
	defer r1.Finalize()

	if !bytes.Equal(r0.Bytes(), Blake2b256.Hash([]byte{1}, seed)) {
		t.Fatalf("r0 is not H(0x01 || seed)")
	}
	if !bytes.Equal(r1.Bytes(), Blake2b256.Hash([]byte{2}, seed)) {
		t.Fatalf("r1 is not H(0x02 || seed)")
	}

	// Truncation to the child seed size.
	s0, s1, err := ExpandSeed(Blake2b512, seed, 32)
	if err != nil {
		t.Fatalf("ExpandSeed: %v", err)
	}
	defer s0.Finalize()
	defer s1.Finalize()
	if s0.Len() != 32 || s1.Len() != 32 {
		t.Fatalf("ExpandSeed returned %d and %d bytes", s0.Len(), s1.Len())
	}
	if !bytes.Equal(s0.Bytes(), Blake2b512.Hash([]byte{1}, seed)[:32]) {
		t.Fatalf("r0 is not a prefix of H(0x01 || seed)")
	}
}

func TestExpandSeedTooShort(t *testing.T) {
	_, _, err := ExpandSeed(Blake2b256, make([]byte, 57), 57)
	if !IsKind(err, ErrInvalidParams) {
		t.Fatalf("ExpandSeed with short hash: expected ErrInvalidParams, got %v", err)
	}
}

func TestHashVerificationKey(t *testing.T) {
	vk := VerificationKey(mustHex(rfc8032Pk))
	digest := HashVerificationKey(Blake2b224, vk)
	if len(digest) != 28 || !bytes.Equal(digest, Blake2b224.Hash(vk)) {
		t.Fatalf("HashVerificationKey: %x", digest)
	}
}
