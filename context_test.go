package kes

import (
	"testing"
)

func TestContextSizes(t *testing.T) {
	cases := []struct {
		name    string
		periods Period
		sig     int
		sk      int
		vk      int
	}{
		{"Sum0Kes", 1, 64, 32, 32},
		{"Sum1Kes", 2, 128, 128, 32},
		{"Sum6Kes", 64, 448, 608, 32},
		{"Sum7Kes", 128, 512, 704, 32},
		{"CompactSum0Kes", 1, 96, 32, 32},
		{"CompactSum6Kes", 64, 288, 608, 32},
		{"CompactSum7Kes", 128, 320, 704, 32},
		{"SumKES-ED448-BLAKE2B512_6", 64, 114 + 2*57 + 10*64,
			57 + (57 + 2*57) + 5*(57+2*64), 64},
		{"CompactSumKES-ECDSA_SECP256K1-BLAKE2B256_6", 64, 64 + 33 + 33 + 5*32,
			32 + 32 + 2*33 + 5*(32+64), 32},
	}
	for _, c := range cases {
		ctx := NewContextFromName(c.name)
		if ctx == nil {
			t.Fatalf("NewContextFromName(%s) failed", c.name)
		}
		if ctx.Name() != c.name || ctx.String() != c.name {
			t.Fatalf("%s: context is named %s", c.name, ctx.Name())
		}
		if ctx.TotalPeriods() != c.periods {
			t.Fatalf("%s: %d periods", c.name, ctx.TotalPeriods())
		}
		if ctx.SignatureSize() != c.sig {
			t.Fatalf("%s: signature has %d bytes", c.name, ctx.SignatureSize())
		}
		if ctx.SigningKeySize() != c.sk {
			t.Fatalf("%s: signing key has %d bytes", c.name, ctx.SigningKeySize())
		}
		if ctx.VerificationKeySize() != c.vk {
			t.Fatalf("%s: verification key has %d bytes", c.name, ctx.VerificationKeySize())
		}
	}
}

func TestNewContext(t *testing.T) {
	ctx, err := NewContext(Params{BaseEd25519, HashBlake3_256, 2, true})
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if ctx.Name() != "" || ctx.String() != "CompactSumKES-ED25519-BLAKE3_256_2" {
		t.Fatalf("unregistered context is named %q / %q", ctx.Name(), ctx.String())
	}

	ctx, err = NewContext(Params{BaseEd25519, HashBlake2b256, 6, false})
	if err != nil || ctx.Name() != "Sum6Kes" {
		t.Fatalf("registered params did not get their name: %v", err)
	}

	bad := []Params{
		{BaseEd25519, HashBlake2b256, MaxDepth + 1, false},
		{BaseFunc(17), HashBlake2b256, 1, false},
		{BaseEd25519, HashFunc(17), 1, false},
		{BaseEd448, HashBlake2b256, 1, false},
		{BaseEd448, HashBlake2b224, 1, true},
	}
	for _, p := range bad {
		if _, err := NewContext(p); !IsKind(err, ErrInvalidParams) {
			t.Fatalf("NewContext(%s): expected ErrInvalidParams, got %v", p, err)
		}
	}

	// The leaf alone needs no hash.
	if _, err := NewContext(Params{BaseEd448, HashBlake2b256, 0, false}); err != nil {
		t.Fatalf("NewContext(SingleKES-ED448): %v", err)
	}
}
