package kes

import (
	"testing"
)

func TestParamsString(t *testing.T) {
	cases := []struct {
		params Params
		expect string
	}{
		{Params{BaseEd25519, HashBlake2b256, 6, false}, "SumKES-ED25519-BLAKE2B256_6"},
		{Params{BaseEd448, HashBlake2b512, 3, true}, "CompactSumKES-ED448-BLAKE2B512_3"},
		{Params{BaseEd25519, HashBlake2b256, 0, false}, "SingleKES-ED25519"},
		{Params{BaseECDSASecp256k1, HashSHA3_256, 0, true}, "CompactSingleKES-ECDSA_SECP256K1"},
	}
	for _, c := range cases {
		if c.params.String() != c.expect {
			t.Fatalf("%s != %s", c.params.String(), c.expect)
		}
	}
}

func TestParamsFromName(t *testing.T) {
	p := ParamsFromName("Sum6Kes")
	if p == nil {
		t.Fatalf("Sum6Kes not in registry")
	}
	if *p != (Params{BaseEd25519, HashBlake2b256, 6, false}) {
		t.Fatalf("Sum6Kes has params %s", p)
	}
	p = ParamsFromName("CompactSum7Kes")
	if p == nil || !p.Compact || p.Depth != 7 {
		t.Fatalf("CompactSum7Kes has wrong params")
	}
	if ParamsFromName("Sum8Kes") != nil {
		t.Fatalf("unknown name resolved")
	}
}

func TestListNames(t *testing.T) {
	names := ListNames()
	if len(names) != len(registry) {
		t.Fatalf("ListNames returned %d names", len(names))
	}
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			t.Fatalf("%s listed twice", name)
		}
		seen[name] = true
		if ParamsFromName(name) == nil {
			t.Fatalf("%s listed but not found", name)
		}
	}
}
