package kes

import (
	"fmt"
)

// Base signature algorithm at the leaves.
type BaseFunc uint8

const (
	BaseEd25519 BaseFunc = iota
	BaseEd448
	BaseECDSASecp256k1
)

// Hash function used to expand seeds and combine verification keys.
type HashFunc uint8

const (
	HashBlake2b256 HashFunc = iota
	HashBlake2b224
	HashBlake2b512
	HashSHA3_256
	HashBlake3_256
)

func (b BaseFunc) String() string {
	switch b {
	case BaseEd25519:
		return "ED25519"
	case BaseEd448:
		return "ED448"
	case BaseECDSASecp256k1:
		return "ECDSA_SECP256K1"
	}
	return fmt.Sprintf("BaseFunc(%d)", uint8(b))
}

func (b BaseFunc) algorithm() BaseAlgorithm {
	switch b {
	case BaseEd25519:
		return Ed25519
	case BaseEd448:
		return Ed448
	case BaseECDSASecp256k1:
		return ECDSASecp256k1
	}
	return nil
}

func (h HashFunc) String() string {
	switch h {
	case HashBlake2b224:
		return "BLAKE2B224"
	case HashBlake2b256:
		return "BLAKE2B256"
	case HashBlake2b512:
		return "BLAKE2B512"
	case HashSHA3_256:
		return "SHA3_256"
	case HashBlake3_256:
		return "BLAKE3_256"
	}
	return fmt.Sprintf("HashFunc(%d)", uint8(h))
}

func (h HashFunc) algorithm() HashAlgorithm {
	switch h {
	case HashBlake2b224:
		return Blake2b224
	case HashBlake2b256:
		return Blake2b256
	case HashBlake2b512:
		return Blake2b512
	case HashSHA3_256:
		return SHA3_256
	case HashBlake3_256:
		return Blake3_256
	}
	return nil
}

// Maximum supported Depth.
const MaxDepth = 32

// Parameters of a KES instance: Depth levels of Sum (or CompactSum)
// composition over a SingleKES (or CompactSingleKES) leaf.
type Params struct {
	Base    BaseFunc // signature scheme at the leaves
	Hash    HashFunc // which hash function to use
	Depth   uint8    // number of compositions; 2^Depth periods
	Compact bool     // CompactSum instead of Sum
}

// Canonical name of the parameters, eg. SumKES-ED25519-BLAKE2B256_6.
func (p Params) String() string {
	if p.Depth == 0 {
		if p.Compact {
			return fmt.Sprintf("CompactSingleKES-%s", p.Base)
		}
		return fmt.Sprintf("SingleKES-%s", p.Base)
	}
	kind := "SumKES"
	if p.Compact {
		kind = "CompactSumKES"
	}
	return fmt.Sprintf("%s-%s-%s_%d", kind, p.Base, p.Hash, p.Depth)
}

// Entry in the registry of algorithms
type regEntry struct {
	name   string // name, eg. Sum6Kes
	params Params // parameters of the algorithm
}

// Registry of named KES instances.  The SumNKes and CompactSumNKes entries
// are the ones used by Cardano.
var registry []regEntry = []regEntry{
	{"Sum0Kes", Params{BaseEd25519, HashBlake2b256, 0, false}},
	{"Sum1Kes", Params{BaseEd25519, HashBlake2b256, 1, false}},
	{"Sum2Kes", Params{BaseEd25519, HashBlake2b256, 2, false}},
	{"Sum3Kes", Params{BaseEd25519, HashBlake2b256, 3, false}},
	{"Sum4Kes", Params{BaseEd25519, HashBlake2b256, 4, false}},
	{"Sum5Kes", Params{BaseEd25519, HashBlake2b256, 5, false}},
	{"Sum6Kes", Params{BaseEd25519, HashBlake2b256, 6, false}},
	{"Sum7Kes", Params{BaseEd25519, HashBlake2b256, 7, false}},

	{"CompactSum0Kes", Params{BaseEd25519, HashBlake2b256, 0, true}},
	{"CompactSum1Kes", Params{BaseEd25519, HashBlake2b256, 1, true}},
	{"CompactSum2Kes", Params{BaseEd25519, HashBlake2b256, 2, true}},
	{"CompactSum3Kes", Params{BaseEd25519, HashBlake2b256, 3, true}},
	{"CompactSum4Kes", Params{BaseEd25519, HashBlake2b256, 4, true}},
	{"CompactSum5Kes", Params{BaseEd25519, HashBlake2b256, 5, true}},
	{"CompactSum6Kes", Params{BaseEd25519, HashBlake2b256, 6, true}},
	{"CompactSum7Kes", Params{BaseEd25519, HashBlake2b256, 7, true}},

	{"SumKES-ED25519-SHA3_256_6",
		Params{BaseEd25519, HashSHA3_256, 6, false}},
	{"SumKES-ED25519-BLAKE3_256_6",
		Params{BaseEd25519, HashBlake3_256, 6, false}},
	{"SumKES-ED448-BLAKE2B512_6",
		Params{BaseEd448, HashBlake2b512, 6, false}},
	{"CompactSumKES-ED448-BLAKE2B512_6",
		Params{BaseEd448, HashBlake2b512, 6, true}},
	{"SumKES-ECDSA_SECP256K1-BLAKE2B256_6",
		Params{BaseECDSASecp256k1, HashBlake2b256, 6, false}},
	{"CompactSumKES-ECDSA_SECP256K1-BLAKE2B256_6",
		Params{BaseECDSASecp256k1, HashBlake2b256, 6, true}},
}

var registryNameLut map[string]regEntry
var registryParamsLut map[Params]regEntry

// Initializes algorithm lookup tables.
func init() {
	registryNameLut = make(map[string]regEntry)
	registryParamsLut = make(map[Params]regEntry)
	for _, entry := range registry {
		registryNameLut[entry.name] = entry
		registryParamsLut[entry.params] = entry
	}
}

// Returns parameters for the named KES instance (and nil if there is no
// such algorithm).
func ParamsFromName(name string) *Params {
	entry, ok := registryNameLut[name]
	if !ok {
		return nil
	}
	return &entry.params
}

// List all named KES instances
func ListNames() (names []string) {
	names = make([]string, len(registry))
	for i, entry := range registry {
		names[i] = entry.name
	}
	return
}
