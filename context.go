package kes

// KES instance.
// Create one using NewContextFromName or NewContext.
type Context struct {
	p    Params    // parameters
	alg  Algorithm // root of the composition
	name string    // name in the registry, if any
}

// Return new context for the given algorithm name (and nil if the
// algorithm name is unknown).
func NewContextFromName(name string) *Context {
	params := ParamsFromName(name)
	if params == nil {
		return nil
	}
	ctx, _ := NewContext(*params)
	return ctx
}

// Creates a new context.
func NewContext(params Params) (*Context, Error) {
	if params.Depth > MaxDepth {
		return nil, errorf(ErrInvalidParams,
			"depth %d exceeds maximum of %d", params.Depth, MaxDepth)
	}
	base := params.Base.algorithm()
	if base == nil {
		return nil, errorf(ErrInvalidParams, "unknown base algorithm %s", params.Base)
	}
	h := params.Hash.algorithm()
	if h == nil {
		return nil, errorf(ErrInvalidParams, "unknown hash function %s", params.Hash)
	}

	var alg Algorithm
	if params.Compact {
		alg = NewCompactSingle(base)
	} else {
		alg = NewSingle(base)
	}
	for i := uint8(0); i < params.Depth; i++ {
		var err Error
		if params.Compact {
			alg, err = newCompactSumAlgorithm(alg, h)
		} else {
			alg, err = newSumAlgorithm(alg, h)
		}
		if err != nil {
			return nil, err
		}
	}

	ctx := &Context{p: params, alg: alg}
	if entry, ok := registryParamsLut[params]; ok {
		ctx.name = entry.name
	}
	return ctx, nil
}

// Wrappers that avoid storing a typed nil pointer in an Algorithm.
func newSumAlgorithm(child Algorithm, h HashAlgorithm) (Algorithm, Error) {
	ret, err := NewSum(child, h)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func newCompactSumAlgorithm(child Algorithm, h HashAlgorithm) (Algorithm, Error) {
	ret, err := NewCompactSum(child, h)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Returns the name of the KES instance and an empty string if it has
// no name.
func (ctx *Context) Name() string { return ctx.name }

// Returns the name if there is one and the canonical description of the
// parameters otherwise.
func (ctx *Context) String() string {
	if ctx.name != "" {
		return ctx.name
	}
	return ctx.p.String()
}

// Returns the parameters of this instance.
func (ctx *Context) Params() Params { return ctx.p }

// Returns the composed KES algorithm.
func (ctx *Context) Algorithm() Algorithm { return ctx.alg }

// Number of periods a key can sign for.
func (ctx *Context) TotalPeriods() Period { return ctx.alg.TotalPeriods() }

// Size of the seed of a key pair.
func (ctx *Context) SeedSize() int { return ctx.alg.SeedSize() }

// Size of a raw encoded signing key.
func (ctx *Context) SigningKeySize() int { return ctx.alg.SigningKeySize() }

// Size of a verification key.
func (ctx *Context) VerificationKeySize() int { return ctx.alg.VerificationKeySize() }

// Size of a signature, without the period prefix of SignedKES.
func (ctx *Context) SignatureSize() int { return ctx.alg.SignatureSize() }
