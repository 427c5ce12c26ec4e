package kes

import (
	"crypto/rand"
	"errors"

	"github.com/bwesterb/go-kes/internal/mlock"
)

// SecureBuffer holds secret bytes in memory that is locked into RAM,
// excluded from core dumps and zeroed when the buffer is finalized.
//
// A SecureBuffer has exactly one owner, which must call Finalize when done
// with it, typically using defer.  There is no implicit copying: use
// TryClone to get an independent copy.
type SecureBuffer struct {
	buf       *mlock.Buffer
	finalized bool
}

// Source of locked memory; replaced in tests.
var secureAlloc = mlock.Alloc

// Allocates a locked buffer of n bytes.  Never falls back to unlocked
// memory: if the memory cannot be locked an ErrLockFailed error is returned.
func NewSecureBuffer(n int) (*SecureBuffer, Error) {
	buf, err := secureAlloc(n)
	if err != nil {
		var lockErr *mlock.LockError
		if errors.As(err, &lockErr) {
			metricSecureFailedLocks.Inc()
			ret := wrapErrorf(err, ErrLockFailed,
				"could not lock %d bytes of secure memory", n)
			ret.code = lockErr.Code
			return nil, ret
		}
		return nil, wrapErrorf(err, ErrAllocationFailed,
			"could not allocate %d bytes of secure memory", n)
	}
	metricSecureAllocations.Inc()
	metricSecureAllocationBytes.Add(float64(n))
	return &SecureBuffer{buf: buf}, nil
}

// Like NewSecureBuffer, but guarantees the contents are zero.
func NewZeroedSecureBuffer(n int) (*SecureBuffer, Error) {
	ret, err := NewSecureBuffer(n)
	if err != nil {
		return nil, err
	}
	zeroBytes(ret.Bytes())
	return ret, nil
}

// Allocates a secure buffer and copies src into it.  src is left untouched.
func NewSecureBufferFrom(src []byte) (*SecureBuffer, Error) {
	ret, err := NewSecureBuffer(len(src))
	if err != nil {
		return nil, err
	}
	copy(ret.Bytes(), src)
	return ret, nil
}

// Allocates a secure buffer of n bytes filled from crypto/rand.
func NewRandomSecureBuffer(n int) (*SecureBuffer, Error) {
	ret, err := NewSecureBuffer(n)
	if err != nil {
		return nil, err
	}
	if _, err2 := rand.Read(ret.Bytes()); err2 != nil {
		ret.Finalize()
		return nil, wrapErrorf(err2, ErrGeneric, "crypto/rand failed")
	}
	return ret, nil
}

// Returns the contents of the buffer.  The slice must not be retained past
// Finalize.  Returns nil once the buffer is finalized.
func (sb *SecureBuffer) Bytes() []byte {
	if sb == nil || sb.finalized {
		return nil
	}
	return sb.buf.Bytes()
}

// Length of the buffer.
func (sb *SecureBuffer) Len() int {
	return len(sb.Bytes())
}

// Finalized reports whether Finalize has been called.
func (sb *SecureBuffer) Finalized() bool {
	return sb == nil || sb.finalized
}

// Returns an independent deep copy in freshly allocated secure memory.
func (sb *SecureBuffer) TryClone() (*SecureBuffer, Error) {
	if sb.Finalized() {
		return nil, errorf(ErrGeneric, "cannot clone a finalized SecureBuffer")
	}
	return NewSecureBufferFrom(sb.Bytes())
}

// Zeroes, unlocks and releases the buffer.  Only the first call has effect.
func (sb *SecureBuffer) Finalize() Error {
	if sb == nil || sb.finalized {
		return nil
	}
	sb.finalized = true
	metricSecureZeroizations.Inc()
	if err := mlock.Free(sb.buf); err != nil {
		return wrapErrorf(err, ErrGeneric, "releasing secure memory")
	}
	return nil
}
