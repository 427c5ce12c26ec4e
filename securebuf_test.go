package kes

import (
	"bytes"
	"fmt"
	"syscall"
	"testing"

	"github.com/bwesterb/go-kes/internal/mlock"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSecureBuffer(t *testing.T) {
	allocs := testutil.ToFloat64(metricSecureAllocations)
	zeroized := testutil.ToFloat64(metricSecureZeroizations)

	sb, err := NewZeroedSecureBuffer(48)
	if err != nil {
		t.Fatalf("NewZeroedSecureBuffer: %v", err)
	}
	if sb.Len() != 48 || !isZero(sb.Bytes()) {
		t.Fatalf("buffer is not 48 zero bytes")
	}
	copy(sb.Bytes(), []byte("secret"))

	clone, err := sb.TryClone()
	if err != nil {
		t.Fatalf("TryClone: %v", err)
	}
	if !bytes.Equal(clone.Bytes(), sb.Bytes()) {
		t.Fatalf("clone differs from original")
	}
	clone.Bytes()[0] = 'S'
	if sb.Bytes()[0] != 's' {
		t.Fatalf("clone shares memory with original")
	}

	if err := sb.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !sb.Finalized() || sb.Bytes() != nil || sb.Len() != 0 {
		t.Fatalf("finalized buffer still exposes its contents")
	}
	if err := sb.Finalize(); err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
	if _, err := sb.TryClone(); err == nil {
		t.Fatalf("cloned a finalized buffer")
	}
	clone.Finalize()

	if got := testutil.ToFloat64(metricSecureAllocations) - allocs; got != 2 {
		t.Fatalf("%v allocations counted instead of 2", got)
	}
	if got := testutil.ToFloat64(metricSecureZeroizations) - zeroized; got != 2 {
		t.Fatalf("%v zeroizations counted instead of 2", got)
	}
}

func TestSecureBufferFrom(t *testing.T) {
	src := []byte("0123456789abcdef0123456789abcdef")
	sb, err := NewSecureBufferFrom(src)
	if err != nil {
		t.Fatalf("NewSecureBufferFrom: %v", err)
	}
	defer sb.Finalize()
	if !bytes.Equal(sb.Bytes(), src) {
		t.Fatalf("contents differ from source")
	}
	sb.Bytes()[0] = 'x'
	if src[0] != '0' {
		t.Fatalf("source was modified")
	}
}

func TestRandomSecureBuffer(t *testing.T) {
	a, err := NewRandomSecureBuffer(32)
	if err != nil {
		t.Fatalf("NewRandomSecureBuffer: %v", err)
	}
	defer a.Finalize()
	b, err := NewRandomSecureBuffer(32)
	if err != nil {
		t.Fatalf("NewRandomSecureBuffer: %v", err)
	}
	defer b.Finalize()
	if bytes.Equal(a.Bytes(), b.Bytes()) || isZero(a.Bytes()) {
		t.Fatalf("random buffers are not random")
	}
}

func TestSecureBufferNil(t *testing.T) {
	var sb *SecureBuffer
	if err := sb.Finalize(); err != nil {
		t.Fatalf("Finalize on nil: %v", err)
	}
	if !sb.Finalized() || sb.Len() != 0 {
		t.Fatalf("nil buffer is not empty and finalized")
	}
}

func TestSecureBufferEmpty(t *testing.T) {
	sb, err := NewSecureBuffer(0)
	if err != nil {
		t.Fatalf("NewSecureBuffer(0): %v", err)
	}
	if sb.Len() != 0 {
		t.Fatalf("empty buffer has length %d", sb.Len())
	}
	if err := sb.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

func testFailingAlloc(err error, t *testing.T) {
	secureAlloc = func(n int) (*mlock.Buffer, error) { return nil, err }
	t.Cleanup(func() { secureAlloc = mlock.Alloc })
}

func TestSecureBufferLockFailure(t *testing.T) {
	failed := testutil.ToFloat64(metricSecureFailedLocks)
	testFailingAlloc(&mlock.LockError{
		Code: int(syscall.ENOMEM),
		Err:  syscall.ENOMEM,
	}, t)

	sb, err := NewSecureBuffer(32)
	if sb != nil {
		t.Fatalf("got a buffer despite the lock failure")
	}
	if !IsKind(err, ErrLockFailed) {
		t.Fatalf("expected ErrLockFailed, got %v", err)
	}
	code, ok := LockErrorCode(err)
	if !ok || code != int(syscall.ENOMEM) {
		t.Fatalf("LockErrorCode: %d, %v", code, ok)
	}
	if testutil.ToFloat64(metricSecureFailedLocks)-failed != 1 {
		t.Fatalf("failed lock not counted")
	}

	// Failures propagate through key generation.
	if _, _, err := NewContextFromName("Sum2Kes").Derive(testSeed(1, 32)); !IsKind(err, ErrLockFailed) {
		t.Fatalf("Derive: expected ErrLockFailed, got %v", err)
	}
}

func TestSecureBufferAllocationFailure(t *testing.T) {
	failed := testutil.ToFloat64(metricSecureFailedLocks)
	testFailingAlloc(fmt.Errorf("%w: out of address space", mlock.ErrAllocation), t)

	sb, err := NewRandomSecureBuffer(32)
	if sb != nil {
		t.Fatalf("got a buffer despite the allocation failure")
	}
	if !IsKind(err, ErrAllocationFailed) || IsKind(err, ErrLockFailed) {
		t.Fatalf("expected ErrAllocationFailed, got %v", err)
	}
	if _, ok := LockErrorCode(err); ok {
		t.Fatalf("allocation failure carries a lock error code")
	}
	if testutil.ToFloat64(metricSecureFailedLocks) != failed {
		t.Fatalf("allocation failure counted as failed lock")
	}
}
