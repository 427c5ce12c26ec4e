package kes

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	inner := periodOutOfRange(7, 4)
	outer := wrapErrorf(inner, ErrBase, "child failed")
	if !IsKind(outer, ErrBase) || !IsKind(outer, ErrPeriodOutOfRange) {
		t.Fatalf("IsKind does not look through wrapped errors")
	}
	if IsKind(outer, ErrKeyExpired) || IsKind(nil, ErrGeneric) {
		t.Fatalf("IsKind reports kinds that are not there")
	}
	if !errors.Is(outer, inner) {
		t.Fatalf("errors.Is does not unwrap Error")
	}

	period, max, ok := OutOfRangePeriods(fmt.Errorf("context: %w", outer))
	if !ok || period != 7 || max != 4 {
		t.Fatalf("OutOfRangePeriods: %d, %d, %v", period, max, ok)
	}
	if _, _, ok := OutOfRangePeriods(errConsumed); ok {
		t.Fatalf("OutOfRangePeriods on unrelated error")
	}
	if _, ok := LockErrorCode(inner); ok {
		t.Fatalf("LockErrorCode on unrelated error")
	}
	if ErrKeyExpired.String() == ErrKeyConsumed.String() {
		t.Fatalf("error kinds share a name")
	}
}

func TestEncodeUint64(t *testing.T) {
	buf := make([]byte, 8)
	encodeUint64Into(0x0102030405060708, buf)
	if fmt.Sprintf("%x", buf) != "0102030405060708" {
		t.Fatalf("encodeUint64Into: %x", buf)
	}
	if decodeUint64(buf) != 0x0102030405060708 {
		t.Fatalf("decodeUint64: %x", decodeUint64(buf))
	}
}

func TestFingerprint(t *testing.T) {
	a := fingerprint([]byte("a"))
	if len(a) != 16 || a == fingerprint([]byte("b")) {
		t.Fatalf("fingerprint: %s", a)
	}
}
