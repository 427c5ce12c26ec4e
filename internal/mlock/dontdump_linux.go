//go:build linux

package mlock

import "golang.org/x/sys/unix"

// Keeps the region out of core dumps.  Failure is not fatal: the memory is
// locked either way.
func dontDump(b []byte) {
	_ = unix.Madvise(b, unix.MADV_DONTDUMP)
}
