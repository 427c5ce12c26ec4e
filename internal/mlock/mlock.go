// Package mlock hands out small byte buffers backed by anonymous memory
// mappings that are locked into RAM and excluded from core dumps.
//
// Small requests are carved out of shared pages (one slab per size class)
// so that many tiny secrets do not each pin a whole page against
// RLIMIT_MEMLOCK.  Requests above the largest class get a dedicated mapping.
package mlock

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/edsrzf/mmap-go"
	"github.com/hashicorp/go-multierror"
)

// ErrAllocation is returned when the kernel refuses to map memory.
var ErrAllocation = errors.New("mlock: allocation failed")

// LockError is returned when the memory could be mapped but not locked.
// The mapping is released before the error is returned.
type LockError struct {
	Code int   // errno reported by mlock, or -1 if unknown
	Err  error // underlying error
}

func (err *LockError) Error() string {
	return fmt.Sprintf("mlock: locking memory failed (code %d): %v",
		err.Code, err.Err)
}

func (err *LockError) Unwrap() error { return err.Err }

// Size classes of the slabs.  Must be powers of two.
var classSizes = []int{16, 32, 64, 128, 256, 512, 1024, 2048}

// A single locked page (or group of pages) split into equally sized slots.
type slab struct {
	mm    mmap.MMap
	size  int   // slot size
	free  []int // indices of free slots
	inUse int
}

// Buffer is a locked region handed out by an Allocator.
type Buffer struct {
	b    []byte
	slab *slab     // set for slab allocations
	slot int       // slot in slab
	mm   mmap.MMap // set for dedicated allocations
}

// Bytes returns the usable bytes of the buffer.  The slice is only valid
// until the buffer is freed.
func (buf *Buffer) Bytes() []byte { return buf.b }

// Len returns the requested length of the buffer.
func (buf *Buffer) Len() int { return len(buf.b) }

// Allocator of locked buffers.  Safe for concurrent use.
type Allocator struct {
	mux      sync.Mutex
	pageSize int
	slabs    [][]*slab // per size class

	// Hooks for the system calls; replaced in tests.
	mapFn    func(n int) (mmap.MMap, error)
	lockFn   func(mm mmap.MMap) error
	unlockFn func(mm mmap.MMap) error
}

// NewAllocator returns an allocator backed by the operating system.
func NewAllocator() *Allocator {
	return &Allocator{
		pageSize: os.Getpagesize(),
		slabs:    make([][]*slab, len(classSizes)),
		mapFn: func(n int) (mmap.MMap, error) {
			return mmap.MapRegion(nil, n, mmap.RDWR, mmap.ANON, 0)
		},
		lockFn:   func(mm mmap.MMap) error { return mm.Lock() },
		unlockFn: func(mm mmap.MMap) error { return mm.Unlock() },
	}
}

var defaultAllocator = NewAllocator()

// Alloc returns a zeroed locked buffer of n bytes from the default allocator.
func Alloc(n int) (*Buffer, error) {
	return defaultAllocator.Alloc(n)
}

// Free zeroes, unlocks and releases a buffer of the default allocator.
func Free(buf *Buffer) error {
	return defaultAllocator.Free(buf)
}

// Returns the index of the smallest size class that fits n, or -1.
func classFor(n int) int {
	for i, size := range classSizes {
		if n <= size {
			return i
		}
	}
	return -1
}

// Maps and locks a fresh region of n bytes, rounded up to whole pages.
func (a *Allocator) mapLocked(n int) (mmap.MMap, error) {
	n = ((n + a.pageSize - 1) / a.pageSize) * a.pageSize
	mm, err := a.mapFn(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocation, err)
	}
	if err := a.lockFn(mm); err != nil {
		code := -1
		var errno syscall.Errno
		if errors.As(err, &errno) {
			code = int(errno)
		}
		_ = mm.Unmap()
		return nil, &LockError{Code: code, Err: err}
	}
	dontDump(mm)
	return mm, nil
}

// Alloc returns a zeroed locked buffer of n bytes.  A zero-length request
// succeeds without touching the kernel.
func (a *Allocator) Alloc(n int) (*Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrAllocation, n)
	}
	if n == 0 {
		return &Buffer{b: []byte{}}, nil
	}

	class := classFor(n)
	if class == -1 {
		mm, err := a.mapLocked(n)
		if err != nil {
			return nil, err
		}
		return &Buffer{b: mm[:n:n], mm: mm}, nil
	}

	a.mux.Lock()
	defer a.mux.Unlock()

	var s *slab
	for _, candidate := range a.slabs[class] {
		if len(candidate.free) > 0 {
			s = candidate
			break
		}
	}
	if s == nil {
		size := classSizes[class]
		mm, err := a.mapLocked(size)
		if err != nil {
			return nil, err
		}
		s = &slab{mm: mm, size: size}
		for i := len(mm)/size - 1; i >= 0; i-- {
			s.free = append(s.free, i)
		}
		a.slabs[class] = append(a.slabs[class], s)
	}

	slot := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]
	s.inUse++
	off := slot * s.size
	return &Buffer{b: s.mm[off : off+n : off+n], slab: s, slot: slot}, nil
}

// Free zeroes the buffer and returns its memory.  Freeing a buffer twice
// is a no-op.
func (a *Allocator) Free(buf *Buffer) error {
	if buf == nil || buf.b == nil {
		return nil
	}
	var result *multierror.Error

	switch {
	case buf.mm != nil:
		zero(buf.mm)
		if err := a.unlockFn(buf.mm); err != nil {
			result = multierror.Append(result, err)
		}
		if err := buf.mm.Unmap(); err != nil {
			result = multierror.Append(result, err)
		}
		buf.mm = nil
	case buf.slab != nil:
		s := buf.slab
		off := buf.slot * s.size
		zero(s.mm[off : off+s.size])

		a.mux.Lock()
		s.free = append(s.free, buf.slot)
		s.inUse--
		if s.inUse == 0 {
			a.dropSlab(s)
			if err := a.unlockFn(s.mm); err != nil {
				result = multierror.Append(result, err)
			}
			if err := s.mm.Unmap(); err != nil {
				result = multierror.Append(result, err)
			}
		}
		a.mux.Unlock()
		buf.slab = nil
	}

	buf.b = nil
	return result.ErrorOrNil()
}

// Removes s from its class list.  Caller holds a.mux.
func (a *Allocator) dropSlab(s *slab) {
	class := classFor(s.size)
	list := a.slabs[class]
	for i, candidate := range list {
		if candidate == s {
			list[i] = list[len(list)-1]
			a.slabs[class] = list[:len(list)-1]
			return
		}
	}
}

// Number of slabs currently mapped.
func (a *Allocator) slabCount() (ret int) {
	a.mux.Lock()
	defer a.mux.Unlock()
	for _, list := range a.slabs {
		ret += len(list)
	}
	return
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
