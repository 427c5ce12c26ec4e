package kes

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/bwesterb/byteswriter"
	"github.com/nightlyone/lockfile"
)

// Magic bytes at the start of a key container file.
var containerMagic = []byte("KES\x01")

// Length of the header: magic and the four Params fields.
const containerHeaderSize = 8

// FSKeyContainer stores an evolving private key in the filesystem so that
// a signer can evolve it across restarts.  It is backed by two files:
//
//	path/to/key        parameters, current period and raw signing key
//	path/to/key.lock   a lockfile
//
// The key file is replaced atomically on every Store.  It holds secret key
// material; it is created with mode 0600.
type FSKeyContainer struct {
	flock lockfile.Lockfile // file lock
	path  string            // absolute path of the key file
}

// Opens (and locks) the key container at path.  Returns an ErrLocked error
// if another process holds the container.
func OpenFSKeyContainer(path string) (*FSKeyContainer, Error) {
	var ctr FSKeyContainer
	var err error

	ctr.path, err = filepath.Abs(path)
	if err != nil {
		return nil, wrapErrorf(err, ErrIO, "Could not turn %s into an absolute path", path)
	}

	lockFilePath := ctr.path + ".lock"
	ctr.flock, err = lockfile.New(lockFilePath)
	if err != nil {
		return nil, wrapErrorf(err, ErrIO, "Failed to create lockfile %s", lockFilePath)
	}

	err = ctr.flock.TryLock()
	if _, ok := err.(interface {
		Temporary() bool
	}); ok {
		return nil, wrapErrorf(err, ErrLocked, "%s is locked", path)
	}
	if err != nil {
		return nil, wrapErrorf(err, ErrIO, "Failed to lock %s", lockFilePath)
	}

	return &ctr, nil
}

// Returns whether the key file exists.
func (ctr *FSKeyContainer) Initialized() bool {
	_, err := os.Stat(ctr.path)
	return err == nil
}

// Writes sk to the container, replacing the previous key.
func (ctr *FSKeyContainer) Store(sk *PrivateKey) Error {
	body, err := sk.MarshalBinary()
	if err != nil {
		return wrapErrorf(err, ErrGeneric, "Could not encode private key")
	}
	defer zeroBytes(body)

	p := sk.Context().Params()
	buf := make([]byte, containerHeaderSize+len(body))
	defer zeroBytes(buf)
	w := byteswriter.NewWriter(buf)
	w.Write(containerMagic)
	compact := byte(0)
	if p.Compact {
		compact = 1
	}
	w.Write([]byte{byte(p.Base), byte(p.Hash), p.Depth, compact})
	w.Write(body)

	tmpPath := ctr.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return wrapErrorf(err, ErrIO, "Could not create %s", tmpPath)
	}
	if _, err = f.Write(buf); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return wrapErrorf(err, ErrIO, "Could not write %s", tmpPath)
	}
	if err = os.Rename(tmpPath, ctr.path); err != nil {
		os.Remove(tmpPath)
		return wrapErrorf(err, ErrIO, "Could not move %s into place", tmpPath)
	}
	log.Logf("kes: stored %s key at period %d in %s",
		sk.Context(), sk.Period(), ctr.path)
	return nil
}

// Reads the private key from the container.
func (ctr *FSKeyContainer) Load() (*PrivateKey, Error) {
	buf, err := os.ReadFile(ctr.path)
	if err != nil {
		return nil, wrapErrorf(err, ErrIO, "Could not read %s", ctr.path)
	}
	defer zeroBytes(buf)

	if len(buf) < containerHeaderSize || !bytes.Equal(buf[:4], containerMagic) {
		return nil, errorf(ErrGeneric, "%s is not a KES key container", ctr.path)
	}
	if buf[7] > 1 {
		return nil, errorf(ErrGeneric, "%s has a malformed header", ctr.path)
	}
	params := Params{
		Base:    BaseFunc(buf[4]),
		Hash:    HashFunc(buf[5]),
		Depth:   buf[6],
		Compact: buf[7] == 1,
	}
	ctx, kerr := NewContext(params)
	if kerr != nil {
		return nil, kerr
	}
	return ctx.PrivateKeyFromBytes(buf[containerHeaderSize:])
}

// Releases the lock on the container.
func (ctr *FSKeyContainer) Close() Error {
	if err := ctr.flock.Unlock(); err != nil {
		return wrapErrorf(err, ErrIO, "Could not release lock on %s", ctr.path)
	}
	return nil
}
