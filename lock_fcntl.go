//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package gamefs

import (
	"io"

	"golang.org/x/sys/unix"
)

// fder is implemented by host files backed by an OS descriptor.
type fder interface {
	Fd() uintptr
}

// lockFile takes a blocking advisory lock over the whole file: a write lock
// for files opened for writing, a read lock otherwise. Files without a
// descriptor, such as in-memory ones, are not locked.
func lockFile(f io.Closer, write bool) error {
	if write {
		return fcntlLock(f, unix.F_WRLCK)
	}
	return fcntlLock(f, unix.F_RDLCK)
}

func unlockFile(f io.Closer) error {
	return fcntlLock(f, unix.F_UNLCK)
}

func fcntlLock(f io.Closer, typ int16) error {
	d, ok := f.(fder)
	if !ok {
		return nil
	}
	lk := unix.Flock_t{Type: typ, Whence: io.SeekStart}
	return unix.FcntlFlock(d.Fd(), unix.F_SETLKW, &lk)
}
