package gamefs

import (
	"os"

	"github.com/absfs/absfs"
)

// HostFS is the host filesystem the directory roots live on. Every
// absfs.FileSystem satisfies it, so an in-memory filesystem can stand in for
// the disk.
type HostFS interface {
	OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error)
	Mkdir(name string, perm os.FileMode) error
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
}

// Permissions used for everything this package creates.
const (
	dirPerm  os.FileMode = 0750
	filePerm os.FileMode = 0666
)

// osHost implements HostFS on the operating system's filesystem.
type osHost struct{}

// Ensure osHost implements HostFS at compile time
var _ HostFS = osHost{}

// OSHost returns the HostFS backed by the operating system.
func OSHost() HostFS {
	return osHost{}
}

// OpenFile implements HostFS
func (osHost) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		// never hand back a typed nil inside the interface
		return nil, err
	}
	return f, nil
}

// Mkdir implements HostFS
func (osHost) Mkdir(name string, perm os.FileMode) error {
	return os.Mkdir(name, perm)
}

// Remove implements HostFS
func (osHost) Remove(name string) error {
	return os.Remove(name)
}

// Rename implements HostFS
func (osHost) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// Stat implements HostFS
func (osHost) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}
