package gamefs

import (
	"errors"
	"io"
	"io/fs"
	"path"
	"time"
)

// contentFS is a read-only io/fs view of the resolved content. Every Open
// goes through the resolver, so restricted mode and the lookup cache apply.
type contentFS struct {
	gfs *GameFS
}

var (
	_ fs.FS         = contentFS{}
	_ fs.ReadFileFS = contentFS{}
)

// ContentFS returns an fs.FS view of this GameFS. Files are resolved the
// same way OpenRead resolves them; directories are not exposed.
//
// Example:
//
//	data, err := fs.ReadFile(gfs.ContentFS(), "maps/mp_crash.arena")
func (gfs *GameFS) ContentFS() fs.FS {
	return contentFS{gfs: gfs}
}

// Open implements fs.FS
func (c contentFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	h, size, err := c.gfs.OpenRead(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: mapFSError(err)}
	}
	return &contentFile{gfs: c.gfs, h: h, name: name, size: size}, nil
}

// ReadFile implements fs.ReadFileFS
func (c contentFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	data, err := c.gfs.ReadWholeFile(name)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: mapFSError(err)}
	}
	return data[:len(data)-1], nil
}

func mapFSError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fs.ErrNotExist
	case errors.Is(err, ErrPathRejected):
		return fs.ErrPermission
	}
	return err
}

// contentFile adapts a read handle to fs.File.
type contentFile struct {
	gfs  *GameFS
	h    Handle
	name string
	size int64
	eof  bool
}

func (f *contentFile) Read(p []byte) (int, error) {
	if f.h == 0 {
		return 0, fs.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if f.eof {
		return 0, io.EOF
	}
	n, err := f.gfs.Read(f.h, p)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		f.eof = true
		if n == 0 {
			return 0, io.EOF
		}
	}
	return n, nil
}

func (f *contentFile) Stat() (fs.FileInfo, error) {
	return contentInfo{name: path.Base(f.name), size: f.size}, nil
}

func (f *contentFile) Close() error {
	if f.h == 0 {
		return fs.ErrClosed
	}
	h := f.h
	f.h = 0
	return f.gfs.Close(h)
}

// contentInfo describes a resolved file. Archive entries carry no useful
// mode or time, so neither do loose files.
type contentInfo struct {
	name string
	size int64
}

func (i contentInfo) Name() string       { return i.name }
func (i contentInfo) Size() int64        { return i.size }
func (i contentInfo) Mode() fs.FileMode  { return 0444 }
func (i contentInfo) ModTime() time.Time { return time.Time{} }
func (i contentInfo) IsDir() bool        { return false }
func (i contentInfo) Sys() any           { return nil }
