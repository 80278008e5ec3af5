package gamefs

import (
	"fmt"
	"io"
	"os"

	"github.com/absfs/absfs"
	"github.com/klauspost/compress/zip"
)

// ZipMounter mounts zip-family paks (.iwd, .pk3).
var ZipMounter Mounter = MounterFunc(func(host HostFS, hostPath string) (Archive, error) {
	return openZipArchive(host, hostPath)
})

// zipArchive serves entries of one zip file opened through the host
// filesystem.
type zipArchive struct {
	host     HostFS
	hostPath string
	file     absfs.File
	reader   *zip.Reader
	index    map[string]*zip.File // keyed by foldPath(name)
	names    []string
}

func openZipArchive(host HostFS, hostPath string) (*zipArchive, error) {
	f, err := host.OpenFile(hostPath, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read zip %s: %w", hostPath, err)
	}

	za := &zipArchive{
		host:     host,
		hostPath: hostPath,
		file:     f,
		reader:   zr,
		index:    make(map[string]*zip.File, len(zr.File)),
		names:    make([]string, 0, len(zr.File)),
	}
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		key := foldPath(zf.Name)
		// first entry wins on duplicate names
		if _, dup := za.index[key]; dup {
			continue
		}
		za.index[key] = zf
		za.names = append(za.names, zf.Name)
	}
	return za, nil
}

// OpenEntry implements Archive
func (za *zipArchive) OpenEntry(name string) (EntryCursor, error) {
	zf, ok := za.index[foldPath(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, za.hostPath)
	}
	base, err := zf.DataOffset()
	if err != nil {
		return nil, fmt.Errorf("locate %s in %s: %w", name, za.hostPath, err)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s in %s: %w", name, za.hostPath, err)
	}
	return &zipCursor{file: zf, rc: rc, base: base}, nil
}

// Entries implements Archive
func (za *zipArchive) Entries() []string {
	return za.names
}

// Reopen implements Archive
func (za *zipArchive) Reopen() (Archive, error) {
	return openZipArchive(za.host, za.hostPath)
}

// Close implements Archive
func (za *zipArchive) Close() error {
	return za.file.Close()
}

// zipCursor decodes one zip entry.
type zipCursor struct {
	file *zip.File
	rc   io.ReadCloser
	base int64
}

func (c *zipCursor) Read(p []byte) (int, error) {
	if c.rc == nil {
		return 0, os.ErrClosed
	}
	return c.rc.Read(p)
}

func (c *zipCursor) SeekToBase() error {
	if c.rc != nil {
		c.rc.Close()
		c.rc = nil
	}
	rc, err := c.file.Open()
	if err != nil {
		return err
	}
	c.rc = rc
	return nil
}

func (c *zipCursor) BaseOffset() int64 {
	return c.base
}

func (c *zipCursor) Size() int64 {
	return int64(c.file.UncompressedSize64)
}

func (c *zipCursor) Close() error {
	if c.rc == nil {
		return nil
	}
	err := c.rc.Close()
	c.rc = nil
	return err
}
