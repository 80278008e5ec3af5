package gamefs

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// copyHostFile copies the host file src to dst, creating the directories
// leading to dst. Both paths pass the traversal gate first.
func (gfs *GameFS) copyHostFile(src, dst string, cfg Config) error {
	if err := gfs.rejectTraversal(src); err != nil {
		return err
	}
	if err := gfs.CreateDirectories(dst); err != nil {
		return err
	}
	gfs.debugf(cfg, logrus.Fields{"op": "copy", "path": src, "dest": dst}, "copy")

	srcFile, err := gfs.host.OpenFile(src, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, src)
	}
	defer srcFile.Close()

	dstFile, err := gfs.host.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	buf := make([]byte, gfs.copyBufferSize)
	if _, err := io.CopyBuffer(dstFile, srcFile, buf); err != nil {
		dstFile.Close()
		return fmt.Errorf("%w: copy %s: %v", ErrWriteFailed, dst, err)
	}
	return dstFile.Close()
}

// renameHost renames from to to, falling back to copy then delete when the
// host cannot rename in place.
func (gfs *GameFS) renameHost(from, to string, cfg Config) error {
	if err := gfs.rejectTraversal(from); err != nil {
		return err
	}
	if err := gfs.CreateDirectories(to); err != nil {
		return err
	}
	gfs.debugf(cfg, logrus.Fields{"op": "rename", "path": from, "dest": to}, "rename")

	if err := gfs.host.Rename(from, to); err == nil {
		return nil
	}
	if err := gfs.copyHostFile(from, to, cfg); err != nil {
		return err
	}
	if err := gfs.host.Remove(from); err != nil {
		return fmt.Errorf("remove %s after copy: %w", from, err)
	}
	return nil
}

// Rename renames a file under the home root's current namespace.
func (gfs *GameFS) Rename(from, to string) error {
	_, cfg, err := gfs.snapshot()
	if err != nil {
		return err
	}
	ns := cfg.CurrentNamespace()
	err = gfs.renameHost(JoinHostPath(cfg.HomePath, ns, from), JoinHostPath(cfg.HomePath, ns, to), cfg)
	gfs.cache.invalidate(cacheKey(from))
	gfs.cache.invalidate(cacheKey(to))
	return err
}

// Remove deletes a file under the home root's current namespace.
func (gfs *GameFS) Remove(qpath string) error {
	_, cfg, err := gfs.snapshot()
	if err != nil {
		return err
	}
	hostPath := JoinHostPath(cfg.HomePath, cfg.CurrentNamespace(), qpath)
	if err := gfs.rejectTraversal(hostPath); err != nil {
		return err
	}
	gfs.debugf(cfg, logrus.Fields{"op": "remove", "path": hostPath}, "remove")

	gfs.cache.invalidate(cacheKey(qpath))
	if err := gfs.host.Remove(hostPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, hostPath)
		}
		return fmt.Errorf("remove %s: %w", hostPath, err)
	}
	return nil
}

// FileExists reports whether qpath exists as a file under the home root's
// current namespace. Archives and other roots are not consulted.
func (gfs *GameFS) FileExists(qpath string) bool {
	_, cfg, err := gfs.snapshot()
	if err != nil {
		return false
	}
	return gfs.hostFileExists(JoinHostPath(cfg.HomePath, cfg.CurrentNamespace(), qpath))
}

func (gfs *GameFS) hostFileExists(hostPath string) bool {
	info, err := gfs.host.Stat(hostPath)
	return err == nil && !info.IsDir()
}
