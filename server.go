package gamefs

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Server-rooted operations address files relative to the home root itself,
// without a namespace segment. Only OpenServerRead and ServerFilePath look
// past the home root, falling back to the base root when it differs.

// serverRoots returns the roots consulted for server-rooted reads.
func serverRoots(cfg Config) []string {
	roots := []string{cfg.HomePath}
	if !PathEqual(cfg.HomePath, cfg.BasePath) {
		roots = append(roots, cfg.BasePath)
	}
	return roots
}

// OpenServerRead opens name below the home root, then below the base root.
func (gfs *GameFS) OpenServerRead(name string) (Handle, int64, error) {
	_, cfg, err := gfs.snapshot()
	if err != nil {
		return 0, 0, err
	}
	if hasTraversal(name) {
		metricRejections.Inc()
		gfs.log.WithField("name", name).Warn("refusing to read relative path")
		return 0, 0, fmt.Errorf("%w: %q", ErrPathRejected, name)
	}

	for _, root := range serverRoots(cfg) {
		h, size, err := gfs.openPlainRead(joinServerPath(root, name), name, false, cfg)
		if err == nil {
			return h, size, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return 0, 0, err
		}
	}
	return 0, 0, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// OpenServerWrite creates or truncates name below the home root.
func (gfs *GameFS) OpenServerWrite(name string) (Handle, error) {
	_, cfg, err := gfs.snapshot()
	if err != nil {
		return 0, err
	}
	return gfs.openWriteHost(joinServerPath(cfg.HomePath, name), name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, false, false, cfg)
}

// OpenServerAppend opens name below the home root for appending.
func (gfs *GameFS) OpenServerAppend(name string) (Handle, error) {
	_, cfg, err := gfs.snapshot()
	if err != nil {
		return 0, err
	}
	return gfs.openWriteHost(joinServerPath(cfg.HomePath, name), name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, false, false, cfg)
}

// ServerWriteFile replaces name below the home root with data.
func (gfs *GameFS) ServerWriteFile(name string, data []byte) error {
	h, err := gfs.OpenServerWrite(name)
	if err != nil {
		gfs.log.WithFields(logrus.Fields{"file": name, "error": err}).Warn("failed to open for writing")
		return err
	}
	return gfs.writeAndClose(h, data)
}

// ServerRename renames a file below the home root.
func (gfs *GameFS) ServerRename(from, to string) error {
	_, cfg, err := gfs.snapshot()
	if err != nil {
		return err
	}
	return gfs.renameHost(joinServerPath(cfg.HomePath, from), joinServerPath(cfg.HomePath, to), cfg)
}

// ServerRemove deletes a file below the home root.
func (gfs *GameFS) ServerRemove(name string) error {
	_, cfg, err := gfs.snapshot()
	if err != nil {
		return err
	}
	hostPath := joinServerPath(cfg.HomePath, name)
	if err := gfs.rejectTraversal(hostPath); err != nil {
		return err
	}
	gfs.debugf(cfg, logrus.Fields{"op": "remove", "path": hostPath}, "remove")
	if err := gfs.host.Remove(hostPath); err != nil {
		return fmt.Errorf("remove %s: %w", hostPath, err)
	}
	return nil
}

// ServerCopyFile copies one file below the home root to another.
func (gfs *GameFS) ServerCopyFile(from, to string) error {
	_, cfg, err := gfs.snapshot()
	if err != nil {
		return err
	}
	return gfs.copyHostFile(joinServerPath(cfg.HomePath, from), joinServerPath(cfg.HomePath, to), cfg)
}

// ServerFilePath returns the first existing host path for name below the
// home root, then the base root. ok is false when neither holds the file.
func (gfs *GameFS) ServerFilePath(name string) (hostPath string, ok bool) {
	_, cfg, err := gfs.snapshot()
	if err != nil {
		return "", false
	}
	for _, root := range serverRoots(cfg) {
		p := joinServerPath(root, name)
		if gfs.hostFileExists(p) {
			return p, true
		}
	}
	return "", false
}
