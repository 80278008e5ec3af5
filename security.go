package gamefs

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// rejectTraversal refuses hostPath when it carries a ".." or "::" token. It
// is the only barrier between a hostile logical path and a write outside the
// intended root, so every write-capable entry point calls it first.
func (gfs *GameFS) rejectTraversal(hostPath string) error {
	if !hasTraversal(hostPath) {
		return nil
	}
	metricRejections.Inc()
	gfs.log.WithField("path", hostPath).Warn("refusing to create relative path")
	return fmt.Errorf("%w: %q", ErrPathRejected, hostPath)
}

// CreateDirectories creates every directory leading up to the file named by
// hostPath. Nothing is created when the path is rejected. A directory that
// already exists is not an error.
func (gfs *GameFS) CreateDirectories(hostPath string) error {
	if err := gfs.rejectTraversal(hostPath); err != nil {
		return err
	}

	for i := 1; i < len(hostPath); i++ {
		if hostPath[i] != Separator {
			continue
		}
		if err := gfs.mkdir(hostPath[:i]); err != nil {
			return err
		}
	}
	return nil
}

// mkdir creates one directory, accepting one that already exists.
func (gfs *GameFS) mkdir(dir string) error {
	err := gfs.host.Mkdir(dir, dirPerm)
	if err == nil || errors.Is(err, os.ErrExist) {
		return nil
	}
	// some filesystems report other errors for existing directories
	if info, statErr := gfs.host.Stat(dir); statErr == nil && info.IsDir() {
		return nil
	}
	return fmt.Errorf("create directory %s: %w", dir, err)
}

// VerifyReferencedArchive reports whether a peer may claim to have validated
// the archive reference name, written as "<namespace>/<basename><ext>". It
// accepts exact matches against archives mounted in the live chain, the
// current namespace's auxiliary content file, and user content references
// that carry neither ".." nor ';'. Everything else is rejected.
func (gfs *GameFS) VerifyReferencedArchive(name string) bool {
	ok := gfs.verifyReferencedArchive(name)
	result := "rejected"
	if ok {
		result = "accepted"
	}
	metricArchiveVerifications.WithLabelValues(result).Inc()
	return ok
}

func (gfs *GameFS) verifyReferencedArchive(name string) bool {
	chain, cfg, err := gfs.snapshot()
	if err != nil {
		return false
	}

	for _, sp := range chain.paths {
		if sp.archive == nil {
			continue
		}
		if sp.archive.referenceName(sp.Namespace) == name {
			return true
		}
	}

	if name == cfg.CurrentNamespace()+"/"+cfg.AuxiliaryContent {
		return true
	}

	prefix := cfg.UserContentPrefix
	if len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
		return !strings.Contains(name, "..") && !strings.Contains(name, ";")
	}
	return false
}
