package gamefs

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Mode selects how OpenByMode opens a file.
type Mode int

const (
	// ModeRead resolves through the search path chain.
	ModeRead Mode = iota
	// ModeReadLock is ModeRead with an exclusive lock or an exclusive
	// archive reader.
	ModeReadLock
	// ModeWrite truncates or creates the file under the home root.
	ModeWrite
	// ModeWriteLock is ModeWrite with an exclusive advisory lock.
	ModeWriteLock
	// ModeAppend appends to or creates the file under the home root.
	ModeAppend
	// ModeAppendSync is ModeAppend with a flush after every write.
	ModeAppendSync
	// ModeAppendLock is ModeAppend with an exclusive advisory lock.
	ModeAppendLock
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeReadLock:
		return "read-lock"
	case ModeWrite:
		return "write"
	case ModeWriteLock:
		return "write-lock"
	case ModeAppend:
		return "append"
	case ModeAppendSync:
		return "append-sync"
	case ModeAppendLock:
		return "append-lock"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// OpenRead resolves qpath through the chain and returns a handle together
// with the file length captured at resolution time.
func (gfs *GameFS) OpenRead(qpath string) (Handle, int64, error) {
	return gfs.openRead(qpath, false)
}

// OpenWrite creates or truncates qpath under the home root's current
// namespace.
func (gfs *GameFS) OpenWrite(qpath string) (Handle, error) {
	return gfs.openHome(qpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, false, false)
}

// OpenAppend opens qpath for appending under the home root's current
// namespace, creating it when missing.
func (gfs *GameFS) OpenAppend(qpath string) (Handle, error) {
	return gfs.openHome(qpath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, false, false)
}

// OpenByMode opens qpath in the given mode. The returned length is the
// resolved file length for read modes and 0 otherwise.
func (gfs *GameFS) OpenByMode(qpath string, mode Mode) (Handle, int64, error) {
	var h Handle
	var err error

	switch mode {
	case ModeRead:
		return gfs.openRead(qpath, false)
	case ModeReadLock:
		return gfs.openRead(qpath, true)
	case ModeWrite:
		h, err = gfs.openHome(qpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, false, false)
	case ModeWriteLock:
		h, err = gfs.openHome(qpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, false, true)
	case ModeAppend:
		h, err = gfs.openHome(qpath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, false, false)
	case ModeAppendSync:
		h, err = gfs.openHome(qpath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, true, false)
	case ModeAppendLock:
		h, err = gfs.openHome(qpath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, false, true)
	default:
		return 0, 0, fatalf(ErrInvalidHandle, "bad open mode %d", int(mode))
	}
	return h, 0, err
}

// openRead walks the chain in precedence order and binds the first hit.
// In restricted mode only the trusted archive is consulted.
func (gfs *GameFS) openRead(qpath string, exclusive bool) (Handle, int64, error) {
	chain, cfg, gen, err := gfs.resolveSnapshot()
	if err != nil {
		return 0, 0, err
	}
	if qpath == "" {
		return 0, 0, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	if hasTraversal(qpath) {
		metricRejections.Inc()
		gfs.log.WithField("qpath", qpath).Warn("refusing to read relative path")
		return 0, 0, fmt.Errorf("%w: %q", ErrPathRejected, qpath)
	}

	candidates := chain.paths
	if cfg.Restricted {
		candidates = nil
		if chain.trusted != nil {
			candidates = []*SearchPath{chain.trusted}
		}
	}

	key := cacheKey(qpath)
	if !cfg.Restricted {
		if gfs.cache.isMiss(key, gen) {
			return 0, 0, fmt.Errorf("%w: %s", ErrNotFound, qpath)
		}
		if i, ok := gfs.cache.getHit(key, gen); ok && i < len(candidates) {
			h, size, err := gfs.openFrom(candidates[i], qpath, exclusive, cfg)
			if err == nil {
				return h, size, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return 0, 0, err
			}
			gfs.cache.invalidate(key)
		}
	}

	for i, sp := range candidates {
		h, size, err := gfs.openFrom(sp, qpath, exclusive, cfg)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, 0, err
		}
		if !cfg.Restricted {
			gfs.cache.putHit(key, i, gen)
		}
		return h, size, nil
	}

	if !cfg.Restricted {
		gfs.cache.putMiss(key, gen)
	}
	metricOpens.WithLabelValues("none", "not_found").Inc()
	return 0, 0, fmt.Errorf("%w: %s", ErrNotFound, qpath)
}

// openFrom tries a single search path. A miss is reported as ErrNotFound.
func (gfs *GameFS) openFrom(sp *SearchPath, qpath string, exclusive bool, cfg Config) (Handle, int64, error) {
	if sp.archive != nil {
		return gfs.openArchived(sp, qpath, exclusive, cfg)
	}
	return gfs.openPlainRead(JoinHostPath(sp.RootPath, sp.Namespace, qpath), qpath, exclusive, cfg)
}

// openPlainRead opens a host file for reading and binds it to a handle.
func (gfs *GameFS) openPlainRead(hostPath, name string, lock bool, cfg Config) (Handle, int64, error) {
	f, err := gfs.host.OpenFile(hostPath, os.O_RDONLY, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s", ErrNotFound, hostPath)
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return 0, 0, fmt.Errorf("%w: %s", ErrNotFound, hostPath)
	}
	gfs.debugf(cfg, logrus.Fields{"op": "read", "path": hostPath}, "open")

	pf := &plainFile{f: f, size: info.Size()}
	if lock {
		if err := lockFile(f, false); err != nil {
			f.Close()
			metricOpens.WithLabelValues(backendPlain.String(), "lock_failed").Inc()
			return 0, 0, fmt.Errorf("%w: %s: %v", ErrLockFailed, hostPath, err)
		}
		pf.locked = true
	}

	h, err := gfs.bind(&handleSlot{name: name, source: hostPath, kind: backendPlain, plain: pf})
	if err != nil {
		return 0, 0, err
	}
	return h, pf.size, nil
}

// openArchived opens qpath inside the archive of sp. Shared handles borrow
// the chain's reader; exclusive handles get a reader of their own.
func (gfs *GameFS) openArchived(sp *SearchPath, qpath string, exclusive bool, cfg Config) (Handle, int64, error) {
	ma := sp.archive

	af := &archivedFile{}
	var cursor EntryCursor
	var err error
	if exclusive {
		// only pay for a second reader when the entry is there
		var probe EntryCursor
		ma.acquire()
		probe, err = ma.OpenEntry(qpath)
		if err == nil {
			probe.Close()
		}
		ma.release()
		if err != nil {
			return 0, 0, err
		}

		var own Archive
		own, err = ma.Reopen()
		if err != nil {
			return 0, 0, fmt.Errorf("reopen %s: %w", ma.hostPath, err)
		}
		cursor, err = own.OpenEntry(qpath)
		if err != nil {
			own.Close()
			return 0, 0, err
		}
		af.own = own
	} else {
		ma.acquire()
		cursor, err = ma.OpenEntry(qpath)
		if err != nil {
			ma.release()
			return 0, 0, err
		}
		af.archive = ma
	}
	af.cursor = cursor
	af.base = cursor.BaseOffset()
	af.size = cursor.Size()
	gfs.debugf(cfg, logrus.Fields{"op": "read", "path": ma.hostPath, "entry": qpath}, "open")

	h, err := gfs.bind(&handleSlot{name: qpath, source: ma.hostPath, kind: backendArchived, archived: af})
	if err != nil {
		return 0, 0, err
	}
	return h, af.size, nil
}

// openHome opens qpath for writing under the home root. The chain is not
// consulted; the containing directory is created first.
func (gfs *GameFS) openHome(qpath string, flag int, sync, lock bool) (Handle, error) {
	_, cfg, err := gfs.snapshot()
	if err != nil {
		return 0, err
	}
	hostPath := JoinHostPath(cfg.HomePath, cfg.CurrentNamespace(), qpath)
	h, err := gfs.openWriteHost(hostPath, qpath, flag, sync, lock, cfg)
	if err == nil {
		gfs.cache.invalidate(cacheKey(qpath))
	}
	return h, err
}

// openWriteHost creates the directories leading to hostPath and binds a
// write handle to it.
func (gfs *GameFS) openWriteHost(hostPath, name string, flag int, sync, lock bool, cfg Config) (Handle, error) {
	if err := gfs.CreateDirectories(hostPath); err != nil {
		metricOpens.WithLabelValues(backendPlain.String(), "rejected").Inc()
		return 0, err
	}
	gfs.debugf(cfg, logrus.Fields{"op": "write", "path": hostPath}, "open")

	f, err := gfs.host.OpenFile(hostPath, flag, filePerm)
	if err != nil {
		metricOpens.WithLabelValues(backendPlain.String(), "failed").Inc()
		return 0, fmt.Errorf("open %s: %w", hostPath, err)
	}

	pf := &plainFile{f: f, w: bufio.NewWriter(f), writable: true, sync: sync}
	if lock {
		if err := lockFile(f, true); err != nil {
			f.Close()
			metricOpens.WithLabelValues(backendPlain.String(), "lock_failed").Inc()
			return 0, fmt.Errorf("%w: %s: %v", ErrLockFailed, hostPath, err)
		}
		pf.locked = true
	}

	return gfs.bind(&handleSlot{name: name, source: hostPath, kind: backendPlain, plain: pf})
}

// bind installs a fully built slot in the handle table. When the table is
// full the backend is closed so nothing leaks.
func (gfs *GameFS) bind(slot *handleSlot) (Handle, error) {
	h, err := gfs.handles.allocate(slot)
	if err != nil {
		closeSlot(slot)
		metricOpens.WithLabelValues(slot.kind.String(), "no_handle").Inc()
		return 0, err
	}
	metricOpens.WithLabelValues(slot.kind.String(), "ok").Inc()
	return h, nil
}
