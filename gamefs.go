package gamefs

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// GameFS owns the search path chain and the handle table.
type GameFS struct {
	cfg   Config
	chain *Chain // nil until initialized and after Shutdown
	mu    sync.RWMutex

	host           HostFS
	mounter        Mounter
	log            logrus.FieldLogger
	handles        *handleTable
	cache          *lookupCache
	copyBufferSize int
}

// Option is a functional option for configuring GameFS
type Option func(*GameFS)

// WithHostFS sets the filesystem the roots live on. Defaults to OSHost().
func WithHostFS(host HostFS) Option {
	return func(gfs *GameFS) {
		gfs.host = host
	}
}

// WithMounter sets the archive decoder. Defaults to ZipMounter.
func WithMounter(m Mounter) Option {
	return func(gfs *GameFS) {
		gfs.mounter = m
	}
}

// WithLogger sets the logger. Defaults to logrus.StandardLogger().
func WithLogger(log logrus.FieldLogger) Option {
	return func(gfs *GameFS) {
		gfs.log = log
	}
}

// WithLookupCache enables resolution caching with the specified TTLs
func WithLookupCache(hitTTL, missTTL time.Duration, maxEntries int) Option {
	return func(gfs *GameFS) {
		gfs.cache = newLookupCache(true, hitTTL, missTTL, maxEntries)
	}
}

// WithCopyBufferSize sets the buffer size for copy and rename fallbacks
func WithCopyBufferSize(size int) Option {
	return func(gfs *GameFS) {
		if size > 0 {
			gfs.copyBufferSize = size
		}
	}
}

// New creates a GameFS and builds its first chain from cfg.
func New(cfg Config, opts ...Option) (*GameFS, error) {
	gfs := &GameFS{
		host:           OSHost(),
		mounter:        ZipMounter,
		log:            logrus.StandardLogger(),
		copyBufferSize: 32 * 1024, // default 32KB
		cache:          newLookupCache(false, 0, 0, 0), // disabled by default
	}
	for _, opt := range opts {
		opt(gfs)
	}

	cfg = cfg.withDefaults()
	gfs.handles = newHandleTable(cfg.MaxHandles)
	if err := gfs.Restart(cfg); err != nil {
		return nil, err
	}
	return gfs, nil
}

// Restart rebuilds the chain from cfg and swaps it in. Resolutions see either
// the old chain or the new one, never a mix. Handles opened against the old
// chain stay valid; its archives are closed once those handles are closed.
// The handle table capacity is fixed at New and is not changed here.
func (gfs *GameFS) Restart(cfg Config) error {
	cfg = cfg.withDefaults()
	chain, err := BuildChain(cfg, gfs.host, gfs.mounter, gfs.log)
	if err != nil {
		return err
	}

	gfs.mu.Lock()
	old := gfs.chain
	gfs.cfg = cfg
	gfs.chain = chain
	gfs.cache.reset()
	gfs.mu.Unlock()

	if cfg.Debug {
		gfs.log.WithField("paths", len(chain.paths)).Debug("search path chain installed")
	}
	if old != nil {
		return old.retire()
	}
	return nil
}

// Shutdown closes every open handle and drops the chain. Later calls fail
// with ErrNotInitialized until Restart is called.
func (gfs *GameFS) Shutdown() error {
	var errs []error
	for _, h := range gfs.handles.live() {
		if err := gfs.Close(h); err != nil {
			errs = append(errs, err)
		}
	}

	gfs.mu.Lock()
	old := gfs.chain
	gfs.chain = nil
	gfs.cache.reset()
	gfs.mu.Unlock()

	if old != nil {
		errs = append(errs, old.retire())
	}
	return errors.Join(errs...)
}

// Initialized reports whether a chain is installed.
func (gfs *GameFS) Initialized() bool {
	gfs.mu.RLock()
	defer gfs.mu.RUnlock()
	return gfs.chain != nil
}

// Config returns the configuration of the installed chain.
func (gfs *GameFS) Config() Config {
	gfs.mu.RLock()
	defer gfs.mu.RUnlock()
	return gfs.cfg
}

// snapshot returns the installed chain and configuration together.
func (gfs *GameFS) snapshot() (*Chain, Config, error) {
	chain, cfg, _, err := gfs.resolveSnapshot()
	return chain, cfg, err
}

// resolveSnapshot is snapshot plus the lookup cache generation belonging to
// the returned chain. The cache is reset under the same lock that swaps the
// chain, so the three always agree.
func (gfs *GameFS) resolveSnapshot() (*Chain, Config, uint64, error) {
	gfs.mu.RLock()
	defer gfs.mu.RUnlock()

	if gfs.chain == nil {
		return nil, Config{}, 0, fatalf(ErrNotInitialized, "")
	}
	return gfs.chain, gfs.cfg, gfs.cache.currentGeneration(), nil
}

// SearchPaths describes the chain in resolution order, one line per entry.
func (gfs *GameFS) SearchPaths() ([]string, error) {
	chain, cfg, err := gfs.snapshot()
	if err != nil {
		return nil, err
	}

	if cfg.Restricted {
		if chain.trusted == nil {
			return nil, nil
		}
		return []string{chain.trusted.String() + " [restricted]"}, nil
	}
	out := make([]string, 0, len(chain.paths))
	for _, sp := range chain.paths {
		out = append(out, sp.String())
	}
	return out, nil
}

// HostPath renders root + "/" + namespace + "/" + qpath. An empty namespace
// means the current namespace.
func (gfs *GameFS) HostPath(root, namespace, qpath string) string {
	if namespace == "" {
		gfs.mu.RLock()
		namespace = gfs.cfg.CurrentNamespace()
		gfs.mu.RUnlock()
	}
	return JoinHostPath(root, namespace, qpath)
}

// CacheStats returns lookup cache statistics
func (gfs *GameFS) CacheStats() CacheStats {
	return gfs.cache.Stats()
}

// OpenHandles returns the number of live handles.
func (gfs *GameFS) OpenHandles() int {
	return len(gfs.handles.live())
}

// debugf emits one debug line when the debug flag is set.
func (gfs *GameFS) debugf(cfg Config, fields logrus.Fields, msg string) {
	if !cfg.Debug {
		return
	}
	gfs.log.WithFields(fields).Debug(msg)
}
