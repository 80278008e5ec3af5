package gamefs

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// RootKind identifies which content root a search path entry lives under.
type RootKind int

const (
	// RootHome is the writable, user specific root.
	RootHome RootKind = iota
	// RootBase is the primary install root.
	RootBase
	// RootCd is the optional secondary read-only medium.
	RootCd
)

func (k RootKind) String() string {
	switch k {
	case RootHome:
		return "home"
	case RootBase:
		return "base"
	case RootCd:
		return "cd"
	}
	return fmt.Sprintf("RootKind(%d)", int(k))
}

// SearchPath is one source in the chain: either a directory under a root or
// a single archive file.
type SearchPath struct {
	Root      RootKind
	RootPath  string
	Namespace string

	archive *mountedArchive
}

// IsArchive reports whether the entry is an archive root.
func (sp *SearchPath) IsArchive() bool {
	return sp.archive != nil
}

// ArchivePath returns the host path of the archive, or "" for directories.
func (sp *SearchPath) ArchivePath() string {
	if sp.archive == nil {
		return ""
	}
	return sp.archive.hostPath
}

func (sp *SearchPath) String() string {
	if sp.archive != nil {
		return fmt.Sprintf("%s (%s, %d files)", sp.archive.hostPath, sp.Root, len(sp.archive.Entries()))
	}
	return fmt.Sprintf("%s (%s)", JoinHostPath(sp.RootPath, sp.Namespace, ""), sp.Root)
}

// Chain is an immutable, ordered list of search paths. A new chain replaces
// the old one wholesale; entries are never edited in place.
type Chain struct {
	paths            []*SearchPath
	trusted          *SearchPath
	currentNamespace string
}

// Paths returns the entries in resolution order.
func (c *Chain) Paths() []*SearchPath {
	return c.paths
}

// Trusted returns the archive served in restricted mode, or nil.
func (c *Chain) Trusted() *SearchPath {
	return c.trusted
}

// retire marks every archive of the chain for closing once no handle uses it.
func (c *Chain) retire() error {
	var errs []error
	for _, sp := range c.paths {
		if sp.archive != nil {
			if err := sp.archive.retire(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

type chainRoot struct {
	kind RootKind
	path string
}

// chainRoots returns the configured roots in precedence order, skipping
// empty roots and a home root identical to the base root.
func chainRoots(cfg Config) []chainRoot {
	roots := make([]chainRoot, 0, 3)
	if cfg.HomePath != "" && !strings.EqualFold(cfg.HomePath, cfg.BasePath) {
		roots = append(roots, chainRoot{RootHome, cfg.HomePath})
	}
	if cfg.BasePath != "" {
		roots = append(roots, chainRoot{RootBase, cfg.BasePath})
	}
	if cfg.CdPath != "" {
		roots = append(roots, chainRoot{RootCd, cfg.CdPath})
	}
	return roots
}

// chainNamespaces returns current mod, base mod and base game, skipping empty
// and repeated names.
func chainNamespaces(cfg Config) []string {
	out := make([]string, 0, 3)
	for _, ns := range []string{cfg.Game, cfg.BaseMod, cfg.BaseGame} {
		if ns == "" {
			continue
		}
		dup := false
		for _, seen := range out {
			if PathEqual(seen, ns) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, ns)
		}
	}
	return out
}

// BuildChain scans every (namespace, root) directory and assembles the chain.
// Namespaces are the major order (current mod, base mod, base game) and roots
// the minor order (home, base, cd). Each directory contributes its archives,
// highest numeric suffix first, followed by the directory itself. Archives
// that fail to mount are logged and skipped.
func BuildChain(cfg Config, host HostFS, mounter Mounter, log logrus.FieldLogger) (*Chain, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	matcher, err := newArchiveMatcher(cfg.ArchivePatterns)
	if err != nil {
		return nil, err
	}

	chain := &Chain{currentNamespace: cfg.CurrentNamespace()}
	for _, ns := range chainNamespaces(cfg) {
		for _, root := range chainRoots(cfg) {
			dir := JoinHostPath(root.path, ns, "")
			for _, a := range mountArchives(host, mounter, matcher, dir, log) {
				chain.paths = append(chain.paths, &SearchPath{
					Root:      root.kind,
					RootPath:  root.path,
					Namespace: ns,
					archive:   a,
				})
			}
			chain.paths = append(chain.paths, &SearchPath{
				Root:      root.kind,
				RootPath:  root.path,
				Namespace: ns,
			})
		}
	}

	chain.trusted = findTrusted(chain.paths, cfg)
	if cfg.Restricted && chain.trusted == nil {
		log.WithField("archive", cfg.BaseGame+"/"+cfg.TrustedArchive).
			Warn("restricted mode: trusted archive not mounted, reads will fail")
	}
	return chain, nil
}

// findTrusted picks the restricted-mode archive, preferring the base root,
// then cd. The home root is never trusted.
func findTrusted(paths []*SearchPath, cfg Config) *SearchPath {
	for _, kind := range []RootKind{RootBase, RootCd} {
		for _, sp := range paths {
			if sp.archive == nil || sp.Root != kind {
				continue
			}
			if PathEqual(sp.Namespace, cfg.BaseGame) && PathEqual(sp.archive.name, cfg.TrustedArchive) {
				return sp
			}
		}
	}
	return nil
}

// mountArchives opens every pak in dir, ordered highest suffix first.
func mountArchives(host HostFS, mounter Mounter, matcher *archiveMatcher, dir string, log logrus.FieldLogger) []*mountedArchive {
	d, err := host.OpenFile(strings.TrimSuffix(dir, "/"), os.O_RDONLY, 0)
	if err != nil {
		return nil
	}
	infos, err := d.Readdir(-1)
	d.Close()
	if err != nil {
		log.WithError(err).WithField("dir", dir).Warn("could not list directory")
		return nil
	}

	var mounted []*mountedArchive
	for _, info := range infos {
		if info.IsDir() || !matcher.Match(info.Name()) {
			continue
		}
		hostPath := dir + info.Name()
		a, err := mounter.Mount(host, hostPath)
		if err != nil {
			log.WithError(err).WithField("archive", hostPath).Warn("could not mount archive")
			continue
		}
		name, ext, suffix := splitArchiveName(info.Name())
		mounted = append(mounted, &mountedArchive{
			Archive:  a,
			hostPath: hostPath,
			name:     name,
			ext:      ext,
			suffix:   suffix,
		})
	}

	sort.SliceStable(mounted, func(i, j int) bool {
		if mounted[i].suffix != mounted[j].suffix {
			return mounted[i].suffix > mounted[j].suffix
		}
		return PathCompare(mounted[i].name, mounted[j].name) > 0
	})
	return mounted
}
