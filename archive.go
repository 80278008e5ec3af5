package gamefs

import (
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/woozymasta/pathrules"
)

// Archive is one mounted pak as seen through its decoder. Entry lookup must
// treat names as equal under PathEqual.
type Archive interface {
	// OpenEntry positions a new cursor at the start of the named entry. It
	// returns an error matching ErrNotFound when no entry has that name.
	OpenEntry(name string) (EntryCursor, error)
	// Entries lists every file entry name stored in the archive.
	Entries() []string
	// Reopen returns an independent reader over the same archive file, used
	// for handles that need an exclusive cursor.
	Reopen() (Archive, error)
	// Close releases the archive reader.
	Close() error
}

// EntryCursor is a forward-only decoding cursor over one archive entry.
type EntryCursor interface {
	io.Reader
	// SeekToBase closes the current entry stream and reopens it at the
	// entry's base offset.
	SeekToBase() error
	// BaseOffset is the entry's byte offset within the archive file.
	BaseOffset() int64
	// Size is the decoded length of the entry.
	Size() int64
	// Close closes the entry stream; the archive stays open.
	Close() error
}

// Mounter opens the archive stored at hostPath.
type Mounter interface {
	Mount(host HostFS, hostPath string) (Archive, error)
}

// MounterFunc adapts a function to the Mounter interface.
type MounterFunc func(host HostFS, hostPath string) (Archive, error)

// Mount implements Mounter
func (f MounterFunc) Mount(host HostFS, hostPath string) (Archive, error) {
	return f(host, hostPath)
}

// mountedArchive is an Archive owned by a search path chain. Handles that
// share its reader hold a reference; once the chain is retired the reader is
// closed when the last reference goes away.
type mountedArchive struct {
	Archive
	hostPath string
	name     string // basename without extension
	ext      string // extension including the dot
	suffix   int    // trailing number of name, -1 when absent

	mu      sync.Mutex
	refs    int
	retired bool
	closed  bool
}

func (a *mountedArchive) acquire() {
	a.mu.Lock()
	a.refs++
	a.mu.Unlock()
}

func (a *mountedArchive) release() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.refs > 0 {
		a.refs--
	}
	return a.closeIfIdleLocked()
}

func (a *mountedArchive) retire() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.retired = true
	return a.closeIfIdleLocked()
}

func (a *mountedArchive) closeIfIdleLocked() error {
	if !a.retired || a.refs > 0 || a.closed {
		return nil
	}
	a.closed = true
	return a.Archive.Close()
}

// referenceName is the "<namespace>/<basename><ext>" string peers use to
// refer to this archive.
func (a *mountedArchive) referenceName(namespace string) string {
	return namespace + "/" + a.name + a.ext
}

// splitArchiveName returns the basename without extension, the extension and
// the trailing numeric suffix of a pak file name.
func splitArchiveName(filename string) (name, ext string, suffix int) {
	ext = path.Ext(filename)
	name = strings.TrimSuffix(filename, ext)

	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) {
		return name, ext, -1
	}
	suffix = 0
	for _, c := range name[i:] {
		suffix = suffix*10 + int(c-'0')
		if suffix > 1<<30 {
			break
		}
	}
	return name, ext, suffix
}

// archiveMatcher decides which files in a namespace directory are paks.
type archiveMatcher struct {
	matcher *pathrules.Matcher
}

// newArchiveMatcher compiles include patterns into a case insensitive
// allow-list.
func newArchiveMatcher(patterns []string) (*archiveMatcher, error) {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(NormalizeSeparators(p))
		if p == "" {
			continue
		}
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: p})
	}
	if len(rules) == 0 {
		return &archiveMatcher{}, nil
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		return nil, fmt.Errorf("compile archive patterns: %w", err)
	}
	return &archiveMatcher{matcher: matcher}, nil
}

// Match reports whether filename should be mounted as an archive.
func (m *archiveMatcher) Match(filename string) bool {
	if m == nil || m.matcher == nil {
		return false
	}
	return m.matcher.Included(filename, false)
}
