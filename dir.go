package gamefs

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// DirectoriesOnly is the extension filter that makes ListFiles return loose
// subdirectories instead of files.
const DirectoriesOnly = "/"

// ListFiles merges the names visible directly under the logical directory
// dir across every source of the chain. When ext is non-empty only names
// with that extension are returned; DirectoriesOnly lists subdirectories.
// Names are deduplicated and sorted with PathCompare, upper sources keeping
// their spelling.
func (gfs *GameFS) ListFiles(dir, ext string) ([]string, error) {
	chain, cfg, err := gfs.snapshot()
	if err != nil {
		return nil, err
	}
	if hasTraversal(dir) {
		metricRejections.Inc()
		return nil, fmt.Errorf("%w: %q", ErrPathRejected, dir)
	}

	dir = strings.Trim(NormalizeSeparators(dir), "/")
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	candidates := chain.paths
	if cfg.Restricted {
		candidates = nil
		if chain.trusted != nil {
			candidates = []*SearchPath{chain.trusted}
		}
	}

	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		key := foldPath(name)
		if seen[key] {
			return
		}
		seen[key] = true
		names = append(names, name)
	}

	for _, sp := range candidates {
		if sp.archive != nil {
			if ext == DirectoriesOnly {
				continue
			}
			for _, entry := range sp.archive.Entries() {
				name, ok := childName(entry, prefix)
				if ok && matchesExt(name, ext) {
					add(name)
				}
			}
			continue
		}
		for _, info := range gfs.readHostDir(strings.TrimSuffix(JoinHostPath(sp.RootPath, sp.Namespace, dir), "/")) {
			if ext == DirectoriesOnly {
				if info.IsDir() {
					add(info.Name())
				}
				continue
			}
			if !info.IsDir() && matchesExt(info.Name(), ext) {
				add(info.Name())
			}
		}
	}

	sort.SliceStable(names, func(i, j int) bool {
		return PathCompare(names[i], names[j]) < 0
	})
	return names, nil
}

// readHostDir lists a host directory, treating any failure as empty.
func (gfs *GameFS) readHostDir(hostPath string) []os.FileInfo {
	d, err := gfs.host.OpenFile(hostPath, os.O_RDONLY, 0)
	if err != nil {
		return nil
	}
	defer d.Close()

	infos, err := d.Readdir(-1)
	if err != nil {
		return nil
	}
	return infos
}

// childName returns the part of an archive entry name below prefix when the
// entry sits directly in that directory.
func childName(entry, prefix string) (string, bool) {
	entry = NormalizeSeparators(entry)
	if len(entry) <= len(prefix) || !PathEqual(entry[:len(prefix)], prefix) {
		return "", false
	}
	rest := entry[len(prefix):]
	if strings.ContainsRune(rest, '/') {
		return "", false
	}
	return rest, true
}

func matchesExt(name, ext string) bool {
	return ext == "" || IsExt(name, ext)
}
