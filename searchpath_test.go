package gamefs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// describeChain renders each entry as its archive or directory host path
func describeChain(c *Chain) []string {
	var out []string
	for _, sp := range c.Paths() {
		if sp.IsArchive() {
			out = append(out, sp.ArchivePath())
			continue
		}
		out = append(out, JoinHostPath(sp.RootPath, sp.Namespace, ""))
	}
	return out
}

func populateRoots(t *testing.T) fixtureFS {
	mfs := mustNewMemFS()
	pak := zipEntry{"x.cfg", "x"}
	writeZip(t, mfs, "/base/main/pak0.iwd", pak)
	writeZip(t, mfs, "/base/main/pak1.iwd", pak)
	writeZip(t, mfs, "/base/main/pak10.iwd", pak)
	writeFile(t, mfs, "/base/main/readme.txt", "not an archive")
	writeZip(t, mfs, "/home/mods/m/z_custom.iwd", pak)
	writeZip(t, mfs, "/cd/main/pak0.iwd", pak)
	return mfs
}

func TestBuildChainOrder(t *testing.T) {
	mfs := populateRoots(t)
	cfg := memConfig()
	cfg.CdPath = "/cd"
	cfg.Game = "mods/m"

	chain, err := BuildChain(cfg, mfs, ZipMounter, quietLogger())
	require.NoError(t, err)
	defer chain.retire()

	assert.Equal(t, []string{
		"/home/mods/m/z_custom.iwd",
		"/home/mods/m/",
		"/base/mods/m/",
		"/cd/mods/m/",
		"/home/main/",
		"/base/main/pak10.iwd",
		"/base/main/pak1.iwd",
		"/base/main/pak0.iwd",
		"/base/main/",
		"/cd/main/pak0.iwd",
		"/cd/main/",
	}, describeChain(chain))

	require.NotNil(t, chain.Trusted())
	assert.Equal(t, "/base/main/pak0.iwd", chain.Trusted().ArchivePath())
}

func TestBuildChainBaseMod(t *testing.T) {
	mfs := mustNewMemFS()
	cfg := memConfig()
	cfg.Game = "mods/child"
	cfg.BaseMod = "mods/parent"

	chain, err := BuildChain(cfg, mfs, ZipMounter, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/home/mods/child/",
		"/base/mods/child/",
		"/home/mods/parent/",
		"/base/mods/parent/",
		"/home/main/",
		"/base/main/",
	}, describeChain(chain))
}

func TestBuildChainSkipsHomeEqualToBase(t *testing.T) {
	mfs := populateRoots(t)
	cfg := memConfig()
	cfg.HomePath = "/BASE"

	chain, err := BuildChain(cfg, mfs, ZipMounter, quietLogger())
	require.NoError(t, err)
	defer chain.retire()

	for _, sp := range chain.Paths() {
		assert.NotEqual(t, RootHome, sp.Root, sp.String())
	}
}

func TestBuildChainSkipsDuplicateNamespaces(t *testing.T) {
	cfg := memConfig()
	cfg.Game = "MAIN"

	chain, err := BuildChain(cfg, mustNewMemFS(), ZipMounter, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"/home/MAIN/", "/base/MAIN/"}, describeChain(chain))
}

func TestBuildChainSkipsBrokenArchives(t *testing.T) {
	mfs := populateRoots(t)
	writeFile(t, mfs, "/base/main/pak2.iwd", "garbage")

	chain, err := BuildChain(memConfig(), mfs, ZipMounter, quietLogger())
	require.NoError(t, err)
	defer chain.retire()

	for _, p := range describeChain(chain) {
		assert.NotEqual(t, "/base/main/pak2.iwd", p)
	}
}

func TestTrustedArchiveNeverFromHome(t *testing.T) {
	mfs := mustNewMemFS()
	writeZip(t, mfs, "/home/main/pak0.iwd", zipEntry{"x.cfg", "forged"})
	writeZip(t, mfs, "/cd/main/pak0.iwd", zipEntry{"x.cfg", "cd"})
	cfg := memConfig()
	cfg.CdPath = "/cd"

	chain, err := BuildChain(cfg, mfs, ZipMounter, quietLogger())
	require.NoError(t, err)
	defer chain.retire()

	require.NotNil(t, chain.Trusted())
	assert.Equal(t, RootCd, chain.Trusted().Root)
}

func TestSearchPaths(t *testing.T) {
	mfs := populateRoots(t)
	gfs := newTestFS(t, memConfig(), mfs)

	paths, err := gfs.SearchPaths()
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	assert.True(t, strings.HasPrefix(paths[0], "/home/main/"), paths[0])
	assert.Contains(t, strings.Join(paths, "\n"), "/base/main/pak10.iwd (base, 1 files)")

	cfg := memConfig()
	cfg.Restricted = true
	require.NoError(t, gfs.Restart(cfg))
	paths, err = gfs.SearchPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"/base/main/pak0.iwd (base, 1 files) [restricted]"}, paths)
}

func TestNotInitialized(t *testing.T) {
	gfs := newTestFS(t, memConfig(), mustNewMemFS())
	require.NoError(t, gfs.Shutdown())
	assert.False(t, gfs.Initialized())

	_, _, err := gfs.OpenRead("x.cfg")
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = gfs.SearchPaths()
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = gfs.Read(1, make([]byte, 1))
	assert.ErrorIs(t, err, ErrNotInitialized)
}
