package gamefs

import (
	"errors"
	"io"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArchiveName(t *testing.T) {
	tests := []struct {
		file   string
		name   string
		ext    string
		suffix int
	}{
		{"pak0.iwd", "pak0", ".iwd", 0},
		{"pak12.iwd", "pak12", ".iwd", 12},
		{"iw_07.iwd", "iw_07", ".iwd", 7},
		{"localized.pk3", "localized", ".pk3", -1},
		{"noext", "noext", "", -1},
	}
	for _, tt := range tests {
		name, ext, suffix := splitArchiveName(tt.file)
		if name != tt.name || ext != tt.ext || suffix != tt.suffix {
			t.Errorf("splitArchiveName(%q) = %q, %q, %d; want %q, %q, %d",
				tt.file, name, ext, suffix, tt.name, tt.ext, tt.suffix)
		}
	}
}

func TestArchiveMatcher(t *testing.T) {
	m, err := newArchiveMatcher(DefaultArchivePatterns)
	require.NoError(t, err)

	for _, name := range []string{"pak0.iwd", "PAK1.IWD", "mod.pk3"} {
		assert.True(t, m.Match(name), name)
	}
	for _, name := range []string{"readme.txt", "pak0.iwd.bak", "mod.ff"} {
		assert.False(t, m.Match(name), name)
	}

	none, err := newArchiveMatcher(nil)
	require.NoError(t, err)
	assert.False(t, none.Match("pak0.iwd"))
}

func TestZipArchive(t *testing.T) {
	mfs := mustNewMemFS()
	writeZip(t, mfs, "/base/main/pak0.iwd",
		zipEntry{"weapons/rifle.cfg", "damage 30"},
		zipEntry{"Sound/Test.wav", "RIFF"},
	)

	a, err := ZipMounter.Mount(mfs, "/base/main/pak0.iwd")
	require.NoError(t, err)
	defer a.Close()

	names := a.Entries()
	sort.Strings(names)
	assert.Equal(t, []string{"Sound/Test.wav", "weapons/rifle.cfg"}, names)

	for _, name := range []string{`Sound\Test.wav`, "sound/test.wav", "SOUND:TEST.WAV"} {
		c, err := a.OpenEntry(name)
		require.NoError(t, err, name)
		data, err := io.ReadAll(c)
		require.NoError(t, err)
		assert.Equal(t, "RIFF", string(data))
		assert.EqualValues(t, 4, c.Size())
		assert.Positive(t, c.BaseOffset())
		require.NoError(t, c.Close())
	}

	_, err = a.OpenEntry("missing.cfg")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestZipCursorSeekToBase(t *testing.T) {
	mfs := mustNewMemFS()
	writeZip(t, mfs, "/p.iwd", zipEntry{"a.txt", "0123456789"})

	a, err := ZipMounter.Mount(mfs, "/p.iwd")
	require.NoError(t, err)
	defer a.Close()

	c, err := a.OpenEntry("a.txt")
	require.NoError(t, err)
	defer c.Close()

	buf := make([]byte, 4)
	_, err = io.ReadFull(c, buf)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(buf))

	require.NoError(t, c.SeekToBase())
	_, err = io.ReadFull(c, buf)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(buf))
}

func TestZipMountRejectsGarbage(t *testing.T) {
	mfs := mustNewMemFS()
	writeFile(t, mfs, "/broken.iwd", "not a zip file")

	_, err := ZipMounter.Mount(mfs, "/broken.iwd")
	assert.Error(t, err)
}

// countingArchive records Close calls
type countingArchive struct {
	Archive
	closes int
}

func (c *countingArchive) Close() error {
	c.closes++
	return nil
}

func TestMountedArchiveRetire(t *testing.T) {
	inner := &countingArchive{}
	ma := &mountedArchive{Archive: inner}

	ma.acquire()
	ma.acquire()
	require.NoError(t, ma.retire())
	assert.Equal(t, 0, inner.closes, "closed while referenced")

	require.NoError(t, ma.release())
	assert.Equal(t, 0, inner.closes)
	require.NoError(t, ma.release())
	assert.Equal(t, 1, inner.closes)

	// further releases never close twice
	require.NoError(t, ma.release())
	require.NoError(t, ma.retire())
	assert.Equal(t, 1, inner.closes)
}

func TestMountedArchiveReferenceName(t *testing.T) {
	ma := &mountedArchive{name: "pak1", ext: ".iwd"}
	assert.Equal(t, "main/pak1.iwd", ma.referenceName("main"))
}
