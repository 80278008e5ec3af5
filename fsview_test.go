package gamefs

import (
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentFS(t *testing.T) {
	mfs := mustNewMemFS()
	writeZip(t, mfs, "/base/main/pak0.iwd", zipEntry{"scripts/init.gsc", "main() {}"})
	writeFile(t, mfs, "/home/main/motd.txt", "welcome")
	gfs := newTestFS(t, memConfig(), mfs)
	cfs := gfs.ContentFS()

	data, err := fs.ReadFile(cfs, "scripts/init.gsc")
	require.NoError(t, err)
	assert.Equal(t, "main() {}", string(data))

	f, err := cfs.Open("motd.txt")
	require.NoError(t, err)
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "motd.txt", info.Name())
	assert.EqualValues(t, 7, info.Size())
	data, err = io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "welcome", string(data))
	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Close(), fs.ErrClosed)
	assert.Equal(t, 0, gfs.OpenHandles())

	_, err = cfs.Open("missing.txt")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = fs.ReadFile(cfs, "missing.txt")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = cfs.Open("../escape")
	assert.True(t, errors.Is(err, fs.ErrInvalid))
}
