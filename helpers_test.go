package gamefs

import (
	"io"
	"os"
	"path"
	"testing"

	"github.com/absfs/absfs"
	"github.com/absfs/memfs"
	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
)

// fixtureFS is a host filesystem tests can populate.
type fixtureFS interface {
	HostFS
	MkdirAll(name string, perm os.FileMode) error
}

// mustNewMemFS creates a new memfs or panics
func mustNewMemFS() absfs.FileSystem {
	mfs, err := memfs.NewFS()
	if err != nil {
		panic(err)
	}
	return mfs
}

// osFixture is the real host filesystem rooted wherever the test points it.
type osFixture struct {
	HostFS
}

func (osFixture) MkdirAll(name string, perm os.FileMode) error {
	return os.MkdirAll(name, perm)
}

func newOSFixture() osFixture {
	return osFixture{OSHost()}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// writeFile writes data to name, creating parent directories
func writeFile(t *testing.T, fs fixtureFS, name string, data string) {
	t.Helper()
	if err := fs.MkdirAll(path.Dir(name), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", path.Dir(name), err)
	}
	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if _, err := f.Write([]byte(data)); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", name, err)
	}
}

// readHostFile returns the contents of a host file or "" when missing
func readHostFile(t *testing.T, fs HostFS, name string) string {
	t.Helper()
	f, err := fs.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return ""
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

type zipEntry struct {
	name string
	body string
}

// writeZip builds a zip pak at name holding entries in order
func writeZip(t *testing.T, fs fixtureFS, name string, entries ...zipEntry) {
	t.Helper()
	if err := fs.MkdirAll(path.Dir(name), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", path.Dir(name), err)
	}
	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatalf("zip write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", name, err)
	}
}

// memConfig returns a config rooted in an in-memory tree
func memConfig() Config {
	cfg := DefaultConfig()
	cfg.HomePath = "/home"
	cfg.BasePath = "/base"
	return cfg
}

// newTestFS builds a GameFS over host and shuts it down with the test
func newTestFS(t *testing.T, cfg Config, host HostFS, opts ...Option) *GameFS {
	t.Helper()
	opts = append([]Option{WithHostFS(host), WithLogger(quietLogger())}, opts...)
	gfs, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { gfs.Shutdown() })
	return gfs
}

// readString resolves qpath and returns its contents without the
// terminator byte
func readString(t *testing.T, gfs *GameFS, qpath string) string {
	t.Helper()
	data, err := gfs.ReadWholeFile(qpath)
	if err != nil {
		t.Fatalf("ReadWholeFile(%q): %v", qpath, err)
	}
	return string(data[:len(data)-1])
}
