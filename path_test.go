package gamefs

import "testing"

func TestNormalizeSeparators(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`maps\mp\crash.bsp`, "maps/mp/crash.bsp"},
		{"maps/mp/crash.bsp", "maps/mp/crash.bsp"},
		{`a\b/c`, "a/b/c"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeSeparators(tt.in); got != tt.want {
			t.Errorf("NormalizeSeparators(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoinHostPath(t *testing.T) {
	got := JoinHostPath("/opt/game", "mods/test", `players\stats.cfg`)
	if want := "/opt/game/mods/test/players/stats.cfg"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// each call returns an independent string
	a := JoinHostPath("/a", "main", "x")
	b := JoinHostPath("/b", "main", "y")
	if a != "/a/main/x" || b != "/b/main/y" {
		t.Errorf("got %q and %q", a, b)
	}
}

func TestHostPathDefaultsNamespace(t *testing.T) {
	mfs := mustNewMemFS()
	cfg := memConfig()
	cfg.Game = "mods/test"
	gfs := newTestFS(t, cfg, mfs)

	if got, want := gfs.HostPath("/home", "", "a.cfg"), "/home/mods/test/a.cfg"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := gfs.HostPath("/home", "main", "a.cfg"), "/home/main/a.cfg"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPathEqual(t *testing.T) {
	same := []string{`Sound\Test.wav`, "sound/test.wav", "SOUND:TEST.WAV"}
	for _, a := range same {
		for _, b := range same {
			if !PathEqual(a, b) {
				t.Errorf("PathEqual(%q, %q) = false", a, b)
			}
		}
	}

	different := [][2]string{
		{"sound/test.wav", "sound/test.wa"},
		{"sound/test.wav", "sound/rest.wav"},
		// only ASCII letters fold
		{"caf\xc3\xa9", "CAF\xc3\x89"},
	}
	for _, p := range different {
		if PathEqual(p[0], p[1]) {
			t.Errorf("PathEqual(%q, %q) = true", p[0], p[1])
		}
	}
}

func TestPathCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"abc", "ABC", 0},
		{"a/b", `A\B`, 0},
		{"abc", "abd", -1},
		{"abd", "ABC", 1},
		{"ab", "abc", -1},
		{"abc", "ab", 1},
		// '_' sorts after upper case letters once folded
		{"a_b", "aZb", 1},
	}
	for _, tt := range tests {
		if got := PathCompare(tt.a, tt.b); got != tt.want {
			t.Errorf("PathCompare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsExt(t *testing.T) {
	tests := []struct {
		name, ext string
		want      bool
	}{
		{"pak0.IWD", ".iwd", true},
		{"pak0.iwd", ".IWD", true},
		{"pak0.pk3", ".iwd", false},
		{"iwd", ".iwd", false},
		{"x.cfg", "", true},
	}
	for _, tt := range tests {
		if got := IsExt(tt.name, tt.ext); got != tt.want {
			t.Errorf("IsExt(%q, %q) = %v, want %v", tt.name, tt.ext, got, tt.want)
		}
	}
}

func TestHasTraversal(t *testing.T) {
	for _, p := range []string{"../x", "a/../b", "a/..", "c::d", `..\x`} {
		if !hasTraversal(p) {
			t.Errorf("hasTraversal(%q) = false", p)
		}
	}
	for _, p := range []string{"a/b.cfg", "c:/x", ".hidden", "a.b.c"} {
		if hasTraversal(p) {
			t.Errorf("hasTraversal(%q) = true", p)
		}
	}
}
