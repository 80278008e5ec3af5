package gamefs

import (
	"strings"
)

// Separator is the canonical separator used in every host path this package
// builds. Go's os package accepts it on every supported platform.
const Separator = '/'

// NormalizeSeparators replaces every forward or backward slash with Separator.
func NormalizeSeparators(p string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return Separator
		}
		return r
	}, p)
}

// JoinHostPath renders root + "/" + namespace + "/" + qpath with normalized
// separators. The returned string is freshly allocated on every call.
func JoinHostPath(root, namespace, qpath string) string {
	return root + NormalizeSeparators("/"+namespace+"/"+qpath)
}

// joinServerPath renders root + "/" + name for server-rooted paths that carry
// no namespace segment.
func joinServerPath(root, name string) string {
	return root + NormalizeSeparators("/"+name)
}

// foldByte maps one byte onto its comparison form: ASCII letters are upper
// cased, '\\' and ':' become '/'. Other bytes, including non-ASCII, are kept.
func foldByte(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	if c == '\\' || c == ':' {
		return '/'
	}
	return c
}

// foldPath returns the comparison form of p, suitable as a map key for
// separator and case insensitive lookups.
func foldPath(p string) string {
	b := make([]byte, len(p))
	for i := 0; i < len(p); i++ {
		b[i] = foldByte(p[i])
	}
	return string(b)
}

// PathEqual reports whether two logical paths name the same file, ignoring
// ASCII case and treating '\\', ':' and '/' as the same separator.
func PathEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if foldByte(a[i]) != foldByte(b[i]) {
			return false
		}
	}
	return true
}

// PathCompare orders two logical paths after the same folding PathEqual
// applies. It returns -1, 0 or 1.
func PathCompare(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ca, cb := foldByte(a[i]), foldByte(b[i])
		if ca < cb {
			return -1
		}
		if ca > cb {
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// IsExt reports whether filename ends with ext, ignoring ASCII case.
func IsExt(filename, ext string) bool {
	if len(ext) > len(filename) {
		return false
	}
	return PathEqual(filename[len(filename)-len(ext):], ext)
}

// hasTraversal reports whether p contains a parent-directory or
// drive-chaining token.
func hasTraversal(p string) bool {
	return strings.Contains(p, "..") || strings.Contains(p, "::")
}
