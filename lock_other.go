//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package gamefs

import "io"

// Advisory locks are only taken where fcntl is available.
func lockFile(io.Closer, bool) error { return nil }
func unlockFile(io.Closer) error     { return nil }
