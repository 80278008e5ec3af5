/*
Package gamefs provides the virtual filesystem layer of a game server: content
is addressed by a logical path (a "qpath") and resolved against an ordered
chain of loose directories and pak archives, and open files are served through
a fixed-size table of numeric handles.

# Overview

A game install is spread over up to three roots (a writable home directory, the
base install and an optional read-only CD) and up to three namespaces (the
current mod, a base mod and the base game). GameFS combines them into one view.
Reads walk the chain until the first hit; writes always land below the home
root in the current namespace.

# Search Path Order

The chain is namespace-major and root-minor:

	current mod:  home, base, cd
	base mod:     home, base, cd
	base game:    home, base, cd

Within each (namespace, root) pair every mounted archive is tried before the
loose directory, and archives are tried highest numeric suffix first, so
pak2.iwd overrides pak1.iwd which overrides pak0.iwd. The home root is skipped
when it is the same directory as the base root.

# Basic Usage

	cfg := gamefs.DefaultConfig()
	cfg.BasePath = "/opt/game"
	cfg.HomePath = "/home/game/.game"
	cfg.Game = "mods/mymod"

	gfs, err := gamefs.New(cfg, gamefs.WithLogger(logrus.StandardLogger()))
	if err != nil {
	    log.Fatal(err)
	}
	defer gfs.Shutdown()

	// Resolve through the chain
	h, size, err := gfs.OpenRead("maps/mp/mp_crash.d3dbsp")
	buf := make([]byte, size)
	n, err := gfs.Read(h, buf)
	gfs.Close(h)

	// Writes go to <home>/mods/mymod/
	err = gfs.WriteWholeFile("players/stats.cfg", data)

# Archives

Archives are zip containers (.iwd, .pk3 by default). Which files in a namespace
directory get mounted is controlled by Config.ArchivePatterns. A different
container format can be plugged in with WithMounter.

Archived handles are forward-only. Seeking from the start reopens the entry and
discards bytes, seeking from the current position discards bytes, and seeking
from the end or backwards is fatal.

# Handles

Handles are small integers. Handle 0 is never valid. The table has a fixed
capacity (Config.MaxHandles) and running out of handles is fatal, as is using a
handle that is not open. Close every handle you open.

# Errors

Errors come in two classes. Fatal errors wrap ErrFatal and mean an invariant
was broken (bad handle, uninitialized filesystem, unsupported seek); check them
with IsFatal. Soft errors such as ErrNotFound and ErrPathRejected are expected
and the caller can carry on.

# Security

Every write-capable entry point refuses host paths containing ".." or "::"
before creating any directory. VerifyReferencedArchive checks archive names
claimed by a peer against the archives actually mounted. In restricted mode
reads only ever resolve against the trusted base archive (Config.TrustedArchive)
while writes to the home root keep working.

# Thread Safety

The chain can be replaced at any time with Restart; a resolution sees either
the old chain or the new one. Handles opened against an old chain stay usable
and its archives are closed once the last such handle is closed. Operations on
a single handle are serialized.
*/
package gamefs
