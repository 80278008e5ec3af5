// gamefs inspects a game content tree the way the server resolves it.
//
// Usage:
//
//	gamefs [flags] path
//	gamefs [flags] cat <qpath>
//	gamefs [flags] stat <qpath>
//	gamefs [flags] ls <dir> [ext]
//	gamefs [flags] verify <archive-ref>
//	gamefs [flags] put <qpath> <hostfile>
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/absfs/gamefs"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if gamefs.IsFatal(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(argv []string, out io.Writer) error {
	var (
		configPath string
		cfg        = gamefs.DefaultConfig()
	)

	flagSet := pflag.NewFlagSet("gamefs", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "YAML configuration file")
	flagSet.StringVar(&cfg.HomePath, "home", "", "writable home root (default: base root)")
	flagSet.StringVar(&cfg.BasePath, "base", "", "base install root")
	flagSet.StringVar(&cfg.CdPath, "cd", "", "optional read-only cd root")
	flagSet.StringVar(&cfg.Game, "game", "", "current mod namespace")
	flagSet.BoolVar(&cfg.Restricted, "restricted", false, "only resolve reads against the trusted archive")
	flagSet.BoolVar(&cfg.Debug, "debug", false, "log every host path touched")
	flagSet.SetInterspersed(false)
	flagSet.Usage = func() { printHelp(flagSet) }

	if err := flagSet.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if configPath != "" {
		fileCfg, err := gamefs.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = overlayFlags(fileCfg, cfg, flagSet)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	args := flagSet.Args()
	if len(args) == 0 {
		printHelp(flagSet)
		return errors.New("missing command")
	}

	gfs, err := gamefs.New(cfg, gamefs.WithLogger(log))
	if err != nil {
		return err
	}
	defer gfs.Shutdown()

	cmd, args := args[0], args[1:]
	switch cmd {
	case "path":
		return cmdPath(gfs, out)
	case "cat":
		if len(args) != 1 {
			return errors.New("usage: cat <qpath>")
		}
		return cmdCat(gfs, args[0], out)
	case "stat":
		if len(args) != 1 {
			return errors.New("usage: stat <qpath>")
		}
		return cmdStat(gfs, args[0], out)
	case "ls":
		if len(args) < 1 || len(args) > 2 {
			return errors.New("usage: ls <dir> [ext]")
		}
		ext := ""
		if len(args) == 2 {
			ext = args[1]
		}
		return cmdList(gfs, args[0], ext, out)
	case "verify":
		if len(args) != 1 {
			return errors.New("usage: verify <archive-ref>")
		}
		return cmdVerify(gfs, args[0], out)
	case "put":
		if len(args) != 2 {
			return errors.New("usage: put <qpath> <hostfile>")
		}
		return cmdPut(gfs, args[0], args[1], out)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// overlayFlags applies the flags given on the command line over the values
// loaded from the configuration file.
func overlayFlags(fileCfg, flagCfg gamefs.Config, flagSet *pflag.FlagSet) gamefs.Config {
	if flagSet.Changed("home") {
		fileCfg.HomePath = flagCfg.HomePath
	}
	if flagSet.Changed("base") {
		fileCfg.BasePath = flagCfg.BasePath
	}
	if flagSet.Changed("cd") {
		fileCfg.CdPath = flagCfg.CdPath
	}
	if flagSet.Changed("game") {
		fileCfg.Game = flagCfg.Game
	}
	if flagSet.Changed("restricted") {
		fileCfg.Restricted = flagCfg.Restricted
	}
	if flagSet.Changed("debug") {
		fileCfg.Debug = flagCfg.Debug
	}
	return fileCfg
}

func cmdPath(gfs *gamefs.GameFS, out io.Writer) error {
	paths, err := gfs.SearchPaths()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Current search path:")
	for _, p := range paths {
		fmt.Fprintln(out, p)
	}
	fmt.Fprintf(out, "\n%d handles open, %d search paths\n", gfs.OpenHandles(), len(paths))
	return nil
}

func cmdCat(gfs *gamefs.GameFS, qpath string, out io.Writer) error {
	f, err := gfs.ContentFS().Open(qpath)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(out, f)
	return err
}

func cmdStat(gfs *gamefs.GameFS, qpath string, out io.Writer) error {
	h, size, err := gfs.OpenRead(qpath)
	if err != nil {
		return err
	}
	defer gfs.Close(h)

	source, archived, err := gfs.Source(h)
	if err != nil {
		return err
	}
	kind := "file"
	if archived {
		kind = "archive"
	}
	fmt.Fprintf(out, "%s: %s (%s bytes) from %s %s\n", qpath, humanize.Bytes(uint64(size)), humanize.Comma(size), kind, source)
	return nil
}

func cmdList(gfs *gamefs.GameFS, dir, ext string, out io.Writer) error {
	names, err := gfs.ListFiles(dir, ext)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	fmt.Fprintf(out, "%s files listed\n", humanize.Comma(int64(len(names))))
	return nil
}

func cmdVerify(gfs *gamefs.GameFS, ref string, out io.Writer) error {
	if !gfs.VerifyReferencedArchive(ref) {
		return fmt.Errorf("%s: not a mounted archive", ref)
	}
	fmt.Fprintf(out, "%s: ok\n", ref)
	return nil
}

func cmdPut(gfs *gamefs.GameFS, qpath, hostFile string, out io.Writer) error {
	data, err := os.ReadFile(hostFile)
	if err != nil {
		return err
	}
	if err := gfs.WriteWholeFile(qpath, data); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s to %s\n", humanize.Bytes(uint64(len(data))), gfs.HostPath(gfs.Config().HomePath, "", qpath))
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `gamefs resolves logical content paths through the search path chain.

Usage: gamefs [flags] <command> [args]

Commands:
  path                    print the search path chain
  cat <qpath>             write the resolved file to stdout
  stat <qpath>            show the size and source of the resolved file
  ls <dir> [ext]          list the files visible in a logical directory
  verify <archive-ref>    check a referenced archive name
  put <qpath> <hostfile>  copy a host file into the home root

Flags:
%s`, flagSet.FlagUsages())
}
