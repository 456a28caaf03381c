// meshcache builds, inspects and converts combined mesh caches.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshview/internal/cache"
	"github.com/Faultbox/meshview/internal/combiner"
	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/internal/mesh"
	"github.com/Faultbox/meshview/internal/source"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("invalid usage")

func run(command string, args []string, out io.Writer) error {
	var err error
	switch command {
	case "build", "b":
		err = cmdBuild(args, out)
	case "info", "i":
		err = cmdInfo(args, out)
	case "convert", "c":
		err = cmdConvert(args, out)
	case "verify", "v":
		err = cmdVerify(args, out)
	case "help", "-h", "--help":
		printUsage(out)
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `meshcache - combined mesh cache utility

Usage:
  meshcache <command> [options]

Commands:
  build [-format f] [-dir d] [-o out] <source>...  Combine sources and write caches
  info <cache>                                     Show cache layout and bounds
  convert <cache> <out>                            Rewrite a cache in the format of <out>
  verify [-source s] <cache>...                    Load caches and check face indices

Formats: tagged (.mpk), compressed (.npz)

Examples:
  meshcache build -format tagged bunny.obj
  meshcache build "sphere:1.5"  -o sphere.npz
  meshcache info bunny.npz
  meshcache convert bunny.npz bunny.mpk`)
}

func cmdBuild(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	format := fs.String("format", "compressed", "Cache format: tagged or compressed")
	dir := fs.String("dir", "", "Output directory (default: next to each source)")
	output := fs.String("o", "", "Output file; only with a single source")
	debug := fs.Bool("debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("%w: meshcache build [-format f] [-dir d] [-o out] <source>...", errUsage)
	}
	if *output != "" && fs.NArg() > 1 {
		return fmt.Errorf("%w: -o takes a single source", errUsage)
	}
	if *debug {
		if err := logger.Init("debug", ""); err != nil {
			return err
		}
	}

	f, err := cache.ParseFormat(*format)
	if err != nil {
		return err
	}

	for _, path := range fs.Args() {
		rec, err := combiner.CombineFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		dst := *output
		if dst == "" {
			base := path
			if source.IsProcedural(path) {
				base = strings.NewReplacer(":", "_", ",", "_", ".", "_").Replace(path)
			}
			dst = cache.PathFor(base, *dir, f)
		}
		if err := cache.SaveAs(dst, f, rec); err != nil {
			return fmt.Errorf("%s: %w", dst, err)
		}
		fmt.Fprintf(out, "%s -> %s (%d vertices, %d faces)\n", path, dst, rec.VertexCount(), rec.FaceCount())
	}
	return nil
}

func cmdInfo(args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: meshcache info <cache>", errUsage)
	}
	info, err := cache.Inspect(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Cache:    %s\n", info.Path)
	fmt.Fprintf(out, "Format:   %s\n", info.Format)
	fmt.Fprintf(out, "Legacy:   %v\n", info.Legacy)
	fmt.Fprintf(out, "Vertices: %d\n", info.Vertices)
	fmt.Fprintf(out, "Faces:    %d\n", info.Faces)
	if info.HasBounds {
		b := info.Bounds
		fmt.Fprintf(out, "Min:      %g %g %g\n", b.Min[0], b.Min[1], b.Min[2])
		fmt.Fprintf(out, "Max:      %g %g %g\n", b.Max[0], b.Max[1], b.Max[2])
	}
	if len(info.Fields) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Fields:")
		for _, fi := range info.Fields {
			fmt.Fprintf(out, "  %-10s %-6s %v\n", fi.Name, fi.DType, fi.Shape)
		}
	}
	return nil
}

func cmdConvert(args []string, out io.Writer) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: meshcache convert <cache> <out>", errUsage)
	}
	src, dst := args[0], args[1]
	f := cache.FormatFor(dst)
	if f == cache.FormatUnknown {
		return fmt.Errorf("%w: %s", cache.ErrUnknownFormat, filepath.Ext(dst))
	}

	rec, err := cache.Load(src)
	if err != nil {
		return err
	}
	if err := cache.SaveAs(dst, f, rec); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s -> %s (%s)\n", src, dst, f)
	return nil
}

func cmdVerify(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	against := fs.String("source", "", "Rebuild this source and require an identical record")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("%w: meshcache verify [-source s] <cache>...", errUsage)
	}

	failed := 0
	for _, path := range fs.Args() {
		rec, err := cache.Load(path)
		if err == nil && *against != "" {
			err = compare(rec, *against)
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (%d vertices, %d faces)\n", path, rec.VertexCount(), rec.FaceCount())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d caches failed", failed, fs.NArg())
	}
	return nil
}

func compare(rec *mesh.Record, sourcePath string) error {
	want, err := combiner.CombineFile(sourcePath)
	if err != nil {
		return err
	}
	if !rec.Equal(want) {
		return fmt.Errorf("differs from %s", sourcePath)
	}
	return nil
}
