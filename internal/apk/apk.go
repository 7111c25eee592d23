// Package apk opens Android packages and parses the dex images inside.
package apk

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"dexgraph/internal/dex"
)

var dexEntry = regexp.MustCompile(`^classes(\d*)\.dex$`)

// Package is a set of dex images loaded from one container.
type Package struct {
	Path  string
	Names []string
	Files []*dex.File
}

// Options tune Open.
type Options struct {
	// Workers bounds parallel dex decoding. Zero means GOMAXPROCS.
	Workers int
}

// Open reads path. A zip container contributes every classesN.dex entry in
// numeric order; any other file is parsed as a single dex image.
func Open(path string, opts Options) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	var magic [4]byte
	_, err = io.ReadFull(f, magic[:])
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if string(magic[:]) != "PK\x03\x04" {
		df, err := dex.Open(path)
		if err != nil {
			return nil, err
		}
		return &Package{Path: path, Names: []string{filepath.Base(path)}, Files: []*dex.File{df}}, nil
	}

	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open APK %s: %w", path, err)
	}
	defer rc.Close()
	return FromZip(path, &rc.Reader, opts)
}

// FromZip parses the dex entries of an already opened archive.
func FromZip(name string, z *zip.Reader, opts Options) (*Package, error) {
	var entries []*zip.File
	for _, zf := range z.File {
		if dexEntry.MatchString(zf.Name) {
			entries = append(entries, zf)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: no classes.dex entry", name)
	}
	sort.Slice(entries, func(i, j int) bool { return entryOrder(entries[i].Name) < entryOrder(entries[j].Name) })

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	pkg := &Package{Path: name, Names: make([]string, len(entries)), Files: make([]*dex.File, len(entries))}
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, zf := range entries {
		pkg.Names[i] = zf.Name
		g.Go(func() error {
			df, err := readEntry(zf)
			if err != nil {
				return fmt.Errorf("%s!%s: %w", name, zf.Name, err)
			}
			df.Path = name + "!" + zf.Name
			pkg.Files[i] = df
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pkg, nil
}

func readEntry(zf *zip.File) (*dex.File, error) {
	r, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return dex.Parse(data)
}

// entryOrder puts classes.dex first, then classes2.dex, classes3.dex...
func entryOrder(name string) int {
	m := dexEntry.FindStringSubmatch(name)
	if m == nil || m[1] == "" {
		return 1
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// Classes returns the class definitions of every image in order.
func (p *Package) Classes() []*dex.ClassDef {
	var out []*dex.ClassDef
	for _, f := range p.Files {
		out = append(out, f.Classes()...)
	}
	return out
}

// Close releases mapped images.
func (p *Package) Close() error {
	var errs []error
	for _, f := range p.Files {
		if f != nil {
			errs = append(errs, f.Close())
		}
	}
	return errors.Join(errs...)
}
