package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"dexgraph/internal/apk"
	"dexgraph/internal/config"
	"dexgraph/internal/core"
	"dexgraph/internal/dump"
	"dexgraph/internal/loader"
)

// analysis is one loaded input: the session over it plus what the
// commands report about it.
type analysis struct {
	Path      string
	Digest    string
	Session   *loader.Session
	Stats     loader.Stats
	Framework int

	pkgs []*apk.Package
}

// analyze loads the framework configured in cfg, if any, and then the app
// at path.
func analyze(ctx context.Context, cfg *config.Config, path string, logger *log.Logger) (*analysis, error) {
	digest, err := dump.FileDigest(path)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate digest: %w", err)
	}

	scope := core.NewScope(filepath.Base(path))
	scope.SetLogger(logger)
	a := &analysis{
		Path:    path,
		Digest:  digest,
		Session: loader.NewWithScope(scope, loader.Options{Translate: cfg.Translate}),
	}
	opts := apk.Options{Workers: cfg.WorkerLimit()}

	if fw := cfg.FrameworkPath(); fw != "" {
		pkg, err := apk.Open(fw, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to load framework: %w", err)
		}
		a.pkgs = append(a.pkgs, pkg)
		a.Framework = a.Session.LoadFramework(pkg)
	}
	if err := ctx.Err(); err != nil {
		a.Close()
		return nil, err
	}

	pkg, err := apk.Open(path, opts)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load file: %w", err)
	}
	a.pkgs = append(a.pkgs, pkg)
	a.Stats = a.Session.LoadApp(pkg)
	return a, nil
}

func (a *analysis) Scope() *core.Scope { return a.Session.Scope() }

// Close releases the mapped images. The scope stays usable for classes
// that were already detailed.
func (a *analysis) Close() error {
	var errs []error
	for _, p := range a.pkgs {
		errs = append(errs, p.Close())
	}
	a.pkgs = nil
	return errors.Join(errs...)
}
