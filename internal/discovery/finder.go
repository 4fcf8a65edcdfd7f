// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package discovery

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/gentests/internal/ctxlog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const (
	classExt = ".class"

	// maxRootScanners bounds how many roots are searched at the same time.
	maxRootScanners = 4
)

var (
	// ErrNoRoots is returned when Find is called without search roots.
	ErrNoRoots = errors.New("no search roots given")
	// ErrDiscovery wraps every failure collected while searching the roots.
	ErrDiscovery = errors.New("class discovery failed")
	// ErrRootNotFound is collected for a root that does not exist.
	ErrRootNotFound = errors.New("search root not found")
	// ErrUnsupportedRoot is collected for a root that is neither a directory nor an archive.
	ErrUnsupportedRoot = errors.New("search root must be a directory, .jar or .zip")
	// ErrReadArchive is collected for an archive that cannot be opened.
	ErrReadArchive = errors.New("cannot read archive")
	// ErrReadClass is collected for a class file that cannot be read or parsed.
	ErrReadClass = errors.New("cannot read class file")
)

// Options tunes Find.
type Options struct {
	// Recursive includes classes in sub-packages.
	Recursive bool
}

// Find returns the sorted binary names of the testable classes in package pkg.
// Roots are searched concurrently, but the first root in the list that provides
// a class wins. Failures from all roots are collected and returned together.
func Find(ctx context.Context, pkg string, roots []string, opts Options) ([]string, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}

	fsys := FsFactory()
	finders := make([]*finder, len(roots))
	errs := make([]error, len(roots))

	var g errgroup.Group

	g.SetLimit(maxRootScanners)

	for i, root := range roots {
		finders[i] = &finder{
			fs:   fsys,
			pkg:  pkg,
			dir:  strings.ReplaceAll(pkg, ".", "/"),
			opts: opts,
			seen: make(map[string]struct{}),
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			errs[i] = finders[i].searchRoot(ctx, root)

			return nil
		})
	}

	_ = g.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, errors.Join(ErrDiscovery, ctxErr)
	}

	var err error

	for _, rootErr := range errs {
		if rootErr != nil {
			err = multierror.Append(err, rootErr)
		}
	}

	if err != nil {
		return nil, errors.Join(ErrDiscovery, err)
	}

	found := merge(ctx, roots, finders)

	ctxlog.Debug(ctx, "classes discovered", "package", pkg, "roots", len(roots), "count", len(found))

	return found, nil
}

// merge combines the classes of every root, keeping the first root's copy of a class.
func merge(ctx context.Context, roots []string, finders []*finder) []string {
	seen := make(map[string]struct{})

	var found []string

	for i, f := range finders {
		for _, name := range f.found {
			if _, dup := seen[name]; dup {
				ctxlog.Debug(ctx, "class shadowed by earlier root", "class", name, "root", roots[i])
				continue
			}

			seen[name] = struct{}{}
			found = append(found, name)
		}
	}

	slices.Sort(found)

	return found
}

// finder collects the classes of one root.
type finder struct {
	fs    afero.Fs
	pkg   string
	dir   string
	opts  Options
	seen  map[string]struct{}
	found []string
}

func (f *finder) searchRoot(ctx context.Context, root string) error {
	info, err := f.fs.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
	}

	if info.IsDir() {
		return f.searchDir(ctx, root)
	}

	switch strings.ToLower(filepath.Ext(root)) {
	case ".jar", ".zip":
		return f.searchArchive(ctx, root, info.Size())
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedRoot, root)
	}
}

func (f *finder) searchDir(ctx context.Context, root string) error {
	base := filepath.Join(root, filepath.FromSlash(f.dir))

	if ok, _ := afero.DirExists(f.fs, base); !ok {
		ctxlog.Debug(ctx, "package not present in root", "root", root, "package", f.pkg)
		return nil
	}

	var result error

	walkErr := afero.Walk(f.fs, base, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: %s: %w", ErrReadClass, p, err))
			return nil
		}

		if info.IsDir() {
			if p != base && !f.opts.Recursive {
				return filepath.SkipDir
			}

			return nil
		}

		if !isCandidate(info.Name()) {
			return nil
		}

		file, err := f.fs.Open(p)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: %s: %w", ErrReadClass, p, err))
			return nil
		}
		defer file.Close() //nolint:errcheck

		if err := f.consider(ctx, p, file); err != nil {
			result = multierror.Append(result, err)
		}

		return nil
	})
	if walkErr != nil {
		result = multierror.Append(result, walkErr)
	}

	return result
}

func (f *finder) searchArchive(ctx context.Context, root string, size int64) error {
	file, err := f.fs.Open(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadArchive, root, err)
	}
	defer file.Close() //nolint:errcheck

	zr, err := zip.NewReader(file, size)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadArchive, root, err)
	}

	prefix := ""
	if f.dir != "" {
		prefix = f.dir + "/"
	}

	var result error

	for _, zf := range zr.File {
		rest, ok := strings.CutPrefix(zf.Name, prefix)
		if !ok || zf.FileInfo().IsDir() {
			continue
		}

		if !f.opts.Recursive && strings.Contains(rest, "/") {
			continue
		}

		if !isCandidate(path.Base(rest)) {
			continue
		}

		entry := root + "!/" + zf.Name

		rc, err := zf.Open()
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: %s: %w", ErrReadClass, entry, err))
			continue
		}

		if err := f.consider(ctx, entry, rc); err != nil {
			result = multierror.Append(result, err)
		}

		_ = rc.Close()
	}

	return result
}

// consider parses one class file and records it if it is a test target.
func (f *finder) consider(ctx context.Context, location string, r io.Reader) error {
	ci, err := ParseClass(r)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadClass, location, err)
	}

	if reason := f.skipReason(ci); reason != "" {
		ctxlog.Debug(ctx, "class skipped", "class", ci.Name, "reason", reason)
		return nil
	}

	if _, dup := f.seen[ci.Name]; dup {
		ctxlog.Debug(ctx, "class seen twice in one root", "class", ci.Name, "location", location)
		return nil
	}

	f.seen[ci.Name] = struct{}{}
	f.found = append(f.found, ci.Name)

	return nil
}

func (f *finder) skipReason(ci *ClassInfo) string {
	switch {
	case ci.IsModule():
		return "module descriptor"
	case ci.IsInterface():
		return "interface"
	case ci.IsSynthetic():
		return "synthetic"
	case ci.IsAnonymousOrLocal():
		return "anonymous or local class"
	case !f.inPackage(ci.Package()):
		return "declared in another package"
	default:
		return ""
	}
}

func (f *finder) inPackage(p string) bool {
	if p == f.pkg {
		return true
	}

	if !f.opts.Recursive {
		return false
	}

	return f.pkg == "" || strings.HasPrefix(p, f.pkg+".")
}

func isCandidate(name string) bool {
	if !strings.HasSuffix(name, classExt) {
		return false
	}

	switch name {
	case "module-info.class", "package-info.class":
		return false
	default:
		return true
	}
}
