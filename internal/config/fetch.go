// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/spf13/afero"
)

// ErrGetConfigFile is returned when the configuration file cannot be fetched.
var ErrGetConfigFile = errors.New("failed to get config file")

// FS is the filesystem plain local config paths are read from.
var FS = afero.NewOsFs()

const (
	getterForcePrefix = "::"
	getterSchemeSep   = "://"
	getterSubdirSep   = "//"
	getterQuerySep    = "?"
)

// Load fetches the configuration at src and parses it. src is a local path or
// anything go-getter understands, such as
// git::https://github.com/org/repo//ci/gentests.yaml?ref=v1.
func Load(ctx context.Context, src string) (*Config, error) {
	b, err := fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	return Parse(b)
}

func fetch(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: no location given", ErrGetConfigFile)
	}

	if isPlainPath(src) {
		if ok, _ := afero.Exists(FS, src); ok {
			b, err := afero.ReadFile(FS, src)
			if err != nil {
				return nil, errors.Join(ErrGetConfigFile, err)
			}

			return b, nil
		}
	}

	return fetchRemote(ctx, src)
}

// isPlainPath reports whether src carries no go-getter forcing or scheme.
func isPlainPath(src string) bool {
	return !strings.Contains(src, getterForcePrefix) && !strings.Contains(src, getterSchemeSep)
}

// fetchRemote downloads src into a temporary directory. A source with a
// subdirectory (repo//dir/file.yaml) is fetched as a directory, since getters
// like git cannot fetch single files; anything else is fetched as a file.
func fetchRemote(ctx context.Context, src string) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "gentests-config-*")
	if err != nil {
		return nil, errors.Join(ErrGetConfigFile, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrGetConfigFile, err)
	}

	req := &getter.Request{
		Src:     src,
		Dst:     filepath.Join(tmpDir, "gentests.yaml"),
		Pwd:     wd,
		GetMode: getter.ModeFile,
		Copy:    true,
	}

	file := req.Dst

	if repo, name, ok := splitConfigSource(src); ok {
		req.Src = repo
		req.Dst = filepath.Join(tmpDir, "src")
		req.GetMode = getter.ModeDir
		file = filepath.Join(req.Dst, filepath.FromSlash(name))
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	if _, err := client.Get(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrGetConfigFile, src, err)
	}

	b, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Join(ErrGetConfigFile, err)
	}

	return b, nil
}

// splitConfigSource splits a go-getter source with a subdirectory into the source
// to fetch and the file path inside it. The query is kept on the source.
// It reports false when there is no subdirectory or it names no file.
func splitConfigSource(src string) (string, string, bool) {
	body, query, _ := strings.Cut(src, getterQuerySep)

	// Skip the scheme separator so it is not taken for the subdirectory one.
	offset := 0
	if i := strings.Index(body, getterSchemeSep); i >= 0 {
		offset = i + len(getterSchemeSep)
	}

	i := strings.LastIndex(body[offset:], getterSubdirSep)
	if i < 0 {
		return "", "", false
	}

	repo := body[:offset+i]
	sub := path.Clean(body[offset+i+len(getterSubdirSep):])

	dir, name := path.Split(sub)
	if repo == "" || name == "" || name == "." {
		return "", "", false
	}

	if dir = strings.TrimSuffix(dir, "/"); dir != "" {
		repo += getterSubdirSep + dir
	}

	if query != "" {
		repo += getterQuerySep + query
	}

	return repo, name, true
}
