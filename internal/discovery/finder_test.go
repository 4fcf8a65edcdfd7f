// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package discovery

import (
	"archive/zip"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFs(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	stubs := gostub.Stub(&FsFactory, func() afero.Fs {
		return fs
	})
	t.Cleanup(stubs.Reset)

	return fs
}

func writeClass(t *testing.T, fs afero.Fs, root, internalName string, flags uint16) {
	t.Helper()

	require.NoError(t, afero.WriteFile(fs, root+"/"+internalName+".class", classBytes(internalName, flags), 0o644))
}

func writeJar(t *testing.T, fs afero.Fs, name string, classes map[string]uint16) {
	t.Helper()

	f, err := fs.Create(name)
	require.NoError(t, err)

	zw := zip.NewWriter(f)

	_, err = zw.Create("META-INF/")
	require.NoError(t, err)

	for internalName, flags := range classes {
		w, err := zw.Create(internalName + ".class")
		require.NoError(t, err)

		_, err = w.Write(classBytes(internalName, flags))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestFind_Directory(t *testing.T) {
	fs := memFs(t)

	writeClass(t, fs, "/classes", "com/example/Service", AccPublic)
	writeClass(t, fs, "/classes", "com/example/AbstractBase", AccPublic|AccAbstract)
	writeClass(t, fs, "/classes", "com/example/Service$Builder", AccPublic)
	writeClass(t, fs, "/classes", "com/example/Service$1", 0)
	writeClass(t, fs, "/classes", "com/example/Repository", AccPublic|AccInterface|AccAbstract)
	writeClass(t, fs, "/classes", "com/example/Marker", AccInterface|AccAnnotation|AccAbstract)
	writeClass(t, fs, "/classes", "com/example/Lambda", AccSynthetic)
	writeClass(t, fs, "/classes", "com/example/sub/Nested", AccPublic)
	writeClass(t, fs, "/classes", "com/other/Elsewhere", AccPublic)
	require.NoError(t, afero.WriteFile(fs, "/classes/com/example/package-info.class", []byte("ignored"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/classes/com/example/README.txt", []byte("ignored"), 0o644))

	got, err := Find(t.Context(), "com.example", []string{"/classes"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"com.example.AbstractBase",
		"com.example.Service",
		"com.example.Service$Builder",
	}, got)
}

func TestFind_Recursive(t *testing.T) {
	fs := memFs(t)

	writeClass(t, fs, "/classes", "com/example/Service", AccPublic)
	writeClass(t, fs, "/classes", "com/example/sub/Nested", AccPublic)
	writeClass(t, fs, "/classes", "com/examples/NotASubPackage", AccPublic)

	got, err := Find(t.Context(), "com.example", []string{"/classes"}, Options{Recursive: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"com.example.Service", "com.example.sub.Nested"}, got)
}

func TestFind_Jar(t *testing.T) {
	fs := memFs(t)

	writeJar(t, fs, "/libs/app.jar", map[string]uint16{
		"com/example/FromJar":       AccPublic,
		"com/example/JarInterface":  AccInterface | AccAbstract,
		"com/example/deep/Deeper":   AccPublic,
		"org/unrelated/Third":       AccPublic,
		"com/example/FromJar$2Util": 0,
	})

	got, err := Find(t.Context(), "com.example", []string{"/libs/app.jar"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.FromJar"}, got)

	got, err = Find(t.Context(), "com.example", []string{"/libs/app.jar"}, Options{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.FromJar", "com.example.deep.Deeper"}, got)
}

func TestFind_MultipleRootsDeduplicate(t *testing.T) {
	fs := memFs(t)

	writeClass(t, fs, "/classes", "com/example/Service", AccPublic)
	writeJar(t, fs, "/libs/app.jar", map[string]uint16{
		"com/example/Service": AccPublic,
		"com/example/Extra":   AccPublic,
	})

	got, err := Find(t.Context(), "com.example", []string{"/classes", "/libs/app.jar"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.Extra", "com.example.Service"}, got)
}

func TestFind_ManyRootsMergeInOrder(t *testing.T) {
	fs := memFs(t)

	var (
		roots []string
		want  []string
	)

	for i := range maxRootScanners * 3 {
		root := fmt.Sprintf("/module%02d/classes", i)
		roots = append(roots, root)

		writeClass(t, fs, root, fmt.Sprintf("com/example/Only%02d", i), AccPublic)
		writeClass(t, fs, root, "com/example/Shared", AccPublic)
		want = append(want, fmt.Sprintf("com.example.Only%02d", i))
	}

	want = append(want, "com.example.Shared")

	got, err := Find(t.Context(), "com.example", roots, Options{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFind_PackageMissingFromRoot(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, fs.MkdirAll("/classes/org", 0o755))

	got, err := Find(t.Context(), "com.example", []string{"/classes"}, Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFind_Errors(t *testing.T) {
	fs := memFs(t)

	writeClass(t, fs, "/classes", "com/example/Good", AccPublic)
	require.NoError(t, afero.WriteFile(fs, "/classes/com/example/Broken.class", []byte{0xCA, 0xFE}, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/libs/notazip.jar", []byte("plain text"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/libs/deps.txt", []byte("x"), 0o644))

	got, err := Find(t.Context(), "com.example",
		[]string{"/classes", "/missing", "/libs/notazip.jar", "/libs/deps.txt"}, Options{})

	require.ErrorIs(t, err, ErrDiscovery)
	assert.Nil(t, got)

	require.ErrorIs(t, err, ErrReadClass)
	require.ErrorIs(t, err, ErrRootNotFound)
	require.ErrorIs(t, err, ErrReadArchive)
	require.ErrorIs(t, err, ErrUnsupportedRoot)
	assert.True(t, strings.Contains(err.Error(), "Broken.class"))
}

func TestFind_NoRoots(t *testing.T) {
	_, err := Find(t.Context(), "com.example", nil, Options{})
	require.ErrorIs(t, err, ErrNoRoots)
}

func TestFind_Cancelled(t *testing.T) {
	fs := memFs(t)
	writeClass(t, fs, "/classes", "com/example/Service", AccPublic)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Find(ctx, "com.example", []string{"/classes"}, Options{})
	require.ErrorIs(t, err, context.Canceled)
}
