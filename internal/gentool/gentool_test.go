// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package gentool

import (
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubFs(t *testing.T, files ...string) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte("jar"), 0o644))
	}

	stubs := gostub.Stub(&FsFactory, func() afero.Fs {
		return fs
	})
	t.Cleanup(stubs.Reset)
}

func TestNewBuilder_Template(t *testing.T) {
	stubFs(t, "/tools/randoop-all.jar")

	b, err := NewBuilder(t.Context(), Options{
		JVMArgs:         []string{"-Xmx2g"},
		RandoopJar:      "/tools/randoop-all.jar",
		ClassRoots:      []string{"target/classes"},
		Classpath:       []string{"/m2/dep.jar", "target/classes"},
		PackageName:     "com.example",
		OutputDir:       "target/generated-test-sources/java",
		TimeLimit:       30,
		ExtraParameters: "  --log=randoop.log   --output-limit=50 ",
	})
	require.NoError(t, err)

	sep := string(os.PathListSeparator)
	assert.Equal(t, "/tools/randoop-all.jar"+sep+"target/classes"+sep+"/m2/dep.jar", b.Classpath())

	tmpl := b.Template()
	assert.Equal(t, []string{"java", "-ea", "-Xmx2g", "-classpath", b.Classpath(), MainClass, Command}, tmpl[:7])
	assert.Contains(t, tmpl, "--time-limit=30")
	assert.Contains(t, tmpl, "--junit-package-name=com.example")
	assert.Contains(t, tmpl, "--junit-output-dir=target/generated-test-sources/java")
	assert.Contains(t, tmpl, "--flaky-test-behavior=OUTPUT")
	assert.Contains(t, tmpl, "--call-timeout=5000")
	assert.Equal(t, []string{"--log=randoop.log", "--output-limit=50"}, tmpl[len(tmpl)-2:])

	tmpl[0] = "changed"
	assert.Equal(t, "java", b.Template()[0])
}

func TestNewBuilder_MissingRandoopJar(t *testing.T) {
	stubFs(t)

	b, err := NewBuilder(t.Context(), Options{
		Java:       "/opt/jdk/bin/java",
		RandoopJar: "/tools/missing.jar",
		ClassRoots: []string{"target/classes"},
		OutputDir:  "out",
		TimeLimit:  5,
	})
	require.NoError(t, err)

	assert.Equal(t, "target/classes", b.Classpath())
	assert.Equal(t, "/opt/jdk/bin/java", b.Template()[0])
	assert.False(t, slices.ContainsFunc(b.Template(), func(s string) bool { return strings.Contains(s, "missing.jar") }))
}

func TestNewBuilder_Errors(t *testing.T) {
	stubFs(t)

	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{name: "no output dir", opts: Options{ClassRoots: []string{"c"}, TimeLimit: 1}, wantErr: ErrNoOutputDir},
		{name: "zero time limit", opts: Options{ClassRoots: []string{"c"}, OutputDir: "o"}, wantErr: ErrInvalidTimeLimit},
		{name: "empty classpath", opts: Options{OutputDir: "o", TimeLimit: 1}, wantErr: ErrEmptyClasspath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(t.Context(), tt.opts)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPerTarget(t *testing.T) {
	stubFs(t)

	b, err := NewBuilder(t.Context(), Options{ClassRoots: []string{"c"}, OutputDir: "o", TimeLimit: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"--testclass=com.example.Outer$Inner",
		"--regression-test-basename=InnerRandoopTest",
		"--junit-package-name=com.example",
	}, b.PerTarget("com.example.Outer$Inner"))
}

func TestNames(t *testing.T) {
	tests := []struct {
		class, simple, pkg string
	}{
		{"com.example.Service", "Service", "com.example"},
		{"com.example.Outer$Inner", "Inner", "com.example"},
		{"Main", "Main", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.simple, SimpleName(tt.class), tt.class)
		assert.Equal(t, tt.pkg, PackageOf(tt.class), tt.class)
	}
}
