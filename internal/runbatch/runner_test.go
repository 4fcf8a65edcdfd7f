// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/matt-FFFFFF/gentests/internal/ctxlog"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	t.Helper()

	return ctxlog.New(t.Context(), ctxlog.DefaultLogger)
}

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
}

func shJob(t *testing.T, script string, timeout int) *Job {
	t.Helper()

	job, err := NewJob("com.example.Foo", []string{"/bin/sh", "-c", script}, "", timeout)
	require.NoError(t, err)

	return job
}

func TestRunner_Success(t *testing.T) {
	skipOnWindows(t)

	out := (&Runner{}).Run(testContext(t), shJob(t, "echo hello", 5))

	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, 0, out.ExitCode)
	assert.Equal(t, "com.example.Foo", out.TargetID)
	assert.Contains(t, string(out.Output), "hello")
	assert.NoError(t, out.Err())
	assert.Positive(t, out.Duration)
}

func TestRunner_NonZeroExit(t *testing.T) {
	skipOnWindows(t)

	out := (&Runner{}).Run(testContext(t), shJob(t, "echo failing; exit 2", 5))

	assert.Equal(t, StatusNonZeroExit, out.Status)
	assert.Equal(t, 2, out.ExitCode)
	assert.Equal(t, "exit code 2", out.Detail())
	require.ErrorIs(t, out.Err(), ErrNonZeroExit)
	assert.Contains(t, string(out.Output), "failing")
}

func TestRunner_MergesStderr(t *testing.T) {
	skipOnWindows(t)

	out := (&Runner{}).Run(testContext(t), shJob(t, "echo to-stdout; echo to-stderr 1>&2", 5))

	require.Equal(t, StatusSuccess, out.Status)
	assert.Contains(t, string(out.Output), "to-stdout")
	assert.Contains(t, string(out.Output), "to-stderr")
}

func TestRunner_WorkingDirectory(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()

	job, err := NewJob("com.example.Foo", []string{"/bin/sh", "-c", "pwd"}, dir, 5)
	require.NoError(t, err)

	out := (&Runner{}).Run(testContext(t), job)

	require.Equal(t, StatusSuccess, out.Status)
	assert.Contains(t, string(out.Output), filepath.Base(dir))
}

func TestRunner_LaunchFailures(t *testing.T) {
	skipOnWindows(t)

	missingDir := filepath.Join(t.TempDir(), "missing")

	tests := []struct {
		name       string
		tokens     []string
		workingDir string
		wantMsg    string
	}{
		{name: "empty command", tokens: nil, wantMsg: ErrNoCommand.Error()},
		{name: "not on path", tokens: []string{"gentests-no-such-executable"}, wantMsg: ErrCouldNotStartProcess.Error()},
		{name: "absolute path missing", tokens: []string{"/not/a/real/command"}, wantMsg: ErrCouldNotStartProcess.Error()},
		{name: "bad working directory", tokens: []string{"/bin/sh", "-c", "true"}, workingDir: missingDir, wantMsg: ErrCouldNotStartProcess.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := NewJob("com.example.Foo", tt.tokens, tt.workingDir, 5)
			require.NoError(t, err)

			out := (&Runner{}).Run(testContext(t), job)

			assert.Equal(t, StatusLaunchFailed, out.Status)
			assert.Equal(t, -1, out.ExitCode)
			assert.Contains(t, out.Message, tt.wantMsg)
			require.ErrorIs(t, out.Err(), ErrLaunchFailed)
		})
	}
}

func TestRunner_BadWorkingDirectory(t *testing.T) {
	skipOnWindows(t)

	missingDir := filepath.Join(t.TempDir(), "missing")
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	for _, dir := range []string{missingDir, file} {
		job, err := NewJob("com.example.Foo", []string{"/bin/sh", "-c", "true"}, dir, 5)
		require.NoError(t, err)

		out := (&Runner{}).Run(testContext(t), job)

		assert.Equal(t, StatusLaunchFailed, out.Status)
		assert.Contains(t, out.Message, ErrBadWorkingDirectory.Error()+" "+dir)
		assert.NotContains(t, out.Message, "/bin/sh")
	}
}

func TestRunner_CancelledBeforeLaunch(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	out := (&Runner{}).Run(ctx, shJob(t, "echo should not run", 5))

	assert.Equal(t, StatusLaunchFailed, out.Status)
	assert.Contains(t, out.Message, ErrBatchCancelled.Error())
	assert.Empty(t, out.Output)
}

func TestRunner_Timeout(t *testing.T) {
	skipOnWindows(t)

	r := &Runner{Grace: 200 * time.Millisecond, ReapDelay: 200 * time.Millisecond}
	start := time.Now()

	out := r.Run(testContext(t), shJob(t, "echo started; sleep 10", 1))

	assert.Less(t, time.Since(start), 5*time.Second, "runner must not wait for the process")
	assert.Equal(t, StatusTimedOut, out.Status)
	assert.Equal(t, -1, out.ExitCode)
	assert.Contains(t, out.Message, "timeout 1s")
	assert.Contains(t, string(out.Output), "started")
	require.ErrorIs(t, out.Err(), ErrTimedOut)
}

func TestRunner_TimeoutKillsProcessGroup(t *testing.T) {
	skipOnWindows(t)

	// The background sleep inherits the output pipe, so the runner only returns
	// promptly if the whole group is killed.
	r := &Runner{Grace: 200 * time.Millisecond, ReapDelay: 3 * time.Second}
	start := time.Now()

	out := r.Run(testContext(t), shJob(t, "sleep 10 & sleep 10", 1))

	assert.Equal(t, StatusTimedOut, out.Status)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRunner_TimeoutIgnoresEscapedDescendant(t *testing.T) {
	skipOnWindows(t)

	if _, err := exec.LookPath("setsid"); err != nil {
		t.Skip("setsid not available")
	}

	// setsid moves the background sleep out of the process group, so it keeps
	// the output pipe open after the group has been killed.
	r := &Runner{Grace: -1}
	start := time.Now()

	out := r.Run(testContext(t), shJob(t, "setsid sleep 30 & sleep 5", 1))

	assert.Equal(t, StatusTimedOut, out.Status)
	assert.Less(t, time.Since(start), time.Second+500*time.Millisecond)
}

func TestRunner_OrphanHoldingPipe(t *testing.T) {
	skipOnWindows(t)

	r := &Runner{ReapDelay: 100 * time.Millisecond}
	start := time.Now()

	out := r.Run(testContext(t), shJob(t, "echo done; sleep 3 &", 5))

	assert.Equal(t, StatusSuccess, out.Status)
	assert.Contains(t, string(out.Output), "done")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRunner_LogDir(t *testing.T) {
	skipOnWindows(t)

	stubs := gostub.Stub(&FS, afero.NewMemMapFs())
	defer stubs.Reset()

	r := &Runner{LogDir: "/logs"}
	out := r.Run(testContext(t), shJob(t, "echo captured", 5))
	require.Equal(t, StatusSuccess, out.Status)

	b, err := afero.ReadFile(FS, filepath.Join("/logs", "com.example.Foo.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "captured")
}

func TestRunner_LogDirFailureDoesNotAffectOutcome(t *testing.T) {
	skipOnWindows(t)

	stubs := gostub.Stub(&FS, afero.NewReadOnlyFs(afero.NewMemMapFs()))
	defer stubs.Reset()

	out := (&Runner{LogDir: "/logs"}).Run(testContext(t), shJob(t, "exit 0", 5))

	assert.Equal(t, StatusSuccess, out.Status)
}

func TestLogFileName(t *testing.T) {
	assert.Equal(t, "com.example.Foo$Inner.log", LogFileName("com.example.Foo$Inner"))
	assert.Equal(t, "a_b_c.log", LogFileName(`a/b\c`))
}

func TestResolveExecutable(t *testing.T) {
	skipOnWindows(t)

	got, err := resolveExecutable("sh", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	got, err = resolveExecutable("./bin/tool", "/work")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/work", "bin", "tool"), got)

	_, err = resolveExecutable("gentests-no-such-executable", "")
	assert.Error(t, err)
}

func TestRunner_NegativeGraceMeansNone(t *testing.T) {
	skipOnWindows(t)

	r := &Runner{Grace: -1, ReapDelay: 200 * time.Millisecond}
	start := time.Now()

	out := r.Run(testContext(t), shJob(t, "sleep 10", 1))

	assert.Equal(t, StatusTimedOut, out.Status)
	assert.Less(t, time.Since(start), 2500*time.Millisecond)
	assert.Contains(t, out.Message, "grace 0s")
}
