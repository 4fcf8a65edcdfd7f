// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package show

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matt-FFFFFF/gentests/internal/color"
	"github.com/matt-FFFFFF/gentests/internal/runbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestShowCmd(t *testing.T) {
	prev := color.Enabled()
	color.SetEnabled(false)
	t.Cleanup(func() { color.SetEnabled(prev) })

	started := time.Now()
	report := &runbatch.Report{
		BatchID:  "b-1",
		Started:  started,
		Finished: started.Add(2 * time.Second),
		Outcomes: []*runbatch.Outcome{
			{TargetID: "com.example.A", Status: runbatch.StatusSuccess},
			{TargetID: "com.example.B", Status: runbatch.StatusTimedOut, ExitCode: -1, Message: "still running after 40s"},
		},
	}

	name := filepath.Join(t.TempDir(), "report.gob")
	f, err := os.Create(name)
	require.NoError(t, err)
	require.NoError(t, report.WriteBinary(f))
	require.NoError(t, f.Close())

	var buf bytes.Buffer

	root := &cli.Command{
		Name:     "gentests",
		Writer:   &buf,
		Commands: []*cli.Command{ShowCmd},
	}

	require.NoError(t, root.Run(t.Context(), []string{"gentests", "show", name}))
	assert.Contains(t, buf.String(), "✓ com.example.A")
	assert.Contains(t, buf.String(), "com.example.B (timed out, 0s) ➜ still running after 40s")

	err = root.Run(t.Context(), []string{"gentests", "show", filepath.Join(t.TempDir(), "missing.gob")})
	require.ErrorIs(t, err, ErrReadFile)
}
