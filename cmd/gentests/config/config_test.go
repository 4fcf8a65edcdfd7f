// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"encoding/json"
	"testing"

	gtconfig "github.com/matt-FFFFFF/gentests/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func runConfig(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer

	root := &cli.Command{
		Name:     "gentests",
		Writer:   &buf,
		Commands: []*cli.Command{newConfigCmd()},
	}

	err := root.Run(t.Context(), append([]string{"gentests", "config"}, args...))

	return buf.String(), err
}

func TestConfigCmd(t *testing.T) {
	out, err := runConfig(t, "--package", "org.acme.billing")
	require.NoError(t, err)

	cfg, err := gtconfig.Parse([]byte(out))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	want := gtconfig.Default()
	want.PackageName = "org.acme.billing"
	assert.Equal(t, want, cfg)
}

func TestConfigCmd_Schema(t *testing.T) {
	out, err := runConfig(t, "--schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))

	assert.Equal(t, schemaTitle, schema["title"])
	assert.Equal(t, []any{"package_name"}, schema["required"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)

	for _, key := range []string{"package_name", "classes_dir", "timeout_seconds", "threads", "jvm_args", "log_dir"} {
		assert.Contains(t, props, key)
	}

	threads, ok := props["threads"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, gtconfig.DefaultThreads, threads["default"], 0)
}

func TestConfigCmd_Markdown(t *testing.T) {
	out, err := runConfig(t, "--markdown")
	require.NoError(t, err)

	assert.Contains(t, out, "# "+schemaTitle)
	assert.Contains(t, out, "- **package_name** (string, required)")
	assert.Contains(t, out, "- **timeout_seconds** (integer, default `30`)")
}

func TestConfigCmd_SchemaAndMarkdownExclusive(t *testing.T) {
	_, err := runConfig(t, "--schema", "--markdown")
	require.Error(t, err)
}
