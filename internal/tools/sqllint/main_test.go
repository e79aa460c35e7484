package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGo(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLintPathsAcceptsMarkedQueries(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "q.go", "package q\n\nconst QOne = `--sql 0b6f3c1e-8f3a-4d0e-9b8a-2f1d7c6e5a41\nSELECT 1`\n\nconst label = \"selected items\"\n")

	findings, err := lintPaths([]string{dir})
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestLintPathsReportsMissingMarker(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "q.go", "package q\n\nconst QBad = `\nUPDATE article_jobs SET status = 'failed'`\n")

	findings, err := lintPaths([]string{dir})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "QBad", findings[0].name)
	assert.Equal(t, 3, findings[0].pos.Line)
	assert.Contains(t, findings[0].message, "missing")
}

func TestLintPathsReportsDuplicateMarker(t *testing.T) {
	dir := t.TempDir()
	marker := "--sql 5a0e2d7b-1c4f-4b9e-8d3a-6e7f9a0b1c2d"
	writeGo(t, dir, "a.go", "package q\n\nconst QA = `"+marker+"\nSELECT 1`\n")
	writeGo(t, dir, "b.go", "package q\n\nconst QB = `"+marker+"\nSELECT 2`\n")

	findings, err := lintPaths([]string{dir})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "QB", findings[0].name)
	assert.Contains(t, findings[0].message, "already used by QA")
}

func TestLintPathsSkipsTestsAndUnderscoreDirs(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "q_test.go", "package q\n\nconst q = `SELECT 1`\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "_ref"), 0o755))
	writeGo(t, filepath.Join(dir, "_ref"), "r.go", "package r\n\nconst q = `DELETE FROM x`\n")

	findings, err := lintPaths([]string{dir})
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestRunExitCodes(t *testing.T) {
	dir := t.TempDir()
	path := writeGo(t, dir, "q.go", "package q\n\nvar q = \"SELECT 1\"\n")

	var stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{path}, &stderr))
	assert.True(t, strings.Contains(stderr.String(), "1 problem(s)"))

	stderr.Reset()
	assert.Equal(t, 2, run([]string{filepath.Join(dir, "missing")}, &stderr))
}
