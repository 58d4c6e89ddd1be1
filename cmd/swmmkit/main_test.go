// Package main provides tests for the swmmkit CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/swmmkit/internal/cli"
	clitest "github.com/leapstack-labs/swmmkit/internal/cli/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "swmmkit v"+cli.Version)
}

func TestHelpCommand(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	for _, expected := range []string{"trace", "export", "import", "report", "sections", "runs", "completion"} {
		assert.Contains(t, out, expected)
	}
}

func TestCompletionCommand(t *testing.T) {
	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "swmmkit")

	_, err = run(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := clitest.SetupTestProject(t)
	cfg := filepath.Join(dir, "swmmkit.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output: json\ntrace:\n  direction: downstream\n"), 0600))

	out, err := run(t, "trace", "--config", cfg, "--start", "J2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"), "output format comes from the config file")
	assert.Contains(t, out, `"direction": "downstream"`)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := run(t, "sections", "--project", t.TempDir(), "-o", "html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestTraceExportPipeline(t *testing.T) {
	dir := clitest.SetupTestProject(t)
	subnet := filepath.Join(t.TempDir(), "subnet")
	inpPath := filepath.Join(t.TempDir(), "subnet.inp")

	_, err := run(t, "trace", "--project", dir, "--start", "J2", "--write", subnet, "-o", "markdown")
	require.NoError(t, err)

	_, err = run(t, "export", inpPath, "--project", subnet, "-o", "markdown")
	require.NoError(t, err)

	data, err := os.ReadFile(inpPath) //nolint:gosec // test path
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "[OUTFALLS]")
	assert.Contains(t, text, "J2")
	assert.NotContains(t, text, "O1", "the downstream outfall is not part of the upstream subset")
	assert.NotContains(t, text, "C2")
}
