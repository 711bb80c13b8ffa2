package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand(&stdout, &stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestAreasRunRunsExportResilience(t *testing.T) {
	base := t.TempDir()
	common := []string{
		"--store", "memory",
		"--runs-dir", filepath.Join(base, "runs"),
		"--exports-dir", filepath.Join(base, "exports"),
		"--log-level", "warn",
	}
	areasPath := filepath.Join(base, "areas.json")

	out, err := execute(t, append([]string{"areas", "--amount", "4", "--seed", "3", "--out", areasPath}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "generated 4 interest areas")

	out, err = execute(t, append([]string{
		"run",
		"--areas", areasPath,
		"--population", "4",
		"--generations", "2",
		"--radius", "1.5",
		"--seed", "9",
	}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "run_id=fewest_components-9-")
	assert.Contains(t, out, "generations=2")

	out, err = execute(t, append([]string{"runs", "--limit", "5"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "run_id=fewest_components-9-")

	out, err = execute(t, append([]string{"export", "--latest"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "exported run_id=fewest_components-9-")

	out, err = execute(t, append([]string{"resilience", "--latest", "--label", "initial"}, common...)...)
	require.NoError(t, err)
	assert.Regexp(t, "^removed=0 ", out)
}

func TestRunRequiresAreas(t *testing.T) {
	base := t.TempDir()
	_, err := execute(t, "run", "--store", "memory", "--runs-dir", filepath.Join(base, "runs"), "--generations", "1")
	assert.Error(t, err)
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "bogus")
	assert.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "runs", "--store", "memory", "--runs-dir", t.TempDir(), "--log-level", "loud")
	assert.Error(t, err)
}

func TestEnvironmentAndConfigFile(t *testing.T) {
	base := t.TempDir()
	runsDir := filepath.Join(base, "from-config")
	configPath := filepath.Join(base, "adhocnet.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("runs-dir: "+runsDir+"\nstore: memory\n"), 0o644))
	t.Setenv("ADHOCNET_LOG_LEVEL", "error")

	v := newViper()
	root := newRootCommand(&bytes.Buffer{}, &bytes.Buffer{})
	runs, _, err := root.Find([]string{"runs"})
	require.NoError(t, err)
	require.NoError(t, runs.ParseFlags([]string{"--config", configPath}))
	require.NoError(t, bindConfig(v, runs))

	cfg := loadConfig(v)
	assert.Equal(t, runsDir, cfg.RunsDir, "runs dir comes from the config file")
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, "error", cfg.LogLevel, "log level comes from the environment")
}

func TestBenchmark(t *testing.T) {
	base := t.TempDir()
	areasPath := filepath.Join(base, "areas.json")
	_, err := execute(t, "areas", "--store", "memory", "--amount", "3", "--seed", "1", "--out", areasPath)
	require.NoError(t, err)

	out, err := execute(t,
		"benchmark",
		"--store", "memory",
		"--runs-dir", filepath.Join(base, "runs"),
		"--log-level", "warn",
		"--areas", areasPath,
		"--runs", "2",
		"--population", "4",
		"--generations", "2",
		"--seed", "20",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "experiment_id=exp-fewest_components-20-")
	assert.Contains(t, out, "runs=2")
}
