package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit-chaubey/media-metadata-guard/core/classify"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	isolate(t)

	c, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)
	assert.GreaterOrEqual(t, c.Assert.Jobs, 1)
	assert.Equal(t, classify.DefaultMaxMetadataBytes, c.Assert.MaxMetadataBytes)
	assert.Empty(t, c.Assert.ReportFile)
}

func TestLoad_DiscoversDotFileInWorkingDir(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".mediaguard.yaml"), "log:\n  level: debug\nassert:\n  jobs: 2\n")

	c, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, 2, c.Assert.Jobs)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "guard.yaml")
	writeFile(t, file, "log:\n  format: json\nassert:\n  max_metadata_bytes: 4096\n  report_file: gps.jsonl\n")

	c, err := Load(nil, file)
	require.NoError(t, err)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, int64(4096), c.Assert.MaxMetadataBytes)
	assert.Equal(t, "gps.jsonl", c.Assert.ReportFile)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	dir := isolate(t)

	_, err := Load(nil, filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".mediaguard.yaml"), "assert:\n  jobs: 2\n")
	t.Setenv("MEDIAGUARD_ASSERT_JOBS", "5")

	c, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, 5, c.Assert.Jobs)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	isolate(t)
	t.Setenv("MEDIAGUARD_LOG_LEVEL", "warn")

	cmd := &cobra.Command{Use: "assert"}
	cmd.Flags().String("log-level", "info", "")
	cmd.Flags().Int("jobs", 1, "")
	require.NoError(t, cmd.Flags().Set("log-level", "error"))

	c, err := Load(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, "error", c.Log.Level)
	// An unchanged flag does not shadow the default.
	assert.GreaterOrEqual(t, c.Assert.Jobs, 1)
}

func TestValidate(t *testing.T) {
	good := Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Assert: AssertConfig{Jobs: 1, MaxMetadataBytes: 1},
	}
	require.NoError(t, good.Validate())

	bad := []func(*Config){
		func(c *Config) { c.Log.Level = "chatty" },
		func(c *Config) { c.Log.Format = "xml" },
		func(c *Config) { c.Assert.Jobs = 0 },
		func(c *Config) { c.Assert.MaxMetadataBytes = 0 },
	}
	for i, mutate := range bad {
		c := good
		mutate(&c)
		assert.Error(t, c.Validate(), "case %d", i)
	}
}
