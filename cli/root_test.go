package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusmcp/focusmcp/pkg/config"
)

func setupCommand(t *testing.T, args ...string) *config.Config {
	t.Helper()
	cmd := RootCmd()
	cmd.SetContext(t.Context())
	require.NoError(t, cmd.ParseFlags(append([]string{"--env-file="}, args...)))
	require.NoError(t, SetupGlobalConfig(cmd))
	manager := config.ManagerFromContext(cmd.Context())
	t.Cleanup(func() {
		_ = manager.Close(context.Background())
	})
	return config.FromContext(cmd.Context())
}

func TestSetupGlobalConfig(t *testing.T) {
	t.Run("Should inject YAML values into the command context", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "focusmcp.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("server:\n  transport: http\n  port: 8080\n"), 0o600))
		cfg := setupCommand(t, "--config", cfgPath)
		assert.Equal(t, "http", cfg.Server.Transport)
		assert.Equal(t, 8080, cfg.Server.Port)
	})

	t.Run("Should let explicit flags override the YAML file", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "focusmcp.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("server:\n  port: 8080\n"), 0o600))
		cfg := setupCommand(t, "--config", cfgPath, "--port", "9191", "--script-timeout", "5s")
		assert.Equal(t, 9191, cfg.Server.Port)
		assert.Equal(t, "5s", cfg.Automation.Timeout.String())
	})

	t.Run("Should keep defaults for flags left unset", func(t *testing.T) {
		cfg := setupCommand(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Equal(t, "stdio", cfg.Server.Transport)
		assert.Equal(t, 6060, cfg.Server.Port)
		assert.Equal(t, "info", cfg.Runtime.LogLevel)
	})

	t.Run("Should map --debug to the debug log level", func(t *testing.T) {
		cfg := setupCommand(t, "--config=", "--debug")
		assert.Equal(t, "debug", cfg.Runtime.LogLevel)
	})

	t.Run("Should reject an invalid transport", func(t *testing.T) {
		cmd := RootCmd()
		cmd.SetContext(t.Context())
		require.NoError(t, cmd.ParseFlags([]string{"--env-file=", "--config=", "--transport", "carrier-pigeon"}))
		err := SetupGlobalConfig(cmd)
		assert.Error(t, err)
	})
}

func TestRootCmd(t *testing.T) {
	t.Run("Should register every command", func(t *testing.T) {
		cmd := RootCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, c := range cmd.Commands() {
			names = append(names, c.Name())
		}
		assert.Subset(t, names, []string{"serve", "batch", "doctor", "schemas", "version"})
	})

	t.Run("Should print the version", func(t *testing.T) {
		cmd := RootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"version", "--env-file=", "--config="})
		require.NoError(t, cmd.ExecuteContext(t.Context()))
		assert.Contains(t, out.String(), "focusmcp dev")
	})

	t.Run("Should write schemas to the requested directory", func(t *testing.T) {
		dir := t.TempDir()
		cmd := RootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"schemas", "--env-file=", "--config=", "--out", dir})
		require.NoError(t, cmd.ExecuteContext(t.Context()))
		assert.FileExists(t, filepath.Join(dir, "config.json"))
		assert.Contains(t, out.String(), filepath.Join(dir, "batch.json"))
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("Should load variables from a file in the working directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DOTENV_TEST_MARKER=loaded\n"), 0o600))
		t.Setenv("DOTENV_TEST_MARKER", "")
		require.NoError(t, os.Unsetenv("DOTENV_TEST_MARKER"))
		cmd := RootCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--env-file", ".env"}))
		path, err := loadEnvFile(cmd)
		require.NoError(t, err)
		assert.Equal(t, "loaded", os.Getenv("DOTENV_TEST_MARKER"))
		assert.Equal(t, ".env", filepath.Base(path))
	})

	t.Run("Should ignore a missing file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cmd := RootCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--env-file", "missing.env"}))
		_, err := loadEnvFile(cmd)
		assert.NoError(t, err)
	})

	t.Run("Should refuse a file outside the working directory", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cmd := RootCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--env-file", "../outside.env"}))
		_, err := loadEnvFile(cmd)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside the working directory")
	})
}
