package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitui-go/internal/buildinfo"
	"github.com/thiagokokada/gitui-go/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestVersionFlag(t *testing.T) {
	r := newRoot()
	var out bytes.Buffer
	r.cmd.SetOut(&out)
	r.cmd.SetArgs([]string{"--version"})

	require.NoError(t, r.cmd.Execute())
	assert.Equal(t, buildinfo.VersionWithTags(), strings.TrimSpace(out.String()))
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := writeConfig(t, "workers: 5\nlog_page_size: 80\ntheme: light\ntick_interval: 2s\n")
	r := newRoot()
	require.NoError(t, r.cmd.ParseFlags([]string{
		"--config", path,
		"--limit", "50",
		"--mode", "dark",
		"--nowatch",
		"--nosyntax",
	}))

	cfg, err := r.config()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workers, "file value kept when no flag is given")
	assert.Equal(t, 50, cfg.LogPageSize)
	assert.Equal(t, config.ThemeDark, cfg.Theme)
	assert.Equal(t, 2*time.Second, cfg.TickInterval)
	assert.False(t, cfg.AutoReload)
	assert.False(t, cfg.SyntaxHighlight)
}

func TestInvalidFlagValue(t *testing.T) {
	r := newRoot()
	require.NoError(t, r.cmd.ParseFlags([]string{
		"--config", writeConfig(t, ""),
		"--backend", "svn",
	}))

	_, err := r.config()
	assert.ErrorContains(t, err, "svn")
}

func TestTooManyArgs(t *testing.T) {
	r := newRoot()
	r.cmd.SetArgs([]string{"a", "b"})
	r.cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, r.cmd.Execute())
}

func TestBindFlagsRejectsUnknownFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("workers", 1, "")

	require.NoError(t, bindFlags(viper.New(), flags, map[string]string{"workers": "workers"}))
	err := bindFlags(viper.New(), flags, map[string]string{"log_page_size": "limit"})
	require.ErrorContains(t, err, "no flag --limit")
}

func TestEveryFlagKeyHasAFlag(t *testing.T) {
	r := newRoot()
	for key, name := range flagKeys {
		assert.NotNil(t, r.cmd.Flags().Lookup(name), key)
	}
}
