package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checho651/bfx-report/database"
	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/versions"
)

func TestVersionCmd_JSON(t *testing.T) {
	t.Parallel()

	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--format", "json"})

	require.NoError(t, cmd.Execute())

	var info versions.VersionInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.Platform)
}

func TestRootCmd_Subcommands(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "sync", "migrate", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{input: "yes\n", want: true},
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "y", want: true},
		{input: "no\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			assert.Equal(t, tt.want, confirm(strings.NewReader(tt.input), &out, "Continue?"))
			assert.Equal(t, "Continue? (yes/no): ", out.String())
		})
	}
}

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "store.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  path: "+dbPath+"\n"), 0o600))
	return cfgPath, dbPath
}

func schemaVersion(t *testing.T, dbPath string) (uint, error) {
	t.Helper()
	sqlDB, err := db.Open(dbPath)
	require.NoError(t, err)
	defer sqlDB.Close()
	version, _, err := database.GetVersion(sqlDB)
	return version, err
}

func TestMigrateCmd_UpDown(t *testing.T) {
	t.Parallel()

	cfgPath, dbPath := writeConfig(t)

	up := newMigrateCmd()
	up.SetArgs([]string{"up", "--config", cfgPath})
	require.NoError(t, up.Execute())

	version, err := schemaVersion(t, dbPath)
	require.NoError(t, err)
	assert.NotZero(t, version)

	declined := newMigrateCmd()
	declined.SetIn(strings.NewReader("no\n"))
	declined.SetOut(&bytes.Buffer{})
	declined.SetErr(&bytes.Buffer{})
	declined.SetArgs([]string{"down", "--config", cfgPath})
	require.Error(t, declined.Execute())

	after, err := schemaVersion(t, dbPath)
	require.NoError(t, err)
	assert.Equal(t, version, after, "a declined prompt leaves the schema alone")

	down := newMigrateCmd()
	down.SetArgs([]string{"down", "--config", cfgPath, "--yes"})
	require.NoError(t, down.Execute())

	_, err = schemaVersion(t, dbPath)
	assert.Error(t, err, "no version is recorded once every migration is reverted")
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	cfgPath, dbPath := writeConfig(t)
	cfg, err = loadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, dbPath, cfg.Database.Path)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
