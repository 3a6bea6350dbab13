package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	testDir := t.TempDir()

	c1, err := ReadOrCreate(testDir)
	assert.NoError(t, err)
	require.NotNil(t, c1)
	assert.Equal(t, Default(), c1)

	c1.Table.Source = SourceDB
	c1.Table.DSN = "table.db"
	c1.Severity.Thresholds = []float64{1, 2, 3, 4}
	c1.Server.Port = 9090

	err = Save(testDir, c1)
	assert.NoError(t, err)

	c2, err := ReadOrCreate(testDir)
	assert.NoError(t, err)
	require.NotNil(t, c2)
	assert.Equal(t, c1.Table, c2.Table)
	assert.Equal(t, c1.Severity, c2.Severity)
	assert.Equal(t, c1.Server.Port, c2.Server.Port)
}

func TestReadOrCreate_CreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	c, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, SourceBuiltin, c.Table.Source)

	_, err = os.Stat(filepath.Join(dir, configFileName))
	assert.NoError(t, err)
}

func TestReadOrCreate_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("table:\n  source: ./table.csv\n"), fileMode))

	c, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, "./table.csv", c.Table.Source)
	assert.Equal(t, []float64{2, 4, 6, 8}, c.Severity.Thresholds)
	assert.Equal(t, serverPortDefault, c.Server.Port)
}

func TestReadOrCreate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "table: [\n"},
		{"negative port", "server:\n  port: -1\n"},
		{"empty source", "table:\n  source: \"\"\n"},
		{"bad port", "server:\n  port: 70000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(tt.body), fileMode))
			_, err := ReadOrCreate(dir)
			assert.Error(t, err)
		})
	}
}

func TestReadOrCreate_EmptyDir(t *testing.T) {
	_, err := ReadOrCreate("")
	assert.Error(t, err)
}

func TestSave_Errors(t *testing.T) {
	assert.Error(t, Save("", Default()))
	assert.Error(t, Save(t.TempDir(), nil))
}

func TestResolveDSN(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		dsn  string
		want string
	}{
		{"", ""},
		{"table.db", filepath.Join(dir, "table.db")},
		{"/var/lib/nanotox/table.db", "/var/lib/nanotox/table.db"},
		{"postgres://u:p@localhost/db", "postgres://u:p@localhost/db"},
		{"file:table.db?cache=shared", "file:table.db?cache=shared"},
	}

	for _, tt := range tests {
		c := Default()
		c.Table.DSN = tt.dsn
		assert.Equal(t, tt.want, c.ResolveDSN(dir), tt.dsn)
	}
}

func TestGetOrCreateHomeDir_EmptyName(t *testing.T) {
	_, _, err := GetOrCreateHomeDir("")
	assert.Error(t, err)
}

func TestGetOrCreateHomeDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir, created, err := GetOrCreateHomeDir("nanotox")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ".nanotox", filepath.Base(dir))

	_, created, err = GetOrCreateHomeDir(".nanotox")
	require.NoError(t, err)
	assert.False(t, created)
}
