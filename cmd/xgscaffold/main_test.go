package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/xgscaffold/config"
	"github.com/tordrt/xgscaffold/serverversion"
)

func TestParseTableList(t *testing.T) {
	tests := []struct {
		name       string
		tablesStr  string
		wantTables []string
	}{
		{
			name:       "single table",
			tablesStr:  "users",
			wantTables: []string{"users"},
		},
		{
			name:       "multiple tables",
			tablesStr:  "users,posts,comments",
			wantTables: []string{"users", "posts", "comments"},
		},
		{
			name:       "tables with spaces",
			tablesStr:  "users, posts, comments",
			wantTables: []string{"users", "posts", "comments"},
		},
		{
			name:       "empty entries are dropped",
			tablesStr:  "users,,posts,",
			wantTables: []string{"users", "posts"},
		},
		{
			name:       "empty string",
			tablesStr:  "",
			wantTables: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTables, parseTableList(tt.tablesStr))
		})
	}
}

func TestShouldSplit(t *testing.T) {
	tests := []struct {
		name       string
		dir        string
		threshold  int
		tableCount int
		want       bool
	}{
		{name: "no directory", dir: "", threshold: 0, tableCount: 10, want: false},
		{name: "directory without threshold", dir: "out", threshold: 0, tableCount: 1, want: true},
		{name: "below threshold", dir: "out", threshold: 5, tableCount: 5, want: false},
		{name: "above threshold", dir: "out", threshold: 5, tableCount: 6, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldSplit(tt.dir, tt.threshold, tt.tableCount))
		})
	}
}

func resetFlags(t *testing.T) {
	t.Helper()
	saved := []*string{&dsn, &configFile, &envFile, &tables, &excludeTables, &serverVersion, &database}
	values := make([]string, len(saved))
	for i, p := range saved {
		values[i] = *p
		*p = ""
	}
	t.Cleanup(func() {
		for i, p := range saved {
			*p = values[i]
		}
	})
}

func TestLoadOptionsAppliesFlagsOverFile(t *testing.T) {
	resetFlags(t)

	path := filepath.Join(t.TempDir(), "xgscaffold.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
serverVersion: 8.0.21-xg
database: shop
excludeTables: [audit]
scaffold:
  views: false
`), 0o644))

	configFile = path
	serverVersion = "10.6.4-mariadb"
	tables = "users, orders"
	excludeTables = "logs"

	options, err := loadOptions()
	require.NoError(t, err)

	assert.Equal(t, "10.6.4-mariadb", options.ServerVersion)
	assert.Equal(t, "shop", options.Database)
	assert.Equal(t, []string{"users", "orders"}, options.Tables)
	assert.Equal(t, []string{"audit", "logs"}, options.ExcludeTables)
	settings := options.Scaffold.Settings()
	assert.False(t, settings.Views)
	assert.True(t, settings.CharSet)
}

func TestLoadOptionsRejectsBadServerVersion(t *testing.T) {
	resetFlags(t)
	serverVersion = "latest"

	_, err := loadOptions()
	var validation *config.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestResolveDSN(t *testing.T) {
	resetFlags(t)
	envFile = filepath.Join(t.TempDir(), "missing.env")

	got, err := resolveDSN("root@/flag", &config.Options{DSN: "root@/file"})
	require.NoError(t, err)
	assert.Equal(t, "root@/flag", got)

	got, err = resolveDSN("", &config.Options{DSN: "root@/file"})
	require.NoError(t, err)
	assert.Equal(t, "root@/file", got)

	t.Setenv("XG_DSN", "")
	t.Setenv("DATABASE_URL", "root@/env")
	got, err = resolveDSN("", &config.Options{})
	require.NoError(t, err)
	assert.Equal(t, "root@/env", got)

	t.Setenv("DATABASE_URL", "")
	_, err = resolveDSN("", &config.Options{})
	assert.ErrorContains(t, err, "no connection string")
}

func TestStripScaffoldOptions(t *testing.T) {
	connStr, settings, err := stripScaffoldOptions("mysql://root@tcp(db:3306)/shop?Scaffold:Views=false")
	require.NoError(t, err)
	assert.NotContains(t, connStr, "Scaffold")
	assert.NotContains(t, connStr, "mysql://")
	assert.False(t, settings.Views)
}

func TestPrintCapabilities(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	require.NoError(t, printCapabilities(&buf, serverversion.NewXG(5, 7, 30)))

	out := buf.String()
	assert.Contains(t, out, "  yes Json\n")
	assert.Contains(t, out, "  no  DefaultExpression\n")
	assert.Contains(t, out, "  no  Sequences\n")
}

func TestCapabilitiesCommand(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"capabilities", "10.5.3-mariadb"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "  yes Sequences\n")
	assert.Contains(t, buf.String(), "  yes AlternativeDefaultExpression\n")
}
