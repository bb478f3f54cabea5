package xgscaffold

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/xgscaffold/config"
	"github.com/tordrt/xgscaffold/internal/schema"
)

func usersModel() *schema.DatabaseModel {
	db := &schema.DatabaseModel{DatabaseName: "shop"}
	users := &schema.Table{Database: db, Name: "users"}
	id := &schema.Column{Table: users, Name: "id", StoreType: "int"}
	name := &schema.Column{Table: users, Name: "name", StoreType: "varchar(100)", IsNullable: true}
	users.Columns = []*schema.Column{id, name}
	users.PrimaryKey = &schema.PrimaryKey{Table: users, Name: "PRIMARY", Columns: []*schema.Column{id}}
	db.Tables = []*schema.Table{users}
	return db
}

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		want    string
		wantErr string
	}{
		{name: "plain dsn", dsn: "root:pw@tcp(localhost:3306)/shop", want: "root:pw@tcp(localhost:3306)/shop"},
		{name: "mysql scheme", dsn: "mysql://root@tcp(db:3306)/shop?Scaffold:Views=false", want: "root@tcp(db:3306)/shop?Scaffold:Views=false"},
		{name: "mariadb scheme", dsn: " mariadb://root@/shop ", want: "root@/shop"},
		{name: "empty", dsn: "  ", wantErr: "dsn: must not be empty"},
		{name: "foreign scheme", dsn: "postgres://user@localhost/db", wantErr: `unsupported connection scheme "postgres"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeDSN(tt.dsn)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInspectDatabaseRejectsBadInputBeforeConnecting(t *testing.T) {
	ctx := context.Background()

	_, err := InspectDatabase(ctx, "", nil)
	var validation *config.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "dsn", validation.Field)

	invalid := config.Default()
	invalid.DefaultDateTimePrecision = 7
	_, err = InspectDatabase(ctx, "root@tcp(127.0.0.1:1)/shop", &Options{Config: invalid})
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "defaultDateTimePrecision", validation.Field)

	badVersion := config.Default()
	badVersion.ServerVersion = "not-a-version"
	_, err = InspectDatabase(ctx, "root@tcp(127.0.0.1:1)/shop", &Options{Config: badVersion})
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "serverVersion", validation.Field)
}

func TestResolveOptionsMergesFilters(t *testing.T) {
	base := config.Default()
	base.Tables = []string{"users"}

	resolved, err := resolveOptions(&Options{
		Config:        base,
		Tables:        []string{"orders"},
		ExcludeTables: []string{"audit"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"users", "orders"}, resolved.Tables)
	assert.Equal(t, []string{"audit"}, resolved.ExcludeTables)
	assert.Equal(t, []string{"users"}, base.Tables)
	assert.NotSame(t, base, resolved)

	resolved, err = resolveOptions(&Options{})
	require.NoError(t, err)
	assert.Equal(t, config.AutoDetect, resolved.ServerVersion)
}

func TestResolveOptionsKeepsScaffoldDefaults(t *testing.T) {
	resolved, err := resolveOptions(&Options{Config: &config.Options{ServerVersion: "8.0.21-xg"}})
	require.NoError(t, err)

	assert.Equal(t, config.DefaultScaffoldSettings(), resolved.Scaffold.Settings())
	assert.Equal(t, "8.0.21-xg", resolved.ServerVersion)
}

func TestFormatModelToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatModel(usersModel(), &OutputOptions{Writer: &buf}))
	assert.True(t, strings.HasPrefix(buf.String(), "# Database Schema\n"))
	assert.Contains(t, buf.String(), "- **id:** int, PK, NOT NULL\n")

	buf.Reset()
	require.NoError(t, FormatModel(usersModel(), &OutputOptions{Writer: &buf, Format: "text"}))
	assert.Equal(t, "TABLE users (PK: id)\n  id: int NOT NULL\n  name: varchar(100)\n", buf.String())

	buf.Reset()
	require.NoError(t, FormatModel(usersModel(), &OutputOptions{Writer: &buf, Format: "sql"}))
	assert.Contains(t, buf.String(), "CREATE TABLE `users` (")

	err := FormatModel(usersModel(), &OutputOptions{Writer: &buf, Format: "html"})
	assert.ErrorContains(t, err, `unsupported format "html"`)
}

func TestFormatModelToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schema")
	require.NoError(t, FormatModel(usersModel(), &OutputOptions{OutputDir: dir}))

	for _, name := range []string{"_overview.md", "users.md"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestScaffoldModel(t *testing.T) {
	model, err := ScaffoldModel(usersModel(), nil)
	require.NoError(t, err)

	user := model.FindEntityType("User")
	require.NotNil(t, user)
	require.NotNil(t, user.FindPrimaryKey())
	assert.True(t, user.FindProperty("Name").IsNullable())
}
