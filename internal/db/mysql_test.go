package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectorConfig(t *testing.T) {
	tests := []struct {
		name         string
		dsn          string
		wantDatabase string
		wantAddr     string
	}{
		{
			name:         "database segment is removed",
			dsn:          "root:secret@tcp(db:3306)/shop?parseTime=true",
			wantDatabase: "shop",
			wantAddr:     "db:3306",
		},
		{
			name:         "unknown database",
			dsn:          "root@tcp(localhost:3306)/missing_db",
			wantDatabase: "missing_db",
			wantAddr:     "localhost:3306",
		},
		{
			name:     "server level dsn",
			dsn:      "root@tcp(localhost:3306)/",
			wantAddr: "localhost:3306",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, database, err := connectorConfig(tt.dsn)
			require.NoError(t, err)

			assert.Equal(t, tt.wantDatabase, database)
			assert.Empty(t, cfg.DBName)
			assert.Equal(t, tt.wantAddr, cfg.Addr)
			if tt.wantDatabase != "" {
				assert.NotContains(t, cfg.FormatDSN(), tt.wantDatabase)
			}
		})
	}
}

func TestNewMySQLClientRejectsBadDSN(t *testing.T) {
	_, err := NewMySQLClient(context.Background(), "not a dsn")
	assert.ErrorContains(t, err, "failed to parse connection string")
}
