package serverversion

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// RowQueryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type RowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AutoDetectDB asks an open connection for its version.
func AutoDetectDB(ctx context.Context, q RowQueryer) (*ServerVersion, error) {
	var banner string
	if err := q.QueryRowContext(ctx, "SELECT VERSION()").Scan(&banner); err != nil {
		return nil, fmt.Errorf("failed to query server version: %w", err)
	}
	return Parse(banner)
}

// AutoDetect connects with dsn, with the database name cleared so that the
// query succeeds whether or not the database exists, and reads the version.
func AutoDetect(ctx context.Context, dsn string) (*ServerVersion, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	cfg.DBName = ""

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	db := sql.OpenDB(connector)
	defer func() { _ = db.Close() }()

	return AutoDetectDB(ctx, db)
}
